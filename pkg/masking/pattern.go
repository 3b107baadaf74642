package masking

import (
	"log/slog"
	"regexp"
	"slices"
)

// CompiledPattern holds a pre-compiled regex pattern with its replacement.
type CompiledPattern struct {
	Name        string
	Regex       *regexp.Regexp
	Replacement string
	Description string
}

// rawPattern is the source form a CompiledPattern is built from.
type rawPattern struct {
	Pattern     string
	Replacement string
	Description string
}

// builtinPatterns are the regex-based secret patterns this package recognizes,
// built on a builtin masking-pattern table —
// carried over unchanged since these patterns target secret *shapes*
// (API keys, tokens, certs), not anything MCP-server-specific.
var builtinPatterns = map[string]rawPattern{
	"api_key": {
		Pattern:     `(?i)(?:api[_-]?key|apikey|key)["']?\s*[:=]\s*["']?([A-Za-z0-9_\-]{20,})["']?`,
		Replacement: `"api_key": "[MASKED_API_KEY]"`,
		Description: "API keys",
	},
	"password": {
		Pattern:     `(?i)(?:password|pwd|pass)["']?\s*[:=]\s*["']?([^"'\s\n]{6,})["']?`,
		Replacement: `"password": "[MASKED_PASSWORD]"`,
		Description: "Passwords",
	},
	"certificate": {
		Pattern:     `(?s)-----BEGIN [A-Z ]+-----.*?-----END [A-Z ]+-----`,
		Replacement: `[MASKED_CERTIFICATE]`,
		Description: "SSL/TLS certificates",
	},
	"token": {
		Pattern:     `(?i)(?:token|bearer|jwt)["']?\s*[:=]\s*["']?([A-Za-z0-9_\-\.]{20,})["']?`,
		Replacement: `"token": "[MASKED_TOKEN]"`,
		Description: "Access tokens",
	},
	"email": {
		Pattern:     `\b[A-Za-z0-9._%+-]+@[A-Za-z0-9]+(?:[.-][A-Za-z0-9]+)*\.[A-Za-z]{2,63}\b`,
		Replacement: `[MASKED_EMAIL]`,
		Description: "Email addresses",
	},
	"ssh_key": {
		Pattern:     `ssh-(?:rsa|dss|ed25519|ecdsa)\s+[A-Za-z0-9+/=]+`,
		Replacement: `[MASKED_SSH_KEY]`,
		Description: "SSH public keys",
	},
	"private_key": {
		Pattern:     `(?i)(?:private[_-]?key)["']?\s*[:=]\s*["']?([A-Za-z0-9_\-\.]{20,})["']?`,
		Replacement: `"private_key": "[MASKED_PRIVATE_KEY]"`,
		Description: "Private keys",
	},
	"secret_key": {
		Pattern:     `(?i)(?:secret[_-]?key)["']?\s*[:=]\s*["']?([A-Za-z0-9_\-\.]{20,})["']?`,
		Replacement: `"secret_key": "[MASKED_SECRET_KEY]"`,
		Description: "Secret keys",
	},
	"aws_access_key": {
		Pattern:     `(?i)(?:aws[_-]?access[_-]?key[_-]?id)["']?\s*[:=]\s*["']?(AKIA[A-Z0-9]{16})["']?`,
		Replacement: `"aws_access_key_id": "[MASKED_AWS_KEY]"`,
		Description: "AWS access keys",
	},
	"aws_secret_key": {
		Pattern:     `(?i)(?:aws[_-]?secret[_-]?access[_-]?key)["']?\s*[:=]\s*["']?([A-Za-z0-9/+=]{40})["']?`,
		Replacement: `"aws_secret_access_key": "[MASKED_AWS_SECRET]"`,
		Description: "AWS secret keys",
	},
	"github_token": {
		Pattern:     `(?i)(?:github[_-]?token|gh[ps]_[A-Za-z0-9_]{36,255})`,
		Replacement: `[MASKED_GITHUB_TOKEN]`,
		Description: "GitHub tokens",
	},
	"slack_token": {
		Pattern:     `(?i)xox[baprs]-[A-Za-z0-9-]{10,72}`,
		Replacement: `[MASKED_SLACK_TOKEN]`,
		Description: "Slack tokens",
	},
}

// builtinCodeMaskers names the structural (non-regex) maskers a group may
// reference alongside regex pattern names.
var builtinCodeMaskers = []string{"kubernetes_secret"}

// builtinPatternGroups are named bundles of pattern/masker names, carried
// over from a builtin pattern-groups table — trimmed to the groups this
// domain's callers actually select (SPEC_FULL.md's Budget Gate doc and the
// Dispatcher's audit path use "secrets" by default).
var builtinPatternGroups = map[string][]string{
	"basic":      {"api_key", "password"},
	"secrets":    {"api_key", "password", "token", "private_key", "secret_key"},
	"security":   {"api_key", "password", "token", "certificate", "email", "ssh_key"},
	"kubernetes": {"kubernetes_secret", "api_key", "password"},
	"cloud":      {"aws_access_key", "aws_secret_key", "api_key", "token"},
	"all": {
		"api_key", "password", "certificate", "email", "token", "ssh_key",
		"private_key", "secret_key", "aws_access_key", "aws_secret_key",
		"github_token", "slack_token", "kubernetes_secret",
	},
}

// resolvedPatterns holds the resolved set of maskers and patterns for a masking operation.
type resolvedPatterns struct {
	codeMaskerNames []string
	regexPatterns   []*CompiledPattern
}

// compilePatterns compiles every builtin regex pattern once at construction.
// Invalid patterns are logged and skipped rather than failing startup.
func compilePatterns() map[string]*CompiledPattern {
	compiled := make(map[string]*CompiledPattern, len(builtinPatterns))
	for name, p := range builtinPatterns {
		re, err := regexp.Compile(p.Pattern)
		if err != nil {
			slog.Error("masking: failed to compile builtin pattern, skipping", "pattern", name, "error", err)
			continue
		}
		compiled[name] = &CompiledPattern{Name: name, Regex: re, Replacement: p.Replacement, Description: p.Description}
	}
	return compiled
}

// resolveGroup expands a pattern group name into its regex patterns and code
// masker names, deduplicated.
func (s *Service) resolveGroup(groupName string) *resolvedPatterns {
	resolved := &resolvedPatterns{}
	names, ok := builtinPatternGroups[groupName]
	if !ok {
		return resolved
	}
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		if slices.Contains(builtinCodeMaskers, name) {
			resolved.codeMaskerNames = append(resolved.codeMaskerNames, name)
			continue
		}
		if cp, ok := s.patterns[name]; ok {
			resolved.regexPatterns = append(resolved.regexPatterns, cp)
		}
	}
	return resolved
}
