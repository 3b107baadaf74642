// Package masking redacts secrets from agent output before it is written to
// the audit trail (models.AuditLogEntry's doc comment: "masked before
// persistence"). Trimmed from its
// original per-MCP-server DataMasking config (this domain has no MCP server
// registry) down to a fixed set of builtin pattern groups selected by name.
package masking

import "log/slog"

// Service applies data masking to agent output and tool results before
// they're persisted. Created once at startup (singleton); thread-safe and
// stateless aside from its compiled patterns.
type Service struct {
	patterns    map[string]*CompiledPattern
	codeMaskers map[string]Masker
	group       string
}

// NewService creates a masking service that applies the named pattern group
// (see builtinPatternGroups) to every call to Mask. Patterns are compiled
// eagerly; invalid ones are logged and skipped.
func NewService(group string) *Service {
	if group == "" {
		group = "secrets"
	}
	s := &Service{
		patterns:    compilePatterns(),
		codeMaskers: make(map[string]Masker),
		group:       group,
	}
	s.registerMasker(&KubernetesSecretMasker{})

	slog.Info("masking service initialized",
		"builtin_patterns", len(builtinPatterns), "compiled_patterns", len(s.patterns),
		"code_maskers", len(s.codeMaskers), "pattern_group", group)

	return s
}

// Mask redacts secrets from content using the service's configured pattern
// group. Fail-closed: if masking itself errors, the content is replaced with
// a redaction notice rather than risk a leak — this runs on the audit path,
// where a masking bug must never be worse than the secret it was meant to hide.
func (s *Service) Mask(content string) string {
	if content == "" {
		return content
	}
	resolved := s.resolveGroup(s.group)
	if len(resolved.codeMaskerNames) == 0 && len(resolved.regexPatterns) == 0 {
		return content
	}

	masked := content
	for _, name := range resolved.codeMaskerNames {
		masker, ok := s.codeMaskers[name]
		if !ok {
			continue
		}
		if masker.AppliesTo(masked) {
			masked = masker.Mask(masked)
		}
	}
	for _, pattern := range resolved.regexPatterns {
		masked = pattern.Regex.ReplaceAllString(masked, pattern.Replacement)
	}
	return masked
}

// registerMasker registers a code-based masker by its name.
func (s *Service) registerMasker(m Masker) {
	s.codeMaskers[m.Name()] = m
}
