package masking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompilePatterns_AllBuiltinsCompile(t *testing.T) {
	compiled := compilePatterns()

	assert.Equal(t, len(builtinPatterns), len(compiled), "all built-in patterns should compile")
	for name, cp := range compiled {
		assert.NotNil(t, cp.Regex, "pattern %s should have a compiled regex", name)
		assert.NotEmpty(t, cp.Replacement, "pattern %s should have a replacement", name)
	}
}

func TestResolveGroup_Expansion(t *testing.T) {
	svc := NewService("secrets")

	tests := []struct {
		name           string
		group          string
		minRegex       int
		hasCodeMaskers bool
	}{
		{name: "basic group", group: "basic", minRegex: 2},
		{name: "secrets group", group: "secrets", minRegex: 5},
		{name: "security group", group: "security", minRegex: 6},
		{name: "kubernetes group", group: "kubernetes", minRegex: 2, hasCodeMaskers: true},
		{name: "cloud group", group: "cloud", minRegex: 4},
		{name: "all group", group: "all", minRegex: 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolved := svc.resolveGroup(tt.group)
			assert.GreaterOrEqual(t, len(resolved.regexPatterns), tt.minRegex)
			if tt.hasCodeMaskers {
				assert.Contains(t, resolved.codeMaskerNames, "kubernetes_secret")
			}
		})
	}
}

func TestResolveGroup_UnknownGroup(t *testing.T) {
	svc := NewService("secrets")

	resolved := svc.resolveGroup("nonexistent_group")

	assert.Empty(t, resolved.regexPatterns)
	assert.Empty(t, resolved.codeMaskerNames)
}

func TestResolveGroup_Deduplication(t *testing.T) {
	svc := NewService("secrets")

	resolved := svc.resolveGroup("secrets")

	seen := make(map[string]int)
	for _, p := range resolved.regexPatterns {
		seen[p.Name]++
	}
	for name, count := range seen {
		assert.Equal(t, 1, count, "pattern %s should appear only once", name)
	}
}
