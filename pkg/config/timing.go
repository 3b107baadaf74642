package config

import "time"

// TimingTable is the single source of truth for per-category deadlines,
// resolving Open Question #1 (SPEC_FULL.md §9): rather than a scattered set
// of ad hoc timeouts, every component derives a request's overall deadline
// from here, keyed by the router's chosen category.
type TimingTable struct {
	Deadlines map[Category]time.Duration `yaml:"deadlines"`
	Default   time.Duration              `yaml:"default"`
}

// DeadlineFor returns the configured deadline for a category, falling back
// to the table's default when the category is unset or unrecognized.
func (t *TimingTable) DeadlineFor(c Category) time.Duration {
	if d, ok := t.Deadlines[c]; ok && d > 0 {
		return d
	}
	return t.Default
}

// DefaultTimingTable returns the built-in per-category deadlines.
func DefaultTimingTable() *TimingTable {
	return &TimingTable{
		Default: 2 * time.Minute,
		Deadlines: map[Category]time.Duration{
			CategoryQuick:      60 * time.Second,
			CategoryWriting:    2 * time.Minute,
			CategoryArtistry:   2 * time.Minute,
			CategoryVisualEng:  3 * time.Minute,
			CategoryUltrabrain: 5 * time.Minute,
		},
	}
}
