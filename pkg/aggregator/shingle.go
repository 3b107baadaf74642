package aggregator

import (
	"regexp"
	"strings"
)

var sentenceSplitRe = regexp.MustCompile(`[.!?\n]+`)

// splitBullets breaks an agent's free-text answer into candidate supporting
// bullet points: one per sentence/line, trimmed, with trivially short
// fragments (likely split artifacts, not real points) dropped.
func splitBullets(text string) []string {
	parts := sentenceSplitRe.Split(text, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if len(p) < 12 {
			continue
		}
		out = append(out, p)
	}
	return out
}

// shingleSize is the word n-gram length used for near-duplicate detection.
const shingleSize = 3

// shingles returns the set of k-word n-grams in s, lowercased, for cheap
// near-duplicate comparison between candidate bullets.
func shingles(s string, k int) map[string]bool {
	words := strings.Fields(strings.ToLower(s))
	if len(words) < k {
		return map[string]bool{strings.Join(words, " "): true}
	}
	set := make(map[string]bool, len(words)-k+1)
	for i := 0; i+k <= len(words); i++ {
		set[strings.Join(words[i:i+k], " ")] = true
	}
	return set
}

// jaccard is the set similarity between two shingle sets.
func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	var intersection int
	for s := range a {
		if b[s] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// duplicateThreshold is how similar two bullets' shingle sets must be
// before the later one is considered a near-duplicate and dropped.
const duplicateThreshold = 0.6

// dedupeBullets keeps candidates in order, dropping any whose shingles
// overlap an already-kept bullet above duplicateThreshold, until limit is
// reached.
func dedupeBullets(candidates []string, limit int) []string {
	var kept []string
	var keptShingles []map[string]bool
	for _, c := range candidates {
		if len(kept) >= limit {
			break
		}
		cs := shingles(c, shingleSize)
		dup := false
		for _, ks := range keptShingles {
			if jaccard(cs, ks) >= duplicateThreshold {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		kept = append(kept, c)
		keptShingles = append(keptShingles, cs)
	}
	return kept
}
