package analyzer

import (
	"strings"

	"golang.org/x/text/language"
)

// supportedLanguages is the Matcher's preference order; English first as
// the fallback when no stopword signal is strong enough to decide.
var supportedLanguages = language.NewMatcher([]language.Tag{
	language.English,
	language.Spanish,
	language.French,
	language.German,
})

// detectLanguage biases the keyword lexicon and, in the LLM path, is passed
// as a hint alongside the utterance. No detection library exists anywhere
// in the retrieved pack, so this is a deliberately small stopword-overlap
// heuristic (documented in DESIGN.md as the one standard-library-only
// decision in this package) rather than a full statistical classifier;
// golang.org/x/text/language.Matcher then normalizes the winning code
// against the BCP 47 tags this system actually supports.
func detectLanguage(utterance string) string {
	words := strings.Fields(strings.ToLower(utterance))
	if len(words) == 0 {
		return language.English.String()
	}

	best, bestScore := "en", -1
	for lang, stopwords := range languageStopwords {
		score := 0
		for _, w := range words {
			for _, sw := range stopwords {
				if w == sw {
					score++
				}
			}
		}
		if score > bestScore {
			best, bestScore = lang, score
		}
	}

	tag, _ := language.MatchStrings(supportedLanguages, best)
	return tag.String()
}
