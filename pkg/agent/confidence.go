package agent

import (
	"regexp"
	"strconv"
	"strings"
)

// confidenceInstruction is appended to every persona's system prompt so
// the LLM's final turn carries a self-report the dispatcher can weigh in
// the Result Aggregator (SPEC_FULL.md §4.4 step 4, §4.6 step 2). The
// trailing-standalone-line convention mirrors the scoring controller at
// pkg/agent/controller/scoring.go's scoringOutputSchema, adapted from an
// integer 0-100 score to a 0..1 confidence fraction.
const confidenceInstruction = `End your response with your confidence in this answer as a standalone line in the exact form:
CONFIDENCE: 0.NN
where 0.NN is a number between 0 and 1.`

// confidenceRegex matches the trailing CONFIDENCE line, case-insensitive,
// anchored to its own line so it isn't confused with a number mentioned
// in the body of the answer.
var confidenceRegex = regexp.MustCompile(`(?im)^\s*CONFIDENCE:\s*([01](?:\.\d+)?)\s*$`)

// extractConfidence parses a trailing confidence line off text, returning
// the parsed value (clamped to [0,1]) and the text with that line
// removed. If no line is found — the scoring controller elsewhere retries
// up to maxExtractionRetries times for its mandatory score line, but a
// missing confidence self-report here is not an error per §4.4
// ("confidence self-report, if any"), so this just falls back to
// defaultSelfConfidence rather than spending a tool round re-asking.
func extractConfidence(text string) (float64, string) {
	loc := confidenceRegex.FindStringSubmatchIndex(text)
	if loc == nil {
		return defaultSelfConfidence, strings.TrimSpace(text)
	}

	val, err := strconv.ParseFloat(text[loc[2]:loc[3]], 64)
	if err != nil {
		return defaultSelfConfidence, strings.TrimSpace(text)
	}
	if val < 0 {
		val = 0
	} else if val > 1 {
		val = 1
	}

	clean := strings.TrimSpace(text[:loc[0]] + text[loc[1]:])
	return val, clean
}
