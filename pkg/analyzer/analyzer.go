package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/taskorbit/orchestrator/pkg/config"
	"github.com/taskorbit/orchestrator/pkg/llmclient"
)

// llmTimeBudget bounds the LLM path per SPEC_FULL.md §4.2: a fail-open
// design needs a hard ceiling so a slow provider never blocks routing.
const llmTimeBudget = 2 * time.Second

// Analyzer turns a free-form utterance into a Result, trying the LLM path
// first and falling back to deterministic keyword matching whenever the
// LLM path errors, times out, or returns something that doesn't parse —
// the same "classify then decide whether this is worth retrying or must
// degrade" shape as pkg/mcp/recovery.go's ClassifyError, here applied to a
// provider call instead of an MCP transport call.
type Analyzer struct {
	llm      llmclient.Client
	provider *config.LLMProviderConfig
	apiKey   string
}

// New builds an Analyzer against the given provider, normally resolved by
// the caller as the "quick" category's LLMProvider — the cheapest
// configured tier, per §4.2 step 1.
func New(llm llmclient.Client, provider *config.LLMProviderConfig, apiKey string) *Analyzer {
	return &Analyzer{llm: llm, provider: provider, apiKey: apiKey}
}

// Analyze never returns an error: on any failure of the LLM path it falls
// back to the keyword lexicon, which always produces a result.
func (a *Analyzer) Analyze(ctx context.Context, input Input) *Result {
	lang := detectLanguage(input.Utterance)

	if a.llm != nil && a.provider != nil {
		ctx, cancel := context.WithTimeout(ctx, llmTimeBudget)
		defer cancel()
		if result, err := a.analyzeWithLLM(ctx, input, lang); err != nil {
			slog.Warn("analyzer: LLM path failed, falling back to keywords", "error", err)
		} else {
			return result
		}
	}

	return a.analyzeWithKeywords(input, lang)
}

type llmAnalysis struct {
	Intent       string            `json:"intent"`
	Entities     map[string]string `json:"entities"`
	CategoryHint string            `json:"category_hint"`
	SkillHints   []string          `json:"skill_hints"`
	Confidence   float64           `json:"confidence"`
}

func (a *Analyzer) analyzeWithLLM(ctx context.Context, input Input, lang string) (*Result, error) {
	prompt := buildAnalysisPrompt(input, lang)

	chunks, err := a.llm.Generate(ctx, &llmclient.GenerateInput{
		Messages: []llmclient.ConversationMessage{
			{Role: llmclient.RoleSystem, Content: analysisSystemPrompt},
			{Role: llmclient.RoleUser, Content: prompt},
		},
		Config: a.provider,
		APIKey: a.apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("analyzer: generate: %w", err)
	}

	var text strings.Builder
	for chunk := range chunks {
		switch c := chunk.(type) {
		case *llmclient.TextChunk:
			text.WriteString(c.Content)
		case *llmclient.ErrorChunk:
			return nil, fmt.Errorf("analyzer: provider error: %s", c.Message)
		}
	}

	if ctx.Err() != nil {
		return nil, fmt.Errorf("analyzer: time budget exceeded: %w", ctx.Err())
	}

	var parsed llmAnalysis
	if err := json.Unmarshal([]byte(extractJSONObject(text.String())), &parsed); err != nil {
		return nil, fmt.Errorf("analyzer: schema violation: %w", err)
	}

	confidence := clampConfidence(parsed.Confidence)
	return &Result{
		Intent:       Intent(parsed.Intent).normalize(),
		Entities:     parsed.Entities,
		Language:     lang,
		CategoryHint: parsed.CategoryHint,
		SkillHints:   parsed.SkillHints,
		Confidence:   confidence,
		Uncertain:    confidence < uncertainThreshold,
		Source:       "llm",
	}, nil
}

func (a *Analyzer) analyzeWithKeywords(input Input, lang string) *Result {
	rules := intentKeywords[lang]
	if rules == nil {
		rules = intentKeywords["en"]
	}

	intent := IntentOther
	for _, rule := range rules {
		if _, ok := containsAny(input.Utterance, rule.keywords); ok {
			intent = rule.intent
			break
		}
	}

	var categoryHint string
	for category, keywords := range categoryKeywords {
		if _, ok := containsAny(input.Utterance, keywords); ok {
			categoryHint = category
			break
		}
	}

	var skills []string
	for skill, keywords := range skillKeywords {
		if _, ok := containsAny(input.Utterance, keywords); ok {
			skills = append(skills, skill)
		}
	}

	// Keyword path is never fully confident: clamp per §4.2 step 2.
	confidence := 0.3
	if intent != IntentOther {
		confidence = 0.45
	}

	return &Result{
		Intent:       intent,
		Entities:     map[string]string{},
		Language:     lang,
		CategoryHint: categoryHint,
		SkillHints:   skills,
		Confidence:   confidence,
		Uncertain:    true,
		Source:       "keyword",
	}
}

const analysisSystemPrompt = `You are a routing classifier. Given a user utterance and recent history,
respond with exactly one JSON object and nothing else, matching:
{"intent": "create_task|update_task|list_tasks|search|chat|other",
 "entities": {"<name>": "<value>"},
 "category_hint": "quick|writing|artistry|visual-eng|ultrabrain",
 "skill_hints": ["..."],
 "confidence": 0.0}`

func buildAnalysisPrompt(input Input, lang string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Detected language: %s\n", lang)
	if len(input.History) > 0 {
		b.WriteString("Recent history:\n")
		for _, h := range input.History {
			fmt.Fprintf(&b, "- %s\n", h)
		}
	}
	fmt.Fprintf(&b, "Utterance: %s\n", input.Utterance)
	return b.String()
}

// extractJSONObject trims any leading/trailing prose a provider adds
// despite instructions, returning the outermost {...} span.
func extractJSONObject(s string) string {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start == -1 || end == -1 || end < start {
		return s
	}
	return s[start : end+1]
}
