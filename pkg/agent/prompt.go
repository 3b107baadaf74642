package agent

import (
	"fmt"
	"strings"

	"github.com/taskorbit/orchestrator/pkg/config"
	"github.com/taskorbit/orchestrator/pkg/llmclient"
	"github.com/taskorbit/orchestrator/pkg/models"
	"github.com/taskorbit/orchestrator/pkg/session"
)

// buildSystemPrompt assembles the persona's system prompt from the four
// sources SPEC_FULL.md §4.4 step 1 names: persona, selected skills' tool
// descriptions, approved pattern suggestions, and the session snapshot.
func buildSystemPrompt(agentName string, persona *config.AgentConfig, tools []llmclient.ToolDefinition, patterns []models.PatternSuggestion, snapshot *session.View) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are %s, a %s-scoped assistant.\n", agentName, orDefault(persona.Scope, "general-purpose"))
	if persona.Description != "" {
		b.WriteString(persona.Description)
		b.WriteString("\n")
	}
	if persona.CustomInstructions != "" {
		b.WriteString("\n")
		b.WriteString(persona.CustomInstructions)
		b.WriteString("\n")
	}

	if len(tools) > 0 {
		b.WriteString("\nTools available this turn:\n")
		for _, t := range tools {
			fmt.Fprintf(&b, "- %s: %s\n", t.Name, t.Description)
		}
	}

	if len(patterns) > 0 {
		b.WriteString("\nGuidance from previously approved patterns, most relevant first:\n")
		for _, p := range patterns {
			fmt.Fprintf(&b, "- %s\n", p.Text)
		}
	}

	if snapshot != nil && len(snapshot.Turns) > 0 {
		b.WriteString("\nRecent conversation:\n")
		for _, t := range snapshot.Turns {
			fmt.Fprintf(&b, "%s: %s\n", t.Role, t.Text)
		}
	}

	b.WriteString("\n")
	b.WriteString(confidenceInstruction)

	return b.String()
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
