package analyzer

import "strings"

// intentKeywords maps a supported language tag to an ordered list of
// (intent, keyword) rules. Rules are checked in order; the first match
// wins, so more specific phrases are listed before generic ones.
type keywordRule struct {
	intent   Intent
	keywords []string
}

var intentKeywords = map[string][]keywordRule{
	"en": {
		{IntentCreateTask, []string{"create a task", "add a task", "new task", "create ticket", "file a bug"}},
		{IntentUpdateTask, []string{"update", "change status", "mark as done", "reassign", "edit task"}},
		{IntentListTasks, []string{"list tasks", "show my tasks", "what's on my plate", "show open"}},
		{IntentSearch, []string{"find", "search for", "look up", "where is"}},
		{IntentChat, []string{"hello", "hi there", "how are you", "thanks", "thank you"}},
	},
	"es": {
		{IntentCreateTask, []string{"crear una tarea", "nueva tarea", "agregar tarea", "crear ticket"}},
		{IntentUpdateTask, []string{"actualizar", "marcar como hecho", "reasignar", "editar tarea"}},
		{IntentListTasks, []string{"listar tareas", "mostrar mis tareas", "tareas abiertas"}},
		{IntentSearch, []string{"buscar", "encontrar", "dónde está"}},
		{IntentChat, []string{"hola", "cómo estás", "gracias"}},
	},
}

// languageStopwords is a small closed-class word list per supported
// language, used for the detection heuristic in language.go. These are not
// intent keywords — they are the highest-frequency function words that
// distinguish a language regardless of topic.
var languageStopwords = map[string][]string{
	"en": {"the", "is", "are", "and", "to", "of", "a", "my", "please", "what"},
	"es": {"el", "la", "es", "son", "y", "de", "un", "una", "mi", "por"},
	"fr": {"le", "la", "est", "sont", "et", "de", "un", "une", "mon", "pour"},
	"de": {"der", "die", "das", "ist", "sind", "und", "von", "ein", "mein", "für"},
}

// categoryKeywords biases the router's category_hint when the Analyzer's
// keyword fallback runs; it is deliberately coarse since the Router (§4.3)
// re-derives category from its own rules when confidence is low.
var categoryKeywords = map[string][]string{
	"writing":    {"summary", "summarize", "draft", "document", "write up", "resumen", "redactar"},
	"artistry":   {"brainstorm", "creative", "idea", "design concept", "idea creativa"},
	"visual-eng": {"ui", "frontend", "layout", "css", "component"},
	"ultrabrain": {"architecture", "deep dive", "root cause", "design a system"},
}

// skillKeywords maps a skill bundle name to the phrases that trigger it.
var skillKeywords = map[string][]string{
	"tool-integration": {"integrate", "webhook", "api key", "connect to"},
	"browser":          {"browse", "open the page", "screenshot of", "navigate to"},
	"vcs":              {"git", "pull request", "merge", "commit", "branch"},
	"ui-design":        {"mockup", "wireframe", "figma", "component library"},
}

func containsAny(haystack string, needles []string) (string, bool) {
	lower := strings.ToLower(haystack)
	for _, n := range needles {
		if strings.Contains(lower, n) {
			return n, true
		}
	}
	return "", false
}
