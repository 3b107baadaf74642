package chatingress

import (
	"fmt"

	goslack "github.com/slack-go/slack"
)

const maxBlockTextLength = 2900

var statusEmoji = map[TerminalStatus]string{
	TerminalCompleted: ":white_check_mark:",
	TerminalFailed:    ":x:",
	TerminalTimedOut:  ":hourglass:",
	TerminalCancelled: ":no_entry_sign:",
}

var statusLabel = map[TerminalStatus]string{
	TerminalCompleted: "Done",
	TerminalFailed:    "Failed",
	TerminalTimedOut:  "Timed Out",
	TerminalCancelled: "Cancelled",
}

// buildStartedMessage builds Block Kit blocks for a dispatch-started reply.
func buildStartedMessage() []goslack.Block {
	text := ":arrows_counterclockwise: *Working on it* — this may take a few minutes."
	return []goslack.Block{
		goslack.NewSectionBlock(
			goslack.NewTextBlockObject(goslack.MarkdownType, text, false, false),
			nil, nil,
		),
	}
}

// buildTerminalMessage builds Block Kit blocks for the terminal reply that
// replaces the placeholder once the dispatch completes.
func buildTerminalMessage(status TerminalStatus, text string) []goslack.Block {
	emoji := statusEmoji[status]
	if emoji == "" {
		emoji = ":question:"
	}
	label := statusLabel[status]
	if label == "" {
		label = string(status)
	}

	headerText := fmt.Sprintf("%s *%s*", emoji, label)
	var blocks []goslack.Block
	blocks = append(blocks, goslack.NewSectionBlock(
		goslack.NewTextBlockObject(goslack.MarkdownType, headerText, false, false),
		nil, nil,
	))

	if text != "" {
		blocks = append(blocks, goslack.NewSectionBlock(
			goslack.NewTextBlockObject(goslack.MarkdownType, truncateForSlack(text), false, false),
			nil, nil,
		))
	}
	return blocks
}

func truncateForSlack(text string) string {
	if len(text) <= maxBlockTextLength {
		return text
	}
	return text[:maxBlockTextLength] + "\n\n_... (truncated)_"
}
