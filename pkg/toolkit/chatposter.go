package toolkit

import (
	"context"
	"encoding/json"
	"fmt"

	goslack "github.com/slack-go/slack"

	"github.com/taskorbit/orchestrator/pkg/models"
)

// ChatPosterAdapter is the "chat-poster" Adapter variant, generalized from
// a thin wrapper over goslack.Client.
// PostMessageContext rather than this package's own session-reply logic.
type ChatPosterAdapter struct{}

func NewChatPosterAdapter() *ChatPosterAdapter { return &ChatPosterAdapter{} }

func (a *ChatPosterAdapter) ProviderName() string { return "chat-poster" }

func (a *ChatPosterAdapter) Operations() []Operation {
	return []Operation{
		{
			Name:         "post_message",
			Description:  "Post a text message to a chat channel or thread.",
			InputSchema:  `{"type":"object","required":["channel","text"],"properties":{"channel":{"type":"string"},"text":{"type":"string"},"thread_ts":{"type":"string"}}}`,
			OutputSchema: `{"type":"object","properties":{"channel":{"type":"string"},"timestamp":{"type":"string"}}}`,
		},
	}
}

func (a *ChatPosterAdapter) Preflight(conn models.ToolConnection) error {
	cfg, err := decodeConfig(conn)
	if err != nil {
		return err
	}
	if cfg["bot_token"] == "" {
		return &ErrUnavailable{Provider: a.ProviderName(), Reason: "missing bot_token"}
	}
	return nil
}

type postMessageInput struct {
	Channel  string `json:"channel"`
	Text     string `json:"text"`
	ThreadTS string `json:"thread_ts,omitempty"`
}

type postMessageOutput struct {
	Channel   string `json:"channel"`
	Timestamp string `json:"timestamp"`
}

func (a *ChatPosterAdapter) Invoke(ctx context.Context, operation string, raw json.RawMessage, conn models.ToolConnection) (json.RawMessage, error) {
	if operation != "post_message" {
		return nil, fmt.Errorf("toolkit: chat-poster: unknown operation %q", operation)
	}
	cfg, err := decodeConfig(conn)
	if err != nil {
		return nil, err
	}

	var in postMessageInput
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, fmt.Errorf("toolkit: chat-poster: decode input: %w", err)
	}

	client := goslack.New(cfg["bot_token"])
	opts := []goslack.MsgOption{goslack.MsgOptionText(in.Text, false)}
	if in.ThreadTS != "" {
		opts = append(opts, goslack.MsgOptionTS(in.ThreadTS))
	}
	channel, timestamp, err := client.PostMessageContext(ctx, in.Channel, opts...)
	if err != nil {
		return nil, fmt.Errorf("toolkit: chat-poster: post message: %w", err)
	}

	return json.Marshal(postMessageOutput{Channel: channel, Timestamp: timestamp})
}
