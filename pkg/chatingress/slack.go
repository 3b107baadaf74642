package chatingress

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	goslack "github.com/slack-go/slack"
)

// SlackIngress adapts Slack mentions and slash commands into InboundMessage
// and posts replies back to the originating thread, via a thin wrapper
// around the slack-go SDK.
type SlackIngress struct {
	api           *goslack.Client
	channelID     string
	signingSecret string
	logger        *slog.Logger
}

// NewSlackIngress creates a Slack chat-ingress adapter for a single channel.
func NewSlackIngress(token, channelID, signingSecret string) *SlackIngress {
	return &SlackIngress{
		api:           goslack.New(token),
		channelID:     channelID,
		signingSecret: signingSecret,
		logger:        slog.Default().With("component", "chatingress-slack"),
	}
}

// slackEvent is the subset of Slack's Events API payload this adapter reads.
type slackEvent struct {
	Event struct {
		User      string `json:"user"`
		Text      string `json:"text"`
		ThreadTS  string `json:"thread_ts"`
		TS        string `json:"ts"`
		ChannelID string `json:"channel"`
	} `json:"event"`
}

// VerifySignature checks Slack's HMAC request signature (X-Slack-Signature /
// X-Slack-Request-Timestamp) against the configured signing secret.
func (s *SlackIngress) VerifySignature(headers map[string]string, body []byte) error {
	ts := headers["X-Slack-Request-Timestamp"]
	sig := headers["X-Slack-Signature"]
	if ts == "" || sig == "" {
		return fmt.Errorf("missing slack signature headers")
	}

	base := fmt.Sprintf("v0:%s:%s", ts, body)
	mac := hmac.New(sha256.New, []byte(s.signingSecret))
	mac.Write([]byte(base))
	expected := "v0=" + hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(sig)) {
		return fmt.Errorf("slack signature mismatch")
	}
	return nil
}

// ParseInbound extracts the normalized message from a verified Slack event
// payload. The thread key is the root thread timestamp, falling back to the
// message's own timestamp for a new thread.
func (s *SlackIngress) ParseInbound(body []byte) (*InboundMessage, error) {
	var ev slackEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, fmt.Errorf("decode slack event: %w", err)
	}

	threadKey := ev.Event.ThreadTS
	if threadKey == "" {
		threadKey = ev.Event.TS
	}

	return &InboundMessage{
		ExternalID: ev.Event.User,
		Text:       strings.TrimSpace(ev.Event.Text),
		ThreadKey:  threadKey,
	}, nil
}

// PostPlaceholder posts a "working on it" reply and returns its timestamp as
// the handle later edits target.
func (s *SlackIngress) PostPlaceholder(ctx context.Context, threadKey string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, replyTimeout)
	defer cancel()

	blocks := buildStartedMessage()
	opts := []goslack.MsgOption{goslack.MsgOptionBlocks(blocks...)}
	if threadKey != "" {
		opts = append(opts, goslack.MsgOptionTS(threadKey))
	}

	_, ts, err := s.api.PostMessageContext(ctx, s.channelID, opts...)
	if err != nil {
		return "", fmt.Errorf("chat.postMessage failed: %w", err)
	}
	return ts, nil
}

// EditPlaceholder replaces a previously posted placeholder with the terminal
// reply, rendered per the dispatch's terminal status.
func (s *SlackIngress) EditPlaceholder(ctx context.Context, handle string, status TerminalStatus, text string) error {
	ctx, cancel := context.WithTimeout(ctx, replyTimeout)
	defer cancel()

	blocks := buildTerminalMessage(status, text)
	_, _, _, err := s.api.UpdateMessageContext(ctx, s.channelID, handle, goslack.MsgOptionBlocks(blocks...))
	if err != nil {
		return fmt.Errorf("chat.update failed: %w", err)
	}
	return nil
}

// PostReply posts a standalone reply without a prior placeholder.
func (s *SlackIngress) PostReply(ctx context.Context, threadKey, text string) error {
	ctx, cancel := context.WithTimeout(ctx, replyTimeout)
	defer cancel()

	opts := []goslack.MsgOption{goslack.MsgOptionText(text, false)}
	if threadKey != "" {
		opts = append(opts, goslack.MsgOptionTS(threadKey))
	}
	_, _, err := s.api.PostMessageContext(ctx, s.channelID, opts...)
	return err
}

// FindMessageByFingerprint searches recent channel history for a message
// containing the given fingerprint text, for reconciling a reply posted
// outside this process's placeholder bookkeeping (e.g. after a restart).
// Pages through up to 1000 messages from the last 24 hours.
func (s *SlackIngress) FindMessageByFingerprint(ctx context.Context, fingerprint string) (string, error) {
	oldest := fmt.Sprintf("%d", time.Now().Add(-24*time.Hour).Unix())
	normalized := normalizeText(fingerprint)

	params := &goslack.GetConversationHistoryParameters{
		ChannelID: s.channelID,
		Oldest:    oldest,
		Limit:     200,
	}

	const maxPages = 5
	for page := 0; page < maxPages; page++ {
		history, err := s.api.GetConversationHistoryContext(ctx, params)
		if err != nil {
			return "", fmt.Errorf("conversations.history failed: %w", err)
		}

		for _, msg := range history.Messages {
			if strings.Contains(normalizeText(collectMessageText(msg)), normalized) {
				return msg.Timestamp, nil
			}
		}

		if !history.HasMore || history.ResponseMetaData.NextCursor == "" {
			break
		}
		params.Cursor = history.ResponseMetaData.NextCursor
	}

	return "", nil
}
