package llmclient

import (
	"context"
	"encoding/json"
)

const anthropicAPIVersion = "2023-06-01"

type anthropicMessage struct {
	Role    string          `json:"role"`
	Content []anthropicPart `json:"content"`
}

type anthropicPart struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   string          `json:"content,omitempty"`
}

type anthropicTool struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"input_schema,omitempty"`
}

type anthropicStreamEvent struct {
	Type  string `json:"type"`
	Delta struct {
		Type        string `json:"type"`
		Text        string `json:"text"`
		PartialJSON string `json:"partial_json"`
	} `json:"delta"`
	ContentBlock struct {
		Type  string `json:"type"`
		ID    string `json:"id"`
		Name  string `json:"name"`
	} `json:"content_block"`
	Usage *struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// toAnthropicMessages folds the provider-agnostic conversation into
// Anthropic's content-block shape: tool calls become tool_use blocks on the
// assistant turn, tool results become tool_result blocks on a user turn.
// Anthropic also takes the system prompt out of band; callers that need one
// should pass it as the first RoleSystem message, stripped here.
func toAnthropicMessages(msgs []ConversationMessage) (system string, out []anthropicMessage) {
	for _, m := range msgs {
		switch m.Role {
		case RoleSystem:
			system = m.Content
		case RoleTool:
			out = append(out, anthropicMessage{Role: "user", Content: []anthropicPart{
				{Type: "tool_result", ToolUseID: m.ToolCallID, Content: m.Content},
			}})
		case RoleAssistant:
			var parts []anthropicPart
			if m.Content != "" {
				parts = append(parts, anthropicPart{Type: "text", Text: m.Content})
			}
			for _, tc := range m.ToolCalls {
				parts = append(parts, anthropicPart{Type: "tool_use", ID: tc.ID, Name: tc.Name, Input: json.RawMessage(tc.Arguments)})
			}
			out = append(out, anthropicMessage{Role: "assistant", Content: parts})
		default:
			out = append(out, anthropicMessage{Role: "user", Content: []anthropicPart{{Type: "text", Text: m.Content}}})
		}
	}
	return system, out
}

func (c *HTTPClient) generateAnthropic(ctx context.Context, input *GenerateInput) (<-chan Chunk, error) {
	system, msgs := toAnthropicMessages(input.Messages)

	body := map[string]any{
		"model":      input.Config.Model,
		"messages":   msgs,
		"stream":     true,
		"max_tokens": 4096,
	}
	if system != "" {
		body["system"] = system
	}
	if input.HasTemperature {
		body["temperature"] = input.Temperature
	}
	if len(input.Tools) > 0 {
		tools := make([]anthropicTool, 0, len(input.Tools))
		for _, t := range input.Tools {
			tools = append(tools, anthropicTool{Name: t.Name, Description: t.Description, InputSchema: json.RawMessage(t.ParametersSchema)})
		}
		body["tools"] = tools
	}

	respBody, err := doSSERequest(ctx, c.httpClient, input.Config.BaseURL+"/messages", map[string]string{
		"x-api-key":         input.APIKey,
		"anthropic-version": anthropicAPIVersion,
	}, body)
	if err != nil {
		return nil, err
	}

	out := make(chan Chunk, 16)
	go func() {
		defer close(out)
		defer respBody.Close()

		var currentToolID, currentToolName, currentArgs string
		inToolBlock := false

		sseLines(respBody, func(data string) bool {
			var evt anthropicStreamEvent
			if err := json.Unmarshal([]byte(data), &evt); err != nil {
				return true
			}
			switch evt.Type {
			case "content_block_start":
				if evt.ContentBlock.Type == "tool_use" {
					inToolBlock = true
					currentToolID = evt.ContentBlock.ID
					currentToolName = evt.ContentBlock.Name
					currentArgs = ""
				}
			case "content_block_delta":
				switch evt.Delta.Type {
				case "text_delta":
					out <- &TextChunk{Content: evt.Delta.Text}
				case "input_json_delta":
					currentArgs += evt.Delta.PartialJSON
				}
			case "content_block_stop":
				if inToolBlock {
					out <- &ToolCallChunk{CallID: currentToolID, Name: currentToolName, Arguments: currentArgs}
					inToolBlock = false
				}
			case "message_delta":
				if evt.Usage != nil {
					out <- &UsageChunk{InputTokens: evt.Usage.InputTokens, OutputTokens: evt.Usage.OutputTokens, TotalTokens: evt.Usage.InputTokens + evt.Usage.OutputTokens}
				}
			}
			return true
		})
	}()

	return out, nil
}
