package llmclient

import (
	"context"
	"encoding/json"
)

type openAIMessage struct {
	Role       string          `json:"role"`
	Content    string          `json:"content,omitempty"`
	ToolCalls  []openAIToolRef `json:"tool_calls,omitempty"`
	ToolCallID string          `json:"tool_call_id,omitempty"`
}

type openAIToolRef struct {
	ID       string            `json:"id"`
	Type     string            `json:"type"`
	Function openAIToolRefFunc `json:"function"`
}

type openAIToolRefFunc struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type openAITool struct {
	Type     string             `json:"type"`
	Function openAIToolFunction `json:"function"`
}

type openAIToolFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

type openAIStreamChunk struct {
	Choices []struct {
		Delta struct {
			Content   string `json:"content"`
			ToolCalls []struct {
				Index    int    `json:"index"`
				ID       string `json:"id"`
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

func (c *HTTPClient) generateOpenAICompat(ctx context.Context, input *GenerateInput) (<-chan Chunk, error) {
	msgs := make([]openAIMessage, 0, len(input.Messages))
	for _, m := range input.Messages {
		msg := openAIMessage{Role: m.Role, Content: m.Content, ToolCallID: m.ToolCallID}
		for _, tc := range m.ToolCalls {
			msg.ToolCalls = append(msg.ToolCalls, openAIToolRef{
				ID: tc.ID, Type: "function",
				Function: openAIToolRefFunc{Name: tc.Name, Arguments: tc.Arguments},
			})
		}
		msgs = append(msgs, msg)
	}

	body := map[string]any{
		"model":    input.Config.Model,
		"messages": msgs,
		"stream":   true,
	}
	if input.HasTemperature {
		body["temperature"] = input.Temperature
	}
	if len(input.Tools) > 0 {
		tools := make([]openAITool, 0, len(input.Tools))
		for _, t := range input.Tools {
			tools = append(tools, openAITool{
				Type: "function",
				Function: openAIToolFunction{
					Name: t.Name, Description: t.Description,
					Parameters: json.RawMessage(t.ParametersSchema),
				},
			})
		}
		body["tools"] = tools
		body["tool_choice"] = "auto"
	}

	respBody, err := doSSERequest(ctx, c.httpClient, input.Config.BaseURL+"/chat/completions", map[string]string{
		"Authorization": "Bearer " + input.APIKey,
	}, body)
	if err != nil {
		return nil, err
	}

	out := make(chan Chunk, 16)
	go func() {
		defer close(out)
		defer respBody.Close()

		type toolAccum struct{ id, name, args string }
		accum := map[int]*toolAccum{}

		sseLines(respBody, func(data string) bool {
			var chunk openAIStreamChunk
			if err := json.Unmarshal([]byte(data), &chunk); err != nil {
				return true
			}
			if len(chunk.Choices) == 0 {
				if chunk.Usage != nil {
					out <- &UsageChunk{InputTokens: chunk.Usage.PromptTokens, OutputTokens: chunk.Usage.CompletionTokens, TotalTokens: chunk.Usage.TotalTokens}
				}
				return true
			}
			delta := chunk.Choices[0].Delta
			if delta.Content != "" {
				out <- &TextChunk{Content: delta.Content}
			}
			for _, tc := range delta.ToolCalls {
				acc, ok := accum[tc.Index]
				if !ok {
					acc = &toolAccum{id: tc.ID, name: tc.Function.Name}
					accum[tc.Index] = acc
				}
				if tc.Function.Name != "" {
					acc.name = tc.Function.Name
				}
				acc.args += tc.Function.Arguments
			}
			if chunk.Choices[0].FinishReason == "tool_calls" {
				for _, acc := range accum {
					out <- &ToolCallChunk{CallID: acc.id, Name: acc.name, Arguments: acc.args}
				}
			}
			return true
		})
	}()

	return out, nil
}
