package llmclient

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskorbit/orchestrator/pkg/config"
)

func drain(t *testing.T, ch <-chan Chunk) []Chunk {
	t.Helper()
	var chunks []Chunk
	deadline := time.After(2 * time.Second)
	for {
		select {
		case c, ok := <-ch:
			if !ok {
				return chunks
			}
			chunks = append(chunks, c)
		case <-deadline:
			t.Fatal("timed out waiting for chunk stream to close")
		}
	}
}

func TestGenerateOpenAICompat_TextAndUsage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"Hel\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"lo\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[],\"usage\":{\"prompt_tokens\":10,\"completion_tokens\":2,\"total_tokens\":12}}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	c := NewHTTPClient(5 * time.Second)
	out, err := c.Generate(context.Background(), &GenerateInput{
		Messages: []ConversationMessage{{Role: RoleUser, Content: "hi"}},
		Config:   &config.LLMProviderConfig{Type: config.LLMProviderTypeOpenAICompat, Model: "gpt-test", BaseURL: srv.URL},
		APIKey:   "sk-test",
	})
	require.NoError(t, err)

	chunks := drain(t, out)
	require.Len(t, chunks, 3)

	text1 := chunks[0].(*TextChunk)
	assert.Equal(t, "Hel", text1.Content)
	text2 := chunks[1].(*TextChunk)
	assert.Equal(t, "lo", text2.Content)
	usage := chunks[2].(*UsageChunk)
	assert.Equal(t, 10, usage.InputTokens)
	assert.Equal(t, 2, usage.OutputTokens)
	assert.Equal(t, 12, usage.TotalTokens)
}

func TestGenerateOpenAICompat_ToolCallAccumulation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, `data: {"choices":[{"delta":{"tool_calls":[{"index":0,"id":"call_1","function":{"name":"get_pods","arguments":"{\"n"}}]}}]}`+"\n\n")
		fmt.Fprint(w, `data: {"choices":[{"delta":{"tool_calls":[{"index":0,"function":{"arguments":"s\":1}"}}]}}]}`+"\n\n")
		fmt.Fprint(w, `data: {"choices":[{"delta":{},"finish_reason":"tool_calls"}]}`+"\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	c := NewHTTPClient(5 * time.Second)
	out, err := c.Generate(context.Background(), &GenerateInput{
		Messages: []ConversationMessage{{Role: RoleUser, Content: "list pods"}},
		Config:   &config.LLMProviderConfig{Type: config.LLMProviderTypeOpenAICompat, Model: "gpt-test", BaseURL: srv.URL},
		APIKey:   "sk-test",
		Tools:    []ToolDefinition{{Name: "get_pods", ParametersSchema: `{"type":"object"}`}},
	})
	require.NoError(t, err)

	chunks := drain(t, out)
	require.Len(t, chunks, 1)
	tc := chunks[0].(*ToolCallChunk)
	assert.Equal(t, "call_1", tc.CallID)
	assert.Equal(t, "get_pods", tc.Name)
	assert.Equal(t, `{"ns":1}`, tc.Arguments)
}

func TestGenerateAnthropic_TextToolAndUsage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "sk-ant-test", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicAPIVersion, r.Header.Get("anthropic-version"))
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, `data: {"type":"content_block_start","content_block":{"type":"text"}}`+"\n\n")
		fmt.Fprint(w, `data: {"type":"content_block_delta","delta":{"type":"text_delta","text":"Hi there"}}`+"\n\n")
		fmt.Fprint(w, `data: {"type":"content_block_stop"}`+"\n\n")
		fmt.Fprint(w, `data: {"type":"content_block_start","content_block":{"type":"tool_use","id":"tu_1","name":"get_pods"}}`+"\n\n")
		fmt.Fprint(w, `data: {"type":"content_block_delta","delta":{"type":"input_json_delta","partial_json":"{\"ns\""}}`+"\n\n")
		fmt.Fprint(w, `data: {"type":"content_block_delta","delta":{"type":"input_json_delta","partial_json":":1}"}}`+"\n\n")
		fmt.Fprint(w, `data: {"type":"content_block_stop"}`+"\n\n")
		fmt.Fprint(w, `data: {"type":"message_delta","usage":{"input_tokens":5,"output_tokens":7}}`+"\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	c := NewHTTPClient(5 * time.Second)
	out, err := c.Generate(context.Background(), &GenerateInput{
		Messages: []ConversationMessage{{Role: RoleUser, Content: "list pods"}},
		Config:   &config.LLMProviderConfig{Type: config.LLMProviderTypeAnthropic, Model: "claude-test", BaseURL: srv.URL},
		APIKey:   "sk-ant-test",
		Tools:    []ToolDefinition{{Name: "get_pods", ParametersSchema: `{"type":"object"}`}},
	})
	require.NoError(t, err)

	chunks := drain(t, out)
	require.Len(t, chunks, 3)
	assert.Equal(t, "Hi there", chunks[0].(*TextChunk).Content)

	tc := chunks[1].(*ToolCallChunk)
	assert.Equal(t, "tu_1", tc.CallID)
	assert.Equal(t, "get_pods", tc.Name)
	assert.Equal(t, `{"ns":1}`, tc.Arguments)

	usage := chunks[2].(*UsageChunk)
	assert.Equal(t, 5, usage.InputTokens)
	assert.Equal(t, 7, usage.OutputTokens)
	assert.Equal(t, 12, usage.TotalTokens)
}

func TestToAnthropicMessages_SystemExtractedAndToolRoundtrip(t *testing.T) {
	msgs := []ConversationMessage{
		{Role: RoleSystem, Content: "You are a bot"},
		{Role: RoleUser, Content: "list pods"},
		{Role: RoleAssistant, Content: "sure", ToolCalls: []ToolCall{{ID: "tu_1", Name: "get_pods", Arguments: `{"ns":1}`}}},
		{Role: RoleTool, Content: `{"result":"ok"}`, ToolCallID: "tu_1"},
	}

	system, out := toAnthropicMessages(msgs)
	assert.Equal(t, "You are a bot", system)
	require.Len(t, out, 3)

	assert.Equal(t, "user", out[0].Role)
	assert.Equal(t, "assistant", out[1].Role)
	require.Len(t, out[1].Content, 2)
	assert.Equal(t, "tool_use", out[1].Content[1].Type)
	assert.Equal(t, "tu_1", out[1].Content[1].ID)

	assert.Equal(t, "user", out[2].Role)
	assert.Equal(t, "tool_result", out[2].Content[0].Type)
	assert.Equal(t, "tu_1", out[2].Content[0].ToolUseID)
}

func TestGenerate_UnknownProviderType(t *testing.T) {
	c := NewHTTPClient(time.Second)
	_, err := c.Generate(context.Background(), &GenerateInput{
		Config: &config.LLMProviderConfig{Type: "bogus"},
	})
	assert.Error(t, err)
}

func TestHTTPError_Retryable(t *testing.T) {
	assert.True(t, (&HTTPError{Status: http.StatusTooManyRequests}).Retryable())
	assert.True(t, (&HTTPError{Status: http.StatusServiceUnavailable}).Retryable())
	assert.False(t, (&HTTPError{Status: http.StatusBadRequest}).Retryable())
}

func TestGenerate_NonOKStatusReturnsHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, "rate limited")
	}))
	defer srv.Close()

	c := NewHTTPClient(5 * time.Second)
	_, err := c.Generate(context.Background(), &GenerateInput{
		Messages: []ConversationMessage{{Role: RoleUser, Content: "hi"}},
		Config:   &config.LLMProviderConfig{Type: config.LLMProviderTypeOpenAICompat, Model: "gpt-test", BaseURL: srv.URL},
		APIKey:   "sk-test",
	})
	require.Error(t, err)
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusTooManyRequests, httpErr.Status)
	assert.True(t, httpErr.Retryable())
}
