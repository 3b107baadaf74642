// Package llmclient is the Go-side LLM provider client: a net/http + JSON
// streaming client replacing the original gRPC-to-a-Python-sidecar design
// (see DESIGN.md's grpc→http substitution entry — the generated proto
// package it depended on isn't available here). The channel-of-Chunk
// streaming shape is preserved from pkg/agent/llm_client.go so the agent
// runtime's consumption loop barely changes.
package llmclient

import (
	"context"

	"github.com/taskorbit/orchestrator/pkg/config"
)

// Client is the Go-side interface for calling an LLM provider over HTTP.
type Client interface {
	// Generate sends a conversation to the provider and returns a stream of
	// chunks. The returned channel is closed when the stream completes.
	// Errors are delivered as ErrorChunk values in the channel, never as a
	// second return value mid-stream.
	Generate(ctx context.Context, input *GenerateInput) (<-chan Chunk, error)

	// Close releases any pooled transport resources.
	Close() error
}

// GenerateInput is a single provider call.
type GenerateInput struct {
	TenantID    string
	ExecutionID string
	Messages    []ConversationMessage
	Config      *config.LLMProviderConfig
	APIKey      string // decrypted account credential, never logged
	Tools       []ToolDefinition

	// Temperature is resolved by the caller from the request's category
	// policy (config.CategoryConfig.Temperature), not from the provider
	// config — the same provider serves every category at whatever
	// sampling temperature that category's policy names. Zero is a valid,
	// deliberate temperature (most deterministic categories use it), so a
	// separate HasTemperature flag distinguishes "unset" from "0".
	Temperature    float64
	HasTemperature bool
}

// Conversation message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ConversationMessage is the Go-side message type, provider-agnostic;
// translation to each provider's wire format happens in that provider's
// request builder.
type ConversationMessage struct {
	Role       string
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
	ToolName   string
}

// ToolDefinition describes a tool available to the LLM.
type ToolDefinition struct {
	Name             string
	Description      string
	ParametersSchema string // JSON Schema
}

// ToolCall represents an LLM's request to call a tool.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string // JSON
}

// Chunk is the interface for all streaming chunk types.
type Chunk interface {
	chunkType() ChunkType
}

// ChunkType identifies the kind of streaming chunk.
type ChunkType string

const (
	ChunkTypeText     ChunkType = "text"
	ChunkTypeToolCall ChunkType = "tool_call"
	ChunkTypeUsage    ChunkType = "usage"
	ChunkTypeError    ChunkType = "error"
)

// TextChunk is a chunk of the LLM's text response.
type TextChunk struct{ Content string }

// ToolCallChunk signals the LLM wants to call a tool.
type ToolCallChunk struct{ CallID, Name, Arguments string }

// UsageChunk reports token consumption for this call.
type UsageChunk struct{ InputTokens, OutputTokens, TotalTokens int }

// ErrorChunk signals an error from the LLM provider.
type ErrorChunk struct {
	Message   string
	Code      string
	Retryable bool
}

func (c *TextChunk) chunkType() ChunkType     { return ChunkTypeText }
func (c *ToolCallChunk) chunkType() ChunkType { return ChunkTypeToolCall }
func (c *UsageChunk) chunkType() ChunkType    { return ChunkTypeUsage }
func (c *ErrorChunk) chunkType() ChunkType    { return ChunkTypeError }
