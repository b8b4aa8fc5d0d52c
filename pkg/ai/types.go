package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrCompletionFailed wraps every failure of the hosted completion service.
	ErrCompletionFailed = errors.New("completion service failed")
	// ErrEmbeddingFailed wraps every failure of the embedding endpoint.
	ErrEmbeddingFailed = errors.New("embedding service failed")
	// ErrCircuitOpen is returned while the breaker rejects calls after repeated upstream failures.
	ErrCircuitOpen = errors.New("completion circuit breaker is open")
)

// Role identifies the author of a conversation message.
type Role string

// Conversation roles understood by OpenAI-compatible endpoints.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is a function invocation requested by the model.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// Message is one entry of a conversation.
type Message struct {
	Role       Role
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
}

// ToolSpec advertises a callable function to the model. Parameters is a JSON Schema object.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  json.RawMessage
}

// CompletionRequest is a single completion round.
type CompletionRequest struct {
	Messages []Message
	Tools    []ToolSpec
	// RequireTool forces the model to answer with at least one tool call.
	RequireTool bool
}

// CompletionResponse is the assistant message produced for a round.
type CompletionResponse struct {
	Message      Message
	FinishReason string
	PromptTokens int
	OutputTokens int
}

// ChatModel produces assistant messages, optionally calling tools.
type ChatModel interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)
}

// Embedder turns texts into vectors with a fixed model.
type Embedder interface {
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
	Model() string
}

// Unavailable stands in for the completion service when no credential is configured.
type Unavailable struct{}

// Complete always fails.
func (Unavailable) Complete(context.Context, CompletionRequest) (CompletionResponse, error) {
	return CompletionResponse{}, fmt.Errorf("%w: no api key configured", ErrCompletionFailed)
}

// Embed always fails.
func (Unavailable) Embed(context.Context, []string) ([][]float32, error) {
	return nil, fmt.Errorf("%w: no api key configured", ErrEmbeddingFailed)
}

// Model reports an empty model name.
func (Unavailable) Model() string { return "" }
