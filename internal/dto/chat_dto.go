package dto

import "encoding/json"

// ChatRequest is a single conversational turn sent to the agent.
type ChatRequest struct {
	Message string `json:"message" validate:"required,max=4000"`
}

// ToolCallResponse reports one tool invocation performed during a turn.
type ToolCallResponse struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
	Status    string          `json:"status"`
	Message   string          `json:"message,omitempty"`
}

// ChatResponse carries the final reply of a turn.
type ChatResponse struct {
	Reply     string             `json:"reply"`
	Intent    string             `json:"intent"`
	ToolCalls []ToolCallResponse `json:"tool_calls"`
}

// ChatSocketFrame is the websocket reply frame. Error is set when the turn failed.
type ChatSocketFrame struct {
	Reply     string             `json:"reply,omitempty"`
	Intent    string             `json:"intent,omitempty"`
	ToolCalls []ToolCallResponse `json:"tool_calls,omitempty"`
	Error     string             `json:"error,omitempty"`
}
