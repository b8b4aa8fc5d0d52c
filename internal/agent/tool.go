package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Effect classifies what a tool does to the record store.
type Effect string

const (
	EffectRead  Effect = "read"
	EffectWrite Effect = "write"
)

// Result statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Property describes one tool argument.
type Property struct {
	Type        string      `json:"type"`
	Description string      `json:"description,omitempty"`
	Enum        []string    `json:"enum,omitempty"`
	Default     interface{} `json:"default,omitempty"`
	Minimum     *float64    `json:"minimum,omitempty"`
	Maximum     *float64    `json:"maximum,omitempty"`
}

// Schema is the JSON Schema object describing a tool's arguments.
type Schema struct {
	Properties map[string]Property
	Required   []string
}

type schemaDocument struct {
	Type                 string              `json:"type"`
	Properties           map[string]Property `json:"properties"`
	Required             []string            `json:"required,omitempty"`
	AdditionalProperties bool                `json:"additionalProperties"`
}

// JSON renders the schema. Arguments outside Properties are never accepted.
func (s *Schema) JSON() json.RawMessage {
	doc := schemaDocument{Type: "object", Properties: map[string]Property{}}
	if s != nil {
		if s.Properties != nil {
			doc.Properties = s.Properties
		}
		doc.Required = s.Required
	}
	raw, _ := json.Marshal(doc)
	return raw
}

// Args are decoded, defaulted and validated tool arguments.
type Args map[string]interface{}

// String returns a trimmed string argument, or "" when absent.
func (a Args) String(key string) string {
	value, ok := a[key].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(value)
}

// OptionalString returns nil when the argument was not supplied.
func (a Args) OptionalString(key string) *string {
	value, ok := a[key].(string)
	if !ok {
		return nil
	}
	return &value
}

// Int returns an integer argument, or fallback when absent.
func (a Args) Int(key string, fallback int) int {
	switch value := a[key].(type) {
	case json.Number:
		if n, err := value.Int64(); err == nil {
			return int(n)
		}
		if f, err := value.Float64(); err == nil {
			return int(f)
		}
	case float64:
		return int(value)
	case int:
		return value
	}
	return fallback
}

// Handler runs a tool against validated arguments.
type Handler func(ctx context.Context, args Args) (interface{}, error)

// Tool is a named operation the model may call.
type Tool struct {
	Name        string
	Description string
	Parameters  *Schema
	Effect      Effect
	// Class is the intent the tool answers; it groups tools in the instruction preamble.
	Class   Intent
	Handler Handler
}

// Result is the tagged outcome of one tool invocation, fed back to the model as JSON.
type Result struct {
	Status  string      `json:"status"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// OK reports whether the invocation succeeded.
func (r Result) OK() bool {
	return r.Status == StatusSuccess
}

// JSON renders the result for the tool message.
func (r Result) JSON() string {
	raw, err := json.Marshal(r)
	if err != nil {
		return fmt.Sprintf(`{"status":%q,"message":%q}`, StatusError, err.Error())
	}
	return string(raw)
}

func successResult(data interface{}, message string) Result {
	return Result{Status: StatusSuccess, Data: data, Message: message}
}

func errorResult(message string) Result {
	return Result{Status: StatusError, Message: message}
}

func bound(v float64) *float64 {
	return &v
}
