package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/noah-isme/campus-admin-api/internal/observability"
	"github.com/noah-isme/campus-admin-api/pkg/ai"
)

var (
	// ErrDuplicateTool indicates two tools share a name.
	ErrDuplicateTool = errors.New("duplicate tool name")
	// ErrInvalidTool indicates a tool definition is incomplete.
	ErrInvalidTool = errors.New("invalid tool definition")
)

type registeredTool struct {
	Tool
	schema *jsonschema.Schema
}

// Registry holds the tools available to dispatch, in registration order.
type Registry struct {
	tools  map[string]*registeredTool
	order  []string
	logger zerolog.Logger
}

// NewRegistry compiles every tool schema. Duplicate names are rejected.
func NewRegistry(logger zerolog.Logger, tools ...Tool) (*Registry, error) {
	registry := &Registry{
		tools:  make(map[string]*registeredTool, len(tools)),
		order:  make([]string, 0, len(tools)),
		logger: logger.With().Str("component", "tool_registry").Logger(),
	}

	compiler := jsonschema.NewCompiler()
	for _, tool := range tools {
		name := strings.TrimSpace(tool.Name)
		if name == "" || tool.Handler == nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidTool, tool.Name)
		}
		if _, exists := registry.tools[name]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTool, name)
		}

		url := "mem://tools/" + name + ".json"
		if err := compiler.AddResource(url, bytes.NewReader(tool.Parameters.JSON())); err != nil {
			return nil, fmt.Errorf("add schema for %s: %w", name, err)
		}
		schema, err := compiler.Compile(url)
		if err != nil {
			return nil, fmt.Errorf("compile schema for %s: %w", name, err)
		}

		registry.tools[name] = &registeredTool{Tool: tool, schema: schema}
		registry.order = append(registry.order, name)
	}

	return registry, nil
}

// Names returns tool names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Lookup returns the named tool.
func (r *Registry) Lookup(name string) (Tool, bool) {
	tool, ok := r.tools[name]
	if !ok {
		return Tool{}, false
	}
	return tool.Tool, true
}

// Specs describes every tool for the completion request.
func (r *Registry) Specs() []ai.ToolSpec {
	specs := make([]ai.ToolSpec, 0, len(r.order))
	for _, name := range r.order {
		tool := r.tools[name]
		specs = append(specs, ai.ToolSpec{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  tool.Parameters.JSON(),
		})
	}
	return specs
}

// Invoke validates raw arguments and runs the handler exactly once.
// Failures of any kind are reported as error results.
func (r *Registry) Invoke(ctx context.Context, name string, raw json.RawMessage) Result {
	started := time.Now()
	result := r.invoke(ctx, name, raw)

	observability.ToolInvocations().WithLabelValues(metricToolName(r, name), result.Status).Inc()
	observability.ToolLatency().WithLabelValues(metricToolName(r, name)).Observe(time.Since(started).Seconds())

	event := r.logger.Debug()
	if !result.OK() {
		event = r.logger.Warn().Str("error", result.Message)
	}
	event.Str("tool", name).Dur("duration", time.Since(started)).Msg("tool invoked")

	return result
}

func (r *Registry) invoke(ctx context.Context, name string, raw json.RawMessage) Result {
	tool, ok := r.tools[name]
	if !ok {
		return errorResult(fmt.Sprintf("unknown tool: %s", name))
	}

	args, err := decodeArgs(raw)
	if err != nil {
		return errorResult(fmt.Sprintf("invalid arguments: %v", err))
	}
	if err := applyDefaults(tool.Parameters, args); err != nil {
		return errorResult(fmt.Sprintf("invalid arguments: %v", err))
	}
	if err := tool.schema.Validate(map[string]interface{}(args)); err != nil {
		return errorResult(fmt.Sprintf("invalid arguments: %v", validationMessage(err)))
	}

	data, err := tool.Handler(ctx, args)
	if err != nil {
		return errorResult(err.Error())
	}
	if result, ok := data.(Result); ok {
		return result
	}
	return successResult(data, "")
}

func decodeArgs(raw json.RawMessage) (Args, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Args{}, nil
	}

	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()

	var args map[string]interface{}
	if err := decoder.Decode(&args); err != nil {
		return nil, errors.New("arguments must be a JSON object")
	}
	if args == nil {
		args = map[string]interface{}{}
	}
	return Args(args), nil
}

func applyDefaults(schema *Schema, args Args) error {
	if schema == nil {
		return nil
	}
	for key, property := range schema.Properties {
		if _, present := args[key]; present || property.Default == nil {
			continue
		}
		value, err := jsonValue(property.Default)
		if err != nil {
			return fmt.Errorf("default for %s: %w", key, err)
		}
		args[key] = value
	}
	return nil
}

// jsonValue converts a Go default into the representation produced by decodeArgs.
func jsonValue(value interface{}) (interface{}, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	var out interface{}
	if err := decoder.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

func validationMessage(err error) string {
	var validationErr *jsonschema.ValidationError
	if !errors.As(err, &validationErr) {
		return err.Error()
	}
	for len(validationErr.Causes) > 0 {
		validationErr = validationErr.Causes[0]
	}
	location := validationErr.InstanceLocation
	if location == "" {
		location = "/"
	}
	return fmt.Sprintf("%s: %s", location, validationErr.Message)
}

func metricToolName(r *Registry, name string) string {
	if _, ok := r.tools[name]; ok {
		return name
	}
	return "unknown"
}
