package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/campus-admin-api/internal/observability"
	"github.com/noah-isme/campus-admin-api/pkg/ai"
)

// DefaultMaxSteps bounds the completion rounds of one turn.
const DefaultMaxSteps = 6

var (
	// ErrEmptyMessage indicates the operator message was empty after sanitisation.
	ErrEmptyMessage = errors.New("message must not be empty")
	// ErrStepLimit indicates the model kept calling tools past the round limit.
	ErrStepLimit = errors.New("agent exceeded the maximum number of steps")
)

// Reply is the outcome of one conversational turn.
type Reply struct {
	Text      string
	Intent    Intent
	ToolCalls []ToolCallRecord
}

// Dispatcher runs single stateless turns: completion, tool calls, tool results, until a final message.
type Dispatcher struct {
	model     ai.ChatModel
	registry  *Registry
	policy    *Policy
	guard     ReplyGuard
	maxSteps  int
	sanitizer *bluemonday.Policy
	tracer    trace.Tracer
	logger    zerolog.Logger
}

// NewDispatcher wires the completion service to the tool registry.
func NewDispatcher(model ai.ChatModel, registry *Registry, policy *Policy, maxSteps int, logger zerolog.Logger) *Dispatcher {
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}
	return &Dispatcher{
		model:     model,
		registry:  registry,
		policy:    policy,
		maxSteps:  maxSteps,
		sanitizer: bluemonday.StrictPolicy(),
		tracer:    otel.Tracer("github.com/noah-isme/campus-admin-api/internal/agent"),
		logger:    logger.With().Str("component", "dispatcher").Logger(),
	}
}

// Run answers one operator message. No state is carried between turns.
func (d *Dispatcher) Run(ctx context.Context, message string) (Reply, error) {
	message = strings.TrimSpace(html.UnescapeString(d.sanitizer.Sanitize(message)))
	if message == "" {
		return Reply{}, ErrEmptyMessage
	}
	if Blocked(message) {
		observability.DispatchTurns().WithLabelValues("blocked", "blocked").Inc()
		return Reply{}, ErrBlockedMessage
	}

	intent := ClassifyIntent(message)
	ctx, span := d.tracer.Start(ctx, "agent.dispatch", trace.WithAttributes(attribute.String("intent", string(intent))))
	defer span.End()

	reply, steps, err := d.run(ctx, intent, message)
	observability.DispatchSteps().Observe(float64(steps))
	span.SetAttributes(attribute.Int("steps", steps), attribute.Int("tool_calls", len(reply.ToolCalls)))

	outcome := "success"
	if err != nil {
		outcome = outcomeLabel(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		d.logger.Warn().Err(err).Str("intent", string(intent)).Int("steps", steps).Msg("dispatch turn failed")
	} else {
		d.logger.Info().Str("intent", string(intent)).Int("steps", steps).Int("tool_calls", len(reply.ToolCalls)).Msg("dispatch turn completed")
	}
	observability.DispatchTurns().WithLabelValues(string(intent), outcome).Inc()

	return reply, err
}

func (d *Dispatcher) run(ctx context.Context, intent Intent, message string) (Reply, int, error) {
	reply := Reply{Intent: intent, ToolCalls: []ToolCallRecord{}}
	messages := []ai.Message{
		{Role: ai.RoleSystem, Content: d.policy.Preamble()},
		{Role: ai.RoleUser, Content: message},
	}
	specs := d.registry.Specs()

	for step := 1; step <= d.maxSteps; step++ {
		resp, err := d.model.Complete(ctx, ai.CompletionRequest{
			Messages:    messages,
			Tools:       specs,
			RequireTool: step == 1 && intent.RequiresTool(),
		})
		if err != nil {
			return reply, step, upstream(err)
		}

		if len(resp.Message.ToolCalls) == 0 {
			text, err := d.guard.Check(intent, resp.Message.Content, reply.ToolCalls)
			if err != nil {
				return reply, step, err
			}
			reply.Text = strings.TrimSpace(text)
			return reply, step, nil
		}

		calls := make([]ai.ToolCall, len(resp.Message.ToolCalls))
		for i, call := range resp.Message.ToolCalls {
			if call.ID == "" {
				call.ID = "call_" + strconv.Itoa(step) + "_" + strconv.Itoa(i)
			}
			calls[i] = call
		}
		messages = append(messages, ai.Message{Role: ai.RoleAssistant, Content: resp.Message.Content, ToolCalls: calls})

		for _, call := range calls {
			result := d.registry.Invoke(ctx, call.Name, json.RawMessage(call.Arguments))
			reply.ToolCalls = append(reply.ToolCalls, ToolCallRecord{
				Name:      call.Name,
				Arguments: rawArguments(call.Arguments),
				Result:    result,
			})
			messages = append(messages, ai.Message{Role: ai.RoleTool, Content: result.JSON(), ToolCallID: call.ID})
		}
	}

	return reply, d.maxSteps, ErrStepLimit
}

func upstream(err error) error {
	if errors.Is(err, ai.ErrCompletionFailed) || errors.Is(err, ai.ErrCircuitOpen) {
		return err
	}
	return fmt.Errorf("%w: %v", ai.ErrCompletionFailed, err)
}

func rawArguments(arguments string) json.RawMessage {
	trimmed := strings.TrimSpace(arguments)
	if trimmed == "" || !json.Valid([]byte(trimmed)) {
		encoded, _ := json.Marshal(arguments)
		return encoded
	}
	return json.RawMessage(trimmed)
}

func outcomeLabel(err error) string {
	switch {
	case errors.Is(err, ErrStepLimit):
		return "step_limit"
	case errors.Is(err, ErrUngroundedReply):
		return "ungrounded"
	case errors.Is(err, ErrPolicyViolation):
		return "policy_violation"
	case errors.Is(err, ai.ErrCircuitOpen):
		return "circuit_open"
	default:
		return "upstream_error"
	}
}
