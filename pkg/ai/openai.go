package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	aiDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "campus",
		Subsystem: "ai",
		Name:      "request_duration_seconds",
		Help:      "Duration of completion and embedding requests",
	}, []string{"model", "operation"})

	aiFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "campus",
		Subsystem: "ai",
		Name:      "request_failures_total",
		Help:      "Number of failed completion and embedding requests",
	}, []string{"model", "operation"})
)

// OpenAIConfig defines configuration options for the OpenAI-compatible client.
type OpenAIConfig struct {
	APIKey string
	// BaseURL points at any OpenAI-compatible endpoint, e.g. Gemini's /v1beta/openai/.
	BaseURL        string
	Model          string
	EmbeddingModel string
	MaxTokens      int
	Temperature    float32
	Timeout        time.Duration
	Breaker        BreakerConfig
	Logger         zerolog.Logger
}

// OpenAIClient implements ChatModel and Embedder against an OpenAI-compatible API.
type OpenAIClient struct {
	client  *openai.Client
	cfg     OpenAIConfig
	breaker *breaker
	tracer  trace.Tracer
	logger  zerolog.Logger
}

// NewOpenAIClient builds a new client using the provided configuration.
func NewOpenAIClient(cfg OpenAIConfig) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = string(openai.SmallEmbedding3)
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 1024
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = time.Minute
	}

	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}
	logger = logger.With().Str("component", "openai_client").Logger()

	config := openai.DefaultConfig(cfg.APIKey)
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		config.BaseURL = strings.TrimRight(base, "/")
	}
	config.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &OpenAIClient{
		client:  openai.NewClientWithConfig(config),
		cfg:     cfg,
		breaker: newBreaker("completion", cfg.Breaker, logger),
		tracer:  otel.Tracer("github.com/noah-isme/campus-admin-api/pkg/ai/openai"),
		logger:  logger,
	}, nil
}

// Model returns the embedding model name, which must match the one used to build an index.
func (c *OpenAIClient) Model() string {
	return c.cfg.EmbeddingModel
}

// Complete sends one completion round, advertising the given tools.
func (c *OpenAIClient) Complete(parent context.Context, req CompletionRequest) (CompletionResponse, error) {
	ctx, span := c.tracer.Start(parent, "openai.complete", trace.WithAttributes(
		attribute.String("model", c.cfg.Model),
		attribute.Int("messages", len(req.Messages)),
		attribute.Int("tools", len(req.Tools)),
		attribute.Bool("require_tool", req.RequireTool),
	))
	defer span.End()

	request := openai.ChatCompletionRequest{
		Model:       c.cfg.Model,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
		Messages:    toOpenAIMessages(req.Messages),
	}
	if len(req.Tools) > 0 {
		request.Tools = toOpenAITools(req.Tools)
		request.ToolChoice = "auto"
		if req.RequireTool {
			request.ToolChoice = "required"
		}
	}

	start := time.Now()
	result, err := c.breaker.execute(func() (interface{}, error) {
		return c.client.CreateChatCompletion(ctx, request)
	})
	aiDuration.WithLabelValues(c.cfg.Model, "complete").Observe(time.Since(start).Seconds())
	if err != nil {
		return CompletionResponse{}, c.fail(span, "complete", err, ErrCompletionFailed)
	}

	resp := result.(openai.ChatCompletionResponse)
	if len(resp.Choices) == 0 {
		return CompletionResponse{}, c.fail(span, "complete", errors.New("no choices returned"), ErrCompletionFailed)
	}

	choice := resp.Choices[0]
	span.SetAttributes(attribute.String("finish_reason", string(choice.FinishReason)))

	return CompletionResponse{
		Message:      fromOpenAIMessage(choice.Message),
		FinishReason: string(choice.FinishReason),
		PromptTokens: resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	}, nil
}

// Embed returns one vector per input, in input order.
func (c *OpenAIClient) Embed(parent context.Context, inputs []string) ([][]float32, error) {
	ctx, span := c.tracer.Start(parent, "openai.embed", trace.WithAttributes(
		attribute.String("model", c.cfg.EmbeddingModel),
		attribute.Int("inputs", len(inputs)),
	))
	defer span.End()

	if len(inputs) == 0 {
		return [][]float32{}, nil
	}

	start := time.Now()
	result, err := c.breaker.execute(func() (interface{}, error) {
		return c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: inputs,
			Model: openai.EmbeddingModel(c.cfg.EmbeddingModel),
		})
	})
	aiDuration.WithLabelValues(c.cfg.EmbeddingModel, "embed").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, c.fail(span, "embed", err, ErrEmbeddingFailed)
	}

	resp := result.(openai.EmbeddingResponse)
	if len(resp.Data) != len(inputs) {
		return nil, c.fail(span, "embed", fmt.Errorf("expected %d embeddings, got %d", len(inputs), len(resp.Data)), ErrEmbeddingFailed)
	}

	vectors := make([][]float32, len(inputs))
	for i, item := range resp.Data {
		index := item.Index
		if index < 0 || index >= len(vectors) {
			index = i
		}
		vectors[index] = item.Embedding
	}

	return vectors, nil
}

func (c *OpenAIClient) fail(span trace.Span, operation string, err, kind error) error {
	model := c.cfg.Model
	if operation == "embed" {
		model = c.cfg.EmbeddingModel
	}
	aiFailures.WithLabelValues(model, operation).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	c.logger.Warn().Err(err).Str("operation", operation).Msg("upstream request failed")

	if errors.Is(err, ErrCircuitOpen) {
		return fmt.Errorf("%w: %w", kind, ErrCircuitOpen)
	}
	return fmt.Errorf("%w: %v", kind, err)
}

func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, message := range messages {
		converted := openai.ChatCompletionMessage{
			Role:       string(message.Role),
			Content:    message.Content,
			ToolCallID: message.ToolCallID,
		}
		for _, call := range message.ToolCalls {
			converted.ToolCalls = append(converted.ToolCalls, openai.ToolCall{
				ID:   call.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      call.Name,
					Arguments: call.Arguments,
				},
			})
		}
		out = append(out, converted)
	}
	return out
}

func toOpenAITools(specs []ToolSpec) []openai.Tool {
	tools := make([]openai.Tool, 0, len(specs))
	for _, spec := range specs {
		tools = append(tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        spec.Name,
				Description: spec.Description,
				Parameters:  spec.Parameters,
			},
		})
	}
	return tools
}

func fromOpenAIMessage(message openai.ChatCompletionMessage) Message {
	out := Message{
		Role:    Role(message.Role),
		Content: message.Content,
	}
	for _, call := range message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, ToolCall{
			ID:        call.ID,
			Name:      call.Function.Name,
			Arguments: call.Function.Arguments,
		})
	}
	return out
}
