package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/campus-admin-api/internal/agent"
	"github.com/noah-isme/campus-admin-api/internal/dto"
	"github.com/noah-isme/campus-admin-api/internal/middleware"
	"github.com/noah-isme/campus-admin-api/internal/utils"
	"github.com/noah-isme/campus-admin-api/pkg/ai"
)

// DefaultStreamChunk is the number of runes per SSE data event.
const DefaultStreamChunk = 50

const streamDone = "[DONE]"

// Dispatcher runs one conversational turn.
type Dispatcher interface {
	Run(ctx context.Context, message string) (agent.Reply, error)
}

// ChatHandler wires the conversational endpoints.
type ChatHandler struct {
	dispatcher Dispatcher
	validator  *validator.Validate
	chunkSize  int
	logger     zerolog.Logger
}

// NewChatHandler creates a chat handler instance.
func NewChatHandler(dispatcher Dispatcher, validator *validator.Validate, chunkSize int, logger zerolog.Logger) *ChatHandler {
	if chunkSize <= 0 {
		chunkSize = DefaultStreamChunk
	}
	return &ChatHandler{
		dispatcher: dispatcher,
		validator:  validator,
		chunkSize:  chunkSize,
		logger:     logger.With().Str("component", "chat_handler").Logger(),
	}
}

// Register binds chat routes under the provided router group.
func (h *ChatHandler) Register(router fiber.Router) {
	router.Post("", h.chat)
	router.Post("/stream", h.stream)

	router.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("request_ctx", requestContext(c))
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	router.Get("/ws", websocket.New(h.handleConnection))
}

func (h *ChatHandler) chat(c *fiber.Ctx) error {
	reply, err := h.turn(c)
	if err != nil {
		return h.fail(c, err)
	}
	return utils.SendSuccess(c, "reply generated", chatResponse(reply))
}

// stream waits for the full turn, then re-chunks the final reply as server-sent events.
func (h *ChatHandler) stream(c *fiber.Ctx) error {
	reply, err := h.turn(c)
	if err != nil {
		return h.fail(c, err)
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	chunks := chunkRunes(reply.Text, h.chunkSize)
	logger := requestLogger(h.logger, c)
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		for _, chunk := range chunks {
			if err := writeEvent(w, chunk); err != nil {
				logger.Debug().Err(err).Msg("failed to write chat chunk")
				return
			}
		}
		if err := writeEvent(w, streamDone); err != nil {
			logger.Debug().Err(err).Msg("failed to write chat terminator")
		}
	})

	return nil
}

func (h *ChatHandler) turn(c *fiber.Ctx) (agent.Reply, error) {
	var payload dto.ChatRequest
	if err := decodeStrict(c.Body(), &payload); err != nil {
		return agent.Reply{}, err
	}
	if err := h.validator.Struct(payload); err != nil {
		return agent.Reply{}, err
	}
	return h.dispatcher.Run(requestContext(c), payload.Message)
}

func (h *ChatHandler) handleConnection(conn *websocket.Conn) {
	ctx, ok := conn.Locals("request_ctx").(context.Context)
	if !ok || ctx == nil {
		ctx = context.Background()
	}
	logger := h.logger.With().Str("correlation_id", middleware.CorrelationIDFromContext(ctx)).Logger()
	logger.Info().Msg("chat websocket connected")
	defer logger.Info().Msg("chat websocket disconnected")

	for {
		messageType, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		frame := h.answerFrame(ctx, raw)
		if err := conn.WriteJSON(frame); err != nil {
			logger.Debug().Err(err).Msg("failed to write chat frame")
			return
		}
	}
}

// answerFrame accepts {"message": "..."} or a bare text frame.
func (h *ChatHandler) answerFrame(ctx context.Context, raw []byte) dto.ChatSocketFrame {
	message := strings.TrimSpace(string(raw))
	var payload dto.ChatRequest
	if strings.HasPrefix(message, "{") {
		if err := json.Unmarshal(raw, &payload); err != nil {
			return dto.ChatSocketFrame{Error: "invalid payload"}
		}
		message = payload.Message
	}
	if err := h.validator.Struct(dto.ChatRequest{Message: message}); err != nil {
		return dto.ChatSocketFrame{Error: "message is required and must be at most 4000 characters"}
	}

	reply, err := h.dispatcher.Run(ctx, message)
	if err != nil {
		_, text := chatErrorStatus(err)
		return dto.ChatSocketFrame{Error: text}
	}

	response := chatResponse(reply)
	return dto.ChatSocketFrame{Reply: response.Reply, Intent: response.Intent, ToolCalls: response.ToolCalls}
}

func (h *ChatHandler) fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, errInvalidBody):
		return bodyError(c, err)
	case isValidationError(err):
		return validationError(c, err)
	}

	status, message := chatErrorStatus(err)
	if status >= fiber.StatusInternalServerError {
		requestLogger(h.logger, c).Error().Err(err).Msg("chat turn failed")
	}
	return utils.SendError(c, status, message)
}

func chatErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, agent.ErrEmptyMessage):
		return fiber.StatusBadRequest, "message must not be empty"
	case errors.Is(err, agent.ErrBlockedMessage):
		return fiber.StatusUnprocessableEntity, "message blocked by guardrail"
	case errors.Is(err, ai.ErrCircuitOpen):
		return fiber.StatusBadGateway, "completion service temporarily unavailable"
	case errors.Is(err, ai.ErrCompletionFailed):
		return fiber.StatusBadGateway, "completion service failed"
	case errors.Is(err, agent.ErrStepLimit):
		return fiber.StatusBadGateway, "agent exceeded the maximum number of steps"
	case errors.Is(err, agent.ErrUngroundedReply), errors.Is(err, agent.ErrPolicyViolation):
		return fiber.StatusBadGateway, "agent reply rejected by policy"
	default:
		return fiber.StatusInternalServerError, "failed to process message"
	}
}

func chatResponse(reply agent.Reply) dto.ChatResponse {
	calls := make([]dto.ToolCallResponse, 0, len(reply.ToolCalls))
	for _, call := range reply.ToolCalls {
		calls = append(calls, dto.ToolCallResponse{
			Name:      call.Name,
			Arguments: call.Arguments,
			Status:    call.Result.Status,
			Message:   call.Result.Message,
		})
	}
	return dto.ChatResponse{Reply: reply.Text, Intent: string(reply.Intent), ToolCalls: calls}
}

func chunkRunes(text string, size int) []string {
	runes := []rune(text)
	chunks := make([]string, 0, len(runes)/size+1)
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}

// writeEvent writes one SSE event. Embedded newlines become extra data lines.
func writeEvent(w *bufio.Writer, data string) error {
	for _, line := range strings.Split(data, "\n") {
		if _, err := fmt.Fprintf(w, "data: %s\n", line); err != nil {
			return err
		}
	}
	if _, err := w.WriteString("\n"); err != nil {
		return err
	}
	return w.Flush()
}
