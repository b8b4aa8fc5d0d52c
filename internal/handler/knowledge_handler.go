package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/campus-admin-api/internal/dto"
	"github.com/noah-isme/campus-admin-api/internal/knowledge"
	"github.com/noah-isme/campus-admin-api/internal/utils"
)

// KnowledgeHandler exposes the FAQ table, semantic retrieval and the experimental assistant.
type KnowledgeHandler struct {
	faq       *knowledge.FAQ
	retriever *knowledge.SemanticRetriever
	assistant *knowledge.Assistant
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewKnowledgeHandler constructs the handler.
func NewKnowledgeHandler(faq *knowledge.FAQ, retriever *knowledge.SemanticRetriever, assistant *knowledge.Assistant, validator *validator.Validate, logger zerolog.Logger) *KnowledgeHandler {
	return &KnowledgeHandler{
		faq:       faq,
		retriever: retriever,
		assistant: assistant,
		validator: validator,
		logger:    logger.With().Str("component", "knowledge_handler").Logger(),
	}
}

// Register attaches knowledge routes to the router group.
func (h *KnowledgeHandler) Register(router fiber.Router) {
	router.Post("/faq", h.lookup)
	router.Post("/search", h.search)
	router.Post("/assistant", h.ask)
}

func (h *KnowledgeHandler) lookup(c *fiber.Ctx) error {
	payload, err := h.question(c)
	if err != nil {
		return rejectInput(c, err)
	}

	entry, err := h.faq.Lookup(payload.Question)
	switch {
	case errors.Is(err, knowledge.ErrEmptyQuestion):
		return utils.SendError(c, fiber.StatusBadRequest, "question must not be empty")
	case errors.Is(err, knowledge.ErrNoMatch):
		return utils.SendError(c, fiber.StatusNotFound, "no matching faq entry")
	case err != nil:
		requestLogger(h.logger, c).Error().Err(err).Msg("faq lookup failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "faq lookup failed")
	}

	return utils.SendSuccess(c, "faq entry found", dto.FAQResponse{Question: entry.Question, Answer: entry.Answer})
}

func (h *KnowledgeHandler) search(c *fiber.Ctx) error {
	payload, err := h.question(c)
	if err != nil {
		return rejectInput(c, err)
	}

	answer, err := h.retriever.Answer(requestContext(c), payload.Question)
	if errors.Is(err, knowledge.ErrEmptyQuestion) {
		return utils.SendError(c, fiber.StatusBadRequest, "question must not be empty")
	}
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("semantic search failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "semantic search failed")
	}

	return utils.SendSuccess(c, "answer retrieved", dto.SearchResponse{
		Answer:   answer.Text,
		Sources:  answer.Sources,
		Degraded: answer.Degraded,
	})
}

// ask always answers 200; the assistant reports failures inside its own payload.
func (h *KnowledgeHandler) ask(c *fiber.Ctx) error {
	var payload dto.AssistantRequest
	if err := decodeStrict(c.Body(), &payload); err != nil {
		return bodyError(c, err)
	}
	if err := h.validator.Var(payload.SessionID, "omitempty,max=128"); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "validation failed", fiber.Map{"session_id": "max=128"})
	}

	result := h.assistant.Ask(requestContext(c), payload.SessionID, payload.Question)
	return c.Status(fiber.StatusOK).JSON(dto.AssistantResponse{
		Data:    result.Data,
		Error:   result.Error,
		Message: result.Message,
	})
}

func (h *KnowledgeHandler) question(c *fiber.Ctx) (dto.QuestionRequest, error) {
	var payload dto.QuestionRequest
	if err := decodeStrict(c.Body(), &payload); err != nil {
		return payload, err
	}
	return payload, h.validator.Struct(payload)
}
