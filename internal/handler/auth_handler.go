package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/campus-admin-api/internal/dto"
	"github.com/noah-isme/campus-admin-api/internal/service"
	"github.com/noah-isme/campus-admin-api/internal/utils"
)

// AuthHandler issues administrator tokens.
type AuthHandler struct {
	service service.AuthService
	logger  zerolog.Logger
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(service service.AuthService, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		logger:  logger.With().Str("component", "auth_handler").Logger(),
	}
}

// Register attaches auth routes to the router group.
func (h *AuthHandler) Register(router fiber.Router) {
	router.Post("/login", h.login)
}

func (h *AuthHandler) login(c *fiber.Ctx) error {
	var payload dto.LoginRequest
	if err := decodeStrict(c.Body(), &payload); err != nil {
		return bodyError(c, err)
	}

	token, err := h.service.Login(requestContext(c), payload)
	if err != nil {
		switch {
		case isValidationError(err):
			return validationError(c, err)
		case errors.Is(err, service.ErrInvalidCredentials):
			requestLogger(h.logger, c).Warn().Str("username", payload.Username).Msg("rejected login")
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid credentials")
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("failed to issue token")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to issue token")
		}
	}

	return utils.SendSuccess(c, "login successful", token)
}
