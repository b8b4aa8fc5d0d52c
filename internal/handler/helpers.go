package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/campus-admin-api/internal/middleware"
	"github.com/noah-isme/campus-admin-api/internal/utils"
)

var errInvalidBody = errors.New("invalid request body")

func parseQueryInt(c *fiber.Ctx, key string, fallback int) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

func requestContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}
	return middleware.ContextWithCorrelation(ctx, middleware.GetCorrelationID(c))
}

func isValidationError(err error) bool {
	var validationErrors validator.ValidationErrors
	return errors.As(err, &validationErrors)
}

// validationDetails maps each failing field to the tag that rejected it.
func validationDetails(err error) map[string]string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}
	details := make(map[string]string, len(validationErrors))
	for _, fieldErr := range validationErrors {
		field := strings.ToLower(fieldErr.Field())
		if fieldErr.Param() != "" {
			details[field] = fmt.Sprintf("%s=%s", fieldErr.Tag(), fieldErr.Param())
			continue
		}
		details[field] = fieldErr.Tag()
	}
	return details
}

// decodeStrict decodes a JSON object body, rejecting fields the target does not declare.
func decodeStrict(body []byte, target interface{}) error {
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		if field, ok := unknownField(err); ok {
			return fmt.Errorf("%w: unknown field %q", errInvalidBody, field)
		}
		return fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: trailing data", errInvalidBody)
	}
	return nil
}

func unknownField(err error) (string, bool) {
	const prefix = "json: unknown field "
	message := err.Error()
	if !strings.HasPrefix(message, prefix) {
		return "", false
	}
	return strings.Trim(strings.TrimPrefix(message, prefix), `"`), true
}

func bodyError(c *fiber.Ctx, err error) error {
	reason := strings.TrimPrefix(err.Error(), errInvalidBody.Error()+": ")
	return utils.Fail(c, fiber.StatusBadRequest, "invalid payload", fiber.Map{"body": reason})
}

func validationError(c *fiber.Ctx, err error) error {
	return utils.Fail(c, fiber.StatusBadRequest, "validation failed", validationDetails(err))
}

// rejectInput answers a decode or validation failure.
func rejectInput(c *fiber.Ctx, err error) error {
	if isValidationError(err) {
		return validationError(c, err)
	}
	return bodyError(c, err)
}
