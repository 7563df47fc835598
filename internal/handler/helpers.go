package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/estate-crm-api/internal/middleware"
	"github.com/noah-isme/estate-crm-api/internal/models"
	"github.com/noah-isme/estate-crm-api/internal/repository"
	"github.com/noah-isme/estate-crm-api/internal/service"
	"github.com/noah-isme/estate-crm-api/internal/utils"
)

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	return strconv.Atoi(value)
}

func parseQueryInt64(c *fiber.Ctx, key string) (int64, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	return strconv.ParseInt(value, 10, 64)
}

func parseIDParam(c *fiber.Ctx, key string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Params(key)), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func actorFromContext(c *fiber.Ctx) service.Actor {
	actor := service.Actor{}
	if id, ok := c.Locals(middleware.LocalUserID).(int64); ok {
		actor.ID = id
	}
	if role, ok := c.Locals(middleware.LocalUserRole).(string); ok {
		actor.Role = role
	}
	if tenant, ok := c.Locals(middleware.LocalTenantID).(int64); ok {
		actor.TenantID = &tenant
	}
	return actor
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

// validationDetails maps each failing field to the rule it broke.
func validationDetails(err error) (map[string]string, bool) {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil, false
	}
	details := make(map[string]string, len(validationErrors))
	for _, fieldErr := range validationErrors {
		details[strings.ToLower(fieldErr.Field())] = fieldErr.Tag()
	}
	return details, true
}

// sendServiceError maps service and store errors to HTTP responses.
func sendServiceError(c *fiber.Ctx, logger *zerolog.Logger, err error, fallback string) error {
	if details, ok := validationDetails(err); ok {
		return utils.SendErrorWithDetails(c, fiber.StatusBadRequest, "invalid request", details)
	}

	switch {
	case errors.Is(err, models.ErrUnknownField),
		errors.Is(err, models.ErrInvalidValue),
		errors.Is(err, service.ErrRequiredFields):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrEntityNotFound), errors.Is(err, service.ErrRecordNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, repository.ErrUnsupportedKind):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNotInTeam):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrStoreUnavailable):
		logger.Error().Err(err).Msg(fallback)
		return utils.SendError(c, fiber.StatusServiceUnavailable, fallback)
	default:
		logger.Error().Err(err).Msg(fallback)
		return utils.SendError(c, fiber.StatusInternalServerError, fallback)
	}
}

// withWarnings appends audit warnings to a success message.
func withWarnings(message string, warnings []string) string {
	if len(warnings) == 0 {
		return message
	}
	return message + "; " + strings.Join(warnings, "; ")
}
