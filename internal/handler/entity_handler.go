package handler

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/estate-crm-api/internal/models"
	"github.com/noah-isme/estate-crm-api/internal/service"
	"github.com/noah-isme/estate-crm-api/internal/utils"
)

// EntityHandler exposes CRUD endpoints for one entity kind.
type EntityHandler struct {
	kind    models.EntityKind
	service service.EntityService
	logger  zerolog.Logger
}

// NewEntityHandler constructs a handler bound to kind.
func NewEntityHandler(kind models.EntityKind, service service.EntityService, logger zerolog.Logger) *EntityHandler {
	return &EntityHandler{
		kind:    kind,
		service: service,
		logger:  logger.With().Str("component", "entity_handler").Str("entity_kind", string(kind)).Logger(),
	}
}

// Register attaches CRUD routes to the router group.
func (h *EntityHandler) Register(router fiber.Router) {
	router.Post("", h.create)
	router.Get("/:id", h.get)
	router.Patch("/:id", h.update)
	router.Delete("/:id", h.delete)
}

// RegisterTeamRoutes attaches user team management routes. Extra handlers run
// before the route handler.
func (h *EntityHandler) RegisterTeamRoutes(router fiber.Router, guards ...fiber.Handler) {
	handlers := append(guards, h.removeFromTeam)
	router.Post("/:id/remove-from-team", handlers...)
}

func (h *EntityHandler) create(c *fiber.Ctx) error {
	payload, err := parsePayload(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.Create(c.UserContext(), actorFromContext(c), h.kind, payload)
	if err != nil {
		return sendServiceError(c, requestLogger(h.logger, c), err, fmt.Sprintf("failed to create %s", h.kind))
	}

	message := withWarnings(fmt.Sprintf("%s created", h.kind), response.Warnings)
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, message, response)
}

func (h *EntityHandler) get(c *fiber.Ctx) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid id")
	}

	response, err := h.service.Get(c.UserContext(), actorFromContext(c), h.kind, id)
	if err != nil {
		return sendServiceError(c, requestLogger(h.logger, c), err, fmt.Sprintf("failed to load %s", h.kind))
	}

	return utils.SendSuccess(c, string(h.kind), response)
}

func (h *EntityHandler) update(c *fiber.Ctx) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid id")
	}

	payload, err := parsePayload(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.Update(c.UserContext(), actorFromContext(c), h.kind, id, payload)
	if err != nil {
		return sendServiceError(c, requestLogger(h.logger, c), err, fmt.Sprintf("failed to update %s", h.kind))
	}

	message := withWarnings(fmt.Sprintf("%s updated", h.kind), response.Warnings)
	return utils.SendSuccess(c, message, response)
}

func (h *EntityHandler) delete(c *fiber.Ctx) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid id")
	}

	hard := strings.EqualFold(strings.TrimSpace(c.Query("hard")), "true")
	response, err := h.service.Delete(c.UserContext(), actorFromContext(c), h.kind, id, hard)
	if err != nil {
		return sendServiceError(c, requestLogger(h.logger, c), err, fmt.Sprintf("failed to delete %s", h.kind))
	}

	message := withWarnings(fmt.Sprintf("%s deleted", h.kind), response.Warnings)
	return utils.SendSuccess(c, message, response)
}

func (h *EntityHandler) removeFromTeam(c *fiber.Ctx) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid id")
	}

	response, err := h.service.RemoveFromTeam(c.UserContext(), actorFromContext(c), id)
	if err != nil {
		return sendServiceError(c, requestLogger(h.logger, c), err, "failed to remove team member")
	}

	message := withWarnings("team member removed", response.Warnings)
	return utils.SendSuccess(c, message, response)
}

// parsePayload accepts JSON bodies and url-encoded forms as a flat map.
func parsePayload(c *fiber.Ctx) (map[string]any, error) {
	payload := map[string]any{}
	if strings.HasPrefix(strings.ToLower(c.Get(fiber.HeaderContentType)), fiber.MIMEApplicationForm) {
		args := c.Request().PostArgs()
		args.VisitAll(func(key, value []byte) {
			payload[string(key)] = string(value)
		})
		return payload, nil
	}

	if len(c.Body()) == 0 {
		return payload, nil
	}
	if err := c.BodyParser(&payload); err != nil {
		return nil, err
	}
	return payload, nil
}
