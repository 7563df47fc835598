package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/estate-crm-api/internal/dto"
	"github.com/noah-isme/estate-crm-api/internal/service"
	"github.com/noah-isme/estate-crm-api/internal/utils"
)

// RecordHandler exposes the read-only audit log.
type RecordHandler struct {
	service service.RecordService
	logger  zerolog.Logger
}

// NewRecordHandler constructs the handler.
func NewRecordHandler(service service.RecordService, logger zerolog.Logger) *RecordHandler {
	return &RecordHandler{
		service: service,
		logger:  logger.With().Str("component", "record_handler").Logger(),
	}
}

// Register attaches audit log routes to the router group.
func (h *RecordHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Get("/:sequence", h.get)
}

func (h *RecordHandler) list(c *fiber.Ctx) error {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page")
	}

	pageSize, err := parseQueryInt(c, "page_size")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page size")
	}

	entityID, err := parseQueryInt64(c, "entity_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid entity id")
	}

	actorID, err := parseQueryInt64(c, "actor_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid actor id")
	}

	req := dto.ChangeRecordListRequest{
		Page:       page,
		PageSize:   pageSize,
		EntityKind: c.Query("entity_kind"),
		EntityID:   entityID,
		ActorID:    actorID,
		Action:     c.Query("action"),
	}

	response, err := h.service.List(c.UserContext(), actorFromContext(c), req)
	if err != nil {
		return sendServiceError(c, requestLogger(h.logger, c), err, "failed to list change records")
	}

	return utils.SendSuccess(c, "change records", response)
}

func (h *RecordHandler) get(c *fiber.Ctx) error {
	sequenceID, ok := parseIDParam(c, "sequence")
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid sequence id")
	}

	record, err := h.service.Get(c.UserContext(), actorFromContext(c), sequenceID)
	if err != nil {
		return sendServiceError(c, requestLogger(h.logger, c), err, "failed to load change record")
	}

	return utils.SendSuccess(c, "change record", record)
}
