package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-classroom-api/internal/apperror"
	"github.com/noah-isme/gema-classroom-api/internal/dto"
	"github.com/noah-isme/gema-classroom-api/internal/service"
	"github.com/noah-isme/gema-classroom-api/internal/utils"
)

var errInvalidPagination = apperror.New(fiber.StatusBadRequest, "ACTIVITY_VALIDATION_ERROR", "page and page_size must be integers")

// ActivityHandler exposes the caller's own audit trail.
type ActivityHandler struct {
	service service.ActivityService
	logger  zerolog.Logger
}

// NewActivityHandler constructs the handler.
func NewActivityHandler(service service.ActivityService, logger zerolog.Logger) *ActivityHandler {
	return &ActivityHandler{
		service: service,
		logger:  logger.With().Str("component", "activity_handler").Logger(),
	}
}

// Register attaches activity endpoints to the router group.
func (h *ActivityHandler) Register(router fiber.Router) {
	router.Get("", h.list)
}

func (h *ActivityHandler) list(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	page, err := parseQueryInt(c, "page")
	if err != nil {
		return handleError(c, h.logger, errInvalidPagination)
	}
	pageSize, err := parseQueryInt(c, "page_size")
	if err != nil {
		return handleError(c, h.logger, errInvalidPagination)
	}

	logs, total, err := h.service.ListForActor(c.UserContext(), actor.ID, page, pageSize)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	return utils.OK(c, logs, "activity retrieved", dto.PaginationMeta{Page: page, PageSize: pageSize, TotalItems: total})
}
