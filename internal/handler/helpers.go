package handler

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-classroom-api/internal/apperror"
	"github.com/noah-isme/gema-classroom-api/internal/middleware"
	"github.com/noah-isme/gema-classroom-api/internal/models"
	"github.com/noah-isme/gema-classroom-api/internal/service"
	"github.com/noah-isme/gema-classroom-api/internal/utils"
)

var (
	instructorRole = string(models.RoleInstructor)
	learnerRole    = string(models.RoleLearner)
)

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	return strconv.Atoi(value)
}

// parseUUIDParam reads a path parameter; malformed ids are reported as invalid.
func parseUUIDParam(c *fiber.Ctx, name string, invalid *apperror.Error) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, invalid.WithDetails(map[string]string{name: "uuid"})
	}
	return id, nil
}

func actorFromContext(c *fiber.Ctx) (service.Actor, error) {
	id, ok := middleware.UserID(c)
	if !ok {
		return service.Actor{}, apperror.ErrUnauthorized
	}
	return service.Actor{ID: id, Role: middleware.UserRole(c)}, nil
}

func parseBody(c *fiber.Ctx, out interface{}, invalid *apperror.Error) error {
	if err := c.BodyParser(out); err != nil {
		return invalid.WithMessage("request body must be valid JSON")
	}
	return nil
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := middleware.RequestLogger(c, base)
	return &logger
}

// handleError renders typed failures as-is and hides everything else behind INTERNAL_ERROR.
func handleError(c *fiber.Ctx, base zerolog.Logger, err error) error {
	appErr, ok := apperror.From(err)
	if !ok {
		requestLogger(base, c).Error().Err(err).Str("path", c.Path()).Msg("internal server error")
		return utils.SendAppError(c, appErr)
	}
	if appErr.Status >= fiber.StatusInternalServerError {
		requestLogger(base, c).Error().Err(err).Str("code", appErr.Code).Msg("request failed")
	}
	return utils.SendAppError(c, appErr)
}
