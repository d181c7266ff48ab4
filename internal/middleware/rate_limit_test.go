package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestRateLimitKeysByUser(t *testing.T) {
	first := uuid.New()
	second := uuid.New()

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if c.Get("X-User") == "second" {
			SetIdentity(c, second, "learner")
		} else {
			SetIdentity(c, first, "learner")
		}
		return c.Next()
	})
	app.Post("/submissions", RateLimit("submissions", 2, time.Minute), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusCreated)
	})

	call := func(user string) int {
		req := httptest.NewRequest(http.MethodPost, "/submissions", nil)
		req.Header.Set("X-User", user)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		return resp.StatusCode
	}

	require.Equal(t, fiber.StatusCreated, call("first"))
	require.Equal(t, fiber.StatusCreated, call("first"))
	require.Equal(t, fiber.StatusTooManyRequests, call("first"))
	require.Equal(t, fiber.StatusCreated, call("second"))
}
