package middleware

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/noah-isme/gema-classroom-api/internal/apperror"
	"github.com/noah-isme/gema-classroom-api/internal/utils"
)

const (
	localUserID   = "user_id"
	localUserRole = "user_role"
)

// JWTProtected returns a middleware that validates HMAC bearer tokens. The
// subject must be a profile UUID; the role claim is optional here and enforced
// by RequireRole.
func JWTProtected(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authorization := c.Get(fiber.HeaderAuthorization)
		if authorization == "" {
			return unauthorized(c, "authorization header missing")
		}

		const bearer = "Bearer "
		if len(authorization) < len(bearer) || !strings.EqualFold(authorization[:len(bearer)], bearer) {
			return unauthorized(c, "invalid authorization header")
		}

		tokenString := strings.TrimSpace(authorization[len(bearer):])
		if tokenString == "" {
			return unauthorized(c, "invalid token")
		}

		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			return unauthorized(c, "invalid token")
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return unauthorized(c, "invalid token claims")
		}

		subject, err := claims.GetSubject()
		if err != nil {
			return unauthorized(c, "invalid token subject")
		}
		userID, err := uuid.Parse(subject)
		if err != nil {
			return unauthorized(c, "invalid token subject")
		}

		c.Locals(localUserID, userID)
		if role := extractUserRoleFromClaims(claims); role != "" {
			c.Locals(localUserRole, role)
		}

		return c.Next()
	}
}

// UserID returns the authenticated profile id bound by JWTProtected.
func UserID(c *fiber.Ctx) (uuid.UUID, bool) {
	id, ok := c.Locals(localUserID).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

// UserRole returns the normalised role claim of the caller, or "".
func UserRole(c *fiber.Ctx) string {
	return normalizeRoleValue(c.Locals(localUserRole))
}

// SetIdentity binds an identity to the request the same way JWTProtected does.
func SetIdentity(c *fiber.Ctx, id uuid.UUID, role string) {
	c.Locals(localUserID, id)
	c.Locals(localUserRole, strings.ToLower(strings.TrimSpace(role)))
}

func unauthorized(c *fiber.Ctx, message string) error {
	return utils.SendAppError(c, apperror.ErrUnauthorized.WithMessage(message))
}

func extractUserRoleFromClaims(claims jwt.MapClaims) string {
	candidates := []string{"role", "roles"}
	for _, key := range candidates {
		if value, ok := claims[key]; ok {
			if role := normalizeRole(value); role != "" {
				return role
			}
		}
	}
	return ""
}

func normalizeRole(value interface{}) string {
	switch v := value.(type) {
	case string:
		return strings.ToLower(strings.TrimSpace(v))
	case []interface{}:
		for _, item := range v {
			if str, ok := item.(string); ok {
				role := strings.ToLower(strings.TrimSpace(str))
				if role != "" {
					return role
				}
			}
		}
	}
	return ""
}
