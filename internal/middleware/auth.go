package middleware

import (
	"strings"

	"github.com/ahmetcoskunkizilkaya/ats-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/ats-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/ats-backend/internal/identity"
	"github.com/ahmetcoskunkizilkaya/ats-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/ats-backend/internal/services"
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	localToken    = "user"
	localClaims   = "claims"
	localUser     = "current_user"
	localRawToken = "raw_token"
)

func JWTProtected(cfg *config.Config) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey: jwtware.SigningKey{JWTAlg: jwtware.HS256, Key: []byte(cfg.JWTSecret)},
		ContextKey: localToken,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error:   true,
				Message: "Unauthorized: invalid or expired token",
			})
		},
	})
}

// Session runs after JWTProtected. It rejects revoked tokens, loads the user
// record that belongs to the identity and stamps its lastActive.
func Session(accounts *identity.Service, users *services.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := c.Locals(localToken).(*jwt.Token)
		if !ok || token == nil {
			return unauthorized(c)
		}

		claims, err := accounts.Verify(c.UserContext(), token.Raw)
		if err != nil {
			return unauthorized(c)
		}
		c.Locals(localClaims, claims)
		c.Locals(localRawToken, token.Raw)

		user, err := users.GetUser(c.UserContext(), claims.ID)
		if err != nil {
			return err
		}
		if user != nil {
			c.Locals(localUser, user)
			if err := users.TouchLastActive(c.UserContext(), user.ID); err != nil {
				return err
			}
		}
		return c.Next()
	}
}

// OptionalIdentity verifies a bearer token when one is sent and leaves the
// caller anonymous otherwise.
func OptionalIdentity(accounts *identity.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := BearerToken(c)
		if raw == "" {
			return c.Next()
		}
		if claims, err := accounts.Verify(c.UserContext(), raw); err == nil {
			c.Locals(localClaims, claims)
			c.Locals(localRawToken, raw)
		}
		return c.Next()
	}
}

// RequirePermission gates a route on the caller's derived permission set.
func RequirePermission(allowed func(models.Permissions) bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := CurrentUser(c)
		if user == nil || user.Status != models.UserStatusActive || !allowed(user.Permissions) {
			return forbidden(c)
		}
		return c.Next()
	}
}

func RequireRole(roles ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := CurrentUser(c)
		if user == nil || user.Status != models.UserStatusActive {
			return forbidden(c)
		}
		for _, r := range roles {
			if user.Role == r {
				return c.Next()
			}
		}
		return forbidden(c)
	}
}

func Claims(c *fiber.Ctx) *identity.Claims {
	claims, _ := c.Locals(localClaims).(*identity.Claims)
	return claims
}

func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(localUser).(*models.User)
	return user
}

func RawToken(c *fiber.Ctx) string {
	raw, _ := c.Locals(localRawToken).(string)
	return raw
}

func BearerToken(c *fiber.Ctx) string {
	h := c.Get(fiber.HeaderAuthorization)
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
		Error: true, Message: "Unauthorized",
	})
}

func forbidden(c *fiber.Ctx) error {
	return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
		Error: true, Message: "Insufficient permissions",
	})
}
