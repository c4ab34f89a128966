package handlers

import (
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/ats-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/ats-backend/internal/identity"
	"github.com/ahmetcoskunkizilkaya/ats-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/ats-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/ats-backend/internal/session"
	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	accounts *identity.Service
	users    *services.UserService
	routes   session.Routes
}

func NewAuthHandler(accounts *identity.Service, users *services.UserService) *AuthHandler {
	return &AuthHandler{accounts: accounts, users: users, routes: session.DefaultRoutes()}
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	grant, err := h.accounts.SignInWithPassword(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return handleError(c, "login", err)
	}

	user, err := h.users.GetUser(c.UserContext(), grant.Identity.ID)
	if err != nil {
		return handleError(c, "login", err)
	}
	if user != nil {
		if err := h.users.TouchLastActive(c.UserContext(), user.ID); err != nil {
			slog.Warn("failed to stamp last active", "user_id", user.ID, "error", err)
		}
	}

	return c.JSON(dto.AuthResponse{
		AccessToken: grant.AccessToken,
		ExpiresAt:   grant.ExpiresAt,
		User:        user,
	})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.accounts.Revoke(c.UserContext(), middleware.RawToken(c)); err != nil {
		return handleError(c, "logout", err)
	}
	return c.JSON(fiber.Map{"message": "Logged out successfully"})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	claims := middleware.Claims(c)
	return c.JSON(dto.MeResponse{
		Identity: claims.Identity,
		User:     middleware.CurrentUser(c),
	})
}

// Redirect answers where a client on ?route= should be sent, given whether
// the caller holds a valid token.
func (h *AuthHandler) Redirect(c *fiber.Ctx) error {
	authenticated := middleware.Claims(c) != nil
	target, ok := session.Decide(h.routes, authenticated, c.Query("route"))
	return c.JSON(dto.RedirectResponse{
		Authenticated: authenticated,
		Redirect:      ok,
		Target:        target,
	})
}
