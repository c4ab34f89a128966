package handlers

import (
	"strings"

	"github.com/ahmetcoskunkizilkaya/ats-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/ats-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/ats-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/ats-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	users *services.UserService
}

func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// List serves both the filtered listing and ?q= substring search.
func (h *UserHandler) List(c *fiber.Ctx) error {
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		users, err := h.users.SearchUsers(c.UserContext(), q)
		if err != nil {
			return handleError(c, "search_users", err)
		}
		return c.JSON(users)
	}

	var filter dto.UserFilter
	if err := c.QueryParser(&filter); err != nil {
		return badRequest(c, "Invalid query parameters")
	}
	users, err := h.users.ListUsers(c.UserContext(), filter)
	if err != nil {
		return handleError(c, "list_users", err)
	}
	return c.JSON(users)
}

func (h *UserHandler) Get(c *fiber.Ctx) error {
	user, err := h.users.GetUser(c.UserContext(), c.Params("id"))
	if err != nil {
		return handleError(c, "get_user", err)
	}
	if user == nil {
		return handleError(c, "get_user", services.ErrUserNotFound)
	}
	return c.JSON(user)
}

func (h *UserHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if !outranks(c, req.Role) {
		return forbidden(c, "cannot assign a role above your own")
	}
	user, err := h.users.CreateUser(c.UserContext(), &req)
	if err != nil {
		return handleError(c, "create_user", err)
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

func (h *UserHandler) Invite(c *fiber.Ctx) error {
	var req dto.InviteUserRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if !outranks(c, req.Role) {
		return forbidden(c, "cannot assign a role above your own")
	}
	user, err := h.users.InviteUser(c.UserContext(), &req)
	if err != nil {
		return handleError(c, "invite_user", err)
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

func (h *UserHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Role != nil && !outranks(c, *req.Role) {
		return forbidden(c, "cannot assign a role above your own")
	}
	if stop, err := h.guardTarget(c, "update_user"); stop {
		return err
	}
	user, err := h.users.UpdateUser(c.UserContext(), c.Params("id"), &req)
	if err != nil {
		return handleError(c, "update_user", err)
	}
	return c.JSON(user)
}

func (h *UserHandler) UpdateStatus(c *fiber.Ctx) error {
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if stop, err := h.guardTarget(c, "update_user_status"); stop {
		return err
	}
	user, err := h.users.UpdateStatus(c.UserContext(), c.Params("id"), models.UserStatus(req.Status))
	if err != nil {
		return handleError(c, "update_user_status", err)
	}
	return c.JSON(user)
}

func (h *UserHandler) Delete(c *fiber.Ctx) error {
	if stop, err := h.guardTarget(c, "delete_user"); stop {
		return err
	}
	if err := h.users.DeleteUser(c.UserContext(), c.Params("id")); err != nil {
		return handleError(c, "delete_user", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// outranks reports whether the caller may hand out role.
func outranks(c *fiber.Ctx, role models.Role) bool {
	caller := middleware.CurrentUser(c)
	return caller != nil && role.Rank() <= caller.Role.Rank()
}

// guardTarget stops callers from changing users who hold a higher role.
// When stop is true the response has been written. A missing target falls
// through so the service reports NotFound.
func (h *UserHandler) guardTarget(c *fiber.Ctx, action string) (stop bool, err error) {
	target, err := h.users.GetUser(c.UserContext(), c.Params("id"))
	if err != nil {
		return true, handleError(c, action, err)
	}
	if target != nil && !outranks(c, target.Role) {
		return true, forbidden(c, "cannot modify a user with a higher role")
	}
	return false, nil
}
