package handlers

import (
	"github.com/ahmetcoskunkizilkaya/ats-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/ats-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type DepartmentHandler struct {
	departments *services.DepartmentService
}

func NewDepartmentHandler(departments *services.DepartmentService) *DepartmentHandler {
	return &DepartmentHandler{departments: departments}
}

func (h *DepartmentHandler) List(c *fiber.Ctx) error {
	list, err := h.departments.ListDepartments(c.UserContext())
	if err != nil {
		return handleError(c, "list_departments", err)
	}
	return c.JSON(list)
}

func (h *DepartmentHandler) Get(c *fiber.Ctx) error {
	dept, err := h.departments.GetDepartment(c.UserContext(), c.Params("id"))
	if err != nil {
		return handleError(c, "get_department", err)
	}
	if dept == nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "department not found",
		})
	}
	return c.JSON(dept)
}
