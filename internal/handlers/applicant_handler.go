package handlers

import (
	"strings"

	"github.com/ahmetcoskunkizilkaya/ats-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/ats-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/ats-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type ApplicantHandler struct {
	applicants *services.ApplicantService
}

func NewApplicantHandler(applicants *services.ApplicantService) *ApplicantHandler {
	return &ApplicantHandler{applicants: applicants}
}

func (h *ApplicantHandler) List(c *fiber.Ctx) error {
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		list, err := h.applicants.SearchApplicants(c.UserContext(), q)
		if err != nil {
			return handleError(c, "search_applicants", err)
		}
		return c.JSON(list)
	}

	var filter dto.ApplicantFilter
	if err := c.QueryParser(&filter); err != nil {
		return badRequest(c, "Invalid query parameters")
	}
	list, err := h.applicants.ListApplicants(c.UserContext(), filter)
	if err != nil {
		return handleError(c, "list_applicants", err)
	}
	return c.JSON(list)
}

func (h *ApplicantHandler) Get(c *fiber.Ctx) error {
	applicant, err := h.applicants.GetApplicant(c.UserContext(), c.Params("id"))
	if err != nil {
		return handleError(c, "get_applicant", err)
	}
	if applicant == nil {
		return handleError(c, "get_applicant", services.ErrApplicantNotFound)
	}
	return c.JSON(applicant)
}

func (h *ApplicantHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateApplicantRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	applicant, err := h.applicants.UpdateApplicant(c.UserContext(), c.Params("id"), &req)
	if err != nil {
		return handleError(c, "update_applicant", err)
	}
	return c.JSON(applicant)
}

func (h *ApplicantHandler) UpdateStatus(c *fiber.Ctx) error {
	var req dto.UpdateApplicantStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	applicant, err := h.applicants.UpdateApplicantStatus(c.UserContext(), c.Params("id"), req.Status, req.Stage)
	if err != nil {
		return handleError(c, "update_applicant_status", err)
	}
	return c.JSON(applicant)
}

// AddFeedback records feedback as the signed-in interviewer.
func (h *ApplicantHandler) AddFeedback(c *fiber.Ctx) error {
	var req dto.FeedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if claims := middleware.Claims(c); claims != nil {
		req.InterviewerID = claims.ID
	}
	id := c.Params("id")
	if err := h.applicants.AddInterviewFeedback(c.UserContext(), id, req); err != nil {
		return handleError(c, "add_feedback", err)
	}
	applicant, err := h.applicants.GetApplicant(c.UserContext(), id)
	if err != nil {
		return handleError(c, "add_feedback", err)
	}
	return c.Status(fiber.StatusCreated).JSON(applicant)
}

func (h *ApplicantHandler) Delete(c *fiber.Ctx) error {
	if err := h.applicants.DeleteApplicant(c.UserContext(), c.Params("id")); err != nil {
		return handleError(c, "delete_applicant", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
