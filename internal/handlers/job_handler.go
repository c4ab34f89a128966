package handlers

import (
	"strings"

	"github.com/ahmetcoskunkizilkaya/ats-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/ats-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/ats-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/ats-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type JobHandler struct {
	jobs       *services.JobService
	applicants *services.ApplicantService
}

func NewJobHandler(jobs *services.JobService, applicants *services.ApplicantService) *JobHandler {
	return &JobHandler{jobs: jobs, applicants: applicants}
}

func (h *JobHandler) List(c *fiber.Ctx) error {
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		jobs, err := h.jobs.SearchJobs(c.UserContext(), q)
		if err != nil {
			return handleError(c, "search_jobs", err)
		}
		return c.JSON(jobs)
	}

	var filter dto.JobFilter
	if err := c.QueryParser(&filter); err != nil {
		return badRequest(c, "Invalid query parameters")
	}
	jobs, err := h.jobs.ListJobs(c.UserContext(), filter)
	if err != nil {
		return handleError(c, "list_jobs", err)
	}
	return c.JSON(jobs)
}

func (h *JobHandler) Get(c *fiber.Ctx) error {
	job, err := h.jobs.GetJob(c.UserContext(), c.Params("id"))
	if err != nil {
		return handleError(c, "get_job", err)
	}
	if job == nil {
		return handleError(c, "get_job", services.ErrJobNotFound)
	}
	return c.JSON(job)
}

func (h *JobHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateJobRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if claims := middleware.Claims(c); claims != nil {
		req.CreatedBy = claims.ID
	}
	job, err := h.jobs.CreateJob(c.UserContext(), &req)
	if err != nil {
		return handleError(c, "create_job", err)
	}
	return c.Status(fiber.StatusCreated).JSON(job)
}

func (h *JobHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateJobRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	job, err := h.jobs.UpdateJob(c.UserContext(), c.Params("id"), &req)
	if err != nil {
		return handleError(c, "update_job", err)
	}
	return c.JSON(job)
}

func (h *JobHandler) UpdateStatus(c *fiber.Ctx) error {
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	job, err := h.jobs.UpdateJobStatus(c.UserContext(), c.Params("id"), models.JobStatus(req.Status))
	if err != nil {
		return handleError(c, "update_job_status", err)
	}
	return c.JSON(job)
}

// Delete only removes drafts; published or closed jobs keep their history.
func (h *JobHandler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")
	job, err := h.jobs.GetJob(c.UserContext(), id)
	if err != nil {
		return handleError(c, "delete_job", err)
	}
	if job == nil {
		return handleError(c, "delete_job", services.ErrJobNotFound)
	}
	if job.Status != models.JobStatusDraft {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Error: true, Message: "only draft jobs can be deleted",
		})
	}
	if err := h.jobs.DeleteJob(c.UserContext(), id); err != nil {
		return handleError(c, "delete_job", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Apply is the public application endpoint for a published job.
func (h *JobHandler) Apply(c *fiber.Ctx) error {
	var body dto.ApplicationRequest
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "Invalid request body")
	}
	req := dto.CreateApplicantRequest{
		Name:           body.Name,
		Email:          body.Email,
		Position:       body.Position,
		JobID:          c.Params("id"),
		HasResume:      body.HasResume,
		HasCoverLetter: body.HasCoverLetter,
		HasPortfolio:   body.HasPortfolio,
	}

	job, err := h.jobs.GetJob(c.UserContext(), req.JobID)
	if err != nil {
		return handleError(c, "apply", err)
	}
	if job == nil || job.Status != models.JobStatusPublished {
		return handleError(c, "apply", services.ErrJobNotFound)
	}
	if req.Position == "" {
		req.Position = job.Title
	}

	applicant, err := h.applicants.CreateApplicant(c.UserContext(), &req)
	if err != nil {
		return handleError(c, "apply", err)
	}
	return c.Status(fiber.StatusCreated).JSON(applicant)
}
