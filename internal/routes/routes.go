package routes

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/ats-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/ats-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/ats-backend/internal/identity"
	"github.com/ahmetcoskunkizilkaya/ats-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/ats-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/ats-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

type Handlers struct {
	Auth        *handlers.AuthHandler
	Health      *handlers.HealthHandler
	Users       *handlers.UserHandler
	Departments *handlers.DepartmentHandler
	Jobs        *handlers.JobHandler
	Applicants  *handlers.ApplicantHandler
}

func perIP(limit int) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:               limit,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	})
}

func Setup(
	app *fiber.App,
	cfg *config.Config,
	accounts *identity.Service,
	users *services.UserService,
	h Handlers,
) {
	api := app.Group("/api")

	// General API rate limiter: 120 req/min per IP
	api.Use(perIP(120))

	api.Get("/health", h.Health.Check)

	// Auth-specific rate limit: 10 req/min per IP (stricter)
	api.Post("/auth/login", perIP(10), h.Auth.Login)
	api.Get("/session/redirect", middleware.OptionalIdentity(accounts), h.Auth.Redirect)

	// Public job applications
	api.Post("/jobs/:id/applications", perIP(10), h.Jobs.Apply)

	// Protected routes carry the JWT and session middleware individually so
	// they never run in front of the public routes above.
	jwt := middleware.JWTProtected(cfg)
	sess := middleware.Session(accounts, users)
	secured := func(hs ...fiber.Handler) []fiber.Handler {
		return append([]fiber.Handler{jwt, sess}, hs...)
	}

	api.Post("/auth/logout", secured(h.Auth.Logout)...)
	api.Get("/auth/me", secured(h.Auth.Me)...)

	canView := middleware.RequirePermission(func(p models.Permissions) bool { return p.CanViewUsers })
	canCreate := middleware.RequirePermission(func(p models.Permissions) bool { return p.CanCreateUsers })
	canEdit := middleware.RequirePermission(func(p models.Permissions) bool { return p.CanEditUsers })
	canDelete := middleware.RequirePermission(func(p models.Permissions) bool { return p.CanDeleteUsers })

	api.Get("/users", secured(canView, h.Users.List)...)
	api.Post("/users", secured(canCreate, h.Users.Create)...)
	api.Post("/users/invite", secured(canCreate, h.Users.Invite)...)
	api.Get("/users/:id", secured(canView, h.Users.Get)...)
	api.Patch("/users/:id", secured(canEdit, h.Users.Update)...)
	api.Patch("/users/:id/status", secured(canEdit, h.Users.UpdateStatus)...)
	api.Delete("/users/:id", secured(canDelete, h.Users.Delete)...)

	canViewDepartments := middleware.RequirePermission(func(p models.Permissions) bool { return p.CanViewDepartments })
	api.Get("/departments", secured(canViewDepartments, h.Departments.List)...)
	api.Get("/departments/:id", secured(canViewDepartments, h.Departments.Get)...)

	recruiter := middleware.RequireRole(models.RoleAdmin, models.RoleHRManager)
	// member admits any active user with a record; deactivated users are refused.
	member := middleware.RequireRole(models.RoleAdmin, models.RoleHRManager, models.RoleInterviewer)

	api.Get("/jobs", secured(member, h.Jobs.List)...)
	api.Post("/jobs", secured(recruiter, h.Jobs.Create)...)
	api.Get("/jobs/:id", secured(member, h.Jobs.Get)...)
	api.Patch("/jobs/:id", secured(recruiter, h.Jobs.Update)...)
	api.Patch("/jobs/:id/status", secured(recruiter, h.Jobs.UpdateStatus)...)
	api.Delete("/jobs/:id", secured(recruiter, h.Jobs.Delete)...)

	api.Get("/applicants", secured(member, h.Applicants.List)...)
	api.Get("/applicants/:id", secured(member, h.Applicants.Get)...)
	api.Patch("/applicants/:id", secured(recruiter, h.Applicants.Update)...)
	api.Patch("/applicants/:id/status", secured(recruiter, h.Applicants.UpdateStatus)...)
	api.Delete("/applicants/:id", secured(recruiter, h.Applicants.Delete)...)
	api.Post("/applicants/:id/feedback", secured(member, h.Applicants.AddFeedback)...)
}
