package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ahmetcoskunkizilkaya/ats-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/ats-backend/internal/docstore"
	"github.com/ahmetcoskunkizilkaya/ats-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/ats-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/ats-backend/internal/identity"
	"github.com/ahmetcoskunkizilkaya/ats-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/ats-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type testServer struct {
	app   *fiber.App
	jobs  *services.JobService
	users *services.UserService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := &config.Config{JWTSecret: "test-secret", CORSOrigins: "*"}
	store := docstore.NewMemory()
	accounts := identity.NewService(store, identity.Options{Secret: cfg.JWTSecret, HashCost: 4}, nil)
	users := services.NewUserService(store, accounts)
	jobs := services.NewJobService(store)
	applicants := services.NewApplicantService(store, jobs)

	ctx := context.Background()
	for _, invite := range []dto.InviteUserRequest{
		{Name: "Ada Admin", Email: "admin@example.com", Password: "password123", Role: models.RoleAdmin},
		{Name: "Ivan Interviewer", Email: "ivan@example.com", Password: "password123", Role: models.RoleInterviewer},
		{Name: "Hana HR", Email: "hana@example.com", Password: "password123", Role: models.RoleHRManager},
	} {
		if _, err := users.InviteUser(ctx, &invite); err != nil {
			t.Fatalf("invite %s: %v", invite.Email, err)
		}
	}

	app := fiber.New()
	Setup(app, cfg, accounts, users, Handlers{
		Auth:        handlers.NewAuthHandler(accounts, users),
		Health:      handlers.NewHealthHandler(store),
		Users:       handlers.NewUserHandler(users),
		Departments: handlers.NewDepartmentHandler(services.NewDepartmentService(store)),
		Jobs:        handlers.NewJobHandler(jobs, applicants),
		Applicants:  handlers.NewApplicantHandler(applicants),
	})
	return &testServer{app: app, jobs: jobs, users: users}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, out
}

func (s *testServer) login(t *testing.T, email string) string {
	t.Helper()
	status, body := s.do(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Email: email, Password: "password123"})
	if status != http.StatusOK {
		t.Fatalf("login %s: status %d: %s", email, status, body)
	}
	var resp dto.AuthResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	if resp.User == nil || resp.AccessToken == "" {
		t.Fatalf("unexpected login response: %s", body)
	}
	return resp.AccessToken
}

func TestUserRoutesArePermissionGated(t *testing.T) {
	s := newTestServer(t)

	if status, _ := s.do(t, http.MethodGet, "/api/users", "", nil); status != http.StatusUnauthorized {
		t.Fatalf("anonymous: expected 401, got %d", status)
	}

	interviewer := s.login(t, "ivan@example.com")
	if status, _ := s.do(t, http.MethodGet, "/api/users", interviewer, nil); status != http.StatusForbidden {
		t.Fatalf("interviewer: expected 403, got %d", status)
	}

	admin := s.login(t, "admin@example.com")
	status, body := s.do(t, http.MethodGet, "/api/users", admin, nil)
	if status != http.StatusOK {
		t.Fatalf("admin: expected 200, got %d: %s", status, body)
	}
	var list []models.User
	if err := json.Unmarshal(body, &list); err != nil {
		t.Fatalf("decode users: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 users, got %d", len(list))
	}
}

func TestLoginFailureCarriesCode(t *testing.T) {
	s := newTestServer(t)
	status, body := s.do(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Email: "admin@example.com", Password: "wrong-password"})
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", status)
	}
	var resp dto.ErrorResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Code != "auth/invalid-credential" {
		t.Fatalf("unexpected code %q", resp.Code)
	}
}

func TestJobLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(t, "admin@example.com")
	interviewer := s.login(t, "ivan@example.com")

	create := dto.CreateJobRequest{
		Title:           "Backend Engineer",
		EmploymentType:  models.EmploymentFullTime,
		ExperienceLevel: models.ExperienceSenior,
		Status:          models.JobStatusPublished,
	}
	if status, _ := s.do(t, http.MethodPost, "/api/jobs", interviewer, create); status != http.StatusForbidden {
		t.Fatalf("interviewer create: expected 403, got %d", status)
	}
	status, body := s.do(t, http.MethodPost, "/api/jobs", admin, create)
	if status != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", status, body)
	}
	var job models.Job
	if err := json.Unmarshal(body, &job); err != nil {
		t.Fatalf("decode job: %v", err)
	}

	apply := dto.CreateApplicantRequest{Name: "Grace", Email: "grace@example.com", HasResume: true}
	if status, body := s.do(t, http.MethodPost, "/api/jobs/"+job.ID+"/applications", "", apply); status != http.StatusCreated {
		t.Fatalf("apply: expected 201, got %d: %s", status, body)
	}
	got, err := s.jobs.GetJob(context.Background(), job.ID)
	if err != nil || got.ApplicationsCount != 1 {
		t.Fatalf("expected counter 1, got %+v / %v", got, err)
	}

	if status, _ := s.do(t, http.MethodDelete, "/api/jobs/"+job.ID, admin, nil); status != http.StatusConflict {
		t.Fatalf("delete published: expected 409, got %d", status)
	}
	if status, _ := s.do(t, http.MethodPatch, "/api/jobs/"+job.ID+"/status", admin, dto.UpdateStatusRequest{Status: "draft"}); status != http.StatusOK {
		t.Fatalf("set draft: expected 200, got %d", status)
	}
	if status, _ := s.do(t, http.MethodDelete, "/api/jobs/"+job.ID, admin, nil); status != http.StatusNoContent {
		t.Fatalf("delete draft: expected 204, got %d", status)
	}
	if status, _ := s.do(t, http.MethodGet, "/api/jobs/"+job.ID, admin, nil); status != http.StatusNotFound {
		t.Fatalf("get deleted: expected 404, got %d", status)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "admin@example.com")

	if status, _ := s.do(t, http.MethodGet, "/api/auth/me", token, nil); status != http.StatusOK {
		t.Fatalf("me: expected 200, got %d", status)
	}
	if status, _ := s.do(t, http.MethodPost, "/api/auth/logout", token, nil); status != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", status)
	}
	if status, _ := s.do(t, http.MethodGet, "/api/auth/me", token, nil); status != http.StatusUnauthorized {
		t.Fatalf("me after logout: expected 401, got %d", status)
	}
}

func TestSessionRedirect(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "admin@example.com")

	tests := []struct {
		name  string
		token string
		route string
		want  dto.RedirectResponse
	}{
		{"anonymous on protected", "", "/dashboard/jobs", dto.RedirectResponse{Redirect: true, Target: "/auth/login"}},
		{"signed in on auth page", token, "/auth/login", dto.RedirectResponse{Authenticated: true, Redirect: true, Target: "/dashboard"}},
		{"signed in on protected", token, "/dashboard", dto.RedirectResponse{Authenticated: true}},
		{"invalid token is anonymous", "garbage", "/auth/login", dto.RedirectResponse{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := s.do(t, http.MethodGet, "/api/session/redirect?route="+tt.route, tt.token, nil)
			if status != http.StatusOK {
				t.Fatalf("expected 200, got %d", status)
			}
			var got dto.RedirectResponse
			if err := json.Unmarshal(body, &got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func (s *testServer) userID(t *testing.T, role models.Role) string {
	t.Helper()
	list, err := s.users.ListUsers(context.Background(), dto.UserFilter{Role: role})
	if err != nil || len(list) != 1 {
		t.Fatalf("expected one %s, got %v / %v", role, list, err)
	}
	return list[0].ID
}

func TestDeactivatedUserIsRefused(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(t, "admin@example.com")
	interviewer := s.login(t, "ivan@example.com")

	if status, _ := s.do(t, http.MethodGet, "/api/jobs", interviewer, nil); status != http.StatusOK {
		t.Fatalf("active interviewer: expected 200, got %d", status)
	}

	path := "/api/users/" + s.userID(t, models.RoleInterviewer) + "/status"
	if status, body := s.do(t, http.MethodPatch, path, admin, dto.UpdateStatusRequest{Status: "inactive"}); status != http.StatusOK {
		t.Fatalf("deactivate: expected 200, got %d: %s", status, body)
	}

	for _, req := range []struct{ method, path string }{
		{http.MethodGet, "/api/jobs"},
		{http.MethodGet, "/api/jobs/any"},
		{http.MethodGet, "/api/applicants"},
		{http.MethodGet, "/api/applicants/any"},
		{http.MethodPost, "/api/applicants/any/feedback"},
	} {
		var body any
		if req.method == http.MethodPost {
			body = dto.FeedbackRequest{Rating: 5}
		}
		if status, _ := s.do(t, req.method, req.path, interviewer, body); status != http.StatusForbidden {
			t.Fatalf("%s %s: expected 403 for inactive user, got %d", req.method, req.path, status)
		}
	}
}

func TestPublicApplicationIgnoresRecruiterFields(t *testing.T) {
	s := newTestServer(t)
	job, err := s.jobs.CreateJob(context.Background(), &dto.CreateJobRequest{
		Title:           "Support Engineer",
		EmploymentType:  models.EmploymentFullTime,
		ExperienceLevel: models.ExperienceSenior,
		Status:          models.JobStatusPublished,
	})
	if err != nil {
		t.Fatalf("create job: %v", err)
	}

	body := map[string]any{
		"name":       "Mallory",
		"email":      "mallory@example.com",
		"hasResume":  true,
		"matchScore": 100,
		"notes":      "approved by HR",
	}
	status, out := s.do(t, http.MethodPost, "/api/jobs/"+job.ID+"/applications", "", body)
	if status != http.StatusCreated {
		t.Fatalf("apply: expected 201, got %d: %s", status, out)
	}
	var applicant models.Applicant
	if err := json.Unmarshal(out, &applicant); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if applicant.MatchScore != 0 || applicant.Notes != "" {
		t.Fatalf("recruiter fields must not be settable by applicants: %+v", applicant)
	}
	if !applicant.HasResume || applicant.Position != "Support Engineer" {
		t.Fatalf("unexpected applicant: %+v", applicant)
	}
}

func TestHRManagerCannotEscalate(t *testing.T) {
	s := newTestServer(t)
	hr := s.login(t, "hana@example.com")
	admin := models.RoleAdmin
	interviewer := models.RoleInterviewer

	self := "/api/users/" + s.userID(t, models.RoleHRManager)
	if status, _ := s.do(t, http.MethodPatch, self, hr, dto.UpdateUserRequest{Role: &admin}); status != http.StatusForbidden {
		t.Fatalf("self promotion: expected 403, got %d", status)
	}

	adminPath := "/api/users/" + s.userID(t, models.RoleAdmin)
	if status, _ := s.do(t, http.MethodPatch, adminPath+"/status", hr, dto.UpdateStatusRequest{Status: "inactive"}); status != http.StatusForbidden {
		t.Fatalf("deactivating an admin: expected 403, got %d", status)
	}

	invite := dto.InviteUserRequest{Name: "Root 2", Email: "root2@example.com", Password: "password123", Role: models.RoleAdmin}
	if status, _ := s.do(t, http.MethodPost, "/api/users/invite", hr, invite); status != http.StatusForbidden {
		t.Fatalf("inviting an admin: expected 403, got %d", status)
	}

	name := "Ivan I."
	path := "/api/users/" + s.userID(t, models.RoleInterviewer)
	status, body := s.do(t, http.MethodPatch, path, hr, dto.UpdateUserRequest{Name: &name, Role: &interviewer})
	if status != http.StatusOK {
		t.Fatalf("editing an interviewer: expected 200, got %d: %s", status, body)
	}

	users, _ := s.users.ListUsers(context.Background(), dto.UserFilter{Role: models.RoleAdmin})
	if len(users) != 1 || users[0].Status != models.UserStatusActive {
		t.Fatalf("admin must be untouched, got %+v", users)
	}
}
