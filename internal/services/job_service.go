package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ahmetcoskunkizilkaya/ats-backend/internal/docstore"
	"github.com/ahmetcoskunkizilkaya/ats-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/ats-backend/internal/models"
	"github.com/google/uuid"
)

type JobService struct {
	store docstore.Store
}

func NewJobService(store docstore.Store) *JobService {
	return &JobService{store: store}
}

// in returns a JobService bound to tx, for use inside a transaction.
func (s *JobService) in(tx docstore.Store) *JobService {
	return &JobService{store: tx}
}

func (s *JobService) jobs() docstore.Collection {
	return s.store.Collection(jobsCollection)
}

// ListJobs returns matching jobs, newest first.
func (s *JobService) ListJobs(ctx context.Context, filter dto.JobFilter) ([]models.Job, error) {
	q := docstore.Query{OrderBy: []docstore.Order{docstore.Desc("createdAt")}, Limit: filter.Limit}
	if filter.Status != "" {
		q.Filters = append(q.Filters, docstore.Eq("status", string(filter.Status)))
	}
	if filter.Department != "" {
		q.Filters = append(q.Filters, docstore.Eq("department", filter.Department))
	}
	if filter.CreatedBy != "" {
		q.Filters = append(q.Filters, docstore.Eq("createdBy", filter.CreatedBy))
	}
	if filter.Interviewer != "" {
		q.Filters = append(q.Filters, docstore.Contains("interviewers", filter.Interviewer))
	}
	if filter.HRManager != "" {
		q.Filters = append(q.Filters, docstore.Contains("hrManagers", filter.HRManager))
	}

	docs, err := s.jobs().Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	return decodeAll(docs, decodeJob)
}

// GetJob returns nil, nil when the job does not exist.
func (s *JobService) GetJob(ctx context.Context, id string) (*models.Job, error) {
	doc, err := s.jobs().Get(ctx, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return decodeJob(doc)
}

func validateSalary(min, max *float64) error {
	if min != nil && *min < 0 {
		return invalid("salaryMin", "must not be negative")
	}
	if min != nil && max != nil && *max < *min {
		return invalid("salaryMax", "must not be below salaryMin")
	}
	return nil
}

// CreateJob stores a new posting with applicationsCount 0. Status defaults
// to draft.
func (s *JobService) CreateJob(ctx context.Context, req *dto.CreateJobRequest) (*models.Job, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, invalid("title", "is required")
	}
	if !req.EmploymentType.Valid() {
		return nil, invalid("employmentType", "unknown employment type %q", req.EmploymentType)
	}
	if !req.ExperienceLevel.Valid() {
		return nil, invalid("experienceLevel", "unknown experience level %q", req.ExperienceLevel)
	}
	status := req.Status
	if status == "" {
		status = models.JobStatusDraft
	}
	if !status.Valid() {
		return nil, invalid("status", "unknown status %q", status)
	}
	if err := validateSalary(req.SalaryMin, req.SalaryMax); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	doc := docstore.Document{
		"title":             strings.TrimSpace(req.Title),
		"department":        req.Department,
		"team":              req.Team,
		"employmentType":    string(req.EmploymentType),
		"experienceLevel":   string(req.ExperienceLevel),
		"location":          req.Location,
		"remote":            req.Remote,
		"remoteRegion":      req.RemoteRegion,
		"salaryCurrency":    req.SalaryCurrency,
		"showSalary":        req.ShowSalary,
		"benefits":          req.Benefits,
		"summary":           req.Summary,
		"description":       req.Description,
		"requirements":      stringsOrEmpty(req.Requirements),
		"responsibilities":  stringsOrEmpty(req.Responsibilities),
		"skills":            stringsOrEmpty(req.Skills),
		"education":         req.Education,
		"certifications":    req.Certifications,
		"status":            string(status),
		"createdBy":         req.CreatedBy,
		"interviewers":      stringsOrEmpty(req.Interviewers),
		"hrManagers":        stringsOrEmpty(req.HRManagers),
		"applicationsCount": int64(0),
		"createdAt":         docstore.ServerTimestamp(),
		"updatedAt":         docstore.ServerTimestamp(),
	}
	if req.SalaryMin != nil {
		doc["salaryMin"] = *req.SalaryMin
	}
	if req.SalaryMax != nil {
		doc["salaryMax"] = *req.SalaryMax
	}
	if req.ExpiresAt != nil {
		doc["expiresAt"] = req.ExpiresAt.UTC()
	}
	if status == models.JobStatusPublished {
		doc["postedAt"] = docstore.ServerTimestamp()
	}

	if err := s.jobs().Create(ctx, id, doc); err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	slog.Info("job created", "job_id", id, "status", status, "created_by", req.CreatedBy)
	return s.mustGet(ctx, id)
}

func (s *JobService) UpdateJob(ctx context.Context, id string, req *dto.UpdateJobRequest) (*models.Job, error) {
	fields := docstore.Document{"updatedAt": docstore.ServerTimestamp()}
	setString := func(key string, v *string) {
		if v != nil {
			fields[key] = *v
		}
	}
	setStrings := func(key string, v *[]string) {
		if v != nil {
			fields[key] = stringsOrEmpty(*v)
		}
	}

	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		return nil, invalid("title", "must not be empty")
	}
	if req.EmploymentType != nil {
		if !req.EmploymentType.Valid() {
			return nil, invalid("employmentType", "unknown employment type %q", *req.EmploymentType)
		}
		fields["employmentType"] = string(*req.EmploymentType)
	}
	if req.ExperienceLevel != nil {
		if !req.ExperienceLevel.Valid() {
			return nil, invalid("experienceLevel", "unknown experience level %q", *req.ExperienceLevel)
		}
		fields["experienceLevel"] = string(*req.ExperienceLevel)
	}
	if err := validateSalary(req.SalaryMin, req.SalaryMax); err != nil {
		return nil, err
	}

	setString("title", req.Title)
	setString("department", req.Department)
	setString("team", req.Team)
	setString("location", req.Location)
	setString("remoteRegion", req.RemoteRegion)
	setString("salaryCurrency", req.SalaryCurrency)
	setString("benefits", req.Benefits)
	setString("summary", req.Summary)
	setString("description", req.Description)
	setString("education", req.Education)
	setString("certifications", req.Certifications)
	setStrings("requirements", req.Requirements)
	setStrings("responsibilities", req.Responsibilities)
	setStrings("skills", req.Skills)
	setStrings("interviewers", req.Interviewers)
	setStrings("hrManagers", req.HRManagers)
	if req.Remote != nil {
		fields["remote"] = *req.Remote
	}
	if req.ShowSalary != nil {
		fields["showSalary"] = *req.ShowSalary
	}
	if req.SalaryMin != nil {
		fields["salaryMin"] = *req.SalaryMin
	}
	if req.SalaryMax != nil {
		fields["salaryMax"] = *req.SalaryMax
	}
	if req.ExpiresAt != nil {
		fields["expiresAt"] = req.ExpiresAt.UTC()
	}

	return s.update(ctx, id, fields)
}

// UpdateJobStatus accepts any transition. Publishing stamps postedAt and
// closing stamps expiresAt; the other timestamp is left as it was.
func (s *JobService) UpdateJobStatus(ctx context.Context, id string, status models.JobStatus) (*models.Job, error) {
	if !status.Valid() {
		return nil, invalid("status", "unknown status %q", status)
	}
	fields := docstore.Document{
		"status":    string(status),
		"updatedAt": docstore.ServerTimestamp(),
	}
	switch status {
	case models.JobStatusPublished:
		fields["postedAt"] = docstore.ServerTimestamp()
	case models.JobStatusClosed:
		fields["expiresAt"] = docstore.ServerTimestamp()
	}
	return s.update(ctx, id, fields)
}

// IncrementApplicationsCount adds one with the store's atomic increment.
func (s *JobService) IncrementApplicationsCount(ctx context.Context, id string) error {
	err := s.jobs().Update(ctx, id, docstore.Document{"applicationsCount": docstore.Increment(1)})
	if errors.Is(err, docstore.ErrNotFound) {
		return ErrJobNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to increment applications: %w", err)
	}
	return nil
}

func (s *JobService) DeleteJob(ctx context.Context, id string) error {
	if err := s.jobs().Delete(ctx, id); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return ErrJobNotFound
		}
		return fmt.Errorf("failed to delete job: %w", err)
	}
	slog.Info("job deleted", "job_id", id)
	return nil
}

// SearchJobs filters all jobs by a case-insensitive substring of title,
// department or description.
func (s *JobService) SearchJobs(ctx context.Context, term string) ([]models.Job, error) {
	all, err := s.ListJobs(ctx, dto.JobFilter{})
	if err != nil {
		return nil, err
	}
	term = strings.ToLower(strings.TrimSpace(term))
	out := make([]models.Job, 0, len(all))
	for _, j := range all {
		if containsFold(term, j.Title, j.Department, j.Description) {
			out = append(out, j)
		}
	}
	return out, nil
}

func (s *JobService) update(ctx context.Context, id string, fields docstore.Document) (*models.Job, error) {
	if err := s.jobs().Update(ctx, id, fields); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to update job: %w", err)
	}
	slog.Info("job updated", "job_id", id)
	return s.mustGet(ctx, id)
}

func (s *JobService) mustGet(ctx context.Context, id string) (*models.Job, error) {
	job, err := s.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, ErrJobNotFound
	}
	return job, nil
}
