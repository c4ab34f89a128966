package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ahmetcoskunkizilkaya/ats-backend/internal/docstore"
	"github.com/ahmetcoskunkizilkaya/ats-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/ats-backend/internal/identity"
	"github.com/ahmetcoskunkizilkaya/ats-backend/internal/models"
	"github.com/google/uuid"
)

const (
	minRating = 1
	maxRating = 5
)

type ApplicantService struct {
	store docstore.Store
	jobs  *JobService
}

func NewApplicantService(store docstore.Store, jobs *JobService) *ApplicantService {
	return &ApplicantService{store: store, jobs: jobs}
}

func (s *ApplicantService) applicants() docstore.Collection {
	return s.store.Collection(applicantsCollection)
}

// ListApplicants returns matching applicants, most recently applied first.
func (s *ApplicantService) ListApplicants(ctx context.Context, filter dto.ApplicantFilter) ([]models.Applicant, error) {
	q := docstore.Query{OrderBy: []docstore.Order{docstore.Desc("appliedDate")}, Limit: filter.Limit}
	if filter.JobID != "" {
		q.Filters = append(q.Filters, docstore.Eq("jobId", filter.JobID))
	}
	if filter.Status != "" {
		q.Filters = append(q.Filters, docstore.Eq("status", string(filter.Status)))
	}
	if filter.Interviewer != "" {
		q.Filters = append(q.Filters, docstore.Contains("interviewers", filter.Interviewer))
	}

	docs, err := s.applicants().Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list applicants: %w", err)
	}
	return decodeAll(docs, decodeApplicant)
}

// GetApplicant returns nil, nil when the applicant does not exist.
func (s *ApplicantService) GetApplicant(ctx context.Context, id string) (*models.Applicant, error) {
	doc, err := s.applicants().Get(ctx, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get applicant: %w", err)
	}
	return decodeApplicant(doc)
}

// CreateApplicant writes the applicant and then bumps the job's
// applicationsCount in one transaction. If the job does not exist the
// applicant is rolled back and ErrJobNotFound is returned.
func (s *ApplicantService) CreateApplicant(ctx context.Context, req *dto.CreateApplicantRequest) (*models.Applicant, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, invalid("name", "is required")
	}
	if !identity.ValidEmail(req.Email) {
		return nil, invalid("email", "invalid email address")
	}
	if strings.TrimSpace(req.JobID) == "" {
		return nil, invalid("jobId", "is required")
	}
	if req.MatchScore < 0 || req.MatchScore > 100 {
		return nil, invalid("matchScore", "must be between 0 and 100")
	}

	id := uuid.NewString()
	doc := docstore.Document{
		"name":           strings.TrimSpace(req.Name),
		"email":          strings.TrimSpace(req.Email),
		"position":       req.Position,
		"jobId":          req.JobID,
		"status":         string(models.ApplicantStatusNew),
		"stage":          models.ApplicantStatusNew.DefaultStage(),
		"appliedDate":    docstore.ServerTimestamp(),
		"matchScore":     req.MatchScore,
		"hasResume":      req.HasResume,
		"hasCoverLetter": req.HasCoverLetter,
		"hasPortfolio":   req.HasPortfolio,
		"notes":          req.Notes,
		"interviewers":   []string{},
		"feedback":       []any{},
	}

	err := s.store.RunInTransaction(ctx, func(ctx context.Context, tx docstore.Store) error {
		if err := tx.Collection(applicantsCollection).Create(ctx, id, doc); err != nil {
			return fmt.Errorf("failed to create applicant: %w", err)
		}
		return s.jobs.in(tx).IncrementApplicationsCount(ctx, req.JobID)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("applicant created", "applicant_id", id, "job_id", req.JobID)
	return s.mustGet(ctx, id)
}

func (s *ApplicantService) UpdateApplicant(ctx context.Context, id string, req *dto.UpdateApplicantRequest) (*models.Applicant, error) {
	fields := docstore.Document{}
	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, invalid("name", "must not be empty")
		}
		fields["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		if !identity.ValidEmail(*req.Email) {
			return nil, invalid("email", "invalid email address")
		}
		fields["email"] = strings.TrimSpace(*req.Email)
	}
	if req.Position != nil {
		fields["position"] = *req.Position
	}
	if req.MatchScore != nil {
		if *req.MatchScore < 0 || *req.MatchScore > 100 {
			return nil, invalid("matchScore", "must be between 0 and 100")
		}
		fields["matchScore"] = *req.MatchScore
	}
	if req.HasResume != nil {
		fields["hasResume"] = *req.HasResume
	}
	if req.HasCoverLetter != nil {
		fields["hasCoverLetter"] = *req.HasCoverLetter
	}
	if req.HasPortfolio != nil {
		fields["hasPortfolio"] = *req.HasPortfolio
	}
	if req.Notes != nil {
		fields["notes"] = *req.Notes
	}
	if req.Interviewers != nil {
		fields["interviewers"] = stringsOrEmpty(*req.Interviewers)
	}
	if req.HRManager != nil {
		fields["hrManager"] = *req.HRManager
	}
	return s.update(ctx, id, fields)
}

// UpdateApplicantStatus sets status and stage. An empty stage falls back to
// the status label.
func (s *ApplicantService) UpdateApplicantStatus(ctx context.Context, id string, status models.ApplicantStatus, stage string) (*models.Applicant, error) {
	if !status.Valid() {
		return nil, invalid("status", "unknown status %q", status)
	}
	if strings.TrimSpace(stage) == "" {
		stage = status.DefaultStage()
	}
	return s.update(ctx, id, docstore.Document{"status": string(status), "stage": stage})
}

// AddInterviewFeedback appends one entry with the store's atomic array
// append, so concurrent submissions are all kept.
func (s *ApplicantService) AddInterviewFeedback(ctx context.Context, id string, req dto.FeedbackRequest) error {
	if strings.TrimSpace(req.InterviewerID) == "" {
		return invalid("interviewerId", "is required")
	}
	if req.Rating < minRating || req.Rating > maxRating {
		return invalid("rating", "must be between %d and %d", minRating, maxRating)
	}

	entry := docstore.Document{
		"interviewerId": req.InterviewerID,
		"rating":        req.Rating,
		"comments":      req.Comments,
		"createdAt":     docstore.ServerTimestamp(),
	}
	err := s.applicants().Update(ctx, id, docstore.Document{"feedback": docstore.ArrayAppend(entry)})
	if errors.Is(err, docstore.ErrNotFound) {
		return ErrApplicantNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to add feedback: %w", err)
	}

	slog.Info("feedback added", "applicant_id", id, "interviewer_id", req.InterviewerID)
	return nil
}

// DeleteApplicant removes the record. The job's applicationsCount is not
// decremented; it counts applications received.
func (s *ApplicantService) DeleteApplicant(ctx context.Context, id string) error {
	if err := s.applicants().Delete(ctx, id); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return ErrApplicantNotFound
		}
		return fmt.Errorf("failed to delete applicant: %w", err)
	}
	slog.Info("applicant deleted", "applicant_id", id)
	return nil
}

func (s *ApplicantService) SearchApplicants(ctx context.Context, term string) ([]models.Applicant, error) {
	all, err := s.ListApplicants(ctx, dto.ApplicantFilter{})
	if err != nil {
		return nil, err
	}
	term = strings.ToLower(strings.TrimSpace(term))
	out := make([]models.Applicant, 0, len(all))
	for _, a := range all {
		if containsFold(term, a.Name, a.Email, a.Position) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *ApplicantService) update(ctx context.Context, id string, fields docstore.Document) (*models.Applicant, error) {
	if err := s.applicants().Update(ctx, id, fields); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrApplicantNotFound
		}
		return nil, fmt.Errorf("failed to update applicant: %w", err)
	}
	slog.Info("applicant updated", "applicant_id", id)
	return s.mustGet(ctx, id)
}

func (s *ApplicantService) mustGet(ctx context.Context, id string) (*models.Applicant, error) {
	a, err := s.GetApplicant(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrApplicantNotFound
	}
	return a, nil
}
