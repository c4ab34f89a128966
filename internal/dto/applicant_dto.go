package dto

import "github.com/ahmetcoskunkizilkaya/ats-backend/internal/models"

type CreateApplicantRequest struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Position       string `json:"position"`
	JobID          string `json:"jobId"`
	MatchScore     int64  `json:"matchScore"`
	HasResume      bool   `json:"hasResume"`
	HasCoverLetter bool   `json:"hasCoverLetter"`
	HasPortfolio   bool   `json:"hasPortfolio"`
	Notes          string `json:"notes"`
}

// ApplicationRequest is what an anonymous candidate may submit. Scoring,
// notes and assignments stay with recruiters.
type ApplicationRequest struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Position       string `json:"position"`
	HasResume      bool   `json:"hasResume"`
	HasCoverLetter bool   `json:"hasCoverLetter"`
	HasPortfolio   bool   `json:"hasPortfolio"`
}

type UpdateApplicantRequest struct {
	Name           *string   `json:"name"`
	Email          *string   `json:"email"`
	Position       *string   `json:"position"`
	MatchScore     *int64    `json:"matchScore"`
	HasResume      *bool     `json:"hasResume"`
	HasCoverLetter *bool     `json:"hasCoverLetter"`
	HasPortfolio   *bool     `json:"hasPortfolio"`
	Notes          *string   `json:"notes"`
	Interviewers   *[]string `json:"interviewers"`
	HRManager      *string   `json:"hrManager"`
}

// UpdateApplicantStatusRequest.Stage defaults to the status label when empty.
type UpdateApplicantStatusRequest struct {
	Status models.ApplicantStatus `json:"status"`
	Stage  string                 `json:"stage"`
}

type FeedbackRequest struct {
	InterviewerID string  `json:"interviewerId"`
	Rating        float64 `json:"rating"`
	Comments      string  `json:"comments"`
}

type ApplicantFilter struct {
	JobID       string                 `query:"jobId"`
	Status      models.ApplicantStatus `query:"status"`
	Interviewer string                 `query:"interviewer"`
	Limit       int                    `query:"limit"`
}

type SearchQuery struct {
	Q string `query:"q"`
}
