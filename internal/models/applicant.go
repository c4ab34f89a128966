package models

import "time"

type ApplicantStatus string

const (
	ApplicantStatusNew       ApplicantStatus = "new"
	ApplicantStatusReview    ApplicantStatus = "review"
	ApplicantStatusInterview ApplicantStatus = "interview"
	ApplicantStatusOffer     ApplicantStatus = "offer"
	ApplicantStatusRejected  ApplicantStatus = "rejected"
)

var applicantStages = map[ApplicantStatus]string{
	ApplicantStatusNew:       "New Application",
	ApplicantStatusReview:    "Under Review",
	ApplicantStatusInterview: "Interview",
	ApplicantStatusOffer:     "Offer",
	ApplicantStatusRejected:  "Rejected",
}

func (s ApplicantStatus) Valid() bool {
	_, ok := applicantStages[s]
	return ok
}

// DefaultStage is the stage label shown when a caller does not supply one.
func (s ApplicantStatus) DefaultStage() string {
	return applicantStages[s]
}

// Feedback entries are append-only.
type Feedback struct {
	InterviewerID string    `json:"interviewerId"`
	Rating        float64   `json:"rating"`
	Comments      string    `json:"comments"`
	CreatedAt     time.Time `json:"createdAt"`
}

type Applicant struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Email          string          `json:"email"`
	Position       string          `json:"position"`
	JobID          string          `json:"jobId"`
	Status         ApplicantStatus `json:"status"`
	Stage          string          `json:"stage"`
	AppliedDate    time.Time       `json:"appliedDate"`
	MatchScore     int64           `json:"matchScore"`
	HasResume      bool            `json:"hasResume"`
	HasCoverLetter bool            `json:"hasCoverLetter"`
	HasPortfolio   bool            `json:"hasPortfolio"`
	Notes          string          `json:"notes,omitempty"`
	Interviewers   []string        `json:"interviewers,omitempty"`
	HRManager      string          `json:"hrManager,omitempty"`
	Feedback       []Feedback      `json:"feedback"`
}
