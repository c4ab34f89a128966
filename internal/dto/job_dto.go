package dto

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/ats-backend/internal/models"
)

// CreateJobRequest deliberately has no applicationsCount; new jobs start at 0.
type CreateJobRequest struct {
	Title            string                 `json:"title"`
	Department       string                 `json:"department"`
	Team             string                 `json:"team"`
	EmploymentType   models.EmploymentType  `json:"employmentType"`
	ExperienceLevel  models.ExperienceLevel `json:"experienceLevel"`
	Location         string                 `json:"location"`
	Remote           bool                   `json:"remote"`
	RemoteRegion     string                 `json:"remoteRegion"`
	SalaryMin        *float64               `json:"salaryMin"`
	SalaryMax        *float64               `json:"salaryMax"`
	SalaryCurrency   string                 `json:"salaryCurrency"`
	ShowSalary       bool                   `json:"showSalary"`
	Benefits         string                 `json:"benefits"`
	Summary          string                 `json:"summary"`
	Description      string                 `json:"description"`
	Requirements     []string               `json:"requirements"`
	Responsibilities []string               `json:"responsibilities"`
	Skills           []string               `json:"skills"`
	Education        string                 `json:"education"`
	Certifications   string                 `json:"certifications"`
	Status           models.JobStatus       `json:"status"`
	ExpiresAt        *time.Time             `json:"expiresAt"`
	CreatedBy        string                 `json:"createdBy"`
	Interviewers     []string               `json:"interviewers"`
	HRManagers       []string               `json:"hrManagers"`
}

// UpdateJobRequest is a partial update. Status goes through the status
// endpoint and the counter is never writable.
type UpdateJobRequest struct {
	Title            *string                 `json:"title"`
	Department       *string                 `json:"department"`
	Team             *string                 `json:"team"`
	EmploymentType   *models.EmploymentType  `json:"employmentType"`
	ExperienceLevel  *models.ExperienceLevel `json:"experienceLevel"`
	Location         *string                 `json:"location"`
	Remote           *bool                   `json:"remote"`
	RemoteRegion     *string                 `json:"remoteRegion"`
	SalaryMin        *float64                `json:"salaryMin"`
	SalaryMax        *float64                `json:"salaryMax"`
	SalaryCurrency   *string                 `json:"salaryCurrency"`
	ShowSalary       *bool                   `json:"showSalary"`
	Benefits         *string                 `json:"benefits"`
	Summary          *string                 `json:"summary"`
	Description      *string                 `json:"description"`
	Requirements     *[]string               `json:"requirements"`
	Responsibilities *[]string               `json:"responsibilities"`
	Skills           *[]string               `json:"skills"`
	Education        *string                 `json:"education"`
	Certifications   *string                 `json:"certifications"`
	ExpiresAt        *time.Time              `json:"expiresAt"`
	Interviewers     *[]string               `json:"interviewers"`
	HRManagers       *[]string               `json:"hrManagers"`
}

type JobFilter struct {
	Status      models.JobStatus `query:"status"`
	Department  string           `query:"department"`
	CreatedBy   string           `query:"createdBy"`
	Interviewer string           `query:"interviewer"`
	HRManager   string           `query:"hrManager"`
	Limit       int              `query:"limit"`
}
