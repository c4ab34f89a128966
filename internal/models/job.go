package models

import "time"

type EmploymentType string

const (
	EmploymentFullTime   EmploymentType = "full-time"
	EmploymentPartTime   EmploymentType = "part-time"
	EmploymentContract   EmploymentType = "contract"
	EmploymentInternship EmploymentType = "internship"
	EmploymentTemporary  EmploymentType = "temporary"
)

func (t EmploymentType) Valid() bool {
	switch t {
	case EmploymentFullTime, EmploymentPartTime, EmploymentContract, EmploymentInternship, EmploymentTemporary:
		return true
	}
	return false
}

type ExperienceLevel string

const (
	ExperienceEntry     ExperienceLevel = "entry"
	ExperienceMid       ExperienceLevel = "mid"
	ExperienceSenior    ExperienceLevel = "senior"
	ExperienceLead      ExperienceLevel = "lead"
	ExperienceExecutive ExperienceLevel = "executive"
)

func (l ExperienceLevel) Valid() bool {
	switch l {
	case ExperienceEntry, ExperienceMid, ExperienceSenior, ExperienceLead, ExperienceExecutive:
		return true
	}
	return false
}

type JobStatus string

const (
	JobStatusDraft     JobStatus = "draft"
	JobStatusPublished JobStatus = "published"
	JobStatusClosed    JobStatus = "closed"
)

func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusDraft, JobStatusPublished, JobStatusClosed:
		return true
	}
	return false
}

// Job is a posting. ApplicationsCount only moves through the atomic increment.
type Job struct {
	ID                string          `json:"id"`
	Title             string          `json:"title"`
	Department        string          `json:"department"`
	Team              string          `json:"team,omitempty"`
	EmploymentType    EmploymentType  `json:"employmentType"`
	ExperienceLevel   ExperienceLevel `json:"experienceLevel"`
	Location          string          `json:"location"`
	Remote            bool            `json:"remote"`
	RemoteRegion      string          `json:"remoteRegion,omitempty"`
	SalaryMin         *float64        `json:"salaryMin,omitempty"`
	SalaryMax         *float64        `json:"salaryMax,omitempty"`
	SalaryCurrency    string          `json:"salaryCurrency,omitempty"`
	ShowSalary        bool            `json:"showSalary"`
	Benefits          string          `json:"benefits,omitempty"`
	Summary           string          `json:"summary,omitempty"`
	Description       string          `json:"description"`
	Requirements      []string        `json:"requirements"`
	Responsibilities  []string        `json:"responsibilities"`
	Skills            []string        `json:"skills"`
	Education         string          `json:"education,omitempty"`
	Certifications    string          `json:"certifications,omitempty"`
	Status            JobStatus       `json:"status"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
	PostedAt          *time.Time      `json:"postedAt,omitempty"`
	ExpiresAt         *time.Time      `json:"expiresAt,omitempty"`
	CreatedBy         string          `json:"createdBy"`
	Interviewers      []string        `json:"interviewers"`
	HRManagers        []string        `json:"hrManagers"`
	ApplicationsCount int64           `json:"applicationsCount"`
}
