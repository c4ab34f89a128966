package services

import (
	"fmt"
	"strings"

	"github.com/ahmetcoskunkizilkaya/ats-backend/internal/docstore"
	"github.com/ahmetcoskunkizilkaya/ats-backend/internal/models"
)

const (
	usersCollection       = "users"
	jobsCollection        = "jobs"
	applicantsCollection  = "applicants"
	departmentsCollection = "departments"
)

func permissionsDoc(p models.Permissions) docstore.Document {
	return docstore.Document{
		"canViewUsers":         p.CanViewUsers,
		"canEditUsers":         p.CanEditUsers,
		"canDeleteUsers":       p.CanDeleteUsers,
		"canCreateUsers":       p.CanCreateUsers,
		"canViewDepartments":   p.CanViewDepartments,
		"canEditDepartments":   p.CanEditDepartments,
		"canDeleteDepartments": p.CanDeleteDepartments,
		"canCreateDepartments": p.CanCreateDepartments,
	}
}

func decodeUser(doc docstore.Document) (*models.User, error) {
	d := docstore.NewDecoder(doc)
	p := d.Object("permissions")
	u := &models.User{
		ID:         d.RequiredString(docstore.IDField),
		Name:       d.String("name"),
		Email:      d.String("email"),
		Role:       models.Role(d.String("role")),
		Department: d.String("department"),
		Status:     models.UserStatus(d.String("status")),
		CreatedAt:  d.Time("createdAt"),
		UpdatedAt:  d.Time("updatedAt"),
		LastActive: d.OptionalTime("lastActive"),
		Permissions: models.Permissions{
			CanViewUsers:         p.Bool("canViewUsers"),
			CanEditUsers:         p.Bool("canEditUsers"),
			CanDeleteUsers:       p.Bool("canDeleteUsers"),
			CanCreateUsers:       p.Bool("canCreateUsers"),
			CanViewDepartments:   p.Bool("canViewDepartments"),
			CanEditDepartments:   p.Bool("canEditDepartments"),
			CanDeleteDepartments: p.Bool("canDeleteDepartments"),
			CanCreateDepartments: p.Bool("canCreateDepartments"),
		},
	}
	if err := d.Err(); err != nil {
		return nil, fmt.Errorf("decode user %v: %w", doc[docstore.IDField], err)
	}
	return u, nil
}

func decodeJob(doc docstore.Document) (*models.Job, error) {
	d := docstore.NewDecoder(doc)
	j := &models.Job{
		ID:                d.RequiredString(docstore.IDField),
		Title:             d.String("title"),
		Department:        d.String("department"),
		Team:              d.String("team"),
		EmploymentType:    models.EmploymentType(d.String("employmentType")),
		ExperienceLevel:   models.ExperienceLevel(d.String("experienceLevel")),
		Location:          d.String("location"),
		Remote:            d.Bool("remote"),
		RemoteRegion:      d.String("remoteRegion"),
		SalaryMin:         d.OptionalFloat("salaryMin"),
		SalaryMax:         d.OptionalFloat("salaryMax"),
		SalaryCurrency:    d.String("salaryCurrency"),
		ShowSalary:        d.Bool("showSalary"),
		Benefits:          d.String("benefits"),
		Summary:           d.String("summary"),
		Description:       d.String("description"),
		Requirements:      d.Strings("requirements"),
		Responsibilities:  d.Strings("responsibilities"),
		Skills:            d.Strings("skills"),
		Education:         d.String("education"),
		Certifications:    d.String("certifications"),
		Status:            models.JobStatus(d.String("status")),
		CreatedAt:         d.Time("createdAt"),
		UpdatedAt:         d.Time("updatedAt"),
		PostedAt:          d.OptionalTime("postedAt"),
		ExpiresAt:         d.OptionalTime("expiresAt"),
		CreatedBy:         d.String("createdBy"),
		Interviewers:      d.Strings("interviewers"),
		HRManagers:        d.Strings("hrManagers"),
		ApplicationsCount: d.Int("applicationsCount"),
	}
	if err := d.Err(); err != nil {
		return nil, fmt.Errorf("decode job %v: %w", doc[docstore.IDField], err)
	}
	return j, nil
}

func decodeApplicant(doc docstore.Document) (*models.Applicant, error) {
	d := docstore.NewDecoder(doc)
	a := &models.Applicant{
		ID:             d.RequiredString(docstore.IDField),
		Name:           d.String("name"),
		Email:          d.String("email"),
		Position:       d.String("position"),
		JobID:          d.String("jobId"),
		Status:         models.ApplicantStatus(d.String("status")),
		Stage:          d.String("stage"),
		AppliedDate:    d.Time("appliedDate"),
		MatchScore:     d.Int("matchScore"),
		HasResume:      d.Bool("hasResume"),
		HasCoverLetter: d.Bool("hasCoverLetter"),
		HasPortfolio:   d.Bool("hasPortfolio"),
		Notes:          d.String("notes"),
		Interviewers:   d.Strings("interviewers"),
		HRManager:      d.String("hrManager"),
		Feedback:       []models.Feedback{},
	}
	for _, f := range d.Objects("feedback") {
		a.Feedback = append(a.Feedback, models.Feedback{
			InterviewerID: f.String("interviewerId"),
			Rating:        f.Float("rating"),
			Comments:      f.String("comments"),
			CreatedAt:     f.Time("createdAt"),
		})
	}
	if err := d.Err(); err != nil {
		return nil, fmt.Errorf("decode applicant %v: %w", doc[docstore.IDField], err)
	}
	return a, nil
}

func decodeDepartment(doc docstore.Document) (*models.Department, error) {
	d := docstore.NewDecoder(doc)
	dep := &models.Department{
		ID:     d.RequiredString(docstore.IDField),
		Name:   d.String("name"),
		Fields: d.Extra("name"),
	}
	if err := d.Err(); err != nil {
		return nil, fmt.Errorf("decode department %v: %w", doc[docstore.IDField], err)
	}
	return dep, nil
}

func decodeAll[T any](docs []docstore.Document, decode func(docstore.Document) (*T, error)) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		v, err := decode(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, nil
}

func containsFold(term string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

func stringsOrEmpty(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
