package models

import "time"

type Role string

const (
	RoleAdmin       Role = "admin"
	RoleHRManager   Role = "hr_manager"
	RoleInterviewer Role = "interviewer"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleHRManager, RoleInterviewer:
		return true
	}
	return false
}

// Rank orders roles by authority; unknown roles rank lowest.
func (r Role) Rank() int {
	switch r {
	case RoleAdmin:
		return 3
	case RoleHRManager:
		return 2
	case RoleInterviewer:
		return 1
	}
	return 0
}

type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusInactive UserStatus = "inactive"
)

func (s UserStatus) Valid() bool {
	return s == UserStatusActive || s == UserStatusInactive
}

// Permissions is always derived from Role; it is never edited on its own.
type Permissions struct {
	CanViewUsers         bool `json:"canViewUsers"`
	CanEditUsers         bool `json:"canEditUsers"`
	CanDeleteUsers       bool `json:"canDeleteUsers"`
	CanCreateUsers       bool `json:"canCreateUsers"`
	CanViewDepartments   bool `json:"canViewDepartments"`
	CanEditDepartments   bool `json:"canEditDepartments"`
	CanDeleteDepartments bool `json:"canDeleteDepartments"`
	CanCreateDepartments bool `json:"canCreateDepartments"`
}

// User is a staff member of the hiring team. ID matches the identity provider id.
type User struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Email       string      `json:"email"`
	Role        Role        `json:"role"`
	Department  string      `json:"department"`
	Status      UserStatus  `json:"status"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
	LastActive  *time.Time  `json:"lastActive,omitempty"`
	Permissions Permissions `json:"permissions"`
}
