package dto

import "github.com/ahmetcoskunkizilkaya/ats-backend/internal/models"

// CreateUserRequest has no permissions field; they are derived from Role.
type CreateUserRequest struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Email      string            `json:"email"`
	Role       models.Role       `json:"role"`
	Department string            `json:"department"`
	Status     models.UserStatus `json:"status"`
}

// InviteUserRequest creates the identity account and the user record together.
type InviteUserRequest struct {
	Name       string      `json:"name"`
	Email      string      `json:"email"`
	Password   string      `json:"password"`
	Role       models.Role `json:"role"`
	Department string      `json:"department"`
}

// UpdateUserRequest fields left nil are not touched.
type UpdateUserRequest struct {
	Name       *string            `json:"name"`
	Email      *string            `json:"email"`
	Role       *models.Role       `json:"role"`
	Department *string            `json:"department"`
	Status     *models.UserStatus `json:"status"`
}

type UserFilter struct {
	Role       models.Role       `query:"role"`
	Status     models.UserStatus `query:"status"`
	Department string            `query:"department"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}
