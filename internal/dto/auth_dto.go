package dto

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/ats-backend/internal/identity"
	"github.com/ahmetcoskunkizilkaya/ats-backend/internal/models"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	AccessToken string       `json:"access_token"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        *models.User `json:"user,omitempty"`
}

type MeResponse struct {
	Identity identity.Identity `json:"identity"`
	User     *models.User      `json:"user,omitempty"`
}

type RedirectResponse struct {
	Authenticated bool   `json:"authenticated"`
	Redirect      bool   `json:"redirect"`
	Target        string `json:"target,omitempty"`
}

// ErrorResponse carries Code for identity-provider failures so clients can
// show a specific message.
type ErrorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Store     string `json:"store"`
}
