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
	"github.com/ahmetcoskunkizilkaya/ats-backend/internal/permissions"
)

// AccountProvider is the part of the identity provider InviteUser needs.
type AccountProvider interface {
	CreateAccount(ctx context.Context, email, password string) (*identity.Identity, error)
	DeleteAccount(ctx context.Context, email string) error
}

type UserService struct {
	users    docstore.Collection
	accounts AccountProvider
}

func NewUserService(store docstore.Store, accounts AccountProvider) *UserService {
	return &UserService{users: store.Collection(usersCollection), accounts: accounts}
}

func (s *UserService) ListUsers(ctx context.Context, filter dto.UserFilter) ([]models.User, error) {
	q := docstore.Query{OrderBy: []docstore.Order{docstore.Asc("name")}}
	if filter.Role != "" {
		q.Filters = append(q.Filters, docstore.Eq("role", string(filter.Role)))
	}
	if filter.Status != "" {
		q.Filters = append(q.Filters, docstore.Eq("status", string(filter.Status)))
	}
	if filter.Department != "" {
		q.Filters = append(q.Filters, docstore.Eq("department", filter.Department))
	}

	docs, err := s.users.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return decodeAll(docs, decodeUser)
}

// GetUser returns nil, nil when the user does not exist.
func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	doc, err := s.users.Get(ctx, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return decodeUser(doc)
}

func (s *UserService) CreateUser(ctx context.Context, req *dto.CreateUserRequest) (*models.User, error) {
	if strings.TrimSpace(req.ID) == "" {
		return nil, invalid("id", "is required")
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, invalid("name", "is required")
	}
	if !identity.ValidEmail(req.Email) {
		return nil, invalid("email", "invalid email address")
	}
	perms, err := derive(req.Role)
	if err != nil {
		return nil, err
	}
	status := req.Status
	if status == "" {
		status = models.UserStatusActive
	}
	if !status.Valid() {
		return nil, invalid("status", "unknown status %q", status)
	}

	err = s.users.Create(ctx, req.ID, docstore.Document{
		"name":        strings.TrimSpace(req.Name),
		"email":       strings.TrimSpace(req.Email),
		"role":        string(req.Role),
		"department":  req.Department,
		"status":      string(status),
		"permissions": permissionsDoc(perms),
		"createdAt":   docstore.ServerTimestamp(),
		"updatedAt":   docstore.ServerTimestamp(),
	})
	if errors.Is(err, docstore.ErrAlreadyExists) {
		return nil, fmt.Errorf("user %s: %w", req.ID, ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("user created", "user_id", req.ID, "role", req.Role)
	return s.mustGet(ctx, req.ID)
}

// InviteUser creates the identity account and the user record under the
// same id. The account is removed again if the record cannot be written.
func (s *UserService) InviteUser(ctx context.Context, req *dto.InviteUserRequest) (*models.User, error) {
	if s.accounts == nil {
		return nil, errors.New("identity provider not configured")
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, invalid("name", "is required")
	}
	if _, err := derive(req.Role); err != nil {
		return nil, err
	}

	account, err := s.accounts.CreateAccount(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.CreateUser(ctx, &dto.CreateUserRequest{
		ID:         account.ID,
		Name:       req.Name,
		Email:      account.Email,
		Role:       req.Role,
		Department: req.Department,
		Status:     models.UserStatusActive,
	})
	if err != nil {
		if delErr := s.accounts.DeleteAccount(ctx, account.Email); delErr != nil {
			slog.Error("failed to roll back invited account", "user_id", account.ID, "error", delErr)
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) UpdateUser(ctx context.Context, id string, req *dto.UpdateUserRequest) (*models.User, error) {
	fields := docstore.Document{"updatedAt": docstore.ServerTimestamp()}
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
		// The email keys the sign-in account, so it stays fixed once set.
		current, err := s.GetUser(ctx, id)
		if err != nil {
			return nil, err
		}
		if current == nil {
			return nil, ErrUserNotFound
		}
		if !strings.EqualFold(strings.TrimSpace(*req.Email), strings.TrimSpace(current.Email)) {
			return nil, invalid("email", "cannot be changed")
		}
	}
	if req.Role != nil {
		perms, err := derive(*req.Role)
		if err != nil {
			return nil, err
		}
		fields["role"] = string(*req.Role)
		fields["permissions"] = permissionsDoc(perms)
	}
	if req.Department != nil {
		fields["department"] = *req.Department
	}
	if req.Status != nil {
		if !req.Status.Valid() {
			return nil, invalid("status", "unknown status %q", *req.Status)
		}
		fields["status"] = string(*req.Status)
	}

	if err := s.users.Update(ctx, id, fields); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	slog.Info("user updated", "user_id", id)
	return s.mustGet(ctx, id)
}

func (s *UserService) UpdateStatus(ctx context.Context, id string, status models.UserStatus) (*models.User, error) {
	return s.UpdateUser(ctx, id, &dto.UpdateUserRequest{Status: &status})
}

func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}
	slog.Info("user deleted", "user_id", id)
	return nil
}

// SearchUsers lists every user and filters by a case-insensitive substring
// of name, email or department.
func (s *UserService) SearchUsers(ctx context.Context, term string) ([]models.User, error) {
	all, err := s.ListUsers(ctx, dto.UserFilter{})
	if err != nil {
		return nil, err
	}
	term = strings.ToLower(strings.TrimSpace(term))
	out := make([]models.User, 0, len(all))
	for _, u := range all {
		if containsFold(term, u.Name, u.Email, u.Department) {
			out = append(out, u)
		}
	}
	return out, nil
}

// TouchLastActive stamps lastActive with the store clock.
func (s *UserService) TouchLastActive(ctx context.Context, id string) error {
	err := s.users.Update(ctx, id, docstore.Document{"lastActive": docstore.ServerTimestamp()})
	if errors.Is(err, docstore.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to touch user: %w", err)
	}
	return nil
}

func (s *UserService) mustGet(ctx context.Context, id string) (*models.User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func derive(role models.Role) (models.Permissions, error) {
	perms, err := permissions.Derive(role)
	if err != nil {
		return perms, &ValidationError{Field: "role", Message: fmt.Sprintf("unknown role %q", role), Err: err}
	}
	return perms, nil
}
