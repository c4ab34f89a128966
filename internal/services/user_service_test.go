package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/ahmetcoskunkizilkaya/ats-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/ats-backend/internal/identity"
	"github.com/ahmetcoskunkizilkaya/ats-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/ats-backend/internal/permissions"
)

func TestCreateUserDerivesPermissions(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore()
	svc := NewUserService(store, nil)

	for i, role := range []models.Role{models.RoleAdmin, models.RoleHRManager, models.RoleInterviewer} {
		user, err := svc.CreateUser(ctx, &dto.CreateUserRequest{
			ID:    string(rune('a' + i)),
			Name:  "User " + string(role),
			Email: string(role) + "@example.com",
			Role:  role,
		})
		if err != nil {
			t.Fatalf("create %s: %v", role, err)
		}
		want, _ := permissions.Derive(role)
		if user.Permissions != want {
			t.Fatalf("role %s: got %+v, want %+v", role, user.Permissions, want)
		}
		if user.Status != models.UserStatusActive {
			t.Fatalf("expected default status active, got %q", user.Status)
		}
		if user.CreatedAt.IsZero() || !user.CreatedAt.Equal(user.UpdatedAt) {
			t.Fatalf("expected both timestamps from one server write, got %v / %v", user.CreatedAt, user.UpdatedAt)
		}
	}
}

func TestRoleChangeReplacesPermissions(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore()
	svc := NewUserService(store, nil)

	user, err := svc.CreateUser(ctx, &dto.CreateUserRequest{ID: "u1", Name: "Ivy", Email: "ivy@example.com", Role: models.RoleInterviewer})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if user.Permissions.CanViewUsers || user.Permissions.CanEditDepartments {
		t.Fatalf("interviewer should have no user or department rights: %+v", user.Permissions)
	}

	admin := models.RoleAdmin
	updated, err := svc.UpdateUser(ctx, "u1", &dto.UpdateUserRequest{Role: &admin})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.Permissions.CanViewUsers || !updated.Permissions.CanDeleteDepartments {
		t.Fatalf("admin permissions not applied: %+v", updated.Permissions)
	}
	if !updated.UpdatedAt.After(user.UpdatedAt) {
		t.Fatalf("updatedAt not refreshed")
	}

	hr := models.RoleHRManager
	updated, err = svc.UpdateUser(ctx, "u1", &dto.UpdateUserRequest{Role: &hr})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Permissions.CanDeleteUsers || updated.Permissions.CanDeleteDepartments {
		t.Fatalf("permissions must be replaced, not merged: %+v", updated.Permissions)
	}
}

func TestCreateUserValidation(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore()
	svc := NewUserService(store, nil)

	_, err := svc.CreateUser(ctx, &dto.CreateUserRequest{ID: "u1", Name: "Ivy", Email: "ivy@example.com", Role: "owner"})
	if !errors.Is(err, ErrValidation) || !errors.Is(err, permissions.ErrUnknownRole) {
		t.Fatalf("expected validation error for unknown role, got %v", err)
	}
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "role" {
		t.Fatalf("expected role field error, got %v", err)
	}

	if _, err := svc.CreateUser(ctx, &dto.CreateUserRequest{ID: "u1", Name: "Ivy", Email: "nope", Role: models.RoleAdmin}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for email, got %v", err)
	}
	if got, _ := svc.GetUser(ctx, "u1"); got != nil {
		t.Fatalf("nothing should be written on validation failure")
	}

	if _, err := svc.CreateUser(ctx, &dto.CreateUserRequest{ID: "u1", Name: "Ivy", Email: "ivy@example.com", Role: models.RoleAdmin}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.CreateUser(ctx, &dto.CreateUserRequest{ID: "u1", Name: "Other", Email: "o@example.com", Role: models.RoleAdmin}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	bad := models.Role("root")
	if _, err := svc.UpdateUser(ctx, "u1", &dto.UpdateUserRequest{Role: &bad}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error on update, got %v", err)
	}
	user, _ := svc.GetUser(ctx, "u1")
	if user.Role != models.RoleAdmin {
		t.Fatalf("role must be unchanged after rejected update, got %q", user.Role)
	}
}

func TestGetUserMissingReturnsNil(t *testing.T) {
	store, _ := newStore()
	user, err := NewUserService(store, nil).GetUser(context.Background(), "nonexistent-id")
	if err != nil || user != nil {
		t.Fatalf("expected nil, nil; got %v, %v", user, err)
	}
}

func TestUserWritesOnMissingID(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore()
	svc := NewUserService(store, nil)

	name := "Ghost"
	if _, err := svc.UpdateUser(ctx, "ghost", &dto.UpdateUserRequest{Name: &name}); !errors.Is(err, ErrUserNotFound) || !errors.Is(err, ErrNotFound) {
		t.Fatalf("update: expected ErrUserNotFound, got %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, "ghost", models.UserStatusInactive); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("status: expected ErrUserNotFound, got %v", err)
	}
	if err := svc.DeleteUser(ctx, "ghost"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("delete: expected ErrUserNotFound, got %v", err)
	}
	if err := svc.TouchLastActive(ctx, "ghost"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("touch: expected ErrUserNotFound, got %v", err)
	}
}

func seedUsers(t *testing.T, svc *UserService) {
	t.Helper()
	users := []dto.CreateUserRequest{
		{ID: "u1", Name: "Dana", Email: "dana@example.com", Role: models.RoleAdmin, Department: "Operations"},
		{ID: "u2", Name: "Ben", Email: "ben@example.com", Role: models.RoleInterviewer, Department: "Engineering"},
		{ID: "u3", Name: "Cara", Email: "cara@example.com", Role: models.RoleHRManager, Department: "People"},
		{ID: "u4", Name: "Abe", Email: "abe@example.com", Role: models.RoleInterviewer, Department: "Sales", Status: models.UserStatusInactive},
		{ID: "u5", Name: "Eve", Email: "eve@example.com", Role: models.RoleInterviewer, Department: "Marketing"},
	}
	for i := range users {
		if _, err := svc.CreateUser(context.Background(), &users[i]); err != nil {
			t.Fatalf("seed %s: %v", users[i].ID, err)
		}
	}
}

func TestListUsersFiltersAndOrder(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore()
	svc := NewUserService(store, nil)
	seedUsers(t, svc)

	all, err := svc.ListUsers(ctx, dto.UserFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 5 || all[0].Name != "Abe" || all[4].Name != "Eve" {
		t.Fatalf("expected 5 users ordered by name, got %v", all)
	}

	active, err := svc.ListUsers(ctx, dto.UserFilter{Role: models.RoleInterviewer, Status: models.UserStatusActive})
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	if len(active) != 2 || active[0].ID != "u2" || active[1].ID != "u5" {
		t.Fatalf("unexpected filtered result: %v", active)
	}

	none, err := svc.ListUsers(ctx, dto.UserFilter{Department: "Legal"})
	if err != nil || none == nil || len(none) != 0 {
		t.Fatalf("expected empty non-nil result, got %v, %v", none, err)
	}
}

func TestSearchUsers(t *testing.T) {
	store, _ := newStore()
	svc := NewUserService(store, nil)
	seedUsers(t, svc)

	got, err := svc.SearchUsers(context.Background(), "eng")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 1 || got[0].Department != "Engineering" {
		t.Fatalf("expected only the Engineering user, got %v", got)
	}

	got, _ = svc.SearchUsers(context.Background(), "EXAMPLE.COM")
	if len(got) != 5 {
		t.Fatalf("search should be case-insensitive over email, got %d", len(got))
	}
}

func TestTouchLastActive(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore()
	svc := NewUserService(store, nil)
	if _, err := svc.CreateUser(ctx, &dto.CreateUserRequest{ID: "u1", Name: "Ivy", Email: "ivy@example.com", Role: models.RoleAdmin}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.TouchLastActive(ctx, "u1"); err != nil {
		t.Fatalf("touch: %v", err)
	}
	user, _ := svc.GetUser(ctx, "u1")
	if user.LastActive == nil || !user.LastActive.After(user.CreatedAt) {
		t.Fatalf("expected lastActive after createdAt, got %v", user.LastActive)
	}
}

type fakeAccounts struct {
	mu      sync.Mutex
	id      string
	deleted []string
}

func (f *fakeAccounts) CreateAccount(_ context.Context, email, _ string) (*identity.Identity, error) {
	return &identity.Identity{ID: f.id, Email: email}, nil
}

func (f *fakeAccounts) DeleteAccount(_ context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, email)
	return nil
}

func TestInviteUser(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore()
	accounts := identity.NewService(store, identity.Options{Secret: "s", HashCost: 4}, nil)
	svc := NewUserService(store, accounts)

	user, err := svc.InviteUser(ctx, &dto.InviteUserRequest{
		Name: "Nia", Email: "nia@example.com", Password: "password123", Role: models.RoleHRManager, Department: "People",
	})
	if err != nil {
		t.Fatalf("invite: %v", err)
	}
	account, err := accounts.Lookup(ctx, "nia@example.com")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if account.ID != user.ID {
		t.Fatalf("user id %q must match identity id %q", user.ID, account.ID)
	}

	_, err = svc.InviteUser(ctx, &dto.InviteUserRequest{Name: "Nia", Email: "nia@example.com", Password: "password123", Role: models.RoleAdmin})
	if identity.Code(err) != "auth/email-already-in-use" {
		t.Fatalf("expected email-in-use code, got %v", err)
	}

	if _, err := svc.InviteUser(ctx, &dto.InviteUserRequest{Name: "X", Email: "x@example.com", Password: "password123", Role: "boss"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected role validation before account creation, got %v", err)
	}
	if _, err := accounts.Lookup(ctx, "x@example.com"); !errors.Is(err, identity.ErrAccountNotFound) {
		t.Fatalf("no account should exist after rejected invite, got %v", err)
	}
}

func TestInviteUserRollsBackAccount(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore()
	fake := &fakeAccounts{id: "taken"}
	svc := NewUserService(store, fake)
	if _, err := svc.CreateUser(ctx, &dto.CreateUserRequest{ID: "taken", Name: "Old", Email: "old@example.com", Role: models.RoleAdmin}); err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err := svc.InviteUser(ctx, &dto.InviteUserRequest{Name: "New", Email: "new@example.com", Password: "password123", Role: models.RoleAdmin})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if len(fake.deleted) != 1 || fake.deleted[0] != "new@example.com" {
		t.Fatalf("expected account rollback, got %v", fake.deleted)
	}
}

func TestUpdateUserKeepsEmailFixed(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore()
	svc := NewUserService(store, nil)
	if _, err := svc.CreateUser(ctx, &dto.CreateUserRequest{ID: "u1", Name: "Ivy", Email: "ivy@example.com", Role: models.RoleInterviewer}); err != nil {
		t.Fatalf("create: %v", err)
	}

	moved := "ivy@elsewhere.com"
	if _, err := svc.UpdateUser(ctx, "u1", &dto.UpdateUserRequest{Email: &moved}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error on email change, got %v", err)
	}
	got, _ := svc.GetUser(ctx, "u1")
	if got.Email != "ivy@example.com" {
		t.Fatalf("email must be unchanged, got %q", got.Email)
	}

	same := " IVY@example.com "
	name := "Ivy Q"
	updated, err := svc.UpdateUser(ctx, "u1", &dto.UpdateUserRequest{Email: &same, Name: &name})
	if err != nil {
		t.Fatalf("same email should be accepted: %v", err)
	}
	if updated.Name != "Ivy Q" || updated.Email != "ivy@example.com" {
		t.Fatalf("unexpected update: %+v", updated)
	}
}
