package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/ats-backend/internal/docstore"
	"golang.org/x/crypto/bcrypt"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(docstore.NewMemory(), Options{
		Secret:   "test-secret",
		TokenTTL: time.Minute,
		HashCost: bcrypt.MinCost,
	}, NewMemoryRevoker())
}

func TestCreateAccountValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		email    string
		password string
		code     string
	}{
		{"bad email", "not-an-email", "longenough", "auth/invalid-email"},
		{"short password", "ada@example.com", "short", "auth/weak-password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateAccount(ctx, tt.email, tt.password)
			if Code(err) != tt.code {
				t.Fatalf("expected code %s, got %v", tt.code, err)
			}
		})
	}
}

func TestCreateAccountDuplicateEmail(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.CreateAccount(ctx, "Ada@Example.com", "password123"); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err := svc.CreateAccount(ctx, "ada@example.com ", "password456")
	if !errors.Is(err, ErrEmailInUse) {
		t.Fatalf("expected ErrEmailInUse, got %v", err)
	}
	if Code(err) != "auth/email-already-in-use" {
		t.Fatalf("unexpected code %q", Code(err))
	}
}

func TestSignInVerifyRevoke(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateAccount(ctx, "grace@example.com", "password123")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.SignInWithPassword(ctx, "grace@example.com", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.SignInWithPassword(ctx, "nobody@example.com", "password123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown account should look like bad credentials, got %v", err)
	}

	grant, err := svc.SignInWithPassword(ctx, "GRACE@example.com", "password123")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	claims, err := svc.Verify(ctx, grant.AccessToken)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.ID != created.ID || claims.Email != "grace@example.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	if err := svc.Revoke(ctx, grant.AccessToken); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, err := svc.Verify(ctx, grant.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected revoked token to fail, got %v", err)
	}
}

func TestVerifyRejectsExpiredAndForeignTokens(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	if _, err := svc.CreateAccount(ctx, "lin@example.com", "password123"); err != nil {
		t.Fatalf("create: %v", err)
	}
	grant, err := svc.SignInWithPassword(ctx, "lin@example.com", "password123")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}

	other := NewService(docstore.NewMemory(), Options{Secret: "other-secret", HashCost: bcrypt.MinCost}, nil)
	if _, err := other.Verify(ctx, grant.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected foreign signature to fail, got %v", err)
	}

	svc.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	if _, err := svc.Verify(ctx, grant.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired token to fail, got %v", err)
	}
	if err := svc.Revoke(ctx, grant.AccessToken); err != nil {
		t.Fatalf("revoking an expired token should be a no-op, got %v", err)
	}
}

func TestDeleteAccount(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	if _, err := svc.CreateAccount(ctx, "kim@example.com", "password123"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.DeleteAccount(ctx, "kim@example.com"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.DeleteAccount(ctx, "kim@example.com"); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
	if _, err := svc.CreateAccount(ctx, "kim@example.com", "password123"); err != nil {
		t.Fatalf("email should be free again: %v", err)
	}
}

func TestMemoryRevokerExpires(t *testing.T) {
	r := NewMemoryRevoker()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }
	ctx := context.Background()

	if err := r.Revoke(ctx, "t1", time.Minute); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if ok, _ := r.IsRevoked(ctx, "t1"); !ok {
		t.Fatalf("expected t1 revoked")
	}
	now = now.Add(2 * time.Minute)
	if ok, _ := r.IsRevoked(ctx, "t1"); ok {
		t.Fatalf("expected t1 entry to expire")
	}
}
