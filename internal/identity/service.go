// Package identity is the local identity provider: password accounts,
// signed access tokens and sign-out revocation.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/ats-backend/internal/docstore"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	AccountsCollection = "accounts"
	MinPasswordLength  = 8
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail reports whether s looks like a deliverable address.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(strings.TrimSpace(s))
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Identity is what the provider knows about a signed-in caller.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type Grant struct {
	Identity    Identity
	AccessToken string
	ExpiresAt   time.Time
}

type Claims struct {
	Identity
	TokenID   string
	ExpiresAt time.Time
}

type Options struct {
	Secret   string
	TokenTTL time.Duration
	// HashCost defaults to bcrypt.DefaultCost.
	HashCost int
}

type Service struct {
	accounts docstore.Collection
	secret   []byte
	ttl      time.Duration
	cost     int
	revoker  Revoker
	now      func() time.Time
}

func NewService(store docstore.Store, opts Options, revoker Revoker) *Service {
	cost := opts.HashCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	ttl := opts.TokenTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	if revoker == nil {
		revoker = NewMemoryRevoker()
	}
	return &Service{
		accounts: store.Collection(AccountsCollection),
		secret:   []byte(opts.Secret),
		ttl:      ttl,
		cost:     cost,
		revoker:  revoker,
		now:      time.Now,
	}
}

// CreateAccount registers email with password. Accounts are keyed by the
// normalized email, so a second registration fails with ErrEmailInUse.
func (s *Service) CreateAccount(ctx context.Context, email, password string) (*Identity, error) {
	if !ValidEmail(email) {
		return nil, ErrInvalidEmail
	}
	if len(password) < MinPasswordLength {
		return nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	id := Identity{ID: uuid.NewString(), Email: normalizeEmail(email)}
	err = s.accounts.Create(ctx, id.Email, docstore.Document{
		"uid":          id.ID,
		"email":        id.Email,
		"passwordHash": string(hash),
		"createdAt":    docstore.ServerTimestamp(),
	})
	if errors.Is(err, docstore.ErrAlreadyExists) {
		return nil, ErrEmailInUse
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	slog.Info("account created", "user_id", id.ID)
	return &id, nil
}

func (s *Service) Lookup(ctx context.Context, email string) (*Identity, error) {
	id, _, err := s.load(ctx, email)
	if err != nil {
		return nil, err
	}
	return id, nil
}

func (s *Service) load(ctx context.Context, email string) (*Identity, string, error) {
	doc, err := s.accounts.Get(ctx, normalizeEmail(email))
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, "", ErrAccountNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to load account: %w", err)
	}

	dec := docstore.NewDecoder(doc)
	id := &Identity{ID: dec.RequiredString("uid"), Email: dec.RequiredString("email")}
	hash := dec.RequiredString("passwordHash")
	if err := dec.Err(); err != nil {
		return nil, "", fmt.Errorf("account %s: %w", doc[docstore.IDField], err)
	}
	return id, hash, nil
}

func (s *Service) SignInWithPassword(ctx context.Context, email, password string) (*Grant, error) {
	id, hash, err := s.load(ctx, email)
	if errors.Is(err, ErrAccountNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.issue(*id)
}

func (s *Service) issue(id Identity) (*Grant, error) {
	now := s.now()
	expires := now.Add(s.ttl)
	claims := jwt.MapClaims{
		"sub":   id.ID,
		"email": id.Email,
		"jti":   uuid.NewString(),
		"iat":   now.Unix(),
		"exp":   expires.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return &Grant{Identity: id, AccessToken: signed, ExpiresAt: time.Unix(expires.Unix(), 0)}, nil
}

func (s *Service) parse(raw string) (*Claims, error) {
	token, err := jwt.Parse(raw, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, err
	}
	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	sub, _ := mc.GetSubject()
	exp, _ := mc.GetExpirationTime()
	email, _ := mc["email"].(string)
	jti, _ := mc["jti"].(string)
	if sub == "" || jti == "" || exp == nil {
		return nil, ErrInvalidToken
	}
	return &Claims{Identity: Identity{ID: sub, Email: email}, TokenID: jti, ExpiresAt: exp.Time}, nil
}

// Verify checks signature, expiry and revocation.
func (s *Service) Verify(ctx context.Context, raw string) (*Claims, error) {
	claims, err := s.parse(raw)
	if err != nil {
		return nil, ErrInvalidToken
	}
	revoked, err := s.revoker.IsRevoked(ctx, claims.TokenID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Revoke signs a token out. Expired tokens need no revocation.
func (s *Service) Revoke(ctx context.Context, raw string) error {
	claims, err := s.parse(raw)
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil
	}
	if err != nil {
		return ErrInvalidToken
	}
	return s.revoker.Revoke(ctx, claims.TokenID, claims.ExpiresAt.Sub(s.now()))
}

func (s *Service) DeleteAccount(ctx context.Context, email string) error {
	err := s.accounts.Delete(ctx, normalizeEmail(email))
	if errors.Is(err, docstore.ErrNotFound) {
		return ErrAccountNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	return nil
}
