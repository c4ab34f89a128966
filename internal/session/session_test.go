package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/ahmetcoskunkizilkaya/ats-backend/internal/identity"
)

func TestDecide(t *testing.T) {
	tests := []struct {
		name          string
		authenticated bool
		route         string
		want          string
		redirect      bool
	}{
		{"signed in on login", true, "/auth/login", "/dashboard", true},
		{"signed in on auth root", true, "/auth", "/dashboard", true},
		{"signed in on dashboard", true, "/dashboard/jobs", "", false},
		{"signed out on dashboard", false, "/dashboard", "/auth/login", true},
		{"signed out on nested dashboard", false, "/dashboard/applicants/a1", "/auth/login", true},
		{"signed out on login", false, "/auth/login", "", false},
		{"public page", false, "/careers", "", false},
		{"prefix must match a segment", false, "/dashboards", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Redirect(tt.authenticated, tt.route)
			if ok != tt.redirect || got != tt.want {
				t.Fatalf("Redirect(%v, %q) = %q, %v; want %q, %v", tt.authenticated, tt.route, got, ok, tt.want, tt.redirect)
			}
		})
	}
}

type fakeProvider struct {
	mu        sync.Mutex
	current   *identity.Identity
	listeners []func(*identity.Identity)
	deferred  bool
}

func (p *fakeProvider) SignInWithPassword(_ context.Context, email, password string) (*identity.Identity, error) {
	if password != "secret-password" {
		return nil, identity.ErrInvalidCredentials
	}
	id := &identity.Identity{ID: "u1", Email: email}
	p.emit(id)
	return id, nil
}

func (p *fakeProvider) SignOut(context.Context) error {
	p.emit(nil)
	return nil
}

func (p *fakeProvider) CreateAccount(_ context.Context, email, _ string) (*identity.Identity, error) {
	return &identity.Identity{ID: "new", Email: email}, nil
}

func (p *fakeProvider) OnStateChange(fn func(*identity.Identity)) func() {
	p.mu.Lock()
	p.listeners = append(p.listeners, fn)
	idx := len(p.listeners) - 1
	current, deferred := p.current, p.deferred
	p.mu.Unlock()

	if !deferred {
		fn(current)
	}
	return func() {
		p.mu.Lock()
		p.listeners[idx] = nil
		p.mu.Unlock()
	}
}

func (p *fakeProvider) emit(id *identity.Identity) {
	p.mu.Lock()
	p.current = id
	fns := append([]func(*identity.Identity){}, p.listeners...)
	p.mu.Unlock()
	for _, fn := range fns {
		if fn != nil {
			fn(id)
		}
	}
}

type navLog struct {
	mu      sync.Mutex
	targets []string
}

func (n *navLog) Navigate(target string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.targets = append(n.targets, target)
}

func (n *navLog) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.targets...)
}

func TestSessionRedirectsOnStateChange(t *testing.T) {
	ctx := context.Background()
	provider := &fakeProvider{}
	nav := &navLog{}

	s := New(provider, nav, WithRoute("/auth/login"))
	defer s.Close()

	if s.State() != Settled || s.Current() != nil {
		t.Fatalf("expected settled signed-out session")
	}
	if got := nav.all(); len(got) != 0 {
		t.Fatalf("signed out on login should not redirect, got %v", got)
	}

	if _, err := s.SignIn(ctx, "ada@example.com", "secret-password"); err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if s.Current() == nil || s.Current().Email != "ada@example.com" {
		t.Fatalf("expected current identity after sign in")
	}
	if got := nav.all(); len(got) != 1 || got[0] != "/dashboard" {
		t.Fatalf("expected redirect to dashboard, got %v", got)
	}

	s.SetRoute("/dashboard/jobs")
	if err := s.SignOut(ctx); err != nil {
		t.Fatalf("sign out: %v", err)
	}
	if got := nav.all(); len(got) != 2 || got[1] != "/auth/login" {
		t.Fatalf("expected redirect to login, got %v", got)
	}
}

func TestSessionWaitsWhileLoading(t *testing.T) {
	provider := &fakeProvider{deferred: true}
	nav := &navLog{}
	s := New(provider, nav)
	defer s.Close()

	if s.State() != Loading {
		t.Fatalf("expected loading before the first provider callback")
	}
	s.SetRoute("/dashboard")
	if got := nav.all(); len(got) != 0 {
		t.Fatalf("must not redirect while loading, got %v", got)
	}

	provider.emit(nil)
	if s.State() != Settled {
		t.Fatalf("expected settled after first callback")
	}
	if got := nav.all(); len(got) != 1 || got[0] != "/auth/login" {
		t.Fatalf("expected redirect to login once settled, got %v", got)
	}
}

func TestSessionSignInErrorPropagates(t *testing.T) {
	s := New(&fakeProvider{}, NavigatorFunc(func(string) {}))
	defer s.Close()
	_, err := s.SignIn(context.Background(), "ada@example.com", "wrong")
	if !errors.Is(err, identity.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestSessionCloseStopsUpdates(t *testing.T) {
	provider := &fakeProvider{}
	nav := &navLog{}
	s := New(provider, nav, WithRoute("/auth/login"))
	s.Close()

	provider.emit(&identity.Identity{ID: "u1"})
	if s.Current() != nil || len(nav.all()) != 0 {
		t.Fatalf("closed session must ignore provider changes")
	}
}
