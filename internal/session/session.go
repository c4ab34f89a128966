// Package session tracks who is signed in for one client and decides where
// that client should be sent when its identity or route changes.
package session

import (
	"context"
	"strings"
	"sync"

	"github.com/ahmetcoskunkizilkaya/ats-backend/internal/identity"
)

// Provider is the identity-provider boundary the session depends on.
type Provider interface {
	SignInWithPassword(ctx context.Context, email, password string) (*identity.Identity, error)
	SignOut(ctx context.Context) error
	// OnStateChange calls fn with the current identity right away and on
	// every later change. The returned func unsubscribes.
	OnStateChange(fn func(*identity.Identity)) func()
	CreateAccount(ctx context.Context, email, password string) (*identity.Identity, error)
}

// Routes lists route prefixes by audience.
type Routes struct {
	// AuthOnly routes are for signed-out callers (sign-in, sign-up).
	AuthOnly []string
	Protected []string
	Home      string
	SignIn    string
}

func DefaultRoutes() Routes {
	return Routes{
		AuthOnly:  []string{"/auth"},
		Protected: []string{"/dashboard"},
		Home:      "/dashboard",
		SignIn:    "/auth/login",
	}
}

// Decide returns the redirect target for a caller on route, and false when
// the caller may stay where they are.
func Decide(routes Routes, authenticated bool, route string) (string, bool) {
	if authenticated && hasPrefix(route, routes.AuthOnly) {
		return routes.Home, true
	}
	if !authenticated && hasPrefix(route, routes.Protected) {
		return routes.SignIn, true
	}
	return "", false
}

// Redirect is Decide over DefaultRoutes.
func Redirect(authenticated bool, route string) (string, bool) {
	return Decide(DefaultRoutes(), authenticated, route)
}

func hasPrefix(route string, prefixes []string) bool {
	for _, p := range prefixes {
		if route == p || strings.HasPrefix(route, strings.TrimSuffix(p, "/")+"/") {
			return true
		}
	}
	return false
}

type State int

const (
	Loading State = iota
	Settled
)

func (s State) String() string {
	if s == Settled {
		return "settled"
	}
	return "loading"
}

type Navigator interface {
	Navigate(target string)
}

type NavigatorFunc func(target string)

func (f NavigatorFunc) Navigate(target string) { f(target) }

type Option func(*Session)

func WithRoutes(r Routes) Option {
	return func(s *Session) { s.routes = r }
}

func WithRoute(route string) Option {
	return func(s *Session) { s.route = route }
}

// Session is an explicit replacement for a global auth context. Create one
// per client and pass it to whatever needs the current identity.
type Session struct {
	provider Provider
	nav      Navigator
	routes   Routes

	mu      sync.Mutex
	current *identity.Identity
	state   State
	route   string

	unsubscribe func()
}

func New(provider Provider, nav Navigator, opts ...Option) *Session {
	s := &Session{provider: provider, nav: nav, routes: DefaultRoutes()}
	for _, opt := range opts {
		opt(s)
	}
	s.unsubscribe = provider.OnStateChange(s.onChange)
	return s
}

func (s *Session) onChange(id *identity.Identity) {
	s.mu.Lock()
	s.current = id
	s.state = Settled
	route := s.route
	s.mu.Unlock()

	s.navigate(id != nil, route)
}

func (s *Session) navigate(authenticated bool, route string) {
	if s.nav == nil {
		return
	}
	if target, ok := Decide(s.routes, authenticated, route); ok {
		s.nav.Navigate(target)
	}
}

func (s *Session) Current() *identity.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) SignIn(ctx context.Context, email, password string) (*identity.Identity, error) {
	return s.provider.SignInWithPassword(ctx, email, password)
}

func (s *Session) SignOut(ctx context.Context) error {
	return s.provider.SignOut(ctx)
}

// SetRoute records the client's route and redirects it if needed. Nothing
// is decided while the session is still loading.
func (s *Session) SetRoute(route string) {
	s.mu.Lock()
	s.route = route
	settled := s.state == Settled
	authenticated := s.current != nil
	s.mu.Unlock()

	if settled {
		s.navigate(authenticated, route)
	}
}

func (s *Session) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}
