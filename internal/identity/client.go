package identity

import (
	"context"
	"sync"
)

// Client is one caller's view of the provider: it holds the signed-in
// identity and notifies subscribers whenever it changes.
type Client struct {
	svc *Service

	mu        sync.Mutex
	current   *Identity
	token     string
	listeners map[int]func(*Identity)
	nextID    int
}

func NewClient(svc *Service) *Client {
	return &Client{svc: svc, listeners: make(map[int]func(*Identity))}
}

func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Identity, error) {
	grant, err := c.svc.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, err
	}
	id := grant.Identity
	c.setState(&id, grant.AccessToken)
	return &id, nil
}

func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()

	if token != "" {
		if err := c.svc.Revoke(ctx, token); err != nil {
			return err
		}
	}
	c.setState(nil, "")
	return nil
}

// CreateAccount registers a new account without changing who is signed in.
func (c *Client) CreateAccount(ctx context.Context, email, password string) (*Identity, error) {
	return c.svc.CreateAccount(ctx, email, password)
}

// OnStateChange registers fn and immediately calls it with the current
// identity (nil when signed out). The returned func unsubscribes.
func (c *Client) OnStateChange(fn func(*Identity)) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	current := c.current
	c.mu.Unlock()

	fn(current)

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.listeners, id)
			c.mu.Unlock()
		})
	}
}

func (c *Client) Current() *Identity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Token is the access token of the signed-in identity, or "".
func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

func (c *Client) setState(id *Identity, token string) {
	c.mu.Lock()
	c.current = id
	c.token = token
	fns := make([]func(*Identity), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(id)
	}
}
