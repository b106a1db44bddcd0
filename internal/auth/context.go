// Package auth resolves who is acting: the administrator or a shop. The
// context is created once at process start, passed explicitly to everything
// that needs it, and torn down on logout; it is never ambient global state.
package auth

import (
	"context"
	"sync"

	"pos_client/internal/core"
	"pos_client/internal/datasource"
	"pos_client/pkg/logging"
)

// Context holds the resolved actor for the lifetime of a login
type Context struct {
	sessions datasource.SessionSource
	logger   logging.Logger

	mu      sync.RWMutex
	current *core.Session
}

func NewContext(sessions datasource.SessionSource, logger logging.Logger) *Context {
	return &Context{
		sessions: sessions,
		logger:   logger.WithField("component", "auth"),
	}
}

// Restore loads a previously persisted session, if any. Called once during
// startup before any visibility-gated query runs.
func (c *Context) Restore(ctx context.Context) error {
	session, err := c.sessions.Current(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.current = session
	c.mu.Unlock()

	if session != nil {
		c.logger.Info("Session restored", "shop_id", session.Shop.ID, "email", session.Shop.Email)
	}
	return nil
}

// Login authenticates against the session source and installs the actor.
// Fails with apperrors.ErrInvalidCredentials when rejected.
func (c *Context) Login(ctx context.Context, email, secret string) (*core.Session, error) {
	session, err := c.sessions.Login(ctx, email, secret)
	if err != nil {
		c.logger.Warn("Login rejected", "email", email)
		return nil, err
	}

	c.mu.Lock()
	c.current = session
	c.mu.Unlock()

	c.logger.Info("Login succeeded", "shop_id", session.Shop.ID, "role", session.Shop.Role)
	return session, nil
}

// Logout clears the actor and the persisted session
func (c *Context) Logout(ctx context.Context) error {
	c.mu.Lock()
	c.current = nil
	c.mu.Unlock()

	return c.sessions.Clear(ctx)
}

// CurrentShop returns the acting shop record
func (c *Context) CurrentShop() (core.Shop, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil {
		return core.Shop{}, false
	}
	return c.current.Shop, true
}

// IsAdmin reports whether the actor is the administrator
func (c *Context) IsAdmin() bool {
	shop, ok := c.CurrentShop()
	return ok && shop.IsAdmin()
}

// IsShop reports whether the actor is an ordinary shop
func (c *Context) IsShop() bool {
	shop, ok := c.CurrentShop()
	return ok && !shop.IsAdmin()
}

// IsLoggedIn reports whether any actor is resolved
func (c *Context) IsLoggedIn() bool {
	_, ok := c.CurrentShop()
	return ok
}
