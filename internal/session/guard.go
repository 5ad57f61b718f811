// Package session holds the authenticated clinician identity for the
// lifetime of the process and gates access to the protected screens.
package session

import (
	"context"
	"errors"
	"fmt"
)

// ErrAuth marks a rejected or unreachable login/signup. Bad credentials,
// duplicate usernames and network failures are reported as this single
// opaque category; none are retried automatically.
var ErrAuth = errors.New("authentication failed")

// Session is the identity context for the current process. Authenticated is
// true iff Identity is non-empty and was set by a successful login.
type Session struct {
	Identity      string
	Authenticated bool
}

// Authenticator is the remote account service as the guard consumes it.
type Authenticator interface {
	// Login verifies credentials and returns the canonical username.
	Login(ctx context.Context, username, password string) (string, error)
	// Signup creates an account. It does not authenticate.
	Signup(ctx context.Context, username, password string) error
}

// Guard owns the session value. No other component mutates it; consumers
// read it through Current.
type Guard struct {
	auth    Authenticator
	session Session
}

// NewGuard creates a guard with an empty session.
func NewGuard(auth Authenticator) *Guard {
	return &Guard{auth: auth}
}

// Login verifies credentials against the remote account service. On success
// the session identity becomes the username the service returned. On failure
// the session is left untouched.
func (g *Guard) Login(ctx context.Context, username, password string) error {
	identity, err := g.auth.Login(ctx, username, password)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAuth, err)
	}
	g.session = Session{Identity: identity, Authenticated: true}
	return nil
}

// Signup requests account creation. The caller must log in afterwards; a
// successful signup does not touch the session.
func (g *Guard) Signup(ctx context.Context, username, password string) error {
	if err := g.auth.Signup(ctx, username, password); err != nil {
		return fmt.Errorf("%w: %v", ErrAuth, err)
	}
	return nil
}

// Logout clears the session. Side effect only; it always succeeds.
func (g *Guard) Logout() {
	g.session = Session{}
}

// Current returns the session value for route gating.
func (g *Guard) Current() Session {
	return g.session
}
