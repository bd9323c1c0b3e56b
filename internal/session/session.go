// Package session holds the signed-in user and their token for the life of
// one login. Every component that talks to the backend is handed the
// session explicitly; nothing reads auth state from globals.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/nhle/crm-dashboard/internal/access"
	"github.com/nhle/crm-dashboard/internal/api"
	"github.com/nhle/crm-dashboard/internal/model"
	"github.com/nhle/crm-dashboard/internal/timetrack"
)

// Session is created at login and destroyed at logout. It implements
// api.TokenProvider.
type Session struct {
	mu        sync.RWMutex
	actor     model.Actor
	tokens    api.Tokens
	expiresAt time.Time
	dashboard access.Dashboard
	clock     timetrack.Clock
	closed    bool
}

// New creates a session for actor holding tokens. The access token's exp
// claim, when present, bounds the session; the signature is not checked
// here because only the backend can verify it. A nil clock uses the
// system clock.
func New(actor model.Actor, tokens api.Tokens, clock timetrack.Clock) (*Session, error) {
	if tokens.AccessToken == "" {
		return nil, api.ErrAuthenticationRequired
	}
	if clock == nil {
		clock = timetrack.SystemClock{}
	}

	return &Session{
		actor:     actor,
		tokens:    tokens,
		expiresAt: tokenExpiry(tokens.AccessToken),
		dashboard: access.ResolveDashboard(actor),
		clock:     clock,
	}, nil
}

// tokenExpiry reads the exp claim. Opaque (non-JWT) tokens have no
// expiry.
func tokenExpiry(token string) time.Time {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}

// Login exchanges credentials for a new session.
func Login(ctx context.Context, client *api.Client, email, password string, clock timetrack.Clock) (*Session, error) {
	res, err := client.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	s, err := New(res.User.ToModel(), res.Tokens, clock)
	if err != nil {
		return nil, fmt.Errorf("starting session: %w", err)
	}
	return s, nil
}

// Token returns the bearer token, or api.ErrAuthenticationRequired once
// the session is closed or its token has expired.
func (s *Session) Token() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed || s.tokens.AccessToken == "" {
		return "", api.ErrAuthenticationRequired
	}
	if !s.expiresAt.IsZero() && !s.clock.Now().Before(s.expiresAt) {
		return "", api.ErrAuthenticationRequired
	}
	return s.tokens.AccessToken, nil
}

// Valid reports whether Token would succeed.
func (s *Session) Valid() bool {
	_, err := s.Token()
	return err == nil
}

// Actor returns the signed-in user.
func (s *Session) Actor() model.Actor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.actor
}

// Dashboard returns the variant resolved when the session was created.
func (s *Session) Dashboard() access.Dashboard {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dashboard
}

// ExpiresAt returns the token expiry, or the zero time if unknown.
func (s *Session) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiresAt
}

// Close ends the session. Later Token calls fail.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.tokens = api.Tokens{}
}
