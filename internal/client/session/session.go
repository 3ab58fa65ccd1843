package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmitrijs2005/finbroker/internal/client/repositories/metadata"
)

const tokenKey = "access_token"

var ErrNoToken = errors.New("no token")

// Claims is the subset of the platform JWT the client cares about. The
// token is parsed without signature verification: the server is the
// authority, the client only reads the payload for display.
type Claims struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Session holds the bearer credential for the lifetime of the process and
// optionally persists it in the local metadata store so a restart keeps the
// login. OnExpire is the login-boundary hook: it runs after the credential
// has been cleared in response to a 401.
type Session struct {
	mu       sync.RWMutex
	token    string
	store    metadata.Repository
	onExpire func()
}

// New creates a session. store may be nil for a purely in-memory session
// (tests); onExpire may be nil if no login boundary exists.
func New(store metadata.Repository, onExpire func()) *Session {
	return &Session{store: store, onExpire: onExpire}
}

// Restore loads a previously persisted token, if any.
func (s *Session) Restore(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	v, err := s.store.Get(ctx, tokenKey)
	if err != nil {
		return fmt.Errorf("restore session: %w", err)
	}
	s.mu.Lock()
	s.token = string(v)
	s.mu.Unlock()
	return nil
}

// Token returns the current credential, or "" when not logged in.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// SetToken stores the credential and persists it. Called by the login flow.
func (s *Session) SetToken(ctx context.Context, token string) error {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()

	if s.store == nil {
		return nil
	}
	if err := s.store.Set(ctx, tokenKey, []byte(token)); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}

// Clear drops the credential locally and from the store.
func (s *Session) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()

	if s.store == nil {
		return nil
	}
	if err := s.store.Delete(ctx, tokenKey); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Expire clears the credential and fires the login-boundary hook. Called by
// the gateway when any request comes back 401.
func (s *Session) Expire(ctx context.Context) {
	_ = s.Clear(ctx)
	if s.onExpire != nil {
		s.onExpire()
	}
}

// Claims decodes the current token's payload. Returns ErrNoToken when not
// logged in.
func (s *Session) Claims() (*Claims, error) {
	token := s.Token()
	if token == "" {
		return nil, ErrNoToken
	}

	var claims Claims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	return &claims, nil
}
