// Package session holds the client-side authentication state: the persisted token,
// its decoded claims and the loading flag every route guard waits on.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Navigation is the view a caller should move to after a session transition.
// Empty means stay where you are.
type Navigation string

// Routes names the two views the store navigates between
type Routes struct {
	Entry string // public entry view, e.g. the login screen
	Home  string // main authenticated view
}

// DefaultRoutes mirrors the web UI paths
var DefaultRoutes = Routes{Entry: "/login", Home: "/dashboard"}

// State is a snapshot of the session
type State struct {
	IsAuthenticated bool    `json:"isAuthenticated"`
	User            *Claims `json:"user"`
	Loading         bool    `json:"loading"`
}

// Store is the single source of truth for authentication state in one process
type Store struct {
	tokens TokenStore
	logger zerolog.Logger
	now    func() time.Time
	routes Routes

	mu     sync.RWMutex
	state  State
	token  string
	ready  chan struct{}
	closed bool
}

// Option configures a Store
type Option func(*Store)

// WithLogger sets the logger used for session transitions
func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithClock overrides the time source used for expiry checks
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithRoutes overrides the entry/home navigation targets
func WithRoutes(r Routes) Option {
	return func(s *Store) { s.routes = r }
}

// New creates a store in the loading state. Call Initialize before relying on it.
func New(tokens TokenStore, opts ...Option) *Store {
	s := &Store{
		tokens: tokens,
		logger: zerolog.Nop(),
		now:    time.Now,
		routes: DefaultRoutes,
		state:  State{Loading: true},
		ready:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes returns the configured navigation targets
func (s *Store) Routes() Routes {
	return s.routes
}

// Initialize reads the persisted token and resolves the loading state.
// Any failure leaves the session unauthenticated with the stored token removed.
func (s *Store) Initialize(ctx context.Context) State {
	token, err := s.tokens.Load()
	if err != nil && !errors.Is(err, ErrNotFound) {
		s.logger.Warn().Err(err).Msg("Failed to read persisted token")
	}

	var claims *Claims
	if err == nil {
		claims, err = Validate(token, s.now())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case ctx.Err() != nil:
		// Abandoned startup: stay logged out but keep whatever is persisted
		s.logger.Warn().Err(ctx.Err()).Msg("Session initialization cancelled")
		s.token = ""
		s.state.IsAuthenticated = false
		s.state.User = nil
	case err != nil:
		if !errors.Is(err, ErrNotFound) {
			s.logger.Info().Err(err).Msg("Persisted token is invalid or expired")
		}
		s.clearLocked()
	default:
		s.token = token
		s.state = State{IsAuthenticated: true, User: claims}
		s.logger.Debug().Str("user_id", claims.UserID).Msg("Restored session")
	}

	s.state.Loading = false
	s.markReadyLocked()
	return s.snapshotLocked()
}

// Login validates the token issued by the API and, if valid, persists it
func (s *Store) Login(token string) (Navigation, error) {
	claims, err := Validate(token, s.now())

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.logger.Warn().Err(err).Msg("Rejected login token")
		s.clearLocked()
		s.state.Loading = false
		s.markReadyLocked()
		return "", err
	}

	if err := s.tokens.Save(token); err != nil {
		s.logger.Error().Err(err).Msg("Failed to persist token")
		s.clearLocked()
		s.state.Loading = false
		s.markReadyLocked()
		return "", fmt.Errorf("failed to persist token: %w", err)
	}

	s.token = token
	s.state = State{IsAuthenticated: true, User: claims}
	s.markReadyLocked()
	s.logger.Info().Str("user_id", claims.UserID).Str("username", claims.Username).Msg("Logged in")

	return Navigation(s.routes.Home), nil
}

// Logout clears the persisted token regardless of the current state
func (s *Store) Logout() Navigation {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clearLocked()
	s.state.Loading = false
	s.markReadyLocked()
	s.logger.Info().Msg("Logged out")

	return Navigation(s.routes.Entry)
}

// State returns a snapshot. An authenticated session whose token has expired
// since login is reset here.
func (s *Store) State() State {
	s.mu.RLock()
	expired := s.state.IsAuthenticated && s.state.User.ExpiredAt(s.now())
	if !expired {
		defer s.mu.RUnlock()
		return s.snapshotLocked()
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.IsAuthenticated && s.state.User.ExpiredAt(s.now()) {
		s.logger.Info().Msg("Session token expired")
		s.clearLocked()
	}
	return s.snapshotLocked()
}

// Token returns the bearer token of an authenticated session
func (s *Store) Token() (string, bool) {
	if !s.State().IsAuthenticated {
		return "", false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return "", false
	}
	return s.token, true
}

// Ready is closed once the store has finished initializing
func (s *Store) Ready() <-chan struct{} {
	return s.ready
}

// clearLocked resets to unauthenticated and removes the stored token.
// Loading is left untouched.
func (s *Store) clearLocked() {
	if err := s.tokens.Delete(); err != nil {
		s.logger.Error().Err(err).Msg("Failed to delete persisted token")
	}
	s.token = ""
	s.state.IsAuthenticated = false
	s.state.User = nil
}

func (s *Store) markReadyLocked() {
	if !s.closed {
		close(s.ready)
		s.closed = true
	}
}

func (s *Store) snapshotLocked() State {
	return State{
		IsAuthenticated: s.state.IsAuthenticated,
		User:            s.state.User.clone(),
		Loading:         s.state.Loading,
	}
}
