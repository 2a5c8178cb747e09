// Package core binds a signed-in user to the document store: the session, and
// the collection managers that read and write the user's trips.
package core

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/example/onlinetravel/internal/db"
	"github.com/example/onlinetravel/internal/identity"
	"github.com/example/onlinetravel/internal/platform"
)

const sessionKey = "session"

// SessionCache persists the last session between runs.
type SessionCache interface {
	Get(key string, v interface{}) (bool, error)
	Put(key string, v interface{}) error
}

// cachedSession is the document stored under the "session" key.
type cachedSession struct {
	Token string `json:"token,omitempty"`
	Email string `json:"email,omitempty"`
}

// State is the authentication state of a Session.
type State int

const (
	Anonymous State = iota
	Authenticating
	Authenticated
)

func (s State) String() string {
	switch s {
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	default:
		return "anonymous"
	}
}

// SessionDeps are the collaborators of a Session.
type SessionDeps struct {
	Provider identity.Provider
	Database db.Database
	Files    db.FileStore
	Cache    SessionCache
	// BackendURL is the scheme and host share urls are built on.
	BackendURL string
	Encoder    platform.RasterEncoder
	Logger     *zap.Logger
}

// Session tracks the signed-in user and owns the managers bound to that
// user's token. The managers exist only while the session is authenticated.
type Session struct {
	deps   SessionDeps
	logger *zap.Logger

	mu      sync.RWMutex
	state   State
	account identity.Account
	trips   *TripManager
	tracker *TripTracker
	share   *ShareManager
}

// NewSession creates an anonymous session.
func NewSession(deps SessionDeps) *Session {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{deps: deps, logger: logger}
}

// Login signs in with email and password and caches the token.
func (s *Session) Login(ctx context.Context, email, password string) error {
	prev := s.begin()
	acc, err := s.deps.Provider.SignIn(ctx, email, password)
	if err != nil {
		s.restore(prev)
		s.logger.Info("Login failed", zap.String("email", email), zap.Error(err))
		return authError(err, BadCredentials, "Incorrect email/password")
	}
	if acc.Email == "" {
		acc.Email = email
	}
	s.saveCache(cachedSession{Token: acc.Token, Email: email})
	s.enter(acc)
	s.logger.Info("Logged in", zap.String("uid", acc.UID))
	return nil
}

// Register creates an account. It does not sign in.
func (s *Session) Register(ctx context.Context, email, password string) error {
	if _, err := s.deps.Provider.SignUp(ctx, email, password); err != nil {
		s.logger.Info("Registration failed", zap.String("email", email), zap.Error(err))
		return authError(err, DuplicateAccount, "Email address has been taken")
	}
	s.logger.Info("Registered account", zap.String("email", email))
	return nil
}

// AutoLogin resumes the cached session. Any failure, including a stale token,
// is reported as ErrSessionExpired and leaves the session anonymous.
func (s *Session) AutoLogin(ctx context.Context) error {
	prev := s.begin()
	cached, ok := s.loadCache()
	if !ok || cached.Token == "" {
		s.restore(prev)
		return ErrSessionExpired
	}

	acc, err := s.deps.Provider.Lookup(ctx, cached.Token)
	if err != nil {
		s.restore(prev)
		return fmt.Errorf("%w: %w", ErrSessionExpired, err)
	}
	// The tracked trip is private, so reading it proves the token is accepted
	// by the store as well as by the identity provider.
	probe := db.NewClient(s.deps.Database, s.deps.Files, cached.Token, db.UsersRoot, acc.UID)
	if _, err := probe.Get(ctx, db.ActiveNode); err != nil {
		s.restore(prev)
		return fmt.Errorf("%w: %w", ErrSessionExpired, err)
	}
	if acc.Email == "" {
		acc.Email = cached.Email
	}
	acc.Token = cached.Token
	s.enter(acc)
	s.logger.Info("Resumed session", zap.String("uid", acc.UID))
	return nil
}

// SignOut forgets the token. The cached email is kept to prefill the next login.
func (s *Session) SignOut() {
	if cached, ok := s.loadCache(); ok && cached.Token != "" {
		cached.Token = ""
		s.saveCache(cached)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.leaveLocked()
}

// CachedEmail returns the email of the last login, if any.
func (s *Session) CachedEmail() string {
	cached, _ := s.loadCache()
	return cached.Email
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Account returns the signed-in identity; it is zero unless authenticated.
func (s *Session) Account() identity.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.account
}

func (s *Session) UID() string { return s.Account().UID }

// Trips returns the trip list manager, or nil when not authenticated.
func (s *Session) Trips() *TripManager {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.trips
}

// Tracker returns the active trip manager, or nil when not authenticated.
func (s *Session) Tracker() *TripTracker {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tracker
}

// Share returns the share manager, or nil when not authenticated.
func (s *Session) Share() *ShareManager {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.share
}

// begin moves to Authenticating and returns the state to restore on failure.
func (s *Session) begin() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.state
	s.state = Authenticating
	return prev
}

func (s *Session) restore(prev State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Authenticating {
		s.state = prev
	}
}

func (s *Session) enter(acc identity.Account) {
	trips := NewTripManager(db.NewClient(s.deps.Database, s.deps.Files, acc.Token, db.UsersRoot, acc.UID, db.TripsNode), s.logger)
	tracker := NewTripTracker(db.NewClient(s.deps.Database, s.deps.Files, acc.Token, db.UsersRoot, acc.UID, db.ActiveNode), s.logger)
	share := NewShareManager(db.NewClient(s.deps.Database, s.deps.Files, acc.Token), acc.UID, s.deps.BackendURL, s.deps.Encoder, s.logger)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.account = acc
	s.trips, s.tracker, s.share = trips, tracker, share
	s.state = Authenticated
}

func (s *Session) leaveLocked() {
	s.account = identity.Account{}
	s.trips, s.tracker, s.share = nil, nil, nil
	s.state = Anonymous
}

func (s *Session) loadCache() (cachedSession, bool) {
	var cached cachedSession
	if s.deps.Cache == nil {
		return cached, false
	}
	ok, err := s.deps.Cache.Get(sessionKey, &cached)
	if err != nil {
		s.logger.Warn("Failed to read cached session", zap.Error(err))
		return cachedSession{}, false
	}
	return cached, ok
}

func (s *Session) saveCache(cached cachedSession) {
	if s.deps.Cache == nil {
		return
	}
	if err := s.deps.Cache.Put(sessionKey, cached); err != nil {
		s.logger.Warn("Failed to cache session", zap.Error(err))
	}
}
