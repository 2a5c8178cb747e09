package core_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/onlinetravel/internal/core"
	"github.com/example/onlinetravel/internal/db"
	"github.com/example/onlinetravel/internal/identity"
)

// mockProvider is a function-field identity.Provider.
type mockProvider struct {
	signIn func(ctx context.Context, email, password string) (identity.Account, error)
	signUp func(ctx context.Context, email, password string) (identity.Account, error)
	lookup func(ctx context.Context, token string) (identity.Account, error)
}

var _ identity.Provider = (*mockProvider)(nil)

func (m *mockProvider) SignIn(ctx context.Context, email, password string) (identity.Account, error) {
	return m.signIn(ctx, email, password)
}

func (m *mockProvider) SignUp(ctx context.Context, email, password string) (identity.Account, error) {
	return m.signUp(ctx, email, password)
}

func (m *mockProvider) Lookup(ctx context.Context, token string) (identity.Account, error) {
	return m.lookup(ctx, token)
}

type cachedSession struct {
	Token string `json:"token"`
	Email string `json:"email"`
}

// TestSession_Login_wrongPassword verifies that a rejected login reports the
// fixed user message and leaves the session anonymous.
func TestSession_Login_wrongPassword(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)
	s := b.session(t, newCache(t), nil)
	require.NoError(t, s.Register(ctx, "ann@example.com", "secret1"))

	err := s.Login(ctx, "ann@example.com", "wrong-password")

	var authErr *core.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, core.BadCredentials, authErr.Kind)
	assert.Equal(t, "Incorrect email/password", authErr.Error())
	assert.Equal(t, core.Anonymous, s.State())
	assert.Nil(t, s.Trips())
	assert.Nil(t, s.Tracker())
	assert.Nil(t, s.Share())
}

func TestSession_Login_buildsManagersAndCachesToken(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)
	cache := newCache(t)
	s := b.session(t, cache, nil)
	require.NoError(t, s.Register(ctx, "ann@example.com", "secret1"))

	require.NoError(t, s.Login(ctx, "ann@example.com", "secret1"))

	assert.Equal(t, core.Authenticated, s.State())
	assert.NotEmpty(t, s.UID())
	assert.NotNil(t, s.Trips())
	assert.NotNil(t, s.Tracker())
	assert.NotNil(t, s.Share())

	var cached cachedSession
	ok, err := cache.Get("session", &cached)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, s.Account().Token, cached.Token)
	assert.Equal(t, "ann@example.com", cached.Email)
}

func TestSession_Register_duplicate(t *testing.T) {
	ctx := context.Background()
	s := newBackend(t).session(t, newCache(t), nil)
	require.NoError(t, s.Register(ctx, "ann@example.com", "secret1"))

	err := s.Register(ctx, "ann@example.com", "secret2")

	var authErr *core.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, core.DuplicateAccount, authErr.Kind)
	assert.Equal(t, "Email address has been taken", authErr.Message)
}

func TestSession_Register_doesNotLogIn(t *testing.T) {
	s := newBackend(t).session(t, newCache(t), nil)

	require.NoError(t, s.Register(context.Background(), "ann@example.com", "secret1"))

	assert.Equal(t, core.Anonymous, s.State())
	assert.Nil(t, s.Trips())
}

func TestSession_Login_serviceErrorTruncatesURL(t *testing.T) {
	cause := &identity.StatusError{Message: "connection refused, see https://status.example.com"}
	p := &mockProvider{signIn: func(context.Context, string, string) (identity.Account, error) {
		return identity.Account{}, cause
	}}
	s := core.NewSession(core.SessionDeps{Provider: p})

	err := s.Login(context.Background(), "ann@example.com", "secret1")

	var authErr *core.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, core.ServiceError, authErr.Kind)
	assert.Equal(t, "connection refused, see ...", authErr.Message)
	assert.ErrorIs(t, err, cause)
}

func TestSession_SignOut_keepsEmail(t *testing.T) {
	b := newBackend(t)
	cache := newCache(t)
	s := b.session(t, cache, nil)
	ctx := context.Background()
	require.NoError(t, s.Register(ctx, "ann@example.com", "secret1"))
	require.NoError(t, s.Login(ctx, "ann@example.com", "secret1"))

	s.SignOut()

	assert.Equal(t, core.Anonymous, s.State())
	assert.Empty(t, s.UID())
	assert.Nil(t, s.Trips())
	assert.Equal(t, "ann@example.com", s.CachedEmail())

	var cached cachedSession
	ok, err := cache.Get("session", &cached)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Empty(t, cached.Token)

	require.ErrorIs(t, s.AutoLogin(ctx), core.ErrSessionExpired)
}

func TestSession_AutoLogin_resumesCachedSession(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)
	cache := newCache(t)
	first := b.session(t, cache, nil)
	require.NoError(t, first.Register(ctx, "ann@example.com", "secret1"))
	require.NoError(t, first.Login(ctx, "ann@example.com", "secret1"))

	second := b.session(t, cache, nil)
	require.NoError(t, second.AutoLogin(ctx))

	assert.Equal(t, core.Authenticated, second.State())
	assert.Equal(t, first.UID(), second.UID())
	assert.Equal(t, "ann@example.com", second.Account().Email)
}

func TestSession_AutoLogin_noCache(t *testing.T) {
	s := newBackend(t).session(t, newCache(t), nil)

	err := s.AutoLogin(context.Background())

	require.ErrorIs(t, err, core.ErrSessionExpired)
	assert.Equal(t, core.Anonymous, s.State())
}

func TestSession_AutoLogin_staleToken(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	b := newBackend(t, identity.WithClock(func() time.Time { return now }))
	cache := newCache(t)
	s := b.session(t, cache, nil)
	require.NoError(t, s.Register(ctx, "ann@example.com", "secret1"))
	require.NoError(t, s.Login(ctx, "ann@example.com", "secret1"))

	now = now.Add(2 * time.Hour)
	resumed := b.session(t, cache, nil)
	err := resumed.AutoLogin(ctx)

	require.ErrorIs(t, err, core.ErrSessionExpired)
	assert.Equal(t, core.Anonymous, resumed.State())
	assert.Nil(t, resumed.Tracker())
}

func TestSession_AutoLogin_probeFails(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)
	cache := newCache(t)
	require.NoError(t, cache.Put("session", cachedSession{Token: "tok", Email: "ann@example.com"}))
	p := &mockProvider{lookup: func(context.Context, string) (identity.Account, error) {
		// The provider accepts the token but the store does not know it.
		return identity.Account{UID: "ann"}, nil
	}}
	s := core.NewSession(core.SessionDeps{Provider: p, Database: b.mem, Files: b.files, Cache: cache})

	err := s.AutoLogin(ctx)

	require.ErrorIs(t, err, core.ErrSessionExpired)
	assert.ErrorIs(t, err, db.ErrUnauthenticated)
}
