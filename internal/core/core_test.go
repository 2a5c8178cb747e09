package core_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/example/onlinetravel/internal/core"
	"github.com/example/onlinetravel/internal/db"
	"github.com/example/onlinetravel/internal/identity"
	"github.com/example/onlinetravel/internal/localstore"
	"github.com/example/onlinetravel/internal/platform"
)

const backendURL = "http://share.test"

// backend is the shared in-memory store several sessions can sign in to.
type backend struct {
	provider *identity.Local
	mem      *db.Memory
	files    *db.MemoryFiles
}

func newBackend(t *testing.T, opts ...identity.LocalOption) *backend {
	t.Helper()
	opts = append([]identity.LocalOption{identity.WithBcryptCost(bcrypt.MinCost)}, opts...)
	provider, err := identity.NewLocal([]byte("test-secret"), time.Hour, opts...)
	require.NoError(t, err)
	return &backend{
		provider: provider,
		mem:      db.NewMemory(provider),
		files:    db.NewMemoryFiles(provider, "test-bucket"),
	}
}

func (b *backend) session(t *testing.T, cache core.SessionCache, logger *zap.Logger) *core.Session {
	t.Helper()
	return core.NewSession(core.SessionDeps{
		Provider:   b.provider,
		Database:   b.mem,
		Files:      b.files,
		Cache:      cache,
		BackendURL: backendURL,
		Encoder:    platform.NewPNGEncoder(1),
		Logger:     logger,
	})
}

func newCache(t *testing.T) *localstore.Store {
	t.Helper()
	s, err := localstore.Open(filepath.Join(t.TempDir(), "onlinetravel.cache.json"))
	require.NoError(t, err)
	return s
}

// signedIn registers email and returns a logged-in session.
func (b *backend) signedIn(t *testing.T, email string) *core.Session {
	t.Helper()
	ctx := context.Background()
	s := b.session(t, newCache(t), nil)
	require.NoError(t, s.Register(ctx, email, "secret1"))
	require.NoError(t, s.Login(ctx, email, "secret1"))
	return s
}
