// Package backend assembles the identity provider, document store and file
// store selected by BACKEND.
package backend

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/example/onlinetravel/internal/config"
	"github.com/example/onlinetravel/internal/core"
	"github.com/example/onlinetravel/internal/crypto"
	"github.com/example/onlinetravel/internal/db"
	"github.com/example/onlinetravel/internal/identity"
	"github.com/example/onlinetravel/internal/localstore"
	"github.com/example/onlinetravel/internal/platform"
)

// Backend is the set of remote services a session or the share server talks to.
type Backend struct {
	Provider identity.Provider
	Database db.Database
	Files    db.FileStore
	Verifier db.TokenVerifier
}

// New connects to the backend named by appConfig.Backend. The memory backend
// lives inside the process and is lost on exit.
func New(ctx context.Context, appConfig *config.Config, logger *zap.Logger) (*Backend, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch appConfig.Backend {
	case config.BackendFirebase:
		fb, err := db.InitFirebase(ctx, appConfig, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize firebase: %w", err)
		}
		provider, err := identity.NewToolkit(ctx, appConfig.FirebaseAPIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize identity toolkit: %w", err)
		}
		logger.Info("Using firebase backend", zap.String("database", appConfig.FirebaseDatabaseURL))
		return &Backend{Provider: provider, Database: fb.Database, Files: fb.Files, Verifier: fb.Verifier}, nil
	default:
		provider, err := identity.NewLocal([]byte(appConfig.TokenSecret), appConfig.TokenTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize local identity provider: %w", err)
		}
		if appConfig.TokenSecret == "" {
			logger.Warn("TOKEN_SECRET not set, issued tokens will not survive a restart")
		}
		logger.Info("Using in-memory backend")
		return &Backend{
			Provider: provider,
			Database: db.NewMemory(provider),
			Files:    db.NewMemoryFiles(provider, "onlinetravel-local"),
			Verifier: provider,
		}, nil
	}
}

// OpenSessionCache opens the local session file, encrypted when LOCAL_CACHE_KEY is set.
func OpenSessionCache(appConfig *config.Config) (*localstore.Store, error) {
	var opts []localstore.Option
	if appConfig.LocalCacheKey != "" {
		key, err := crypto.ParseKey(appConfig.LocalCacheKey)
		if err != nil {
			return nil, fmt.Errorf("invalid LOCAL_CACHE_KEY: %w", err)
		}
		opts = append(opts, localstore.WithEncryptionKey(key))
	}
	store, err := localstore.Open(appConfig.LocalCachePath, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open session cache: %w", err)
	}
	return store, nil
}

// NewSession creates a session on b that remembers its token in cache.
func (b *Backend) NewSession(appConfig *config.Config, cache core.SessionCache, logger *zap.Logger) *core.Session {
	return core.NewSession(core.SessionDeps{
		Provider:   b.Provider,
		Database:   b.Database,
		Files:      b.Files,
		Cache:      cache,
		BackendURL: appConfig.BackendURL(),
		Encoder:    platform.NewPNGEncoder(appConfig.QRScale),
		Logger:     logger,
	})
}
