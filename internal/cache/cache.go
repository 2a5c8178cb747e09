// Package cache stores resolved share documents for a limited time.
package cache

import (
	"context"
	"time"
)

// Cache is a string key-value store with per-entry expiry.
type Cache interface {
	// Get reports false when the key is absent or expired.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, expiration time.Duration) error
	Delete(ctx context.Context, key string) error
}
