package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const cleanupInterval = 10 * time.Minute

// Memory is a process-local Cache.
type Memory struct {
	c *gocache.Cache
}

// NewMemory creates a cache whose entries expire after defaultExpiration
// unless Set names another duration.
func NewMemory(defaultExpiration time.Duration) *Memory {
	return &Memory{c: gocache.New(defaultExpiration, cleanupInterval)}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := m.c.Get(key)
	if !ok {
		return "", false, nil
	}
	s, ok := v.(string)
	return s, ok, nil
}

// Set stores value. A zero expiration uses the cache default.
func (m *Memory) Set(_ context.Context, key, value string, expiration time.Duration) error {
	if expiration == 0 {
		expiration = gocache.DefaultExpiration
	}
	m.c.Set(key, value, expiration)
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.c.Delete(key)
	return nil
}
