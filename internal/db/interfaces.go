// Package db is the document store client: a hierarchical key-value database
// addressed by slash-separated paths, plus a file store, both authenticated by
// the caller's bearer token on every call.
package db

import (
	"context"
	"encoding/json"
	"errors"
	"io"
)

var (
	// ErrNotFound is returned when a file or required document does not exist.
	ErrNotFound = errors.New("not found")
	// ErrPermissionDenied is returned when the access rules reject the call.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrUnauthenticated is returned when the bearer token is missing, malformed or expired.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrInvalidPath is returned for paths the store cannot address.
	ErrInvalidPath = errors.New("invalid path")
)

// Item is one child of a listed node.
type Item struct {
	Key   string
	Value json.RawMessage
}

// Database is a remote hierarchical document store. Paths are slash-separated
// and already joined; Get returns nil for an absent node.
type Database interface {
	Push(ctx context.Context, token, path string, data interface{}) (string, error)
	Set(ctx context.Context, token, path string, data interface{}) error
	Update(ctx context.Context, token, path string, data map[string]interface{}) error
	Remove(ctx context.Context, token, path string) error
	Get(ctx context.Context, token, path string) (json.RawMessage, error)
	List(ctx context.Context, token, path string) ([]Item, error)
	ListBy(ctx context.Context, token, path, childKey string, value interface{}) ([]Item, error)
}

// Upload describes a stored file. Name is empty when the store did not confirm the upload.
type Upload struct {
	Name string
	URL  string
}

// FileStore holds binary objects next to the documents.
type FileStore interface {
	Put(ctx context.Context, token, path string, r io.Reader) (Upload, error)
	Get(ctx context.Context, token, path string) ([]byte, error)
}

// TokenVerifier resolves a bearer token to the uid it was issued for.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (string, error)
}
