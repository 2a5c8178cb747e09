package db

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Client is scoped to a collection root and carries one bearer token. Every
// operation takes a path relative to that root. The token is never refreshed;
// callers build a new Client after signing in again.
type Client struct {
	db    Database
	files FileStore
	token string
	root  []string
}

// NewClient creates a client rooted at the given path segments.
func NewClient(database Database, files FileStore, token string, root ...string) *Client {
	return &Client{
		db:    database,
		files: files,
		token: token,
		root:  append([]string(nil), root...),
	}
}

// Root returns the joined collection root.
func (c *Client) Root() string {
	p, _ := JoinPath(c.root...)
	return p
}

// Path joins rel below the collection root.
func (c *Client) Path(rel ...string) (string, error) {
	return JoinPath(append(append([]string(nil), c.root...), rel...)...)
}

// Push creates a child with a store generated id under rel and returns the id.
func (c *Client) Push(ctx context.Context, data interface{}, rel ...string) (string, error) {
	p, err := c.Path(rel...)
	if err != nil {
		return "", err
	}
	return c.db.Push(ctx, c.token, p, data)
}

// Set replaces the node at rel.
func (c *Client) Set(ctx context.Context, data interface{}, rel ...string) error {
	p, err := c.Path(rel...)
	if err != nil {
		return err
	}
	return c.db.Set(ctx, c.token, p, data)
}

// Update writes the given children of the node at rel and leaves the others untouched.
func (c *Client) Update(ctx context.Context, data map[string]interface{}, rel ...string) error {
	p, err := c.Path(rel...)
	if err != nil {
		return err
	}
	return c.db.Update(ctx, c.token, p, data)
}

// Remove deletes the node at rel with its whole subtree.
func (c *Client) Remove(ctx context.Context, rel ...string) error {
	p, err := c.Path(rel...)
	if err != nil {
		return err
	}
	return c.db.Remove(ctx, c.token, p)
}

// Get returns the raw document at rel, or nil when it does not exist.
func (c *Client) Get(ctx context.Context, rel ...string) (json.RawMessage, error) {
	p, err := c.Path(rel...)
	if err != nil {
		return nil, err
	}
	raw, err := c.db.Get(ctx, c.token, p)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	return raw, nil
}

// List returns the children of the node at rel ordered by key. An absent node
// yields an empty slice, never nil.
func (c *Client) List(ctx context.Context, rel ...string) ([]Item, error) {
	p, err := c.Path(rel...)
	if err != nil {
		return nil, err
	}
	items, err := c.db.List(ctx, c.token, p)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []Item{}
	}
	return items, nil
}

// ListBy returns the children of the node at rel whose childKey equals value.
func (c *Client) ListBy(ctx context.Context, childKey string, value interface{}, rel ...string) ([]Item, error) {
	p, err := c.Path(rel...)
	if err != nil {
		return nil, err
	}
	items, err := c.db.ListBy(ctx, c.token, p, childKey, value)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []Item{}
	}
	return items, nil
}

func (c *Client) filePath(rel ...string) (string, error) {
	return joinFilePath(append(append([]string(nil), c.root...), rel...)...)
}

// PutFile uploads r to rel and returns its public url. The url is empty when
// the store did not confirm the upload.
func (c *Client) PutFile(ctx context.Context, r io.Reader, rel ...string) (string, error) {
	if c.files == nil {
		return "", fmt.Errorf("put file: no file store configured")
	}
	p, err := c.filePath(rel...)
	if err != nil {
		return "", err
	}
	up, err := c.files.Put(ctx, c.token, p, r)
	if err != nil {
		return "", err
	}
	if up.Name == "" {
		return "", nil
	}
	return up.URL, nil
}

// PutLocalFile uploads the file at localPath to rel.
func (c *Client) PutLocalFile(ctx context.Context, localPath string, rel ...string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close()
	return c.PutFile(ctx, f, rel...)
}

// GetFile downloads the file at rel.
func (c *Client) GetFile(ctx context.Context, rel ...string) ([]byte, error) {
	if c.files == nil {
		return nil, fmt.Errorf("get file: no file store configured")
	}
	p, err := c.filePath(rel...)
	if err != nil {
		return nil, err
	}
	return c.files.Get(ctx, c.token, p)
}
