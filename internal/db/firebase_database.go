package db

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	fdb "firebase.google.com/go/v4/db"
	"firebase.google.com/go/v4/errorutils"
	"go.uber.org/zap"
)

// FirebaseDatabase implements Database on the Firebase Realtime Database. The
// token is verified on every call and the request runs as its uid, so the
// deployed security rules apply.
type FirebaseDatabase struct {
	verifier TokenVerifier
	connect  func(ctx context.Context, uid string) (*fdb.Client, error)
	logger   *zap.Logger

	mu      sync.Mutex
	clients map[string]*fdb.Client
}

// NewFirebaseDatabase creates the database. connect builds a client that acts as the given uid.
func NewFirebaseDatabase(verifier TokenVerifier, connect func(ctx context.Context, uid string) (*fdb.Client, error), logger *zap.Logger) *FirebaseDatabase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FirebaseDatabase{
		verifier: verifier,
		connect:  connect,
		logger:   logger,
		clients:  make(map[string]*fdb.Client),
	}
}

func (f *FirebaseDatabase) ref(ctx context.Context, token, path string) (*fdb.Ref, error) {
	uid, err := verifyToken(ctx, f.verifier, token)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	client, ok := f.clients[uid]
	f.mu.Unlock()
	if !ok {
		client, err = f.connect(ctx, uid)
		if err != nil {
			return nil, err
		}
		f.mu.Lock()
		f.clients[uid] = client
		f.mu.Unlock()
		f.logger.Debug("Realtime database client created", zap.String("uid", uid))
	}
	return client.NewRef(path), nil
}

func (f *FirebaseDatabase) Push(ctx context.Context, token, path string, data interface{}) (string, error) {
	r, err := f.ref(ctx, token, path)
	if err != nil {
		return "", err
	}
	child, err := r.Push(ctx, data)
	if err != nil {
		return "", mapError("push", path, err)
	}
	return child.Key, nil
}

func (f *FirebaseDatabase) Set(ctx context.Context, token, path string, data interface{}) error {
	r, err := f.ref(ctx, token, path)
	if err != nil {
		return err
	}
	return mapError("set", path, r.Set(ctx, data))
}

func (f *FirebaseDatabase) Update(ctx context.Context, token, path string, data map[string]interface{}) error {
	r, err := f.ref(ctx, token, path)
	if err != nil {
		return err
	}
	return mapError("update", path, r.Update(ctx, data))
}

func (f *FirebaseDatabase) Remove(ctx context.Context, token, path string) error {
	r, err := f.ref(ctx, token, path)
	if err != nil {
		return err
	}
	return mapError("remove", path, r.Delete(ctx))
}

func (f *FirebaseDatabase) Get(ctx context.Context, token, path string) (json.RawMessage, error) {
	r, err := f.ref(ctx, token, path)
	if err != nil {
		return nil, err
	}
	var raw json.RawMessage
	if err := r.Get(ctx, &raw); err != nil {
		return nil, mapError("get", path, err)
	}
	if string(raw) == "null" {
		return nil, nil
	}
	return raw, nil
}

func (f *FirebaseDatabase) List(ctx context.Context, token, path string) ([]Item, error) {
	raw, err := f.Get(ctx, token, path)
	if err != nil || raw == nil {
		return []Item{}, err
	}
	var children map[string]json.RawMessage
	if err := json.Unmarshal(raw, &children); err != nil {
		// A scalar node has no children to list.
		return []Item{}, nil
	}
	keys := make([]string, 0, len(children))
	for k := range children {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	items := make([]Item, 0, len(keys))
	for _, k := range keys {
		items = append(items, Item{Key: k, Value: children[k]})
	}
	return items, nil
}

// ListBy needs an ".indexOn" rule for childKey on the queried node.
func (f *FirebaseDatabase) ListBy(ctx context.Context, token, path, childKey string, value interface{}) ([]Item, error) {
	r, err := f.ref(ctx, token, path)
	if err != nil {
		return nil, err
	}
	nodes, err := r.OrderByChild(childKey).EqualTo(value).GetOrdered(ctx)
	if err != nil {
		return nil, mapError("query", path, err)
	}
	items := make([]Item, 0, len(nodes))
	for _, n := range nodes {
		var raw json.RawMessage
		if err := n.Unmarshal(&raw); err != nil {
			return nil, fmt.Errorf("decode %s/%s: %w", path, n.Key(), err)
		}
		items = append(items, Item{Key: n.Key(), Value: raw})
	}
	return items, nil
}

func mapError(op, path string, err error) error {
	switch {
	case err == nil:
		return nil
	case errorutils.IsPermissionDenied(err):
		return fmt.Errorf("%s %q: %w: %v", op, path, ErrPermissionDenied, err)
	case errorutils.IsUnauthenticated(err):
		return fmt.Errorf("%s %q: %w: %v", op, path, ErrUnauthenticated, err)
	}
	return fmt.Errorf("%s %q: %w", op, path, err)
}
