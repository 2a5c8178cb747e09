package db

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Memory is an in-process Database with the realtime database semantics the
// managers rely on: JSON values, empty objects are never stored, removing the
// last child removes the parent, and every call is checked against Allowed.
type Memory struct {
	mu       sync.RWMutex
	root     map[string]interface{}
	verifier TokenVerifier
	newID    func() string
}

// NewMemory creates an empty store that resolves tokens with verifier.
func NewMemory(verifier TokenVerifier) *Memory {
	return &Memory{
		root:     make(map[string]interface{}),
		verifier: verifier,
		newID:    PushID,
	}
}

// PushID returns a time ordered key, so sorting children by key yields creation order.
func PushID() string {
	return uuid.Must(uuid.NewV7()).String()
}

func (m *Memory) authorize(ctx context.Context, token, path string, write bool) error {
	uid, err := verifyToken(ctx, m.verifier, token)
	if err != nil {
		return err
	}
	return checkAccess(uid, path, write)
}

func verifyToken(ctx context.Context, v TokenVerifier, token string) (string, error) {
	if token == "" {
		return "", fmt.Errorf("%w: missing token", ErrUnauthenticated)
	}
	if v == nil {
		return "", fmt.Errorf("%w: no token verifier", ErrUnauthenticated)
	}
	uid, err := v.Verify(ctx, token)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	return uid, nil
}

func (m *Memory) Push(ctx context.Context, token, path string, data interface{}) (string, error) {
	if err := m.authorize(ctx, token, path, true); err != nil {
		return "", err
	}
	v, err := normalize(data)
	if err != nil {
		return "", err
	}
	id := m.newID()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(append(Split(path), id), v)
	return id, nil
}

func (m *Memory) Set(ctx context.Context, token, path string, data interface{}) error {
	if err := m.authorize(ctx, token, path, true); err != nil {
		return err
	}
	v, err := normalize(data)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(Split(path), v)
	return nil
}

// Update treats every key of data as a path relative to path, like a
// multi-location update. All targets are checked before anything is written.
func (m *Memory) Update(ctx context.Context, token, path string, data map[string]interface{}) error {
	type write struct {
		segs []string
		v    interface{}
	}
	writes := make([]write, 0, len(data))
	for k, raw := range data {
		target, err := JoinPath(path, k)
		if err != nil {
			return err
		}
		if err := m.authorize(ctx, token, target, true); err != nil {
			return err
		}
		v, err := normalize(raw)
		if err != nil {
			return err
		}
		writes = append(writes, write{segs: Split(target), v: v})
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range writes {
		m.put(w.segs, w.v)
	}
	return nil
}

func (m *Memory) Remove(ctx context.Context, token, path string) error {
	if err := m.authorize(ctx, token, path, true); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(Split(path), nil)
	return nil
}

func (m *Memory) Get(ctx context.Context, token, path string) (json.RawMessage, error) {
	if err := m.authorize(ctx, token, path, false); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.lookup(Split(path))
	if !ok {
		return nil, nil
	}
	return json.Marshal(v)
}

func (m *Memory) List(ctx context.Context, token, path string) ([]Item, error) {
	return m.ListBy(ctx, token, path, "", nil)
}

// ListBy filters children on childKey when it is non-empty.
func (m *Memory) ListBy(ctx context.Context, token, path, childKey string, value interface{}) ([]Item, error) {
	if err := m.authorize(ctx, token, path, false); err != nil {
		return nil, err
	}
	want, err := normalize(value)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	v, _ := m.lookup(Split(path))
	node, ok := v.(map[string]interface{})
	if !ok {
		return []Item{}, nil
	}

	keys := make([]string, 0, len(node))
	for k := range node {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	items := make([]Item, 0, len(keys))
	for _, k := range keys {
		child := node[k]
		if childKey != "" {
			fields, ok := child.(map[string]interface{})
			if !ok || !reflect.DeepEqual(fields[childKey], want) {
				continue
			}
		}
		raw, err := json.Marshal(child)
		if err != nil {
			return nil, fmt.Errorf("encode %s/%s: %w", path, k, err)
		}
		items = append(items, Item{Key: k, Value: raw})
	}
	return items, nil
}

// Dump returns the whole tree as JSON, bypassing access rules. Used by tests
// and the shell's debug command.
func (m *Memory) Dump() json.RawMessage {
	m.mu.RLock()
	defer m.mu.RUnlock()
	raw, _ := json.Marshal(m.root)
	return raw
}

func (m *Memory) lookup(segs []string) (interface{}, bool) {
	var node interface{} = m.root
	for _, s := range segs {
		mp, ok := node.(map[string]interface{})
		if !ok {
			return nil, false
		}
		if node, ok = mp[s]; !ok {
			return nil, false
		}
	}
	return node, true
}

// put stores v at segs; a nil v deletes the node and prunes emptied parents.
func (m *Memory) put(segs []string, v interface{}) {
	if len(segs) == 0 {
		if mp, ok := v.(map[string]interface{}); ok {
			m.root = mp
		} else {
			m.root = make(map[string]interface{})
		}
		return
	}

	node := m.root
	for _, s := range segs[:len(segs)-1] {
		child, ok := node[s].(map[string]interface{})
		if !ok {
			if v == nil {
				return
			}
			child = make(map[string]interface{})
			node[s] = child
		}
		node = child
	}

	last := segs[len(segs)-1]
	if v == nil {
		delete(node, last)
		prune(m.root, segs[:len(segs)-1])
		return
	}
	node[last] = v
}

func prune(node map[string]interface{}, segs []string) {
	if len(segs) == 0 {
		return
	}
	child, ok := node[segs[0]].(map[string]interface{})
	if !ok {
		return
	}
	prune(child, segs[1:])
	if len(child) == 0 {
		delete(node, segs[0])
	}
}

// normalize converts data into plain JSON values and drops null members and
// empty objects. An entirely empty value becomes nil.
func normalize(data interface{}) (interface{}, error) {
	if data == nil {
		return nil, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode value: %w", err)
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decode value: %w", err)
	}
	return compact(v), nil
}

func compact(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		for k, child := range t {
			if c := compact(child); c == nil {
				delete(t, k)
			} else {
				t[k] = c
			}
		}
		if len(t) == 0 {
			return nil
		}
		return t
	case []interface{}:
		if len(t) == 0 {
			return nil
		}
		return t
	}
	return v
}

// MemoryFiles is an in-process FileStore guarded by the same access rules as Memory.
type MemoryFiles struct {
	mu       sync.RWMutex
	objects  map[string][]byte
	verifier TokenVerifier
	bucket   string
}

// NewMemoryFiles creates an empty file store. bucket only appears in generated urls.
func NewMemoryFiles(verifier TokenVerifier, bucket string) *MemoryFiles {
	if bucket == "" {
		bucket = "memory"
	}
	return &MemoryFiles{
		objects:  make(map[string][]byte),
		verifier: verifier,
		bucket:   bucket,
	}
}

func (f *MemoryFiles) Put(ctx context.Context, token, path string, r io.Reader) (Upload, error) {
	uid, err := verifyToken(ctx, f.verifier, token)
	if err != nil {
		return Upload{}, err
	}
	if err := checkAccess(uid, path, true); err != nil {
		return Upload{}, err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return Upload{}, fmt.Errorf("read upload %s: %w", path, err)
	}

	f.mu.Lock()
	f.objects[path] = buf.Bytes()
	f.mu.Unlock()

	return Upload{Name: path, URL: DownloadURL(f.bucket, path, PushID())}, nil
}

func (f *MemoryFiles) Get(ctx context.Context, token, path string) ([]byte, error) {
	uid, err := verifyToken(ctx, f.verifier, token)
	if err != nil {
		return nil, err
	}
	if err := checkAccess(uid, path, false); err != nil {
		return nil, err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	data, ok := f.objects[path]
	if !ok {
		return nil, fmt.Errorf("file %s: %w", path, ErrNotFound)
	}
	return append([]byte(nil), data...), nil
}

// DownloadURL builds the public url of a storage object in the format the
// Firebase console hands out.
func DownloadURL(bucket, object, downloadToken string) string {
	escaped := strings.ReplaceAll(url.PathEscape(object), "/", "%2F")
	u := fmt.Sprintf("https://firebasestorage.googleapis.com/v0/b/%s/o/%s?alt=media", bucket, escaped)
	if downloadToken != "" {
		u += "&token=" + url.QueryEscape(downloadToken)
	}
	return u
}
