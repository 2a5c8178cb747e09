// Package localstore persists small JSON documents by key in one local file.
package localstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/example/onlinetravel/internal/crypto"
)

// Store is a JSON object on disk whose members are documents. The whole file is
// rewritten on every change.
type Store struct {
	path string
	key  []byte

	mu sync.Mutex
}

// Option customizes a Store.
type Option func(*Store)

// WithEncryptionKey seals every document with AES-256-GCM. The file then maps
// each key to a Base64 string instead of a plain document.
func WithEncryptionKey(key []byte) Option {
	return func(s *Store) { s.key = key }
}

// Open returns a store backed by path. The file is created by the first Put.
func Open(path string, opts ...Option) (*Store, error) {
	if path == "" {
		return nil, errors.New("localstore: path is required")
	}
	s := &Store{path: path}
	for _, opt := range opts {
		opt(s)
	}
	if s.key != nil {
		if _, err := crypto.Encrypt("", s.key); err != nil {
			return nil, fmt.Errorf("localstore: %w", err)
		}
	}
	return s, nil
}

// Path returns the backing file.
func (s *Store) Path() string { return s.path }

// Get decodes the document stored under key into v. It reports false when
// the key is absent.
func (s *Store) Get(key string, v interface{}) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs, err := s.load()
	if err != nil {
		return false, err
	}
	raw, ok := docs[key]
	if !ok {
		return false, nil
	}
	raw, err = s.open(raw)
	if err != nil {
		return false, fmt.Errorf("localstore: open %q: %w", key, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("localstore: decode %q: %w", key, err)
	}
	return true, nil
}

// Exists reports whether key holds a document.
func (s *Store) Exists(key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs, err := s.load()
	if err != nil {
		return false, err
	}
	_, ok := docs[key]
	return ok, nil
}

// Put replaces the document stored under key.
func (s *Store) Put(key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("localstore: encode %q: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	docs, err := s.load()
	if err != nil {
		return err
	}
	if raw, err = s.seal(raw); err != nil {
		return fmt.Errorf("localstore: seal %q: %w", key, err)
	}
	docs[key] = raw
	return s.save(docs)
}

// Delete removes key. Deleting an absent key is not an error.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := docs[key]; !ok {
		return nil
	}
	delete(docs, key)
	return s.save(docs)
}

// Keys lists the stored keys in order.
func (s *Store) Keys() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs, err := s.load()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(docs))
	for k := range docs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *Store) load() (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]json.RawMessage{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("localstore: read %s: %w", s.path, err)
	}
	docs := map[string]json.RawMessage{}
	if len(data) == 0 {
		return docs, nil
	}
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("localstore: parse %s: %w", s.path, err)
	}
	return docs, nil
}

func (s *Store) save(docs map[string]json.RawMessage) error {
	data, err := json.MarshalIndent(docs, "", "    ")
	if err != nil {
		return fmt.Errorf("localstore: encode file: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("localstore: create %s: %w", dir, err)
		}
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("localstore: write %s: %w", s.path, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("localstore: write %s: %w", s.path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("localstore: write %s: %w", s.path, err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("localstore: replace %s: %w", s.path, err)
	}
	return nil
}

func (s *Store) seal(raw json.RawMessage) (json.RawMessage, error) {
	if s.key == nil {
		return raw, nil
	}
	sealed, err := crypto.Encrypt(string(raw), s.key)
	if err != nil {
		return nil, err
	}
	return json.Marshal(sealed)
}

func (s *Store) open(raw json.RawMessage) (json.RawMessage, error) {
	if s.key == nil {
		return raw, nil
	}
	var sealed string
	if err := json.Unmarshal(raw, &sealed); err != nil {
		return nil, errors.New("document is not sealed")
	}
	plain, err := crypto.Decrypt(sealed, s.key)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(plain), nil
}
