package localstore_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/onlinetravel/internal/localstore"
)

type session struct {
	Token string `json:"token"`
	Email string `json:"email"`
}

func TestStore_PutGet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	s, err := localstore.Open(path)
	require.NoError(t, err)

	var got session
	ok, err := s.Get("session", &got)
	require.NoError(t, err)
	assert.False(t, ok, "missing file reads as empty")

	require.NoError(t, s.Put("session", session{Token: "tok", Email: "ann@example.com"}))

	ok, err = s.Get("session", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, session{Token: "tok", Email: "ann@example.com"}, got)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var file map[string]map[string]string
	require.NoError(t, json.Unmarshal(data, &file))
	assert.Equal(t, "ann@example.com", file["session"]["email"])
}

func TestStore_survivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cache.json")
	s, err := localstore.Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Put("a", 1))
	require.NoError(t, s.Put("b", "two"))

	reopened, err := localstore.Open(path)
	require.NoError(t, err)
	keys, err := reopened.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, keys)

	var b string
	ok, err := reopened.Get("b", &b)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "two", b)
}

func TestStore_Delete(t *testing.T) {
	s, err := localstore.Open(filepath.Join(t.TempDir(), "cache.json"))
	require.NoError(t, err)
	require.NoError(t, s.Put("session", session{Token: "tok"}))

	require.NoError(t, s.Delete("session"))
	require.NoError(t, s.Delete("session"))

	ok, err := s.Exists("session")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_encrypted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	key := bytes.Repeat([]byte{1}, 32)
	s, err := localstore.Open(path, localstore.WithEncryptionKey(key))
	require.NoError(t, err)
	require.NoError(t, s.Put("session", session{Token: "secret-token", Email: "ann@example.com"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret-token")

	var got session
	ok, err := s.Get("session", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "secret-token", got.Token)

	other, err := localstore.Open(path, localstore.WithEncryptionKey(bytes.Repeat([]byte{2}, 32)))
	require.NoError(t, err)
	_, err = other.Get("session", &got)
	require.Error(t, err)
}

func TestOpen_rejectsBadInput(t *testing.T) {
	_, err := localstore.Open("")
	require.Error(t, err)

	_, err = localstore.Open("x.json", localstore.WithEncryptionKey([]byte("short")))
	require.Error(t, err)
}

func TestStore_corruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	s, err := localstore.Open(path)
	require.NoError(t, err)

	var v session
	_, err = s.Get("session", &v)
	require.Error(t, err)
}
