package db_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/onlinetravel/internal/db"
)

// tokens maps a bearer token to its uid.
type tokens map[string]string

func (t tokens) Verify(_ context.Context, token string) (string, error) {
	uid, ok := t[token]
	if !ok {
		return "", errors.New("token expired")
	}
	return uid, nil
}

var _ db.TokenVerifier = tokens(nil)

func newMemory() (*db.Memory, *db.MemoryFiles) {
	v := tokens{"tok-alice": "alice", "tok-bob": "bob"}
	return db.NewMemory(v), db.NewMemoryFiles(v, "test-bucket")
}

func TestClient_List_absentPathIsEmpty(t *testing.T) {
	mem, files := newMemory()
	c := db.NewClient(mem, files, "tok-alice", "users", "alice", "trips")

	items, err := c.List(context.Background())

	require.NoError(t, err)
	require.NotNil(t, items)
	assert.Empty(t, items)

	items, err = c.ListBy(context.Background(), "active", true)
	require.NoError(t, err)
	require.NotNil(t, items)
	assert.Empty(t, items)
}

func TestClient_Push_idStableAcrossUpdate(t *testing.T) {
	ctx := context.Background()
	mem, files := newMemory()
	c := db.NewClient(mem, files, "tok-alice", "users", "alice", "trips")

	id, err := c.Push(ctx, map[string]interface{}{"name": "Rome", "days": 3})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	require.NoError(t, c.Update(ctx, map[string]interface{}{"name": "Roma"}, id))

	items, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, id, items[0].Key)
	assert.JSONEq(t, `{"name":"Roma","days":3}`, string(items[0].Value))
}

func TestClient_Push_keysSortInCreationOrder(t *testing.T) {
	ctx := context.Background()
	mem, files := newMemory()
	c := db.NewClient(mem, files, "tok-alice", "users", "alice", "trips")

	var ids []string
	for i := 0; i < 20; i++ {
		id, err := c.Push(ctx, map[string]interface{}{"n": i})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	items, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, len(ids))
	for i, it := range items {
		assert.Equal(t, ids[i], it.Key)
	}
}

func TestClient_Get_absentIsNil(t *testing.T) {
	mem, files := newMemory()
	c := db.NewClient(mem, files, "tok-alice", "users", "alice")

	raw, err := c.Get(context.Background(), "active")

	require.NoError(t, err)
	assert.Nil(t, raw)
}

func TestClient_SetRemove_prunesEmptyParents(t *testing.T) {
	ctx := context.Background()
	mem, files := newMemory()
	c := db.NewClient(mem, files, "tok-alice", "users", "alice")

	require.NoError(t, c.Set(ctx, map[string]interface{}{"name": "Oslo", "destinations": map[string]interface{}{}}, "active"))
	raw, err := c.Get(ctx, "active")
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Oslo"}`, string(raw))

	require.NoError(t, c.Remove(ctx, "active"))
	assert.JSONEq(t, `{}`, string(mem.Dump()))
}

func TestClient_Update_nestedKeys(t *testing.T) {
	ctx := context.Background()
	mem, files := newMemory()
	c := db.NewClient(mem, files, "tok-alice", "users", "alice", "trips")

	require.NoError(t, c.Set(ctx, map[string]interface{}{"name": "Nice", "days": 2}, "t1"))
	require.NoError(t, c.Update(ctx, map[string]interface{}{"name": "Nizza", "destinations/d1": map[string]interface{}{"name": "Port"}}, "t1"))

	raw, err := c.Get(ctx, "t1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Nizza","days":2,"destinations":{"d1":{"name":"Port"}}}`, string(raw))
}

func TestClient_ListBy_equality(t *testing.T) {
	ctx := context.Background()
	mem, files := newMemory()
	c := db.NewClient(mem, files, "tok-alice", "users", "alice", "trips")

	require.NoError(t, c.Set(ctx, map[string]interface{}{"name": "A", "active": true}, "a"))
	require.NoError(t, c.Set(ctx, map[string]interface{}{"name": "B", "active": false}, "b"))
	require.NoError(t, c.Set(ctx, map[string]interface{}{"name": "C", "active": true}, "c"))

	items, err := c.ListBy(ctx, "active", true)

	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0].Key)
	assert.Equal(t, "c", items[1].Key)
}

func TestMemory_accessRules(t *testing.T) {
	ctx := context.Background()
	mem, files := newMemory()
	alice := db.NewClient(mem, files, "tok-alice", "users", "alice")
	bobAtAlice := db.NewClient(mem, files, "tok-bob", "users", "alice")

	require.NoError(t, alice.Set(ctx, map[string]interface{}{"name": "Bergen", "days": 1}, "trips", "t1"))
	require.NoError(t, alice.Set(ctx, map[string]interface{}{"name": "Bergen", "days": 1}, "active"))

	raw, err := bobAtAlice.Get(ctx, "trips", "t1")
	require.NoError(t, err, "trips are readable by other users")
	assert.Contains(t, string(raw), "Bergen")

	_, err = bobAtAlice.Get(ctx, "active")
	require.ErrorIs(t, err, db.ErrPermissionDenied)

	err = bobAtAlice.Update(ctx, map[string]interface{}{"name": "x"}, "trips", "t1")
	require.ErrorIs(t, err, db.ErrPermissionDenied)

	_, err = bobAtAlice.List(ctx)
	require.ErrorIs(t, err, db.ErrPermissionDenied)
}

func TestMemory_unauthenticated(t *testing.T) {
	mem, files := newMemory()

	_, err := db.NewClient(mem, files, "stale", "users", "alice").Get(context.Background(), "trips")
	require.ErrorIs(t, err, db.ErrUnauthenticated)

	_, err = db.NewClient(mem, files, "", "users", "alice").Get(context.Background(), "trips")
	require.ErrorIs(t, err, db.ErrUnauthenticated)
}

func TestClient_invalidPath(t *testing.T) {
	mem, files := newMemory()
	c := db.NewClient(mem, files, "tok-alice", "users", "alice")

	_, err := c.Get(context.Background(), "trips", "bad.key")

	require.ErrorIs(t, err, db.ErrInvalidPath)
}

func TestClient_PutFile_GetFile(t *testing.T) {
	ctx := context.Background()
	mem, files := newMemory()
	c := db.NewClient(mem, files, "tok-alice", "users", "alice", "trips")

	url, err := c.PutFile(ctx, strings.NewReader("jpeg bytes"), "n1.jpg")
	require.NoError(t, err)
	assert.Contains(t, url, "test-bucket")
	assert.Contains(t, url, "users%2Falice%2Ftrips%2Fn1.jpg")

	data, err := c.GetFile(ctx, "n1.jpg")
	require.NoError(t, err)
	assert.Equal(t, "jpeg bytes", string(data))

	_, err = c.GetFile(ctx, "missing.jpg")
	require.ErrorIs(t, err, db.ErrNotFound)
}

// unconfirmedFiles accepts uploads without reporting a stored object name.
type unconfirmedFiles struct{}

func (unconfirmedFiles) Put(context.Context, string, string, io.Reader) (db.Upload, error) {
	return db.Upload{URL: "https://example.invalid/ignored"}, nil
}

func (unconfirmedFiles) Get(context.Context, string, string) ([]byte, error) { return nil, nil }

var _ db.FileStore = unconfirmedFiles{}

func TestClient_PutFile_unconfirmedUploadYieldsEmptyURL(t *testing.T) {
	mem, _ := newMemory()
	c := db.NewClient(mem, unconfirmedFiles{}, "tok-alice", "shared")

	url, err := c.PutFile(context.Background(), strings.NewReader("png"), "x.png")

	require.NoError(t, err)
	assert.Empty(t, url)
}

func TestAllowed(t *testing.T) {
	cases := []struct {
		uid   string
		path  string
		write bool
		want  bool
	}{
		{"alice", "users/alice/trips/t1", true, true},
		{"alice", "users/alice/active", false, true},
		{"bob", "users/alice/trips/t1/destinations/d1", false, true},
		{"bob", "users/alice/trips", true, false},
		{"bob", "users/alice/active", false, false},
		{"bob", "users/alice", false, false},
		{"bob", "shared/t1.png", true, true},
		{"", "shared/t1.png", false, false},
		{"alice", "", false, false},
		{"alice", "other/x", false, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, db.Allowed(tc.uid, tc.path, tc.write), "%s %s write=%v", tc.uid, tc.path, tc.write)
	}
}

func TestJoinPath(t *testing.T) {
	p, err := db.JoinPath("users", "alice", "t1/destinations", "", "/d1/")
	require.NoError(t, err)
	assert.Equal(t, "users/alice/t1/destinations/d1", p)
}

func TestDownloadURL(t *testing.T) {
	u := db.DownloadURL("b.appspot.com", "shared/t 1.png", "tok")
	assert.Equal(t, "https://firebasestorage.googleapis.com/v0/b/b.appspot.com/o/shared%2Ft%201.png?alt=media&token=tok", u)
}

func TestMemory_Dump_isJSON(t *testing.T) {
	mem, _ := newMemory()
	var v map[string]interface{}
	require.NoError(t, json.Unmarshal(mem.Dump(), &v))
}
