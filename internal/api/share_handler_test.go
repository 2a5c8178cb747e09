package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/example/onlinetravel/internal/api"
	"github.com/example/onlinetravel/internal/cache"
	"github.com/example/onlinetravel/internal/core"
	"github.com/example/onlinetravel/internal/db"
	"github.com/example/onlinetravel/internal/identity"
	"github.com/example/onlinetravel/internal/models"
)

const backendURL = "http://share.test"

func init() {
	gin.SetMode(gin.TestMode)
}

type fixture struct {
	provider *identity.Local
	mem      *db.Memory
	files    *db.MemoryFiles
	cache    *cache.Memory
	router   *gin.Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	provider, err := identity.NewLocal([]byte("test-secret"), time.Hour, identity.WithBcryptCost(bcrypt.MinCost))
	require.NoError(t, err)
	f := &fixture{
		provider: provider,
		mem:      db.NewMemory(provider),
		files:    db.NewMemoryFiles(provider, "test-bucket"),
		cache:    cache.NewMemory(time.Minute),
	}
	f.router = f.newRouter(f.mem)
	return f
}

func (f *fixture) newRouter(database db.Database) *gin.Engine {
	router := gin.New()
	h := api.NewShareHandler(database, f.files, backendURL, f.cache, time.Minute, nil)
	api.SetupRoutes(router, f.provider, h, nil)
	return router
}

func (f *fixture) signUp(t *testing.T, email string) identity.Account {
	t.Helper()
	acc, err := f.provider.SignUp(context.Background(), email, "secret1")
	require.NoError(t, err)
	return acc
}

// seed stores a Lisbon trip with one destination and one note for acc and
// returns the share urls of all three.
func (f *fixture) seed(t *testing.T, acc identity.Account) (trip, dest, note string) {
	t.Helper()
	ctx := context.Background()
	trips := core.NewTripManager(db.NewClient(f.mem, f.files, acc.Token, db.UsersRoot, acc.UID, db.TripsNode), nil)
	shares := core.NewShareManager(db.NewClient(f.mem, f.files, acc.Token), acc.UID, backendURL, nil, nil)

	tr := &models.Trip{Name: "Lisbon", Days: 2}
	require.NoError(t, trips.Add(ctx, tr))
	d := &models.Destination{Place: models.Place{Name: "Alfama", Latitude: 38.71, Longitude: -9.13}}
	require.NoError(t, trips.AddDestination(ctx, tr, d))
	n := &models.Note{Content: "Take tram 28"}
	require.NoError(t, trips.AddNote(ctx, tr, d, n))

	var err error
	trip, err = shares.ShareURL(tr, nil, nil)
	require.NoError(t, err)
	dest, err = shares.ShareURL(tr, d, nil)
	require.NoError(t, err)
	note, err = shares.ShareURL(tr, d, n)
	require.NoError(t, err)
	return trip, dest, note
}

func get(router *gin.Engine, rawURL, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, strings.TrimPrefix(rawURL, backendURL), nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) api.EntityResponse {
	t.Helper()
	var resp api.EntityResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestSetupRoutes_ping(t *testing.T) {
	f := newFixture(t)

	rec := get(f.router, "/ping", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"pong"}`, rec.Body.String())
}

func TestShareHandler_GetShared_resolvesEveryKind(t *testing.T) {
	f := newFixture(t)
	ann := f.signUp(t, "ann@example.com")
	bob := f.signUp(t, "bob@example.com")
	tripURL, destURL, noteURL := f.seed(t, ann)

	rec := get(f.router, tripURL, bob.Token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	trip := decode(t, rec)
	assert.Equal(t, models.KindTrip, trip.Kind)
	assert.Equal(t, "Lisbon", trip.Data["name"])
	assert.Contains(t, trip.Data, "destinations")

	rec = get(f.router, destURL, bob.Token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	dest := decode(t, rec)
	assert.Equal(t, models.KindDestination, dest.Kind)
	assert.Equal(t, "Alfama", dest.Data["name"])

	rec = get(f.router, noteURL, bob.Token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	note := decode(t, rec)
	assert.Equal(t, models.KindNote, note.Kind)
	assert.Equal(t, "Take tram 28", note.Data["content"])
}

func TestShareHandler_GetShared_errors(t *testing.T) {
	f := newFixture(t)
	ann := f.signUp(t, "ann@example.com")
	tripURL, _, _ := f.seed(t, ann)

	tests := []struct {
		name  string
		path  string
		token string
		want  int
	}{
		{name: "missing token", path: tripURL, want: http.StatusUnauthorized},
		{name: "bad token", path: tripURL, token: "garbage", want: http.StatusUnauthorized},
		{name: "unknown kind", path: strings.Replace(tripURL, "?trip", "?vault", 1), token: ann.Token, want: http.StatusBadRequest},
		{name: "kind does not match path", path: strings.Replace(tripURL, "?trip", "?note", 1), token: ann.Token, want: http.StatusBadRequest},
		{name: "missing trip", path: "/" + ann.UID + "/nope?trip", token: ann.Token, want: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(f.router, tt.path, tt.token)

			assert.Equal(t, tt.want, rec.Code)
			var resp api.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Error)
		})
	}
}

// deniedDatabase rejects every read.
type deniedDatabase struct {
	db.Database
}

func (deniedDatabase) Get(context.Context, string, string) (json.RawMessage, error) {
	return nil, db.ErrPermissionDenied
}

func TestShareHandler_GetShared_permissionDenied(t *testing.T) {
	f := newFixture(t)
	ann := f.signUp(t, "ann@example.com")
	router := f.newRouter(deniedDatabase{})

	rec := get(router, "/"+ann.UID+"/t1?trip", ann.Token)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

// failingDatabase fails every read with an unexpected error.
type failingDatabase struct {
	db.Database
}

func (failingDatabase) Get(context.Context, string, string) (json.RawMessage, error) {
	return nil, errors.New("connection reset")
}

func TestShareHandler_GetShared_internalError(t *testing.T) {
	f := newFixture(t)
	ann := f.signUp(t, "ann@example.com")
	router := f.newRouter(failingDatabase{})

	rec := get(router, "/"+ann.UID+"/t1?trip", ann.Token)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection reset")
}

func TestShareHandler_GetShared_cachesResolvedDocuments(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ann := f.signUp(t, "ann@example.com")
	tripURL, _, _ := f.seed(t, ann)

	first := get(f.router, tripURL, ann.Token)
	require.Equal(t, http.StatusOK, first.Code)

	link, err := core.ParseShareURL(tripURL, "share.test")
	require.NoError(t, err)
	trips := db.NewClient(f.mem, f.files, ann.Token, db.UsersRoot, ann.UID, db.TripsNode)
	require.NoError(t, trips.Remove(ctx, link.TripID))

	second := get(f.router, tripURL, ann.Token)
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())

	_, ok, err := f.cache.Get(ctx, "share:"+tripURL)
	require.NoError(t, err)
	assert.True(t, ok)
}
