package app_test

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/example/onlinetravel/internal/app"
	"github.com/example/onlinetravel/internal/core"
	"github.com/example/onlinetravel/internal/db"
	"github.com/example/onlinetravel/internal/identity"
	"github.com/example/onlinetravel/internal/localstore"
	"github.com/example/onlinetravel/internal/models"
	"github.com/example/onlinetravel/internal/platform"
)

const backendURL = "http://share.test"

type backend struct {
	provider *identity.Local
	mem      *db.Memory
	files    *db.MemoryFiles
}

func newBackend(t *testing.T) *backend {
	t.Helper()
	provider, err := identity.NewLocal([]byte("test-secret"), time.Hour, identity.WithBcryptCost(bcrypt.MinCost))
	require.NoError(t, err)
	return &backend{
		provider: provider,
		mem:      db.NewMemory(provider),
		files:    db.NewMemoryFiles(provider, "test-bucket"),
	}
}

func (b *backend) session(t *testing.T, cache core.SessionCache) *core.Session {
	t.Helper()
	if cache == nil {
		cache = newCache(t)
	}
	return core.NewSession(core.SessionDeps{
		Provider:   b.provider,
		Database:   b.mem,
		Files:      b.files,
		Cache:      cache,
		BackendURL: backendURL,
		Encoder:    platform.NewPNGEncoder(1),
	})
}

func newCache(t *testing.T) *localstore.Store {
	t.Helper()
	s, err := localstore.Open(filepath.Join(t.TempDir(), "onlinetravel.cache.json"))
	require.NoError(t, err)
	return s
}

// mockPrompter is a function-field app.Prompter. Unset fields cancel.
type mockPrompter struct {
	input   func(title, label, initial string) (string, bool)
	choose  func(title string, options []string, initial string) (string, bool)
	confirm func(title, text string) bool
}

var _ app.Prompter = (*mockPrompter)(nil)

func (m *mockPrompter) Input(title, label, initial string) (string, bool) {
	if m.input == nil {
		return "", false
	}
	return m.input(title, label, initial)
}

func (m *mockPrompter) Select(title string, options []string, initial string) (string, bool) {
	if m.choose == nil {
		return "", false
	}
	return m.choose(title, options, initial)
}

func (m *mockPrompter) Confirm(title, text string) bool {
	if m.confirm == nil {
		return false
	}
	return m.confirm(title, text)
}

type mockMaps struct {
	opened []string
}

var _ platform.MapLauncher = (*mockMaps)(nil)

func (m *mockMaps) Open(uri string) error {
	m.opened = append(m.opened, uri)
	return nil
}

type mockPlaces struct {
	pick func(ctx context.Context) (models.Place, bool, error)
}

var _ platform.PlacePicker = (*mockPlaces)(nil)

func (m *mockPlaces) Pick(ctx context.Context) (models.Place, bool, error) { return m.pick(ctx) }

type mockScanner struct {
	codes   []string
	started bool
	stopped bool
}

var _ platform.QRScanner = (*mockScanner)(nil)

func (m *mockScanner) Start(context.Context) error { m.started = true; return nil }
func (m *mockScanner) Stop() error                 { m.stopped = true; return nil }

func (m *mockScanner) Scan(ctx context.Context) (string, error) {
	if len(m.codes) == 0 {
		<-ctx.Done()
		return "", ctx.Err()
	}
	code := m.codes[0]
	m.codes = m.codes[1:]
	return code, nil
}

type mockFiles struct {
	path string
}

var _ platform.FileChooser = (*mockFiles)(nil)

func (m *mockFiles) Choose(context.Context, []string) (string, bool, error) {
	return m.path, m.path != "", nil
}

type mockSharer struct {
	subject, content string
}

func (m *mockSharer) Share(_ context.Context, subject, content string) error {
	m.subject, m.content = subject, content
	return nil
}

func yes() *mockPrompter {
	return &mockPrompter{confirm: func(string, string) bool { return true }}
}

// newApp creates an app for a freshly registered and signed-in user.
func (b *backend) newApp(t *testing.T, email string, deps app.Deps) *app.App {
	t.Helper()
	ctx := context.Background()
	if deps.Session == nil {
		deps.Session = b.session(t, nil)
	}
	if deps.Out == nil {
		deps.Out = &bytes.Buffer{}
	}
	a := app.New(deps)
	require.NoError(t, a.Register(ctx, email, "secret1"))
	require.NoError(t, a.Login(ctx, email, "secret1"))
	return a
}

// lisbon adds a two-day trip with one scheduled destination and opens it.
func lisbon(t *testing.T, a *app.App) *models.Trip {
	t.Helper()
	ctx := context.Background()
	trip, err := a.AddTrip(ctx, "Lisbon")
	require.NoError(t, err)
	require.NoError(t, a.SetTripDays(ctx, trip, "2"))
	require.NoError(t, a.OpenTrip(ctx, trip))
	dest, err := a.AddDestination(ctx, models.Place{Name: "Alfama", Latitude: 38.71, Longitude: -9.13}, false)
	require.NoError(t, err)
	require.NoError(t, a.SetDestinationDay(ctx, dest, "1", false))
	return trip
}
