package cli_test

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/example/onlinetravel/internal/app"
	"github.com/example/onlinetravel/internal/backend"
	"github.com/example/onlinetravel/internal/cli"
	"github.com/example/onlinetravel/internal/config"
)

// harness runs commands against one in-memory backend and one session file,
// the way separate invocations share the remote store and the local cache.
type harness struct {
	cfg     *config.Config
	backend *backend.Backend
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := &config.Config{
		Backend:        config.BackendMemory,
		BackendDomain:  "share.test",
		BackendScheme:  "http",
		LocalCachePath: filepath.Join(t.TempDir(), "onlinetravel.cache.json"),
		TokenSecret:    "test-secret",
		TokenTTL:       time.Hour,
		QRScale:        1,
	}
	b, err := backend.New(context.Background(), cfg, nil)
	require.NoError(t, err)
	return &harness{cfg: cfg, backend: b}
}

func (h *harness) run(stdin string, args ...string) (string, error) {
	cmd := cli.NewRootCommand(cli.Options{Config: h.cfg, Backend: h.backend, Logger: zap.NewNop()})
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (h *harness) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := h.run("", args...)
	require.NoError(t, err, out)
	return out
}

func (h *harness) signedIn(t *testing.T) {
	t.Helper()
	h.mustRun(t, "register", "ann@example.com", "-p", "secret1")
	h.mustRun(t, "login", "ann@example.com", "-p", "secret1")
}

func TestRootCommand_planTravelAndShare(t *testing.T) {
	h := newHarness(t)
	assert.Contains(t, h.mustRun(t, "register", "ann@example.com", "-p", "secret1"), "successfully created")
	assert.Contains(t, h.mustRun(t, "login", "ann@example.com", "-p", "secret1"), "Signed in as ann@example.com")

	h.mustRun(t, "trips", "add", "Lisbon", "--days", "2")
	h.mustRun(t, "dest", "add", "Lisbon", "--name", "Alfama", "--lat", "38.71", "--lng", "-9.13", "--day", "1", "--time", "18:00", "--by", "walk")
	h.mustRun(t, "dest", "add", "1", "--name", "Belem")

	var dests []map[string]interface{}
	require.NoError(t, yaml.Unmarshal([]byte(h.mustRun(t, "dest", "list", "1", "-o", "yaml")), &dests))
	require.Len(t, dests, 2)
	assert.Equal(t, "Belem", dests[0]["name"], "unscheduled destinations come first")
	assert.Equal(t, "walk", dests[1]["transportation"])

	h.mustRun(t, "trip", "start", "1")
	_, err := h.run("", "trip", "start", "1")
	require.ErrorIs(t, err, app.ErrAnotherTripActive)

	h.mustRun(t, "spent", "add", "--active", "Alfama", "Tram", "4")
	h.mustRun(t, "note", "add", "--active", "Alfama", "Take", "tram", "28")
	assert.Contains(t, h.mustRun(t, "trip", "active"), "Alfama")

	var finished map[string]interface{}
	require.NoError(t, yaml.Unmarshal([]byte(h.mustRun(t, "trip", "finish", "-o", "yaml", "--yes")), &finished))
	assert.Equal(t, 4, finished["budget"])
	assert.Equal(t, false, finished["active"])
	assert.Contains(t, h.mustRun(t, "trip", "active"), "No trip in progress")

	var trips []map[string]interface{}
	require.NoError(t, yaml.Unmarshal([]byte(h.mustRun(t, "trips", "list", "-o", "yaml")), &trips))
	require.Len(t, trips, 1)
	assert.Equal(t, 4, trips[0]["budget"])

	shareURL := strings.TrimSpace(h.mustRun(t, "share", "url", "1", "Alfama", "1"))
	assert.True(t, strings.HasPrefix(shareURL, "http://share.test/"), shareURL)
	assert.True(t, strings.HasSuffix(shareURL, "?note"), shareURL)
	assert.Contains(t, h.mustRun(t, "share", "resolve", shareURL), "Take tram 28")

	var code app.ShareCode
	require.NoError(t, yaml.Unmarshal([]byte(h.mustRun(t, "share", "qr", "1", "-o", "yaml")), &code))
	assert.True(t, strings.HasSuffix(code.URL, "?trip"))
	assert.NotEmpty(t, code.Image)
}

func TestRootCommand_requiresSignIn(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("", "trips", "list")

	require.ErrorIs(t, err, cli.ErrNotSignedIn)
	assert.Contains(t, h.mustRun(t, "whoami"), "Not signed in")
}

func TestRootCommand_loginPromptsForPassword(t *testing.T) {
	h := newHarness(t)
	h.mustRun(t, "register", "ann@example.com", "-p", "secret1")

	out, err := h.run("secret1\n", "login", "ann@example.com")

	require.NoError(t, err, out)
	assert.Contains(t, out, "Password")
	assert.Contains(t, h.mustRun(t, "whoami"), "ann@example.com")
}

func TestRootCommand_deleteAsksFirst(t *testing.T) {
	h := newHarness(t)
	h.signedIn(t)
	h.mustRun(t, "trips", "add", "Lisbon")

	out, err := h.run("n\n", "trips", "delete", "Lisbon")
	require.NoError(t, err, out)
	assert.NotContains(t, out, "Deleted")
	assert.Contains(t, h.mustRun(t, "trips", "list"), "Lisbon")

	assert.Contains(t, h.mustRun(t, "trips", "delete", "1", "--yes"), "Deleted trip Lisbon")
	assert.NotContains(t, h.mustRun(t, "trips", "list"), "Lisbon")
}

func TestRootCommand_finishAndCancelAskFirst(t *testing.T) {
	h := newHarness(t)
	h.signedIn(t)
	h.mustRun(t, "trips", "add", "Lisbon")
	h.mustRun(t, "trip", "start", "Lisbon")

	out, err := h.run("n\n", "trip", "finish")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Are you sure to finish this trip?")
	assert.NotContains(t, out, "Finished")

	out, err = h.run("n\n", "trip", "cancel")
	require.NoError(t, err, out)
	assert.NotContains(t, out, "Trip cancelled")
	assert.Contains(t, h.mustRun(t, "trip", "active"), "Lisbon")

	out, err = h.run("y\n", "trip", "cancel")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Trip cancelled")
	assert.Contains(t, h.mustRun(t, "trip", "active"), "No trip in progress")
}

func TestRootCommand_logout(t *testing.T) {
	h := newHarness(t)
	h.signedIn(t)

	assert.Contains(t, h.mustRun(t, "logout", "-y"), "Signed out.")

	out := h.mustRun(t, "whoami")
	assert.Contains(t, out, "Not signed in (last login: ann@example.com)")
}

func TestRootCommand_errors(t *testing.T) {
	h := newHarness(t)
	h.signedIn(t)

	_, err := h.run("", "trips", "list", "-o", "xml")
	require.Error(t, err)

	_, err = h.run("", "trips", "rename", "Porto", "Faro")
	require.ErrorIs(t, err, cli.ErrNotFound)

	_, err = h.run("", "trip", "finish")
	require.ErrorIs(t, err, app.ErrNoActiveTrip)

	_, err = h.run("", "dest", "list", "--active")
	require.ErrorIs(t, err, app.ErrNoActiveTrip)
}

func TestRootCommand_shell(t *testing.T) {
	h := newHarness(t)
	h.signedIn(t)
	h.mustRun(t, "trips", "add", "Lisbon")

	out, err := h.run("trips\nquit\n", "shell")

	require.NoError(t, err, out)
	assert.Contains(t, out, "== Online Travel ==")
	assert.Contains(t, out, "== Trips ==")
	assert.Contains(t, out, "Lisbon")
}
