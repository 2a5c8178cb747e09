// Package app holds the trip planner workflows behind every screen: signing
// in, editing trips, travelling a trip and sharing it. Workflows update State
// and move the navigation stack; screens only render.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/example/onlinetravel/internal/core"
	"github.com/example/onlinetravel/internal/models"
	"github.com/example/onlinetravel/internal/nav"
	"github.com/example/onlinetravel/internal/platform"
)

// Screen names registered on the navigation stack.
const (
	ScreenLogin             = "login"
	ScreenHome              = "home"
	ScreenTrips             = "trips"
	ScreenDestinations      = "destinations"
	ScreenDestinationEditor = "destination-editor"
	ScreenNotes             = "notes"
	ScreenSpents            = "spents"
	ScreenTracker           = "tracker"
)

var (
	ErrAnotherTripActive = errors.New("another trip is in progress, finish it first to start this trip")
	ErrNoActiveTrip      = errors.New("no trip in progress")
	ErrNoTrip            = errors.New("no trip selected")
	ErrNoDestination     = errors.New("no destination selected")
	ErrNotDestination    = errors.New("not a destination url")
	ErrNoDestinations    = errors.New("trip has no destinations")
)

// Deps are the collaborators of an App. Only Session is required; missing
// device capabilities make the matching workflows return platform.ErrUnsupported.
type Deps struct {
	Session  *core.Session
	Prompter Prompter
	Places   platform.PlacePicker
	Scanner  platform.QRScanner
	Maps     platform.MapLauncher
	Files    platform.FileChooser
	Sharer   platform.Sharer
	// Out receives the rendered screens.
	Out    io.Writer
	Logger *zap.Logger
}

// App is the trip planner application.
type App struct {
	session *core.Session
	state   *State
	nav     *nav.Stack

	prompter Prompter
	places   platform.PlacePicker
	scanner  platform.QRScanner
	maps     platform.MapLauncher
	files    platform.FileChooser
	sharer   platform.Sharer

	out    io.Writer
	logger *zap.Logger

	// workflows serializes the Async variants.
	workflows sync.Mutex
}

// New creates the application and registers its screens.
func New(deps Deps) *App {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	out := deps.Out
	if out == nil {
		out = io.Discard
	}
	prompter := deps.Prompter
	if prompter == nil {
		prompter = declineAll{}
	}
	a := &App{
		session:  deps.Session,
		state:    NewState(),
		nav:      nav.New(logger),
		prompter: prompter,
		places:   deps.Places,
		scanner:  deps.Scanner,
		maps:     deps.Maps,
		files:    deps.Files,
		sharer:   deps.Sharer,
		out:      out,
		logger:   logger,
	}
	a.registerScreens()
	return a
}

func (a *App) Session() *core.Session { return a.session }
func (a *App) State() *State          { return a.state }
func (a *App) Nav() *nav.Stack        { return a.nav }
func (a *App) Prompter() Prompter     { return a.prompter }

// Start resumes the cached session and shows the home screen, or the login
// screen when there is nothing to resume.
func (a *App) Start(ctx context.Context) error {
	if err := a.session.AutoLogin(ctx); err != nil {
		a.logger.Info("No session to resume", zap.Error(err))
		return a.nav.Show(ScreenLogin, true)
	}
	if err := a.LoadUserData(ctx); err != nil {
		return err
	}
	return a.nav.Show(ScreenHome, true)
}

// Login signs in, loads the user's trips and replaces the login screen with home.
func (a *App) Login(ctx context.Context, email, password string) error {
	if err := a.session.Login(ctx, email, password); err != nil {
		return err
	}
	if err := a.LoadUserData(ctx); err != nil {
		return err
	}
	return a.nav.Show(ScreenHome, true)
}

// Register creates an account without signing in.
func (a *App) Register(ctx context.Context, email, password string) error {
	return a.session.Register(ctx, email, password)
}

// SignOut asks for confirmation, forgets the session and shows the login
// screen. It reports whether the user confirmed.
func (a *App) SignOut() (bool, error) {
	if !a.prompter.Confirm("Sign out", "Are you sure to sign out?") {
		return false, nil
	}
	a.session.SignOut()
	a.state.Reset()
	return true, a.nav.Show(ScreenLogin, true)
}

// LoadUserData fetches the trip list and the tracked trip in parallel. The
// tracked copy becomes the active trip; without one, the first listed trip
// flagged active is used.
func (a *App) LoadUserData(ctx context.Context) error {
	if a.session.State() != core.Authenticated {
		a.state.Reset()
		return nil
	}
	trips, tracker, err := a.managers()
	if err != nil {
		return err
	}

	var listed []*models.Trip
	var tracked *models.Trip
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		listed, err = trips.List(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		tracked, err = tracker.Active(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to load user data: %w", err)
	}

	a.state.Reset()
	a.state.SetTrips(listed)
	active := tracked
	if active == nil {
		for _, t := range listed {
			if t.Active {
				active = t
				break
			}
		}
	}
	a.state.SetActiveTrip(active)
	a.logger.Debug("Loaded user data", zap.Int("trips", len(listed)), zap.Bool("active", active != nil))
	return nil
}

// managers returns the signed-in user's trip list and tracker.
func (a *App) managers() (*core.TripManager, *core.TripTracker, error) {
	trips, tracker := a.session.Trips(), a.session.Tracker()
	if trips == nil || tracker == nil {
		return nil, nil, core.ErrNotAuthenticated
	}
	return trips, tracker, nil
}

func (a *App) shares() (*core.ShareManager, error) {
	share := a.session.Share()
	if share == nil {
		return nil, core.ErrNotAuthenticated
	}
	return share, nil
}
