package app

import (
	"context"

	"github.com/example/onlinetravel/internal/models"
	"github.com/example/onlinetravel/internal/task"
)

// The Async variants run a remote workflow in the background. Callers wait on
// the future; there is no retry and no timeout beyond ctx. Background
// workflows of one App run one at a time, in the order they acquire the
// workflow lock, since each of them edits trips, State and the screen stack.

func (a *App) StartAsync(ctx context.Context) *task.Future[struct{}] {
	return task.Run(ctx, a.serial(a.Start))
}

func (a *App) LoginAsync(ctx context.Context, email, password string) *task.Future[struct{}] {
	return task.Run(ctx, a.serial(func(ctx context.Context) error { return a.Login(ctx, email, password) }))
}

func (a *App) RegisterAsync(ctx context.Context, email, password string) *task.Future[struct{}] {
	return task.Run(ctx, a.serial(func(ctx context.Context) error { return a.Register(ctx, email, password) }))
}

func (a *App) LoadUserDataAsync(ctx context.Context) *task.Future[struct{}] {
	return task.Run(ctx, a.serial(a.LoadUserData))
}

func (a *App) AddTripAsync(ctx context.Context, name string) *task.Future[*models.Trip] {
	return task.Go(ctx, serialized(a, func(ctx context.Context) (*models.Trip, error) { return a.AddTrip(ctx, name) }))
}

func (a *App) OpenTripAsync(ctx context.Context, trip *models.Trip) *task.Future[struct{}] {
	return task.Run(ctx, a.serial(func(ctx context.Context) error { return a.OpenTrip(ctx, trip) }))
}

func (a *App) StartTripAsync(ctx context.Context, trip *models.Trip) *task.Future[*models.Trip] {
	return task.Go(ctx, serialized(a, func(ctx context.Context) (*models.Trip, error) { return a.StartTrip(ctx, trip) }))
}

func (a *App) FinishTripAsync(ctx context.Context) *task.Future[Outcome[*models.Trip]] {
	return task.Go(ctx, serialized(a, func(ctx context.Context) (Outcome[*models.Trip], error) {
		trip, ok, err := a.FinishTrip(ctx)
		return Outcome[*models.Trip]{Value: trip, Confirmed: ok}, err
	}))
}

func (a *App) CancelTripAsync(ctx context.Context) *task.Future[bool] {
	return task.Go(ctx, serialized(a, a.CancelTrip))
}

func (a *App) AddDestinationAsync(ctx context.Context, place models.Place, tracked bool) *task.Future[*models.Destination] {
	return task.Go(ctx, serialized(a, func(ctx context.Context) (*models.Destination, error) {
		return a.AddDestination(ctx, place, tracked)
	}))
}

func (a *App) DeleteTripAsync(ctx context.Context, trip *models.Trip) *task.Future[bool] {
	return task.Go(ctx, serialized(a, func(ctx context.Context) (bool, error) { return a.DeleteTrip(ctx, trip) }))
}

func (a *App) ShareQRAsync(ctx context.Context, trip *models.Trip, dest *models.Destination, note *models.Note) *task.Future[ShareCode] {
	return task.Go(ctx, serialized(a, func(ctx context.Context) (ShareCode, error) { return a.ShareQR(ctx, trip, dest, note) }))
}

func (a *App) ImportDestinationAsync(ctx context.Context, rawURL string) *task.Future[models.Place] {
	return task.Go(ctx, serialized(a, func(ctx context.Context) (models.Place, error) { return a.ImportDestination(ctx, rawURL) }))
}

// Outcome is the result of a workflow the user may decline.
type Outcome[T any] struct {
	Value     T
	Confirmed bool
}

func (a *App) serial(fn func(ctx context.Context) error) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		a.workflows.Lock()
		defer a.workflows.Unlock()
		return fn(ctx)
	}
}

func serialized[T any](a *App, fn func(ctx context.Context) (T, error)) func(ctx context.Context) (T, error) {
	return func(ctx context.Context) (T, error) {
		a.workflows.Lock()
		defer a.workflows.Unlock()
		return fn(ctx)
	}
}
