package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/example/onlinetravel/internal/models"
)

// AddTrip creates a one-day trip named name and appends it to the list.
func (a *App) AddTrip(ctx context.Context, name string) (*models.Trip, error) {
	trips, _, err := a.managers()
	if err != nil {
		return nil, err
	}
	trip := &models.Trip{Name: strings.TrimSpace(name), Days: 1}
	if err := trips.Add(ctx, trip); err != nil {
		return nil, err
	}
	a.state.AddTrip(trip)
	return trip, nil
}

// RenameTrip changes the name of trip.
func (a *App) RenameTrip(ctx context.Context, trip *models.Trip, name string) error {
	trips, _, err := a.managers()
	if err != nil {
		return err
	}
	prev := trip.Name
	trip.Name = strings.TrimSpace(name)
	if err := trips.Update(ctx, trip, false); err != nil {
		trip.Name = prev
		return err
	}
	return nil
}

// SetTripDays changes the length of trip. days is the text the user typed.
func (a *App) SetTripDays(ctx context.Context, trip *models.Trip, days string) error {
	n, err := strconv.Atoi(strings.TrimSpace(days))
	if err != nil {
		return fmt.Errorf("%w: days must be a whole number", models.ErrValidation)
	}
	trips, _, err := a.managers()
	if err != nil {
		return err
	}
	prev := trip.Days
	trip.Days = n
	if err := trips.Update(ctx, trip, false); err != nil {
		trip.Days = prev
		return err
	}
	return nil
}

// DeleteTrip removes trip after confirmation and reports whether it did.
func (a *App) DeleteTrip(ctx context.Context, trip *models.Trip) (bool, error) {
	trips, _, err := a.managers()
	if err != nil {
		return false, err
	}
	if !a.prompter.Confirm("Remove trip", fmt.Sprintf("Do you want to remove '%s'?", trip.Name)) {
		return false, nil
	}
	if err := trips.Delete(ctx, trip); err != nil {
		return false, err
	}
	a.state.RemoveTrip(trip.ID)
	return true, nil
}

// OpenTrip loads the destinations of trip and shows them.
func (a *App) OpenTrip(ctx context.Context, trip *models.Trip) error {
	if err := a.loadDestinations(ctx, trip); err != nil {
		return err
	}
	a.state.SetTrip(trip)
	return a.nav.Show(ScreenDestinations, false)
}

func (a *App) loadDestinations(ctx context.Context, trip *models.Trip) error {
	trips, _, err := a.managers()
	if err != nil {
		return err
	}
	dests, err := trips.Destinations(ctx, trip)
	if err != nil {
		return err
	}
	trip.Destinations = dests
	trip.CalculateBudget()
	return nil
}

// StartTrip begins travelling trip. Only one trip may be in progress; the
// store itself does not enforce that, so the check happens here.
func (a *App) StartTrip(ctx context.Context, trip *models.Trip) (*models.Trip, error) {
	if a.state.ActiveTrip() != nil {
		return nil, ErrAnotherTripActive
	}
	trips, tracker, err := a.managers()
	if err != nil {
		return nil, err
	}
	if trip.Destinations == nil {
		if err := a.loadDestinations(ctx, trip); err != nil {
			return nil, err
		}
	}
	if err := trips.SetActive(ctx, trip, true); err != nil {
		return nil, err
	}
	copied, err := tracker.Start(ctx, trip)
	if err != nil {
		// The flag would otherwise block every later start.
		if rerr := trips.SetActive(ctx, trip, false); rerr != nil {
			a.logger.Warn("Failed to clear active flag", zap.String("trip", trip.ID), zap.Error(rerr))
		}
		return nil, err
	}
	a.state.SetActiveTrip(copied)
	a.logger.Info("Trip started", zap.String("trip", trip.ID))
	return copied, a.nav.Show(ScreenTracker, false)
}

// FinishTrip asks for confirmation, writes the travelled copy back to the
// trip list, discards the tracker and returns to the previous screen. It
// reports whether the user confirmed. When the store has no tracked copy the
// expenses are read from the listed trip, so the archived budget is the
// final total either way.
func (a *App) FinishTrip(ctx context.Context) (*models.Trip, bool, error) {
	active := a.state.ActiveTrip()
	if active == nil {
		return nil, false, ErrNoActiveTrip
	}
	trips, tracker, err := a.managers()
	if err != nil {
		return nil, false, err
	}
	if !a.prompter.Confirm("Finish trip", "Are you sure to finish this trip?") {
		return nil, false, nil
	}
	tracked, err := tracker.Active(ctx)
	if err != nil {
		return nil, false, err
	}
	var dests []*models.Destination
	if tracked != nil {
		dests, err = tracker.Destinations(ctx)
	} else {
		a.logger.Warn("Finishing a trip without a tracked copy", zap.String("trip", active.ID))
		dests, err = trips.Destinations(ctx, active)
	}
	if err != nil {
		return nil, false, err
	}
	active.Destinations = dests
	active.Active = false
	active.CalculateBudget()
	if err := trips.Update(ctx, active, true); err != nil {
		active.Active = true
		return nil, false, err
	}
	if err := tracker.Remove(ctx); err != nil {
		return nil, false, err
	}
	if !a.state.ReplaceTrip(active) {
		a.state.AddTrip(active)
	}
	a.state.SetActiveTrip(nil)
	a.logger.Info("Trip finished", zap.String("trip", active.ID), zap.Int("budget", active.Budget))
	a.nav.Back()
	return active, true, nil
}

// CancelTrip asks for confirmation and discards the travelled copy, keeping
// the trip list as it was before the trip started. It reports whether the user
// confirmed.
func (a *App) CancelTrip(ctx context.Context) (bool, error) {
	active := a.state.ActiveTrip()
	if active == nil {
		return false, ErrNoActiveTrip
	}
	trips, tracker, err := a.managers()
	if err != nil {
		return false, err
	}
	if !a.prompter.Confirm("Cancel trip", "Are you sure to cancel this trip?") {
		return false, nil
	}
	if err := tracker.Remove(ctx); err != nil {
		return false, err
	}
	listed := active
	for _, t := range a.state.Trips() {
		if t.ID == active.ID {
			listed = t
		}
	}
	if err := trips.SetActive(ctx, listed, false); err != nil {
		return false, err
	}
	a.state.SetActiveTrip(nil)
	a.logger.Info("Trip cancelled", zap.String("trip", active.ID))
	a.nav.Back()
	return true, nil
}
