package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/example/onlinetravel/internal/core"
	"github.com/example/onlinetravel/internal/models"
	"github.com/example/onlinetravel/internal/platform"
)

// RecommendationCategories are the searches offered around a trip. "other"
// asks the user for a free-text query.
var RecommendationCategories = []string{"attraction", "bar", "hotel", "restaurant", "other"}

const defaultRecommendation = "hotel"

// tripStore writes destinations, notes and spents either to the trip list or
// to the tracked copy.
type tripStore interface {
	AddDestination(ctx context.Context, dest *models.Destination) error
	UpdateDestination(ctx context.Context, dest *models.Destination) error
	DeleteDestination(ctx context.Context, dest *models.Destination) error
	AddNote(ctx context.Context, dest *models.Destination, note *models.Note) error
	UpdateNote(ctx context.Context, dest *models.Destination, note *models.Note) error
	RemoveNote(ctx context.Context, dest *models.Destination, note *models.Note) error
	AddSpent(ctx context.Context, dest *models.Destination, spent *models.Spent) error
	UpdateSpent(ctx context.Context, dest *models.Destination, spent *models.Spent) error
	RemoveSpent(ctx context.Context, dest *models.Destination, spent *models.Spent) error
	UploadImage(ctx context.Context, note *models.Note, localPath string) (string, error)
}

var _ tripStore = (*core.TripTracker)(nil)

// listedTrip binds a trip of the list to its manager.
type listedTrip struct {
	m    *core.TripManager
	trip *models.Trip
}

func (l listedTrip) AddDestination(ctx context.Context, d *models.Destination) error {
	return l.m.AddDestination(ctx, l.trip, d)
}

func (l listedTrip) UpdateDestination(ctx context.Context, d *models.Destination) error {
	return l.m.UpdateDestination(ctx, l.trip, d)
}

func (l listedTrip) DeleteDestination(ctx context.Context, d *models.Destination) error {
	return l.m.DeleteDestination(ctx, l.trip, d)
}

func (l listedTrip) AddNote(ctx context.Context, d *models.Destination, n *models.Note) error {
	return l.m.AddNote(ctx, l.trip, d, n)
}

func (l listedTrip) UpdateNote(ctx context.Context, d *models.Destination, n *models.Note) error {
	return l.m.UpdateNote(ctx, l.trip, d, n)
}

func (l listedTrip) RemoveNote(ctx context.Context, d *models.Destination, n *models.Note) error {
	return l.m.RemoveNote(ctx, l.trip, d, n)
}

func (l listedTrip) AddSpent(ctx context.Context, d *models.Destination, s *models.Spent) error {
	return l.m.AddSpent(ctx, l.trip, d, s)
}

func (l listedTrip) UpdateSpent(ctx context.Context, d *models.Destination, s *models.Spent) error {
	return l.m.UpdateSpent(ctx, l.trip, d, s)
}

func (l listedTrip) RemoveSpent(ctx context.Context, d *models.Destination, s *models.Spent) error {
	return l.m.RemoveSpent(ctx, l.trip, d, s)
}

func (l listedTrip) UploadImage(ctx context.Context, n *models.Note, localPath string) (string, error) {
	return l.m.UploadImage(ctx, n, localPath)
}

// target returns the trip being edited and where its changes go: the active
// trip copy when tracked is set, the selected listed trip otherwise.
func (a *App) target(tracked bool) (*models.Trip, tripStore, error) {
	trips, tracker, err := a.managers()
	if err != nil {
		return nil, nil, err
	}
	if tracked {
		active := a.state.ActiveTrip()
		if active == nil {
			return nil, nil, ErrNoActiveTrip
		}
		return active, tracker, nil
	}
	trip := a.state.Trip()
	if trip == nil {
		return nil, nil, ErrNoTrip
	}
	return trip, listedTrip{m: trips, trip: trip}, nil
}

// AddDestination adds place to the edited trip and selects it.
func (a *App) AddDestination(ctx context.Context, place models.Place, tracked bool) (*models.Destination, error) {
	trip, store, err := a.target(tracked)
	if err != nil {
		return nil, err
	}
	dest := &models.Destination{Place: place}
	if err := store.AddDestination(ctx, dest); err != nil {
		return nil, err
	}
	trip.Destinations = append(trip.Destinations, dest)
	a.state.Resort()
	a.state.SelectDestination(dest, tracked)
	return dest, nil
}

// PickDestination lets the user pick a place and adds it. ok is false when
// the user backed out.
func (a *App) PickDestination(ctx context.Context, tracked bool) (*models.Destination, bool, error) {
	if a.places == nil {
		return nil, false, platform.ErrUnsupported
	}
	place, ok, err := a.places.Pick(ctx)
	if err != nil || !ok {
		return nil, false, err
	}
	dest, err := a.AddDestination(ctx, place, tracked)
	if err != nil {
		return nil, false, err
	}
	return dest, true, nil
}

// ReplacePlace swaps the place of dest, keeping its schedule, notes and spents.
func (a *App) ReplacePlace(ctx context.Context, dest *models.Destination, place models.Place, tracked bool) error {
	prev := dest.Place
	dest.Place = place
	if err := a.saveDestination(ctx, dest, tracked); err != nil {
		dest.Place = prev
		return err
	}
	return nil
}

// SetDestinationDay schedules dest on a day of the trip. value is one of DayOptions.
func (a *App) SetDestinationDay(ctx context.Context, dest *models.Destination, value string, tracked bool) error {
	trip, _, err := a.target(tracked)
	if err != nil {
		return err
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n < 1 || n > trip.Days {
		return fmt.Errorf("%w: day must be between 1 and %d", models.ErrValidation, trip.Days)
	}
	prev := dest.Day
	dest.SetDay(n)
	if err := a.saveDestination(ctx, dest, tracked); err != nil {
		dest.Day = prev
		return err
	}
	return nil
}

// SetDestinationTime sets the "HH:MM" time of dest.
func (a *App) SetDestinationTime(ctx context.Context, dest *models.Destination, value string, tracked bool) error {
	prev := dest.Time
	dest.Time = strings.TrimSpace(value)
	if err := a.saveDestination(ctx, dest, tracked); err != nil {
		dest.Time = prev
		return err
	}
	return nil
}

// SetDestinationTransportation sets how the user gets to dest.
func (a *App) SetDestinationTransportation(ctx context.Context, dest *models.Destination, value string, tracked bool) error {
	prev := dest.Transportation
	dest.Transportation = models.Transportation(strings.TrimSpace(value))
	if err := a.saveDestination(ctx, dest, tracked); err != nil {
		dest.Transportation = prev
		return err
	}
	return nil
}

func (a *App) saveDestination(ctx context.Context, dest *models.Destination, tracked bool) error {
	_, store, err := a.target(tracked)
	if err != nil {
		return err
	}
	if err := store.UpdateDestination(ctx, dest); err != nil {
		return err
	}
	a.state.Resort()
	return nil
}

// DeleteDestination removes dest after confirmation and reports whether it did.
func (a *App) DeleteDestination(ctx context.Context, dest *models.Destination, tracked bool) (bool, error) {
	trip, store, err := a.target(tracked)
	if err != nil {
		return false, err
	}
	if !a.prompter.Confirm("Remove destination", fmt.Sprintf("Do you want to remove '%s'?", dest.Name)) {
		return false, nil
	}
	if err := store.DeleteDestination(ctx, dest); err != nil {
		return false, err
	}
	trip.RemoveDestination(dest.ID)
	trip.CalculateBudget()
	a.state.Resort()
	if sel, _ := a.state.Destination(); sel == dest {
		a.state.SelectDestination(nil, false)
	}
	return true, nil
}

// DayOptions lists the days a destination of trip can be scheduled on.
func DayOptions(trip *models.Trip) []string {
	days := make([]string, 0, trip.Days)
	for i := 1; i <= trip.Days; i++ {
		days = append(days, strconv.Itoa(i))
	}
	return days
}

// TimeOptions lists the full hours of a day.
func TimeOptions() []string {
	times := make([]string, 24)
	for h := range times {
		times[h] = fmt.Sprintf("%02d:00", h)
	}
	return times
}

func TransportationOptions() []string {
	opts := make([]string, len(models.Transportations))
	for i, t := range models.Transportations {
		opts[i] = string(t)
	}
	return opts
}

// ImportDestination reads the place out of a shared destination url. The
// url kind is checked before anything is fetched.
func (a *App) ImportDestination(ctx context.Context, rawURL string) (models.Place, error) {
	share, err := a.shares()
	if err != nil {
		return models.Place{}, err
	}
	ok, err := share.ValidateURL(rawURL, models.KindDestination)
	if err != nil {
		return models.Place{}, err
	}
	if !ok {
		return models.Place{}, ErrNotDestination
	}
	entity, err := share.ResolveURL(ctx, rawURL)
	if err != nil {
		return models.Place{}, err
	}
	dest, ok := entity.(*models.Destination)
	if !ok {
		return models.Place{}, ErrNotDestination
	}
	return dest.Place, nil
}

// ScanDestination reads codes from the camera until one is a destination
// share url, then imports its place.
func (a *App) ScanDestination(ctx context.Context) (models.Place, error) {
	if a.scanner == nil {
		return models.Place{}, platform.ErrUnsupported
	}
	share, err := a.shares()
	if err != nil {
		return models.Place{}, err
	}
	if err := a.scanner.Start(ctx); err != nil {
		return models.Place{}, fmt.Errorf("failed to start scanner: %w", err)
	}
	defer func() {
		if err := a.scanner.Stop(); err != nil {
			a.logger.Warn("Failed to stop scanner", zap.Error(err))
		}
	}()

	for {
		text, err := a.scanner.Scan(ctx)
		if err != nil {
			return models.Place{}, err
		}
		ok, err := share.ValidateURL(text, models.KindDestination)
		if err == nil && ok {
			return a.ImportDestination(ctx, text)
		}
		a.logger.Debug("Ignoring scanned code", zap.String("text", text))
	}
}

// Recommend opens a map search for category around the centre of the edited
// trip. An empty category searches for hotels.
func (a *App) Recommend(category string) error {
	lat, lng, ok := platform.Center(a.state.Destinations())
	if !ok {
		return ErrNoDestinations
	}
	return a.openMap(platform.GeoURI(lat, lng, recommendationQuery(category), 0))
}

// RecommendNear opens a map search for category around dest.
func (a *App) RecommendNear(dest *models.Destination, category string) error {
	return a.openMap(platform.GeoURI(dest.Latitude, dest.Longitude, recommendationQuery(category), 0))
}

// ShowOnMap opens a map at dest.
func (a *App) ShowOnMap(dest *models.Destination) error {
	return a.openMap(platform.GeoURI(dest.Latitude, dest.Longitude, dest.Name, 0))
}

// Navigate starts turn-by-turn navigation to dest.
func (a *App) Navigate(dest *models.Destination, mode string) error {
	return a.openMap(platform.PlaceNavigationURI(dest.Place, mode))
}

func (a *App) openMap(uri string) error {
	if a.maps == nil {
		return platform.ErrUnsupported
	}
	if err := a.maps.Open(uri); err != nil {
		if errors.Is(err, platform.ErrUnsupported) {
			return err
		}
		return fmt.Errorf("failed to open map: %w", err)
	}
	return nil
}

func recommendationQuery(category string) string {
	category = strings.TrimSpace(category)
	if category == "" || strings.EqualFold(category, "other") {
		return defaultRecommendation
	}
	return category
}
