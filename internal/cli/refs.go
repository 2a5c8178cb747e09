package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/onlinetravel/internal/app"
	"github.com/example/onlinetravel/internal/models"
)

// pick resolves ref as a 1-based position in items, or as an id or name.
func pick[T any](kind, ref string, items []T, id func(T) string, name func(T) string) (T, error) {
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(items) {
		return items[n-1], nil
	}
	for _, it := range items {
		if id(it) == ref || (name != nil && strings.EqualFold(name(it), ref)) {
			return it, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("%s %q: %w", kind, ref, ErrNotFound)
}

func (r *runtime) findTrip(ref string) (*models.Trip, error) {
	return pick("trip", ref, r.app.State().Trips(),
		func(t *models.Trip) string { return t.ID },
		func(t *models.Trip) string { return t.Name })
}

func findDestination(ref string, dests []*models.Destination) (*models.Destination, error) {
	return pick("destination", ref, dests,
		func(d *models.Destination) string { return d.ID },
		func(d *models.Destination) string { return d.Name })
}

func findNote(ref string, d *models.Destination) (*models.Note, error) {
	return pick("note", ref, d.Notes, func(n *models.Note) string { return n.ID }, nil)
}

func findSpent(ref string, d *models.Destination) (*models.Spent, error) {
	return pick("spent", ref, d.Spents,
		func(s *models.Spent) string { return s.ID },
		func(s *models.Spent) string { return s.Content })
}

// target signs in and opens the trip named by the first argument, or uses
// the trip in progress when --active is set. It returns the trip, whether it
// is the tracked copy and the remaining arguments.
func (r *runtime) target(cmd *cobra.Command, args []string) (*models.Trip, bool, []string, error) {
	if err := r.signIn(cmd); err != nil {
		return nil, false, nil, err
	}
	if r.active {
		active := r.app.State().ActiveTrip()
		if active == nil {
			return nil, false, nil, app.ErrNoActiveTrip
		}
		return active, true, args, nil
	}
	if len(args) == 0 {
		return nil, false, nil, fmt.Errorf("a trip is required unless --active is set")
	}
	trip, err := r.findTrip(args[0])
	if err != nil {
		return nil, false, nil, err
	}
	if err := r.app.OpenTrip(cmd.Context(), trip); err != nil {
		return nil, false, nil, err
	}
	return trip, false, args[1:], nil
}

// destinations lists the destinations of trip in schedule order.
func (r *runtime) destinations(trip *models.Trip, tracked bool) []*models.Destination {
	if tracked {
		return trip.SortedDestinations()
	}
	return r.app.State().Destinations()
}

// targetDestination resolves the trip and then the destination named by
// the next argument.
func (r *runtime) targetDestination(cmd *cobra.Command, args []string) (*models.Trip, *models.Destination, bool, []string, error) {
	trip, tracked, rest, err := r.target(cmd, args)
	if err != nil {
		return nil, nil, false, nil, err
	}
	if len(rest) == 0 {
		return nil, nil, false, nil, fmt.Errorf("a destination is required")
	}
	dest, err := findDestination(rest[0], r.destinations(trip, tracked))
	if err != nil {
		return nil, nil, false, nil, err
	}
	return trip, dest, tracked, rest[1:], nil
}
