package app

import (
	"slices"
	"sync"

	"github.com/example/onlinetravel/internal/models"
)

// State is what the screens show: the user's trips, the trip being edited,
// the trip being travelled and the selected destination. Every change goes
// through a method so derived views stay consistent.
type State struct {
	mu sync.RWMutex

	trips        []*models.Trip
	activeTrip   *models.Trip
	trip         *models.Trip
	destinations []*models.Destination
	destination  *models.Destination
	tracking     bool
}

func NewState() *State { return &State{} }

// SetTrips replaces the trip list.
func (s *State) SetTrips(trips []*models.Trip) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trips = slices.Clone(trips)
}

func (s *State) Trips() []*models.Trip {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.trips)
}

// AddTrip appends a created trip to the list.
func (s *State) AddTrip(trip *models.Trip) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trips = append(s.trips, trip)
}

// ReplaceTrip swaps the listed trip with the same id for trip. The edited
// trip is replaced too when it is the same one.
func (s *State) ReplaceTrip(trip *models.Trip) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.trips, func(t *models.Trip) bool { return t.ID == trip.ID })
	if i < 0 {
		return false
	}
	s.trips[i] = trip
	if s.trip != nil && s.trip.ID == trip.ID {
		s.setTripLocked(trip)
	}
	return true
}

// RemoveTrip drops the trip with id from the list and deselects it.
func (s *State) RemoveTrip(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trips = slices.DeleteFunc(s.trips, func(t *models.Trip) bool { return t.ID == id })
	if s.trip != nil && s.trip.ID == id {
		s.setTripLocked(nil)
	}
	if s.activeTrip != nil && s.activeTrip.ID == id {
		s.activeTrip = nil
	}
}

// SetTrip selects the trip to edit and rebuilds its sorted destination list.
func (s *State) SetTrip(trip *models.Trip) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setTripLocked(trip)
}

func (s *State) setTripLocked(trip *models.Trip) {
	s.trip = trip
	s.destinations = nil
	if trip != nil {
		s.destinations = trip.SortedDestinations()
	}
	if s.destination != nil && !s.tracking && (trip == nil || trip.FindDestination(s.destination.ID) == nil) {
		s.destination = nil
	}
}

func (s *State) Trip() *models.Trip {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.trip
}

// Destinations returns the edited trip's destinations in schedule order.
func (s *State) Destinations() []*models.Destination {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.destinations)
}

// Resort rebuilds the sorted destinations after one of them changed.
func (s *State) Resort() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.trip != nil {
		s.destinations = s.trip.SortedDestinations()
	}
}

// SetActiveTrip records the trip being travelled; nil ends tracking.
func (s *State) SetActiveTrip(trip *models.Trip) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeTrip = trip
	if trip == nil && s.tracking {
		s.destination = nil
		s.tracking = false
	}
}

func (s *State) ActiveTrip() *models.Trip {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeTrip
}

// SelectDestination picks the destination whose notes and spents are
// edited. tracked selects a destination of the active trip copy.
func (s *State) SelectDestination(dest *models.Destination, tracked bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.destination = dest
	s.tracking = dest != nil && tracked
}

// Destination returns the selected destination and whether it belongs to the tracked trip.
func (s *State) Destination() (*models.Destination, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.destination, s.tracking
}

// Reset forgets everything, e.g. after signing out.
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trips = nil
	s.activeTrip = nil
	s.trip = nil
	s.destinations = nil
	s.destination = nil
	s.tracking = false
}
