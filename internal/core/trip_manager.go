package core

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/example/onlinetravel/internal/db"
	"github.com/example/onlinetravel/internal/models"
)

const (
	destinationsNode = "destinations"
	notesNode        = "notes"
	spentsNode       = "spents"
)

// TripManager reads and writes the trip list at users/{uid}/trips.
type TripManager struct {
	client *db.Client
	logger *zap.Logger
}

// NewTripManager creates a manager on a client rooted at the trip list.
func NewTripManager(client *db.Client, logger *zap.Logger) *TripManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TripManager{client: client, logger: logger}
}

// List returns every trip of the user. Trips that fail to decode are logged and skipped.
func (m *TripManager) List(ctx context.Context) ([]*models.Trip, error) {
	items, err := m.client.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list trips: %w", err)
	}
	trips := make([]*models.Trip, 0, len(items))
	for _, item := range items {
		trip, err := models.DecodeTrip(item.Key, item.Value)
		if err != nil {
			m.logger.Warn("Skipping malformed trip", zap.String("key", item.Key), zap.Error(err))
			continue
		}
		trips = append(trips, trip)
	}
	return trips, nil
}

// Add creates the trip and assigns its id.
func (m *TripManager) Add(ctx context.Context, trip *models.Trip) error {
	if err := trip.Validate(); err != nil {
		return err
	}
	id, err := m.client.Push(ctx, trip.Attrs())
	if err != nil {
		return fmt.Errorf("failed to add trip: %w", err)
	}
	trip.ID = id
	return nil
}

// Update writes the trip fields, or the full nested snapshot when full is set.
func (m *TripManager) Update(ctx context.Context, trip *models.Trip, full bool) error {
	if err := requireID(trip); err != nil {
		return err
	}
	if err := trip.Validate(); err != nil {
		return err
	}
	attrs := trip.Attrs()
	if full {
		attrs = trip.FullData(false)
	}
	if err := m.client.Update(ctx, attrs, trip.ID); err != nil {
		return fmt.Errorf("failed to update trip %s: %w", trip.ID, err)
	}
	return nil
}

// Delete removes the trip with all its destinations.
func (m *TripManager) Delete(ctx context.Context, trip *models.Trip) error {
	if err := requireID(trip); err != nil {
		return err
	}
	if err := m.client.Remove(ctx, trip.ID); err != nil {
		return fmt.Errorf("failed to delete trip %s: %w", trip.ID, err)
	}
	return nil
}

// SetActive flags the trip as the one being travelled. Nothing stops two trips
// from being active at once.
func (m *TripManager) SetActive(ctx context.Context, trip *models.Trip, active bool) error {
	if err := requireID(trip); err != nil {
		return err
	}
	if err := m.client.Update(ctx, map[string]interface{}{"active": active}, trip.ID); err != nil {
		return fmt.Errorf("failed to set trip %s active: %w", trip.ID, err)
	}
	trip.Active = active
	return nil
}

// Destinations loads the destinations of the trip in key order.
func (m *TripManager) Destinations(ctx context.Context, trip *models.Trip) ([]*models.Destination, error) {
	if err := requireID(trip); err != nil {
		return nil, err
	}
	items, err := m.client.List(ctx, trip.ID, destinationsNode)
	if err != nil {
		return nil, fmt.Errorf("failed to list destinations of trip %s: %w", trip.ID, err)
	}
	return decodeDestinations(items, m.logger), nil
}

func (m *TripManager) AddDestination(ctx context.Context, trip *models.Trip, dest *models.Destination) error {
	if err := requireID(trip); err != nil {
		return err
	}
	if err := dest.Validate(); err != nil {
		return err
	}
	id, err := m.client.Push(ctx, dest.Attrs(), trip.ID, destinationsNode)
	if err != nil {
		return fmt.Errorf("failed to add destination: %w", err)
	}
	dest.ID = id
	return nil
}

func (m *TripManager) UpdateDestination(ctx context.Context, trip *models.Trip, dest *models.Destination) error {
	if err := requireID(trip, dest); err != nil {
		return err
	}
	if err := dest.Validate(); err != nil {
		return err
	}
	if err := m.client.Update(ctx, dest.Attrs(), trip.ID, destinationsNode, dest.ID); err != nil {
		return fmt.Errorf("failed to update destination %s: %w", dest.ID, err)
	}
	return nil
}

func (m *TripManager) DeleteDestination(ctx context.Context, trip *models.Trip, dest *models.Destination) error {
	if err := requireID(trip, dest); err != nil {
		return err
	}
	if err := m.client.Remove(ctx, trip.ID, destinationsNode, dest.ID); err != nil {
		return fmt.Errorf("failed to delete destination %s: %w", dest.ID, err)
	}
	return nil
}

func (m *TripManager) AddNote(ctx context.Context, trip *models.Trip, dest *models.Destination, note *models.Note) error {
	if err := requireID(trip, dest); err != nil {
		return err
	}
	id, err := m.client.Push(ctx, note.Attrs(), trip.ID, destinationsNode, dest.ID, notesNode)
	if err != nil {
		return fmt.Errorf("failed to add note: %w", err)
	}
	note.ID = id
	return nil
}

func (m *TripManager) UpdateNote(ctx context.Context, trip *models.Trip, dest *models.Destination, note *models.Note) error {
	if err := requireID(trip, dest, note); err != nil {
		return err
	}
	if err := m.client.Update(ctx, note.Attrs(), trip.ID, destinationsNode, dest.ID, notesNode, note.ID); err != nil {
		return fmt.Errorf("failed to update note %s: %w", note.ID, err)
	}
	return nil
}

func (m *TripManager) RemoveNote(ctx context.Context, trip *models.Trip, dest *models.Destination, note *models.Note) error {
	if err := requireID(trip, dest, note); err != nil {
		return err
	}
	if err := m.client.Remove(ctx, trip.ID, destinationsNode, dest.ID, notesNode, note.ID); err != nil {
		return fmt.Errorf("failed to remove note %s: %w", note.ID, err)
	}
	return nil
}

func (m *TripManager) AddSpent(ctx context.Context, trip *models.Trip, dest *models.Destination, spent *models.Spent) error {
	if err := requireID(trip, dest); err != nil {
		return err
	}
	if err := spent.Validate(); err != nil {
		return err
	}
	id, err := m.client.Push(ctx, spent.Attrs(), trip.ID, destinationsNode, dest.ID, spentsNode)
	if err != nil {
		return fmt.Errorf("failed to add spent: %w", err)
	}
	spent.ID = id
	return nil
}

func (m *TripManager) UpdateSpent(ctx context.Context, trip *models.Trip, dest *models.Destination, spent *models.Spent) error {
	if err := requireID(trip, dest, spent); err != nil {
		return err
	}
	if err := spent.Validate(); err != nil {
		return err
	}
	if err := m.client.Update(ctx, spent.Attrs(), trip.ID, destinationsNode, dest.ID, spentsNode, spent.ID); err != nil {
		return fmt.Errorf("failed to update spent %s: %w", spent.ID, err)
	}
	return nil
}

func (m *TripManager) RemoveSpent(ctx context.Context, trip *models.Trip, dest *models.Destination, spent *models.Spent) error {
	if err := requireID(trip, dest, spent); err != nil {
		return err
	}
	if err := m.client.Remove(ctx, trip.ID, destinationsNode, dest.ID, spentsNode, spent.ID); err != nil {
		return fmt.Errorf("failed to remove spent %s: %w", spent.ID, err)
	}
	return nil
}

// UploadImage stores the file at localPath as {noteID}{ext} and returns its
// public url, empty when the upload was not confirmed. The note is not updated.
func (m *TripManager) UploadImage(ctx context.Context, note *models.Note, localPath string) (string, error) {
	return uploadImage(ctx, m.client, note, localPath)
}

func uploadImage(ctx context.Context, client *db.Client, note *models.Note, localPath string) (string, error) {
	if err := requireID(note); err != nil {
		return "", err
	}
	u, err := client.PutLocalFile(ctx, localPath, note.ID+filepath.Ext(localPath))
	if err != nil {
		return "", fmt.Errorf("failed to upload image for note %s: %w", note.ID, err)
	}
	return u, nil
}

func decodeDestinations(items []db.Item, logger *zap.Logger) []*models.Destination {
	dests := make([]*models.Destination, 0, len(items))
	for _, item := range items {
		d, err := models.DecodeDestination(item.Key, item.Value)
		if err != nil {
			logger.Warn("Skipping malformed destination", zap.String("key", item.Key), zap.Error(err))
			continue
		}
		dests = append(dests, d)
	}
	return dests
}

func requireID(entities ...models.Entity) error {
	for _, e := range entities {
		if e.EntityID() == "" {
			return fmt.Errorf("%w: %s", ErrMissingID, e.Kind())
		}
	}
	return nil
}
