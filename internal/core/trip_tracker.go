package core

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/example/onlinetravel/internal/db"
	"github.com/example/onlinetravel/internal/models"
)

// TripTracker manages the copy of the trip being travelled, kept at the
// singleton users/{uid}/active. The copy is independent of the trip list:
// edits here never touch the listed trip.
type TripTracker struct {
	client *db.Client
	logger *zap.Logger
}

// NewTripTracker creates a tracker on a client rooted at the active node.
func NewTripTracker(client *db.Client, logger *zap.Logger) *TripTracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TripTracker{client: client, logger: logger}
}

// Start replaces the tracked trip with a full snapshot of trip and returns a
// fresh copy decoded from that snapshot.
func (t *TripTracker) Start(ctx context.Context, trip *models.Trip) (*models.Trip, error) {
	if err := requireID(trip); err != nil {
		return nil, err
	}
	data := trip.FullData(true)
	if err := t.client.Set(ctx, data); err != nil {
		return nil, fmt.Errorf("failed to start trip %s: %w", trip.ID, err)
	}
	return models.DecodeFull(data)
}

// Active returns the tracked trip, or nil when no trip is being travelled.
func (t *TripTracker) Active(ctx context.Context) (*models.Trip, error) {
	raw, err := t.client.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get active trip: %w", err)
	}
	if raw == nil {
		return nil, nil
	}
	return models.DecodeTrip("", raw)
}

// Destinations returns the tracked destinations in schedule order.
func (t *TripTracker) Destinations(ctx context.Context) ([]*models.Destination, error) {
	items, err := t.client.List(ctx, destinationsNode)
	if err != nil {
		return nil, fmt.Errorf("failed to list active destinations: %w", err)
	}
	dests := decodeDestinations(items, t.logger)
	models.SortDestinations(dests)
	return dests, nil
}

// AddDestination stores dest under its own id, so a destination copied from
// the trip list keeps the id it has there. A destination without an id gets one.
func (t *TripTracker) AddDestination(ctx context.Context, dest *models.Destination) error {
	if err := dest.Validate(); err != nil {
		return err
	}
	if dest.ID == "" {
		dest.ID = db.PushID()
	}
	if err := t.client.Set(ctx, dest.Attrs(), destinationsNode, dest.ID); err != nil {
		return fmt.Errorf("failed to add active destination: %w", err)
	}
	return nil
}

func (t *TripTracker) UpdateDestination(ctx context.Context, dest *models.Destination) error {
	if err := requireID(dest); err != nil {
		return err
	}
	if err := dest.Validate(); err != nil {
		return err
	}
	if err := t.client.Update(ctx, dest.Attrs(), destinationsNode, dest.ID); err != nil {
		return fmt.Errorf("failed to update active destination %s: %w", dest.ID, err)
	}
	return nil
}

func (t *TripTracker) DeleteDestination(ctx context.Context, dest *models.Destination) error {
	if err := requireID(dest); err != nil {
		return err
	}
	if err := t.client.Remove(ctx, destinationsNode, dest.ID); err != nil {
		return fmt.Errorf("failed to delete active destination %s: %w", dest.ID, err)
	}
	return nil
}

func (t *TripTracker) AddNote(ctx context.Context, dest *models.Destination, note *models.Note) error {
	if err := requireID(dest); err != nil {
		return err
	}
	id, err := t.client.Push(ctx, note.Attrs(), destinationsNode, dest.ID, notesNode)
	if err != nil {
		return fmt.Errorf("failed to add note: %w", err)
	}
	note.ID = id
	return nil
}

func (t *TripTracker) UpdateNote(ctx context.Context, dest *models.Destination, note *models.Note) error {
	if err := requireID(dest, note); err != nil {
		return err
	}
	if err := t.client.Update(ctx, note.Attrs(), destinationsNode, dest.ID, notesNode, note.ID); err != nil {
		return fmt.Errorf("failed to update note %s: %w", note.ID, err)
	}
	return nil
}

func (t *TripTracker) RemoveNote(ctx context.Context, dest *models.Destination, note *models.Note) error {
	if err := requireID(dest, note); err != nil {
		return err
	}
	if err := t.client.Remove(ctx, destinationsNode, dest.ID, notesNode, note.ID); err != nil {
		return fmt.Errorf("failed to remove note %s: %w", note.ID, err)
	}
	return nil
}

// Notes loads the notes of a tracked destination. Malformed notes are logged and skipped.
func (t *TripTracker) Notes(ctx context.Context, dest *models.Destination) ([]*models.Note, error) {
	if err := requireID(dest); err != nil {
		return nil, err
	}
	items, err := t.client.List(ctx, destinationsNode, dest.ID, notesNode)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes of %s: %w", dest.ID, err)
	}
	notes := make([]*models.Note, 0, len(items))
	for _, item := range items {
		n, err := models.DecodeNote(item.Key, item.Value)
		if err != nil {
			t.logger.Warn("Skipping malformed note", zap.String("key", item.Key), zap.Error(err))
			continue
		}
		notes = append(notes, n)
	}
	return notes, nil
}

func (t *TripTracker) AddSpent(ctx context.Context, dest *models.Destination, spent *models.Spent) error {
	if err := requireID(dest); err != nil {
		return err
	}
	if err := spent.Validate(); err != nil {
		return err
	}
	id, err := t.client.Push(ctx, spent.Attrs(), destinationsNode, dest.ID, spentsNode)
	if err != nil {
		return fmt.Errorf("failed to add spent: %w", err)
	}
	spent.ID = id
	return nil
}

func (t *TripTracker) UpdateSpent(ctx context.Context, dest *models.Destination, spent *models.Spent) error {
	if err := requireID(dest, spent); err != nil {
		return err
	}
	if err := spent.Validate(); err != nil {
		return err
	}
	if err := t.client.Update(ctx, spent.Attrs(), destinationsNode, dest.ID, spentsNode, spent.ID); err != nil {
		return fmt.Errorf("failed to update spent %s: %w", spent.ID, err)
	}
	return nil
}

func (t *TripTracker) RemoveSpent(ctx context.Context, dest *models.Destination, spent *models.Spent) error {
	if err := requireID(dest, spent); err != nil {
		return err
	}
	if err := t.client.Remove(ctx, destinationsNode, dest.ID, spentsNode, spent.ID); err != nil {
		return fmt.Errorf("failed to remove spent %s: %w", spent.ID, err)
	}
	return nil
}

// UploadImage stores a note image next to the tracked trip.
func (t *TripTracker) UploadImage(ctx context.Context, note *models.Note, localPath string) (string, error) {
	return uploadImage(ctx, t.client, note, localPath)
}

// Remove stops tracking. The listed trip keeps its active flag until the caller clears it.
func (t *TripTracker) Remove(ctx context.Context) error {
	if err := t.client.Remove(ctx); err != nil {
		return fmt.Errorf("failed to remove active trip: %w", err)
	}
	return nil
}
