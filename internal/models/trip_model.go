package models

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// Trip is a travel plan owned by one user.
type Trip struct {
	ID     string
	Name   string
	Days   int
	Active bool

	Destinations []*Destination

	// Budget is derived from the destinations by CalculateBudget.
	Budget int
}

func (t *Trip) EntityID() string { return t.ID }
func (t *Trip) Kind() Kind       { return KindTrip }

// Attrs returns the persisted scalar fields of the trip.
func (t *Trip) Attrs() map[string]interface{} {
	return map[string]interface{}{
		"name":   t.Name,
		"days":   t.Days,
		"active": t.Active,
	}
}

// CalculateBudget recomputes every destination budget and the trip total.
func (t *Trip) CalculateBudget() int {
	t.Budget = 0
	for _, d := range t.Destinations {
		t.Budget += d.CalculateBudget()
	}
	return t.Budget
}

// FullData returns the nested snapshot of the trip. Children are keyed by their
// id and do not repeat it inside their own document. The budget is recalculated
// first so the snapshot carries the final total.
func (t *Trip) FullData(withID bool) map[string]interface{} {
	data := t.Attrs()
	if withID {
		data[idKey] = t.ID
	}
	data["budget"] = t.CalculateBudget()
	if len(t.Destinations) > 0 {
		dests := make(map[string]interface{}, len(t.Destinations))
		for _, d := range t.Destinations {
			dests[d.ID] = d.FullData(false)
		}
		data["destinations"] = dests
	}
	return data
}

// Validate checks the trip before it is written.
func (t *Trip) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("%w: trip name is required", ErrValidation)
	}
	if t.Days < 1 {
		return fmt.Errorf("%w: trip must last at least 1 day, got %d", ErrValidation, t.Days)
	}
	return nil
}

// SortedDestinations returns a copy of the destinations in schedule order.
func (t *Trip) SortedDestinations() []*Destination {
	ds := slices.Clone(t.Destinations)
	SortDestinations(ds)
	return ds
}

// FindDestination returns the destination with the given id, or nil.
func (t *Trip) FindDestination(id string) *Destination {
	for _, d := range t.Destinations {
		if d.ID == id {
			return d
		}
	}
	return nil
}

// RemoveDestination drops the destination with the given id and reports whether it was present.
func (t *Trip) RemoveDestination(id string) bool {
	n := len(t.Destinations)
	t.Destinations = slices.DeleteFunc(t.Destinations, func(d *Destination) bool { return d.ID == id })
	return len(t.Destinations) != n
}

func (t *Trip) String() string {
	return fmt.Sprintf("%s, stays: %d", t.Name, t.Days)
}

type tripDoc struct {
	ID           string                     `json:"_id"`
	Name         string                     `json:"name"`
	Days         int                        `json:"days"`
	Active       bool                       `json:"active"`
	Destinations map[string]json.RawMessage `json:"destinations"`
}

// DecodeTrip reconstructs a trip from its raw document, recursing into embedded
// destinations. A stored budget is ignored and recomputed from the expenses.
func DecodeTrip(id string, doc json.RawMessage) (*Trip, error) {
	if isNull(doc) {
		return nil, fmt.Errorf("trip %q: empty document", id)
	}
	var d tripDoc
	if err := json.Unmarshal(doc, &d); err != nil {
		return nil, fmt.Errorf("decode trip %q: %w", id, err)
	}
	if id == "" {
		id = d.ID
	}

	dests, err := decodeChildren(d.Destinations, DecodeDestination)
	if err != nil {
		return nil, fmt.Errorf("trip %q destinations: %w", id, err)
	}
	trip := &Trip{
		ID:           id,
		Name:         d.Name,
		Days:         d.Days,
		Active:       d.Active,
		Destinations: dests,
	}
	trip.CalculateBudget()
	return trip, nil
}

// DecodeFull reconstructs a trip from a snapshot produced by FullData. The
// snapshot is a plain map, so it goes through JSON once to share the decoders.
func DecodeFull(data map[string]interface{}) (*Trip, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode trip snapshot: %w", err)
	}
	return DecodeTrip("", raw)
}
