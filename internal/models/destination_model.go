package models

import (
	"cmp"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Transportation is how the traveller reaches a destination.
type Transportation string

const (
	Plane      Transportation = "plane"
	Train      Transportation = "train"
	Ship       Transportation = "ship"
	Bus        Transportation = "bus"
	Car        Transportation = "car"
	Motorcycle Transportation = "motorcycle"
	Bicycle    Transportation = "bicycle"
	Taxi       Transportation = "taxi"
	Subway     Transportation = "subway"
	Walk       Transportation = "walk"
)

// Transportations lists every supported mode in display order.
var Transportations = []Transportation{Plane, Train, Ship, Bus, Car, Motorcycle, Bicycle, Taxi, Subway, Walk}

// Valid reports whether t is one of the supported modes.
func (t Transportation) Valid() bool {
	return slices.Contains(Transportations, t)
}

// Destination is a place to visit during a trip, scheduled by day and time.
// Day is nil and Time is empty while the destination is not scheduled.
type Destination struct {
	Place

	ID             string
	Day            *int
	Time           string // "HH:MM"
	Transportation Transportation

	Notes  []*Note
	Spents []*Spent

	// Budget is derived from Spents by CalculateBudget.
	Budget int
}

func (d *Destination) EntityID() string { return d.ID }
func (d *Destination) Kind() Kind       { return KindDestination }

// Attrs returns the persisted fields of the destination, place fields included.
// Unset schedule fields are left out so partial updates do not clear them.
func (d *Destination) Attrs() map[string]interface{} {
	attrs := make(map[string]interface{})
	d.Place.placeAttrs(attrs)
	if d.Day != nil {
		attrs["day"] = *d.Day
	}
	if d.Time != "" {
		attrs["time"] = d.Time
	}
	if d.Transportation != "" {
		attrs["transportation"] = string(d.Transportation)
	}
	return attrs
}

// SetDay schedules the destination on the given day of the trip.
func (d *Destination) SetDay(day int) {
	d.Day = &day
}

// CalculateBudget recomputes Budget as the sum of all expenses.
func (d *Destination) CalculateBudget() int {
	d.Budget = 0
	for _, s := range d.Spents {
		d.Budget += s.Spent
	}
	return d.Budget
}

// FullData returns the nested snapshot of the destination with its notes and expenses.
func (d *Destination) FullData(withID bool) map[string]interface{} {
	data := d.Attrs()
	if withID {
		data[idKey] = d.ID
	}
	data["budget"] = d.CalculateBudget()
	if len(d.Notes) > 0 {
		notes := make(map[string]interface{}, len(d.Notes))
		for _, n := range d.Notes {
			notes[n.ID] = n.Attrs()
		}
		data["notes"] = notes
	}
	if len(d.Spents) > 0 {
		spents := make(map[string]interface{}, len(d.Spents))
		for _, s := range d.Spents {
			spents[s.ID] = s.Attrs()
		}
		data["spents"] = spents
	}
	return data
}

// Validate checks the schedule and transportation before the destination is written.
func (d *Destination) Validate() error {
	if d.Day != nil && *d.Day < 1 {
		return fmt.Errorf("%w: destination day must be at least 1, got %d", ErrValidation, *d.Day)
	}
	if d.Time != "" {
		if _, err := time.Parse("15:04", d.Time); err != nil {
			return fmt.Errorf("%w: destination time %q is not HH:MM", ErrValidation, d.Time)
		}
	}
	if d.Transportation != "" && !d.Transportation.Valid() {
		return fmt.Errorf("%w: unknown transportation %q", ErrValidation, d.Transportation)
	}
	return nil
}

// FindNote returns the note with the given id, or nil.
func (d *Destination) FindNote(id string) *Note {
	for _, n := range d.Notes {
		if n.ID == id {
			return n
		}
	}
	return nil
}

// CompareDestinations orders destinations by (day, time) ascending. An absent day
// sorts before any present day and an empty time before any set time. A nil
// destination sorts after everything else.
func CompareDestinations(a, b *Destination) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}

	switch {
	case a.Day == nil && b.Day != nil:
		return -1
	case a.Day != nil && b.Day == nil:
		return 1
	case a.Day != nil && b.Day != nil:
		if c := cmp.Compare(*a.Day, *b.Day); c != 0 {
			return c
		}
	}
	return strings.Compare(a.Time, b.Time)
}

// SortDestinations sorts in place with CompareDestinations, keeping equal items in order.
func SortDestinations(ds []*Destination) {
	slices.SortStableFunc(ds, CompareDestinations)
}

type destinationDoc struct {
	Place
	ID             string                     `json:"_id"`
	Day            *int                       `json:"day"`
	Time           string                     `json:"time"`
	Transportation Transportation             `json:"transportation"`
	Notes          map[string]json.RawMessage `json:"notes"`
	Spents         map[string]json.RawMessage `json:"spents"`
}

// DecodeDestination reconstructs a destination, and any embedded notes and
// expenses, from its raw document.
func DecodeDestination(id string, doc json.RawMessage) (*Destination, error) {
	if isNull(doc) {
		return nil, fmt.Errorf("destination %q: empty document", id)
	}
	var d destinationDoc
	if err := json.Unmarshal(doc, &d); err != nil {
		return nil, fmt.Errorf("decode destination %q: %w", id, err)
	}
	if id == "" {
		id = d.ID
	}

	dest := &Destination{
		Place:          d.Place,
		ID:             id,
		Day:            d.Day,
		Time:           d.Time,
		Transportation: d.Transportation,
	}

	notes, err := decodeChildren(d.Notes, DecodeNote)
	if err != nil {
		return nil, fmt.Errorf("destination %q notes: %w", id, err)
	}
	spents, err := decodeChildren(d.Spents, DecodeSpent)
	if err != nil {
		return nil, fmt.Errorf("destination %q spents: %w", id, err)
	}
	dest.Notes, dest.Spents = notes, spents
	dest.CalculateBudget()
	return dest, nil
}
