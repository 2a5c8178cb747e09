// Package models holds the in-memory trip model and its explicit wire form.
//
// Every entity lists the fields it persists in Attrs. Identifiers and derived
// values (budgets, nested collections) are never part of Attrs; they only
// appear in the nested snapshot produced by FullData.
package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// ErrValidation is returned when an entity fails a business rule before it is written.
var ErrValidation = errors.New("validation error")

// Kind names the type of a shareable entity. The value is also the query token of a share URL.
type Kind string

const (
	KindTrip        Kind = "trip"
	KindDestination Kind = "destination"
	KindNote        Kind = "note"

	// KindSpent is never shared; it only labels expenses in logs and errors.
	KindSpent Kind = "spent"
)

// Entity is implemented by every persisted model.
type Entity interface {
	EntityID() string
	Kind() Kind
	Attrs() map[string]interface{}
}

// idKey is the key carrying the entity id inside a full snapshot.
const idKey = "_id"

// decodeChildren decodes a map of child documents keyed by id. The result is sorted
// by key, which for store-generated push ids is creation order.
func decodeChildren[T any](raw map[string]json.RawMessage, decode func(id string, doc json.RawMessage) (*T, error)) ([]*T, error) {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]*T, 0, len(keys))
	for _, k := range keys {
		child, err := decode(k, raw[k])
		if err != nil {
			return nil, fmt.Errorf("child %q: %w", k, err)
		}
		out = append(out, child)
	}
	return out, nil
}

// isNull reports whether a raw document is absent.
func isNull(doc json.RawMessage) bool {
	return len(doc) == 0 || string(doc) == "null"
}
