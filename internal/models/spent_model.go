package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Spent is one expense recorded at a destination.
type Spent struct {
	ID      string
	Content string // what the money was spent on
	Spent   int    // amount, never negative
}

func (s *Spent) EntityID() string { return s.ID }
func (s *Spent) Kind() Kind       { return KindSpent }

// Attrs returns the persisted fields of the expense.
func (s *Spent) Attrs() map[string]interface{} {
	return map[string]interface{}{
		"content": s.Content,
		"spent":   s.Spent,
	}
}

// Validate checks the expense before it is written.
func (s *Spent) Validate() error {
	if strings.TrimSpace(s.Content) == "" {
		return fmt.Errorf("%w: spent content is required", ErrValidation)
	}
	if s.Spent < 0 {
		return fmt.Errorf("%w: spent amount must not be negative, got %d", ErrValidation, s.Spent)
	}
	return nil
}

type spentDoc struct {
	ID      string `json:"_id"`
	Content string `json:"content"`
	Spent   int    `json:"spent"`
}

// DecodeSpent reconstructs an expense from its raw document.
func DecodeSpent(id string, doc json.RawMessage) (*Spent, error) {
	if isNull(doc) {
		return nil, fmt.Errorf("spent %q: empty document", id)
	}
	var d spentDoc
	if err := json.Unmarshal(doc, &d); err != nil {
		return nil, fmt.Errorf("decode spent %q: %w", id, err)
	}
	if id == "" {
		id = d.ID
	}
	return &Spent{ID: id, Content: d.Content, Spent: d.Spent}, nil
}
