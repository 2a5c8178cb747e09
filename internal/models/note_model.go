package models

import (
	"encoding/json"
	"fmt"
)

// Note is a free-text note on a destination, optionally with an uploaded image.
type Note struct {
	ID      string
	Content string
	Image   string // public url, empty when no image was attached
}

func (n *Note) EntityID() string { return n.ID }
func (n *Note) Kind() Kind       { return KindNote }

// Attrs returns the persisted fields of the note.
func (n *Note) Attrs() map[string]interface{} {
	attrs := map[string]interface{}{"content": n.Content}
	if n.Image != "" {
		attrs["image"] = n.Image
	}
	return attrs
}

type noteDoc struct {
	ID      string `json:"_id"`
	Content string `json:"content"`
	Image   string `json:"image"`
}

// DecodeNote reconstructs a note from its raw document. An empty id falls back to
// the "_id" key of the document.
func DecodeNote(id string, doc json.RawMessage) (*Note, error) {
	if isNull(doc) {
		return nil, fmt.Errorf("note %q: empty document", id)
	}
	var d noteDoc
	if err := json.Unmarshal(doc, &d); err != nil {
		return nil, fmt.Errorf("decode note %q: %w", id, err)
	}
	if id == "" {
		id = d.ID
	}
	return &Note{ID: id, Content: d.Content, Image: d.Image}, nil
}
