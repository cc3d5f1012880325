// Package notes persists generated notes. Notes are append-only: there is
// no update operation, and a patient's history is read back in a stable
// creation order.
package notes

import (
	"context"
	"fmt"
	"time"
)

// Note is one stored clinical note
type Note struct {
	ID              string    `json:"id"`
	PatientID       string    `json:"patient_id"`
	PatientName     string    `json:"patient_name"`
	Content         string    `json:"content"`
	TemplateID      string    `json:"template_id,omitempty"`
	TemplateVersion int       `json:"template_version,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// NewNote carries the fields supplied when a note is created
type NewNote struct {
	PatientID       string
	PatientName     string
	Content         string
	TemplateID      string
	TemplateVersion int
}

// Order is the presentation order of a patient's notes
type Order string

const (
	OldestFirst Order = "oldest_first"
	NewestFirst Order = "newest_first"
)

// ParseOrder parses an order name; empty means oldest first
func ParseOrder(s string) (Order, error) {
	switch Order(s) {
	case "":
		return OldestFirst, nil
	case OldestFirst, NewestFirst:
		return Order(s), nil
	}
	return "", fmt.Errorf("invalid note order: %q (must be oldest_first or newest_first)", s)
}

// Describe renders the order for prompts
func (o Order) Describe() string {
	if o == NewestFirst {
		return "newest first"
	}
	return "oldest first"
}

// KeyKind selects which patient field a lookup key is matched against.
// Ids and names are independent keys and are never reconciled.
type KeyKind string

const (
	ByID   KeyKind = "id"
	ByName KeyKind = "name"
)

// ParseKeyKind parses a key kind; empty means ByID
func ParseKeyKind(s string) (KeyKind, error) {
	switch KeyKind(s) {
	case "":
		return ByID, nil
	case ByID, ByName:
		return KeyKind(s), nil
	}
	return "", fmt.Errorf("invalid patient key kind: %q (must be id or name)", s)
}

// Case is every note matching one patient key, in the store's order
type Case struct {
	PatientKey string
	By         KeyKind
	Order      Order
	Notes      []Note
}

// Empty reports whether the case has no notes
func (c Case) Empty() bool {
	return len(c.Notes) == 0
}

// Store persists notes
type Store interface {
	Create(ctx context.Context, n NewNote) (*Note, error)
	Get(ctx context.Context, id string) (*Note, error)
	ListByPatient(ctx context.Context, by KeyKind, key string) ([]Note, error)
	ListAll(ctx context.Context) ([]Note, error)
	Case(ctx context.Context, by KeyKind, key string) (Case, error)
	Close() error
}
