// Package domain defines the persistent record types, error taxonomy, and
// rule evaluation primitives used by taskdesk.
package domain

import "time"

// EntityType identifies the type of record stored in a collection.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityTask identifies a task record.
	EntityTask EntityType = "task"
	// EntityContact identifies a contact record.
	EntityContact EntityType = "contact"
)

// Base carries the identity fields shared by every record. IDs are
// numeric-content strings unique within their collection; CreatedAt is
// assigned once at creation and never mutated afterwards.
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}

// RecordID returns the record identifier. Every record exposes its row
// identity through this accessor rather than through reflective field lookup.
func (b Base) RecordID() string { return b.ID }

// Record is implemented by every entity stored in a collection.
type Record interface {
	RecordID() string
}

// Task represents one actionable item linked to a contact.
type Task struct {
	Base
	ContactID   string `json:"contactId"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Completed   bool   `json:"completed"`
	// DueDate holds an RFC 3339 UTC timestamp when the supplied value was
	// parseable; unparseable input is stored verbatim.
	DueDate string `json:"dueDate,omitempty"`
}

// Contact represents one address-book entry. No uniqueness is enforced on
// any field beyond the record ID.
type Contact struct {
	Base
	Name   string `json:"name"`
	Email  string `json:"email"`
	Phone  string `json:"phone"`
	Avatar string `json:"avatar,omitempty"`
}

// Field length limits applied by the task field rule.
const (
	MaxTitleLen       = 200
	MaxDescriptionLen = 1000
)

// Change describes a mutation applied to a record during a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate the record lifecycle transitions.
const (
	// ActionCreate indicates a record was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates a record was updated.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)
