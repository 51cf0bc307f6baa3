package query

import (
	"time"

	"taskdesk/pkg/domain"
)

// TaskFields is the field set for task listings. Search matches title,
// description, and contactId.
func TaskFields() FieldSet[domain.Task] {
	return FieldSet[domain.Task]{
		SearchText: func(t domain.Task) []string {
			return []string{t.Title, t.Description, t.ContactID}
		},
		Comparators: map[string]Comparator[domain.Task]{
			"id":        Numeric(func(t domain.Task) string { return t.ID }),
			"createdAt": ByTime(func(t domain.Task) time.Time { return t.CreatedAt }),
			// Normalized due dates are RFC 3339 UTC, so byte order is
			// chronological; unparseable pass-through values sort as text.
			"dueDate":     Lexicographic(func(t domain.Task) string { return t.DueDate }),
			"title":       Fold(func(t domain.Task) string { return t.Title }),
			"description": Fold(func(t domain.Task) string { return t.Description }),
			"contactId":   Numeric(func(t domain.Task) string { return t.ContactID }),
			"completed":   ByBool(func(t domain.Task) bool { return t.Completed }),
		},
	}
}

// ContactFields is the field set for contact listings. Search matches name,
// email, and phone.
func ContactFields() FieldSet[domain.Contact] {
	return FieldSet[domain.Contact]{
		SearchText: func(c domain.Contact) []string {
			return []string{c.Name, c.Email, c.Phone}
		},
		Comparators: map[string]Comparator[domain.Contact]{
			"id":        Numeric(func(c domain.Contact) string { return c.ID }),
			"createdAt": ByTime(func(c domain.Contact) time.Time { return c.CreatedAt }),
			"name":      Fold(func(c domain.Contact) string { return c.Name }),
			"email":     Fold(func(c domain.Contact) string { return c.Email }),
			"phone":     Fold(func(c domain.Contact) string { return c.Phone }),
		},
	}
}
