// Package seed populates an empty store with demo contacts and tasks.
package seed

import (
	"context"
	"fmt"

	"taskdesk/pkg/domain"
)

var taskTitles = []string{
	"Follow up on proposal",
	"Schedule quarterly review",
	"Send invoice",
	"Prepare meeting notes",
	"Update contact details",
	"Review contract draft",
	"Book travel arrangements",
	"Draft status report",
}

// Contacts generates n demo contacts without ids; the store assigns them.
func Contacts(n int) []domain.Contact {
	contacts := make([]domain.Contact, 0, n)
	for i := 1; i <= n; i++ {
		contacts = append(contacts, domain.Contact{
			Name:  fmt.Sprintf("Contact %d", i),
			Email: fmt.Sprintf("contact%d@example.com", i),
			Phone: fmt.Sprintf("123-456-78%02d", i%100),
		})
	}
	return contacts
}

// Tasks generates n demo tasks distributed round-robin over the given
// contact ids. Every third task starts completed.
func Tasks(n int, contactIDs []string) []domain.Task {
	if len(contactIDs) == 0 {
		return nil
	}
	tasks := make([]domain.Task, 0, n)
	for i := 1; i <= n; i++ {
		tasks = append(tasks, domain.Task{
			Title:       taskTitles[(i-1)%len(taskTitles)],
			Description: fmt.Sprintf("Auto-generated demo task #%d", i),
			ContactID:   contactIDs[(i-1)%len(contactIDs)],
			Completed:   i%3 == 0,
		})
	}
	return tasks
}

// Populate inserts demo data when the store holds no contacts and no tasks.
// It reports whether anything was inserted.
func Populate(ctx context.Context, store domain.PersistentStore, contactCount, taskCount int) (bool, error) {
	if len(store.ListContacts()) > 0 || len(store.ListTasks()) > 0 {
		return false, nil
	}
	var contactIDs []string
	_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		for _, contact := range Contacts(contactCount) {
			created, err := tx.CreateContact(contact)
			if err != nil {
				return err
			}
			contactIDs = append(contactIDs, created.ID)
		}
		for _, task := range Tasks(taskCount, contactIDs) {
			if _, err := tx.CreateTask(task); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return true, nil
}
