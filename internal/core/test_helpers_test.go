package core

import (
	"context"
	"testing"

	"taskdesk/internal/infra/persistence/memory"
	"taskdesk/pkg/domain"
	"taskdesk/pkg/query"
)

// newSeededStore returns a memory store holding one contact and one task.
func newSeededStore(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.NewStore(nil)
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		if _, err := tx.CreateContact(domain.Contact{Name: "Seed"}); err != nil {
			return err
		}
		_, err := tx.CreateTask(domain.Task{Title: "seed task", ContactID: "1"})
		return err
	})
	if err != nil {
		t.Fatalf("seed store: %v", err)
	}
	return store
}

func queryAll() query.Options { return query.Options{PageSize: 100} }
