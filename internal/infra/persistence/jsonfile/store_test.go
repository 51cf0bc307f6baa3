package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"taskdesk/pkg/domain"
)

func TestMissingFilesReadAsEmptyCollections(t *testing.T) {
	store, err := NewStore(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if tasks := store.ListTasks(); len(tasks) != 0 {
		t.Fatalf("expected empty tasks, got %+v", tasks)
	}
	if contacts := store.ListContacts(); len(contacts) != 0 {
		t.Fatalf("expected empty contacts, got %+v", contacts)
	}
}

func TestTransactionPersistsPrettyPrintedArrays(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.CreateTask(domain.Task{Title: "Persisted", ContactID: "1"})
		return err
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "tasks.json"))
	if err != nil {
		t.Fatalf("read tasks.json: %v", err)
	}
	if !strings.HasPrefix(strings.TrimSpace(string(raw)), "[") {
		t.Fatalf("tasks.json is not a top-level array: %s", raw)
	}
	if !strings.Contains(string(raw), "\n  ") {
		t.Fatalf("tasks.json is not pretty-printed: %s", raw)
	}

	var tasks []domain.Task
	if err := json.Unmarshal(raw, &tasks); err != nil {
		t.Fatalf("decode tasks.json: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Title != "Persisted" || tasks[0].ID != "1" {
		t.Fatalf("unexpected file contents: %+v", tasks)
	}
}

func TestReopenHydratesPersistedState(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		if _, err := tx.CreateContact(domain.Contact{Name: "Ada", Email: "ada@example.com"}); err != nil {
			return err
		}
		_, err := tx.CreateTask(domain.Task{Title: "Survive restart", ContactID: "1"})
		return err
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	reopened, err := NewStore(dir, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if tasks := reopened.ListTasks(); len(tasks) != 1 || tasks[0].Title != "Survive restart" {
		t.Fatalf("tasks not hydrated: %+v", tasks)
	}
	if contacts := reopened.ListContacts(); len(contacts) != 1 || contacts[0].Name != "Ada" {
		t.Fatalf("contacts not hydrated: %+v", contacts)
	}
}

func TestEmptyCollectionSerializesAsArray(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	created, err2 := seedOneTask(store)
	if err2 != nil {
		t.Fatalf("seed: %v", err2)
	}
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		return tx.DeleteTask(created.ID)
	}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	raw, err := os.ReadFile(filepath.Join(dir, "tasks.json"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if strings.TrimSpace(string(raw)) != "[]" {
		t.Fatalf("empty collection serialized as %q, want []", raw)
	}
}

func TestCorruptSnapshotSurfacesStorageFault(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "tasks.json"), []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}
	_, err := NewStore(dir, nil)
	var fault domain.StorageFault
	if !errors.As(err, &fault) {
		t.Fatalf("expected StorageFault, got %v", err)
	}
	if domain.KindOf(err) != domain.KindStorage {
		t.Fatalf("fault kind = %q", domain.KindOf(err))
	}
}

func TestFailedTransactionWritesNothing(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	boom := errors.New("boom")
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		if _, err := tx.CreateTask(domain.Task{Title: "ghost", ContactID: "1"}); err != nil {
			return err
		}
		return boom
	}); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "tasks.json")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("failed transaction persisted a snapshot")
	}
}

func seedOneTask(store *Store) (domain.Task, error) {
	var created domain.Task
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreateTask(domain.Task{Title: "seed", ContactID: "1"})
		return err
	})
	return created, err
}
