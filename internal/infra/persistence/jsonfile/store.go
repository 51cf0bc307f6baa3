// Package jsonfile persists each collection as a pretty-printed JSON array
// in its own file, mirroring the layout a browser dashboard would read. The
// in-memory store supplies transactional semantics; this package adds the
// durable snapshot.
//
// Writes stage to a temp file in the same directory and rename into place,
// so a failed write never leaves a truncated collection behind. Concurrent
// writers from separate processes remain last-write-wins; within one process
// the store mutex serializes read-modify-write cycles.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"taskdesk/internal/infra/persistence/memory"
	"taskdesk/pkg/domain"
)

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.PersistentStore = (*Store)(nil)

// Collection file names under the data directory.
const (
	tasksFile    = "tasks.json"
	contactsFile = "contacts.json"
)

// Store layers flat-file persistence over the in-memory transactional store.
type Store struct {
	*memory.Store
	mu  sync.Mutex
	dir string
}

// NewStore constructs a flat-file store rooted at dir (default ./data),
// hydrating state from any existing collection files. A missing file reads
// as an empty collection, not an error.
func NewStore(dir string, engine *domain.RulesEngine) (*Store, error) {
	if dir == "" {
		dir = "./data"
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, domain.StorageFault{Op: "create data dir", Err: err}
	}
	mem := memory.NewStore(engine)
	s := &Store{Store: mem, dir: dir}
	snapshot, err := s.load()
	if err != nil {
		return nil, err
	}
	s.ImportState(snapshot)
	return s, nil
}

// Dir returns the configured data directory.
func (s *Store) Dir() string { return s.dir }

// RunInTransaction applies fn within a transaction, then snapshots the new
// state to disk if successful. A persist failure surfaces as a StorageFault;
// the in-memory state has already committed, so a retry of the same
// operation rewrites the full snapshot.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx domain.Transaction) error) (domain.Result, error) {
	res, err := s.Store.RunInTransaction(ctx, fn)
	if err != nil {
		return res, err
	}
	if pErr := s.persist(); pErr != nil {
		return res, pErr
	}
	return res, nil
}

func (s *Store) load() (memory.Snapshot, error) {
	var snapshot memory.Snapshot
	if data, ok, err := readSnapshot(filepath.Join(s.dir, tasksFile)); err != nil {
		return memory.Snapshot{}, err
	} else if ok {
		if err := json.Unmarshal(data, &snapshot.Tasks); err != nil {
			return memory.Snapshot{}, domain.StorageFault{Op: "decode " + tasksFile, Err: err}
		}
	}
	if data, ok, err := readSnapshot(filepath.Join(s.dir, contactsFile)); err != nil {
		return memory.Snapshot{}, err
	} else if ok {
		if err := json.Unmarshal(data, &snapshot.Contacts); err != nil {
			return memory.Snapshot{}, domain.StorageFault{Op: "decode " + contactsFile, Err: err}
		}
	}
	return snapshot, nil
}

func (s *Store) persist() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.ExportState()

	tasks, err := marshalCollection(snapshot.Tasks)
	if err != nil {
		return domain.StorageFault{Op: "encode " + tasksFile, Err: err}
	}
	contacts, err := marshalCollection(snapshot.Contacts)
	if err != nil {
		return domain.StorageFault{Op: "encode " + contactsFile, Err: err}
	}
	if err := writeSnapshot(filepath.Join(s.dir, tasksFile), tasks); err != nil {
		return err
	}
	return writeSnapshot(filepath.Join(s.dir, contactsFile), contacts)
}

// marshalCollection renders a collection as a pretty-printed top-level JSON
// array. Empty collections serialize as [] rather than null so the file
// stays a valid array for other readers.
func marshalCollection[T any](records []T) ([]byte, error) {
	if records == nil {
		records = []T{}
	}
	return json.MarshalIndent(records, "", "  ")
}

// readSnapshot returns the file contents, or ok=false when the file does not
// exist. Any other read error is a storage fault.
func readSnapshot(path string) ([]byte, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, domain.StorageFault{Op: fmt.Sprintf("read %s", filepath.Base(path)), Err: err}
	}
	return data, true, nil
}

// writeSnapshot stages data to a temp file and renames it into place.
func writeSnapshot(path string, data []byte) error {
	op := fmt.Sprintf("write %s", filepath.Base(path))
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return domain.StorageFault{Op: op, Err: err}
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return domain.StorageFault{Op: op, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return domain.StorageFault{Op: op, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return domain.StorageFault{Op: op, Err: err}
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return domain.StorageFault{Op: op, Err: err}
	}
	return nil
}
