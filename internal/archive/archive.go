// Package archive writes point-in-time JSON snapshots of task and contact
// collections to a blob store for export and retention.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"taskdesk/internal/blob"
	"taskdesk/pkg/domain"
)

// Collection names accepted by Snapshot and List.
const (
	CollectionTasks    = "tasks"
	CollectionContacts = "contacts"
)

const stampLayout = "20060102T150405Z"

// Archiver serializes a store's collections into timestamped blob objects,
// one object per snapshot, keyed <collection>/<timestamp>.json.
type Archiver struct {
	store domain.PersistentStore
	blobs blob.Store
	nowFn func() time.Time
}

// New returns an Archiver reading from store and writing to blobs.
func New(store domain.PersistentStore, blobs blob.Store) *Archiver {
	return &Archiver{store: store, blobs: blobs, nowFn: func() time.Time { return time.Now().UTC() }}
}

// SetNowFunc overrides the timestamp source. Intended for tests.
func (a *Archiver) SetNowFunc(fn func() time.Time) { a.nowFn = fn }

// Snapshot serializes the named collection and stores it as a new blob,
// returning the stored object's info.
func (a *Archiver) Snapshot(ctx context.Context, collection string) (blob.Info, error) {
	var payload any
	var count int
	switch collection {
	case CollectionTasks:
		tasks := a.store.ListTasks()
		payload, count = tasks, len(tasks)
	case CollectionContacts:
		contacts := a.store.ListContacts()
		payload, count = contacts, len(contacts)
	default:
		return blob.Info{}, fmt.Errorf("archive: unknown collection %q", collection)
	}
	raw, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return blob.Info{}, domain.StorageFault{Op: "archive " + collection, Err: err}
	}
	key := fmt.Sprintf("%s/%s.json", collection, a.nowFn().UTC().Format(stampLayout))
	info, err := a.blobs.Put(ctx, key, bytes.NewReader(raw), blob.PutOptions{
		ContentType: "application/json",
		Metadata:    map[string]string{"collection": collection, "count": fmt.Sprintf("%d", count)},
	})
	if err != nil {
		return blob.Info{}, domain.StorageFault{Op: "archive " + collection, Err: err}
	}
	return info, nil
}

// List returns stored snapshots of the named collection, oldest first.
func (a *Archiver) List(ctx context.Context, collection string) ([]blob.Info, error) {
	switch collection {
	case CollectionTasks, CollectionContacts:
	default:
		return nil, fmt.Errorf("archive: unknown collection %q", collection)
	}
	infos, err := a.blobs.List(ctx, collection+"/")
	if err != nil {
		return nil, domain.StorageFault{Op: "list archive " + collection, Err: err}
	}
	return infos, nil
}
