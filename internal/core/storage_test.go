package core

import (
	"strings"
	"testing"

	"taskdesk/internal/infra/persistence/jsonfile"
	"taskdesk/internal/infra/persistence/memory"
	"taskdesk/pkg/domain"
)

func TestOpenPersistentStoreDefaultsToJSONFile(t *testing.T) {
	t.Setenv("TASKDESK_STORAGE_DRIVER", "")
	t.Setenv("TASKDESK_DATA_DIR", t.TempDir())

	store, err := OpenPersistentStore(domain.NewDefaultRulesEngine())
	if err != nil {
		t.Fatalf("open default store: %v", err)
	}
	if _, ok := store.(*jsonfile.Store); !ok {
		t.Fatalf("expected *jsonfile.Store, got %T", store)
	}
}

func TestOpenPersistentStoreSelectsMemory(t *testing.T) {
	t.Setenv("TASKDESK_STORAGE_DRIVER", "memory")

	store, err := OpenPersistentStore(domain.NewDefaultRulesEngine())
	if err != nil {
		t.Fatalf("open memory store: %v", err)
	}
	if _, ok := store.(*memory.Store); !ok {
		t.Fatalf("expected *memory.Store, got %T", store)
	}
}

func TestOpenPersistentStoreRejectsUnknownDriver(t *testing.T) {
	t.Setenv("TASKDESK_STORAGE_DRIVER", "cassandra")

	if _, err := OpenPersistentStore(domain.NewDefaultRulesEngine()); err == nil {
		t.Fatal("expected error for unknown driver")
	} else if !strings.Contains(err.Error(), "cassandra") {
		t.Fatalf("error should name the driver, got %v", err)
	}
}
