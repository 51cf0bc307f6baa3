package core

import (
	"fmt"
	"os"

	"taskdesk/internal/infra/persistence/jsonfile"
	"taskdesk/internal/infra/persistence/memory"
	"taskdesk/internal/infra/persistence/postgres"
	"taskdesk/internal/infra/persistence/sqlite"
	"taskdesk/pkg/domain"
)

// StorageDriver identifies a concrete persistent storage implementation.
type StorageDriver string

const (
	StorageJSONFile StorageDriver = "jsonfile" // flat JSON files (default)
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

type (
	Transaction     = domain.Transaction
	TransactionView = domain.TransactionView
	PersistentStore = domain.PersistentStore
	RulesEngine     = domain.RulesEngine
)

// OpenPersistentStore selects a backend using environment variables.
// Defaults to flat JSON files when unset.
//
//	TASKDESK_STORAGE_DRIVER: jsonfile|memory|sqlite|postgres (default jsonfile)
//	TASKDESK_DATA_DIR: directory for JSON collections (default ./data)
//	TASKDESK_SQLITE_PATH: path to sqlite file (default ./taskdesk.db)
//	TASKDESK_POSTGRES_DSN: postgres DSN when driver=postgres
func OpenPersistentStore(engine *RulesEngine) (PersistentStore, error) {
	driver := os.Getenv("TASKDESK_STORAGE_DRIVER")
	if driver == "" {
		driver = string(StorageJSONFile)
	}
	switch StorageDriver(driver) {
	case StorageJSONFile:
		return jsonfile.NewStore(os.Getenv("TASKDESK_DATA_DIR"), engine)
	case StorageMemory:
		return memory.NewStore(engine), nil
	case StorageSQLite:
		return sqlite.NewStore(os.Getenv("TASKDESK_SQLITE_PATH"), engine)
	case StoragePostgres:
		return postgres.NewStore(os.Getenv("TASKDESK_POSTGRES_DSN"), engine)
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}
