package core

import (
	"context"
	"fmt"
	"io"

	"pcspec/internal/blob"
	"pcspec/internal/config"
	blobstore "pcspec/internal/infra/persistence/blob"
	"pcspec/internal/infra/persistence/file"
	"pcspec/internal/infra/persistence/memory"
	"pcspec/internal/infra/persistence/postgres"
	"pcspec/internal/infra/persistence/sqlite"
	"pcspec/pkg/domain"

	"go.uber.org/zap"
)

// StorageDriver identifies a concrete persistent storage implementation.
type StorageDriver string

const (
	StorageFile     StorageDriver = "file"     // store.json in a directory (default)
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
	StorageBlob     StorageDriver = "blob"     // object storage (S3, local fs or memory)
)

// PersistentStore re-exports the driver contract.
type PersistentStore = domain.PersistentStore

// OpenPersistentStore builds the driver selected by cfg. Drivers holding a
// connection implement io.Closer; see CloseStore.
func OpenPersistentStore(ctx context.Context, cfg config.StorageConfig, log *zap.Logger) (PersistentStore, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("driver", cfg.Driver))
	switch StorageDriver(cfg.Driver) {
	case StorageFile:
		return file.New(cfg.Dir, file.WithBackupDir(cfg.BackupDir), file.WithLogger(log))
	case StorageMemory:
		return memory.NewStore(log), nil
	case StorageSQLite:
		return sqlite.NewStore(cfg.SQLitePath, log)
	case StoragePostgres:
		return postgres.NewStore(ctx, cfg.PostgresDSN, log)
	case StorageBlob:
		objects, err := blob.Open(ctx, cfg.Blob)
		if err != nil {
			return nil, fmt.Errorf("open blob store: %w", err)
		}
		return blobstore.NewStore(objects, cfg.Blob.Prefix, log), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %s", cfg.Driver)
	}
}

// CloseStore releases driver resources when the driver holds any.
func CloseStore(ps PersistentStore) error {
	if c, ok := ps.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
