package core

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"pcspec/internal/config"
	blobstore "pcspec/internal/infra/persistence/blob"
	"pcspec/internal/infra/persistence/file"
	"pcspec/internal/infra/persistence/memory"
	"pcspec/internal/infra/persistence/sqlite"
)

func TestOpenPersistentStore_File(t *testing.T) {
	dir := t.TempDir()
	ps, err := OpenPersistentStore(context.Background(), config.StorageConfig{Driver: "file", Dir: dir, BackupDir: dir}, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	fs, ok := ps.(*file.Store)
	if !ok {
		t.Fatalf("expected *file.Store, got %T", ps)
	}
	if fs.Dir() != dir {
		t.Fatalf("dir = %q, want %q", fs.Dir(), dir)
	}
	if err := CloseStore(ps); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestOpenPersistentStore_Memory(t *testing.T) {
	ps, err := OpenPersistentStore(context.Background(), config.StorageConfig{Driver: "memory"}, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, ok := ps.(*memory.Store); !ok {
		t.Fatalf("expected *memory.Store, got %T", ps)
	}
}

func TestOpenPersistentStore_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "pcspec.db")
	ps, err := OpenPersistentStore(context.Background(), config.StorageConfig{Driver: "sqlite", SQLitePath: path}, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = CloseStore(ps) }()
	s, ok := ps.(*sqlite.Store)
	if !ok {
		t.Fatalf("expected *sqlite.Store, got %T", ps)
	}
	if s.Path() != path {
		t.Fatalf("path = %q, want %q", s.Path(), path)
	}
}

func TestOpenPersistentStore_BlobMemory(t *testing.T) {
	cfg := config.StorageConfig{Driver: "blob", Blob: config.BlobConfig{Driver: "memory", Prefix: "catalogue/"}}
	ps, err := OpenPersistentStore(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	bs, ok := ps.(*blobstore.Store)
	if !ok {
		t.Fatalf("expected *blob.Store, got %T", ps)
	}
	if got := bs.Key("store.json"); got != "catalogue/store.json" {
		t.Fatalf("key = %q", got)
	}
}

func TestOpenPersistentStore_Errors(t *testing.T) {
	ctx := context.Background()
	if _, err := OpenPersistentStore(ctx, config.StorageConfig{Driver: "floppy"}, nil); err == nil || !strings.Contains(err.Error(), "unknown storage driver") {
		t.Fatalf("expected unknown driver error, got %v", err)
	}
	if _, err := OpenPersistentStore(ctx, config.StorageConfig{Driver: "file"}, nil); err == nil {
		t.Fatalf("expected error for empty file dir")
	}
	cfg := config.StorageConfig{Driver: "blob", Blob: config.BlobConfig{Driver: "tape"}}
	if _, err := OpenPersistentStore(ctx, cfg, nil); err == nil || !strings.Contains(err.Error(), "open blob store") {
		t.Fatalf("expected blob error, got %v", err)
	}
}
