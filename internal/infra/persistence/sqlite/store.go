// Package sqlite persists store documents in an embedded SQLite database,
// one row per generation.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"pcspec/internal/infra/persistence/generation"
	"pcspec/pkg/domain"

	"go.uber.org/zap"
	_ "modernc.org/sqlite" // pure go sqlite driver
)

var (
	_ domain.PersistentStore = (*Store)(nil)
	_ generation.Lister      = (*Store)(nil)
)

const defaultPath = "pcspec.db"

// Store persists each generation as a BLOB keyed by its name. Payloads are
// stored verbatim so key order survives.
type Store struct {
	db   *sql.DB
	mu   sync.Mutex
	path string
	log  *zap.Logger
}

// NewStore opens (creating if needed) the database at path.
func NewStore(path string, log *zap.Logger) (*Store, error) {
	if path == "" {
		path = defaultPath
	}
	if log == nil {
		log = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS pcspec_documents (
		generation TEXT PRIMARY KEY,
		payload BLOB
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create documents table: %w", err)
	}
	return &Store{db: db, path: path, log: log}, nil
}

// Load implements domain.PersistentStore.
func (s *Store) Load(ctx context.Context) (*domain.Store, error) {
	return generation.Load(ctx, s.log, "sqlite", queryer{s.db})
}

// Save implements domain.PersistentStore.
func (s *Store) Save(ctx context.Context, st *domain.Store) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return generation.Save(ctx, queryer{s.db}, st)
}

// Backup implements domain.PersistentStore. The rotation runs in a single
// transaction so a failure leaves the previous generations untouched.
func (s *Store) Backup(ctx context.Context) (retErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	docs := queryer{tx}
	if err := generation.Rotate(ctx, docs, docs); err != nil {
		return err
	}
	return tx.Commit()
}

// Generations implements generation.Lister.
func (s *Store) Generations(ctx context.Context) ([]generation.Info, error) {
	return generation.Inventory(ctx, queryer{s.db})
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }

type execQueryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// queryer adapts a *sql.DB or *sql.Tx to generation.Documents.
type queryer struct{ q execQueryer }

func (q queryer) Read(ctx context.Context, name string) ([]byte, bool, error) {
	var payload []byte
	err := q.q.QueryRowContext(ctx, `SELECT payload FROM pcspec_documents WHERE generation = ?`, name).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return payload, true, nil
}

func (q queryer) Write(ctx context.Context, name string, data []byte) error {
	_, err := q.q.ExecContext(ctx, `INSERT INTO pcspec_documents(generation, payload) VALUES(?, ?)
		ON CONFLICT(generation) DO UPDATE SET payload = excluded.payload`, name, data)
	return err
}
