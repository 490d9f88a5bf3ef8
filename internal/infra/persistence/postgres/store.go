// Package postgres provides a Postgres-backed persistence driver that keeps
// every document generation as a row of a single table.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"pcspec/internal/infra/persistence/generation"
	"pcspec/pkg/domain"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	"go.uber.org/zap"
)

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var (
	_ domain.PersistentStore = (*Store)(nil)
	_ generation.Lister      = (*Store)(nil)
)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/pcspec?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Store persists documents to Postgres. Payloads use BYTEA rather than JSONB
// because JSONB does not keep object key order.
type Store struct {
	db  *sql.DB
	mu  sync.Mutex
	log *zap.Logger
}

// NewStore opens a Postgres-backed store using the provided DSN (falls back
// to defaultDSN) and ensures the documents table exists.
func NewStore(ctx context.Context, dsn string, log *zap.Logger) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return NewStoreWithDB(ctx, db, log)
}

// NewStoreWithDB wraps an already opened database.
func NewStoreWithDB(ctx context.Context, db *sql.DB, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := ensureDocumentsTable(ctx, db); err != nil {
		return nil, err
	}
	return &Store{db: db, log: log}, nil
}

func ensureDocumentsTable(ctx context.Context, db *sql.DB) error {
	ddl := `CREATE TABLE IF NOT EXISTS pcspec_documents (
		generation TEXT PRIMARY KEY,
		payload BYTEA NOT NULL
	)`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure documents table: %w", err)
	}
	return nil
}

// Load implements domain.PersistentStore.
func (s *Store) Load(ctx context.Context) (*domain.Store, error) {
	return generation.Load(ctx, s.log, "postgres", documents{s.db})
}

// Save implements domain.PersistentStore.
func (s *Store) Save(ctx context.Context, st *domain.Store) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return generation.Save(ctx, documents{s.db}, st)
}

// Backup implements domain.PersistentStore inside one transaction.
func (s *Store) Backup(ctx context.Context) (retErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	docs := documents{tx}
	if err := generation.Rotate(ctx, docs, docs); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Generations implements generation.Lister.
func (s *Store) Generations(ctx context.Context) ([]generation.Info, error) {
	return generation.Inventory(ctx, documents{s.db})
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

type execQueryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// documents adapts a *sql.DB or *sql.Tx to generation.Documents.
type documents struct{ q execQueryer }

func (d documents) Read(ctx context.Context, name string) ([]byte, bool, error) {
	var payload []byte
	err := d.q.QueryRowContext(ctx, `SELECT payload FROM pcspec_documents WHERE generation = $1`, name).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("select %s: %w", name, err)
	}
	return payload, true, nil
}

func (d documents) Write(ctx context.Context, name string, data []byte) error {
	_, err := d.q.ExecContext(ctx, `INSERT INTO pcspec_documents (generation, payload) VALUES ($1, $2) ON CONFLICT (generation) DO UPDATE SET payload = EXCLUDED.payload`, name, data)
	return err
}
