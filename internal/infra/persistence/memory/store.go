// Package memory provides an in-memory persistence driver used for tests and
// ephemeral sessions. Documents are kept as encoded bytes so it behaves like
// the durable drivers, malformed input included.
package memory

import (
	"context"
	"sync"

	"pcspec/internal/infra/persistence/generation"
	"pcspec/pkg/domain"

	"go.uber.org/zap"
)

// Compile-time contract assertion ensuring memory.Store adheres to the domain persistence interface.
var (
	_ domain.PersistentStore = (*Store)(nil)
	_ generation.Lister      = (*Store)(nil)
)

// Store keeps every generation in a map keyed by generation name.
type Store struct {
	mu   sync.RWMutex
	docs map[string][]byte
	log  *zap.Logger
}

// NewStore returns an empty driver. A nil logger disables logging.
func NewStore(log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{docs: make(map[string][]byte), log: log}
}

// Load implements domain.PersistentStore.
func (s *Store) Load(ctx context.Context) (*domain.Store, error) {
	return generation.Load(ctx, s.log, "memory", s)
}

// Save implements domain.PersistentStore.
func (s *Store) Save(ctx context.Context, st *domain.Store) error {
	return generation.Save(ctx, s, st)
}

// Backup implements domain.PersistentStore.
func (s *Store) Backup(ctx context.Context) error {
	return generation.Rotate(ctx, s, s)
}

// Generations implements generation.Lister.
func (s *Store) Generations(ctx context.Context) ([]generation.Info, error) {
	return generation.Inventory(ctx, s)
}

// Read implements generation.Documents.
func (s *Store) Read(_ context.Context, name string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.docs[name]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), data...), true, nil
}

// Write implements generation.Documents.
func (s *Store) Write(_ context.Context, name string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[name] = append([]byte(nil), data...)
	return nil
}
