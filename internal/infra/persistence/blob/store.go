// Package blob persists store documents as objects in a blob.Store (S3, a
// local directory or memory), one object per generation under a common key prefix.
package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"pcspec/internal/blob"
	"pcspec/internal/infra/persistence/generation"
	"pcspec/pkg/domain"

	"go.uber.org/zap"
)

var (
	_ domain.PersistentStore = (*Store)(nil)
	_ generation.Lister      = (*Store)(nil)
)

const contentType = "application/json"

// Store maps generations to <prefix><file name> objects.
type Store struct {
	objects blob.Store
	prefix  string
	log     *zap.Logger
}

// NewStore wraps objects. prefix is prepended verbatim to every key, so
// include a trailing slash to use a "directory".
func NewStore(objects blob.Store, prefix string, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{objects: objects, prefix: prefix, log: log}
}

// Key returns the object key of a generation.
func (s *Store) Key(name string) string { return s.prefix + name }

// Load implements domain.PersistentStore.
func (s *Store) Load(ctx context.Context) (*domain.Store, error) {
	return generation.Load(ctx, s.log, "blob/"+string(s.objects.Driver()), s)
}

// Save implements domain.PersistentStore.
func (s *Store) Save(ctx context.Context, st *domain.Store) error {
	return generation.Save(ctx, s, st)
}

// Backup implements domain.PersistentStore.
func (s *Store) Backup(ctx context.Context) error {
	return generation.Rotate(ctx, s, s)
}

// Generations implements generation.Lister with one List call under the
// prefix. Other objects sharing the prefix are ignored.
func (s *Store) Generations(ctx context.Context) ([]generation.Info, error) {
	objs, err := s.objects.List(ctx, s.prefix)
	if err != nil {
		return nil, fmt.Errorf("list %q: %w", s.prefix, err)
	}
	byKey := make(map[string]blob.Info, len(objs))
	for _, o := range objs {
		byKey[o.Key] = o
	}
	var out []generation.Info
	for _, name := range generation.Names() {
		if o, ok := byKey[s.Key(name)]; ok {
			out = append(out, generation.Info{Name: name, Size: o.Size, Modified: o.LastModified})
		}
	}
	return out, nil
}

// Read implements generation.Documents.
func (s *Store) Read(ctx context.Context, name string) ([]byte, bool, error) {
	_, body, err := s.objects.Get(ctx, s.Key(name))
	if errors.Is(err, blob.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	defer func() { _ = body.Close() }()
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Write implements generation.Documents.
func (s *Store) Write(ctx context.Context, name string, data []byte) error {
	_, err := s.objects.Put(ctx, s.Key(name), bytes.NewReader(data), blob.PutOptions{ContentType: contentType})
	return err
}
