// Package generation holds the document rotation and recovery rules shared
// by every persistence driver, so drivers only differ in where the bytes
// live.
package generation

import (
	"context"
	"fmt"
	"time"

	"pcspec/pkg/domain"

	"go.uber.org/zap"
)

// Names of the three generations, matching the file names used on disk.
const (
	Live   = domain.StoreFileName
	Backup = domain.BackupFileName
	Second = domain.SecondBackupFileName
)

// Names returns the generations from newest to oldest.
func Names() []string { return []string{Live, Backup, Second} }

// Info describes a stored generation.
type Info struct {
	Name     string
	Size     int64
	Modified time.Time // zero when the driver does not record it
}

// Lister is implemented by drivers that can report which generations they
// hold.
type Lister interface {
	Generations(ctx context.Context) ([]Info, error)
}

// Documents reads and writes raw documents by generation name.
type Documents interface {
	// Read returns the document and whether it exists.
	Read(ctx context.Context, name string) ([]byte, bool, error)
	// Write fully replaces the named document.
	Write(ctx context.Context, name string, data []byte) error
}

// Rotate copies the live document of source into the backup generations of
// target. An existing first backup is copied to the second one before being
// overwritten. Without a live document nothing happens.
func Rotate(ctx context.Context, source, target Documents) error {
	live, ok, err := source.Read(ctx, Live)
	if err != nil {
		return fmt.Errorf("read %s: %w", Live, err)
	}
	if !ok {
		return nil
	}
	previous, ok, err := target.Read(ctx, Backup)
	if err != nil {
		return fmt.Errorf("read %s: %w", Backup, err)
	}
	if ok {
		if err := target.Write(ctx, Second, previous); err != nil {
			return fmt.Errorf("write %s: %w", Second, err)
		}
	}
	if err := target.Write(ctx, Backup, live); err != nil {
		return fmt.Errorf("write %s: %w", Backup, err)
	}
	return nil
}

// Decode turns a live document into a Store. Malformed or empty documents
// are logged and recovered as an empty Store.
func Decode(log *zap.Logger, driver string, data []byte) *domain.Store {
	s, err := domain.ParseDocument(data)
	if err != nil {
		if log != nil {
			log.Warn("discarding unreadable store document",
				zap.String("driver", driver),
				zap.Int("bytes", len(data)),
				zap.Error(err))
		}
		return domain.NewStore()
	}
	return s
}

// Load reads the live document from docs and decodes it.
func Load(ctx context.Context, log *zap.Logger, driver string, docs Documents) (*domain.Store, error) {
	data, ok, err := docs.Read(ctx, Live)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", Live, err)
	}
	if !ok {
		return domain.NewStore(), nil
	}
	return Decode(log, driver, data), nil
}

// Save encodes s and writes it as the live document.
func Save(ctx context.Context, docs Documents, s *domain.Store) error {
	data, err := domain.EncodeDocument(s)
	if err != nil {
		return fmt.Errorf("encode store: %w", err)
	}
	if err := docs.Write(ctx, Live, data); err != nil {
		return fmt.Errorf("write %s: %w", Live, err)
	}
	return nil
}

// Inventory reads every generation from docs and reports the ones present,
// newest first.
func Inventory(ctx context.Context, docs Documents) ([]Info, error) {
	var out []Info
	for _, name := range Names() {
		data, ok, err := docs.Read(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		if ok {
			out = append(out, Info{Name: name, Size: int64(len(data))})
		}
	}
	return out, nil
}
