// Package file persists the catalogue as store.json inside a directory, with
// store.bak.json and store.bak2.json as rolling backups next to it.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"pcspec/internal/infra/persistence/generation"
	"pcspec/pkg/domain"

	"go.uber.org/zap"
)

const driverName = "file"

var (
	_ domain.PersistentStore = (*Store)(nil)
	_ generation.Lister      = (*Store)(nil)
)

// Store is the directory-backed driver. Backups go to backupDir, which
// defaults to the store directory.
type Store struct {
	dir       string
	backupDir string
	log       *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithBackupDir writes backup generations to dir instead of the store
// directory.
func WithBackupDir(dir string) Option {
	return func(s *Store) {
		if dir != "" {
			s.backupDir = dir
		}
	}
}

// WithLogger sets the logger used to report discarded documents.
func WithLogger(log *zap.Logger) Option {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

// New returns a driver rooted at dir. The directory is created lazily on the
// first save.
func New(dir string, opts ...Option) (*Store, error) {
	if dir == "" {
		return nil, errors.New("store directory required")
	}
	s := &Store{dir: dir, backupDir: dir, log: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Dir returns the directory holding store.json.
func (s *Store) Dir() string { return s.dir }

// Path returns the full path of store.json.
func (s *Store) Path() string { return filepath.Join(s.dir, domain.StoreFileName) }

// Load implements domain.PersistentStore.
func (s *Store) Load(ctx context.Context) (*domain.Store, error) {
	return generation.Load(ctx, s.log, driverName, directory(s.dir))
}

// Save implements domain.PersistentStore.
func (s *Store) Save(ctx context.Context, st *domain.Store) error {
	return generation.Save(ctx, directory(s.dir), st)
}

// Backup implements domain.PersistentStore.
func (s *Store) Backup(ctx context.Context) error {
	return generation.Rotate(ctx, directory(s.dir), directory(s.backupDir))
}

// Generations implements generation.Lister from file sizes and modification
// times. store.json is looked up in the store directory, the backups in the
// backup directory.
func (s *Store) Generations(_ context.Context) ([]generation.Info, error) {
	var out []generation.Info
	for _, name := range generation.Names() {
		dir := s.backupDir
		if name == generation.Live {
			dir = s.dir
		}
		fi, err := os.Stat(filepath.Join(dir, name))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, generation.Info{Name: name, Size: fi.Size(), Modified: fi.ModTime()})
	}
	return out, nil
}

// Save writes st to targetDir/store.json, creating targetDir and any missing
// parents first.
func Save(st *domain.Store, targetDir string) error {
	return generation.Save(context.Background(), directory(targetDir), st)
}

// Load reads sourceDir/store.json. A missing, empty or malformed file yields
// an empty Store.
func Load(sourceDir string) (*domain.Store, error) {
	return generation.Load(context.Background(), nil, driverName, directory(sourceDir))
}

// Backup rotates sourceDir/store.json into the backup files of targetDir.
func Backup(sourceDir, targetDir string) error {
	return generation.Rotate(context.Background(), directory(sourceDir), directory(targetDir))
}

// directory adapts a filesystem directory to generation.Documents.
type directory string

func (d directory) Read(_ context.Context, name string) ([]byte, bool, error) {
	data, err := os.ReadFile(filepath.Join(string(d), name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Write replaces name atomically: the bytes go to a temp file in the same
// directory which is then renamed over the target.
func (d directory) Write(_ context.Context, name string, data []byte) error {
	dir := string(d)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(dir, name))
}
