// Package config loads pcspec settings from an optional YAML file and
// PCSPEC_* environment variables. Environment values win over the file,
// the file wins over defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all pcspec configuration.
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Logging LoggingConfig `yaml:"logging"`
}

// StorageConfig selects and configures the persistence driver.
type StorageConfig struct {
	Driver      string     `yaml:"driver"`       // file|memory|sqlite|postgres|blob
	Dir         string     `yaml:"dir"`          // directory holding store.json
	BackupDir   string     `yaml:"backup_dir"`   // defaults to Dir
	SQLitePath  string     `yaml:"sqlite_path"`  // defaults to <Dir>/pcspec.db
	PostgresDSN string     `yaml:"postgres_dsn"` // required for postgres
	Blob        BlobConfig `yaml:"blob"`
}

// BlobConfig configures the object storage used by the blob driver.
type BlobConfig struct {
	Driver    string `yaml:"driver"` // s3|fs|memory
	Dir       string `yaml:"dir"`    // fs root, defaults to <storage.dir>/blobs
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	Prefix    string `yaml:"prefix"`
	PathStyle bool   `yaml:"path_style"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level       string `yaml:"level"` // debug|info|warn|error
	Development bool   `yaml:"development"`
}

// AppDirName is the per-user directory name holding the catalogue.
const AppDirName = "PCSpec"

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Driver: "file",
			Dir:    defaultStoreDir(),
			Blob: BlobConfig{
				Driver: "s3",
				Region: "us-east-1",
			},
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// DefaultPath is where the CLI looks for config.yaml when --config is unset.
func DefaultPath() string {
	return filepath.Join(defaultStoreDir(), "config.yaml")
}

func defaultStoreDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, AppDirName)
	}
	return AppDirName
}

// Override adjusts a Config after the file and environment were applied,
// before derived defaults are filled. Command-line flags use it.
type Override func(*Config)

// Load reads path (when non-empty and present), then applies environment
// overrides, the given overrides and derived defaults.
func Load(path string, overrides ...Override) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	cfg.applyEnv(os.LookupEnv)
	for _, o := range overrides {
		o(cfg)
	}
	cfg.fillDerived()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Marshal encodes cfg as YAML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}

// Save writes cfg as YAML to path, creating parent directories.
func (c *Config) Save(path string) error {
	data, err := c.Marshal()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	str("PCSPEC_STORAGE_DRIVER", &c.Storage.Driver)
	str("PCSPEC_STORE_DIR", &c.Storage.Dir)
	str("PCSPEC_BACKUP_DIR", &c.Storage.BackupDir)
	str("PCSPEC_SQLITE_PATH", &c.Storage.SQLitePath)
	str("PCSPEC_POSTGRES_DSN", &c.Storage.PostgresDSN)
	str("PCSPEC_BLOB_DRIVER", &c.Storage.Blob.Driver)
	str("PCSPEC_BLOB_FS_DIR", &c.Storage.Blob.Dir)
	str("PCSPEC_BLOB_S3_BUCKET", &c.Storage.Blob.Bucket)
	str("PCSPEC_BLOB_S3_REGION", &c.Storage.Blob.Region)
	str("PCSPEC_BLOB_S3_ENDPOINT", &c.Storage.Blob.Endpoint)
	str("PCSPEC_BLOB_S3_PREFIX", &c.Storage.Blob.Prefix)
	if v, ok := lookup("PCSPEC_BLOB_S3_PATH_STYLE"); ok {
		c.Storage.Blob.PathStyle = strings.EqualFold(strings.TrimSpace(v), "true")
	}
	str("PCSPEC_LOG_LEVEL", &c.Logging.Level)
}

func (c *Config) fillDerived() {
	if c.Storage.BackupDir == "" {
		c.Storage.BackupDir = c.Storage.Dir
	}
	if c.Storage.SQLitePath == "" {
		c.Storage.SQLitePath = filepath.Join(c.Storage.Dir, "pcspec.db")
	}
	if c.Storage.Blob.Dir == "" {
		c.Storage.Blob.Dir = filepath.Join(c.Storage.Dir, "blobs")
	}
}

// Validate checks the settings needed by the selected driver.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "file", "memory", "sqlite":
	case "postgres":
		if c.Storage.PostgresDSN == "" {
			return errors.New("postgres driver requires storage.postgres_dsn")
		}
	case "blob":
		switch c.Storage.Blob.Driver {
		case "memory", "fs":
		case "s3":
			if c.Storage.Blob.Bucket == "" {
				return errors.New("s3 blob driver requires storage.blob.bucket")
			}
		default:
			return fmt.Errorf("unknown blob driver %q", c.Storage.Blob.Driver)
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Storage.Dir == "" && (c.Storage.Driver == "file" || c.Storage.Driver == "sqlite") {
		return errors.New("storage.dir is required")
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Logging.Level)
	}
	return nil
}
