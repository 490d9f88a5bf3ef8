package blob

import (
	"context"
	"fmt"

	"pcspec/internal/config"
	"pcspec/internal/infra/blob/fs"
	"pcspec/internal/infra/blob/memory"
	"pcspec/internal/infra/blob/s3"
)

// Open selects a blob Store implementation from configuration.
func Open(ctx context.Context, cfg config.BlobConfig) (Store, error) {
	switch Driver(cfg.Driver) {
	case DriverS3:
		return s3.New(ctx, s3.Config{
			Bucket:    cfg.Bucket,
			Region:    cfg.Region,
			Endpoint:  cfg.Endpoint,
			PathStyle: cfg.PathStyle,
		})
	case DriverFilesystem:
		return fs.New(cfg.Dir)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", cfg.Driver)
	}
}

// NewMemory returns a process-local blob store.
func NewMemory() Store { return memory.New() }

// NewS3Mock returns an S3 store wired to an in-memory HTTP fake. Tests only.
func NewS3Mock() Store { return s3.NewMockForTests() }
