package integration

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pcspec/internal/config"
	"pcspec/internal/core"
	"pcspec/pkg/domain"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap/zaptest"
)

// TestIntegrationSmoke drives one catalogue session through every storage
// driver that runs in process. Postgres joins when PCSPEC_TEST_POSTGRES_DSN
// points at a reachable server.
func TestIntegrationSmoke(t *testing.T) {
	variants := []struct {
		name string
		cfg  func(dir string) config.StorageConfig
	}{
		{"file", func(dir string) config.StorageConfig {
			return config.StorageConfig{Driver: "file", Dir: dir, BackupDir: filepath.Join(dir, "backups")}
		}},
		{"sqlite", func(dir string) config.StorageConfig {
			return config.StorageConfig{Driver: "sqlite", SQLitePath: filepath.Join(dir, "pcspec.db")}
		}},
		{"blob-fs", func(dir string) config.StorageConfig {
			return config.StorageConfig{Driver: "blob", Blob: config.BlobConfig{Driver: "fs", Dir: dir, Prefix: "catalogue/"}}
		}},
	}
	if dsn := os.Getenv("PCSPEC_TEST_POSTGRES_DSN"); dsn != "" {
		variants = append(variants, struct {
			name string
			cfg  func(dir string) config.StorageConfig
		}{"postgres", func(string) config.StorageConfig {
			return config.StorageConfig{Driver: "postgres", PostgresDSN: dsn}
		}})
	}

	for _, v := range variants {
		t.Run(v.name, func(t *testing.T) {
			ctx := context.Background()
			cfg := v.cfg(t.TempDir())

			session(t, cfg, func(svc *core.Service) {
				step(t, "add pc", func() (bool, error) { return svc.AddPC(ctx, "Gaming Rig") })
				step(t, "add office", func() (bool, error) { return svc.AddPC(ctx, "Office") })
				step(t, "add cpu", func() (bool, error) {
					return svc.AddComponent(ctx, "gaming rig", "CPU", domain.NewSpec("Name", "i7-9700K", "Cores", "8"))
				})
				step(t, "add gpu", func() (bool, error) { return svc.AddComponent(ctx, "Gaming Rig", "GPU", domain.Spec{}) })
				step(t, "set vram", func() (bool, error) { return svc.UpdateComponent(ctx, "Gaming Rig", "gpu", "VRAM", "8GB") })
				step(t, "gpu first", func() (bool, error) { return svc.MoveComponentUp(ctx, "Gaming Rig", "GPU") })
				step(t, "office first", func() (bool, error) { return svc.MovePCUp(ctx, "office") })
			})

			reg := prometheus.NewRegistry()
			session(t, cfg, func(svc *core.Service) {
				st := svc.Store()
				if diff := cmp.Diff([]string{"Office", "Gaming Rig"}, st.Names()); diff != "" {
					t.Fatalf("pc order (-want +got):\n%s", diff)
				}
				pc, _ := st.PC("GAMING RIG")
				if diff := cmp.Diff([]string{"GPU", "CPU"}, pc.Categories()); diff != "" {
					t.Fatalf("categories (-want +got):\n%s", diff)
				}
				cpu, _ := pc.Spec("cpu")
				if diff := cmp.Diff([]string{"Name", "Cores"}, cpu.Keys()); diff != "" {
					t.Fatalf("params (-want +got):\n%s", diff)
				}
				step(t, "remove office", func() (bool, error) { return svc.RemovePC(ctx, "Office") })
				step(t, "remove rig", func() (bool, error) { return svc.RemovePC(ctx, "gaming rig") })
			}, core.WithMetrics(core.NewMetrics(reg)))

			want := `
# HELP pcspec_pcs Number of PCs in the catalogue.
# TYPE pcspec_pcs gauge
pcspec_pcs 0
`
			if err := testutil.GatherAndCompare(reg, strings.NewReader(want), "pcspec_pcs"); err != nil {
				t.Fatalf("catalogue gauge: %v", err)
			}
		})
	}
}

func session(t *testing.T, cfg config.StorageConfig, fn func(*core.Service), opts ...core.ServiceOption) {
	t.Helper()
	ctx := context.Background()
	log := zaptest.NewLogger(t)
	ps, err := core.OpenPersistentStore(ctx, cfg, log)
	if err != nil {
		t.Fatalf("open %s: %v", cfg.Driver, err)
	}
	defer func() {
		if err := core.CloseStore(ps); err != nil {
			t.Fatalf("close: %v", err)
		}
	}()
	svc, err := core.NewService(ps, append([]core.ServiceOption{core.WithLogger(log)}, opts...)...)
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	if err := svc.Open(ctx); err != nil {
		t.Fatalf("open service: %v", err)
	}
	fn(svc)
}

func step(t *testing.T, what string, fn func() (bool, error)) {
	t.Helper()
	changed, err := fn()
	if err != nil || !changed {
		t.Fatalf("%s: changed=%v err=%v", what, changed, err)
	}
}
