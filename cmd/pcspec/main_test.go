package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pcspec/internal/config"
	"pcspec/internal/core"
	"pcspec/pkg/domain"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
)

func isolateEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PCSPEC_STORAGE_DRIVER", "PCSPEC_STORE_DIR", "PCSPEC_BACKUP_DIR",
		"PCSPEC_SQLITE_PATH", "PCSPEC_POSTGRES_DSN", "PCSPEC_BLOB_DRIVER",
		"PCSPEC_LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", filepath.Join(dir, "config.yaml"), "--store-dir", dir}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func mustRun(t *testing.T, dir string, args ...string) string {
	t.Helper()
	out, err := run(t, dir, args...)
	if err != nil {
		t.Fatalf("pcspec %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func TestCatalogueWorkflow(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()

	mustRun(t, dir, "pc", "add", "Workstation")
	mustRun(t, dir, "pc", "add", "Gaming")
	mustRun(t, dir, "component", "add", "workstation", "CPU", "Model: Ryzen 9", "Cores:16")
	mustRun(t, dir, "component", "add", "Workstation", "GPU")
	mustRun(t, dir, "param", "set", "Workstation", "gpu", "VRAM:   24GB")
	mustRun(t, dir, "param", "set", "Workstation", "cpu", "model: Ryzen 7")
	mustRun(t, dir, "component", "up", "Workstation", "GPU")
	mustRun(t, dir, "pc", "down", "Workstation")

	if diff := cmp.Diff("Gaming\nWorkstation\n", mustRun(t, dir, "pc", "list")); diff != "" {
		t.Fatalf("list mismatch (-want +got):\n%s", diff)
	}
	want := "Workstation\n" +
		"  GPU\n" +
		"    VRAM: 24GB\n" +
		"  CPU\n" +
		"    Model: Ryzen 7\n" +
		"    Cores: 16\n"
	if diff := cmp.Diff(want, mustRun(t, dir, "pc", "show", "WORKSTATION")); diff != "" {
		t.Fatalf("show mismatch (-want +got):\n%s", diff)
	}

	for _, name := range []string{domain.StoreFileName, domain.BackupFileName, domain.SecondBackupFileName} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("expected %s: %v", name, err)
		}
	}
}

func TestParamRemovalAndOrdering(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	mustRun(t, dir, "pc", "add", "Server")
	mustRun(t, dir, "component", "add", "Server", "RAM", "Size: 64GB", "Speed: 4800", "ECC: yes")
	mustRun(t, dir, "param", "down", "Server", "RAM", "size")
	mustRun(t, dir, "param", "rm", "Server", "RAM", "ECC")
	out := mustRun(t, dir, "param", "up", "Server", "RAM", "Speed")
	if !strings.Contains(out, "unchanged") {
		t.Fatalf("moving the first parameter up should be a no-op, got %q", out)
	}
	mustRun(t, dir, "component", "swap", "Server", "ram", "Size: 128GB")
	want := "Server\n  RAM\n    Size: 128GB\n"
	if diff := cmp.Diff(want, mustRun(t, dir, "pc", "show", "Server")); diff != "" {
		t.Fatalf("show mismatch (-want +got):\n%s", diff)
	}
	mustRun(t, dir, "component", "rm", "Server", "RAM")
	mustRun(t, dir, "pc", "rm", "server")
	if out := mustRun(t, dir, "pc", "list"); out != "" {
		t.Fatalf("expected empty list, got %q", out)
	}
}

func TestUserErrors(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	mustRun(t, dir, "pc", "add", "Laptop")
	mustRun(t, dir, "component", "add", "Laptop", "Display")

	cases := []struct {
		args []string
		want string
	}{
		{[]string{"pc", "add", "LAPTOP"}, "already exists"},
		{[]string{"pc", "show", "Desktop"}, "not found"},
		{[]string{"pc", "rm", "Desktop"}, "not found"},
		{[]string{"component", "add", "Laptop", "display"}, "already exists"},
		{[]string{"component", "add", "Laptop", "CPU", "no colon here"}, "name: value"},
		{[]string{"component", "rm", "Laptop", "CPU"}, "not found"},
		{[]string{"param", "set", "Laptop", "Display", ": 15in"}, "name: value"},
		{[]string{"param", "rm", "Laptop", "Display", "Size"}, "not found"},
		{[]string{"pc", "add"}, "accepts 1 arg"},
	}
	for _, tc := range cases {
		_, err := run(t, dir, tc.args...)
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("pcspec %s: expected error containing %q, got %v", strings.Join(tc.args, " "), tc.want, err)
		}
	}
}

func TestReadOnlyCommandsSkipBackup(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	mustRun(t, dir, "pc", "list")
	mustRun(t, dir, "pc", "list")
	if _, err := os.Stat(filepath.Join(dir, domain.BackupFileName)); !os.IsNotExist(err) {
		t.Fatalf("list must not rotate backups, stat err = %v", err)
	}
}

func TestBackupCommand(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	mustRun(t, dir, "pc", "add", "Mini")
	out := mustRun(t, dir, "backup")
	if !strings.Contains(out, "backup rotated") {
		t.Fatalf("unexpected output %q", out)
	}
	live, _ := os.ReadFile(filepath.Join(dir, domain.StoreFileName))
	bak, _ := os.ReadFile(filepath.Join(dir, domain.BackupFileName))
	if diff := cmp.Diff(string(live), string(bak)); diff != "" {
		t.Fatalf("backup mismatch (-live +bak):\n%s", diff)
	}
}

func TestMemoryDriverFlag(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	mustRun(t, dir, "--driver", "memory", "pc", "add", "Ephemeral")
	if _, err := os.Stat(filepath.Join(dir, domain.StoreFileName)); !os.IsNotExist(err) {
		t.Fatalf("memory driver must not write store.json, stat err = %v", err)
	}
	if out := mustRun(t, dir, "--driver", "memory", "pc", "list"); out != "" {
		t.Fatalf("memory driver is per process, got %q", out)
	}
}

func TestWatchRequiresFileDriver(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	if _, err := run(t, dir, "--driver", "memory", "watch"); err == nil || !strings.Contains(err.Error(), "file driver") {
		t.Fatalf("expected file driver error, got %v", err)
	}
}

func TestConfigInitAndShow(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	out := mustRun(t, dir, "config", "init")
	if !strings.Contains(out, "config.yaml") {
		t.Fatalf("unexpected output %q", out)
	}
	if _, err := run(t, dir, "config", "init"); err == nil {
		t.Fatalf("expected error when config exists")
	}
	mustRun(t, dir, "config", "init", "--force")
	show := mustRun(t, dir, "config", "show")
	if !strings.Contains(show, "driver: file") || !strings.Contains(show, dir) {
		t.Fatalf("unexpected config:\n%s", show)
	}
}

func TestInvalidDriver(t *testing.T) {
	isolateEnv(t)
	if _, err := run(t, t.TempDir(), "--driver", "floppy", "pc", "list"); err == nil || !strings.Contains(err.Error(), "unknown storage driver") {
		t.Fatalf("expected driver error, got %v", err)
	}
}

func TestBackupList(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	if out := mustRun(t, dir, "backup", "list"); !strings.Contains(out, "no documents stored") {
		t.Fatalf("unexpected output %q", out)
	}
	mustRun(t, dir, "pc", "add", "Mini")
	mustRun(t, dir, "backup")
	out := mustRun(t, dir, "backup", "list")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], domain.StoreFileName) || !strings.HasPrefix(lines[1], domain.BackupFileName) {
		t.Fatalf("unexpected listing:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(dir, domain.SecondBackupFileName)); !os.IsNotExist(err) {
		t.Fatalf("listing must not rotate backups, stat err = %v", err)
	}
}

func TestCloseErrorIsReported(t *testing.T) {
	isolateEnv(t)
	prev := closeStore
	closeStore = func(core.PersistentStore) error { return errors.New("close failed") }
	t.Cleanup(func() { closeStore = prev })

	dir := t.TempDir()
	for _, args := range [][]string{{"backup"}, {"pc", "list"}} {
		if _, err := run(t, dir, args...); err == nil || !strings.Contains(err.Error(), "close failed") {
			t.Fatalf("%v: expected close error, got %v", args, err)
		}
	}
	if _, err := run(t, dir, "pc", "show", "Missing"); err == nil || strings.Contains(err.Error(), "close failed") {
		t.Fatalf("command error must win over close error, got %v", err)
	}
}

func TestLoggerErrorIsNotWrappedTwice(t *testing.T) {
	isolateEnv(t)
	prev := newLogger
	newLogger = func(config.LoggingConfig, bool) (*zap.Logger, error) {
		return nil, fmt.Errorf("failed to initialize logger: %w", errors.New("open stderr: bad file descriptor"))
	}
	t.Cleanup(func() { newLogger = prev })

	_, err := run(t, t.TempDir(), "pc", "list")
	if err == nil {
		t.Fatal("expected logger error")
	}
	if n := strings.Count(err.Error(), "failed to initialize logger"); n != 1 {
		t.Fatalf("logger error wrapped %d times: %v", n, err)
	}
}
