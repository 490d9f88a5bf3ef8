package core

import (
	"context"
	"os"
	"testing"
	"time"

	"pcspec/internal/infra/persistence/file"
	"pcspec/pkg/domain"

	"github.com/fsnotify/fsnotify"
)

func TestWatcherReloadsOnSave(t *testing.T) {
	dir := t.TempDir()
	fileStore, err := file.New(dir)
	if err != nil {
		t.Fatalf("file store: %v", err)
	}
	reloads := make(chan *domain.Store, 4)
	w, err := NewWatcher(fileStore, func(st *domain.Store) { reloads <- st }, 20*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer func() { _ = w.Close() }()

	st := domain.NewStore()
	st.AddPC("Desk", domain.Components{})
	if err := fileStore.Save(ctx, st); err != nil {
		t.Fatalf("save: %v", err)
	}

	select {
	case got := <-reloads:
		if !got.HasPC("desk") {
			t.Fatalf("reloaded store missing PC: %v", got.Names())
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	fileStore, _ := file.New(dir)
	reloads := make(chan *domain.Store, 1)
	w, err := NewWatcher(fileStore, func(st *domain.Store) { reloads <- st }, 10*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer func() { _ = w.Close() }()

	if err := os.WriteFile(dir+"/notes.txt", []byte("hello"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	select {
	case <-reloads:
		t.Fatal("unexpected reload for unrelated file")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcherStopsOnContextCancel(t *testing.T) {
	fileStore, _ := file.New(t.TempDir())
	w, err := NewWatcher(fileStore, func(*domain.Store) {}, 0, nil)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	if err := w.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	cancel()
	select {
	case <-w.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("watch loop did not exit")
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if err := w.Start(context.Background()); err == nil {
		t.Fatal("expected start after close to fail")
	}
}

func TestNewWatcherValidates(t *testing.T) {
	if _, err := NewWatcher(nil, func(*domain.Store) {}, 0, nil); err == nil {
		t.Fatal("expected error for nil store")
	}
	fileStore, _ := file.New(t.TempDir())
	if _, err := NewWatcher(fileStore, nil, 0, nil); err == nil {
		t.Fatal("expected error for nil callback")
	}
}

func TestWatcherReloadsOnRemove(t *testing.T) {
	dir := t.TempDir()
	fileStore, _ := file.New(dir)
	st := domain.NewStore()
	st.AddPC("Desk", domain.Components{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := fileStore.Save(ctx, st); err != nil {
		t.Fatalf("save: %v", err)
	}

	reloads := make(chan *domain.Store, 4)
	w, err := NewWatcher(fileStore, func(st *domain.Store) { reloads <- st }, 20*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	if err := w.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer func() { _ = w.Close() }()

	if err := os.Remove(fileStore.Path()); err != nil {
		t.Fatalf("remove: %v", err)
	}
	select {
	case got := <-reloads:
		if got.Len() != 0 {
			t.Fatalf("expected empty catalogue after removal, got %v", got.Names())
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload after removal")
	}
}

func TestHandleEventFiltersOps(t *testing.T) {
	fileStore, _ := file.New(t.TempDir())
	w, err := NewWatcher(fileStore, func(*domain.Store) {}, time.Hour, nil)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	defer func() { _ = w.Close() }()
	for _, tc := range []struct {
		op   fsnotify.Op
		want bool
	}{
		{fsnotify.Create, true},
		{fsnotify.Write, true},
		{fsnotify.Rename, true},
		{fsnotify.Remove, true},
		{fsnotify.Chmod, false},
	} {
		w.pending = time.Time{}
		w.handleEvent(fsnotify.Event{Name: fileStore.Path(), Op: tc.op})
		if got := !w.pending.IsZero(); got != tc.want {
			t.Fatalf("%s: pending=%v want %v", tc.op, got, tc.want)
		}
	}
}
