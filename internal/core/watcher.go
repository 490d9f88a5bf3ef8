package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"pcspec/internal/infra/persistence/file"
	"pcspec/pkg/domain"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is how long the store file must stay quiet before a reload.
const DefaultDebounce = 250 * time.Millisecond

// ReloadFunc receives the catalogue after each settled change.
type ReloadFunc func(*domain.Store)

// Watcher reloads store.json whenever it changes or disappears on disk.
// Editors and the atomic save both produce bursts of events, so changes are
// debounced before reloading. A removed file reloads as an empty catalogue.
type Watcher struct {
	mu       sync.Mutex
	fsw      *fsnotify.Watcher
	store    *file.Store
	onReload ReloadFunc
	log      *zap.Logger
	debounce time.Duration
	pending  time.Time
	stopCh   chan struct{}
	doneCh   chan struct{}
	running  bool
	closed   bool
}

// NewWatcher watches the directory of store. debounce <= 0 selects
// DefaultDebounce.
func NewWatcher(store *file.Store, onReload ReloadFunc, debounce time.Duration, log *zap.Logger) (*Watcher, error) {
	if store == nil || onReload == nil {
		return nil, errors.New("watcher requires a store and a reload callback")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if log == nil {
		log = zap.NewNop()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fs watcher: %w", err)
	}
	return &Watcher{
		fsw:      fsw,
		store:    store,
		onReload: onReload,
		log:      log,
		debounce: debounce,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start begins watching and returns immediately. The loop ends on ctx
// cancellation or Close.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return errors.New("watcher closed")
	}
	if w.running {
		return nil
	}
	if err := os.MkdirAll(w.store.Dir(), 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	if err := w.fsw.Add(w.store.Dir()); err != nil {
		return fmt.Errorf("watch %s: %w", w.store.Dir(), err)
	}
	w.running = true
	w.log.Info("watching store", zap.String("path", w.store.Path()))
	go w.run(ctx)
	return nil
}

// Close stops the loop and releases the fs watcher.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	running := w.running
	w.mu.Unlock()

	close(w.stopCh)
	if running {
		<-w.doneCh
	}
	return w.fsw.Close()
}

// Done is closed when the watch loop has exited.
func (w *Watcher) Done() <-chan struct{} { return w.doneCh }

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)
	tick := w.debounce / 4
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("watcher error", zap.Error(err))
		case <-ticker.C:
			w.flush(ctx)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != filepath.Clean(w.store.Path()) {
		return
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
		return
	}
	w.log.Debug("store event", zap.String("op", event.Op.String()))
	w.mu.Lock()
	w.pending = time.Now()
	w.mu.Unlock()
}

func (w *Watcher) flush(ctx context.Context) {
	w.mu.Lock()
	if w.pending.IsZero() || time.Since(w.pending) < w.debounce {
		w.mu.Unlock()
		return
	}
	w.pending = time.Time{}
	w.mu.Unlock()

	st, err := w.store.Load(ctx)
	if err != nil {
		w.log.Warn("reload store", zap.Error(err))
		return
	}
	w.log.Debug("store reloaded", zap.Int("pcs", st.Len()))
	w.onReload(st)
}
