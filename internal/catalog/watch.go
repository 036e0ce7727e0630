package catalog

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"gearbot/internal/obs"

	"github.com/fsnotify/fsnotify"
)

// WatchedStore keeps the decoded catalog in memory and swaps in a fresh
// snapshot whenever the file changes on disk. Readers always see a complete
// snapshot; a reload that fails keeps the previous one.
type WatchedStore struct {
	path    string
	watcher *fsnotify.Watcher
	current atomic.Pointer[Catalog]
	lastErr atomic.Pointer[error]
	reload  sync.Mutex

	// settle is the delay between a change event and the reload, giving the
	// writer time to finish.
	settle time.Duration
}

// NewWatchedStore loads path and starts watching its directory. A failed
// initial load is not fatal: Load reports ErrUnavailable until a reload
// succeeds.
func NewWatchedStore(path string) (*WatchedStore, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve catalog path: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	// Watch the directory: editors and deploy tools often replace the file.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch catalog directory: %w", err)
	}
	s := &WatchedStore{path: abs, watcher: watcher, settle: 100 * time.Millisecond}
	if _, err := s.Reload(context.Background()); err != nil {
		obs.Logger.Error("catalog_initial_load_failed", "path", abs, "error", err)
	}
	obs.Logger.Info("catalog_watcher_initialized", "path", abs)
	return s, nil
}

// Load returns the current snapshot.
func (s *WatchedStore) Load(ctx context.Context) (*Catalog, error) {
	if c := s.current.Load(); c != nil {
		return c, nil
	}
	if p := s.lastErr.Load(); p != nil {
		return Empty(), fmt.Errorf("%w: %w", ErrUnavailable, *p)
	}
	return Empty(), ErrUnavailable
}

// Snapshot returns the current snapshot or nil if none was ever loaded.
func (s *WatchedStore) Snapshot() *Catalog { return s.current.Load() }

// Reload decodes the file and publishes it as the current snapshot.
func (s *WatchedStore) Reload(ctx context.Context) (*Catalog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.reload.Lock()
	defer s.reload.Unlock()
	c, err := readFile(s.path)
	if err != nil {
		s.lastErr.Store(&err)
		return nil, err
	}
	s.current.Store(c)
	s.lastErr.Store(nil)
	st := c.Stats()
	obs.Logger.Info("catalog_reloaded", "path", s.path, "categories", st.Categories, "brands", st.Brands, "models", st.Models, "defective", st.Defective)
	return c, nil
}

// Watch reloads on changes to the catalog file until ctx is done or the
// watcher is closed.
func (s *WatchedStore) Watch(ctx context.Context) {
	obs.Logger.Info("catalog_watch_started", "path", s.path)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != s.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.settle):
			}
			obs.Logger.Info("catalog_file_changed", "path", event.Name, "op", event.Op.String())
			if _, err := s.Reload(ctx); err != nil && !errors.Is(err, context.Canceled) {
				obs.Logger.Error("catalog_reload_failed", "path", s.path, "error", err)
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			obs.Logger.Error("catalog_watcher_error", "error", err)
		}
	}
}

// Close stops the file watcher.
func (s *WatchedStore) Close() error {
	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}
