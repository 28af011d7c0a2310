package store

import (
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// reloadWatcher observes the backing file for changes made by other processes
// and raises a dirty flag consumed at the next operation boundary. It watches
// the parent directory rather than the file itself, because the atomic rename
// protocol replaces the inode a file-level watch would be pinned to.
//
// The flag is a hint: it forces a full re-read even when the metadata
// fingerprint looks unchanged. The fingerprint check stays authoritative, so
// a missed event never causes a stale read, only a cheaper one.
type reloadWatcher struct {
	watcher *fsnotify.Watcher
	path    string

	needsReload atomic.Bool
	// Counter for skipping events caused by the store's own atomic rename.
	ignoreOwnEvents atomic.Int64

	done     chan struct{}
	stopOnce sync.Once
}

func newReloadWatcher(path string) (*reloadWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}

	w := &reloadWatcher{
		watcher: watcher,
		path:    path,
		done:    make(chan struct{}),
	}
	go w.eventLoop()

	log.Debug().Str("path", path).Msg("Session file watcher started")

	return w, nil
}

func (w *reloadWatcher) eventLoop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Error().Err(err).Msg("Session file watcher error")

		case <-w.done:
			return
		}
	}
}

func (w *reloadWatcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != filepath.Clean(w.path) {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return
	}

	for {
		current := w.ignoreOwnEvents.Load()
		if current <= 0 {
			break
		}
		if w.ignoreOwnEvents.CompareAndSwap(current, current-1) {
			log.Trace().
				Str("path", event.Name).
				Int64("remaining", current-1).
				Msg("Ignoring event from own write")
			return
		}
	}

	log.Trace().Str("path", event.Name).Msg("External change detected, marking reload")
	w.needsReload.Store(true)
}

// markOwnWrite arms the watcher to skip the event produced by the store's own
// rename, so a process does not reload state it just wrote.
func (w *reloadWatcher) markOwnWrite() {
	w.ignoreOwnEvents.Add(1)
}

// consumeDirty reports whether an external change was observed since the last
// call, clearing the flag.
func (w *reloadWatcher) consumeDirty() bool {
	return w.needsReload.Swap(false)
}

func (w *reloadWatcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.watcher.Close()
	})
	if err != nil {
		return fmt.Errorf("failed to close file watcher: %w", err)
	}
	return nil
}
