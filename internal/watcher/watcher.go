// Package watcher turns filesystem notifications into wake signals for
// the poll loop. A wake only cuts the sleep between polls short; change
// detection itself stays with the modification-time scan, so missed or
// spurious notifications cost nothing but latency.
package watcher

import (
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"stakeout/internal/logging"
)

const defaultDebounce = 100 * time.Millisecond

// Options configures a Watcher.
type Options struct {
	Debounce time.Duration
	Logger   *logging.Logger
}

// Stats reports watcher counters for the status endpoint and tests.
type Stats struct {
	WatchedDirs int
	Delivered   uint64
	Coalesced   uint64
}

// Watcher watches the parent directories of the given files and signals
// the wake channel when one of the files sees an event.
type Watcher struct {
	source    *fsnotify.Watcher
	wake      chan struct{}
	files     map[string]struct{}
	dirs      []string
	debouncer *debouncer
	logger    *logging.Logger
	done      chan struct{}
	closeOnce sync.Once

	mu     sync.Mutex
	closed bool

	delivered atomic.Uint64
	coalesced atomic.Uint64
}

// New starts watching the parent directories of paths. Directories that
// cannot be watched are logged and skipped; the caller decides whether
// a watcher with zero directories is still worth keeping.
func New(paths []string, opts Options) (*Watcher, error) {
	source, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	w := &Watcher{
		source:    source,
		wake:      make(chan struct{}, 1),
		files:     make(map[string]struct{}, len(paths)),
		debouncer: newDebouncer(debounce),
		logger:    opts.Logger,
		done:      make(chan struct{}),
	}

	seen := make(map[string]struct{})
	for _, path := range paths {
		clean := filepath.Clean(path)
		w.files[clean] = struct{}{}
		dir := filepath.Dir(clean)
		if _, dup := seen[dir]; dup {
			continue
		}
		seen[dir] = struct{}{}
		if err := source.Add(dir); err != nil {
			w.logger.Warn("cannot watch directory, relying on polling for it", map[string]string{
				"dir":   dir,
				"error": err.Error(),
			})
			continue
		}
		w.dirs = append(w.dirs, dir)
	}

	go w.run()
	return w, nil
}

// Wake returns the channel signalled after a debounced event on a
// watched file. The channel has capacity one; signals coalesce.
func (w *Watcher) Wake() <-chan struct{} {
	if w == nil {
		return nil
	}
	return w.wake
}

// Stats returns current counters.
func (w *Watcher) Stats() Stats {
	if w == nil {
		return Stats{}
	}
	return Stats{
		WatchedDirs: len(w.dirs),
		Delivered:   w.delivered.Load(),
		Coalesced:   w.coalesced.Load(),
	}
}

// Close stops event processing. Safe to call more than once.
func (w *Watcher) Close() error {
	if w == nil {
		return nil
	}
	var err error
	w.closeOnce.Do(func() {
		w.mu.Lock()
		w.closed = true
		w.debouncer.stop()
		w.mu.Unlock()
		close(w.done)
		err = w.source.Close()
	})
	return err
}

func (w *Watcher) run() {
	for {
		select {
		case ev, ok := <-w.source.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-w.source.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", map[string]string{"error": err.Error()})
		case <-w.done:
			return
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	path := filepath.Clean(ev.Name)
	if _, watched := w.files[path]; !watched {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.debouncer.schedule(path, w.flush)
}

func (w *Watcher) flush(path string) {
	w.mu.Lock()
	if w.closed || !w.debouncer.pop(path) {
		w.mu.Unlock()
		return
	}
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
		w.delivered.Add(1)
	default:
		w.coalesced.Add(1)
	}
}
