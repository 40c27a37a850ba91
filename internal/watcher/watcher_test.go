package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"stakeout/internal/logging"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func newTestWatcher(t *testing.T, paths []string) *Watcher {
	t.Helper()
	w, err := New(paths, Options{
		Debounce: 20 * time.Millisecond,
		Logger:   logging.NewLoggerWithOutput(nil, logging.LevelDebug),
	})
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	t.Cleanup(func() { _ = w.Close() })
	return w
}

func TestWakeOnWatchedFileChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "watched.rb")
	writeFile(t, path, "v1")

	w := newTestWatcher(t, []string{path})
	writeFile(t, path, "v2")

	select {
	case <-w.Wake():
	case <-time.After(2 * time.Second):
		t.Fatal("expected a wake signal after a write")
	}
	if w.Stats().WatchedDirs != 1 {
		t.Fatalf("expected 1 watched dir, got %d", w.Stats().WatchedDirs)
	}
}

func TestUnwatchedSiblingDoesNotWake(t *testing.T) {
	dir := t.TempDir()
	watched := filepath.Join(dir, "watched.rb")
	sibling := filepath.Join(dir, "other.rb")
	writeFile(t, watched, "v1")

	w := newTestWatcher(t, []string{watched})
	writeFile(t, sibling, "noise")

	select {
	case <-w.Wake():
		t.Fatal("expected no wake for an unwatched file")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestBurstCoalescesIntoOneWake(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "busy.rb")
	writeFile(t, path, "v1")

	w := newTestWatcher(t, []string{path})
	for i := 0; i < 5; i++ {
		writeFile(t, path, "spam")
		time.Sleep(2 * time.Millisecond)
	}

	select {
	case <-w.Wake():
	case <-time.After(2 * time.Second):
		t.Fatal("expected a wake signal")
	}
	select {
	case <-w.Wake():
		t.Fatal("expected the burst to collapse into one wake")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestUnwatchableDirectoryIsSkipped(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "present.rb")
	writeFile(t, present, "v1")
	absent := filepath.Join(dir, "missing-dir", "absent.rb")

	logger := logging.NewLoggerWithOutput(nil, logging.LevelDebug)
	w, err := New([]string{present, absent}, Options{Logger: logger})
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	defer w.Close()

	if got := w.Stats().WatchedDirs; got != 1 {
		t.Fatalf("expected only the existing dir watched, got %d", got)
	}
	warned := false
	for _, entry := range logger.Buffer().List() {
		if entry.Level == logging.LevelWarn {
			warned = true
		}
	}
	if !warned {
		t.Fatal("expected a warning for the unwatchable directory")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "watched.rb")
	writeFile(t, path, "v1")

	w := newTestWatcher(t, []string{path})
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestNilWatcherIsSafe(t *testing.T) {
	var w *Watcher
	if w.Wake() != nil {
		t.Fatal("expected nil wake channel")
	}
	if err := w.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.Stats() != (Stats{}) {
		t.Fatal("expected zero stats")
	}
}
