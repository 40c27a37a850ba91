package watchset

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"stakeout/internal/logging"
)

func writeFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("x\n"), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func touchLater(t *testing.T, path string, delta time.Duration) time.Time {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat %s: %v", path, err)
	}
	next := info.ModTime().Add(delta)
	if err := os.Chtimes(path, next, next); err != nil {
		t.Fatalf("chtimes %s: %v", path, err)
	}
	return next
}

func TestExpandDedupesAndKeepsOrder(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.rb")
	b := writeFile(t, dir, "b.rb")
	c := writeFile(t, dir, "lib/c.rb")

	paths, err := Expand([]string{
		b,
		filepath.Join(dir, "*.rb"),
		filepath.Join(dir, "**", "*.rb"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{b, a, c}
	if len(paths) != len(want) {
		t.Fatalf("expected %d paths, got %v", len(want), paths)
	}
	if paths[0] != b {
		t.Fatalf("expected literal first, got %v", paths)
	}
	seen := make(map[string]int)
	for _, p := range paths {
		seen[p]++
	}
	for _, p := range want {
		if seen[p] != 1 {
			t.Fatalf("expected %s exactly once, got %v", p, paths)
		}
	}
}

func TestExpandKeepsMissingLiterals(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "not-yet.rb")
	paths, err := Expand([]string{missing})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(paths) != 1 || paths[0] != missing {
		t.Fatalf("expected missing literal kept, got %v", paths)
	}
}

func TestExpandUnmatchedPatternIsNotAnError(t *testing.T) {
	paths, err := Expand([]string{filepath.Join(t.TempDir(), "*.nothing")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(paths) != 0 {
		t.Fatalf("expected no paths, got %v", paths)
	}
}

func TestExpandRejectsInvalidPattern(t *testing.T) {
	if _, err := Expand([]string{"broken["}); err == nil {
		t.Fatal("expected error for invalid pattern")
	}
}

func TestFindChangedReturnsFirstNewer(t *testing.T) {
	dir := t.TempDir()
	first := writeFile(t, dir, "first.rb")
	second := writeFile(t, dir, "second.rb")
	logger := logging.NewLoggerWithOutput(nil, logging.LevelDebug)

	set := New([]string{first, second}, logger, nil)
	if change, ok := set.FindChanged(); ok {
		t.Fatalf("expected no change after seeding, got %+v", change)
	}

	touchLater(t, second, 2*time.Second)
	touchLater(t, first, 2*time.Second)

	change, ok := set.FindChanged()
	if !ok {
		t.Fatal("expected a change")
	}
	if change.Path != first {
		t.Fatalf("expected first watched path to win, got %s", change.Path)
	}
}

func TestFindChangedIsIdempotentAfterUpdate(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "watched.rb")
	logger := logging.NewLoggerWithOutput(nil, logging.LevelDebug)

	set := New([]string{path}, logger, nil)
	touchLater(t, path, 2*time.Second)

	change, ok := set.FindChanged()
	if !ok || change.Path != path {
		t.Fatalf("expected change for %s, got ok=%v %+v", path, ok, change)
	}
	set.Update(change.Path, change.ModTime)

	if change, ok := set.FindChanged(); ok {
		t.Fatalf("expected no change after update, got %+v", change)
	}
	if change, ok := set.FindChanged(); ok {
		t.Fatalf("expected repeated scan to stay quiet, got %+v", change)
	}
}

func TestFindChangedSkipsMissingFileWithWarning(t *testing.T) {
	dir := t.TempDir()
	gone := writeFile(t, dir, "gone.rb")
	stays := writeFile(t, dir, "stays.rb")
	logger := logging.NewLoggerWithOutput(nil, logging.LevelDebug)

	set := New([]string{gone, stays}, logger, nil)
	if err := os.Remove(gone); err != nil {
		t.Fatalf("remove: %v", err)
	}
	touchLater(t, stays, 2*time.Second)

	change, ok := set.FindChanged()
	if !ok || change.Path != stays {
		t.Fatalf("expected change on surviving file, got ok=%v %+v", ok, change)
	}
	if set.Len() != 2 {
		t.Fatalf("expected missing file to stay in the set, got %d", set.Len())
	}

	found := false
	for _, entry := range logger.Buffer().List() {
		if entry.Level == logging.LevelWarn && entry.Fields["path"] == gone {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a warning for the missing file")
	}
}

func TestSeedFailureReportsChangeOnFirstStat(t *testing.T) {
	dir := t.TempDir()
	late := filepath.Join(dir, "late.rb")
	logger := logging.NewLoggerWithOutput(nil, logging.LevelDebug)

	set := New([]string{late}, logger, nil)
	if change, ok := set.FindChanged(); ok {
		t.Fatalf("expected no change while file is absent, got %+v", change)
	}

	writeFile(t, dir, "late.rb")
	change, ok := set.FindChanged()
	if !ok || change.Path != late {
		t.Fatalf("expected newly created file to report changed, got ok=%v %+v", ok, change)
	}
}

func TestUpdateIgnoresUnknownPath(t *testing.T) {
	logger := logging.NewLoggerWithOutput(nil, logging.LevelDebug)
	set := New(nil, logger, nil)
	set.Update("/not/watched", time.Now())
	if set.Len() != 0 {
		t.Fatalf("expected empty set, got %d", set.Len())
	}
}

func TestPathsReturnsCopy(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "solo.rb")
	logger := logging.NewLoggerWithOutput(nil, logging.LevelDebug)

	set := New([]string{path}, logger, nil)
	paths := set.Paths()
	paths[0] = "mutated"
	if set.Paths()[0] != path {
		t.Fatal("expected internal path list to be unaffected")
	}
}
