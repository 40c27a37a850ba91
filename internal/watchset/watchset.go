// Package watchset tracks the modification times of the watched files.
// The set is built once at startup from glob patterns and literal paths
// and is owned by the engine goroutine; nothing else mutates it.
package watchset

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"stakeout/internal/logging"
	"stakeout/internal/metrics"
)

// Expand resolves each pattern into concrete paths and returns their
// deduplicated union in first-seen order. Literal arguments (no glob
// metacharacters) pass through even when the file does not exist yet;
// patterns contribute only their current matches. An unmatched pattern
// is not an error, an invalid one is.
func Expand(patterns []string) ([]string, error) {
	var paths []string
	seen := make(map[string]struct{})
	appendPath := func(path string) {
		if _, dup := seen[path]; dup {
			return
		}
		seen[path] = struct{}{}
		paths = append(paths, path)
	}

	for _, pattern := range patterns {
		if pattern == "" {
			continue
		}
		if !hasGlobMeta(pattern) {
			appendPath(pattern)
			continue
		}
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		for _, match := range matches {
			appendPath(match)
		}
	}
	return paths, nil
}

func hasGlobMeta(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}

// Change reports the first watched file found with a newer mtime.
type Change struct {
	Path    string
	ModTime time.Time
}

// Set is the ordered watch list plus the last observed mtime per path.
type Set struct {
	paths    []string
	times    map[string]time.Time
	logger   *logging.Logger
	registry *metrics.Registry
}

// New seeds the set with the current mtime of each path. A path that
// cannot be stat'ed stays in the set with a zero time, so the first
// successful stat later reports it as changed.
func New(paths []string, logger *logging.Logger, registry *metrics.Registry) *Set {
	set := &Set{
		paths:    make([]string, 0, len(paths)),
		times:    make(map[string]time.Time, len(paths)),
		logger:   logger,
		registry: registry,
	}
	for _, path := range paths {
		if _, dup := set.times[path]; dup {
			continue
		}
		set.paths = append(set.paths, path)
		info, err := os.Stat(path)
		if err != nil {
			set.registry.AddStatFailure()
			logger.Warn("cannot read file time, watching anyway", map[string]string{
				"path":  path,
				"error": err.Error(),
			})
			set.times[path] = time.Time{}
			continue
		}
		set.times[path] = info.ModTime()
	}
	return set
}

// FindChanged scans the set in order and returns the first path whose
// on-disk mtime is strictly newer than the recorded one. Stat failures
// are logged and skipped; the entry is kept for later cycles. The
// recorded time is not updated here, so callers decide when a change is
// consumed.
func (s *Set) FindChanged() (Change, bool) {
	if s == nil {
		return Change{}, false
	}
	for _, path := range s.paths {
		info, err := os.Stat(path)
		if err != nil {
			s.registry.AddStatFailure()
			s.logger.Warn("cannot read file time, skipping", map[string]string{
				"path":  path,
				"error": err.Error(),
			})
			continue
		}
		if info.ModTime().After(s.times[path]) {
			return Change{Path: path, ModTime: info.ModTime()}, true
		}
	}
	return Change{}, false
}

// Update records the observed mtime for path. Unknown paths are
// ignored; the watch list never grows after startup.
func (s *Set) Update(path string, mtime time.Time) {
	if s == nil {
		return
	}
	if _, known := s.times[path]; !known {
		return
	}
	s.times[path] = mtime
}

// Len reports how many paths are watched.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.paths)
}

// Paths returns the watched paths in watch order.
func (s *Set) Paths() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.paths))
	copy(out, s.paths)
	return out
}
