// Package runlock serializes command runs across processes with an
// advisory file lock. Cooperating instances that share the same lock
// path take turns; the lock file itself is never deleted.
package runlock

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
)

// TmpDirEnv overrides where the lock file lives.
const TmpDirEnv = "STAKEOUT_TMPDIR"

// DefaultName is the lock file name when the operator does not pick one.
const DefaultName = "stakeout.lock"

const acquireRetryDelay = 25 * time.Millisecond

// Dir resolves the directory for lock files: $STAKEOUT_TMPDIR when set,
// otherwise the system temp directory.
func Dir() string {
	if dir := strings.TrimSpace(os.Getenv(TmpDirEnv)); dir != "" {
		return dir
	}
	return os.TempDir()
}

// Lock is a cross-process advisory lock around command execution. It is
// not an in-process mutex; exclusion is only against other processes
// honoring the same lock path.
type Lock struct {
	path  string
	flock *flock.Flock
}

// New creates the lock file under dir (created if needed) and returns a
// handle kept for the process lifetime. An unusable directory is a
// startup error.
func New(dir, name string) (*Lock, error) {
	if strings.TrimSpace(dir) == "" {
		dir = Dir()
	}
	if strings.TrimSpace(name) == "" {
		name = DefaultName
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory %s: %w", dir, err)
	}
	path := filepath.Join(dir, name)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create lock file %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return nil, fmt.Errorf("create lock file %s: %w", path, err)
	}
	return &Lock{path: path, flock: flock.New(path)}, nil
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// WithExclusive runs body. When enabled, the advisory lock is held for
// the duration: acquisition blocks until the lock is free or ctx is
// cancelled, and release happens even when body fails. When disabled,
// body runs directly. Acquisition failures are returned without
// invoking body.
func (l *Lock) WithExclusive(ctx context.Context, enabled bool, body func() error) (err error) {
	if !enabled {
		return body()
	}
	if l == nil {
		return fmt.Errorf("run lock not initialized")
	}
	locked, lockErr := l.flock.TryLockContext(ctx, acquireRetryDelay)
	if lockErr != nil {
		return fmt.Errorf("acquire run lock %s: %w", l.path, lockErr)
	}
	if !locked {
		return fmt.Errorf("acquire run lock %s: not acquired", l.path)
	}
	defer func() {
		if unlockErr := l.flock.Unlock(); unlockErr != nil && err == nil {
			err = fmt.Errorf("release run lock %s: %w", l.path, unlockErr)
		}
	}()
	return body()
}
