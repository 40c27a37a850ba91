//go:build !windows

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Drives the real wiring end to end: parse, watch set, engine with
// --run-first, and the signal path back out of the loop.
func TestRunWatchesUntilInterrupted(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	watched := filepath.Join(dir, "a_test.rb")
	if err := os.WriteFile(watched, []byte("puts :ok\n"), 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var stdout, stderr syncBuffer
	done := make(chan int, 1)
	go func() {
		done <- run([]string{"--run-first", "--notifier", "none", "-t", "60", "echo watch-probe", watched}, &stdout, &stderr)
	}()

	// The first-run output proves the loop is up, which means the
	// signal handler is already installed.
	waitForOutput(t, stdout.String, "watch-probe")
	if err := syscall.Kill(os.Getpid(), syscall.SIGINT); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	select {
	case code := <-done:
		if code != exitCodeSuccess {
			t.Fatalf("expected code %d, got %d (stderr: %s)", exitCodeSuccess, code, stderr.String())
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the watch loop to stop")
	}
	if !strings.Contains(stdout.String(), "Interrupted.") {
		t.Fatalf("expected an interrupt message, got %q", stdout.String())
	}
}

func waitForOutput(t *testing.T, read func() string, want string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if strings.Contains(read(), want) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for output containing %q, got %q", want, read())
}
