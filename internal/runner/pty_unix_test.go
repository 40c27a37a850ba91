//go:build !windows

package runner

import (
	"context"
	"strings"
	"testing"
)

func TestRunUnderPtyCapturesOutput(t *testing.T) {
	shell := &Shell{Pty: true}
	result := shell.Run(context.Background(), "echo pty-hello")
	if result.ExitStatus != 0 {
		t.Fatalf("expected status 0, got %d with output %q", result.ExitStatus, result.Text())
	}
	clean := StripANSIString(result.Text())
	if !strings.Contains(clean, "pty-hello") {
		t.Fatalf("expected command output, got %q", clean)
	}
}

func TestRunUnderPtyReportsExitStatus(t *testing.T) {
	shell := &Shell{Pty: true}
	result := shell.Run(context.Background(), "exit 4")
	if result.ExitStatus != 4 {
		t.Fatalf("expected status 4, got %d", result.ExitStatus)
	}
}

func TestPtySupportedOnUnix(t *testing.T) {
	if !PtySupported() {
		t.Fatal("expected pty support on this platform")
	}
}
