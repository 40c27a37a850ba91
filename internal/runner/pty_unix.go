//go:build !windows

package runner

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"
	"syscall"

	"github.com/creack/pty"
)

// runPty executes the command under a pseudo-terminal and drains the
// master side until the child exits. Read errors after exit (EIO on
// Linux) are the normal end-of-stream signal.
func runPty(ctx context.Context, name string, args []string) ([]byte, int, error) {
	cmd := exec.Command(name, args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	ptmx, err := pty.Start(cmd)
	if err != nil {
		return nil, 0, err
	}
	defer ptmx.Close()

	done := make(chan struct{})
	defer close(done)
	if ctx != nil && ctx.Done() != nil {
		go func() {
			select {
			case <-ctx.Done():
				_ = cmd.Process.Kill()
			case <-done:
			}
		}()
	}

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, ptmx)

	waitErr := cmd.Wait()
	if waitErr == nil {
		return buf.Bytes(), 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		return buf.Bytes(), exitErr.ExitCode(), nil
	}
	return buf.Bytes(), 0, waitErr
}
