// Package runner executes the watched command through the platform
// shell and captures its merged output and exit status.
package runner

import (
	"context"
	"errors"
	"os/exec"
	"time"

	"stakeout/internal/logging"
)

// StartFailureStatus is the exit status recorded when the command could
// not be started at all. It is non-zero so classification yields Fail.
const StartFailureStatus = -1

// Result is one captured command run. Output is the raw merged
// stdout+stderr stream, untouched by ANSI stripping.
type Result struct {
	Command    string
	Output     []byte
	ExitStatus int
	Start      time.Time
	Duration   time.Duration
}

// Text returns the captured output as a string.
func (r Result) Text() string {
	return string(r.Output)
}

// Shell runs commands via the platform shell. With Pty set (and on a
// platform that supports it) the command runs under a pseudo-terminal
// so it keeps emitting color and progress output.
type Shell struct {
	Logger *logging.Logger
	Pty    bool
}

// PtySupported reports whether this build can run commands under a
// pseudo-terminal.
func PtySupported() bool {
	return ptySupported
}

// Run executes command and always returns a Result: failures to start
// the command are folded into the output text with StartFailureStatus
// so the caller's classification still produces a verdict.
func (s *Shell) Run(ctx context.Context, command string) Result {
	start := time.Now()
	name, args := shellCommand(command)

	usePty := s != nil && s.Pty && ptySupported
	if s != nil {
		s.Logger.Debug("running command", map[string]string{
			"command": command,
			"pty":     boolField(usePty),
		})
	}

	var output []byte
	var status int
	var startErr error
	if usePty {
		output, status, startErr = runPty(ctx, name, args)
	} else {
		output, status, startErr = runPipes(ctx, name, args)
	}
	if startErr != nil {
		output = append(output, []byte(startErr.Error()+"\n")...)
		status = StartFailureStatus
	}

	return Result{
		Command:    command,
		Output:     output,
		ExitStatus: status,
		Start:      start,
		Duration:   time.Since(start),
	}
}

// runPipes captures combined output through ordinary pipes. The third
// return value is non-nil only when the command never started.
func runPipes(ctx context.Context, name string, args []string) ([]byte, int, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	if err == nil {
		return output, 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return output, exitErr.ExitCode(), nil
	}
	return output, 0, err
}

func boolField(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
