//go:build windows

package runner

import "context"

// runPty degrades to pipe capture; there is no pty on this platform.
func runPty(ctx context.Context, name string, args []string) ([]byte, int, error) {
	return runPipes(ctx, name, args)
}
