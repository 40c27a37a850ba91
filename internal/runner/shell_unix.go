//go:build !windows

package runner

const ptySupported = true

var shellPath = "/bin/sh"

func shellCommand(command string) (string, []string) {
	return shellPath, []string{"-c", command}
}
