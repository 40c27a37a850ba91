//go:build windows

package runner

const ptySupported = false

var shellPath = "cmd"

func shellCommand(command string) (string, []string) {
	return shellPath, []string{"/C", command}
}
