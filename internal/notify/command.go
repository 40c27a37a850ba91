package notify

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
)

// candidateBinaries are probed in order for --notifier=auto.
var candidateBinaries = []string{"notify-send", "terminal-notifier", "growlnotify", "snarl"}

// CommandSender shells out to a desktop notifier binary per message.
type CommandSender struct {
	binary string
}

// NewCommandSender resolves binary on PATH. A missing binary is an
// error so explicit configuration can fail loudly at startup.
func NewCommandSender(binary string) (*CommandSender, error) {
	resolved, err := exec.LookPath(binary)
	if err != nil {
		return nil, fmt.Errorf("notifier binary %q not found: %w", binary, err)
	}
	return &CommandSender{binary: resolved}, nil
}

// DetectCommandSender probes the known desktop notifiers and returns a
// sender for the first one present.
func DetectCommandSender() (*CommandSender, bool) {
	for _, candidate := range candidateBinaries {
		if resolved, err := exec.LookPath(candidate); err == nil {
			return &CommandSender{binary: resolved}, true
		}
	}
	return nil, false
}

// Binary returns the resolved notifier path.
func (s *CommandSender) Binary() string {
	if s == nil {
		return ""
	}
	return s.binary
}

func (s *CommandSender) Send(ctx context.Context, msg Message) error {
	if s == nil || s.binary == "" {
		return fmt.Errorf("notifier binary not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	cmd := exec.CommandContext(ctx, s.binary, notifierArgs(s.binary, msg)...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", filepath.Base(s.binary), err, output)
	}
	return nil
}

// notifierArgs builds the argv each known notifier expects; unknown
// binaries get the plain title/body convention.
func notifierArgs(binary string, msg Message) []string {
	switch filepath.Base(binary) {
	case "notify-send":
		urgency := "normal"
		if msg.Priority >= PriorityHigh {
			urgency = "critical"
		}
		return []string{"--app-name=stakeout", "--urgency=" + urgency, msg.Title, msg.Body}
	case "terminal-notifier":
		return []string{"-group", "stakeout", "-title", msg.Title, "-message", msg.Body}
	case "growlnotify":
		return []string{"-n", "stakeout", "-p", strconv.Itoa(msg.Priority), "-m", msg.Body, msg.Title}
	default:
		return []string{msg.Title, msg.Body}
	}
}
