package notify

import (
	"path/filepath"
	"testing"
)

func TestNewCommandSenderMissingBinary(t *testing.T) {
	if _, err := NewCommandSender(filepath.Join(t.TempDir(), "no-such-notifier")); err == nil {
		t.Fatal("expected error for missing binary")
	}
}

func TestNotifierArgs(t *testing.T) {
	msg := Message{Title: "Fail", Body: "2 failures", Icon: IconFail, Priority: PriorityHigh}

	cases := []struct {
		binary string
		want   []string
	}{
		{"/usr/bin/notify-send", []string{"--app-name=stakeout", "--urgency=critical", "Fail", "2 failures"}},
		{"terminal-notifier", []string{"-group", "stakeout", "-title", "Fail", "-message", "2 failures"}},
		{"/opt/bin/growlnotify", []string{"-n", "stakeout", "-p", "2", "-m", "2 failures", "Fail"}},
		{"/custom/my-notifier", []string{"Fail", "2 failures"}},
	}
	for _, tc := range cases {
		got := notifierArgs(tc.binary, msg)
		if len(got) != len(tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.binary, tc.want, got)
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Fatalf("%s: expected %v, got %v", tc.binary, tc.want, got)
			}
		}
	}
}

func TestNotifierArgsNormalUrgency(t *testing.T) {
	got := notifierArgs("notify-send", Message{Title: "Pass", Body: "ok", Icon: IconPass})
	if got[1] != "--urgency=normal" {
		t.Fatalf("expected normal urgency, got %v", got)
	}
}

func TestNilCommandSender(t *testing.T) {
	var sender *CommandSender
	if sender.Binary() != "" {
		t.Fatal("expected empty binary")
	}
	if err := sender.Send(nil, Message{}); err == nil {
		t.Fatal("expected error from nil sender")
	}
}
