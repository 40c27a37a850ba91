package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadMissingDefaultPathYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yml"), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Default()
	if cfg != want {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoadMissingExplicitPathFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yml"), true)
	if err == nil {
		t.Fatal("expected error for missing explicit config")
	}
}

func TestLoadOverlaysFileValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stakeout.yml")
	payload := []byte("sleep_time: 5\nsync: true\nnotifier: webhook\nwebhook_url: http://localhost:9000/hook\nhistory: 10\n")
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.SleepTime != 5 {
		t.Fatalf("expected sleep_time 5, got %d", cfg.SleepTime)
	}
	if !cfg.Sync {
		t.Fatal("expected sync enabled")
	}
	if cfg.Notifier != "webhook" || cfg.WebhookURL != "http://localhost:9000/hook" {
		t.Fatalf("expected webhook notifier, got %q %q", cfg.Notifier, cfg.WebhookURL)
	}
	if cfg.History != 10 {
		t.Fatalf("expected history 10, got %d", cfg.History)
	}
	if cfg.Placeholder != "{}" {
		t.Fatalf("expected default placeholder to survive, got %q", cfg.Placeholder)
	}
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("sleep_time: 2\nspeling_mistake: true\n"))
	if err == nil {
		t.Fatal("expected unknown key to be rejected")
	}
	if !strings.Contains(err.Error(), "invalid YAML") {
		t.Fatalf("expected invalid YAML error, got %v", err)
	}
}

func TestParseEmptyPayload(t *testing.T) {
	cfg, err := Parse([]byte("  \n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg != (Config{}) {
		t.Fatalf("expected zero config, got %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults pass", func(c *Config) {}, ""},
		{"zero sleep", func(c *Config) { c.SleepTime = 0 }, "sleep_time"},
		{"zero history", func(c *Config) { c.History = 0 }, "history"},
		{"empty placeholder", func(c *Config) { c.Placeholder = "" }, "placeholder"},
		{"bad notifier", func(c *Config) { c.Notifier = "carrier-pigeon" }, "unknown notifier"},
		{"command without binary", func(c *Config) { c.Notifier = "command" }, "notify_command"},
		{"webhook without url", func(c *Config) { c.Notifier = "webhook" }, "webhook_url"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestFileBooleansOnlyEnable(t *testing.T) {
	base := Default()
	base.Sync = true
	merged := merge(base, Config{Sync: false, Events: true})
	if !merged.Sync {
		t.Fatal("expected file to not disable sync")
	}
	if !merged.Events {
		t.Fatal("expected file to enable events")
	}
}
