// Package config loads the optional YAML config file. File values fill
// in defaults; command-line flags take precedence over both.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultPath is consulted when no --config flag is given. A missing
// file at this path is not an error.
const DefaultPath = ".stakeout.yml"

// Config carries every tunable the config file may set. Zero values
// mean "not set" and fall back to the built-in defaults.
type Config struct {
	SleepTime     int    `yaml:"sleep_time"`
	Sync          bool   `yaml:"sync"`
	Events        bool   `yaml:"events"`
	Pty           bool   `yaml:"pty"`
	RunFirst      bool   `yaml:"run_first"`
	Notifier      string `yaml:"notifier"`
	NotifyCommand string `yaml:"notify_command"`
	WebhookURL    string `yaml:"webhook_url"`
	Listen        string `yaml:"listen"`
	Placeholder   string `yaml:"placeholder"`
	LockDir       string `yaml:"lock_dir"`
	LockName      string `yaml:"lock_name"`
	History       int    `yaml:"history"`
	LogLevel      string `yaml:"log_level"`
}

// Default returns the built-in settings used when neither file nor
// flags say otherwise.
func Default() Config {
	return Config{
		SleepTime:   1,
		Notifier:    "auto",
		Placeholder: "{}",
		LockName:    "stakeout.lock",
		History:     50,
		LogLevel:    "info",
	}
}

// Load reads the config file at path and overlays it onto the defaults.
// With explicit=false a missing file yields plain defaults; with
// explicit=true (the operator named the path) a missing file is an
// error.
func Load(path string, explicit bool) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	payload, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	file, err := Parse(payload)
	if err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return merge(cfg, file), nil
}

// Parse decodes YAML into a Config, rejecting unknown keys.
func Parse(payload []byte) (Config, error) {
	var file Config
	if len(bytes.TrimSpace(payload)) == 0 {
		return file, nil
	}
	decoder := yaml.NewDecoder(bytes.NewReader(payload))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		return Config{}, fmt.Errorf("invalid YAML: %w", err)
	}
	return file, nil
}

// Validate rejects values no flag parsing or file merge should let
// through.
func (c Config) Validate() error {
	if c.SleepTime < 1 {
		return fmt.Errorf("sleep_time must be at least 1 second, got %d", c.SleepTime)
	}
	if c.History < 1 {
		return fmt.Errorf("history must be at least 1, got %d", c.History)
	}
	if c.Placeholder == "" {
		return fmt.Errorf("placeholder must not be empty")
	}
	switch c.Notifier {
	case "auto", "none", "log", "command", "webhook":
	default:
		return fmt.Errorf("unknown notifier %q (want auto, none, log, command, or webhook)", c.Notifier)
	}
	if c.Notifier == "command" && strings.TrimSpace(c.NotifyCommand) == "" {
		return fmt.Errorf("notifier %q requires notify_command", c.Notifier)
	}
	if c.Notifier == "webhook" && strings.TrimSpace(c.WebhookURL) == "" {
		return fmt.Errorf("notifier %q requires webhook_url", c.Notifier)
	}
	return nil
}

// merge overlays set file values onto base. Booleans only turn options
// on: the file cannot force a flag-enabled option back off.
func merge(base, file Config) Config {
	if file.SleepTime > 0 {
		base.SleepTime = file.SleepTime
	}
	base.Sync = base.Sync || file.Sync
	base.Events = base.Events || file.Events
	base.Pty = base.Pty || file.Pty
	base.RunFirst = base.RunFirst || file.RunFirst
	if file.Notifier != "" {
		base.Notifier = file.Notifier
	}
	if file.NotifyCommand != "" {
		base.NotifyCommand = file.NotifyCommand
	}
	if file.WebhookURL != "" {
		base.WebhookURL = file.WebhookURL
	}
	if file.Listen != "" {
		base.Listen = file.Listen
	}
	if file.Placeholder != "" {
		base.Placeholder = file.Placeholder
	}
	if file.LockDir != "" {
		base.LockDir = file.LockDir
	}
	if file.LockName != "" {
		base.LockName = file.LockName
	}
	if file.History > 0 {
		base.History = file.History
	}
	if file.LogLevel != "" {
		base.LogLevel = file.LogLevel
	}
	return base
}
