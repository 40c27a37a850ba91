package main

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"stakeout/internal/cli"
	"stakeout/internal/config"
)

// Options are the fully resolved settings: built-in defaults, overlaid
// by the config file, overlaid by flags.
type Options struct {
	Command     string
	Filespecs   []string
	SleepTime   int
	Verbose     bool
	Sync        bool
	Events      bool
	Pty         bool
	RunFirst    bool
	Notifier    string
	NotifyCmd   string
	WebhookURL  string
	Listen      string
	ConfigPath  string
	History     int
	LogLevel    string
	Placeholder string
	LockDir     string
	LockName    string
	ShowVersion bool
}

func parseArgs(args []string, errOut io.Writer) (Options, error) {
	// The config file has to be read before flag registration so its
	// values become the flag defaults and parsed flags win naturally.
	configPath, explicit := scanConfigFlag(args)
	loadPath := configPath
	if loadPath == "" {
		loadPath = config.DefaultPath
	}
	cfg, err := config.Load(loadPath, explicit)
	if err != nil {
		return Options{}, startupErrf(exitCodeConfig, "%v", err)
	}

	opts := Options{
		Placeholder: cfg.Placeholder,
		LockDir:     cfg.LockDir,
		LockName:    cfg.LockName,
	}

	fs := flag.NewFlagSet("stakeout", flag.ContinueOnError)
	fs.SetOutput(errOut)
	fs.IntVar(&opts.SleepTime, "t", cfg.SleepTime, "Poll interval in seconds")
	fs.IntVar(&opts.SleepTime, "sleep-time", cfg.SleepTime, "Poll interval in seconds")
	fs.BoolVar(&opts.Verbose, "v", false, "Echo resolved options and the watch set before starting")
	fs.BoolVar(&opts.Verbose, "verbose", false, "Echo resolved options and the watch set before starting")
	fs.BoolVar(&opts.Sync, "sync", cfg.Sync, "Serialize runs across processes with an advisory file lock")
	fs.BoolVar(&opts.Events, "events", cfg.Events, "Use filesystem notifications to cut the poll sleep short")
	fs.BoolVar(&opts.Pty, "pty", cfg.Pty, "Run the command under a pty (unix)")
	fs.BoolVar(&opts.RunFirst, "run-first", cfg.RunFirst, "Run the command once at startup before watching")
	fs.StringVar(&opts.Notifier, "notifier", cfg.Notifier, "Notification mode: auto, none, log, command, or webhook")
	fs.StringVar(&opts.NotifyCmd, "notify-cmd", cfg.NotifyCommand, "Desktop notifier binary for --notifier=command")
	fs.StringVar(&opts.WebhookURL, "webhook-url", cfg.WebhookURL, "Target URL for --notifier=webhook")
	fs.StringVar(&opts.Listen, "listen", cfg.Listen, "Status server listen address (default off)")
	fs.StringVar(&opts.ConfigPath, "config", configPath, "YAML config file path")
	fs.IntVar(&opts.History, "history", cfg.History, "Run history size")
	fs.StringVar(&opts.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warning, or error")
	helpVersion := cli.AddHelpVersionFlags(fs, "Show this help message", "Print version and exit")
	fs.Usage = func() {
		printUsage(fs.Output())
	}

	if err := fs.Parse(args); err != nil {
		return Options{}, err
	}

	if helpVersion.Help {
		fs.Usage()
		return Options{}, flag.ErrHelp
	}

	if helpVersion.Version {
		return Options{ShowVersion: true}, nil
	}

	if fs.NArg() < 2 {
		fs.Usage()
		return Options{}, fmt.Errorf("a command and at least one filespec are required")
	}
	opts.Command = strings.TrimSpace(fs.Arg(0))
	if opts.Command == "" {
		fs.Usage()
		return Options{}, fmt.Errorf("the command must not be empty")
	}
	opts.Filespecs = fs.Args()[1:]

	if err := opts.settings().Validate(); err != nil {
		return Options{}, startupErrf(exitCodeConfig, "%v", err)
	}
	return opts, nil
}

// settings maps the resolved options back onto the config shape so one
// validator covers both sources.
func (o Options) settings() config.Config {
	return config.Config{
		SleepTime:     o.SleepTime,
		Sync:          o.Sync,
		Events:        o.Events,
		Pty:           o.Pty,
		RunFirst:      o.RunFirst,
		Notifier:      o.Notifier,
		NotifyCommand: o.NotifyCmd,
		WebhookURL:    o.WebhookURL,
		Listen:        o.Listen,
		Placeholder:   o.Placeholder,
		LockDir:       o.LockDir,
		LockName:      o.LockName,
		History:       o.History,
		LogLevel:      o.LogLevel,
	}
}

// valueFlags names every flag that consumes the following argument, so
// the pre-parse config scan can walk the arguments the same way the
// flag package will.
var valueFlags = map[string]bool{
	"t":           true,
	"sleep-time":  true,
	"notifier":    true,
	"notify-cmd":  true,
	"webhook-url": true,
	"listen":      true,
	"config":      true,
	"history":     true,
	"log-level":   true,
}

// scanConfigFlag finds a --config value before real flag parsing, using
// the flag package's own conventions: parsing stops at the first
// non-flag argument or a bare "--".
func scanConfigFlag(args []string) (string, bool) {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" || arg == "-" || !strings.HasPrefix(arg, "-") {
			return "", false
		}
		name := strings.TrimLeft(arg, "-")
		if value, found := strings.CutPrefix(name, "config="); found {
			return value, true
		}
		if strings.ContainsRune(name, '=') {
			continue
		}
		if name == "config" {
			if i+1 < len(args) {
				return args[i+1], true
			}
			return "", false
		}
		if valueFlags[name] {
			i++
		}
	}
	return "", false
}

func printUsage(out io.Writer) {
	fmt.Fprintln(out, "Usage: stakeout [options] <command> <filespec>...")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Watch files for changes and run a command on every change")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "The command may contain the placeholder {} which is replaced with the")
	fmt.Fprintln(out, "path of the changed file, shell-quoted. Filespecs may be literal paths")
	fmt.Fprintln(out, "or glob patterns (including **), quoted to keep the shell from")
	fmt.Fprintln(out, "expanding them first; both forms work.")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Options:")
	writeOption(out, "-t, --sleep-time N", "Poll interval in seconds (default: 1)")
	writeOption(out, "-v, --verbose", "Echo resolved options and the watch set before starting")
	writeOption(out, "--sync", "Serialize runs across processes with an advisory file lock")
	writeOption(out, "--events", "Use filesystem notifications to cut the poll sleep short")
	writeOption(out, "--pty", "Run the command under a pty (unix)")
	writeOption(out, "--run-first", "Run the command once at startup before watching")
	writeOption(out, "--notifier MODE", "auto, none, log, command, or webhook (default: auto)")
	writeOption(out, "--notify-cmd BIN", "Desktop notifier binary for --notifier=command")
	writeOption(out, "--webhook-url URL", "Target URL for --notifier=webhook")
	writeOption(out, "--listen ADDR", "Status server listen address (default: off)")
	writeOption(out, "--config PATH", "YAML config file (default: .stakeout.yml if present)")
	writeOption(out, "--history N", "Run history size (default: 50)")
	writeOption(out, "--log-level LEVEL", "debug, info, warning, or error (default: info)")
	writeOption(out, "--help", "Show this help message")
	writeOption(out, "--version", "Print version and exit")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Environment:")
	writeOption(out, "STAKEOUT_TMPDIR", "Directory for the --sync lock file (default: system temp)")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Examples:")
	fmt.Fprintln(out, "  stakeout 'rake test' '**/*.rb'")
	fmt.Fprintln(out, "  stakeout --sync -t 2 'ruby {}' 'test/*_test.rb'")
	fmt.Fprintln(out, "  stakeout --notifier webhook --webhook-url http://localhost:9000/hook make src/*.c")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Exit codes:")
	fmt.Fprintln(out, "  0  Interrupted")
	fmt.Fprintln(out, "  1  Usage error")
	fmt.Fprintln(out, "  2  Configuration or dependency error")
}

func writeOption(out io.Writer, name, desc string) {
	fmt.Fprintf(out, "  %-20s %s\n", name, desc)
}
