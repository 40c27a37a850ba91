package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"stakeout/internal/engine"
	"stakeout/internal/event"
	"stakeout/internal/logging"
	"stakeout/internal/metrics"
	"stakeout/internal/notify"
	"stakeout/internal/runlock"
	"stakeout/internal/runner"
	"stakeout/internal/status"
	"stakeout/internal/watcher"
	"stakeout/internal/watchset"
)

// runWatch wires everything together and blocks in the watch loop until
// the process is interrupted.
func runWatch(opts Options, out io.Writer, errOut io.Writer) int {
	level, err := logging.ParseLevel(opts.LogLevel)
	if err != nil {
		fmt.Fprintln(errOut, err.Error())
		return exitCodeConfig
	}
	logger := logging.NewLoggerWithOutput(errOut, level)
	defer logger.Close()
	registry := metrics.NewRegistry()

	paths, err := watchset.Expand(opts.Filespecs)
	if err != nil {
		fmt.Fprintln(errOut, err.Error())
		return exitCodeUsage
	}
	set := watchset.New(paths, logger, registry)
	if set.Len() == 0 {
		logger.Warn("watch set is empty, nothing will trigger", map[string]string{
			"filespecs": strings.Join(opts.Filespecs, " "),
		})
	}

	sender, err := buildSender(opts, logger)
	if err != nil {
		var startup *startupError
		if errors.As(err, &startup) {
			fmt.Fprintln(errOut, startup.Message)
			return startup.Code
		}
		fmt.Fprintln(errOut, err.Error())
		return exitCodeConfig
	}
	sink := notify.NewSink(sender, logger, registry)

	var lock *runlock.Lock
	if opts.Sync {
		lock, err = runlock.New(opts.LockDir, opts.LockName)
		if err != nil {
			fmt.Fprintf(errOut, "cannot set up the run lock: %v\n", err)
			return exitCodeConfig
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signalCh := make(chan os.Signal, 2)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signalCh)
	stopSignalWatch := watchInterrupts(logger, cancel, signalCh)
	defer stopSignalWatch()

	bus := event.NewBus[engine.Event](ctx, event.BusOptions{
		Name:        "engine",
		HistorySize: opts.History,
		Logger:      logger,
	})
	defer bus.Close()

	var wake <-chan struct{}
	if opts.Events {
		fsWatcher, watchErr := watcher.New(set.Paths(), watcher.Options{Logger: logger})
		if watchErr != nil {
			logger.Warn("file events unavailable, polling only", map[string]string{
				"error": watchErr.Error(),
			})
		} else {
			wake = fsWatcher.Wake()
			defer fsWatcher.Close()
		}
	}

	pty := opts.Pty
	if pty && !runner.PtySupported() {
		logger.Warn("pty mode is not supported on this platform, using pipes")
		pty = false
	}

	eng := engine.New(engine.Options{
		Set:      set,
		Template: runner.NewTemplate(opts.Command, opts.Placeholder),
		Shell:    &runner.Shell{Logger: logger, Pty: pty},
		Lock:     lock,
		Sync:     opts.Sync,
		Interval: time.Duration(opts.SleepTime) * time.Second,
		Wake:     wake,
		Notifier: sink,
		Logger:   logger,
		Registry: registry,
		Bus:      bus,
		Output:   out,
		History:  opts.History,
		RunFirst: opts.RunFirst,
	})

	if opts.Listen != "" {
		server := status.NewServer(status.Options{
			Addr:     opts.Listen,
			Engine:   eng,
			Bus:      bus,
			Registry: registry,
			Logger:   logger,
		})
		if startErr := server.Start(); startErr != nil {
			fmt.Fprintf(errOut, "cannot listen on %s: %v\n", opts.Listen, startErr)
			return exitCodeConfig
		}
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second)
			defer shutdownCancel()
			_ = server.Shutdown(shutdownCtx)
		}()
	}

	if opts.Verbose {
		echoOptions(out, opts, set)
	}

	if err := eng.Run(ctx); err != nil {
		logger.Error("watch loop stopped", map[string]string{"error": err.Error()})
	}
	fmt.Fprintln(out, "Interrupted.")
	return exitCodeSuccess
}

func echoOptions(out io.Writer, opts Options, set *watchset.Set) {
	fmt.Fprintf(out, "command: %s\n", opts.Command)
	fmt.Fprintf(out, "sleep time: %ds  sync: %v  events: %v  pty: %v  run first: %v\n",
		opts.SleepTime, opts.Sync, opts.Events, opts.Pty, opts.RunFirst)
	fmt.Fprintf(out, "notifier: %s", opts.Notifier)
	if opts.WebhookURL != "" {
		fmt.Fprintf(out, "  webhook: %s", opts.WebhookURL)
	}
	if opts.Listen != "" {
		fmt.Fprintf(out, "  listen: %s", opts.Listen)
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "watching %d file(s):\n", set.Len())
	for _, path := range set.Paths() {
		fmt.Fprintf(out, "  %s\n", path)
	}
}
