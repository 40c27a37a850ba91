// Package engine drives the watch loop: poll for a changed file, run
// the command under the optional cross-process lock, classify the
// output, notify, and go back to sleep.
package engine

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"stakeout/internal/buffer"
	"stakeout/internal/event"
	"stakeout/internal/logging"
	"stakeout/internal/metrics"
	"stakeout/internal/notify"
	"stakeout/internal/runlock"
	"stakeout/internal/runner"
	"stakeout/internal/verdict"
	"stakeout/internal/watchset"
)

const defaultInterval = time.Second
const defaultHistory = 50

// Event kinds published on the engine bus.
const (
	EventFileChanged = "file_changed"
	EventRunStarted  = "run_started"
	EventRunFinished = "run_finished"
)

// Event is one watch-loop occurrence, published for the status stream.
type Event struct {
	Kind       string          `json:"type"`
	Path       string          `json:"path,omitempty"`
	Verdict    verdict.Verdict `json:"verdict,omitempty"`
	Summary    string          `json:"summary,omitempty"`
	ExitStatus int             `json:"exit_status,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
}

// Type implements event.Event for type-filtered subscriptions.
func (e Event) Type() string { return e.Kind }

// RunRecord is one completed command run kept in the history ring.
type RunRecord struct {
	Path       string          `json:"path,omitempty"`
	Command    string          `json:"command"`
	Verdict    verdict.Verdict `json:"verdict"`
	Summary    string          `json:"summary"`
	ExitStatus int             `json:"exit_status"`
	Start      time.Time       `json:"start"`
	Duration   time.Duration   `json:"duration_ns"`
}

// Options wires an Engine together. Set and Template are required;
// everything else has a workable default.
type Options struct {
	Set      *watchset.Set
	Template runner.Template
	Shell    *runner.Shell
	Lock     *runlock.Lock
	Sync     bool
	Interval time.Duration
	Wake     <-chan struct{}
	Notifier notify.Notifier
	Logger   *logging.Logger
	Registry *metrics.Registry
	Bus      *event.Bus[Event]
	Output   io.Writer
	History  int
	RunFirst bool
}

// Engine owns the watch loop. All mutation of the watch set happens on
// the goroutine that calls Run; Snapshot and History are safe from
// other goroutines.
type Engine struct {
	set      *watchset.Set
	template runner.Template
	shell    *runner.Shell
	lock     *runlock.Lock
	sync     bool
	interval time.Duration
	wake     <-chan struct{}
	notifier notify.Notifier
	logger   *logging.Logger
	registry *metrics.Registry
	bus      *event.Bus[Event]
	output   io.Writer
	runFirst bool

	mu      sync.Mutex
	history *buffer.Ring[RunRecord]
}

// New builds an Engine from opts.
func New(opts Options) *Engine {
	interval := opts.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	historySize := opts.History
	if historySize <= 0 {
		historySize = defaultHistory
	}
	shell := opts.Shell
	if shell == nil {
		shell = &runner.Shell{Logger: opts.Logger}
	}
	output := opts.Output
	if output == nil {
		output = os.Stdout
	}
	return &Engine{
		set:      opts.Set,
		template: opts.Template,
		shell:    shell,
		lock:     opts.Lock,
		sync:     opts.Sync,
		interval: interval,
		wake:     opts.Wake,
		notifier: opts.Notifier,
		logger:   opts.Logger,
		registry: opts.Registry,
		bus:      opts.Bus,
		output:   output,
		runFirst: opts.RunFirst,
		history:  buffer.NewRing[RunRecord](historySize),
	}
}

// Run polls until ctx is cancelled. Cancellation between iterations is
// the only way out; the loop itself never fails.
func (e *Engine) Run(ctx context.Context) error {
	if e.runFirst {
		e.runCommand(ctx, "", e.template.Command)
	}
	for {
		if ctx.Err() != nil {
			return nil
		}
		e.registry.AddPollCycle()
		change, found := e.set.FindChanged()
		if !found {
			if !e.pause(ctx) {
				return nil
			}
			continue
		}

		e.registry.AddChangeSeen()
		e.publish(Event{Kind: EventFileChanged, Path: change.Path, Timestamp: time.Now()})

		err := e.lock.WithExclusive(ctx, e.sync, func() error {
			// Record the triggering edit before running so the run
			// itself cannot re-trigger from the same edit.
			e.set.Update(change.Path, change.ModTime)
			if e.notifier != nil {
				e.notifier.Changed(ctx, change.Path)
			}
			e.runCommand(ctx, change.Path, e.template.Render(change.Path))
			return nil
		})
		if err != nil {
			e.registry.AddLockFailure()
			e.logger.Error("run aborted", map[string]string{
				"path":  change.Path,
				"error": err.Error(),
			})
		}

		if !e.pause(ctx) {
			return nil
		}
	}
}

// runCommand executes one command run end to end: capture, raw output
// dump, classification, notification, history, events.
func (e *Engine) runCommand(ctx context.Context, path, command string) {
	e.registry.AddRunStarted()
	e.publish(Event{Kind: EventRunStarted, Path: path, Timestamp: time.Now()})
	e.logger.Info("running", map[string]string{"command": command})

	result := e.shell.Run(ctx, command)
	if len(result.Output) > 0 {
		_, _ = e.output.Write(result.Output)
	}

	classified := verdict.Classify(runner.StripANSIString(result.Text()), result.ExitStatus)
	outcome := notify.Outcome{
		Path:       path,
		Summary:    classified.Summary,
		ExitStatus: result.ExitStatus,
		Verdict:    classified.Verdict,
	}
	switch classified.Verdict {
	case verdict.Pass:
		e.registry.AddRunPassed()
		if e.notifier != nil {
			e.notifier.Passed(ctx, outcome)
		}
	case verdict.Fail:
		e.registry.AddRunFailed()
		if e.notifier != nil {
			e.notifier.Failed(ctx, outcome)
		}
	}

	record := RunRecord{
		Path:       path,
		Command:    command,
		Verdict:    classified.Verdict,
		Summary:    classified.Summary,
		ExitStatus: result.ExitStatus,
		Start:      result.Start,
		Duration:   result.Duration,
	}
	e.mu.Lock()
	e.history.Add(record)
	e.mu.Unlock()

	e.publish(Event{
		Kind:       EventRunFinished,
		Path:       path,
		Verdict:    classified.Verdict,
		Summary:    classified.Summary,
		ExitStatus: result.ExitStatus,
		Timestamp:  time.Now(),
	})
	e.logger.Info("run finished", map[string]string{
		"path":    path,
		"verdict": classified.Verdict.String(),
	})
}

// pause sleeps one interval, returning early on a wake signal. It
// reports false when ctx was cancelled.
func (e *Engine) pause(ctx context.Context) bool {
	timer := time.NewTimer(e.interval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	case <-e.wake:
		return true
	}
}

func (e *Engine) publish(ev Event) {
	e.bus.Publish(ev)
}

// History returns the recorded runs, oldest first.
func (e *Engine) History() []RunRecord {
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.List()
}

// LastRun returns the most recent run, if any.
func (e *Engine) LastRun() (RunRecord, bool) {
	if e == nil {
		return RunRecord{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.Last()
}

// Snapshot describes the engine for the status endpoint.
type Snapshot struct {
	Watching int
	Paths    []string
	Interval time.Duration
	Sync     bool
	LastRuns []RunRecord
}

// Snapshot is safe to call from other goroutines; the watch set's path
// list is fixed after startup.
func (e *Engine) Snapshot() Snapshot {
	if e == nil {
		return Snapshot{}
	}
	return Snapshot{
		Watching: e.set.Len(),
		Paths:    e.set.Paths(),
		Interval: e.interval,
		Sync:     e.sync,
		LastRuns: e.History(),
	}
}
