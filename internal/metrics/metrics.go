// Package metrics keeps cheap process-local counters for the watch loop
// and renders them in Prometheus text exposition format.
package metrics

import (
	"fmt"
	"io"
	"sync/atomic"
)

// Registry holds the counters tracked by the watch loop. All methods are
// safe for concurrent use and safe on a nil receiver.
type Registry struct {
	pollCycles     atomic.Int64
	changesSeen    atomic.Int64
	runsStarted    atomic.Int64
	runsPassed     atomic.Int64
	runsFailed     atomic.Int64
	statFailures   atomic.Int64
	lockFailures   atomic.Int64
	notifySent     atomic.Int64
	notifyFailures atomic.Int64
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

func (r *Registry) AddPollCycle() {
	if r != nil {
		r.pollCycles.Add(1)
	}
}

func (r *Registry) AddChangeSeen() {
	if r != nil {
		r.changesSeen.Add(1)
	}
}

func (r *Registry) AddRunStarted() {
	if r != nil {
		r.runsStarted.Add(1)
	}
}

func (r *Registry) AddRunPassed() {
	if r != nil {
		r.runsPassed.Add(1)
	}
}

func (r *Registry) AddRunFailed() {
	if r != nil {
		r.runsFailed.Add(1)
	}
}

func (r *Registry) AddStatFailure() {
	if r != nil {
		r.statFailures.Add(1)
	}
}

func (r *Registry) AddLockFailure() {
	if r != nil {
		r.lockFailures.Add(1)
	}
}

func (r *Registry) AddNotifySent() {
	if r != nil {
		r.notifySent.Add(1)
	}
}

func (r *Registry) AddNotifyFailure() {
	if r != nil {
		r.notifyFailures.Add(1)
	}
}

func (r *Registry) PollCycles() int64 {
	if r == nil {
		return 0
	}
	return r.pollCycles.Load()
}

func (r *Registry) ChangesSeen() int64 {
	if r == nil {
		return 0
	}
	return r.changesSeen.Load()
}

func (r *Registry) RunsStarted() int64 {
	if r == nil {
		return 0
	}
	return r.runsStarted.Load()
}

func (r *Registry) RunsPassed() int64 {
	if r == nil {
		return 0
	}
	return r.runsPassed.Load()
}

func (r *Registry) RunsFailed() int64 {
	if r == nil {
		return 0
	}
	return r.runsFailed.Load()
}

func (r *Registry) StatFailures() int64 {
	if r == nil {
		return 0
	}
	return r.statFailures.Load()
}

func (r *Registry) LockFailures() int64 {
	if r == nil {
		return 0
	}
	return r.lockFailures.Load()
}

func (r *Registry) NotifySent() int64 {
	if r == nil {
		return 0
	}
	return r.notifySent.Load()
}

func (r *Registry) NotifyFailures() int64 {
	if r == nil {
		return 0
	}
	return r.notifyFailures.Load()
}

// WritePrometheus renders every counter with a HELP and TYPE line.
func (r *Registry) WritePrometheus(w io.Writer) error {
	counters := []struct {
		name  string
		help  string
		value int64
	}{
		{"stakeout_poll_cycles_total", "Completed poll cycles.", r.PollCycles()},
		{"stakeout_changes_seen_total", "Poll cycles that detected a changed file.", r.ChangesSeen()},
		{"stakeout_runs_started_total", "Command runs started.", r.RunsStarted()},
		{"stakeout_runs_passed_total", "Command runs classified as passing.", r.RunsPassed()},
		{"stakeout_runs_failed_total", "Command runs classified as failing.", r.RunsFailed()},
		{"stakeout_stat_failures_total", "File stat attempts that failed.", r.StatFailures()},
		{"stakeout_lock_failures_total", "Run lock acquisitions that failed.", r.LockFailures()},
		{"stakeout_notifications_sent_total", "Notifications delivered.", r.NotifySent()},
		{"stakeout_notification_failures_total", "Notifications that failed to deliver.", r.NotifyFailures()},
	}
	for _, c := range counters {
		if _, err := fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s counter\n%s %d\n", c.name, c.help, c.name, c.name, c.value); err != nil {
			return err
		}
	}
	return nil
}
