package watcher

import "time"

// debouncer collapses event bursts on the same path into one flush per
// quiet period. Callers hold the watcher mutex around schedule and pop.
type debouncer struct {
	duration time.Duration
	timers   map[string]*time.Timer
}

func newDebouncer(duration time.Duration) *debouncer {
	return &debouncer{
		duration: duration,
		timers:   make(map[string]*time.Timer),
	}
}

// schedule arms (or re-arms) the flush timer for path.
func (d *debouncer) schedule(path string, flush func(string)) {
	if d == nil || d.timers == nil {
		return
	}
	if timer, ok := d.timers[path]; ok {
		timer.Reset(d.duration)
		return
	}
	d.timers[path] = time.AfterFunc(d.duration, func() {
		flush(path)
	})
}

// pop clears the pending timer for path, reporting whether one existed.
func (d *debouncer) pop(path string) bool {
	if d == nil || d.timers == nil {
		return false
	}
	if _, ok := d.timers[path]; !ok {
		return false
	}
	delete(d.timers, path)
	return true
}

func (d *debouncer) stop() {
	if d == nil {
		return
	}
	for _, timer := range d.timers {
		timer.Stop()
	}
	d.timers = nil
}
