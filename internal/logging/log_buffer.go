package logging

import (
	"sync"

	"stakeout/internal/buffer"
)

// LogBuffer retains the most recent log entries so late subscribers and the
// status endpoint can show context from before they attached.
type LogBuffer struct {
	mu   sync.Mutex
	ring *buffer.Ring[LogEntry]
}

// NewLogBuffer creates a buffer that keeps up to capacity entries.
func NewLogBuffer(capacity int) *LogBuffer {
	return &LogBuffer{ring: buffer.NewRing[LogEntry](capacity)}
}

// Add appends an entry, evicting the oldest when the buffer is full.
func (b *LogBuffer) Add(entry LogEntry) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ring.Add(entry)
}

// List returns the retained entries, oldest first.
func (b *LogBuffer) List() []LogEntry {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ring.List()
}

// Len reports how many entries are currently retained.
func (b *LogBuffer) Len() int {
	if b == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ring.Len()
}
