package logging

import "sync"

// LogHub fans log entries out to subscribers. Sends never block: a
// subscriber whose channel is full misses entries rather than stalling
// the logger.
type LogHub struct {
	mu     sync.Mutex
	subs   map[int]chan LogEntry
	nextID int
	closed bool
}

// NewLogHub creates an empty hub.
func NewLogHub() *LogHub {
	return &LogHub{subs: make(map[int]chan LogEntry)}
}

// Subscribe registers a listener and returns its channel plus an
// unsubscribe function. The channel is closed on unsubscribe and on
// hub close.
func (h *LogHub) Subscribe(bufferSize int) (<-chan LogEntry, func()) {
	if h == nil {
		ch := make(chan LogEntry)
		close(ch)
		return ch, func() {}
	}
	if bufferSize <= 0 {
		bufferSize = 16
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		ch := make(chan LogEntry)
		close(ch)
		return ch, func() {}
	}
	id := h.nextID
	h.nextID++
	ch := make(chan LogEntry, bufferSize)
	h.subs[id] = ch
	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Broadcast delivers an entry to every subscriber that has room.
func (h *LogHub) Broadcast(entry LogEntry) {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	for _, ch := range h.subs {
		select {
		case ch <- entry:
		default:
		}
	}
}

// Close shuts the hub down and closes all subscriber channels.
func (h *LogHub) Close() {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}
