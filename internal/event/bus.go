package event

import (
	"context"
	"fmt"
	"os"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"stakeout/internal/buffer"
	"stakeout/internal/logging"
)

const defaultSubscriberBufferSize = 128
const defaultDropWarningThreshold = 0.01
const defaultDropWarningInterval = 30 * time.Second

// BusOptions configures a Bus. The zero value is usable.
type BusOptions struct {
	Name                 string
	SubscriberBufferSize int
	HistorySize          int
	DropWarningThreshold float64
	DropWarningInterval  time.Duration
	Logger               *logging.Logger
}

// Bus delivers published values to subscribers without blocking the
// publisher. A subscriber whose channel is full misses events; drops are
// counted and periodically logged.
type Bus[T any] struct {
	mu          sync.Mutex
	subscribers map[uint64]subscription[T]
	nextSubID   uint64
	closed      bool
	closeOnce   sync.Once
	options     BusOptions
	history     *buffer.Ring[T]
	published   atomic.Int64
	dropped     atomic.Int64
	lastWarning atomic.Int64
}

type subscription[T any] struct {
	id     uint64
	ch     chan T
	filter func(T) bool
}

// NewBus creates a bus that closes itself when ctx is cancelled.
func NewBus[T any](ctx context.Context, opts BusOptions) *Bus[T] {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.SubscriberBufferSize <= 0 {
		opts.SubscriberBufferSize = defaultSubscriberBufferSize
	}
	if opts.DropWarningThreshold <= 0 {
		opts.DropWarningThreshold = defaultDropWarningThreshold
	}
	if opts.DropWarningInterval <= 0 {
		opts.DropWarningInterval = defaultDropWarningInterval
	}
	bus := &Bus[T]{
		subscribers: make(map[uint64]subscription[T]),
		options:     opts,
	}
	if opts.HistorySize > 0 {
		bus.history = buffer.NewRing[T](opts.HistorySize)
	}
	if done := ctx.Done(); done != nil {
		go func() {
			<-done
			bus.Close()
		}()
	}
	return bus
}

// Subscribe registers an unfiltered listener.
func (b *Bus[T]) Subscribe() (<-chan T, func()) {
	return b.SubscribeFiltered(nil)
}

// SubscribeFiltered registers a listener that only receives events the
// filter accepts. A nil filter accepts everything.
func (b *Bus[T]) SubscribeFiltered(filter func(T) bool) (<-chan T, func()) {
	if b == nil {
		ch := make(chan T)
		close(ch)
		return ch, func() {}
	}

	ch := make(chan T, b.options.SubscriberBufferSize)
	id := atomic.AddUint64(&b.nextSubID, 1)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	b.subscribers[id] = subscription[T]{id: id, ch: ch, filter: filter}
	b.mu.Unlock()

	return ch, func() { b.removeSubscriber(id) }
}

// SubscribeTypes registers a listener for events whose Type matches one
// of the given tags. Events that do not implement Event never match.
func (b *Bus[T]) SubscribeTypes(eventTypes ...string) (<-chan T, func()) {
	typeSet := make(map[string]struct{}, len(eventTypes))
	for _, eventType := range eventTypes {
		if eventType != "" {
			typeSet[eventType] = struct{}{}
		}
	}
	if len(typeSet) == 0 {
		ch := make(chan T)
		close(ch)
		return ch, func() {}
	}
	return b.SubscribeFiltered(func(ev T) bool {
		typed, ok := any(ev).(Event)
		if !ok {
			return false
		}
		_, matched := typeSet[typed.Type()]
		return matched
	})
}

// Publish delivers an event to all matching subscribers. Nil events are
// ignored. Publish never blocks.
func (b *Bus[T]) Publish(ev T) {
	if b == nil || isNil(ev) {
		return
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.history.Add(ev)
	subscribers := make([]subscription[T], 0, len(b.subscribers))
	for _, sub := range b.subscribers {
		subscribers = append(subscribers, sub)
	}
	b.mu.Unlock()

	b.published.Add(1)
	if debugEventsEnabled {
		b.debugLog(ev)
	}

	for _, sub := range subscribers {
		if !b.filterAllows(sub, ev) {
			continue
		}
		delivered := b.safeSend(sub, ev)
		if !delivered {
			b.dropped.Add(1)
			b.maybeWarnDropRate()
		}
	}
}

// Close shuts the bus down and closes every subscriber channel.
func (b *Bus[T]) Close() {
	if b == nil {
		return
	}
	b.closeOnce.Do(func() {
		b.mu.Lock()
		b.closed = true
		subscribers := b.subscribers
		b.subscribers = make(map[uint64]subscription[T])
		b.mu.Unlock()

		for _, sub := range subscribers {
			close(sub.ch)
		}
	})
}

// ReplayLast sends up to count retained events, oldest first, into the
// provided channel. The send blocks, so the caller must drain.
func (b *Bus[T]) ReplayLast(count int, subscriber chan<- T) {
	if b == nil || subscriber == nil {
		return
	}
	for _, ev := range b.historyTail(count) {
		subscriber <- ev
	}
}

// DumpHistory returns a copy of the retained events, oldest first.
func (b *Bus[T]) DumpHistory() []T {
	return b.historyTail(0)
}

// SubscriberCount reports how many listeners are attached.
func (b *Bus[T]) SubscriberCount() int {
	if b == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers)
}

// Published reports how many events have been accepted for delivery.
func (b *Bus[T]) Published() int64 {
	if b == nil {
		return 0
	}
	return b.published.Load()
}

// Dropped reports how many subscriber deliveries were skipped because
// the subscriber channel was full.
func (b *Bus[T]) Dropped() int64 {
	if b == nil {
		return 0
	}
	return b.dropped.Load()
}

func (b *Bus[T]) historyTail(count int) []T {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	events := b.history.List()
	b.mu.Unlock()
	if count > 0 && count < len(events) {
		events = events[len(events)-count:]
	}
	return events
}

func (b *Bus[T]) removeSubscriber(id uint64) {
	var ch chan T
	b.mu.Lock()
	if existing, ok := b.subscribers[id]; ok {
		delete(b.subscribers, id)
		ch = existing.ch
	}
	b.mu.Unlock()
	if ch != nil {
		close(ch)
	}
}

// safeSend tolerates a racing close of the subscriber channel.
func (b *Bus[T]) safeSend(sub subscription[T], ev T) (delivered bool) {
	defer func() {
		if recover() != nil {
			b.removeSubscriber(sub.id)
			delivered = false
		}
	}()
	select {
	case sub.ch <- ev:
		return true
	default:
		return false
	}
}

func (b *Bus[T]) filterAllows(sub subscription[T], ev T) (allowed bool) {
	if sub.filter == nil {
		return true
	}
	defer func() {
		if recover() != nil {
			b.warn("subscriber filter panicked", nil)
			b.removeSubscriber(sub.id)
			allowed = false
		}
	}()
	return sub.filter(ev)
}

func (b *Bus[T]) maybeWarnDropRate() {
	published := b.published.Load()
	if published == 0 {
		return
	}
	dropped := b.dropped.Load()
	rate := float64(dropped) / float64(published)
	if rate < b.options.DropWarningThreshold {
		return
	}
	now := time.Now()
	lastNanos := b.lastWarning.Load()
	if lastNanos > 0 && now.Sub(time.Unix(0, lastNanos)) < b.options.DropWarningInterval {
		return
	}
	if !b.lastWarning.CompareAndSwap(lastNanos, now.UnixNano()) {
		return
	}
	b.warn("event drop rate above threshold", map[string]string{
		"rate":      fmt.Sprintf("%.2f%%", rate*100),
		"dropped":   fmt.Sprintf("%d", dropped),
		"published": fmt.Sprintf("%d", published),
	})
}

func (b *Bus[T]) busName() string {
	if b.options.Name == "" {
		return "event_bus"
	}
	return b.options.Name
}

func (b *Bus[T]) warn(msg string, fields map[string]string) {
	if b.options.Logger == nil {
		return
	}
	if fields == nil {
		fields = map[string]string{}
	}
	fields["bus"] = b.busName()
	b.options.Logger.Warn(msg, fields)
}

func (b *Bus[T]) debugLog(ev T) {
	tag := "unknown"
	if typed, ok := any(ev).(Event); ok && typed.Type() != "" {
		tag = typed.Type()
	}
	if b.options.Logger != nil {
		b.options.Logger.Debug("event published", map[string]string{"bus": b.busName(), "event": tag})
		return
	}
	fmt.Fprintf(os.Stderr, "event bus %s: event %s\n", b.busName(), tag)
}

var debugEventsEnabled = isEventDebugEnabled()

func isEventDebugEnabled() bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv("STAKEOUT_EVENT_DEBUG")))
	switch value {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func isNil[T any](value T) bool {
	kind := reflect.ValueOf(value)
	if !kind.IsValid() {
		return true
	}
	switch kind.Kind() {
	case reflect.Chan, reflect.Func, reflect.Map, reflect.Pointer, reflect.Interface, reflect.Slice:
		return kind.IsNil()
	default:
		return false
	}
}
