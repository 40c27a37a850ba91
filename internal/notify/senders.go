package notify

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"stakeout/internal/logging"
)

// NoopSender drops every message.
type NoopSender struct{}

func (NoopSender) Send(context.Context, Message) error { return nil }

// LogSender writes notifications into the structured log instead of a
// desktop popup. Useful on headless machines.
type LogSender struct {
	Logger *logging.Logger
}

func (s LogSender) Send(_ context.Context, msg Message) error {
	s.Logger.Info("notification", map[string]string{
		"title":    msg.Title,
		"body":     msg.Body,
		"icon":     string(msg.Icon),
		"priority": strconv.Itoa(msg.Priority),
	})
	return nil
}

// MultiSender fans a message out to several senders and reports every
// failure.
type MultiSender struct {
	Senders []Sender
}

func (s MultiSender) Send(ctx context.Context, msg Message) error {
	var errs []error
	for _, sender := range s.Senders {
		if sender == nil {
			continue
		}
		if err := sender.Send(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// MemorySender records messages for tests.
type MemorySender struct {
	mu       sync.Mutex
	messages []Message
	fail     error
}

// FailWith makes subsequent sends return err.
func (s *MemorySender) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = err
}

func (s *MemorySender) Send(_ context.Context, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.messages = append(s.messages, msg)
	return nil
}

// Messages returns a copy of everything recorded so far.
func (s *MemorySender) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}
