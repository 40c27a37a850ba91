// Package notify delivers run outcomes to the operator through
// pluggable senders: desktop notifier binaries, webhooks, or the log.
package notify

import (
	"context"
	"fmt"

	"stakeout/internal/logging"
	"stakeout/internal/metrics"
	"stakeout/internal/verdict"
)

// Icon classifies a message for senders that can show state.
type Icon string

const (
	IconInfo Icon = "info"
	IconPass Icon = "pass"
	IconFail Icon = "fail"
)

// PriorityHigh marks failure messages for senders with urgency levels.
const PriorityHigh = 2

const maxBodyRunes = 1000

// Message is one notification ready for delivery.
type Message struct {
	Title    string `json:"title"`
	Body     string `json:"body"`
	Icon     Icon   `json:"icon"`
	Priority int    `json:"priority"`
}

// Outcome is the classified result of one command run.
type Outcome struct {
	Path       string
	Summary    string
	ExitStatus int
	Verdict    verdict.Verdict
}

// Sender delivers a single message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Notifier receives the run-loop's notification points. Implementations
// absorb delivery errors; the loop never fails because a notification
// did.
type Notifier interface {
	Changed(ctx context.Context, path string)
	Passed(ctx context.Context, outcome Outcome)
	Failed(ctx context.Context, outcome Outcome)
}

// Sink adapts a Sender into a Notifier: it renders the standard
// messages, logs delivery failures, and counts deliveries.
type Sink struct {
	sender   Sender
	logger   *logging.Logger
	registry *metrics.Registry
}

// NewSink wraps sender. A nil sender yields a sink that drops
// everything.
func NewSink(sender Sender, logger *logging.Logger, registry *metrics.Registry) *Sink {
	return &Sink{sender: sender, logger: logger, registry: registry}
}

func (s *Sink) Changed(ctx context.Context, path string) {
	s.deliver(ctx, Message{
		Title: "stakeout",
		Body:  fmt.Sprintf("%s changed", path),
		Icon:  IconInfo,
	})
}

func (s *Sink) Passed(ctx context.Context, outcome Outcome) {
	s.deliver(ctx, Message{
		Title: "Pass",
		Body:  truncateBody(outcome.Summary),
		Icon:  IconPass,
	})
}

func (s *Sink) Failed(ctx context.Context, outcome Outcome) {
	s.deliver(ctx, Message{
		Title:    "Fail",
		Body:     truncateBody(outcome.Summary),
		Icon:     IconFail,
		Priority: PriorityHigh,
	})
}

func (s *Sink) deliver(ctx context.Context, msg Message) {
	if s == nil || s.sender == nil {
		return
	}
	if err := s.sender.Send(ctx, msg); err != nil {
		s.registry.AddNotifyFailure()
		s.logger.Warn("notification failed", map[string]string{
			"title": msg.Title,
			"error": err.Error(),
		})
		return
	}
	s.registry.AddNotifySent()
}

// truncateBody keeps notification popups readable when the summary is a
// full output dump.
func truncateBody(body string) string {
	runes := []rune(body)
	if len(runes) <= maxBodyRunes {
		return body
	}
	return string(runes[:maxBodyRunes]) + "..."
}
