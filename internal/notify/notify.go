// Package notify delivers lead lifecycle events to users. Delivery is
// fire-and-forget: Dispatcher runs notifiers in the background and only logs
// their failures, so callers never see a notification error.
package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Event names a lifecycle notification.
type Event string

const (
	EventInterestCreated   Event = "interest_created"
	EventContactShared     Event = "contact_shared"
	EventAccessPaid        Event = "access_paid"
	EventInterestCancelled Event = "interest_cancelled"
)

// Message is the delivered envelope.
type Message struct {
	UserID  string         `json:"user_id"`
	Event   Event          `json:"event"`
	Payload map[string]any `json:"payload,omitempty"`
	SentAt  time.Time      `json:"sent_at"`
}

// Notifier sends one message. Implementations may block up to ctx's deadline.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// LogNotifier writes messages to a zerolog logger. It is the default sink
// when no broker is configured.
type LogNotifier struct {
	Log zerolog.Logger
}

func (n LogNotifier) Notify(_ context.Context, msg Message) error {
	n.Log.Info().
		Str("user_id", msg.UserID).
		Str("event", string(msg.Event)).
		Interface("payload", msg.Payload).
		Msg("notification")
	return nil
}

// Multi fans a message out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, msg Message) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Dispatcher runs a Notifier asynchronously with a per-message timeout.
type Dispatcher struct {
	notifier Notifier
	timeout  time.Duration
	log      zerolog.Logger
	now      func() time.Time

	wg sync.WaitGroup
}

// NewDispatcher wraps n. timeout <= 0 defaults to five seconds.
func NewDispatcher(n Notifier, timeout time.Duration, log zerolog.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Dispatcher{notifier: n, timeout: timeout, log: log, now: time.Now}
}

// Dispatch queues one notification and returns immediately. The send keeps
// ctx's values (trace, logger) but not its cancellation.
func (d *Dispatcher) Dispatch(ctx context.Context, userID string, event Event, payload map[string]any) {
	if d == nil || d.notifier == nil || userID == "" {
		return
	}
	msg := Message{UserID: userID, Event: event, Payload: payload, SentAt: d.now().UTC()}
	base := context.WithoutCancel(ctx)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.log.Error().Interface("panic", r).Str("event", string(event)).Msg("notifier panicked")
			}
		}()
		sctx, cancel := context.WithTimeout(base, d.timeout)
		defer cancel()
		if err := d.notifier.Notify(sctx, msg); err != nil {
			d.log.Warn().Err(err).
				Str("user_id", userID).
				Str("event", string(event)).
				Msg("notification delivery failed")
		}
	}()
}

// Wait blocks until every dispatched notification has finished.
func (d *Dispatcher) Wait() { d.wg.Wait() }
