// Package notify delivers domain events to external collaborators after the
// owning transaction has committed. Delivery is best-effort: a failed
// publish is logged, never surfaced to the caller whose work already
// committed.
package notify

import (
	"context"
	"sync"
	"time"
)

const (
	KindReservationChanged = "reservation.changed"
	KindLedgerChanged      = "ledger.changed"
	KindStatusChanged      = "event.status_changed"
	KindExportCreated      = "export.created"
)

// Event is one domain event for the notification channel.
type Event struct {
	Kind       string         `json:"kind"`
	EventID    string         `json:"event_id,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
	Payload    map[string]any `json:"payload,omitempty"`
}

type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

// Noop discards every event; used when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }

// Recorder collects published events in memory for tests.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, evt Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	return nil
}

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}
