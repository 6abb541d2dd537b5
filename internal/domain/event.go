package domain

import "time"

type EventStatus string

const (
	StatusDraft           EventStatus = "DRAFT"
	StatusReadyForWH      EventStatus = "READY_FOR_WAREHOUSE"
	StatusSentToWarehouse EventStatus = "SENT_TO_WAREHOUSE"
	StatusIssued          EventStatus = "ISSUED"
	StatusClosed          EventStatus = "CLOSED"
	StatusCancelled       EventStatus = "CANCELLED"
)

// ReadOnly reports whether reservations on the event are frozen.
func (s EventStatus) ReadOnly() bool {
	return s == StatusIssued || s == StatusClosed
}

// Terminal reports whether no further status transition is possible.
func (s EventStatus) Terminal() bool {
	return s == StatusClosed || s == StatusCancelled
}

// Blocks reports whether reservations owned by an event in this status
// count against other events' availability.
func (s EventStatus) Blocks() bool {
	return s != StatusClosed && s != StatusCancelled
}

// Event is a catering job with a delivery/pickup window. Stock reserved for
// it is unavailable to overlapping events for the whole window, extended per
// item by the item's return delay.
type Event struct {
	ID                  string
	Name                string
	Location            string
	DeliveryAt          time.Time
	PickupAt            time.Time
	Status              EventStatus
	ExportNeedsRevision bool
	CreatedAt           time.Time
}

// Window returns the raw delivery-to-pickup span of the event.
func (e Event) Window() Window {
	return Window{Start: e.DeliveryAt, End: e.PickupAt}
}
