package domain

import "time"

type ReservationState string

const (
	ReservationDraft     ReservationState = "draft"
	ReservationConfirmed ReservationState = "confirmed"
)

// Reservation is an event's claim on a quantity of one item. There is at
// most one row per (event, item) pair; re-reserving overwrites it.
//
// Draft reservations are soft holds: they expire at ExpiresAt and stop
// blocking stock from that instant, without ever being deleted. Expiry is a
// predicate evaluated at query time, not a state flipped by a sweeper.
type Reservation struct {
	EventID   string
	ItemID    string
	Quantity  int
	State     ReservationState
	ExpiresAt *time.Time
	UpdatedAt time.Time
}

// ActiveAt reports whether the reservation still holds stock at the given
// instant.
func (r Reservation) ActiveAt(now time.Time) bool {
	if r.Quantity <= 0 {
		return false
	}
	switch r.State {
	case ReservationConfirmed:
		return true
	case ReservationDraft:
		return r.ExpiresAt != nil && r.ExpiresAt.After(now)
	default:
		return false
	}
}
