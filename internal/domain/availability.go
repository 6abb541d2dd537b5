package domain

import "time"

// Availability is the answer to "how many of this item can the event still
// take": physical on-hand stock minus everything other active, overlapping
// claims are holding.
type Availability struct {
	Physical  int
	Blocked   int
	Available int
}

// Claim is another event's reservation on an item as seen by the
// availability calculation: the reserved quantity plus just enough of the
// owning event to decide whether the claim is active and overlapping.
type Claim struct {
	EventID     string
	EventStatus EventStatus
	EventWindow Window
	Quantity    int
	State       ReservationState
	ExpiresAt   *time.Time
}

// ActiveAt mirrors Reservation.ActiveAt for a claim row.
func (c Claim) ActiveAt(now time.Time) bool {
	return Reservation{
		Quantity:  c.Quantity,
		State:     c.State,
		ExpiresAt: c.ExpiresAt,
	}.ActiveAt(now)
}

// ComputeAvailability folds physical stock and competing claims into the
// availability for one (event, item) pair.
//
// A claim blocks the target when all of the following hold: it belongs to a
// different event, that event's status still blocks stock (not CLOSED, not
// CANCELLED), the claim is active at now, and its occupied window overlaps
// the target's occupied window. Both windows are extended by the same item's
// return delay, because the delay is a property of the item, not of either
// event. The target's own reservation never blocks itself, so re-reserving
// at a new quantity does not double-count the old one.
func ComputeAvailability(targetEventID string, target Window, returnDelayDays, physical int, claims []Claim, now time.Time) Availability {
	occupied := OccupiedWindow(target, returnDelayDays)

	blocked := 0
	for _, c := range claims {
		if c.EventID == targetEventID {
			continue
		}
		if !c.EventStatus.Blocks() {
			continue
		}
		if !c.ActiveAt(now) {
			continue
		}
		if !OccupiedWindow(c.EventWindow, returnDelayDays).Overlaps(occupied) {
			continue
		}
		blocked += c.Quantity
	}

	return Availability{
		Physical:  physical,
		Blocked:   blocked,
		Available: physical - blocked,
	}
}
