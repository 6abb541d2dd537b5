package domain

import "time"

// Window is a half-open time interval [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether two half-open intervals intersect. A window that
// starts exactly when another ends does not overlap it, so back-to-back
// bookings of the same item are legal.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// Overlaps reports whether w intersects other.
func (w Window) Overlaps(other Window) bool {
	return Overlaps(w.Start, w.End, other.Start, other.End)
}

// Extend returns the window with its end pushed out by the given number of
// days. The start is never moved: a return delay keeps the item busy after
// pickup, it does not claim it earlier.
func (w Window) Extend(days int) Window {
	if days <= 0 {
		return w
	}
	return Window{Start: w.Start, End: w.End.AddDate(0, 0, days)}
}

// OccupiedWindow is the span during which a claim on an item actually ties
// the item up: the event window extended by the item's return delay.
func OccupiedWindow(eventWindow Window, returnDelayDays int) Window {
	return eventWindow.Extend(returnDelayDays)
}
