package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOverlaps(t *testing.T) {
	t.Parallel()

	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	at := func(h int) time.Time { return day.Add(time.Duration(h) * time.Hour) }

	tests := []struct {
		name                       string
		aStart, aEnd, bStart, bEnd time.Time
		want                       bool
	}{
		{"back-to-back does not overlap", at(10), at(11), at(11), at(12), false},
		{"partial overlap", at(10), at(11), at(10).Add(30 * time.Minute), at(12), true},
		{"contained", at(10), at(14), at(11), at(12), true},
		{"disjoint", at(8), at(9), at(11), at(12), false},
		{"identical", at(10), at(11), at(10), at(11), true},
		{"touching at start", at(11), at(12), at(10), at(11), false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Overlaps(tt.aStart, tt.aEnd, tt.bStart, tt.bEnd))
			assert.Equal(t, tt.want, Overlaps(tt.bStart, tt.bEnd, tt.aStart, tt.aEnd), "overlap must be symmetric")
		})
	}
}

func TestWindowExtend(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 2, 18, 0, 0, 0, time.UTC)
	w := Window{Start: start, End: end}

	extended := w.Extend(3)
	assert.Equal(t, start, extended.Start, "extend must not move the start")
	assert.Equal(t, end.AddDate(0, 0, 3), extended.End)

	assert.Equal(t, w, w.Extend(0))
	assert.Equal(t, w, w.Extend(-1))
}

func TestOccupiedWindowMakesBackToBackCollide(t *testing.T) {
	t.Parallel()

	// Two back-to-back events on an item with a one-day return delay: the
	// first event's occupied window now reaches into the second one.
	first := Window{
		Start: time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC),
	}
	second := Window{
		Start: time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 6, 3, 8, 0, 0, 0, time.UTC),
	}

	assert.False(t, first.Overlaps(second))
	assert.True(t, OccupiedWindow(first, 1).Overlaps(OccupiedWindow(second, 1)))
}
