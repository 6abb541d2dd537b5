package domain

import "time"

// Export is a numbered snapshot of an event's confirmed reservations handed
// to the warehouse. Versions are monotonically increasing per event.
type Export struct {
	EventID   string
	Version   int
	CreatedBy string
	CreatedAt time.Time
}

// ExportLine is one item row of an export snapshot.
type ExportLine struct {
	EventID  string
	Version  int
	ItemID   string
	Quantity int
}

// IssueRecord captures stock physically handed out for an event. Rows are
// append-only and keyed by (event, item, idempotency key), so a retried
// issue call inserts nothing new.
type IssueRecord struct {
	EventID        string
	ItemID         string
	IdempotencyKey string
	Quantity       int
	CreatedBy      string
	CreatedAt      time.Time
}

// ReturnRecord captures stock coming back from an event, split into intact
// and broken quantities. Same idempotent-append semantics as IssueRecord.
type ReturnRecord struct {
	EventID        string
	ItemID         string
	IdempotencyKey string
	Returned       int
	Broken         int
	CreatedBy      string
	CreatedAt      time.Time
}

// ReturnTotals aggregates an event's return records for one item.
type ReturnTotals struct {
	Returned int
	Broken   int
}
