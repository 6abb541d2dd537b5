package domain

import "time"

// LedgerReason classifies a stock ledger posting.
type LedgerReason string

const (
	ReasonPurchase LedgerReason = "purchase"
	ReasonWriteOff LedgerReason = "write_off"
	ReasonAudit    LedgerReason = "audit"
	ReasonBreakage LedgerReason = "breakage"
	ReasonMissing  LedgerReason = "missing"
	ReasonManual   LedgerReason = "manual"
)

// Manual reports whether the reason may be posted directly by an
// administrator. Breakage and missing postings are produced only by the
// event close flow.
func (r LedgerReason) Manual() bool {
	switch r {
	case ReasonPurchase, ReasonWriteOff, ReasonAudit, ReasonManual:
		return true
	}
	return false
}

// LedgerEntry is one immutable signed adjustment of an item's physical
// stock. The ledger is the only source of truth for on-hand quantity: the
// physical total of an item is the sum of its deltas, and no table caches
// that number.
type LedgerEntry struct {
	ID        int64
	ItemID    string
	Delta     int
	Reason    LedgerReason
	EventID   *string
	CreatedBy string
	Note      string
	CreatedAt time.Time
}
