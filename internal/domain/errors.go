package domain

import (
	"errors"
	"fmt"
)

var (
	ErrEventNotFound          = errors.New("event not found")
	ErrItemNotFound           = errors.New("item not found")
	ErrEventReadOnly          = errors.New("event is read-only")
	ErrEventCancelled         = errors.New("event is cancelled")
	ErrEventNotIssued         = errors.New("event is not issued")
	ErrNothingToExport        = errors.New("no confirmed reservations to export")
	ErrNoExport               = errors.New("no export exists for event")
	ErrExportRevisionNeeded   = errors.New("export needs revision")
	ErrInvalidQuantity        = errors.New("invalid quantity")
	ErrDuplicateItem          = errors.New("duplicate item in request")
	ErrNoItems                = errors.New("no items in request")
	ErrInvalidReason          = errors.New("invalid ledger reason")
	ErrIdempotencyKeyRequired = errors.New("idempotency key required")
	ErrInvalidID              = errors.New("invalid id")
	ErrNameRequired           = errors.New("name required")
	ErrInvalidWindow          = errors.New("delivery must be before pickup")
	ErrInvalidReturnDelay     = errors.New("return delay must not be negative")
)

// InsufficientStockError aborts a reservation whose requested quantity
// exceeds what is available; it carries the true available amount so the
// caller can present a precise correction.
type InsufficientStockError struct {
	ItemID    string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for item %s: requested %d, available %d", e.ItemID, e.Requested, e.Available)
}

// RoleCategoryError rejects a reservation batch containing an item outside
// the actor role's permitted root category.
type RoleCategoryError struct {
	ItemID string
	Role   string
}

func (e *RoleCategoryError) Error() string {
	return fmt.Sprintf("role %s may not reserve item %s", e.Role, e.ItemID)
}
