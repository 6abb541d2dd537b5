package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lsei27/cater-sklad-sub000/internal/domain"
)

// StockRepository reads the ledger and the competing claims the availability
// calculator folds over, and appends ledger postings.
type StockRepository struct {
	pool *pgxpool.Pool
}

func NewStockRepository(pool *pgxpool.Pool) *StockRepository {
	return &StockRepository{pool: pool}
}

func (r *StockRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *StockRepository) GetEvent(ctx context.Context, eventID string) (domain.Event, error) {
	const q = `
SELECT id, name, location, delivery_at, pickup_at, status, export_needs_revision, created_at
FROM events
WHERE id = $1`
	return scanEvent(queryRow(ctx, r.pool, q, eventID))
}

func (r *StockRepository) GetItem(ctx context.Context, itemID string) (domain.InventoryItem, error) {
	const q = `
SELECT id, name, unit, COALESCE(category_id::text, ''), return_delay_days, active, created_at
FROM items
WHERE id = $1`

	var it domain.InventoryItem
	err := queryRow(ctx, r.pool, q, itemID).
		Scan(&it.ID, &it.Name, &it.Unit, &it.CategoryID, &it.ReturnDelayDays, &it.Active, &it.CreatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.InventoryItem{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.InventoryItem{}, domain.ErrItemNotFound
		}
		return domain.InventoryItem{}, fmt.Errorf("get item: %w", err)
	}
	return it, nil
}

// PhysicalTotal folds the ledger for one item. Items with no postings sum
// to zero.
func (r *StockRepository) PhysicalTotal(ctx context.Context, itemID string) (int, error) {
	const q = `SELECT COALESCE(SUM(delta_quantity), 0) FROM stock_ledger WHERE item_id = $1`

	var total int
	if err := queryRow(ctx, r.pool, q, itemID).Scan(&total); err != nil {
		if isInvalidUUID(err) {
			return 0, domain.ErrInvalidID
		}
		return 0, fmt.Errorf("physical total: %w", err)
	}
	return total, nil
}

// ActiveClaims returns every reservation on the item together with the
// owning event's status and window. Filtering (activity, expiry, overlap,
// self-exclusion) happens in domain.ComputeAvailability so the rules live in
// one place.
func (r *StockRepository) ActiveClaims(ctx context.Context, itemID string) ([]domain.Claim, error) {
	const q = `
SELECT r.event_id, e.status, e.delivery_at, e.pickup_at, r.quantity, r.state, r.expires_at
FROM reservations r
JOIN events e ON e.id = r.event_id
WHERE r.item_id = $1 AND r.quantity > 0`

	rows, err := query(ctx, r.pool, q, itemID)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("claims: %w", err)
	}
	defer rows.Close()

	var claims []domain.Claim
	for rows.Next() {
		var c domain.Claim
		if err := rows.Scan(&c.EventID, &c.EventStatus, &c.EventWindow.Start, &c.EventWindow.End, &c.Quantity, &c.State, &c.ExpiresAt); err != nil {
			return nil, fmt.Errorf("scan claim: %w", err)
		}
		claims = append(claims, c)
	}
	return claims, rows.Err()
}

func (r *StockRepository) AppendLedger(ctx context.Context, entry domain.LedgerEntry) (domain.LedgerEntry, error) {
	const stmt = `
INSERT INTO stock_ledger (item_id, delta_quantity, reason, event_id, created_by, note)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, created_at`

	err := queryRow(ctx, r.pool, stmt,
		entry.ItemID, entry.Delta, entry.Reason, entry.EventID, entry.CreatedBy, entry.Note,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.LedgerEntry{}, domain.ErrInvalidID
		}
		return domain.LedgerEntry{}, fmt.Errorf("append ledger: %w", err)
	}
	return entry, nil
}

func (r *StockRepository) ListLedger(ctx context.Context, itemID string) ([]domain.LedgerEntry, error) {
	const q = `
SELECT id, item_id, delta_quantity, reason, event_id, created_by, note, created_at
FROM stock_ledger
WHERE item_id = $1
ORDER BY id`

	rows, err := query(ctx, r.pool, q, itemID)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list ledger: %w", err)
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		var e domain.LedgerEntry
		if err := rows.Scan(&e.ID, &e.ItemID, &e.Delta, &e.Reason, &e.EventID, &e.CreatedBy, &e.Note, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanEvent(row pgx.Row) (domain.Event, error) {
	var e domain.Event
	err := row.Scan(&e.ID, &e.Name, &e.Location, &e.DeliveryAt, &e.PickupAt, &e.Status, &e.ExportNeedsRevision, &e.CreatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Event{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Event{}, domain.ErrEventNotFound
		}
		return domain.Event{}, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}
