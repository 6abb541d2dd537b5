package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lsei27/cater-sklad-sub000/internal/domain"
)

// LifecycleRepository backs the event state machine: status flips, the bulk
// draft-to-confirmed promotion, export snapshots and the idempotent
// issue/return records.
type LifecycleRepository struct {
	pool  *pgxpool.Pool
	stock *StockRepository
}

func NewLifecycleRepository(pool *pgxpool.Pool) *LifecycleRepository {
	return &LifecycleRepository{pool: pool, stock: NewStockRepository(pool)}
}

func (r *LifecycleRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *LifecycleRepository) GetEventForUpdate(ctx context.Context, eventID string) (domain.Event, error) {
	const q = `
SELECT id, name, location, delivery_at, pickup_at, status, export_needs_revision, created_at
FROM events
WHERE id = $1
FOR UPDATE`
	return scanEvent(queryRow(ctx, r.pool, q, eventID))
}

func (r *LifecycleRepository) UpdateEventStatus(ctx context.Context, eventID string, status domain.EventStatus) error {
	const stmt = `UPDATE events SET status = $2 WHERE id = $1`

	tag, err := exec(ctx, r.pool, stmt, eventID, status)
	if err != nil {
		return fmt.Errorf("update event status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEventNotFound
	}
	return nil
}

// ConfirmDraftReservations promotes all of the event's draft reservations to
// confirmed and drops their expiry. Returns the number of rows flipped.
func (r *LifecycleRepository) ConfirmDraftReservations(ctx context.Context, eventID string) (int, error) {
	const stmt = `
UPDATE reservations
SET state = 'confirmed', expires_at = NULL, updated_at = NOW()
WHERE event_id = $1 AND state = 'draft'`

	tag, err := exec(ctx, r.pool, stmt, eventID)
	if err != nil {
		return 0, fmt.Errorf("confirm draft reservations: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// ConfirmedReservations lists the event's confirmed, positive-quantity
// reservations, the set an export snapshots.
func (r *LifecycleRepository) ConfirmedReservations(ctx context.Context, eventID string) ([]domain.Reservation, error) {
	const q = `
SELECT event_id, item_id, quantity, state, expires_at, updated_at
FROM reservations
WHERE event_id = $1 AND state = 'confirmed' AND quantity > 0
ORDER BY item_id`

	rows, err := query(ctx, r.pool, q, eventID)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("confirmed reservations: %w", err)
	}
	defer rows.Close()

	var out []domain.Reservation
	for rows.Next() {
		var res domain.Reservation
		if err := rows.Scan(&res.EventID, &res.ItemID, &res.Quantity, &res.State, &res.ExpiresAt, &res.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// NextExportVersion allocates the next version for the event. Callers hold
// the event row lock, so concurrent exports cannot collide.
func (r *LifecycleRepository) NextExportVersion(ctx context.Context, eventID string) (int, error) {
	const q = `SELECT COALESCE(MAX(version), 0) + 1 FROM exports WHERE event_id = $1`

	var version int
	if err := queryRow(ctx, r.pool, q, eventID).Scan(&version); err != nil {
		return 0, fmt.Errorf("next export version: %w", err)
	}
	return version, nil
}

func (r *LifecycleRepository) CreateExport(ctx context.Context, exp domain.Export, lines []domain.ExportLine) error {
	const head = `INSERT INTO exports (event_id, version, created_by, created_at) VALUES ($1, $2, $3, $4)`
	if _, err := exec(ctx, r.pool, head, exp.EventID, exp.Version, exp.CreatedBy, exp.CreatedAt); err != nil {
		return fmt.Errorf("create export: %w", err)
	}

	const line = `INSERT INTO export_lines (event_id, version, item_id, quantity) VALUES ($1, $2, $3, $4)`
	for _, l := range lines {
		if _, err := exec(ctx, r.pool, line, l.EventID, l.Version, l.ItemID, l.Quantity); err != nil {
			return fmt.Errorf("create export line: %w", err)
		}
	}
	return nil
}

// LatestExport returns the newest export snapshot, or ErrNoExport.
func (r *LifecycleRepository) LatestExport(ctx context.Context, eventID string) (domain.Export, []domain.ExportLine, error) {
	const q = `
SELECT event_id, version, created_by, created_at
FROM exports
WHERE event_id = $1
ORDER BY version DESC
LIMIT 1`

	var exp domain.Export
	err := queryRow(ctx, r.pool, q, eventID).Scan(&exp.EventID, &exp.Version, &exp.CreatedBy, &exp.CreatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Export{}, nil, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Export{}, nil, domain.ErrNoExport
		}
		return domain.Export{}, nil, fmt.Errorf("latest export: %w", err)
	}

	const lq = `
SELECT event_id, version, item_id, quantity
FROM export_lines
WHERE event_id = $1 AND version = $2
ORDER BY item_id`

	rows, err := query(ctx, r.pool, lq, exp.EventID, exp.Version)
	if err != nil {
		return domain.Export{}, nil, fmt.Errorf("export lines: %w", err)
	}
	defer rows.Close()

	var lines []domain.ExportLine
	for rows.Next() {
		var l domain.ExportLine
		if err := rows.Scan(&l.EventID, &l.Version, &l.ItemID, &l.Quantity); err != nil {
			return domain.Export{}, nil, fmt.Errorf("scan export line: %w", err)
		}
		lines = append(lines, l)
	}
	return exp, lines, rows.Err()
}

func (r *LifecycleRepository) SetExportNeedsRevision(ctx context.Context, eventID string, needs bool) error {
	const stmt = `UPDATE events SET export_needs_revision = $2 WHERE id = $1`

	tag, err := exec(ctx, r.pool, stmt, eventID, needs)
	if err != nil {
		return fmt.Errorf("set export revision flag: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEventNotFound
	}
	return nil
}

// InsertIssue appends an issue record. Returns false when the idempotency
// key already exists for the (event, item) pair; duplicates are not errors.
func (r *LifecycleRepository) InsertIssue(ctx context.Context, rec domain.IssueRecord) (bool, error) {
	const stmt = `
INSERT INTO issues (event_id, item_id, idempotency_key, quantity, created_by, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (event_id, item_id, idempotency_key) DO NOTHING`

	tag, err := exec(ctx, r.pool, stmt,
		rec.EventID, rec.ItemID, rec.IdempotencyKey, rec.Quantity, rec.CreatedBy, rec.CreatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return false, domain.ErrInvalidID
		}
		return false, fmt.Errorf("insert issue: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// InsertReturn appends a return record with the same idempotent semantics as
// InsertIssue.
func (r *LifecycleRepository) InsertReturn(ctx context.Context, rec domain.ReturnRecord) (bool, error) {
	const stmt = `
INSERT INTO returns (event_id, item_id, idempotency_key, returned_quantity, broken_quantity, created_by, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (event_id, item_id, idempotency_key) DO NOTHING`

	tag, err := exec(ctx, r.pool, stmt,
		rec.EventID, rec.ItemID, rec.IdempotencyKey, rec.Returned, rec.Broken, rec.CreatedBy, rec.CreatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return false, domain.ErrInvalidID
		}
		return false, fmt.Errorf("insert return: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// SumIssued totals issued quantities per item for the event.
func (r *LifecycleRepository) SumIssued(ctx context.Context, eventID string) (map[string]int, error) {
	const q = `SELECT item_id, SUM(quantity) FROM issues WHERE event_id = $1 GROUP BY item_id`

	rows, err := query(ctx, r.pool, q, eventID)
	if err != nil {
		return nil, fmt.Errorf("sum issued: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var itemID string
		var qty int
		if err := rows.Scan(&itemID, &qty); err != nil {
			return nil, fmt.Errorf("scan issued sum: %w", err)
		}
		out[itemID] = qty
	}
	return out, rows.Err()
}

// SumReturns totals returned and broken quantities per item for the event.
func (r *LifecycleRepository) SumReturns(ctx context.Context, eventID string) (map[string]domain.ReturnTotals, error) {
	const q = `
SELECT item_id, SUM(returned_quantity), SUM(broken_quantity)
FROM returns
WHERE event_id = $1
GROUP BY item_id`

	rows, err := query(ctx, r.pool, q, eventID)
	if err != nil {
		return nil, fmt.Errorf("sum returns: %w", err)
	}
	defer rows.Close()

	out := make(map[string]domain.ReturnTotals)
	for rows.Next() {
		var itemID string
		var t domain.ReturnTotals
		if err := rows.Scan(&itemID, &t.Returned, &t.Broken); err != nil {
			return nil, fmt.Errorf("scan return sum: %w", err)
		}
		out[itemID] = t
	}
	return out, rows.Err()
}

func (r *LifecycleRepository) AppendLedger(ctx context.Context, entry domain.LedgerEntry) (domain.LedgerEntry, error) {
	return r.stock.AppendLedger(ctx, entry)
}
