package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lsei27/cater-sklad-sub000/internal/domain"
)

// ReservationRepository carries the storage side of the reservation
// transaction protocol: the event row lock, per-item advisory locks, the
// availability inputs and the reservation upsert.
type ReservationRepository struct {
	pool  *pgxpool.Pool
	stock *StockRepository
}

func NewReservationRepository(pool *pgxpool.Pool) *ReservationRepository {
	return &ReservationRepository{pool: pool, stock: NewStockRepository(pool)}
}

func (r *ReservationRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *ReservationRepository) GetEventForUpdate(ctx context.Context, eventID string) (domain.Event, error) {
	const q = `
SELECT id, name, location, delivery_at, pickup_at, status, export_needs_revision, created_at
FROM events
WHERE id = $1
FOR UPDATE`
	return scanEvent(queryRow(ctx, r.pool, q, eventID))
}

// GetItemsWithRoot loads the requested items along with their root category
// ids, walking the category tree in SQL.
func (r *ReservationRepository) GetItemsWithRoot(ctx context.Context, itemIDs []string) (map[string]domain.ItemWithRoot, error) {
	const q = `
WITH RECURSIVE roots AS (
	SELECT id, id AS root_id FROM categories WHERE parent_id IS NULL
	UNION ALL
	SELECT c.id, r.root_id FROM categories c JOIN roots r ON c.parent_id = r.id
)
SELECT i.id, i.name, i.unit, COALESCE(i.category_id::text, ''), i.return_delay_days, i.active, i.created_at,
       COALESCE(r.root_id::text, '')
FROM items i
LEFT JOIN roots r ON r.id = i.category_id
WHERE i.id = ANY($1)`

	rows, err := query(ctx, r.pool, q, itemIDs)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("get items: %w", err)
	}
	defer rows.Close()

	out := make(map[string]domain.ItemWithRoot, len(itemIDs))
	for rows.Next() {
		var iw domain.ItemWithRoot
		it := &iw.Item
		if err := rows.Scan(&it.ID, &it.Name, &it.Unit, &it.CategoryID, &it.ReturnDelayDays, &it.Active, &it.CreatedAt, &iw.RootCategoryID); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		out[it.ID] = iw
	}
	return out, rows.Err()
}

// LockItems serializes concurrent reservations per item for the rest of the
// transaction.
func (r *ReservationRepository) LockItems(ctx context.Context, itemIDs []string) error {
	if err := lockItems(ctx, r.pool, itemIDs); err != nil {
		return fmt.Errorf("lock items: %w", err)
	}
	return nil
}

func (r *ReservationRepository) PhysicalTotal(ctx context.Context, itemID string) (int, error) {
	return r.stock.PhysicalTotal(ctx, itemID)
}

func (r *ReservationRepository) ActiveClaims(ctx context.Context, itemID string) ([]domain.Claim, error) {
	return r.stock.ActiveClaims(ctx, itemID)
}

func (r *ReservationRepository) UpsertReservation(ctx context.Context, res domain.Reservation) error {
	const stmt = `
INSERT INTO reservations (event_id, item_id, quantity, state, expires_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (event_id, item_id)
DO UPDATE SET quantity = EXCLUDED.quantity, state = EXCLUDED.state,
              expires_at = EXCLUDED.expires_at, updated_at = EXCLUDED.updated_at`

	_, err := exec(ctx, r.pool, stmt,
		res.EventID, res.ItemID, res.Quantity, res.State, res.ExpiresAt, res.UpdatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("upsert reservation: %w", err)
	}
	return nil
}

func (r *ReservationRepository) ListReservations(ctx context.Context, eventID string) ([]domain.Reservation, error) {
	const q = `
SELECT event_id, item_id, quantity, state, expires_at, updated_at
FROM reservations
WHERE event_id = $1
ORDER BY item_id`

	rows, err := query(ctx, r.pool, q, eventID)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list reservations: %w", err)
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

func (r *ReservationRepository) SetExportNeedsRevision(ctx context.Context, eventID string, needs bool) error {
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
