package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lsei27/cater-sklad-sub000/internal/domain"
)

// AdminRepository persists the reference data the core reads: items,
// categories and events.
type AdminRepository struct {
	pool *pgxpool.Pool
}

func NewAdminRepository(pool *pgxpool.Pool) *AdminRepository {
	return &AdminRepository{pool: pool}
}

func (r *AdminRepository) CreateCategory(ctx context.Context, c domain.Category) error {
	const stmt = `INSERT INTO categories (id, name, parent_id) VALUES ($1, $2, $3)`

	if _, err := exec(ctx, r.pool, stmt, c.ID, c.Name, c.ParentID); err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

func (r *AdminRepository) CreateItem(ctx context.Context, it domain.InventoryItem) error {
	const stmt = `
INSERT INTO items (id, name, unit, category_id, return_delay_days, active, created_at)
VALUES ($1, $2, $3, NULLIF($4, '')::uuid, $5, $6, $7)`

	_, err := exec(ctx, r.pool, stmt,
		it.ID, it.Name, it.Unit, it.CategoryID, it.ReturnDelayDays, it.Active, it.CreatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create item: %w", err)
	}
	return nil
}

func (r *AdminRepository) ListItems(ctx context.Context) ([]domain.InventoryItem, error) {
	const q = `
SELECT id, name, unit, COALESCE(category_id::text, ''), return_delay_days, active, created_at
FROM items
ORDER BY name`

	rows, err := query(ctx, r.pool, q)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []domain.InventoryItem
	for rows.Next() {
		var it domain.InventoryItem
		if err := rows.Scan(&it.ID, &it.Name, &it.Unit, &it.CategoryID, &it.ReturnDelayDays, &it.Active, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *AdminRepository) CreateEvent(ctx context.Context, e domain.Event) error {
	const stmt = `
INSERT INTO events (id, name, location, delivery_at, pickup_at, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := exec(ctx, r.pool, stmt,
		e.ID, e.Name, e.Location, e.DeliveryAt, e.PickupAt, e.Status, e.CreatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

func (r *AdminRepository) ListEvents(ctx context.Context) ([]domain.Event, error) {
	const q = `
SELECT id, name, location, delivery_at, pickup_at, status, export_needs_revision, created_at
FROM events
ORDER BY delivery_at`

	rows, err := query(ctx, r.pool, q)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		var e domain.Event
		if err := rows.Scan(&e.ID, &e.Name, &e.Location, &e.DeliveryAt, &e.PickupAt, &e.Status, &e.ExportNeedsRevision, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *AdminRepository) GetEvent(ctx context.Context, eventID string) (domain.Event, error) {
	const q = `
SELECT id, name, location, delivery_at, pickup_at, status, export_needs_revision, created_at
FROM events
WHERE id = $1`
	return scanEvent(queryRow(ctx, r.pool, q, eventID))
}
