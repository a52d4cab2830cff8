package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clarion-hms/clarion/internal/shared"
)

// Repository persists inventory data in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations used by the service.
type TxRepository interface {
	GetItemForUpdate(ctx context.Context, id int64) (Item, error)
	UpdateItemCounters(ctx context.Context, item Item) error
	InsertMovement(ctx context.Context, movement Movement) (int64, error)
}

type txRepo struct {
	tx pgx.Tx
}

const itemColumns = `id, name, code, category, unit, stock, consumed, rejected, low_stock_threshold, expiry_date, created_at, updated_at`

func scanItem(row pgx.Row) (Item, error) {
	var item Item
	err := row.Scan(
		&item.ID,
		&item.Name,
		&item.Code,
		&item.Category,
		&item.Unit,
		&item.Stock,
		&item.Consumed,
		&item.Rejected,
		&item.LowStockThreshold,
		&item.ExpiryDate,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	return item, err
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(ctx, &txRepo{tx: tx}); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// ListItems returns a filtered page of items plus the unpaginated total.
func (r *Repository) ListItems(ctx context.Context, filter ListFilter) ([]Item, int, error) {
	where := []string{"1=1"}
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Search != "" {
		p := arg("%" + filter.Search + "%")
		where = append(where, fmt.Sprintf("(name ILIKE %s OR code ILIKE %s)", p, p))
	}
	if filter.Category != "" {
		where = append(where, "category = "+arg(filter.Category))
	}
	switch filter.Status {
	case StatusOutOfStock:
		where = append(where, "stock <= 0")
	case StatusLowStock:
		where = append(where, "stock > 0 AND stock <= low_stock_threshold")
	case StatusInStock:
		where = append(where, "stock > low_stock_threshold")
	}

	cond := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT count(*) FROM inventory_items WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = shared.DefaultPerPage
	}
	query := fmt.Sprintf(
		"SELECT %s FROM inventory_items WHERE %s ORDER BY updated_at DESC, id DESC LIMIT %s OFFSET %s",
		itemColumns, cond, arg(limit), arg(filter.Offset),
	)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, item)
	}
	return items, total, rows.Err()
}

// GetItem fetches one item by ID.
func (r *Repository) GetItem(ctx context.Context, id int64) (Item, error) {
	query := fmt.Sprintf("SELECT %s FROM inventory_items WHERE id = $1", itemColumns)
	item, err := scanItem(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, shared.ErrNotFound
		}
		return Item{}, err
	}
	return item, nil
}

// CreateItem inserts a new item definition.
func (r *Repository) CreateItem(ctx context.Context, input ItemInput) (Item, error) {
	const query = `
INSERT INTO inventory_items (name, code, category, unit, stock, consumed, rejected, low_stock_threshold, expiry_date, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, 0, 0, $6, $7, now(), now())
RETURNING ` + itemColumns
	item, err := scanItem(r.pool.QueryRow(ctx, query,
		input.Name, input.Code, input.Category, input.Unit, input.Stock, input.LowStockThreshold, input.ExpiryDate))
	if err != nil {
		return Item{}, mapConstraintError(err)
	}
	return item, nil
}

// UpdateItem updates the mutable definition fields of an item.
func (r *Repository) UpdateItem(ctx context.Context, id int64, input ItemInput) (Item, error) {
	const query = `
UPDATE inventory_items
SET name = $2, code = $3, category = $4, unit = $5, stock = $6, low_stock_threshold = $7, expiry_date = $8, updated_at = now()
WHERE id = $1
RETURNING ` + itemColumns
	item, err := scanItem(r.pool.QueryRow(ctx, query,
		id, input.Name, input.Code, input.Category, input.Unit, input.Stock, input.LowStockThreshold, input.ExpiryDate))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, shared.ErrNotFound
		}
		return Item{}, mapConstraintError(err)
	}
	return item, nil
}

// DeleteItem removes an item and its movement ledger.
func (r *Repository) DeleteItem(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM inventory_items WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Stats aggregates inventory counters.
func (r *Repository) Stats(ctx context.Context) (Stats, error) {
	const query = `
SELECT
	count(*),
	count(*) FILTER (WHERE stock > low_stock_threshold),
	count(*) FILTER (WHERE stock > 0 AND stock <= low_stock_threshold),
	count(*) FILTER (WHERE stock <= 0),
	COALESCE(sum(consumed), 0),
	COALESCE(sum(rejected), 0)
FROM inventory_items`
	var stats Stats
	err := r.pool.QueryRow(ctx, query).Scan(
		&stats.TotalItems,
		&stats.InStock,
		&stats.LowStock,
		&stats.OutOfStock,
		&stats.TotalConsumed,
		&stats.TotalRejected,
	)
	return stats, err
}

// ListMovements returns the most recent ledger entries for an item.
func (r *Repository) ListMovements(ctx context.Context, itemID int64, limit int) ([]Movement, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `
SELECT id, item_id, code, movement_type, quantity, remarks, handled_by, is_rejection, expiry_date, created_at
FROM inventory_movements
WHERE item_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2`
	rows, err := r.pool.Query(ctx, query, itemID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var movements []Movement
	for rows.Next() {
		var m Movement
		if err := rows.Scan(&m.ID, &m.ItemID, &m.Code, &m.Type, &m.Quantity, &m.Remarks, &m.HandledBy, &m.IsRejection, &m.ExpiryDate, &m.CreatedAt); err != nil {
			return nil, err
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

func (r *txRepo) GetItemForUpdate(ctx context.Context, id int64) (Item, error) {
	query := fmt.Sprintf("SELECT %s FROM inventory_items WHERE id = $1 FOR UPDATE", itemColumns)
	item, err := scanItem(r.tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, shared.ErrNotFound
		}
		return Item{}, err
	}
	return item, nil
}

func (r *txRepo) UpdateItemCounters(ctx context.Context, item Item) error {
	const query = `
UPDATE inventory_items
SET stock = $2, consumed = $3, rejected = $4, expiry_date = $5, updated_at = now()
WHERE id = $1`
	_, err := r.tx.Exec(ctx, query, item.ID, item.Stock, item.Consumed, item.Rejected, item.ExpiryDate)
	return err
}

func (r *txRepo) InsertMovement(ctx context.Context, movement Movement) (int64, error) {
	const query = `
INSERT INTO inventory_movements (item_id, code, movement_type, quantity, remarks, handled_by, is_rejection, expiry_date, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id`
	var id int64
	err := r.tx.QueryRow(ctx, query,
		movement.ItemID, movement.Code, string(movement.Type), movement.Quantity,
		movement.Remarks, movement.HandledBy, movement.IsRejection, movement.ExpiryDate, movement.CreatedAt,
	).Scan(&id)
	return id, err
}

func mapConstraintError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateCode
	}
	return err
}
