package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/clarion-hms/clarion/internal/shared"
)

type memoryRepo struct {
	items     map[int64]Item
	movements []Movement
	nextID    int64
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo(items ...Item) *memoryRepo {
	repo := &memoryRepo{items: make(map[int64]Item)}
	for _, item := range items {
		repo.items[item.ID] = item
		if item.ID > repo.nextID {
			repo.nextID = item.ID
		}
	}
	return repo
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryTx{repo: r})
}

func (r *memoryRepo) ListItems(ctx context.Context, filter ListFilter) ([]Item, int, error) {
	var items []Item
	for _, item := range r.items {
		items = append(items, item)
	}
	return items, len(items), nil
}

func (r *memoryRepo) GetItem(ctx context.Context, id int64) (Item, error) {
	item, ok := r.items[id]
	if !ok {
		return Item{}, shared.ErrNotFound
	}
	return item, nil
}

func (r *memoryRepo) CreateItem(ctx context.Context, input ItemInput) (Item, error) {
	for _, existing := range r.items {
		if existing.Code == input.Code {
			return Item{}, ErrDuplicateCode
		}
	}
	r.nextID++
	item := Item{
		ID:                r.nextID,
		Name:              input.Name,
		Code:              input.Code,
		Category:          input.Category,
		Unit:              input.Unit,
		Stock:             input.Stock,
		LowStockThreshold: input.LowStockThreshold,
		ExpiryDate:        input.ExpiryDate,
		CreatedAt:         time.Now(),
		UpdatedAt:         time.Now(),
	}
	r.items[item.ID] = item
	return item, nil
}

func (r *memoryRepo) UpdateItem(ctx context.Context, id int64, input ItemInput) (Item, error) {
	item, ok := r.items[id]
	if !ok {
		return Item{}, shared.ErrNotFound
	}
	item.Name = input.Name
	item.Code = input.Code
	item.Category = input.Category
	item.Unit = input.Unit
	item.Stock = input.Stock
	item.LowStockThreshold = input.LowStockThreshold
	item.ExpiryDate = input.ExpiryDate
	r.items[id] = item
	return item, nil
}

func (r *memoryRepo) DeleteItem(ctx context.Context, id int64) error {
	if _, ok := r.items[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *memoryRepo) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	for _, item := range r.items {
		stats.TotalItems++
		switch item.Status() {
		case StatusInStock:
			stats.InStock++
		case StatusLowStock:
			stats.LowStock++
		case StatusOutOfStock:
			stats.OutOfStock++
		}
		stats.TotalConsumed += item.Consumed
		stats.TotalRejected += item.Rejected
	}
	return stats, nil
}

func (r *memoryRepo) ListMovements(ctx context.Context, itemID int64, limit int) ([]Movement, error) {
	var result []Movement
	for _, m := range r.movements {
		if m.ItemID == itemID {
			result = append(result, m)
		}
	}
	return result, nil
}

func (tx *memoryTx) GetItemForUpdate(ctx context.Context, id int64) (Item, error) {
	return tx.repo.GetItem(ctx, id)
}

func (tx *memoryTx) UpdateItemCounters(ctx context.Context, item Item) error {
	stored, ok := tx.repo.items[item.ID]
	if !ok {
		return shared.ErrNotFound
	}
	stored.Stock = item.Stock
	stored.Consumed = item.Consumed
	stored.Rejected = item.Rejected
	stored.ExpiryDate = item.ExpiryDate
	tx.repo.items[item.ID] = stored
	return nil
}

func (tx *memoryTx) InsertMovement(ctx context.Context, movement Movement) (int64, error) {
	tx.repo.nextID++
	movement.ID = tx.repo.nextID
	tx.repo.movements = append(tx.repo.movements, movement)
	return movement.ID, nil
}

func gauzeItem() Item {
	return Item{ID: 1, Name: "Sterile Gauze", Code: "GZ-001", Category: "Consumables", Unit: "pack", Stock: 10, Consumed: 20, Rejected: 2, LowStockThreshold: 5}
}

func TestConsumeUpdatesCounters(t *testing.T) {
	repo := newMemoryRepo(gauzeItem())
	svc := NewService(repo, nil)
	ctx := context.Background()

	result, err := svc.Consume(ctx, 1, ConsumeInput{Quantity: 5, Notes: "ward A", HandledBy: "nurse.jane"})
	require.NoError(t, err)
	require.Equal(t, 5, result.Item.Stock)
	require.Equal(t, 25, result.Item.Consumed)
	require.Equal(t, 2, result.Item.Rejected)
	require.Equal(t, MovementOut, result.Movement.Type)
	require.False(t, result.Movement.IsRejection)
	require.Equal(t, 25, result.Stats.TotalConsumed)
}

func TestRejectMarksMovement(t *testing.T) {
	repo := newMemoryRepo(gauzeItem())
	svc := NewService(repo, nil)

	result, err := svc.Reject(context.Background(), 1, ConsumeInput{Quantity: 3, Notes: "damaged box"})
	require.NoError(t, err)
	require.Equal(t, 7, result.Item.Stock)
	require.Equal(t, 5, result.Item.Rejected)
	require.True(t, result.Movement.IsRejection)
}

func TestOutMovementGuardsStock(t *testing.T) {
	repo := newMemoryRepo(gauzeItem())
	svc := NewService(repo, nil)
	ctx := context.Background()

	_, err := svc.Consume(ctx, 1, ConsumeInput{Quantity: 11})
	require.ErrorIs(t, err, ErrInsufficientStock)

	// Failed movement must leave counters untouched.
	item, err := svc.GetItem(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 10, item.Stock)
	require.Equal(t, 20, item.Consumed)
}

func TestInboundMovementRaisesStock(t *testing.T) {
	repo := newMemoryRepo(gauzeItem())
	svc := NewService(repo, nil)
	expiry := time.Date(2027, 3, 1, 0, 0, 0, 0, time.UTC)

	result, err := svc.PostMovement(context.Background(), 1, MovementInput{Type: MovementIn, Quantity: 40, Remarks: "quarterly delivery", ExpiryDate: &expiry})
	require.NoError(t, err)
	require.Equal(t, 50, result.Item.Stock)
	require.NotNil(t, result.Item.ExpiryDate)
	require.Equal(t, expiry, *result.Item.ExpiryDate)
}

func TestMovementValidation(t *testing.T) {
	repo := newMemoryRepo(gauzeItem())
	svc := NewService(repo, nil)
	ctx := context.Background()

	_, err := svc.PostMovement(ctx, 1, MovementInput{Type: "TRANSFER", Quantity: 1})
	require.ErrorIs(t, err, ErrInvalidMovementType)

	_, err = svc.PostMovement(ctx, 1, MovementInput{Type: MovementOut, Quantity: 0})
	require.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.Consume(ctx, 1, ConsumeInput{Quantity: -2})
	require.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestStatusDerivation(t *testing.T) {
	require.Equal(t, StatusOutOfStock, Item{Stock: 0, LowStockThreshold: 5}.Status())
	require.Equal(t, StatusLowStock, Item{Stock: 5, LowStockThreshold: 5}.Status())
	require.Equal(t, StatusInStock, Item{Stock: 6, LowStockThreshold: 5}.Status())
}
