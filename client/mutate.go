package client

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// InventoryItem mirrors the server's inventory item shape. Status is supplied
// by the server and never recomputed locally.
type InventoryItem struct {
	ID                int64      `json:"id"`
	Name              string     `json:"name"`
	Code              string     `json:"code"`
	Category          string     `json:"category"`
	Unit              string     `json:"unit"`
	Stock             int        `json:"stock"`
	Consumed          int        `json:"consumed"`
	Rejected          int        `json:"rejected"`
	LowStockThreshold int        `json:"low_stock_threshold"`
	Status            string     `json:"status"`
	ExpiryDate        *time.Time `json:"expiry_date,omitempty"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// InventoryStats mirrors the server's aggregate counters.
type InventoryStats struct {
	TotalItems    int `json:"total_items"`
	InStock       int `json:"in_stock"`
	LowStock      int `json:"low_stock"`
	OutOfStock    int `json:"out_of_stock"`
	TotalConsumed int `json:"total_consumed"`
	TotalRejected int `json:"total_rejected"`
}

// StatsStore holds the displayed aggregate counters the Mutator adjusts
// optimistically and reconciles against server responses.
type StatsStore interface {
	// Adjust shifts the consumed and rejected totals by the given deltas.
	Adjust(consumedDelta, rejectedDelta int)
	// Replace installs authoritative counters from a server response.
	Replace(stats InventoryStats)
	// Current returns the counters as displayed right now.
	Current() InventoryStats
}

// MemoryStatsStore is the default in-process StatsStore.
type MemoryStatsStore struct {
	mu    sync.Mutex
	stats InventoryStats
}

// NewMemoryStatsStore seeds a store with the given baseline.
func NewMemoryStatsStore(stats InventoryStats) *MemoryStatsStore {
	return &MemoryStatsStore{stats: stats}
}

func (s *MemoryStatsStore) Adjust(consumedDelta, rejectedDelta int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.TotalConsumed += consumedDelta
	s.stats.TotalRejected += rejectedDelta
}

func (s *MemoryStatsStore) Replace(stats InventoryStats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats = stats
}

func (s *MemoryStatsStore) Current() InventoryStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// ConsumeInput is the payload for consume and reject operations.
type ConsumeInput struct {
	Quantity  int    `json:"quantity"`
	Notes     string `json:"notes"`
	HandledBy string `json:"handled_by"`
}

// MoveInput is the payload for a plain stock movement.
type MoveInput struct {
	MovementType string     `json:"movement_type"`
	Quantity     int        `json:"quantity"`
	Remarks      string     `json:"remarks"`
	HandledBy    string     `json:"handled_by"`
	ExpiryDate   *time.Time `json:"expiry_date,omitempty"`
}

// StockMovement mirrors one ledger entry from a mutation response.
type StockMovement struct {
	ID          int64      `json:"id"`
	ItemID      int64      `json:"item_id"`
	Code        string     `json:"code"`
	Type        string     `json:"movement_type"`
	Quantity    int        `json:"quantity"`
	Remarks     string     `json:"remarks"`
	HandledBy   string     `json:"handled_by,omitempty"`
	IsRejection bool       `json:"is_rejection"`
	ExpiryDate  *time.Time `json:"expiry_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// MutationResult is the server's answer to a successful mutation.
type MutationResult struct {
	Item     InventoryItem   `json:"item"`
	Movement StockMovement   `json:"movement"`
	Stats    *InventoryStats `json:"stats"`
}

// Mutator performs inventory mutations with optimistic counter updates.
//
// Before the request, the affected aggregate counter is bumped by the input
// quantity; item stock itself is never optimistically changed. On success
// the counters reconcile to the stats in the response when present, and the
// optimistic value stands otherwise. On any failure, transport and business
// rule alike, exactly the applied delta is rolled back and a single error
// surfaces. At most one mutation per item may be in flight.
type Mutator struct {
	client *Client
	stats  StatsStore

	mu       sync.Mutex
	inFlight map[int64]struct{}
}

// NewMutator constructs a Mutator reporting counter changes to store.
func NewMutator(c *Client, store StatsStore) *Mutator {
	return &Mutator{client: c, stats: store, inFlight: make(map[int64]struct{})}
}

// Consume records usage of an item's stock.
func (m *Mutator) Consume(ctx context.Context, item InventoryItem, input ConsumeInput) (MutationResult, error) {
	return m.mutate(ctx, item, mutation{
		path:          itemPath(item.ID, "consume"),
		body:          input,
		quantity:      input.Quantity,
		outbound:      true,
		consumedDelta: input.Quantity,
	})
}

// Reject records disposal of damaged or expired stock.
func (m *Mutator) Reject(ctx context.Context, item InventoryItem, input ConsumeInput) (MutationResult, error) {
	return m.mutate(ctx, item, mutation{
		path:          itemPath(item.ID, "reject"),
		body:          input,
		quantity:      input.Quantity,
		outbound:      true,
		rejectedDelta: input.Quantity,
	})
}

// Move posts a plain IN or OUT stock movement. Movements touch no aggregate
// counters, so there is no optimistic step, only the guards and the
// in-flight gate.
func (m *Mutator) Move(ctx context.Context, item InventoryItem, input MoveInput) (MutationResult, error) {
	return m.mutate(ctx, item, mutation{
		path:     itemPath(item.ID, "movement"),
		body:     input,
		quantity: input.Quantity,
		outbound: input.MovementType == "OUT",
	})
}

type mutation struct {
	path          string
	body          any
	quantity      int
	outbound      bool
	consumedDelta int
	rejectedDelta int
}

func (m *Mutator) mutate(ctx context.Context, item InventoryItem, op mutation) (MutationResult, error) {
	if op.quantity <= 0 {
		return MutationResult{}, ErrInvalidQuantity
	}
	if op.outbound && op.quantity > item.Stock {
		return MutationResult{}, ErrInsufficientStock
	}
	if err := m.acquire(item.ID); err != nil {
		return MutationResult{}, err
	}
	defer m.release(item.ID)

	m.stats.Adjust(op.consumedDelta, op.rejectedDelta)

	var result MutationResult
	resp, err := m.client.do(ctx, "POST", op.path, nil, op.body)
	if err == nil {
		err = decodeJSON(resp, &result)
	}
	if err != nil {
		m.stats.Adjust(-op.consumedDelta, -op.rejectedDelta)
		return MutationResult{}, err
	}

	if result.Stats != nil {
		m.stats.Replace(*result.Stats)
	}
	return result, nil
}

func (m *Mutator) acquire(itemID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, busy := m.inFlight[itemID]; busy {
		return ErrMutationInFlight
	}
	m.inFlight[itemID] = struct{}{}
	return nil
}

func (m *Mutator) release(itemID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.inFlight, itemID)
}

func itemPath(id int64, action string) string {
	return apiPath("inventory", strconv.FormatInt(id, 10), action)
}
