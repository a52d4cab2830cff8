package inventory

import (
	"errors"
	"time"
)

// MovementType enumerates supported stock movements.
type MovementType string

const (
	// MovementIn represents an inbound movement (restock, delivery).
	MovementIn MovementType = "IN"
	// MovementOut represents an outbound movement (consumption, rejection).
	MovementOut MovementType = "OUT"
)

// StockStatus is the server-derived availability state of an item.
type StockStatus string

const (
	// StatusInStock means stock is above the low-stock threshold.
	StatusInStock StockStatus = "InStock"
	// StatusLowStock means stock is at or below the threshold but not empty.
	StatusLowStock StockStatus = "LowStock"
	// StatusOutOfStock means no stock remains.
	StatusOutOfStock StockStatus = "OutOfStock"
)

// Item is a supply item managed by the inventory module.
type Item struct {
	ID                int64
	Name              string
	Code              string
	Category          string
	Unit              string
	Stock             int
	Consumed          int
	Rejected          int
	LowStockThreshold int
	ExpiryDate        *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Status derives the availability state from stock and threshold.
// The server is authoritative; clients must not recompute this.
func (i Item) Status() StockStatus {
	switch {
	case i.Stock <= 0:
		return StatusOutOfStock
	case i.Stock <= i.LowStockThreshold:
		return StatusLowStock
	default:
		return StatusInStock
	}
}

// Movement is one ledger entry against an item.
type Movement struct {
	ID          int64
	ItemID      int64
	Code        string
	Type        MovementType
	Quantity    int
	Remarks     string
	HandledBy   string
	IsRejection bool
	ExpiryDate  *time.Time
	CreatedAt   time.Time
}

// ItemInput describes a create or update request for an item.
type ItemInput struct {
	Name              string `validate:"required"`
	Code              string `validate:"required"`
	Category          string `validate:"required"`
	Unit              string `validate:"required"`
	Stock             int    `validate:"gte=0"`
	LowStockThreshold int    `validate:"gte=0"`
	ExpiryDate        *time.Time
}

// MovementInput describes a directional stock movement request.
type MovementInput struct {
	Type       MovementType `validate:"required,oneof=IN OUT"`
	Quantity   int          `validate:"required,gt=0"`
	Remarks    string
	HandledBy  string
	ExpiryDate *time.Time
}

// ConsumeInput describes a consume or reject request.
type ConsumeInput struct {
	Quantity  int `validate:"required,gt=0"`
	Notes     string
	HandledBy string
}

// ListFilter narrows item listings.
type ListFilter struct {
	Search   string
	Category string
	Status   StockStatus
	Limit    int
	Offset   int
}

// Stats aggregates inventory counters for the dashboard.
type Stats struct {
	TotalItems    int `json:"total_items"`
	InStock       int `json:"in_stock"`
	LowStock      int `json:"low_stock"`
	OutOfStock    int `json:"out_of_stock"`
	TotalConsumed int `json:"total_consumed"`
	TotalRejected int `json:"total_rejected"`
}

// MovementResult is returned after a posted movement: the updated item plus
// refreshed aggregate stats so callers can reconcile optimistic state.
type MovementResult struct {
	Item     Item
	Movement Movement
	Stats    Stats
}

// ErrInvalidQuantity indicates a zero or negative quantity.
var ErrInvalidQuantity = errors.New("inventory: quantity must be positive")

// ErrInsufficientStock triggered when an OUT movement would drive stock negative.
var ErrInsufficientStock = errors.New("inventory: insufficient stock")

// ErrDuplicateCode indicates an item code collision.
var ErrDuplicateCode = errors.New("inventory: item code already exists")

// ErrInvalidMovementType indicates an unsupported movement type.
var ErrInvalidMovementType = errors.New("inventory: movement type must be IN or OUT")
