package inventory

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ListItems(ctx context.Context, filter ListFilter) ([]Item, int, error)
	GetItem(ctx context.Context, id int64) (Item, error)
	CreateItem(ctx context.Context, input ItemInput) (Item, error)
	UpdateItem(ctx context.Context, id int64, input ItemInput) (Item, error)
	DeleteItem(ctx context.Context, id int64) error
	Stats(ctx context.Context) (Stats, error)
	ListMovements(ctx context.Context, itemID int64, limit int) ([]Movement, error)
}

// Service coordinates inventory operations.
type Service struct {
	repo   RepositoryPort
	logger *slog.Logger
}

// NewService builds Service.
func NewService(repo RepositoryPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// ListItems returns a filtered page of items with the total count.
func (s *Service) ListItems(ctx context.Context, filter ListFilter) ([]Item, int, error) {
	return s.repo.ListItems(ctx, filter)
}

// GetItem fetches a single item.
func (s *Service) GetItem(ctx context.Context, id int64) (Item, error) {
	return s.repo.GetItem(ctx, id)
}

// CreateItem registers a new supply item.
func (s *Service) CreateItem(ctx context.Context, input ItemInput) (Item, error) {
	return s.repo.CreateItem(ctx, input)
}

// UpdateItem updates an item definition.
func (s *Service) UpdateItem(ctx context.Context, id int64, input ItemInput) (Item, error) {
	return s.repo.UpdateItem(ctx, id, input)
}

// DeleteItem removes an item.
func (s *Service) DeleteItem(ctx context.Context, id int64) error {
	return s.repo.DeleteItem(ctx, id)
}

// Stats aggregates dashboard counters.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	return s.repo.Stats(ctx)
}

// ListMovements returns recent ledger entries for an item.
func (s *Service) ListMovements(ctx context.Context, itemID int64, limit int) ([]Movement, error) {
	return s.repo.ListMovements(ctx, itemID, limit)
}

// PostMovement records a directional IN/OUT movement against an item.
func (s *Service) PostMovement(ctx context.Context, itemID int64, input MovementInput) (MovementResult, error) {
	if input.Type != MovementIn && input.Type != MovementOut {
		return MovementResult{}, ErrInvalidMovementType
	}
	if input.Quantity <= 0 {
		return MovementResult{}, ErrInvalidQuantity
	}
	return s.post(ctx, itemID, movementParams{
		Type:       input.Type,
		Quantity:   input.Quantity,
		Remarks:    input.Remarks,
		HandledBy:  input.HandledBy,
		ExpiryDate: input.ExpiryDate,
	})
}

// Consume records an OUT movement and bumps the consumed counter.
func (s *Service) Consume(ctx context.Context, itemID int64, input ConsumeInput) (MovementResult, error) {
	if input.Quantity <= 0 {
		return MovementResult{}, ErrInvalidQuantity
	}
	return s.post(ctx, itemID, movementParams{
		Type:      MovementOut,
		Quantity:  input.Quantity,
		Remarks:   input.Notes,
		HandledBy: input.HandledBy,
		Consume:   true,
	})
}

// Reject records an OUT movement and bumps the rejected counter.
func (s *Service) Reject(ctx context.Context, itemID int64, input ConsumeInput) (MovementResult, error) {
	if input.Quantity <= 0 {
		return MovementResult{}, ErrInvalidQuantity
	}
	return s.post(ctx, itemID, movementParams{
		Type:      MovementOut,
		Quantity:  input.Quantity,
		Remarks:   input.Notes,
		HandledBy: input.HandledBy,
		Reject:    true,
	})
}

type movementParams struct {
	Type       MovementType
	Quantity   int
	Remarks    string
	HandledBy  string
	ExpiryDate *time.Time
	Consume    bool
	Reject     bool
}

func (s *Service) post(ctx context.Context, itemID int64, params movementParams) (MovementResult, error) {
	var result MovementResult

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		item, err := tx.GetItemForUpdate(ctx, itemID)
		if err != nil {
			return err
		}

		switch params.Type {
		case MovementIn:
			item.Stock += params.Quantity
			if params.ExpiryDate != nil {
				item.ExpiryDate = params.ExpiryDate
			}
		case MovementOut:
			if item.Stock < params.Quantity {
				return ErrInsufficientStock
			}
			item.Stock -= params.Quantity
		}
		if params.Consume {
			item.Consumed += params.Quantity
		}
		if params.Reject {
			item.Rejected += params.Quantity
		}

		now := time.Now().UTC()
		movement := Movement{
			ItemID:      item.ID,
			Code:        fmt.Sprintf("MOV-%s", uuid.NewString()[:8]),
			Type:        params.Type,
			Quantity:    params.Quantity,
			Remarks:     params.Remarks,
			HandledBy:   params.HandledBy,
			IsRejection: params.Reject,
			ExpiryDate:  params.ExpiryDate,
			CreatedAt:   now,
		}
		id, err := tx.InsertMovement(ctx, movement)
		if err != nil {
			return err
		}
		movement.ID = id

		if err := tx.UpdateItemCounters(ctx, item); err != nil {
			return err
		}

		item.UpdatedAt = now
		result.Item = item
		result.Movement = movement
		return nil
	})
	if err != nil {
		return MovementResult{}, err
	}

	stats, err := s.repo.Stats(ctx)
	if err != nil {
		// The movement is committed; stats are advisory for reconciliation.
		s.logger.Warn("refresh stats after movement", slog.Any("error", err))
	} else {
		result.Stats = stats
	}

	s.logger.Info("posted movement",
		slog.Int64("item_id", itemID),
		slog.String("type", string(result.Movement.Type)),
		slog.Int("quantity", result.Movement.Quantity),
		slog.Bool("rejection", result.Movement.IsRejection))
	return result, nil
}
