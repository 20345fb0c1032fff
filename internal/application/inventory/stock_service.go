package inventory

import (
	"context"
	"errors"

	"github.com/farmmarket/backend/internal/domain/catalog"
	"github.com/farmmarket/backend/internal/domain/inventory"
	"github.com/farmmarket/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var errStockItemNotFound = shared.NewDomainError("STOCK_ITEM_NOT_FOUND", "Stock item not found")

// StockService manages a farmer's stock levels and exposes the ledger
type StockService struct {
	stockRepo   inventory.StockRepository
	productRepo catalog.ProductRepository
	publisher   shared.EventPublisher
	logger      *zap.Logger
}

// NewStockService creates a new StockService
func NewStockService(
	stockRepo inventory.StockRepository,
	productRepo catalog.ProductRepository,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *StockService {
	return &StockService{
		stockRepo:   stockRepo,
		productRepo: productRepo,
		publisher:   publisher,
		logger:      logger,
	}
}

// Restock adds received goods to a variant
func (s *StockService) Restock(ctx context.Context, farmerID, variantID uuid.UUID, req RestockRequest) (*StockItemResponse, error) {
	return s.mutate(ctx, farmerID, variantID, func(item *inventory.StockItem) (*inventory.StockMovement, error) {
		return item.Restock(req.Quantity, req.Note, &farmerID)
	})
}

// Adjust sets the counted quantity of a variant
func (s *StockService) Adjust(ctx context.Context, farmerID, variantID uuid.UUID, req AdjustStockRequest) (*StockItemResponse, error) {
	return s.mutate(ctx, farmerID, variantID, func(item *inventory.StockItem) (*inventory.StockMovement, error) {
		return item.Adjust(req.Quantity, req.Reason, &farmerID)
	})
}

// SetLowStockThreshold changes the alert level; raising it above the
// current quantity raises the alert straight away
func (s *StockService) SetLowStockThreshold(ctx context.Context, farmerID, variantID uuid.UUID, req SetThresholdRequest) (*StockItemResponse, error) {
	item, err := s.loadOwned(ctx, farmerID, variantID)
	if err != nil {
		return nil, err
	}
	wasLow := item.IsLow()
	if err := item.SetLowStockThreshold(req.Threshold); err != nil {
		return nil, err
	}
	if !wasLow && item.IsLow() {
		item.AddDomainEvent(inventory.NewStockLowEvent(item))
	}
	if err := s.stockRepo.Save(ctx, item); err != nil {
		return nil, err
	}
	s.publish(ctx, item)
	return s.respond(ctx, item)
}

// ListStock returns every stock item of the farmer, optionally only low ones
func (s *StockService) ListStock(ctx context.Context, farmerID uuid.UUID, req ListStockRequest) ([]StockItemResponse, error) {
	items, err := s.stockRepo.FindByFarmer(ctx, farmerID, req.LowStockOnly)
	if err != nil {
		return nil, err
	}

	seen := make(map[uuid.UUID]bool)
	var productIDs []uuid.UUID
	for _, item := range items {
		if !seen[item.ProductID] {
			seen[item.ProductID] = true
			productIDs = append(productIDs, item.ProductID)
		}
	}
	products := make(map[uuid.UUID]*catalog.Product, len(productIDs))
	if len(productIDs) > 0 {
		found, err := s.productRepo.FindByIDs(ctx, productIDs)
		if err != nil {
			return nil, err
		}
		for i := range found {
			products[found[i].ID] = &found[i]
		}
	}

	out := make([]StockItemResponse, len(items))
	for i := range items {
		out[i] = toStockItemResponse(&items[i], products[items[i].ProductID])
	}
	return out, nil
}

// ListMovements pages the farmer's ledger, newest first
func (s *StockService) ListMovements(ctx context.Context, farmerID uuid.UUID, req ListMovementsRequest) (shared.Paginated[MovementResponse], error) {
	paging := shared.Filter{Page: req.Page, PageSize: req.PageSize}.Normalize()
	filter := inventory.MovementFilter{
		StockItemID: req.StockItemID,
		ProductID:   req.ProductID,
		From:        req.From,
		To:          req.To,
		Page:        paging.Page,
		PageSize:    paging.PageSize,
	}
	if req.Type != "" {
		typ := inventory.MovementType(req.Type)
		if !typ.IsValid() {
			return shared.Paginated[MovementResponse]{}, shared.NewDomainError("INVALID_MOVEMENT_TYPE", "Invalid movement type")
		}
		filter.Type = &typ
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return shared.Paginated[MovementResponse]{}, shared.NewDomainError("INVALID_DATE_RANGE", "'to' must not be before 'from'")
	}

	movements, total, err := s.stockRepo.ListMovements(ctx, farmerID, filter)
	if err != nil {
		return shared.Paginated[MovementResponse]{}, err
	}
	out := make([]MovementResponse, len(movements))
	for i := range movements {
		out[i] = ToMovementResponse(&movements[i])
	}
	return shared.NewPaginated(out, total, paging.Page, paging.PageSize), nil
}

func (s *StockService) mutate(
	ctx context.Context,
	farmerID, variantID uuid.UUID,
	fn func(*inventory.StockItem) (*inventory.StockMovement, error),
) (*StockItemResponse, error) {
	item, err := s.loadOwned(ctx, farmerID, variantID)
	if err != nil {
		return nil, err
	}
	movement, err := fn(item)
	if err != nil {
		return nil, err
	}
	// item and ledger row are written together under the version check
	if err := s.stockRepo.Save(ctx, item, movement); err != nil {
		return nil, err
	}
	s.publish(ctx, item)

	s.logger.Info("Stock changed",
		zap.String("stock_item_id", item.ID.String()),
		zap.String("movement_type", string(movement.Type)),
		zap.Int("quantity", movement.Quantity),
		zap.Int("balance_after", movement.BalanceAfter))
	return s.respond(ctx, item)
}

func (s *StockService) loadOwned(ctx context.Context, farmerID, variantID uuid.UUID) (*inventory.StockItem, error) {
	item, err := s.stockRepo.FindByVariant(ctx, variantID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, errStockItemNotFound
		}
		return nil, err
	}
	if item.FarmerID != farmerID {
		return nil, errStockItemNotFound
	}
	return item, nil
}

func (s *StockService) respond(ctx context.Context, item *inventory.StockItem) (*StockItemResponse, error) {
	product, err := s.productRepo.FindByID(ctx, item.ProductID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	resp := toStockItemResponse(item, product)
	return &resp, nil
}

func (s *StockService) publish(ctx context.Context, item *inventory.StockItem) {
	if err := shared.PublishAndClear(ctx, s.publisher, item); err != nil {
		s.logger.Warn("Failed to publish stock events",
			zap.String("stock_item_id", item.ID.String()),
			zap.Error(err))
	}
}
