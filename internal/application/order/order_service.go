package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/farmmarket/backend/internal/domain/catalog"
	"github.com/farmmarket/backend/internal/domain/inventory"
	"github.com/farmmarket/backend/internal/domain/order"
	"github.com/farmmarket/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// saleRecordAttempts bounds reloads after a version conflict on the product row
const saleRecordAttempts = 2

var (
	errOrderNotFound       = shared.NewDomainError("ORDER_NOT_FOUND", "Order not found")
	errOrderNotCancellable = shared.NewDomainError("ORDER_NOT_CANCELLABLE", "Only pending orders can be cancelled by the buyer")
)

// OrderService handles order queries and lifecycle transitions
type OrderService struct {
	orderRepo   order.OrderRepository
	stockRepo   inventory.StockRepository
	productRepo catalog.ProductRepository
	txManager   shared.TxManager
	publisher   shared.EventPublisher
	logger      *zap.Logger
}

// NewOrderService creates a new OrderService
func NewOrderService(
	orderRepo order.OrderRepository,
	stockRepo inventory.StockRepository,
	productRepo catalog.ProductRepository,
	txManager shared.TxManager,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		stockRepo:   stockRepo,
		productRepo: productRepo,
		txManager:   txManager,
		publisher:   publisher,
		logger:      logger,
	}
}

// ListForBuyer returns the buyer's orders, newest first
func (s *OrderService) ListForBuyer(ctx context.Context, buyerID uuid.UUID, req ListOrdersRequest) (shared.Paginated[OrderResponse], error) {
	return s.list(ctx, order.FilterBuyerID, buyerID, req)
}

// ListForFarmer returns orders placed with the farmer
func (s *OrderService) ListForFarmer(ctx context.Context, farmerID uuid.UUID, req ListOrdersRequest) (shared.Paginated[OrderResponse], error) {
	return s.list(ctx, order.FilterFarmerID, farmerID, req)
}

// ListAll returns every order for admins
func (s *OrderService) ListAll(ctx context.Context, req ListOrdersRequest) (shared.Paginated[OrderResponse], error) {
	return s.list(ctx, "", uuid.Nil, req)
}

func (s *OrderService) list(ctx context.Context, ownerKey string, ownerID uuid.UUID, req ListOrdersRequest) (shared.Paginated[OrderResponse], error) {
	filter := shared.Filter{Page: req.Page, PageSize: req.PageSize, OrderBy: "created_at", OrderDir: "desc"}.Normalize()
	if ownerKey != "" {
		filter = filter.With(ownerKey, ownerID)
	}
	if req.Status != "" {
		filter = filter.With(order.FilterStatus, order.Status(req.Status))
	}
	orders, total, err := s.orderRepo.FindAll(ctx, filter)
	if err != nil {
		return shared.Paginated[OrderResponse]{}, err
	}
	items := make([]OrderResponse, len(orders))
	for i := range orders {
		items[i] = ToOrderResponse(&orders[i])
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// GetForBuyer returns one of the buyer's orders
func (s *OrderService) GetForBuyer(ctx context.Context, buyerID, orderID uuid.UUID) (*OrderResponse, error) {
	o, err := s.loadForBuyer(ctx, buyerID, orderID)
	if err != nil {
		return nil, err
	}
	resp := ToOrderResponse(o)
	return &resp, nil
}

// GetForFarmer returns one of the farmer's orders
func (s *OrderService) GetForFarmer(ctx context.Context, farmerID, orderID uuid.UUID) (*OrderResponse, error) {
	o, err := s.loadForFarmer(ctx, farmerID, orderID)
	if err != nil {
		return nil, err
	}
	resp := ToOrderResponse(o)
	return &resp, nil
}

// CancelByBuyer cancels a pending order and returns its stock
func (s *OrderService) CancelByBuyer(ctx context.Context, buyerID, orderID uuid.UUID, req CancelOrderRequest) (*OrderResponse, error) {
	o, err := s.loadForBuyer(ctx, buyerID, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status != order.StatusPending {
		return nil, errOrderNotCancellable
	}
	return s.cancel(ctx, o, buyerID, req.Reason)
}

// CancelByFarmer cancels a pending or confirmed order and returns its stock
func (s *OrderService) CancelByFarmer(ctx context.Context, farmerID, orderID uuid.UUID, req CancelOrderRequest) (*OrderResponse, error) {
	o, err := s.loadForFarmer(ctx, farmerID, orderID)
	if err != nil {
		return nil, err
	}
	return s.cancel(ctx, o, farmerID, req.Reason)
}

// Confirm accepts a pending order
func (s *OrderService) Confirm(ctx context.Context, farmerID, orderID uuid.UUID) (*OrderResponse, error) {
	return s.advance(ctx, farmerID, orderID, (*order.Order).Confirm)
}

// Ship marks a confirmed order as shipped
func (s *OrderService) Ship(ctx context.Context, farmerID, orderID uuid.UUID) (*OrderResponse, error) {
	return s.advance(ctx, farmerID, orderID, (*order.Order).Ship)
}

// Deliver completes a shipped order and records the sale on each product
func (s *OrderService) Deliver(ctx context.Context, farmerID, orderID uuid.UUID) (*OrderResponse, error) {
	resp, err := s.advance(ctx, farmerID, orderID, (*order.Order).Deliver)
	if err != nil {
		return nil, err
	}
	s.recordSales(ctx, resp)
	return resp, nil
}

// MarkPaid records a bank transfer as received
func (s *OrderService) MarkPaid(ctx context.Context, farmerID, orderID uuid.UUID) (*OrderResponse, error) {
	return s.advance(ctx, farmerID, orderID, (*order.Order).MarkPaid)
}

func (s *OrderService) advance(ctx context.Context, farmerID, orderID uuid.UUID, step func(*order.Order) error) (*OrderResponse, error) {
	o, err := s.loadForFarmer(ctx, farmerID, orderID)
	if err != nil {
		return nil, err
	}
	if err := step(o); err != nil {
		return nil, err
	}
	if err := s.orderRepo.Save(ctx, o); err != nil {
		return nil, fmt.Errorf("failed to save order: %w", err)
	}
	if err := shared.PublishAndClear(ctx, s.publisher, o); err != nil {
		s.logger.Warn("Failed to publish order events", zap.String("order_id", o.ID.String()), zap.Error(err))
	}

	s.logger.Info("Order updated",
		zap.String("order_number", o.OrderNumber),
		zap.String("status", string(o.Status)),
		zap.String("payment_status", string(o.PaymentStatus)))
	resp := ToOrderResponse(o)
	return &resp, nil
}

func (s *OrderService) cancel(ctx context.Context, o *order.Order, actorID uuid.UUID, reason string) (*OrderResponse, error) {
	var returned []*inventory.StockItem
	err := s.txManager.WithinTx(ctx, func(txCtx context.Context) error {
		if err := o.Cancel(actorID, reason); err != nil {
			return err
		}
		if err := s.orderRepo.Save(txCtx, o); err != nil {
			return fmt.Errorf("failed to save order: %w", err)
		}

		variantIDs := make([]uuid.UUID, 0, len(o.Items))
		for _, it := range o.Items {
			variantIDs = append(variantIDs, it.VariantID)
		}
		locked, err := s.stockRepo.FindByVariantsForUpdate(txCtx, variantIDs)
		if err != nil {
			return fmt.Errorf("failed to lock stock: %w", err)
		}
		stock := make(map[uuid.UUID]*inventory.StockItem, len(locked))
		for i := range locked {
			stock[locked[i].VariantID] = &locked[i]
		}

		for _, it := range o.Items {
			item := stock[it.VariantID]
			if item == nil {
				// the variant was removed after the order was placed
				s.logger.Warn("Stock item missing on cancel",
					zap.String("order_number", o.OrderNumber),
					zap.String("variant_id", it.VariantID.String()))
				continue
			}
			movement, err := item.Return(it.Quantity, inventory.MovementTypeCancellation, o.OrderNumber)
			if err != nil {
				return err
			}
			if err := s.stockRepo.Save(txCtx, item, movement); err != nil {
				return fmt.Errorf("failed to return stock: %w", err)
			}
			returned = append(returned, item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := shared.PublishAndClear(ctx, s.publisher, o); err != nil {
		s.logger.Warn("Failed to publish order events", zap.String("order_id", o.ID.String()), zap.Error(err))
	}
	for _, item := range returned {
		if err := shared.PublishAndClear(ctx, s.publisher, item); err != nil {
			s.logger.Warn("Failed to publish stock events", zap.String("stock_item_id", item.ID.String()), zap.Error(err))
		}
	}

	s.logger.Info("Order cancelled",
		zap.String("order_number", o.OrderNumber),
		zap.String("actor_id", actorID.String()),
		zap.Int("lines_returned", len(returned)))
	resp := ToOrderResponse(o)
	return &resp, nil
}

// recordSales bumps the sold counters; failures only cost popularity data
func (s *OrderService) recordSales(ctx context.Context, o *OrderResponse) {
	sold := make(map[uuid.UUID]int, len(o.Items))
	for _, it := range o.Items {
		sold[it.ProductID] += it.Quantity
	}
	for productID, qty := range sold {
		if err := s.recordSale(ctx, productID, qty); err != nil {
			s.logger.Warn("Failed to record sale", zap.String("product_id", productID.String()), zap.Error(err))
		}
	}
}

// recordSale reloads and retries when a concurrent edit of the product wins the version check
func (s *OrderService) recordSale(ctx context.Context, productID uuid.UUID, qty int) error {
	var err error
	for attempt := 0; attempt < saleRecordAttempts; attempt++ {
		var p *catalog.Product
		p, err = s.productRepo.FindByID(ctx, productID)
		if err != nil {
			return err
		}
		p.RecordSale(qty)
		if err = s.productRepo.Save(ctx, p); err == nil {
			if pubErr := shared.PublishAndClear(ctx, s.publisher, p); pubErr != nil {
				s.logger.Warn("Failed to publish product events", zap.String("product_id", productID.String()), zap.Error(pubErr))
			}
			return nil
		}
		if !errors.Is(err, shared.ErrConcurrencyConflict) {
			return err
		}
	}
	return err
}

func (s *OrderService) loadForBuyer(ctx context.Context, buyerID, orderID uuid.UUID) (*order.Order, error) {
	o, err := s.find(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.IsOwnedByBuyer(buyerID) {
		return nil, errOrderNotFound
	}
	return o, nil
}

func (s *OrderService) loadForFarmer(ctx context.Context, farmerID, orderID uuid.UUID) (*order.Order, error) {
	o, err := s.find(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.IsOwnedByFarmer(farmerID) {
		return nil, errOrderNotFound
	}
	return o, nil
}

func (s *OrderService) find(ctx context.Context, orderID uuid.UUID) (*order.Order, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, errOrderNotFound
		}
		return nil, err
	}
	return o, nil
}
