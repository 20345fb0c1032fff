package moderation

import (
	"context"
	"fmt"

	"github.com/farmmarket/backend/internal/domain/catalog"
	"github.com/farmmarket/backend/internal/domain/inventory"
	"github.com/farmmarket/backend/internal/domain/moderation"
	"github.com/farmmarket/backend/internal/domain/order"
	"github.com/farmmarket/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Related types stored on notifications
const (
	RelatedOrder   = "order"
	RelatedProduct = "product"
	RelatedDispute = "dispute"
)

// Notifier stores notifications
type Notifier interface {
	Notify(ctx context.Context, recipientID uuid.UUID, subject, body, relatedType string, relatedID uuid.UUID) error
}

// ProductFinder loads products by ID
type ProductFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error)
}

// NotificationHandler turns marketplace events into inbox notifications
type NotificationHandler struct {
	notifier Notifier
	products ProductFinder
	logger   *zap.Logger
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notifier Notifier, products ProductFinder, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{notifier: notifier, products: products, logger: logger}
}

// EventTypes implements shared.EventHandler
func (h *NotificationHandler) EventTypes() []string {
	return []string{
		order.EventTypeOrderPlaced,
		order.EventTypeOrderStatusChanged,
		inventory.EventTypeStockLow,
		moderation.EventTypeDisputeOpened,
		moderation.EventTypeDisputeClosed,
	}
}

// Handle implements shared.EventHandler
func (h *NotificationHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *order.OrderPlacedEvent:
		return h.notifier.Notify(ctx, e.FarmerID,
			fmt.Sprintf("New order %s", e.OrderNumber),
			fmt.Sprintf("You received order %s with %d item(s), total %s %s.", e.OrderNumber, e.ItemCount, e.Total.StringFixed(2), e.Currency),
			RelatedOrder, e.AggregateID())
	case *order.OrderStatusChangedEvent:
		return h.notifier.Notify(ctx, e.BuyerID,
			fmt.Sprintf("Order %s is %s", e.OrderNumber, e.NewStatus),
			fmt.Sprintf("Your order %s moved from %s to %s.", e.OrderNumber, e.OldStatus, e.NewStatus),
			RelatedOrder, e.AggregateID())
	case *inventory.StockLowEvent:
		return h.notifier.Notify(ctx, e.ActorID(),
			fmt.Sprintf("Low stock: %s", h.productName(ctx, e.ProductID)),
			fmt.Sprintf("Only %d left, at or below your threshold of %d.", e.Quantity, e.Threshold),
			RelatedProduct, e.ProductID)
	case *moderation.DisputeOpenedEvent:
		return h.notifier.Notify(ctx, e.FarmerID,
			fmt.Sprintf("Dispute opened on order %s", e.OrderNumber),
			fmt.Sprintf("A buyer opened a dispute on order %s (reason: %s). An admin will review it.", e.OrderNumber, e.Reason),
			RelatedDispute, e.AggregateID())
	case *moderation.DisputeClosedEvent:
		subject := fmt.Sprintf("Dispute on order %s %s", e.OrderNumber, e.Status)
		body := fmt.Sprintf("Resolution: %s", e.Resolution)
		if err := h.notifier.Notify(ctx, e.ActorID(), subject, body, RelatedDispute, e.AggregateID()); err != nil {
			return err
		}
		return h.notifier.Notify(ctx, e.FarmerID, subject, body, RelatedDispute, e.AggregateID())
	default:
		h.logger.Debug("Ignoring event", zap.String("event_type", event.EventType()))
		return nil
	}
}

func (h *NotificationHandler) productName(ctx context.Context, productID uuid.UUID) string {
	p, err := h.products.FindByID(ctx, productID)
	if err != nil {
		h.logger.Warn("Product lookup failed for notification",
			zap.String("product_id", productID.String()),
			zap.Error(err))
		return "a product"
	}
	return p.Name
}

var _ shared.EventHandler = (*NotificationHandler)(nil)
