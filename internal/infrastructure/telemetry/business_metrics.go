package telemetry

import (
	"context"
	"errors"
	"fmt"

	"github.com/farmmarket/backend/internal/domain/inventory"
	"github.com/farmmarket/backend/internal/domain/order"
	"github.com/farmmarket/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Attribute keys shared by the business instruments
var (
	AttrCurrency     = attribute.Key("currency")
	AttrOrderStatus  = attribute.Key("order_status")
	AttrJobKind      = attribute.Key("job_kind")
	AttrJobStatus    = attribute.Key("job_status")
	AttrMovementType = attribute.Key("movement_type")
)

// ErrMeterNil is returned when no meter is supplied
var ErrMeterNil = errors.New("business metrics: meter cannot be nil")

// BusinessMetrics records marketplace counters. It subscribes to the event
// bus, so order and stock instruments need no calls from the services.
type BusinessMetrics struct {
	ordersPlaced    metric.Int64Counter
	orderRevenue    metric.Int64Counter
	ordersCancelled metric.Int64Counter
	stockMovements  metric.Int64Counter
	lowStock        metric.Int64Counter
	jobs            metric.Int64Counter
}

// NewBusinessMetrics creates the instruments on meter
func NewBusinessMetrics(meter metric.Meter) (*BusinessMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	bm := &BusinessMetrics{}
	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
		unit string
	}{
		{&bm.ordersPlaced, "market_orders_placed_total", "Orders placed at checkout", "{orders}"},
		{&bm.orderRevenue, "market_order_revenue_cents_total", "Gross order value in minor currency units", "{cents}"},
		{&bm.ordersCancelled, "market_orders_cancelled_total", "Orders cancelled by buyers or farmers", "{orders}"},
		{&bm.stockMovements, "market_stock_movements_total", "Stock ledger rows written", "{movements}"},
		{&bm.lowStock, "market_low_stock_alerts_total", "Stock items that crossed their low-stock threshold", "{alerts}"},
		{&bm.jobs, "market_jobs_completed_total", "Backend function jobs finished", "{jobs}"},
	}
	for _, c := range counters {
		ctr, err := meter.Int64Counter(c.name, metric.WithDescription(c.desc), metric.WithUnit(c.unit))
		if err != nil {
			return nil, fmt.Errorf("create counter %s: %w", c.name, err)
		}
		*c.dst = ctr
	}
	return bm, nil
}

// RecordOrderPlaced counts an order and its value
func (bm *BusinessMetrics) RecordOrderPlaced(ctx context.Context, currency string, total decimal.Decimal) {
	attrs := metric.WithAttributes(AttrCurrency.String(currency))
	bm.ordersPlaced.Add(ctx, 1, attrs)
	bm.orderRevenue.Add(ctx, total.Shift(2).Round(0).IntPart(), attrs)
}

// RecordJob counts a finished job
func (bm *BusinessMetrics) RecordJob(ctx context.Context, kind, status string) {
	bm.jobs.Add(ctx, 1, metric.WithAttributes(AttrJobKind.String(kind), AttrJobStatus.String(status)))
}

// EventTypes implements shared.EventHandler
func (bm *BusinessMetrics) EventTypes() []string {
	return []string{
		order.EventTypeOrderPlaced,
		order.EventTypeOrderCancelled,
		inventory.EventTypeStockChanged,
		inventory.EventTypeStockLow,
	}
}

// Handle implements shared.EventHandler
func (bm *BusinessMetrics) Handle(ctx context.Context, ev shared.DomainEvent) error {
	switch e := ev.(type) {
	case *order.OrderPlacedEvent:
		bm.RecordOrderPlaced(ctx, e.Currency, e.Total)
	case *order.OrderCancelledEvent:
		bm.ordersCancelled.Add(ctx, 1, metric.WithAttributes(AttrOrderStatus.String(string(e.OldStatus))))
	case *inventory.StockChangedEvent:
		bm.stockMovements.Add(ctx, 1, metric.WithAttributes(AttrMovementType.String(string(e.MovementType))))
	case *inventory.StockLowEvent:
		bm.lowStock.Add(ctx, 1)
	}
	return nil
}

var _ shared.EventHandler = (*BusinessMetrics)(nil)
