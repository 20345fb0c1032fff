package order

import (
	"time"

	"github.com/farmmarket/backend/internal/domain/order"
	"github.com/farmmarket/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ShippingRequest is checkout step one
type ShippingRequest struct {
	Address valueobject.Address `json:"address"`
}

// ShippingResponse echoes the normalized address
type ShippingResponse struct {
	Address valueobject.Address `json:"address"`
}

// QuoteRequest is checkout step two
type QuoteRequest struct {
	DeliveryMethod string `json:"delivery_method" binding:"required,oneof=delivery pickup"`
}

// QuoteGroup is the part of the cart that becomes one farmer's order
type QuoteGroup struct {
	FarmerID    uuid.UUID       `json:"farmer_id"`
	ItemCount   int             `json:"item_count"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	ShippingFee decimal.Decimal `json:"shipping_fee"`
	Total       decimal.Decimal `json:"total"`
}

// QuoteResponse prices the cart per farmer
type QuoteResponse struct {
	DeliveryMethod string          `json:"delivery_method"`
	Groups         []QuoteGroup    `json:"groups"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	ShippingTotal  decimal.Decimal `json:"shipping_total"`
	Total          decimal.Decimal `json:"total"`
	Currency       string          `json:"currency"`
}

// PlaceOrderRequest is checkout step three
type PlaceOrderRequest struct {
	ShippingAddress valueobject.Address `json:"shipping_address"`
	DeliveryMethod  string              `json:"delivery_method" binding:"required,oneof=delivery pickup"`
	PaymentMethod   string              `json:"payment_method" binding:"required,oneof=cash_on_delivery bank_transfer"`
	Notes           string              `json:"notes" binding:"max=500"`
}

// PlaceOrderResponse lists the orders a checkout produced
type PlaceOrderResponse struct {
	Orders   []OrderResponse `json:"orders"`
	Total    decimal.Decimal `json:"total"`
	Currency string          `json:"currency"`
}

// ListOrdersRequest filters an order list
type ListOrdersRequest struct {
	Status   string `form:"status" binding:"omitempty,oneof=pending confirmed shipped delivered cancelled"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// CancelOrderRequest carries the cancel reason
type CancelOrderRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=255"`
}

// OrderItemResponse represents an order line
type OrderItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	VariantID   uuid.UUID       `json:"variant_id"`
	ProductName string          `json:"product_name"`
	VariantName string          `json:"variant_name"`
	SKU         string          `json:"sku"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// OrderResponse represents an order in API responses
type OrderResponse struct {
	ID              uuid.UUID           `json:"id"`
	OrderNumber     string              `json:"order_number"`
	BuyerID         uuid.UUID           `json:"buyer_id"`
	FarmerID        uuid.UUID           `json:"farmer_id"`
	Items           []OrderItemResponse `json:"items"`
	Subtotal        decimal.Decimal     `json:"subtotal"`
	ShippingFee     decimal.Decimal     `json:"shipping_fee"`
	Total           decimal.Decimal     `json:"total"`
	Currency        string              `json:"currency"`
	Status          string              `json:"status"`
	DeliveryMethod  string              `json:"delivery_method"`
	ShippingAddress valueobject.Address `json:"shipping_address"`
	PaymentMethod   string              `json:"payment_method"`
	PaymentStatus   string              `json:"payment_status"`
	Notes           string              `json:"notes,omitempty"`
	CancelReason    string              `json:"cancel_reason,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	ConfirmedAt     *time.Time          `json:"confirmed_at,omitempty"`
	ShippedAt       *time.Time          `json:"shipped_at,omitempty"`
	DeliveredAt     *time.Time          `json:"delivered_at,omitempty"`
	CancelledAt     *time.Time          `json:"cancelled_at,omitempty"`
	PaidAt          *time.Time          `json:"paid_at,omitempty"`
	Version         int                 `json:"version"`
}

// ToOrderResponse converts an order aggregate
func ToOrderResponse(o *order.Order) OrderResponse {
	items := make([]OrderItemResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = OrderItemResponse{
			ID:          it.ID,
			ProductID:   it.ProductID,
			VariantID:   it.VariantID,
			ProductName: it.ProductName,
			VariantName: it.VariantName,
			SKU:         it.SKU,
			UnitPrice:   it.UnitPrice,
			Quantity:    it.Quantity,
			LineTotal:   it.LineTotal,
		}
	}
	return OrderResponse{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		BuyerID:         o.BuyerID,
		FarmerID:        o.FarmerID,
		Items:           items,
		Subtotal:        o.Subtotal,
		ShippingFee:     o.ShippingFee,
		Total:           o.Total,
		Currency:        string(o.Currency),
		Status:          string(o.Status),
		DeliveryMethod:  string(o.DeliveryMethod),
		ShippingAddress: o.ShippingAddress,
		PaymentMethod:   string(o.PaymentMethod),
		PaymentStatus:   string(o.PaymentStatus),
		Notes:           o.Notes,
		CancelReason:    o.CancelReason,
		CreatedAt:       o.CreatedAt,
		ConfirmedAt:     o.ConfirmedAt,
		ShippedAt:       o.ShippedAt,
		DeliveredAt:     o.DeliveredAt,
		CancelledAt:     o.CancelledAt,
		PaidAt:          o.PaidAt,
		Version:         o.Version,
	}
}
