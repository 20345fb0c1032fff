package catalog

import (
	"github.com/farmmarket/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AggregateTypeProduct is the aggregate type for product events
const AggregateTypeProduct = "Product"

// Product event types
const (
	EventTypeProductCreated       = "ProductCreated"
	EventTypeProductUpdated       = "ProductUpdated"
	EventTypeProductStatusChanged = "ProductStatusChanged"
	EventTypeProductDeleted       = "ProductDeleted"
	EventTypeProductSold          = "ProductSold"
)

// ProductCreatedEvent is published when a farmer creates a listing
type ProductCreatedEvent struct {
	shared.BaseDomainEvent
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// NewProductCreatedEvent creates a new ProductCreatedEvent
func NewProductCreatedEvent(p *Product) *ProductCreatedEvent {
	return &ProductCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductCreated, AggregateTypeProduct, p.ID, p.FarmerID),
		Name:            p.Name,
		Price:           p.Price,
	}
}

// ProductUpdatedEvent is published when listing data or variants change
type ProductUpdatedEvent struct {
	shared.BaseDomainEvent
	Status ProductStatus `json:"status"`
}

// NewProductUpdatedEvent creates a new ProductUpdatedEvent
func NewProductUpdatedEvent(p *Product) *ProductUpdatedEvent {
	return &ProductUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductUpdated, AggregateTypeProduct, p.ID, p.FarmerID),
		Status:          p.Status,
	}
}

// ProductStatusChangedEvent is published on publish, unpublish, archive and restore
type ProductStatusChangedEvent struct {
	shared.BaseDomainEvent
	OldStatus ProductStatus `json:"old_status"`
	NewStatus ProductStatus `json:"new_status"`
}

// NewProductStatusChangedEvent creates a new ProductStatusChangedEvent
func NewProductStatusChangedEvent(p *Product, old ProductStatus) *ProductStatusChangedEvent {
	return &ProductStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductStatusChanged, AggregateTypeProduct, p.ID, p.FarmerID),
		OldStatus:       old,
		NewStatus:       p.Status,
	}
}

// ProductDeletedEvent is published after a draft product is removed
type ProductDeletedEvent struct {
	shared.BaseDomainEvent
}

// NewProductDeletedEvent creates a new ProductDeletedEvent
func NewProductDeletedEvent(p *Product) *ProductDeletedEvent {
	return &ProductDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductDeleted, AggregateTypeProduct, p.ID, p.FarmerID),
	}
}

// ProductSoldEvent is published when delivered quantities are added to the sold count
type ProductSoldEvent struct {
	shared.BaseDomainEvent
	Quantity  int `json:"quantity"`
	SoldCount int `json:"sold_count"`
}

// NewProductSoldEvent creates a new ProductSoldEvent
func NewProductSoldEvent(p *Product, quantity int) *ProductSoldEvent {
	return &ProductSoldEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductSold, AggregateTypeProduct, p.ID, p.FarmerID),
		Quantity:        quantity,
		SoldCount:       p.SoldCount,
	}
}
