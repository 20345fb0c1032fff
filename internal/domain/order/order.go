package order

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/farmmarket/backend/internal/domain/shared"
	"github.com/farmmarket/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status represents the lifecycle state of an order
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// IsValid checks if the status is known
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal returns true for delivered and cancelled
func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanTransitionTo checks if the status can transition to the target status
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusPending:
		return target == StatusConfirmed || target == StatusCancelled
	case StatusConfirmed:
		return target == StatusShipped || target == StatusCancelled
	case StatusShipped:
		return target == StatusDelivered
	}
	return false
}

// AllStatuses lists statuses in lifecycle order
func AllStatuses() []Status {
	return []Status{StatusPending, StatusConfirmed, StatusShipped, StatusDelivered, StatusCancelled}
}

// DeliveryMethod is how goods reach the buyer
type DeliveryMethod string

const (
	DeliveryMethodDelivery DeliveryMethod = "delivery"
	DeliveryMethodPickup   DeliveryMethod = "pickup"
)

// IsValid checks if the delivery method is known
func (m DeliveryMethod) IsValid() bool {
	return m == DeliveryMethodDelivery || m == DeliveryMethodPickup
}

// PaymentMethod is how the buyer settles the order offline
type PaymentMethod string

const (
	PaymentMethodCashOnDelivery PaymentMethod = "cash_on_delivery"
	PaymentMethodBankTransfer   PaymentMethod = "bank_transfer"
)

// IsValid checks if the payment method is known
func (m PaymentMethod) IsValid() bool {
	return m == PaymentMethodCashOnDelivery || m == PaymentMethodBankTransfer
}

// PaymentStatus tracks whether the order has been paid
type PaymentStatus string

const (
	PaymentStatusUnpaid PaymentStatus = "unpaid"
	PaymentStatusPaid   PaymentStatus = "paid"
)

// Item is an order line. Prices are snapshots taken at checkout.
type Item struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	VariantID   uuid.UUID       `gorm:"type:uuid;not null"`
	ProductName string          `gorm:"type:varchar(200);not null"`
	VariantName string          `gorm:"type:varchar(100);not null"`
	SKU         string          `gorm:"type:varchar(40)"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Quantity    int             `gorm:"not null"`
	LineTotal   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}

// TableName returns the table name for GORM
func (Item) TableName() string {
	return "order_items"
}

// Order is a buyer's purchase from a single farmer
type Order struct {
	shared.BaseAggregateRoot
	OrderNumber     string               `gorm:"type:varchar(32);not null;uniqueIndex"`
	BuyerID         uuid.UUID            `gorm:"type:uuid;not null;index"`
	FarmerID        uuid.UUID            `gorm:"type:uuid;not null;index"`
	Items           []Item               `gorm:"foreignKey:OrderID"`
	Subtotal        decimal.Decimal      `gorm:"type:decimal(12,2);not null"`
	ShippingFee     decimal.Decimal      `gorm:"type:decimal(12,2);not null"`
	Total           decimal.Decimal      `gorm:"type:decimal(12,2);not null"`
	Currency        valueobject.Currency `gorm:"type:varchar(3);not null"`
	Status          Status               `gorm:"type:varchar(20);not null;index"`
	DeliveryMethod  DeliveryMethod       `gorm:"type:varchar(20);not null"`
	ShippingAddress valueobject.Address  `gorm:"type:text"`
	PaymentMethod   PaymentMethod        `gorm:"type:varchar(30);not null"`
	PaymentStatus   PaymentStatus        `gorm:"type:varchar(20);not null"`
	Notes           string               `gorm:"type:varchar(500)"`
	CancelReason    string               `gorm:"type:varchar(255)"`
	CancelledBy     *uuid.UUID           `gorm:"type:uuid"`
	ConfirmedAt     *time.Time
	ShippedAt       *time.Time
	DeliveredAt     *time.Time
	CancelledAt     *time.Time
	PaidAt          *time.Time
}

// TableName returns the table name for GORM
func (Order) TableName() string {
	return "orders"
}

// Placement carries the checkout choices shared by every order of a checkout
type Placement struct {
	BuyerID         uuid.UUID
	FarmerID        uuid.UUID
	Currency        valueobject.Currency
	DeliveryMethod  DeliveryMethod
	ShippingAddress valueobject.Address
	PaymentMethod   PaymentMethod
	Notes           string
}

// NewOrder creates a pending order
func NewOrder(p Placement, shippingFee decimal.Decimal) (*Order, error) {
	if p.BuyerID == uuid.Nil || p.FarmerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ORDER", "Buyer and farmer are required")
	}
	if !p.DeliveryMethod.IsValid() {
		return nil, shared.NewDomainError("INVALID_DELIVERY_METHOD", "Delivery method must be delivery or pickup")
	}
	if !p.PaymentMethod.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", "Payment method must be cash_on_delivery or bank_transfer")
	}
	if p.DeliveryMethod == DeliveryMethodDelivery {
		if err := p.ShippingAddress.Validate(); err != nil {
			return nil, err
		}
	}
	if shippingFee.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Shipping fee cannot be negative")
	}
	if len(p.Notes) > 500 {
		return nil, shared.NewDomainError("INVALID_NOTES", "Notes cannot exceed 500 characters")
	}
	number, err := GenerateOrderNumber(time.Now())
	if err != nil {
		return nil, err
	}
	currency := p.Currency
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}

	o := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderNumber:       number,
		BuyerID:           p.BuyerID,
		FarmerID:          p.FarmerID,
		Items:             make([]Item, 0),
		Subtotal:          decimal.Zero,
		ShippingFee:       shippingFee,
		Total:             shippingFee,
		Currency:          currency,
		Status:            StatusPending,
		DeliveryMethod:    p.DeliveryMethod,
		ShippingAddress:   p.ShippingAddress.Normalize(),
		PaymentMethod:     p.PaymentMethod,
		PaymentStatus:     PaymentStatusUnpaid,
		Notes:             strings.TrimSpace(p.Notes),
	}
	return o, nil
}

// AddItem appends a priced line
func (o *Order) AddItem(productID, variantID uuid.UUID, productName, variantName, sku string, unitPrice decimal.Decimal, quantity int) error {
	if o.Status != StatusPending {
		return shared.NewDomainError("INVALID_STATE", "Items can only be added to pending orders")
	}
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	o.Items = append(o.Items, Item{
		ID:          uuid.New(),
		OrderID:     o.ID,
		ProductID:   productID,
		VariantID:   variantID,
		ProductName: productName,
		VariantName: variantName,
		SKU:         sku,
		UnitPrice:   unitPrice,
		Quantity:    quantity,
		LineTotal:   unitPrice.Mul(decimal.NewFromInt(int64(quantity))),
	})
	o.recalculateTotals()
	return nil
}

// Place finalizes a freshly built order and records OrderPlaced
func (o *Order) Place() error {
	if len(o.Items) == 0 {
		return shared.NewDomainError("NO_ITEMS", "Order has no items")
	}
	o.AddDomainEvent(NewOrderPlacedEvent(o))
	return nil
}

// Confirm accepts a pending order
func (o *Order) Confirm() error {
	if err := o.transition(StatusConfirmed, "confirm"); err != nil {
		return err
	}
	now := time.Now()
	o.ConfirmedAt = &now
	o.emitStatusChanged(StatusPending)
	return nil
}

// Ship marks a confirmed order as shipped
func (o *Order) Ship() error {
	if err := o.transition(StatusShipped, "ship"); err != nil {
		return err
	}
	now := time.Now()
	o.ShippedAt = &now
	o.emitStatusChanged(StatusConfirmed)
	return nil
}

// Deliver completes the order; cash on delivery is settled on handover
func (o *Order) Deliver() error {
	if err := o.transition(StatusDelivered, "deliver"); err != nil {
		return err
	}
	now := time.Now()
	o.DeliveredAt = &now
	if o.PaymentMethod == PaymentMethodCashOnDelivery {
		o.PaymentStatus = PaymentStatusPaid
		o.PaidAt = &now
	}
	o.emitStatusChanged(StatusShipped)
	return nil
}

// Cancel cancels a pending or confirmed order
func (o *Order) Cancel(actorID uuid.UUID, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Cancel reason is required")
	}
	if len(reason) > 255 {
		return shared.NewDomainError("INVALID_REASON", "Cancel reason cannot exceed 255 characters")
	}
	old := o.Status
	if err := o.transition(StatusCancelled, "cancel"); err != nil {
		return err
	}
	now := time.Now()
	o.CancelledAt = &now
	o.CancelReason = reason
	o.CancelledBy = &actorID
	o.AddDomainEvent(NewOrderCancelledEvent(o, old))
	return nil
}

// MarkPaid records a bank transfer as received
func (o *Order) MarkPaid() error {
	if o.PaymentStatus == PaymentStatusPaid {
		return shared.NewDomainError("ALREADY_PAID", "Order is already paid")
	}
	if o.Status == StatusCancelled {
		return shared.NewDomainError("INVALID_STATE", "Cannot mark a cancelled order as paid")
	}
	now := time.Now()
	o.PaymentStatus = PaymentStatusPaid
	o.PaidAt = &now
	o.IncrementVersion()
	return nil
}

// IsOwnedByBuyer checks buyer ownership
func (o *Order) IsOwnedByBuyer(buyerID uuid.UUID) bool {
	return o.BuyerID == buyerID
}

// IsOwnedByFarmer checks farmer ownership
func (o *Order) IsOwnedByFarmer(farmerID uuid.UUID) bool {
	return o.FarmerID == farmerID
}

// CanBeDisputed returns true once goods are on their way
func (o *Order) CanBeDisputed() bool {
	return o.Status == StatusShipped || o.Status == StatusDelivered
}

// TotalMoney returns the order total as Money
func (o *Order) TotalMoney() valueobject.Money {
	return valueobject.MustMoney(o.Total, o.Currency)
}

// ItemCount returns the total number of units
func (o *Order) ItemCount() int {
	n := 0
	for _, it := range o.Items {
		n += it.Quantity
	}
	return n
}

func (o *Order) transition(target Status, verb string) error {
	if !o.Status.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot %s order in %s status", verb, o.Status))
	}
	o.Status = target
	o.IncrementVersion()
	return nil
}

func (o *Order) emitStatusChanged(old Status) {
	o.AddDomainEvent(NewOrderStatusChangedEvent(o, old))
}

func (o *Order) recalculateTotals() {
	sub := decimal.Zero
	for _, it := range o.Items {
		sub = sub.Add(it.LineTotal)
	}
	o.Subtotal = sub
	o.Total = sub.Add(o.ShippingFee)
}

const orderNumberAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateOrderNumber returns ORD-YYYYMMDD-XXXXXX with a random suffix
func GenerateOrderNumber(now time.Time) (string, error) {
	var b strings.Builder
	b.WriteString("ORD-")
	b.WriteString(now.UTC().Format("20060102"))
	b.WriteByte('-')
	limit := big.NewInt(int64(len(orderNumberAlphabet)))
	for i := 0; i < 6; i++ {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("generate order number: %w", err)
		}
		b.WriteByte(orderNumberAlphabet[n.Int64()])
	}
	return b.String(), nil
}
