package cart

import (
	"github.com/farmmarket/backend/internal/domain/shared"
	"github.com/farmmarket/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaxLineQuantity bounds a single cart line
const MaxLineQuantity = 999

// CartItem is one line of a cart with a price snapshot taken when added
type CartItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	CartID      uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_cart_variant,priority:1"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null"`
	VariantID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_cart_variant,priority:2"`
	FarmerID    uuid.UUID       `gorm:"type:uuid;not null"`
	ProductName string          `gorm:"type:varchar(200);not null"`
	VariantName string          `gorm:"type:varchar(100);not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Quantity    int             `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CartItem) TableName() string {
	return "cart_items"
}

// LineTotal returns unit price times quantity
func (i *CartItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart is a buyer's single shopping cart
type Cart struct {
	shared.BaseAggregateRoot
	BuyerID  uuid.UUID            `gorm:"type:uuid;not null;uniqueIndex"`
	Currency valueobject.Currency `gorm:"type:varchar(3);not null"`
	Items    []CartItem           `gorm:"foreignKey:CartID"`
}

// TableName returns the table name for GORM
func (Cart) TableName() string {
	return "carts"
}

// NewCart creates an empty cart for a buyer
func NewCart(buyerID uuid.UUID, currency valueobject.Currency) *Cart {
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}
	return &Cart{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		BuyerID:           buyerID,
		Currency:          currency,
		Items:             make([]CartItem, 0),
	}
}

// LineInput describes the product variant being added
type LineInput struct {
	ProductID   uuid.UUID
	VariantID   uuid.UUID
	FarmerID    uuid.UUID
	ProductName string
	VariantName string
	UnitPrice   decimal.Decimal
	Currency    valueobject.Currency
}

// AddItem adds a variant or merges it into the existing line.
// Quantities below one are treated as one.
func (c *Cart) AddItem(in LineInput, quantity int) (*CartItem, error) {
	if quantity < 1 {
		quantity = 1
	}
	if in.VariantID == uuid.Nil || in.ProductID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ITEM", "Product and variant are required")
	}
	if in.Currency != "" && in.Currency != c.Currency {
		return nil, shared.NewDomainError("CURRENCY_MISMATCH", "Cart only accepts items priced in "+string(c.Currency))
	}
	if !in.UnitPrice.IsPositive() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Item has no valid price")
	}

	for i := range c.Items {
		if c.Items[i].VariantID == in.VariantID {
			if c.Items[i].Quantity+quantity > MaxLineQuantity {
				return nil, shared.NewDomainError("QUANTITY_TOO_LARGE", "Quantity exceeds the per-line maximum")
			}
			c.Items[i].Quantity += quantity
			c.Items[i].UnitPrice = in.UnitPrice
			c.Items[i].ProductName = in.ProductName
			c.Items[i].VariantName = in.VariantName
			c.IncrementVersion()
			return &c.Items[i], nil
		}
	}
	if quantity > MaxLineQuantity {
		return nil, shared.NewDomainError("QUANTITY_TOO_LARGE", "Quantity exceeds the per-line maximum")
	}

	c.Items = append(c.Items, CartItem{
		ID:          uuid.New(),
		CartID:      c.ID,
		ProductID:   in.ProductID,
		VariantID:   in.VariantID,
		FarmerID:    in.FarmerID,
		ProductName: in.ProductName,
		VariantName: in.VariantName,
		UnitPrice:   in.UnitPrice,
		Quantity:    quantity,
	})
	c.IncrementVersion()
	return &c.Items[len(c.Items)-1], nil
}

// UpdateItemQuantity sets a line quantity; zero removes the line
func (c *Cart) UpdateItemQuantity(itemID uuid.UUID, quantity int) error {
	if quantity < 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity cannot be negative")
	}
	if quantity == 0 {
		return c.RemoveItem(itemID)
	}
	if quantity > MaxLineQuantity {
		return shared.NewDomainError("QUANTITY_TOO_LARGE", "Quantity exceeds the per-line maximum")
	}
	item := c.FindItem(itemID)
	if item == nil {
		return shared.NewDomainError("ITEM_NOT_FOUND", "Cart item not found")
	}
	item.Quantity = quantity
	c.IncrementVersion()
	return nil
}

// RemoveItem deletes a line
func (c *Cart) RemoveItem(itemID uuid.UUID) error {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			c.IncrementVersion()
			return nil
		}
	}
	return shared.NewDomainError("ITEM_NOT_FOUND", "Cart item not found")
}

// Clear empties the cart
func (c *Cart) Clear() {
	c.Items = make([]CartItem, 0)
	c.IncrementVersion()
}

// FindItem returns the line with the given ID or nil
func (c *Cart) FindItem(itemID uuid.UUID) *CartItem {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			return &c.Items[i]
		}
	}
	return nil
}

// IsEmpty returns true when the cart has no lines
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// ItemCount returns the total number of units
func (c *Cart) ItemCount() int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

// Subtotal sums all line totals
func (c *Cart) Subtotal() valueobject.Money {
	total := decimal.Zero
	for i := range c.Items {
		total = total.Add(c.Items[i].LineTotal())
	}
	return valueobject.MustMoney(total, c.Currency)
}

// VariantIDs returns the variant of every line
func (c *Cart) VariantIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(c.Items))
	for _, it := range c.Items {
		ids = append(ids, it.VariantID)
	}
	return ids
}

// GroupByFarmer splits lines per farmer, keeping first-seen farmer order
func (c *Cart) GroupByFarmer() ([]uuid.UUID, map[uuid.UUID][]CartItem) {
	order := make([]uuid.UUID, 0)
	groups := make(map[uuid.UUID][]CartItem)
	for _, it := range c.Items {
		if _, ok := groups[it.FarmerID]; !ok {
			order = append(order, it.FarmerID)
		}
		groups[it.FarmerID] = append(groups[it.FarmerID], it)
	}
	return order, groups
}
