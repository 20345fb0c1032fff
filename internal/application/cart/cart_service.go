package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/farmmarket/backend/internal/domain/cart"
	"github.com/farmmarket/backend/internal/domain/catalog"
	"github.com/farmmarket/backend/internal/domain/inventory"
	"github.com/farmmarket/backend/internal/domain/shared"
	"github.com/farmmarket/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var errProductUnavailable = shared.NewDomainError("PRODUCT_UNAVAILABLE", "This product is not available for purchase")

// CartService manages a buyer's cart
type CartService struct {
	cartRepo    cart.CartRepository
	productRepo catalog.ProductRepository
	stockRepo   inventory.StockRepository
	currency    valueobject.Currency
	logger      *zap.Logger
}

// NewCartService creates a new CartService
func NewCartService(
	cartRepo cart.CartRepository,
	productRepo catalog.ProductRepository,
	stockRepo inventory.StockRepository,
	currency valueobject.Currency,
	logger *zap.Logger,
) *CartService {
	return &CartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		stockRepo:   stockRepo,
		currency:    currency,
		logger:      logger,
	}
}

// GetCart returns the buyer's cart, creating an empty one on first use
func (s *CartService) GetCart(ctx context.Context, buyerID uuid.UUID) (*CartResponse, error) {
	c, err := s.load(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	return s.respond(ctx, c)
}

// AddItem adds a variant at its current price, merging with an existing line
func (s *CartService) AddItem(ctx context.Context, buyerID uuid.UUID, req AddItemRequest) (*CartResponse, error) {
	product, err := s.productRepo.FindByVariantID(ctx, req.VariantID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, errProductUnavailable
		}
		return nil, err
	}
	if !product.IsPurchasable(req.VariantID) {
		return nil, errProductUnavailable
	}
	variant := product.FindVariant(req.VariantID)

	c, err := s.load(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	item, err := c.AddItem(cart.LineInput{
		ProductID:   product.ID,
		VariantID:   variant.ID,
		FarmerID:    product.FarmerID,
		ProductName: product.Name,
		VariantName: variant.Name,
		UnitPrice:   variant.Price,
		Currency:    valueobject.Currency(product.Currency),
	}, req.Quantity)
	if err != nil {
		return nil, err
	}
	if err := s.cartRepo.Save(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to save cart: %w", err)
	}

	s.logger.Debug("Cart item added",
		zap.String("buyer_id", buyerID.String()),
		zap.String("variant_id", variant.ID.String()),
		zap.Int("quantity", item.Quantity))
	return s.respond(ctx, c)
}

// UpdateItemQuantity changes a line quantity; zero removes it
func (s *CartService) UpdateItemQuantity(ctx context.Context, buyerID, itemID uuid.UUID, req UpdateItemRequest) (*CartResponse, error) {
	c, err := s.load(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	if err := c.UpdateItemQuantity(itemID, req.Quantity); err != nil {
		return nil, err
	}
	if err := s.cartRepo.Save(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to save cart: %w", err)
	}
	return s.respond(ctx, c)
}

// RemoveItem deletes a line from the cart
func (s *CartService) RemoveItem(ctx context.Context, buyerID, itemID uuid.UUID) (*CartResponse, error) {
	c, err := s.load(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	if err := c.RemoveItem(itemID); err != nil {
		return nil, err
	}
	if err := s.cartRepo.Save(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to save cart: %w", err)
	}
	return s.respond(ctx, c)
}

// Clear empties the cart
func (s *CartService) Clear(ctx context.Context, buyerID uuid.UUID) error {
	c, err := s.load(ctx, buyerID)
	if err != nil {
		return err
	}
	if c.IsEmpty() {
		return nil
	}
	c.Clear()
	return s.cartRepo.Save(ctx, c)
}

func (s *CartService) load(ctx context.Context, buyerID uuid.UUID) (*cart.Cart, error) {
	c, err := s.cartRepo.FindByBuyer(ctx, buyerID)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	c = cart.NewCart(buyerID, s.currency)
	if err := s.cartRepo.Save(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create cart: %w", err)
	}
	return c, nil
}

// respond annotates each line with what can currently be bought
func (s *CartService) respond(ctx context.Context, c *cart.Cart) (*CartResponse, error) {
	resp := &CartResponse{
		ID:        c.ID,
		Items:     make([]CartItemResponse, 0, len(c.Items)),
		ItemCount: c.ItemCount(),
		Subtotal:  c.Subtotal().Amount(),
		Currency:  string(c.Currency),
		UpdatedAt: c.UpdatedAt,
	}
	if c.IsEmpty() {
		return resp, nil
	}

	levels := make(map[uuid.UUID]int)
	items, err := s.stockRepo.FindByVariants(ctx, c.VariantIDs())
	if err != nil {
		return nil, fmt.Errorf("failed to load stock: %w", err)
	}
	for _, item := range items {
		levels[item.VariantID] = item.Quantity
	}

	productIDs := make([]uuid.UUID, 0, len(c.Items))
	for _, it := range c.Items {
		productIDs = append(productIDs, it.ProductID)
	}
	products, err := s.productRepo.FindByIDs(ctx, productIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*catalog.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	for i := range c.Items {
		it := &c.Items[i]
		purchasable := false
		if p := byID[it.ProductID]; p != nil {
			purchasable = p.IsPurchasable(it.VariantID)
		}
		available := levels[it.VariantID]
		resp.Items = append(resp.Items, CartItemResponse{
			ID:          it.ID,
			ProductID:   it.ProductID,
			VariantID:   it.VariantID,
			FarmerID:    it.FarmerID,
			ProductName: it.ProductName,
			VariantName: it.VariantName,
			UnitPrice:   it.UnitPrice,
			Quantity:    it.Quantity,
			LineTotal:   it.LineTotal(),
			Available:   available,
			InStock:     purchasable && available >= it.Quantity,
		})
	}
	return resp, nil
}
