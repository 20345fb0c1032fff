package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/farmmarket/backend/internal/domain/cart"
	"github.com/farmmarket/backend/internal/domain/catalog"
	"github.com/farmmarket/backend/internal/domain/inventory"
	"github.com/farmmarket/backend/internal/domain/order"
	"github.com/farmmarket/backend/internal/domain/shared"
	"github.com/farmmarket/backend/internal/domain/shared/valueobject"
	"github.com/farmmarket/backend/internal/infrastructure/cache"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	errCartEmpty         = shared.NewDomainError("CART_EMPTY", "Your cart is empty")
	errPickupUnavailable = shared.NewDomainError("PICKUP_UNAVAILABLE", "Pickup is not offered")
	errRequestInProgress = shared.NewDomainError("REQUEST_IN_PROGRESS", "A checkout with this idempotency key is still running")
)

// IdempotencyStore remembers checkout results per key
type IdempotencyStore interface {
	Claim(ctx context.Context, key string, ttl time.Duration) ([]byte, bool, error)
	Complete(ctx context.Context, key string, result []byte, ttl time.Duration) error
	Release(ctx context.Context, key string) error
}

// CheckoutConfig holds pricing rules applied at checkout
type CheckoutConfig struct {
	Currency              valueobject.Currency
	ShippingFee           decimal.Decimal
	FreeShippingThreshold decimal.Decimal
	PickupEnabled         bool
	IdempotencyTTL        time.Duration
}

// ShippingFeeFor returns the fee for one farmer's order
func (c CheckoutConfig) ShippingFeeFor(method order.DeliveryMethod, subtotal decimal.Decimal) decimal.Decimal {
	if method == order.DeliveryMethodPickup {
		return decimal.Zero
	}
	if c.FreeShippingThreshold.IsPositive() && subtotal.GreaterThanOrEqual(c.FreeShippingThreshold) {
		return decimal.Zero
	}
	return c.ShippingFee
}

// CheckoutService turns a cart into orders
type CheckoutService struct {
	cartRepo    cart.CartRepository
	productRepo catalog.ProductRepository
	stockRepo   inventory.StockRepository
	orderRepo   order.OrderRepository
	txManager   shared.TxManager
	idempotency IdempotencyStore
	publisher   shared.EventPublisher
	config      CheckoutConfig
	logger      *zap.Logger
}

// NewCheckoutService creates a new CheckoutService; idempotency may be nil
func NewCheckoutService(
	cartRepo cart.CartRepository,
	productRepo catalog.ProductRepository,
	stockRepo inventory.StockRepository,
	orderRepo order.OrderRepository,
	txManager shared.TxManager,
	idempotency IdempotencyStore,
	publisher shared.EventPublisher,
	config CheckoutConfig,
	logger *zap.Logger,
) *CheckoutService {
	if config.IdempotencyTTL <= 0 {
		config.IdempotencyTTL = 24 * time.Hour
	}
	return &CheckoutService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		stockRepo:   stockRepo,
		orderRepo:   orderRepo,
		txManager:   txManager,
		idempotency: idempotency,
		publisher:   publisher,
		config:      config,
		logger:      logger,
	}
}

// ValidateShipping checks and normalizes a shipping address
func (s *CheckoutService) ValidateShipping(_ context.Context, req ShippingRequest) (*ShippingResponse, error) {
	addr := req.Address.Normalize()
	if err := addr.Validate(); err != nil {
		return nil, err
	}
	return &ShippingResponse{Address: addr}, nil
}

// Quote prices the cart as the orders it would produce
func (s *CheckoutService) Quote(ctx context.Context, buyerID uuid.UUID, req QuoteRequest) (*QuoteResponse, error) {
	method, err := s.deliveryMethod(req.DeliveryMethod)
	if err != nil {
		return nil, err
	}
	c, err := s.loadCart(ctx, buyerID)
	if err != nil {
		return nil, err
	}

	farmers, groups := c.GroupByFarmer()
	resp := &QuoteResponse{
		DeliveryMethod: string(method),
		Groups:         make([]QuoteGroup, 0, len(farmers)),
		Subtotal:       decimal.Zero,
		ShippingTotal:  decimal.Zero,
		Total:          decimal.Zero,
		Currency:       string(c.Currency),
	}
	for _, farmerID := range farmers {
		subtotal := decimal.Zero
		count := 0
		for i := range groups[farmerID] {
			line := groups[farmerID][i]
			subtotal = subtotal.Add(line.LineTotal())
			count += line.Quantity
		}
		fee := s.config.ShippingFeeFor(method, subtotal)
		resp.Groups = append(resp.Groups, QuoteGroup{
			FarmerID:    farmerID,
			ItemCount:   count,
			Subtotal:    subtotal,
			ShippingFee: fee,
			Total:       subtotal.Add(fee),
		})
		resp.Subtotal = resp.Subtotal.Add(subtotal)
		resp.ShippingTotal = resp.ShippingTotal.Add(fee)
	}
	resp.Total = resp.Subtotal.Add(resp.ShippingTotal)
	return resp, nil
}

// PlaceOrder checks stock, splits the cart into one order per farmer,
// deducts stock and clears the cart in a single transaction. A repeated
// idempotency key returns the first result.
func (s *CheckoutService) PlaceOrder(ctx context.Context, buyerID uuid.UUID, req PlaceOrderRequest, idempotencyKey string) (*PlaceOrderResponse, error) {
	if idempotencyKey == "" || s.idempotency == nil {
		return s.placeOrder(ctx, buyerID, req)
	}

	key := "checkout:" + buyerID.String() + ":" + idempotencyKey
	prior, claimed, err := s.idempotency.Claim(ctx, key, s.config.IdempotencyTTL)
	if err != nil {
		if errors.Is(err, cache.ErrRequestInProgress) {
			return nil, errRequestInProgress
		}
		return nil, err
	}
	if !claimed {
		var resp PlaceOrderResponse
		if err := json.Unmarshal(prior, &resp); err != nil {
			return nil, fmt.Errorf("failed to decode stored checkout result: %w", err)
		}
		s.logger.Info("Checkout replayed", zap.String("idempotency_key", idempotencyKey))
		return &resp, nil
	}

	resp, err := s.placeOrder(ctx, buyerID, req)
	if err != nil {
		if relErr := s.idempotency.Release(ctx, key); relErr != nil {
			s.logger.Warn("Failed to release idempotency key", zap.Error(relErr))
		}
		return nil, err
	}
	payload, err := json.Marshal(resp)
	if err == nil {
		err = s.idempotency.Complete(ctx, key, payload, s.config.IdempotencyTTL)
	}
	if err != nil {
		s.logger.Warn("Failed to store checkout result", zap.Error(err))
	}
	return resp, nil
}

func (s *CheckoutService) placeOrder(ctx context.Context, buyerID uuid.UUID, req PlaceOrderRequest) (*PlaceOrderResponse, error) {
	method, err := s.deliveryMethod(req.DeliveryMethod)
	if err != nil {
		return nil, err
	}
	payment := order.PaymentMethod(req.PaymentMethod)
	if !payment.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", "Payment method must be cash_on_delivery or bank_transfer")
	}
	address := req.ShippingAddress.Normalize()
	if method == order.DeliveryMethodDelivery {
		if err := address.Validate(); err != nil {
			return nil, err
		}
	}

	c, err := s.loadCart(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	variants, err := s.purchasableVariants(ctx, c)
	if err != nil {
		return nil, err
	}

	var (
		orders     []*order.Order
		stockItems []*inventory.StockItem
	)
	err = s.txManager.WithinTx(ctx, func(txCtx context.Context) error {
		locked, err := s.stockRepo.FindByVariantsForUpdate(txCtx, c.VariantIDs())
		if err != nil {
			return fmt.Errorf("failed to lock stock: %w", err)
		}
		stock := make(map[uuid.UUID]*inventory.StockItem, len(locked))
		for i := range locked {
			stock[locked[i].VariantID] = &locked[i]
		}

		// every line is checked before anything is written
		for _, line := range c.Items {
			have := 0
			if item := stock[line.VariantID]; item != nil {
				have = item.Quantity
			}
			if have < line.Quantity {
				return shared.NewDomainError(shared.ErrInsufficientStock.Code,
					fmt.Sprintf("insufficient stock for %s (need %d, have %d)", lineName(line), line.Quantity, have))
			}
		}

		farmers, groups := c.GroupByFarmer()
		for _, farmerID := range farmers {
			o, err := s.buildOrder(buyerID, farmerID, groups[farmerID], variants, method, payment, address, req.Notes, c.Currency)
			if err != nil {
				return err
			}
			for _, line := range groups[farmerID] {
				item := stock[line.VariantID]
				movement, err := item.Deduct(line.Quantity, o.OrderNumber)
				if err != nil {
					return err
				}
				if err := s.stockRepo.Save(txCtx, item, movement); err != nil {
					return fmt.Errorf("failed to deduct stock: %w", err)
				}
				stockItems = append(stockItems, item)
			}
			if err := s.orderRepo.Create(txCtx, o); err != nil {
				return fmt.Errorf("failed to create order: %w", err)
			}
			orders = append(orders, o)
		}

		c.Clear()
		return s.cartRepo.Save(txCtx, c)
	})
	if err != nil {
		return nil, err
	}

	resp := &PlaceOrderResponse{
		Orders:   make([]OrderResponse, 0, len(orders)),
		Total:    decimal.Zero,
		Currency: string(c.Currency),
	}
	for _, o := range orders {
		if err := shared.PublishAndClear(ctx, s.publisher, o); err != nil {
			s.logger.Warn("Failed to publish order events", zap.String("order_id", o.ID.String()), zap.Error(err))
		}
		resp.Orders = append(resp.Orders, ToOrderResponse(o))
		resp.Total = resp.Total.Add(o.Total)
	}
	for _, item := range stockItems {
		if err := shared.PublishAndClear(ctx, s.publisher, item); err != nil {
			s.logger.Warn("Failed to publish stock events", zap.String("stock_item_id", item.ID.String()), zap.Error(err))
		}
	}

	s.logger.Info("Checkout completed",
		zap.String("buyer_id", buyerID.String()),
		zap.Int("orders", len(orders)),
		zap.String("total", resp.Total.StringFixed(2)))
	return resp, nil
}

func (s *CheckoutService) buildOrder(
	buyerID, farmerID uuid.UUID,
	lines []cart.CartItem,
	variants map[uuid.UUID]*catalog.ProductVariant,
	method order.DeliveryMethod,
	payment order.PaymentMethod,
	address valueobject.Address,
	notes string,
	currency valueobject.Currency,
) (*order.Order, error) {
	subtotal := decimal.Zero
	for i := range lines {
		subtotal = subtotal.Add(lines[i].LineTotal())
	}
	if method == order.DeliveryMethodPickup {
		address = valueobject.Address{}
	}
	o, err := order.NewOrder(order.Placement{
		BuyerID:         buyerID,
		FarmerID:        farmerID,
		Currency:        currency,
		DeliveryMethod:  method,
		ShippingAddress: address,
		PaymentMethod:   payment,
		Notes:           notes,
	}, s.config.ShippingFeeFor(method, subtotal))
	if err != nil {
		return nil, err
	}
	for _, line := range lines {
		sku := ""
		if v := variants[line.VariantID]; v != nil {
			sku = v.SKU
		}
		if err := o.AddItem(line.ProductID, line.VariantID, line.ProductName, line.VariantName, sku, line.UnitPrice, line.Quantity); err != nil {
			return nil, err
		}
	}
	if err := o.Place(); err != nil {
		return nil, err
	}
	return o, nil
}

// purchasableVariants rejects lines whose product was unpublished since it was added
func (s *CheckoutService) purchasableVariants(ctx context.Context, c *cart.Cart) (map[uuid.UUID]*catalog.ProductVariant, error) {
	ids := make([]uuid.UUID, 0, len(c.Items))
	for _, line := range c.Items {
		ids = append(ids, line.ProductID)
	}
	products, err := s.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*catalog.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	variants := make(map[uuid.UUID]*catalog.ProductVariant, len(c.Items))
	for _, line := range c.Items {
		p := byID[line.ProductID]
		if p == nil || !p.IsPurchasable(line.VariantID) {
			return nil, shared.NewDomainError("PRODUCT_UNAVAILABLE",
				fmt.Sprintf("%s is no longer available; remove it from your cart", lineName(line)))
		}
		variants[line.VariantID] = p.FindVariant(line.VariantID)
	}
	return variants, nil
}

func (s *CheckoutService) loadCart(ctx context.Context, buyerID uuid.UUID) (*cart.Cart, error) {
	c, err := s.cartRepo.FindByBuyer(ctx, buyerID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, errCartEmpty
		}
		return nil, err
	}
	if c.IsEmpty() {
		return nil, errCartEmpty
	}
	return c, nil
}

func (s *CheckoutService) deliveryMethod(value string) (order.DeliveryMethod, error) {
	method := order.DeliveryMethod(value)
	if !method.IsValid() {
		return "", shared.NewDomainError("INVALID_DELIVERY_METHOD", "Delivery method must be delivery or pickup")
	}
	if method == order.DeliveryMethodPickup && !s.config.PickupEnabled {
		return "", errPickupUnavailable
	}
	return method, nil
}

func lineName(line cart.CartItem) string {
	if line.VariantName == "" {
		return line.ProductName
	}
	return line.ProductName + " (" + line.VariantName + ")"
}
