package functions

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/farmmarket/backend/internal/domain/catalog"
	"github.com/farmmarket/backend/internal/domain/content"
	"github.com/farmmarket/backend/internal/domain/inventory"
	"github.com/farmmarket/backend/internal/domain/moderation"
	"github.com/farmmarket/backend/internal/domain/order"
	"github.com/farmmarket/backend/internal/domain/shared"
	"github.com/farmmarket/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const exportPageSize = 100

// DataExport is the document produced by the data export function
type DataExport struct {
	GeneratedAt time.Time         `json:"generated_at"`
	Profile     ExportProfile     `json:"profile"`
	Orders      []ExportOrder     `json:"orders"`
	Messages    []ExportMessage   `json:"messages"`
	Disputes    []ExportDispute   `json:"disputes"`
	Products    []ExportProduct   `json:"products,omitempty"`
	Posts       []ExportPost      `json:"posts,omitempty"`
	Events      []ExportFarmEvent `json:"events,omitempty"`
}

// ExportProfile is the account section of a data export
type ExportProfile struct {
	ID          uuid.UUID           `json:"id"`
	Email       string              `json:"email"`
	Role        string              `json:"role"`
	DisplayName string              `json:"display_name"`
	Phone       string              `json:"phone,omitempty"`
	Address     valueobject.Address `json:"address"`
	FarmName    string              `json:"farm_name,omitempty"`
	FarmBio     string              `json:"farm_bio,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
}

// ExportOrder is an order placed or received by the user
type ExportOrder struct {
	OrderNumber   string            `json:"order_number"`
	Role          string            `json:"role"`
	Status        string            `json:"status"`
	Items         []ExportOrderItem `json:"items"`
	Subtotal      decimal.Decimal   `json:"subtotal"`
	ShippingFee   decimal.Decimal   `json:"shipping_fee"`
	Total         decimal.Decimal   `json:"total"`
	Currency      string            `json:"currency"`
	PaymentMethod string            `json:"payment_method"`
	PaymentStatus string            `json:"payment_status"`
	PlacedAt      time.Time         `json:"placed_at"`
}

// ExportOrderItem is one order line
type ExportOrderItem struct {
	Product   string          `json:"product"`
	Variant   string          `json:"variant"`
	SKU       string          `json:"sku"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

// ExportMessage is a message sent or received by the user
type ExportMessage struct {
	Direction string    `json:"direction"`
	Kind      string    `json:"kind"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// ExportDispute is a dispute the user opened or was named in
type ExportDispute struct {
	OrderNumber string    `json:"order_number"`
	Reason      string    `json:"reason"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Resolution  string    `json:"resolution,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ExportProduct is a farmer's listing
type ExportProduct struct {
	Name     string          `json:"name"`
	Slug     string          `json:"slug"`
	Status   string          `json:"status"`
	Unit     string          `json:"unit"`
	Price    decimal.Decimal `json:"price"`
	Currency string          `json:"currency"`
	Variants []string        `json:"variants"`
	Sold     int             `json:"sold"`
}

// ExportPost is a farmer's blog post
type ExportPost struct {
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Status      string     `json:"status"`
	Body        string     `json:"body"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

// ExportFarmEvent is a farmer's event
type ExportFarmEvent struct {
	Title    string    `json:"title"`
	Location string    `json:"location,omitempty"`
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
	Status   string    `json:"status"`
}

// collect pages through a filtered repository listing until every row is read
func collect[T any](ctx context.Context, base shared.Filter, fetch func(context.Context, shared.Filter) ([]T, int64, error)) ([]T, error) {
	out := make([]T, 0)
	filter := base
	filter.PageSize = exportPageSize
	for filter.Page = 1; ; filter.Page++ {
		rows, total, err := fetch(ctx, filter)
		if err != nil {
			return nil, err
		}
		out = append(out, rows...)
		if len(rows) == 0 || int64(len(out)) >= total {
			return out, nil
		}
	}
}

func scoped(key string, value any) shared.Filter {
	return shared.Filter{OrderBy: "created_at", OrderDir: "asc"}.With(key, value)
}

func (s *FunctionService) buildDataExport(ctx context.Context, userID uuid.UUID) ([]byte, error) {
	user, err := s.deps.Users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	doc := DataExport{
		GeneratedAt: s.now().UTC(),
		Profile: ExportProfile{
			ID:          user.ID,
			Email:       user.Email,
			Role:        string(user.Role),
			DisplayName: user.DisplayName,
			Phone:       user.Phone,
			Address:     user.Address,
			FarmName:    user.FarmName,
			FarmBio:     user.FarmBio,
			CreatedAt:   user.CreatedAt,
		},
	}

	orderKey, orderRole := order.FilterBuyerID, "buyer"
	disputeKey := moderation.FilterBuyerID
	if user.IsFarmer() {
		orderKey, orderRole = order.FilterFarmerID, "farmer"
		disputeKey = moderation.FilterFarmerID
	}

	orders, err := collect(ctx, scoped(orderKey, userID), s.deps.Orders.FindAll)
	if err != nil {
		return nil, fmt.Errorf("failed to export orders: %w", err)
	}
	doc.Orders = make([]ExportOrder, len(orders))
	for i := range orders {
		doc.Orders[i] = exportOrder(&orders[i], orderRole)
	}

	messages, err := collect(ctx, scoped(moderation.FilterParticipant, userID), s.deps.Messages.FindAll)
	if err != nil {
		return nil, fmt.Errorf("failed to export messages: %w", err)
	}
	doc.Messages = make([]ExportMessage, len(messages))
	for i := range messages {
		m := &messages[i]
		direction := "received"
		if m.SenderID != nil && *m.SenderID == userID {
			direction = "sent"
		}
		doc.Messages[i] = ExportMessage{
			Direction: direction,
			Kind:      string(m.Kind),
			Subject:   m.Subject,
			Body:      m.Body,
			Status:    string(m.Status),
			CreatedAt: m.CreatedAt,
		}
	}

	disputes, err := collect(ctx, scoped(disputeKey, userID), s.deps.Disputes.FindAll)
	if err != nil {
		return nil, fmt.Errorf("failed to export disputes: %w", err)
	}
	doc.Disputes = make([]ExportDispute, len(disputes))
	for i := range disputes {
		d := &disputes[i]
		doc.Disputes[i] = ExportDispute{
			OrderNumber: d.OrderNumber,
			Reason:      string(d.Reason),
			Description: d.Description,
			Status:      string(d.Status),
			Resolution:  d.Resolution,
			CreatedAt:   d.CreatedAt,
		}
	}

	if user.IsFarmer() {
		if err := s.exportFarm(ctx, userID, &doc); err != nil {
			return nil, err
		}
	}
	return json.MarshalIndent(doc, "", "  ")
}

func (s *FunctionService) exportFarm(ctx context.Context, farmerID uuid.UUID, doc *DataExport) error {
	products, err := collect(ctx, shared.Filter{}, func(ctx context.Context, f shared.Filter) ([]catalog.Product, int64, error) {
		return s.deps.Products.FindByFarmer(ctx, farmerID, f)
	})
	if err != nil {
		return fmt.Errorf("failed to export products: %w", err)
	}
	doc.Products = make([]ExportProduct, len(products))
	for i := range products {
		p := &products[i]
		variants := make([]string, len(p.Variants))
		for j, v := range p.Variants {
			variants[j] = fmt.Sprintf("%s (%s) %s", v.Name, v.SKU, v.Price.StringFixed(2))
		}
		doc.Products[i] = ExportProduct{
			Name:     p.Name,
			Slug:     p.Slug,
			Status:   string(p.Status),
			Unit:     p.Unit,
			Price:    p.Price,
			Currency: p.Currency,
			Variants: variants,
			Sold:     p.SoldCount,
		}
	}

	posts, err := collect(ctx, scoped(content.FilterFarmerID, farmerID), s.deps.Posts.FindAll)
	if err != nil {
		return fmt.Errorf("failed to export posts: %w", err)
	}
	doc.Posts = make([]ExportPost, len(posts))
	for i := range posts {
		p := &posts[i]
		doc.Posts[i] = ExportPost{Title: p.Title, Slug: p.Slug, Status: string(p.Status), Body: p.Body, PublishedAt: p.PublishedAt}
	}

	events, err := collect(ctx, scoped(content.FilterFarmerID, farmerID), s.deps.Events.FindAll)
	if err != nil {
		return fmt.Errorf("failed to export events: %w", err)
	}
	doc.Events = make([]ExportFarmEvent, len(events))
	for i := range events {
		e := &events[i]
		doc.Events[i] = ExportFarmEvent{Title: e.Title, Location: e.Location, StartsAt: e.StartsAt, EndsAt: e.EndsAt, Status: string(e.Status)}
	}
	return nil
}

func exportOrder(o *order.Order, role string) ExportOrder {
	items := make([]ExportOrderItem, len(o.Items))
	for i, it := range o.Items {
		items[i] = ExportOrderItem{
			Product:   it.ProductName,
			Variant:   it.VariantName,
			SKU:       it.SKU,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
		}
	}
	return ExportOrder{
		OrderNumber:   o.OrderNumber,
		Role:          role,
		Status:        string(o.Status),
		Items:         items,
		Subtotal:      o.Subtotal,
		ShippingFee:   o.ShippingFee,
		Total:         o.Total,
		Currency:      string(o.Currency),
		PaymentMethod: string(o.PaymentMethod),
		PaymentStatus: string(o.PaymentStatus),
		PlacedAt:      o.CreatedAt,
	}
}

var inventoryHeader = []string{
	"record", "stock_item_id", "product_id", "variant_id", "quantity", "low_stock_threshold",
	"movement_type", "balance_before", "balance_after", "reference_type", "reference_id", "note", "created_at",
}

// buildInventoryExport writes stock rows followed by ledger rows in one CSV document
func (s *FunctionService) buildInventoryExport(ctx context.Context, farmerID uuid.UUID) ([]byte, error) {
	items, err := s.deps.Stock.FindByFarmer(ctx, farmerID, false)
	if err != nil {
		return nil, fmt.Errorf("failed to load stock: %w", err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(inventoryHeader); err != nil {
		return nil, err
	}
	for i := range items {
		it := &items[i]
		if err := w.Write([]string{
			"stock", it.ID.String(), it.ProductID.String(), it.VariantID.String(),
			strconv.Itoa(it.Quantity), strconv.Itoa(it.LowStockThreshold),
			"", "", "", "", "", "", it.UpdatedAt.UTC().Format(time.RFC3339),
		}); err != nil {
			return nil, err
		}
	}

	for page := 1; ; page++ {
		movements, total, err := s.deps.Stock.ListMovements(ctx, farmerID, inventory.MovementFilter{Page: page, PageSize: exportPageSize})
		if err != nil {
			return nil, fmt.Errorf("failed to load movements: %w", err)
		}
		for i := range movements {
			m := &movements[i]
			if err := w.Write([]string{
				"movement", m.StockItemID.String(), m.ProductID.String(), m.VariantID.String(),
				strconv.Itoa(m.Quantity), "",
				string(m.Type), strconv.Itoa(m.BalanceBefore), strconv.Itoa(m.BalanceAfter),
				string(m.ReferenceType), m.ReferenceID, m.Note, m.CreatedAt.UTC().Format(time.RFC3339),
			}); err != nil {
				return nil, err
			}
		}
		if len(movements) == 0 || int64(page*exportPageSize) >= total {
			break
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
