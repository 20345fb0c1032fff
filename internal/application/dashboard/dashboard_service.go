package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/farmmarket/backend/internal/domain/catalog"
	"github.com/farmmarket/backend/internal/domain/identity"
	"github.com/farmmarket/backend/internal/domain/moderation"
	"github.com/farmmarket/backend/internal/domain/order"
	"github.com/farmmarket/backend/internal/domain/subscription"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const recentOrderLimit = 5

// OrderStats is the order data the dashboards read
type OrderStats interface {
	CountByStatus(ctx context.Context, farmerID *uuid.UUID) (map[order.Status]int64, error)
	SumRevenue(ctx context.Context, farmerID *uuid.UUID) (decimal.Decimal, error)
	FindRecent(ctx context.Context, farmerID uuid.UUID, limit int) ([]order.Order, error)
}

// ProductStats counts a farmer's products
type ProductStats interface {
	CountByFarmer(ctx context.Context, farmerID uuid.UUID, statuses ...catalog.ProductStatus) (int64, error)
}

// StockStats counts low stock items
type StockStats interface {
	CountLowStock(ctx context.Context, farmerID uuid.UUID) (int64, error)
}

// PlanResolver returns the plan in force for a farmer
type PlanResolver interface {
	EffectivePlan(ctx context.Context, farmerID uuid.UUID) (subscription.Plan, error)
}

// UserStats counts users per role
type UserStats interface {
	CountByRole(ctx context.Context) (map[identity.Role]int64, error)
}

// DisputeStats counts disputes per status
type DisputeStats interface {
	CountByStatus(ctx context.Context, status moderation.DisputeStatus) (int64, error)
}

// MessageStats counts unread support messages
type MessageStats interface {
	CountUnreadSupport(ctx context.Context) (int64, error)
}

// SubscriptionStats counts active subscriptions per plan
type SubscriptionStats interface {
	CountActiveByPlan(ctx context.Context) (map[subscription.PlanCode]int64, error)
}

// Sources groups the read models behind the dashboards
type Sources struct {
	Orders        OrderStats
	Products      ProductStats
	Stock         StockStats
	Plans         PlanResolver
	Users         UserStats
	Disputes      DisputeStats
	Messages      MessageStats
	Subscriptions SubscriptionStats
}

// DashboardService aggregates farmer and admin overview figures
type DashboardService struct {
	src      Sources
	currency string
	logger   *zap.Logger
}

// NewDashboardService creates a new DashboardService
func NewDashboardService(src Sources, currency string, logger *zap.Logger) *DashboardService {
	return &DashboardService{src: src, currency: currency, logger: logger}
}

// RecentOrder is a compact order row
type RecentOrder struct {
	ID          uuid.UUID       `json:"id"`
	OrderNumber string          `json:"order_number"`
	Status      string          `json:"status"`
	Total       decimal.Decimal `json:"total"`
	ItemCount   int             `json:"item_count"`
	CreatedAt   time.Time       `json:"created_at"`
}

// PlanSummary names the plan in force; MaxProducts -1 means unlimited
type PlanSummary struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	MaxProducts int    `json:"max_products"`
}

// FarmerDashboardResponse is the farmer overview
type FarmerDashboardResponse struct {
	Revenue        decimal.Decimal  `json:"revenue"`
	Currency       string           `json:"currency"`
	OrdersByStatus map[string]int64 `json:"orders_by_status"`
	ActiveProducts int64            `json:"active_products"`
	LowStockItems  int64            `json:"low_stock_items"`
	RecentOrders   []RecentOrder    `json:"recent_orders"`
	Plan           PlanSummary      `json:"plan"`
}

// AdminDashboardResponse is the platform overview
type AdminDashboardResponse struct {
	UsersByRole         map[string]int64 `json:"users_by_role"`
	OpenDisputes        int64            `json:"open_disputes"`
	DisputesUnderReview int64            `json:"disputes_under_review"`
	UnreadSupport       int64            `json:"unread_support_messages"`
	SubscriptionsByPlan map[string]int64 `json:"subscriptions_by_plan"`
	OrdersByStatus      map[string]int64 `json:"orders_by_status"`
	GMV                 decimal.Decimal  `json:"gmv"`
	Currency            string           `json:"currency"`
}

// Farmer builds the farmer overview
func (s *DashboardService) Farmer(ctx context.Context, farmerID uuid.UUID) (*FarmerDashboardResponse, error) {
	resp := &FarmerDashboardResponse{Currency: s.currency}
	var (
		byStatus map[order.Status]int64
		recent   []order.Order
		plan     subscription.Plan
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		resp.Revenue, err = s.src.Orders.SumRevenue(gctx, &farmerID)
		return wrap("revenue", err)
	})
	g.Go(func() (err error) {
		byStatus, err = s.src.Orders.CountByStatus(gctx, &farmerID)
		return wrap("order counts", err)
	})
	g.Go(func() (err error) {
		recent, err = s.src.Orders.FindRecent(gctx, farmerID, recentOrderLimit)
		return wrap("recent orders", err)
	})
	g.Go(func() (err error) {
		resp.ActiveProducts, err = s.src.Products.CountByFarmer(gctx, farmerID, catalog.ProductStatusActive)
		return wrap("product count", err)
	})
	g.Go(func() (err error) {
		resp.LowStockItems, err = s.src.Stock.CountLowStock(gctx, farmerID)
		return wrap("low stock", err)
	})
	g.Go(func() (err error) {
		plan, err = s.src.Plans.EffectivePlan(gctx, farmerID)
		return wrap("plan", err)
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("Farmer dashboard failed", zap.String("farmer_id", farmerID.String()), zap.Error(err))
		return nil, err
	}

	resp.OrdersByStatus = orderCounts(byStatus)
	resp.RecentOrders = make([]RecentOrder, len(recent))
	for i := range recent {
		o := &recent[i]
		resp.RecentOrders[i] = RecentOrder{
			ID:          o.ID,
			OrderNumber: o.OrderNumber,
			Status:      string(o.Status),
			Total:       o.Total,
			ItemCount:   o.ItemCount(),
			CreatedAt:   o.CreatedAt,
		}
	}
	resp.Plan = PlanSummary{Code: string(plan.Code), Name: plan.Name, MaxProducts: plan.MaxProducts}
	return resp, nil
}

// Admin builds the platform overview
func (s *DashboardService) Admin(ctx context.Context) (*AdminDashboardResponse, error) {
	resp := &AdminDashboardResponse{Currency: s.currency}
	var (
		byRole   map[identity.Role]int64
		byPlan   map[subscription.PlanCode]int64
		byStatus map[order.Status]int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		byRole, err = s.src.Users.CountByRole(gctx)
		return wrap("user counts", err)
	})
	g.Go(func() (err error) {
		resp.OpenDisputes, err = s.src.Disputes.CountByStatus(gctx, moderation.DisputeStatusOpen)
		return wrap("open disputes", err)
	})
	g.Go(func() (err error) {
		resp.DisputesUnderReview, err = s.src.Disputes.CountByStatus(gctx, moderation.DisputeStatusUnderReview)
		return wrap("disputes under review", err)
	})
	g.Go(func() (err error) {
		resp.UnreadSupport, err = s.src.Messages.CountUnreadSupport(gctx)
		return wrap("unread support", err)
	})
	g.Go(func() (err error) {
		byPlan, err = s.src.Subscriptions.CountActiveByPlan(gctx)
		return wrap("subscription counts", err)
	})
	g.Go(func() (err error) {
		byStatus, err = s.src.Orders.CountByStatus(gctx, nil)
		return wrap("order counts", err)
	})
	g.Go(func() (err error) {
		resp.GMV, err = s.src.Orders.SumRevenue(gctx, nil)
		return wrap("gmv", err)
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("Admin dashboard failed", zap.Error(err))
		return nil, err
	}

	resp.UsersByRole = map[string]int64{
		string(identity.RoleBuyer):  byRole[identity.RoleBuyer],
		string(identity.RoleFarmer): byRole[identity.RoleFarmer],
		string(identity.RoleAdmin):  byRole[identity.RoleAdmin],
	}
	resp.SubscriptionsByPlan = make(map[string]int64, len(subscription.Plans()))
	for _, p := range subscription.Plans() {
		resp.SubscriptionsByPlan[string(p.Code)] = byPlan[p.Code]
	}
	resp.OrdersByStatus = orderCounts(byStatus)
	return resp, nil
}

// orderCounts reports every status, zero included
func orderCounts(byStatus map[order.Status]int64) map[string]int64 {
	statuses := []order.Status{
		order.StatusPending,
		order.StatusConfirmed,
		order.StatusShipped,
		order.StatusDelivered,
		order.StatusCancelled,
	}
	out := make(map[string]int64, len(statuses))
	for _, st := range statuses {
		out[string(st)] = byStatus[st]
	}
	return out
}

func wrap(what string, err error) error {
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", what, err)
	}
	return nil
}
