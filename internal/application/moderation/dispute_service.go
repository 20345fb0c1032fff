package moderation

import (
	"context"
	"errors"
	"fmt"

	"github.com/farmmarket/backend/internal/domain/moderation"
	"github.com/farmmarket/backend/internal/domain/order"
	"github.com/farmmarket/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	errDisputeNotFound    = shared.NewDomainError("DISPUTE_NOT_FOUND", "Dispute not found")
	errOrderNotFound      = shared.NewDomainError("ORDER_NOT_FOUND", "Order not found")
	errOrderNotDisputable = shared.NewDomainError("ORDER_NOT_DISPUTABLE", "Only shipped or delivered orders can be disputed")
	errDisputeExists      = shared.NewDomainError("DISPUTE_EXISTS", "This order already has an open dispute")
)

// OrderFinder loads orders by ID
type OrderFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error)
}

// DisputeService handles buyer disputes and their moderation
type DisputeService struct {
	disputeRepo moderation.DisputeRepository
	orders      OrderFinder
	publisher   shared.EventPublisher
	logger      *zap.Logger
}

// NewDisputeService creates a new DisputeService
func NewDisputeService(
	disputeRepo moderation.DisputeRepository,
	orders OrderFinder,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *DisputeService {
	return &DisputeService{
		disputeRepo: disputeRepo,
		orders:      orders,
		publisher:   publisher,
		logger:      logger,
	}
}

// Open files a dispute against a shipped or delivered order of the buyer
func (s *DisputeService) Open(ctx context.Context, buyerID, orderID uuid.UUID, req OpenDisputeRequest) (*DisputeResponse, error) {
	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, errOrderNotFound
		}
		return nil, err
	}
	if !o.IsOwnedByBuyer(buyerID) {
		return nil, errOrderNotFound
	}
	if !o.CanBeDisputed() {
		return nil, errOrderNotDisputable
	}
	active, err := s.disputeRepo.HasActiveForOrder(ctx, o.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check disputes: %w", err)
	}
	if active {
		return nil, errDisputeExists
	}

	d, err := moderation.NewDispute(moderation.DisputedOrder{
		ID:          o.ID,
		OrderNumber: o.OrderNumber,
		BuyerID:     o.BuyerID,
		FarmerID:    o.FarmerID,
	}, moderation.DisputeReason(req.Reason), req.Description)
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, d); err != nil {
		return nil, err
	}
	s.logger.Info("Dispute opened",
		zap.String("dispute_id", d.ID.String()),
		zap.String("order_number", d.OrderNumber),
		zap.String("reason", string(d.Reason)))
	resp := ToDisputeResponse(d)
	return &resp, nil
}

// ListMine lists the buyer's disputes
func (s *DisputeService) ListMine(ctx context.Context, buyerID uuid.UUID, req ListDisputesRequest) (shared.Paginated[DisputeResponse], error) {
	return s.list(ctx, req, func(f shared.Filter) shared.Filter {
		return f.With(moderation.FilterBuyerID, buyerID)
	})
}

// List lists disputes for admins
func (s *DisputeService) List(ctx context.Context, req ListDisputesRequest) (shared.Paginated[DisputeResponse], error) {
	return s.list(ctx, req, nil)
}

// Get returns a dispute for admins
func (s *DisputeService) Get(ctx context.Context, disputeID uuid.UUID) (*DisputeResponse, error) {
	d, err := s.load(ctx, disputeID)
	if err != nil {
		return nil, err
	}
	resp := ToDisputeResponse(d)
	return &resp, nil
}

// Review moves an open dispute under review
func (s *DisputeService) Review(ctx context.Context, adminID, disputeID uuid.UUID) (*DisputeResponse, error) {
	return s.transition(ctx, adminID, disputeID, func(d *moderation.Dispute) error {
		return d.Review()
	})
}

// Resolve closes a dispute in the buyer's favour
func (s *DisputeService) Resolve(ctx context.Context, adminID, disputeID uuid.UUID, req CloseDisputeRequest) (*DisputeResponse, error) {
	return s.transition(ctx, adminID, disputeID, func(d *moderation.Dispute) error {
		return d.Resolve(adminID, req.Resolution)
	})
}

// Reject closes a dispute without action
func (s *DisputeService) Reject(ctx context.Context, adminID, disputeID uuid.UUID, req CloseDisputeRequest) (*DisputeResponse, error) {
	return s.transition(ctx, adminID, disputeID, func(d *moderation.Dispute) error {
		return d.Reject(adminID, req.Resolution)
	})
}

func (s *DisputeService) transition(ctx context.Context, adminID, disputeID uuid.UUID, step func(*moderation.Dispute) error) (*DisputeResponse, error) {
	d, err := s.load(ctx, disputeID)
	if err != nil {
		return nil, err
	}
	if err := step(d); err != nil {
		return nil, err
	}
	if err := s.save(ctx, d); err != nil {
		return nil, err
	}
	s.logger.Info("Dispute updated",
		zap.String("dispute_id", d.ID.String()),
		zap.String("admin_id", adminID.String()),
		zap.String("status", string(d.Status)))
	resp := ToDisputeResponse(d)
	return &resp, nil
}

func (s *DisputeService) list(ctx context.Context, req ListDisputesRequest, scope func(shared.Filter) shared.Filter) (shared.Paginated[DisputeResponse], error) {
	filter := shared.Filter{
		Page:     req.Page,
		PageSize: req.PageSize,
		OrderBy:  "created_at",
		OrderDir: "desc",
	}.Normalize()
	if scope != nil {
		filter = scope(filter)
	}
	if req.Status != "" {
		filter = filter.With(moderation.FilterStatus, moderation.DisputeStatus(req.Status))
	}
	disputes, total, err := s.disputeRepo.FindAll(ctx, filter)
	if err != nil {
		return shared.Paginated[DisputeResponse]{}, err
	}
	items := make([]DisputeResponse, len(disputes))
	for i := range disputes {
		items[i] = ToDisputeResponse(&disputes[i])
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

func (s *DisputeService) save(ctx context.Context, d *moderation.Dispute) error {
	if err := s.disputeRepo.Save(ctx, d); err != nil {
		return fmt.Errorf("failed to save dispute: %w", err)
	}
	if err := shared.PublishAndClear(ctx, s.publisher, d); err != nil {
		s.logger.Warn("Failed to publish dispute events", zap.String("dispute_id", d.ID.String()), zap.Error(err))
	}
	return nil
}

func (s *DisputeService) load(ctx context.Context, id uuid.UUID) (*moderation.Dispute, error) {
	d, err := s.disputeRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, errDisputeNotFound
		}
		return nil, err
	}
	return d, nil
}
