package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/farmmarket/backend/internal/domain/catalog"
	"github.com/farmmarket/backend/internal/domain/shared"
	"github.com/farmmarket/backend/internal/domain/subscription"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	errSubscriptionNotFound = shared.NewDomainError("SUBSCRIPTION_NOT_FOUND", "Subscription not found")
	errAlreadySubscribed    = shared.NewDomainError("ALREADY_SUBSCRIBED", "Subscription is already active")
)

// ProductCounter counts a farmer's products by status
type ProductCounter interface {
	CountByFarmer(ctx context.Context, farmerID uuid.UUID, statuses ...catalog.ProductStatus) (int64, error)
}

// SubscriptionService manages farmer plans
type SubscriptionService struct {
	repo      subscription.SubscriptionRepository
	products  ProductCounter
	publisher shared.EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewSubscriptionService creates a new SubscriptionService
func NewSubscriptionService(
	repo subscription.SubscriptionRepository,
	products ProductCounter,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *SubscriptionService {
	return &SubscriptionService{
		repo:      repo,
		products:  products,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// ListPlans returns the plan catalog
func (s *SubscriptionService) ListPlans() []PlanResponse {
	plans := subscription.Plans()
	out := make([]PlanResponse, len(plans))
	for i, p := range plans {
		out[i] = toPlanResponse(p)
	}
	return out
}

// EffectivePlan returns the plan whose limits apply to the farmer now.
// Farmers without a subscription are on the free plan.
func (s *SubscriptionService) EffectivePlan(ctx context.Context, farmerID uuid.UUID) (subscription.Plan, error) {
	sub, err := s.repo.FindByFarmer(ctx, farmerID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return subscription.FreePlan(), nil
		}
		return subscription.Plan{}, err
	}
	return sub.EffectivePlan(s.now()), nil
}

// GetMySubscription returns the farmer's subscription or the implicit free plan
func (s *SubscriptionService) GetMySubscription(ctx context.Context, farmerID uuid.UUID) (*SubscriptionResponse, error) {
	sub, err := s.repo.FindByFarmer(ctx, farmerID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			resp := implicitFreeResponse(farmerID)
			return &resp, nil
		}
		return nil, err
	}
	resp := toSubscriptionResponse(sub, s.now())
	return &resp, nil
}

// Subscribe starts a subscription, or restarts an expired or cancelled one
func (s *SubscriptionService) Subscribe(ctx context.Context, farmerID uuid.UUID, req SubscribeRequest) (*SubscriptionResponse, error) {
	code := subscription.PlanCode(req.Plan)
	if err := s.checkFits(ctx, farmerID, code); err != nil {
		return nil, err
	}

	now := s.now()
	sub, err := s.repo.FindByFarmer(ctx, farmerID)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		sub, err = subscription.NewSubscription(farmerID, code, now)
		if err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	case sub.Status == subscription.StatusActive:
		return nil, errAlreadySubscribed
	default:
		if err := sub.Resubscribe(code, now); err != nil {
			return nil, err
		}
	}

	if err := s.save(ctx, sub); err != nil {
		return nil, err
	}
	s.logger.Info("Subscription started",
		zap.String("farmer_id", farmerID.String()),
		zap.String("plan", string(sub.PlanCode)),
		zap.Time("period_end", sub.CurrentPeriodEnd))
	resp := toSubscriptionResponse(sub, now)
	return &resp, nil
}

// ChangePlan switches plans; a downgrade must fit the active product count
func (s *SubscriptionService) ChangePlan(ctx context.Context, farmerID uuid.UUID, req ChangePlanRequest) (*SubscriptionResponse, error) {
	sub, err := s.load(ctx, farmerID)
	if err != nil {
		return nil, err
	}
	active, err := s.products.CountByFarmer(ctx, farmerID, catalog.ProductStatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}
	old := sub.PlanCode
	if err := sub.ChangePlan(subscription.PlanCode(req.Plan), active); err != nil {
		return nil, err
	}
	if err := s.save(ctx, sub); err != nil {
		return nil, err
	}
	s.logger.Info("Subscription plan changed",
		zap.String("farmer_id", farmerID.String()),
		zap.String("from", string(old)),
		zap.String("to", string(sub.PlanCode)))
	resp := toSubscriptionResponse(sub, s.now())
	return &resp, nil
}

// Cancel turns off auto-renew; the plan stays in effect until period end
func (s *SubscriptionService) Cancel(ctx context.Context, farmerID uuid.UUID) (*SubscriptionResponse, error) {
	sub, err := s.load(ctx, farmerID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := sub.Cancel(now); err != nil {
		return nil, err
	}
	if err := s.save(ctx, sub); err != nil {
		return nil, err
	}
	s.logger.Info("Subscription cancelled", zap.String("farmer_id", farmerID.String()))
	resp := toSubscriptionResponse(sub, now)
	return &resp, nil
}

// CancelForAccountDeletion cancels whatever subscription the farmer holds.
// Suspended and expired subscriptions are left as they are.
func (s *SubscriptionService) CancelForAccountDeletion(ctx context.Context, farmerID uuid.UUID) error {
	sub, err := s.repo.FindByFarmer(ctx, farmerID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		return err
	}
	if sub.Status != subscription.StatusActive {
		return nil
	}
	if err := sub.Cancel(s.now()); err != nil {
		return err
	}
	return s.save(ctx, sub)
}

// List returns subscriptions for admins
func (s *SubscriptionService) List(ctx context.Context, req ListSubscriptionsRequest) (shared.Paginated[SubscriptionResponse], error) {
	filter := shared.Filter{
		Page:     req.Page,
		PageSize: req.PageSize,
		OrderBy:  "created_at",
		OrderDir: "desc",
	}.Normalize()
	if req.Status != "" {
		filter = filter.With(subscription.FilterStatus, subscription.Status(req.Status))
	}
	if req.Plan != "" {
		filter = filter.With(subscription.FilterPlan, subscription.PlanCode(req.Plan))
	}

	subs, total, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return shared.Paginated[SubscriptionResponse]{}, err
	}
	now := s.now()
	items := make([]SubscriptionResponse, len(subs))
	for i := range subs {
		items[i] = toSubscriptionResponse(&subs[i], now)
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// Suspend removes plan benefits until an admin reinstates the subscription
func (s *SubscriptionService) Suspend(ctx context.Context, adminID, subscriptionID uuid.UUID, req SuspendRequest) (*SubscriptionResponse, error) {
	sub, err := s.loadByID(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	if err := sub.Suspend(req.Reason); err != nil {
		return nil, err
	}
	if err := s.save(ctx, sub); err != nil {
		return nil, err
	}
	s.logger.Info("Subscription suspended",
		zap.String("subscription_id", sub.ID.String()),
		zap.String("admin_id", adminID.String()))
	resp := toSubscriptionResponse(sub, s.now())
	return &resp, nil
}

// Reinstate lifts a suspension; a lapsed period leaves it expired
func (s *SubscriptionService) Reinstate(ctx context.Context, adminID, subscriptionID uuid.UUID) (*SubscriptionResponse, error) {
	sub, err := s.loadByID(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := sub.Reinstate(now); err != nil {
		return nil, err
	}
	if err := s.save(ctx, sub); err != nil {
		return nil, err
	}
	s.logger.Info("Subscription reinstated",
		zap.String("subscription_id", sub.ID.String()),
		zap.String("admin_id", adminID.String()),
		zap.String("status", string(sub.Status)))
	resp := toSubscriptionResponse(sub, now)
	return &resp, nil
}

// checkFits rejects a plan too small for the farmer's active products
func (s *SubscriptionService) checkFits(ctx context.Context, farmerID uuid.UUID, code subscription.PlanCode) error {
	plan, ok := subscription.FindPlan(code)
	if !ok {
		return shared.NewDomainError("INVALID_PLAN", fmt.Sprintf("Unknown plan %q", code))
	}
	active, err := s.products.CountByFarmer(ctx, farmerID, catalog.ProductStatusActive)
	if err != nil {
		return fmt.Errorf("failed to count products: %w", err)
	}
	if !plan.AllowsProducts(active) {
		return shared.NewDomainError("PLAN_LIMIT_EXCEEDED",
			fmt.Sprintf("Plan %s allows %d products but %d are active", plan.Name, plan.MaxProducts, active))
	}
	return nil
}

func (s *SubscriptionService) save(ctx context.Context, sub *subscription.Subscription) error {
	if err := s.repo.Save(ctx, sub); err != nil {
		return fmt.Errorf("failed to save subscription: %w", err)
	}
	if err := shared.PublishAndClear(ctx, s.publisher, sub); err != nil {
		s.logger.Warn("Failed to publish subscription events", zap.String("subscription_id", sub.ID.String()), zap.Error(err))
	}
	return nil
}

func (s *SubscriptionService) load(ctx context.Context, farmerID uuid.UUID) (*subscription.Subscription, error) {
	sub, err := s.repo.FindByFarmer(ctx, farmerID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, errSubscriptionNotFound
		}
		return nil, err
	}
	return sub, nil
}

func (s *SubscriptionService) loadByID(ctx context.Context, id uuid.UUID) (*subscription.Subscription, error) {
	sub, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, errSubscriptionNotFound
		}
		return nil, err
	}
	return sub, nil
}
