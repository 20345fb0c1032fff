package subscription

import (
	"context"
	"fmt"
	"time"

	"github.com/farmmarket/backend/internal/domain/shared"
	"github.com/farmmarket/backend/internal/domain/subscription"
	"go.uber.org/zap"
)

const defaultRenewalBatch = 200

// RenewalSweep rolls over subscriptions whose period has ended.
// Auto-renewing subscriptions get a new period; the rest expire.
type RenewalSweep struct {
	repo      subscription.SubscriptionRepository
	publisher shared.EventPublisher
	logger    *zap.Logger
	batchSize int
}

// NewRenewalSweep creates a new RenewalSweep
func NewRenewalSweep(repo subscription.SubscriptionRepository, publisher shared.EventPublisher, logger *zap.Logger) *RenewalSweep {
	return &RenewalSweep{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		batchSize: defaultRenewalBatch,
	}
}

// Sweep processes one batch of due subscriptions. A failed save is logged
// and retried on the next pass.
func (r *RenewalSweep) Sweep(ctx context.Context, now time.Time) (int, error) {
	due, err := r.repo.FindDue(ctx, now, r.batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to load due subscriptions: %w", err)
	}

	processed, renewed := 0, 0
	for i := range due {
		if ctx.Err() != nil {
			return processed, ctx.Err()
		}
		sub := &due[i]
		ok, err := sub.RollOver(now)
		if err != nil {
			r.logger.Warn("Subscription not due", zap.String("subscription_id", sub.ID.String()), zap.Error(err))
			continue
		}
		if err := r.repo.Save(ctx, sub); err != nil {
			r.logger.Error("Failed to roll over subscription", zap.String("subscription_id", sub.ID.String()), zap.Error(err))
			continue
		}
		if err := shared.PublishAndClear(ctx, r.publisher, sub); err != nil {
			r.logger.Warn("Failed to publish subscription events", zap.String("subscription_id", sub.ID.String()), zap.Error(err))
		}
		processed++
		if ok {
			renewed++
		}
	}

	if processed > 0 {
		r.logger.Info("Subscriptions rolled over",
			zap.Int("renewed", renewed),
			zap.Int("expired", processed-renewed))
	}
	return processed, nil
}
