package functions

import (
	"context"
	"errors"
	"fmt"

	"github.com/farmmarket/backend/internal/domain/catalog"
	"github.com/farmmarket/backend/internal/domain/identity"
	"github.com/farmmarket/backend/internal/domain/shared"
	"github.com/farmmarket/backend/internal/infrastructure/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// deleteAccount tears an account down. Every step can be repeated, and the
// user row is anonymized last so a retried job finds the remaining work.
func (s *FunctionService) deleteAccount(ctx context.Context, userID uuid.UUID) error {
	user, err := s.deps.Users.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	if user.Status == identity.UserStatusDeleted {
		return nil
	}

	if user.IsFarmer() {
		if err := s.deps.Subscriptions.CancelForAccountDeletion(ctx, userID); err != nil {
			return fmt.Errorf("failed to cancel subscription: %w", err)
		}
		if err := s.archiveProducts(ctx, userID); err != nil {
			return err
		}
	}

	if key := user.AvatarKey; key != "" {
		if err := s.deps.Store.Delete(ctx, key); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
			return fmt.Errorf("failed to delete avatar: %w", err)
		}
	}

	if err := s.deps.Sessions.RevokeAllSessions(ctx, user); err != nil {
		return fmt.Errorf("failed to revoke sessions: %w", err)
	}

	if err := user.Anonymize(); err != nil {
		return err
	}
	if err := s.deps.Users.Save(ctx, user); err != nil {
		return fmt.Errorf("failed to save anonymized user: %w", err)
	}
	if err := shared.PublishAndClear(ctx, s.deps.Publisher, user); err != nil {
		s.logger.Warn("Failed to publish user events", zap.String("user_id", userID.String()), zap.Error(err))
	}
	s.logger.Info("Account deleted", zap.String("user_id", userID.String()), zap.String("role", string(user.Role)))
	return nil
}

func (s *FunctionService) archiveProducts(ctx context.Context, farmerID uuid.UUID) error {
	products, err := collect(ctx, shared.Filter{}, func(ctx context.Context, f shared.Filter) ([]catalog.Product, int64, error) {
		return s.deps.Products.FindByFarmer(ctx, farmerID, f)
	})
	if err != nil {
		return fmt.Errorf("failed to load products: %w", err)
	}
	archived := 0
	for i := range products {
		p := &products[i]
		if p.Status == catalog.ProductStatusArchived {
			continue
		}
		if err := p.Archive(); err != nil {
			return err
		}
		if err := s.deps.Products.Save(ctx, p); err != nil {
			return fmt.Errorf("failed to archive product %s: %w", p.ID, err)
		}
		if err := shared.PublishAndClear(ctx, s.deps.Publisher, p); err != nil {
			s.logger.Warn("Failed to publish product events", zap.String("product_id", p.ID.String()), zap.Error(err))
		}
		archived++
	}
	if archived > 0 {
		s.logger.Info("Products archived for account deletion",
			zap.String("farmer_id", farmerID.String()),
			zap.Int("count", archived))
	}
	return nil
}
