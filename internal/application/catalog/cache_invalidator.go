package catalog

import (
	"context"

	"github.com/farmmarket/backend/internal/domain/catalog"
	"github.com/farmmarket/backend/internal/domain/identity"
	"github.com/farmmarket/backend/internal/domain/inventory"
	"github.com/farmmarket/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// CacheInvalidator drops the cached listings whenever something shown in them
// changes: a product, its stock, its sales or the farmer selling it
type CacheInvalidator struct {
	cache  ListingCache
	logger *zap.Logger
}

// NewCacheInvalidator creates a new CacheInvalidator
func NewCacheInvalidator(cache ListingCache, logger *zap.Logger) *CacheInvalidator {
	return &CacheInvalidator{cache: cache, logger: logger}
}

// EventTypes implements shared.EventHandler
func (h *CacheInvalidator) EventTypes() []string {
	return []string{
		catalog.EventTypeProductCreated,
		catalog.EventTypeProductUpdated,
		catalog.EventTypeProductStatusChanged,
		catalog.EventTypeProductDeleted,
		catalog.EventTypeProductSold,
		inventory.EventTypeStockChanged,
		identity.EventTypeUserStatusChanged,
		identity.EventTypeUserDeleted,
		identity.EventTypeFarmProfileChanged,
	}
}

// Handle implements shared.EventHandler
func (h *CacheInvalidator) Handle(ctx context.Context, event shared.DomainEvent) error {
	if !affectsListings(event) {
		return nil
	}
	if err := h.cache.Invalidate(ctx); err != nil {
		h.logger.Warn("Catalog cache invalidation failed",
			zap.String("event_type", event.EventType()),
			zap.Error(err))
		return err
	}
	h.logger.Debug("Catalog cache invalidated", zap.String("event_type", event.EventType()))
	return nil
}

// affectsListings filters out account events for buyers and admins
func affectsListings(event shared.DomainEvent) bool {
	switch e := event.(type) {
	case *identity.UserStatusChangedEvent:
		return e.Role == identity.RoleFarmer
	case *identity.UserDeletedEvent:
		return e.Role == identity.RoleFarmer
	}
	return true
}
