package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/farmmarket/backend/internal/domain/catalog"
	"github.com/farmmarket/backend/internal/domain/identity"
	"github.com/farmmarket/backend/internal/domain/shared"
	"github.com/farmmarket/backend/internal/infrastructure/cache"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func accountOf(role identity.Role) *identity.User {
	u := &identity.User{Role: role, Status: identity.UserStatusSuspended, FarmName: "Hill Farm"}
	u.ID = uuid.New()
	return u
}

func TestCacheInvalidator_Subscribes(t *testing.T) {
	h := NewCacheInvalidator(cache.NewInMemoryCatalogCache(time.Minute), zap.NewNop())
	assert.Subset(t, h.EventTypes(), []string{
		catalog.EventTypeProductSold,
		identity.EventTypeUserStatusChanged,
		identity.EventTypeUserDeleted,
		identity.EventTypeFarmProfileChanged,
	})
}

func TestCacheInvalidator_Handle(t *testing.T) {
	product := mustProduct(uuid.New(), "Sweet Corn")
	product.RecordSale(3)
	sold := product.GetDomainEvents()[0]

	cases := []struct {
		name       string
		event      shared.DomainEvent
		invalidate bool
	}{
		{"sale count bump", sold, true},
		{"farmer suspended", identity.NewUserStatusChangedEvent(accountOf(identity.RoleFarmer), identity.UserStatusActive), true},
		{"farmer deleted", identity.NewUserDeletedEvent(accountOf(identity.RoleFarmer)), true},
		{"farm renamed", identity.NewFarmProfileChangedEvent(accountOf(identity.RoleFarmer), "Old Farm"), true},
		{"buyer suspended", identity.NewUserStatusChangedEvent(accountOf(identity.RoleBuyer), identity.UserStatusActive), false},
		{"buyer deleted", identity.NewUserDeletedEvent(accountOf(identity.RoleBuyer)), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			listingCache := cache.NewInMemoryCatalogCache(time.Minute)
			require.NoError(t, listingCache.Set(ctx, sampleListings()))

			h := NewCacheInvalidator(listingCache, zap.NewNop())
			require.NoError(t, h.Handle(ctx, tc.event))

			_, hit, err := listingCache.Get(ctx)
			require.NoError(t, err)
			assert.Equal(t, !tc.invalidate, hit)
		})
	}
}
