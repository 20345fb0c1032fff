package content

import (
	"context"
	"time"

	"github.com/farmmarket/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Filter keys understood by the content repositories
const (
	FilterFarmerID = "farmer_id"
	FilterStatus   = "status"
)

// BlogPostRepository persists blog posts
type BlogPostRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*BlogPost, error)
	FindBySlug(ctx context.Context, slug string) (*BlogPost, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]BlogPost, int64, error)
	ExistsBySlug(ctx context.Context, slug string) (bool, error)
	Save(ctx context.Context, post *BlogPost) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// FarmEventRepository persists farm events
type FarmEventRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*FarmEvent, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]FarmEvent, int64, error)
	// FindUpcoming lists scheduled events ending after now, soonest first
	FindUpcoming(ctx context.Context, farmerID *uuid.UUID, now time.Time, page, pageSize int) ([]FarmEvent, int64, error)
	Save(ctx context.Context, event *FarmEvent) error
	Delete(ctx context.Context, id uuid.UUID) error
}
