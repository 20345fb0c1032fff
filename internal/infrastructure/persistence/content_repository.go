package persistence

import (
	"context"
	"time"

	"github.com/farmmarket/backend/internal/domain/content"
	"github.com/farmmarket/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormBlogPostRepository implements content.BlogPostRepository using GORM
type GormBlogPostRepository struct {
	db *gorm.DB
}

// NewGormBlogPostRepository creates a new GormBlogPostRepository
func NewGormBlogPostRepository(db *gorm.DB) *GormBlogPostRepository {
	return &GormBlogPostRepository{db: db}
}

// FindByID finds a post by ID
func (r *GormBlogPostRepository) FindByID(ctx context.Context, id uuid.UUID) (*content.BlogPost, error) {
	var post content.BlogPost
	if err := conn(ctx, r.db).First(&post, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	post.MarkPersisted()
	return &post, nil
}

// FindBySlug finds a post by slug
func (r *GormBlogPostRepository) FindBySlug(ctx context.Context, slug string) (*content.BlogPost, error) {
	var post content.BlogPost
	if err := conn(ctx, r.db).Where("slug = ?", slug).First(&post).Error; err != nil {
		return nil, translate(err)
	}
	post.MarkPersisted()
	return &post, nil
}

// FindAll lists posts; published posts sort by publish date by default
func (r *GormBlogPostRepository) FindAll(ctx context.Context, filter shared.Filter) ([]content.BlogPost, int64, error) {
	filter = filter.Normalize()
	query := conn(ctx, r.db).Model(&content.BlogPost{})
	if farmerID, ok := filter.Filters[content.FilterFarmerID]; ok {
		query = query.Where("farmer_id = ?", farmerID)
	}
	defaultSort := "created_at"
	if status, ok := filter.Filters[content.FilterStatus]; ok && status != "" {
		query = query.Where("status = ?", status)
		if status == content.PostStatusPublished || status == string(content.PostStatusPublished) {
			defaultSort = "published_at"
		}
	}
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("LOWER(title) LIKE ? OR LOWER(excerpt) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var posts []content.BlogPost
	if err := applyPaging(query, filter, ContentSortFields, defaultSort).Find(&posts).Error; err != nil {
		return nil, 0, err
	}
	markLoaded(posts)
	return posts, total, nil
}

// ExistsBySlug reports whether any post uses the slug
func (r *GormBlogPostRepository) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	var count int64
	if err := conn(ctx, r.db).Model(&content.BlogPost{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates a post
func (r *GormBlogPostRepository) Save(ctx context.Context, post *content.BlogPost) error {
	return saveAggregate(conn(ctx, r.db), post)
}

// Delete removes a post
func (r *GormBlogPostRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := conn(ctx, r.db).Delete(&content.BlogPost{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// GormFarmEventRepository implements content.FarmEventRepository using GORM
type GormFarmEventRepository struct {
	db *gorm.DB
}

// NewGormFarmEventRepository creates a new GormFarmEventRepository
func NewGormFarmEventRepository(db *gorm.DB) *GormFarmEventRepository {
	return &GormFarmEventRepository{db: db}
}

// FindByID finds an event by ID
func (r *GormFarmEventRepository) FindByID(ctx context.Context, id uuid.UUID) (*content.FarmEvent, error) {
	var event content.FarmEvent
	if err := conn(ctx, r.db).First(&event, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	event.MarkPersisted()
	return &event, nil
}

// FindAll lists events matching the filter
func (r *GormFarmEventRepository) FindAll(ctx context.Context, filter shared.Filter) ([]content.FarmEvent, int64, error) {
	filter = filter.Normalize()
	query := conn(ctx, r.db).Model(&content.FarmEvent{})
	if farmerID, ok := filter.Filters[content.FilterFarmerID]; ok {
		query = query.Where("farmer_id = ?", farmerID)
	}
	if status, ok := filter.Filters[content.FilterStatus]; ok && status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var events []content.FarmEvent
	if err := applyPaging(query, filter, FarmEventSortFields, "starts_at").Find(&events).Error; err != nil {
		return nil, 0, err
	}
	markLoaded(events)
	return events, total, nil
}

// FindUpcoming lists scheduled events ending after now, soonest first
func (r *GormFarmEventRepository) FindUpcoming(ctx context.Context, farmerID *uuid.UUID, now time.Time, page, pageSize int) ([]content.FarmEvent, int64, error) {
	filter := shared.Filter{Page: page, PageSize: pageSize}.Normalize()
	query := conn(ctx, r.db).Model(&content.FarmEvent{}).
		Where("status = ? AND ends_at > ?", content.EventStatusScheduled, now)
	if farmerID != nil {
		query = query.Where("farmer_id = ?", *farmerID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var events []content.FarmEvent
	if err := query.Order("starts_at ASC").
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&events).Error; err != nil {
		return nil, 0, err
	}
	markLoaded(events)
	return events, total, nil
}

// Save creates or updates an event
func (r *GormFarmEventRepository) Save(ctx context.Context, event *content.FarmEvent) error {
	return saveAggregate(conn(ctx, r.db), event)
}

// Delete removes an event
func (r *GormFarmEventRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := conn(ctx, r.db).Delete(&content.FarmEvent{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure the repositories implement their domain interfaces
var (
	_ content.BlogPostRepository  = (*GormBlogPostRepository)(nil)
	_ content.FarmEventRepository = (*GormFarmEventRepository)(nil)
)
