package persistence

import (
	"context"

	"github.com/farmmarket/backend/internal/domain/moderation"
	"github.com/farmmarket/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormDisputeRepository implements moderation.DisputeRepository using GORM
type GormDisputeRepository struct {
	db *gorm.DB
}

// NewGormDisputeRepository creates a new GormDisputeRepository
func NewGormDisputeRepository(db *gorm.DB) *GormDisputeRepository {
	return &GormDisputeRepository{db: db}
}

// FindByID finds a dispute by ID
func (r *GormDisputeRepository) FindByID(ctx context.Context, id uuid.UUID) (*moderation.Dispute, error) {
	var d moderation.Dispute
	if err := conn(ctx, r.db).First(&d, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	d.MarkPersisted()
	return &d, nil
}

// FindAll lists disputes matching the filter
func (r *GormDisputeRepository) FindAll(ctx context.Context, filter shared.Filter) ([]moderation.Dispute, int64, error) {
	filter = filter.Normalize()
	query := conn(ctx, r.db).Model(&moderation.Dispute{})
	if status, ok := filter.Filters[moderation.FilterStatus]; ok && status != "" {
		query = query.Where("status = ?", status)
	}
	if buyerID, ok := filter.Filters[moderation.FilterBuyerID]; ok {
		query = query.Where("buyer_id = ?", buyerID)
	}
	if farmerID, ok := filter.Filters[moderation.FilterFarmerID]; ok {
		query = query.Where("farmer_id = ?", farmerID)
	}
	if filter.Search != "" {
		query = query.Where("LOWER(order_number) LIKE ?", likePattern(filter.Search))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var disputes []moderation.Dispute
	if err := applyPaging(query, filter, ModerationSortFields, "created_at").Find(&disputes).Error; err != nil {
		return nil, 0, err
	}
	markLoaded(disputes)
	return disputes, total, nil
}

// HasActiveForOrder reports an open or under-review dispute on the order
func (r *GormDisputeRepository) HasActiveForOrder(ctx context.Context, orderID uuid.UUID) (bool, error) {
	var count int64
	if err := conn(ctx, r.db).Model(&moderation.Dispute{}).
		Where("order_id = ? AND status IN ?", orderID,
			[]moderation.DisputeStatus{moderation.DisputeStatusOpen, moderation.DisputeStatusUnderReview}).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountByStatus counts disputes in a status
func (r *GormDisputeRepository) CountByStatus(ctx context.Context, status moderation.DisputeStatus) (int64, error) {
	var count int64
	if err := conn(ctx, r.db).Model(&moderation.Dispute{}).Where("status = ?", status).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a dispute
func (r *GormDisputeRepository) Save(ctx context.Context, d *moderation.Dispute) error {
	return saveAggregate(conn(ctx, r.db), d)
}

// GormMessageRepository implements moderation.MessageRepository using GORM
type GormMessageRepository struct {
	db *gorm.DB
}

// NewGormMessageRepository creates a new GormMessageRepository
func NewGormMessageRepository(db *gorm.DB) *GormMessageRepository {
	return &GormMessageRepository{db: db}
}

// FindByID finds a message by ID
func (r *GormMessageRepository) FindByID(ctx context.Context, id uuid.UUID) (*moderation.Message, error) {
	var m moderation.Message
	if err := conn(ctx, r.db).First(&m, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

// FindAll lists messages matching the filter, newest first by default
func (r *GormMessageRepository) FindAll(ctx context.Context, filter shared.Filter) ([]moderation.Message, int64, error) {
	filter = filter.Normalize()
	query := conn(ctx, r.db).Model(&moderation.Message{})
	if status, ok := filter.Filters[moderation.FilterStatus]; ok && status != "" {
		query = query.Where("status = ?", status)
	}
	if kind, ok := filter.Filters[moderation.FilterKind]; ok && kind != "" {
		query = query.Where("kind = ?", kind)
	}
	if flagged, ok := filter.Filters[moderation.FilterFlagged]; ok {
		query = query.Where("flagged = ?", flagged)
	}
	if recipientID, ok := filter.Filters[moderation.FilterRecipientID]; ok {
		query = query.Where("recipient_id = ?", recipientID)
	}
	if senderID, ok := filter.Filters[moderation.FilterSenderID]; ok {
		query = query.Where("sender_id = ?", senderID)
	}
	if participant, ok := filter.Filters[moderation.FilterParticipant]; ok {
		query = query.Where("sender_id = ? OR recipient_id = ?", participant, participant)
	}
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("LOWER(subject) LIKE ? OR LOWER(body) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var messages []moderation.Message
	if err := applyPaging(query, filter, ModerationSortFields, "created_at").Find(&messages).Error; err != nil {
		return nil, 0, err
	}
	return messages, total, nil
}

// CountUnreadSupport counts support messages nobody has read yet
func (r *GormMessageRepository) CountUnreadSupport(ctx context.Context) (int64, error) {
	var count int64
	if err := conn(ctx, r.db).Model(&moderation.Message{}).
		Where("kind = ? AND status = ?", moderation.KindSupport, moderation.MessageStatusUnread).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save inserts or updates a message
func (r *GormMessageRepository) Save(ctx context.Context, m *moderation.Message) error {
	return translate(conn(ctx, r.db).Save(m).Error)
}

// Delete removes a message
func (r *GormMessageRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := conn(ctx, r.db).Delete(&moderation.Message{}, "id = ?", id)
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
	_ moderation.DisputeRepository = (*GormDisputeRepository)(nil)
	_ moderation.MessageRepository = (*GormMessageRepository)(nil)
)
