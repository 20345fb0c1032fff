package persistence

import (
	"context"

	"github.com/farmmarket/backend/internal/domain/job"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormJobRepository implements job.JobRepository using GORM
type GormJobRepository struct {
	db *gorm.DB
}

// NewGormJobRepository creates a new GormJobRepository
func NewGormJobRepository(db *gorm.DB) *GormJobRepository {
	return &GormJobRepository{db: db}
}

// FindByID finds a job by ID
func (r *GormJobRepository) FindByID(ctx context.Context, id uuid.UUID) (*job.Job, error) {
	var j job.Job
	if err := conn(ctx, r.db).First(&j, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	j.MarkPersisted()
	return &j, nil
}

// FindActive returns a pending or running job of the kind for the user
func (r *GormJobRepository) FindActive(ctx context.Context, userID uuid.UUID, kind job.Kind) (*job.Job, error) {
	var j job.Job
	if err := conn(ctx, r.db).
		Where("requested_by = ? AND kind = ? AND status IN ?", userID, kind,
			[]job.Status{job.StatusPending, job.StatusRunning}).
		Order("created_at DESC").
		First(&j).Error; err != nil {
		return nil, translate(err)
	}
	j.MarkPersisted()
	return &j, nil
}

// FindPending returns queued or interrupted jobs oldest first
func (r *GormJobRepository) FindPending(ctx context.Context, limit int) ([]job.Job, error) {
	if limit < 1 {
		limit = 100
	}
	var jobs []job.Job
	if err := conn(ctx, r.db).
		Where("status IN ?", []job.Status{job.StatusPending, job.StatusRunning}).
		Order("created_at ASC").
		Limit(limit).
		Find(&jobs).Error; err != nil {
		return nil, err
	}
	markLoaded(jobs)
	return jobs, nil
}

// ListByUser returns a user's latest jobs
func (r *GormJobRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]job.Job, error) {
	if limit < 1 {
		limit = 20
	}
	var jobs []job.Job
	if err := conn(ctx, r.db).
		Where("requested_by = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&jobs).Error; err != nil {
		return nil, err
	}
	markLoaded(jobs)
	return jobs, nil
}

// Save creates or updates a job
func (r *GormJobRepository) Save(ctx context.Context, j *job.Job) error {
	return saveAggregate(conn(ctx, r.db), j)
}

// Ensure GormJobRepository implements JobRepository
var _ job.JobRepository = (*GormJobRepository)(nil)
