package job

import (
	"context"

	"github.com/google/uuid"
)

// JobRepository persists job records
type JobRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Job, error)
	// FindActive returns a pending or running job of the kind for the user
	FindActive(ctx context.Context, userID uuid.UUID, kind Kind) (*Job, error)
	// FindPending returns queued jobs oldest first, used to resume after restart
	FindPending(ctx context.Context, limit int) ([]Job, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]Job, error)
	Save(ctx context.Context, j *Job) error
}
