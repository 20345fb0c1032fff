package functions

import (
	"time"

	"github.com/farmmarket/backend/internal/domain/job"
	"github.com/google/uuid"
)

// AccountDeletionRequest confirms an account deletion with the current password
type AccountDeletionRequest struct {
	Password string `json:"password" binding:"required"`
}

// JobResponse describes a backend function invocation
type JobResponse struct {
	ID                uuid.UUID  `json:"id"`
	Kind              string     `json:"kind"`
	Status            string     `json:"status"`
	Attempts          int        `json:"attempts"`
	Error             string     `json:"error,omitempty"`
	ContentType       string     `json:"content_type,omitempty"`
	DownloadURL       string     `json:"download_url,omitempty"`
	DownloadExpiresAt *time.Time `json:"download_expires_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	StartedAt         *time.Time `json:"started_at,omitempty"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
}

func toJobResponse(j *job.Job) JobResponse {
	return JobResponse{
		ID:          j.ID,
		Kind:        string(j.Kind),
		Status:      string(j.Status),
		Attempts:    j.Attempts,
		Error:       j.Error,
		ContentType: j.ContentType,
		CreatedAt:   j.CreatedAt,
		StartedAt:   j.StartedAt,
		CompletedAt: j.CompletedAt,
	}
}
