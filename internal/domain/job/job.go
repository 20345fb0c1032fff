package job

import (
	"fmt"
	"time"

	"github.com/farmmarket/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Kind is the backend function a job runs
type Kind string

const (
	KindDataExport      Kind = "data_export"
	KindInventoryExport Kind = "inventory_export"
	KindAccountDeletion Kind = "account_deletion"
)

// IsValid checks if the kind is known
func (k Kind) IsValid() bool {
	switch k {
	case KindDataExport, KindInventoryExport, KindAccountDeletion:
		return true
	}
	return false
}

// Status is the execution state of a job
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// IsFinished returns true for succeeded and failed
func (s Status) IsFinished() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// Job is an asynchronous backend function invocation
type Job struct {
	shared.BaseAggregateRoot
	Kind        Kind      `gorm:"type:varchar(30);not null;index"`
	RequestedBy uuid.UUID `gorm:"type:uuid;not null;index"`
	Status      Status    `gorm:"type:varchar(20);not null;index"`
	ResultKey   string    `gorm:"type:varchar(500)"`
	ContentType string    `gorm:"type:varchar(100)"`
	Error       string    `gorm:"type:text"`
	Attempts    int       `gorm:"not null;default:0"`
	StartedAt   *time.Time
	CompletedAt *time.Time
}

// TableName returns the table name for GORM
func (Job) TableName() string {
	return "jobs"
}

// NewJob queues a job for the user
func NewJob(kind Kind, requestedBy uuid.UUID) (*Job, error) {
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_JOB_KIND", fmt.Sprintf("Unknown job kind %q", kind))
	}
	if requestedBy == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "Requesting user is required")
	}
	return &Job{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Kind:              kind,
		RequestedBy:       requestedBy,
		Status:            StatusPending,
	}, nil
}

// Start marks an attempt as running
func (j *Job) Start() error {
	if j.Status.IsFinished() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot start a %s job", j.Status))
	}
	now := time.Now()
	j.Status = StatusRunning
	j.Attempts++
	if j.StartedAt == nil {
		j.StartedAt = &now
	}
	j.IncrementVersion()
	return nil
}

// Succeed records the stored result
func (j *Job) Succeed(resultKey, contentType string) error {
	if j.Status != StatusRunning {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot complete a %s job", j.Status))
	}
	now := time.Now()
	j.Status = StatusSucceeded
	j.ResultKey = resultKey
	j.ContentType = contentType
	j.Error = ""
	j.CompletedAt = &now
	j.IncrementVersion()
	return nil
}

// Retry puts a failed attempt back in the queue
func (j *Job) Retry(cause error) error {
	if j.Status != StatusRunning {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot retry a %s job", j.Status))
	}
	j.Status = StatusPending
	if cause != nil {
		j.Error = cause.Error()
	}
	j.IncrementVersion()
	return nil
}

// Fail finishes the job with an error
func (j *Job) Fail(cause error) error {
	if j.Status.IsFinished() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot fail a %s job", j.Status))
	}
	now := time.Now()
	j.Status = StatusFailed
	if cause != nil {
		j.Error = cause.Error()
	}
	j.CompletedAt = &now
	j.IncrementVersion()
	return nil
}

// HasResult reports whether there is a downloadable artefact
func (j *Job) HasResult() bool {
	return j.Status == StatusSucceeded && j.ResultKey != ""
}

// ResultKeyFor builds the storage key of a job artefact
func ResultKeyFor(userID, jobID uuid.UUID, name string) string {
	return fmt.Sprintf("exports/%s/%s-%s", userID, jobID, name)
}
