package functions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/farmmarket/backend/internal/domain/catalog"
	"github.com/farmmarket/backend/internal/domain/content"
	"github.com/farmmarket/backend/internal/domain/identity"
	"github.com/farmmarket/backend/internal/domain/inventory"
	"github.com/farmmarket/backend/internal/domain/job"
	"github.com/farmmarket/backend/internal/domain/moderation"
	"github.com/farmmarket/backend/internal/domain/order"
	"github.com/farmmarket/backend/internal/domain/shared"
	"github.com/farmmarket/backend/internal/infrastructure/scheduler"
	"github.com/farmmarket/backend/internal/infrastructure/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	recentJobLimit    = 20
	resumeBatch       = 100
	statusSaveTimeout = 5 * time.Second
)

var (
	errJobNotFound     = shared.NewDomainError("JOB_NOT_FOUND", "Job not found")
	errInvalidPassword = shared.NewDomainError("INVALID_PASSWORD", "Password is incorrect")
	errAccountDeleted  = shared.NewDomainError("ACCOUNT_DELETED", "Account has been deleted")
	errFarmerOnly      = shared.NewDomainError("FORBIDDEN", "Only farmers can export inventory")
)

// ResultStore is the part of object storage the functions need
type ResultStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	PresignDownload(ctx context.Context, key string, expiresIn time.Duration) (storage.PresignedURL, error)
	Delete(ctx context.Context, key string) error
}

// Dispatcher queues jobs for asynchronous execution
type Dispatcher interface {
	Submit(jobID uuid.UUID) error
	Resume(jobID uuid.UUID, attemptsUsed int) error
}

// SubscriptionCanceller ends a farmer's subscription when the account goes away
type SubscriptionCanceller interface {
	CancelForAccountDeletion(ctx context.Context, farmerID uuid.UUID) error
}

// SessionRevoker invalidates every token of a user
type SessionRevoker interface {
	RevokeAllSessions(ctx context.Context, user *identity.User) error
}

// UserStore loads and saves accounts
type UserStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error)
	Save(ctx context.Context, user *identity.User) error
}

// ProductStore lists and saves a farmer's products
type ProductStore interface {
	FindByFarmer(ctx context.Context, farmerID uuid.UUID, filter shared.Filter) ([]catalog.Product, int64, error)
	Save(ctx context.Context, product *catalog.Product) error
}

// StockReader reads a farmer's stock and ledger
type StockReader interface {
	FindByFarmer(ctx context.Context, farmerID uuid.UUID, lowStockOnly bool) ([]inventory.StockItem, error)
	ListMovements(ctx context.Context, farmerID uuid.UUID, filter inventory.MovementFilter) ([]inventory.StockMovement, int64, error)
}

// Lister is a filtered, paginated listing
type Lister[T any] interface {
	FindAll(ctx context.Context, filter shared.Filter) ([]T, int64, error)
}

// Deps groups the repositories and collaborators the functions read and write
type Deps struct {
	Jobs          job.JobRepository
	Users         UserStore
	Orders        Lister[order.Order]
	Products      ProductStore
	Stock         StockReader
	Disputes      Lister[moderation.Dispute]
	Messages      Lister[moderation.Message]
	Posts         Lister[content.BlogPost]
	Events        Lister[content.FarmEvent]
	Subscriptions SubscriptionCanceller
	Sessions      SessionRevoker
	Store         ResultStore
	Publisher     shared.EventPublisher
}

// FunctionService runs the data export, inventory export and account deletion functions
type FunctionService struct {
	deps        Deps
	dispatcher  Dispatcher
	downloadTTL time.Duration
	logger      *zap.Logger
	now         func() time.Time
}

// NewFunctionService creates a new FunctionService. The dispatcher is attached
// with SetDispatcher once the worker pool built around the service exists.
func NewFunctionService(deps Deps, downloadTTL time.Duration, logger *zap.Logger) *FunctionService {
	if downloadTTL <= 0 {
		downloadTTL = 15 * time.Minute
	}
	return &FunctionService{
		deps:        deps,
		downloadTTL: downloadTTL,
		logger:      logger,
		now:         time.Now,
	}
}

// SetDispatcher attaches the queue jobs are submitted to
func (s *FunctionService) SetDispatcher(d Dispatcher) {
	s.dispatcher = d
}

// RequestDataExport queues a JSON export of everything the user owns
func (s *FunctionService) RequestDataExport(ctx context.Context, userID uuid.UUID) (*JobResponse, error) {
	if _, err := s.activeUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.request(ctx, userID, job.KindDataExport)
}

// RequestInventoryExport queues a CSV export of a farmer's stock and ledger
func (s *FunctionService) RequestInventoryExport(ctx context.Context, userID uuid.UUID) (*JobResponse, error) {
	user, err := s.activeUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsFarmer() {
		return nil, errFarmerOnly
	}
	return s.request(ctx, userID, job.KindInventoryExport)
}

// RequestAccountDeletion queues deletion of the caller's account after checking the password
func (s *FunctionService) RequestAccountDeletion(ctx context.Context, userID uuid.UUID, req AccountDeletionRequest) (*JobResponse, error) {
	user, err := s.activeUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.VerifyPassword(req.Password) {
		return nil, errInvalidPassword
	}
	return s.request(ctx, userID, job.KindAccountDeletion)
}

// GetJob returns one of the user's jobs with a download URL when a result exists
func (s *FunctionService) GetJob(ctx context.Context, userID, jobID uuid.UUID) (*JobResponse, error) {
	j, err := s.deps.Jobs.FindByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, errJobNotFound
		}
		return nil, err
	}
	if j.RequestedBy != userID {
		return nil, errJobNotFound
	}
	resp := toJobResponse(j)
	if j.HasResult() {
		url, err := s.deps.Store.PresignDownload(ctx, j.ResultKey, s.downloadTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to presign download: %w", err)
		}
		resp.DownloadURL = url.URL
		resp.DownloadExpiresAt = &url.ExpiresAt
	}
	return &resp, nil
}

// ListJobs returns the user's latest jobs
func (s *FunctionService) ListJobs(ctx context.Context, userID uuid.UUID) ([]JobResponse, error) {
	jobs, err := s.deps.Jobs.ListByUser(ctx, userID, recentJobLimit)
	if err != nil {
		return nil, err
	}
	out := make([]JobResponse, len(jobs))
	for i := range jobs {
		out[i] = toJobResponse(&jobs[i])
	}
	return out, nil
}

// ResumePending re-queues every job left pending or running by a previous process
func (s *FunctionService) ResumePending(ctx context.Context) (int, error) {
	return s.resume(ctx, time.Time{})
}

// resume re-queues unfinished jobs last touched before cutoff. A zero cutoff
// takes all of them.
func (s *FunctionService) resume(ctx context.Context, cutoff time.Time) (int, error) {
	if s.dispatcher == nil {
		return 0, nil
	}
	jobs, err := s.deps.Jobs.FindPending(ctx, resumeBatch)
	if err != nil {
		return 0, fmt.Errorf("failed to load pending jobs: %w", err)
	}
	resumed := 0
	for i := range jobs {
		j := &jobs[i]
		if !cutoff.IsZero() && j.UpdatedAt.After(cutoff) {
			continue
		}
		if err := s.dispatcher.Resume(j.ID, j.Attempts); err != nil {
			s.logger.Warn("Failed to resume job", zap.String("job_id", j.ID.String()), zap.Error(err))
			continue
		}
		resumed++
	}
	if resumed > 0 {
		s.logger.Info("Resumed pending jobs", zap.Int("count", resumed))
	}
	return resumed, nil
}

// Execute implements scheduler.JobExecutor
func (s *FunctionService) Execute(ctx context.Context, task scheduler.Task) error {
	j, err := s.deps.Jobs.FindByID(ctx, task.JobID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("Job vanished before execution", zap.String("job_id", task.JobID.String()))
			return nil
		}
		return err
	}
	if j.Status.IsFinished() {
		return nil
	}
	if err := j.Start(); err != nil {
		return err
	}
	if err := s.saveStatus(ctx, j); err != nil {
		return fmt.Errorf("failed to mark job running: %w", err)
	}

	key, contentType, runErr := s.run(ctx, j)
	if runErr == nil {
		if err := j.Succeed(key, contentType); err != nil {
			return err
		}
		if err := s.saveStatus(ctx, j); err != nil {
			return fmt.Errorf("failed to mark job succeeded: %w", err)
		}
		s.logger.Info("Job succeeded",
			zap.String("job_id", j.ID.String()),
			zap.String("kind", string(j.Kind)),
			zap.Int("attempts", j.Attempts))
		return nil
	}

	transition := j.Retry
	if task.IsLastAttempt() {
		transition = j.Fail
	}
	if err := transition(runErr); err != nil {
		s.logger.Error("Failed to transition job after error",
			zap.String("job_id", j.ID.String()),
			zap.String("status", string(j.Status)),
			zap.NamedError("cause", runErr),
			zap.Error(err))
		return runErr
	}
	if err := s.saveStatus(ctx, j); err != nil {
		s.logger.Error("Failed to record job failure", zap.String("job_id", j.ID.String()), zap.Error(err))
	}
	return runErr
}

// saveStatus persists a state change even after the attempt's deadline has
// passed, otherwise a timed-out job would stay running.
func (s *FunctionService) saveStatus(ctx context.Context, j *job.Job) error {
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), statusSaveTimeout)
	defer cancel()
	return s.deps.Jobs.Save(saveCtx, j)
}

func (s *FunctionService) run(ctx context.Context, j *job.Job) (string, string, error) {
	switch j.Kind {
	case job.KindDataExport:
		data, err := s.buildDataExport(ctx, j.RequestedBy)
		if err != nil {
			return "", "", err
		}
		return s.store(ctx, j, "data-export.json", "application/json", data)
	case job.KindInventoryExport:
		data, err := s.buildInventoryExport(ctx, j.RequestedBy)
		if err != nil {
			return "", "", err
		}
		return s.store(ctx, j, "inventory.csv", "text/csv", data)
	case job.KindAccountDeletion:
		return "", "", s.deleteAccount(ctx, j.RequestedBy)
	default:
		return "", "", fmt.Errorf("unsupported job kind %q", j.Kind)
	}
}

func (s *FunctionService) store(ctx context.Context, j *job.Job, name, contentType string, data []byte) (string, string, error) {
	key := job.ResultKeyFor(j.RequestedBy, j.ID, name)
	if err := s.deps.Store.Put(ctx, key, data, contentType); err != nil {
		return "", "", fmt.Errorf("failed to store %s: %w", name, err)
	}
	return key, contentType, nil
}

// request reuses an in-flight job of the same kind, otherwise creates and submits one
func (s *FunctionService) request(ctx context.Context, userID uuid.UUID, kind job.Kind) (*JobResponse, error) {
	existing, err := s.deps.Jobs.FindActive(ctx, userID, kind)
	if err == nil {
		resp := toJobResponse(existing)
		return &resp, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	j, err := job.NewJob(kind, userID)
	if err != nil {
		return nil, err
	}
	if err := s.deps.Jobs.Save(ctx, j); err != nil {
		return nil, fmt.Errorf("failed to save job: %w", err)
	}
	if s.dispatcher != nil {
		if err := s.dispatcher.Submit(j.ID); err != nil {
			// The job stays pending until the recovery sweep re-queues it
			s.logger.Warn("Failed to submit job", zap.String("job_id", j.ID.String()), zap.Error(err))
		}
	}
	s.logger.Info("Job requested",
		zap.String("job_id", j.ID.String()),
		zap.String("kind", string(kind)),
		zap.String("user_id", userID.String()))
	resp := toJobResponse(j)
	return &resp, nil
}

func (s *FunctionService) activeUser(ctx context.Context, userID uuid.UUID) (*identity.User, error) {
	user, err := s.deps.Users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Status == identity.UserStatusDeleted {
		return nil, errAccountDeleted
	}
	return user, nil
}

var _ scheduler.JobExecutor = (*FunctionService)(nil)
