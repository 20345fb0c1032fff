package functions

import (
	"context"
	"sync"

	"github.com/farmmarket/backend/internal/domain/catalog"
	"github.com/farmmarket/backend/internal/domain/identity"
	"github.com/farmmarket/backend/internal/domain/inventory"
	"github.com/farmmarket/backend/internal/domain/job"
	"github.com/farmmarket/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockJobRepository is a mock implementation of job.JobRepository
type MockJobRepository struct {
	mock.Mock
}

func (m *MockJobRepository) FindByID(ctx context.Context, id uuid.UUID) (*job.Job, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*job.Job), args.Error(1)
}

func (m *MockJobRepository) FindActive(ctx context.Context, userID uuid.UUID, kind job.Kind) (*job.Job, error) {
	args := m.Called(ctx, userID, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*job.Job), args.Error(1)
}

func (m *MockJobRepository) FindPending(ctx context.Context, limit int) ([]job.Job, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]job.Job), args.Error(1)
}

func (m *MockJobRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]job.Job, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]job.Job), args.Error(1)
}

func (m *MockJobRepository) Save(ctx context.Context, j *job.Job) error {
	args := m.Called(ctx, j)
	return args.Error(0)
}

// MockUserStore is a mock implementation of UserStore
type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserStore) Save(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// pageLister serves rows page by page and records the filters it saw
type pageLister[T any] struct {
	rows    []T
	filters []shared.Filter
}

func (l *pageLister[T]) FindAll(_ context.Context, filter shared.Filter) ([]T, int64, error) {
	l.filters = append(l.filters, filter)
	start := min((filter.Page-1)*filter.PageSize, len(l.rows))
	end := min(start+filter.PageSize, len(l.rows))
	return l.rows[start:end], int64(len(l.rows)), nil
}

// fakeProducts keeps a farmer's products in memory
type fakeProducts struct {
	products []catalog.Product
	saved    []uuid.UUID
}

func (f *fakeProducts) FindByFarmer(_ context.Context, farmerID uuid.UUID, filter shared.Filter) ([]catalog.Product, int64, error) {
	var own []catalog.Product
	for _, p := range f.products {
		if p.FarmerID == farmerID {
			own = append(own, p)
		}
	}
	start := min((filter.Page-1)*filter.PageSize, len(own))
	end := min(start+filter.PageSize, len(own))
	return own[start:end], int64(len(own)), nil
}

func (f *fakeProducts) Save(_ context.Context, p *catalog.Product) error {
	f.saved = append(f.saved, p.ID)
	for i := range f.products {
		if f.products[i].ID == p.ID {
			f.products[i].Status = p.Status
		}
	}
	return nil
}

// fakeStock serves stock items and a ledger
type fakeStock struct {
	items     []inventory.StockItem
	movements []inventory.StockMovement
}

func (f *fakeStock) FindByFarmer(_ context.Context, _ uuid.UUID, _ bool) ([]inventory.StockItem, error) {
	return f.items, nil
}

func (f *fakeStock) ListMovements(_ context.Context, _ uuid.UUID, filter inventory.MovementFilter) ([]inventory.StockMovement, int64, error) {
	start := min((filter.Page-1)*filter.PageSize, len(f.movements))
	end := min(start+filter.PageSize, len(f.movements))
	return f.movements[start:end], int64(len(f.movements)), nil
}

type recordingCanceller struct{ farmers []uuid.UUID }

func (r *recordingCanceller) CancelForAccountDeletion(_ context.Context, farmerID uuid.UUID) error {
	r.farmers = append(r.farmers, farmerID)
	return nil
}

type recordingRevoker struct{ users []uuid.UUID }

func (r *recordingRevoker) RevokeAllSessions(_ context.Context, user *identity.User) error {
	r.users = append(r.users, user.ID)
	return nil
}

type resumed struct {
	JobID        uuid.UUID
	AttemptsUsed int
}

type recordingDispatcher struct {
	submitted []uuid.UUID
	resumed   []resumed
	err       error
}

func (d *recordingDispatcher) Submit(jobID uuid.UUID) error {
	d.submitted = append(d.submitted, jobID)
	return d.err
}

func (d *recordingDispatcher) Resume(jobID uuid.UUID, attemptsUsed int) error {
	d.resumed = append(d.resumed, resumed{jobID, attemptsUsed})
	return d.err
}

// recordingPublisher captures published events
type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, len(p.events))
	for i, e := range p.events {
		types[i] = e.EventType()
	}
	return types
}

// memoryJobs is a job store that honours context cancellation like a database driver
type memoryJobs struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]job.Job
}

func newMemoryJobs(jobs ...*job.Job) *memoryJobs {
	m := &memoryJobs{jobs: make(map[uuid.UUID]job.Job)}
	for _, j := range jobs {
		m.jobs[j.ID] = *j
	}
	return m
}

func (m *memoryJobs) FindByID(ctx context.Context, id uuid.UUID) (*job.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &j, nil
}

func (m *memoryJobs) FindActive(ctx context.Context, userID uuid.UUID, kind job.Kind) (*job.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, j := range m.jobs {
		if j.RequestedBy == userID && j.Kind == kind && !j.Status.IsFinished() {
			return &j, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memoryJobs) FindPending(ctx context.Context, _ int) ([]job.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []job.Job
	for _, j := range m.jobs {
		if !j.Status.IsFinished() {
			out = append(out, j)
		}
	}
	return out, nil
}

func (m *memoryJobs) ListByUser(ctx context.Context, userID uuid.UUID, _ int) ([]job.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []job.Job
	for _, j := range m.jobs {
		if j.RequestedBy == userID {
			out = append(out, j)
		}
	}
	return out, nil
}

func (m *memoryJobs) Save(ctx context.Context, j *job.Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[j.ID] = *j
	return nil
}

func (m *memoryJobs) status(id uuid.UUID) job.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.jobs[id].Status
}

// blockingLister waits for the caller's deadline
type blockingLister[T any] struct{}

func (blockingLister[T]) FindAll(ctx context.Context, _ shared.Filter) ([]T, int64, error) {
	<-ctx.Done()
	return nil, 0, ctx.Err()
}
