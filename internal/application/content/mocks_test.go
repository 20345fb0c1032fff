package content

import (
	"context"
	"time"

	"github.com/farmmarket/backend/internal/domain/content"
	"github.com/farmmarket/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockBlogPostRepository is a mock implementation of content.BlogPostRepository
type MockBlogPostRepository struct {
	mock.Mock
}

func (m *MockBlogPostRepository) FindByID(ctx context.Context, id uuid.UUID) (*content.BlogPost, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*content.BlogPost), args.Error(1)
}

func (m *MockBlogPostRepository) FindBySlug(ctx context.Context, slug string) (*content.BlogPost, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*content.BlogPost), args.Error(1)
}

func (m *MockBlogPostRepository) FindAll(ctx context.Context, filter shared.Filter) ([]content.BlogPost, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]content.BlogPost), args.Get(1).(int64), args.Error(2)
}

func (m *MockBlogPostRepository) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	args := m.Called(ctx, slug)
	return args.Bool(0), args.Error(1)
}

func (m *MockBlogPostRepository) Save(ctx context.Context, post *content.BlogPost) error {
	args := m.Called(ctx, post)
	return args.Error(0)
}

func (m *MockBlogPostRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockFarmEventRepository is a mock implementation of content.FarmEventRepository
type MockFarmEventRepository struct {
	mock.Mock
}

func (m *MockFarmEventRepository) FindByID(ctx context.Context, id uuid.UUID) (*content.FarmEvent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*content.FarmEvent), args.Error(1)
}

func (m *MockFarmEventRepository) FindAll(ctx context.Context, filter shared.Filter) ([]content.FarmEvent, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]content.FarmEvent), args.Get(1).(int64), args.Error(2)
}

func (m *MockFarmEventRepository) FindUpcoming(ctx context.Context, farmerID *uuid.UUID, now time.Time, page, pageSize int) ([]content.FarmEvent, int64, error) {
	args := m.Called(ctx, farmerID, now, page, pageSize)
	return args.Get(0).([]content.FarmEvent), args.Get(1).(int64), args.Error(2)
}

func (m *MockFarmEventRepository) Save(ctx context.Context, event *content.FarmEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockFarmEventRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
