package content

import (
	"context"
	"testing"
	"time"

	"github.com/farmmarket/backend/internal/domain/content"
	"github.com/farmmarket/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPostService_CreateSuffixesTakenSlug(t *testing.T) {
	repo := new(MockBlogPostRepository)
	svc := NewPostService(repo, zap.NewNop())
	farmerID := uuid.New()

	repo.On("ExistsBySlug", mock.Anything, "spring-lambs").Return(true, nil)
	repo.On("ExistsBySlug", mock.Anything, "spring-lambs-2").Return(false, nil)
	repo.On("Save", mock.Anything, mock.AnythingOfType("*content.BlogPost")).Return(nil)

	resp, err := svc.Create(context.Background(), farmerID, CreatePostRequest{
		Title:   "Spring Lambs",
		Excerpt: "  New arrivals  ",
		Body:    "Twelve lambs this week.",
	})
	require.NoError(t, err)
	assert.Equal(t, "spring-lambs-2", resp.Slug)
	assert.Equal(t, "New arrivals", resp.Excerpt)
	assert.Equal(t, "draft", resp.Status)
	assert.Nil(t, resp.PublishedAt)
}

func TestPostService_CreateRequiresTitle(t *testing.T) {
	svc := NewPostService(new(MockBlogPostRepository), zap.NewNop())

	_, err := svc.Create(context.Background(), uuid.New(), CreatePostRequest{Title: "   ", Body: "text"})
	assert.ErrorIs(t, err, shared.NewDomainError("INVALID_TITLE", ""))
}

func TestPostService_PublishLifecycle(t *testing.T) {
	repo := new(MockBlogPostRepository)
	svc := NewPostService(repo, zap.NewNop())
	farmerID := uuid.New()
	post, err := content.NewBlogPost(farmerID, "Harvest notes", "Beans are in.")
	require.NoError(t, err)
	post.MarkPersisted()

	repo.On("FindByID", mock.Anything, post.ID).Return(post, nil)
	repo.On("Save", mock.Anything, post).Return(nil)
	repo.On("FindBySlug", mock.Anything, "harvest-notes").Return(post, nil)

	_, err = svc.GetPublished(context.Background(), "harvest-notes")
	assert.ErrorIs(t, err, shared.NewDomainError("POST_NOT_FOUND", ""))

	resp, err := svc.Publish(context.Background(), farmerID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "published", resp.Status)
	assert.NotNil(t, resp.PublishedAt)

	public, err := svc.GetPublished(context.Background(), "harvest-notes")
	require.NoError(t, err)
	assert.Equal(t, "Beans are in.", public.Body)

	_, err = svc.Publish(context.Background(), farmerID, post.ID)
	assert.ErrorIs(t, err, shared.NewDomainError("ALREADY_PUBLISHED", ""))

	_, err = svc.Unpublish(context.Background(), uuid.New(), post.ID)
	assert.ErrorIs(t, err, shared.NewDomainError("POST_NOT_FOUND", ""))
}

func TestPostService_ListPublishedOmitsBody(t *testing.T) {
	repo := new(MockBlogPostRepository)
	svc := NewPostService(repo, zap.NewNop())
	farmerID := uuid.New()
	post, err := content.NewBlogPost(farmerID, "Open day", "Come visit.")
	require.NoError(t, err)
	require.NoError(t, post.Publish())

	repo.On("FindAll", mock.Anything, mock.MatchedBy(func(f shared.Filter) bool {
		return f.Filters[content.FilterStatus] == content.PostStatusPublished &&
			f.Filters[content.FilterFarmerID] == farmerID &&
			f.OrderBy == "published_at"
	})).Return([]content.BlogPost{*post}, int64(1), nil)

	page, err := svc.ListPublished(context.Background(), ListPostsRequest{FarmerID: &farmerID})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Empty(t, page.Items[0].Body)
	assert.Equal(t, 1, page.TotalPages)
}

func TestEventService_CreateValidatesSchedule(t *testing.T) {
	repo := new(MockFarmEventRepository)
	svc := NewEventService(repo, zap.NewNop())
	start := time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC)

	_, err := svc.Create(context.Background(), uuid.New(), EventRequest{
		Title:    "Open day",
		StartsAt: start,
		EndsAt:   start.Add(-time.Hour),
	})
	assert.ErrorIs(t, err, shared.NewDomainError("INVALID_SCHEDULE", ""))
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)

	repo.On("Save", mock.Anything, mock.AnythingOfType("*content.FarmEvent")).Return(nil)
	resp, err := svc.Create(context.Background(), uuid.New(), EventRequest{
		Title:    " Open day ",
		Location: "Barn 2",
		StartsAt: start,
		EndsAt:   start.Add(4 * time.Hour),
		Capacity: 40,
	})
	require.NoError(t, err)
	assert.Equal(t, "Open day", resp.Title)
	assert.Equal(t, "scheduled", resp.Status)
}

func TestEventService_CancelledEventsCannotBeEdited(t *testing.T) {
	repo := new(MockFarmEventRepository)
	svc := NewEventService(repo, zap.NewNop())
	farmerID := uuid.New()
	start := time.Now().Add(48 * time.Hour)
	event, err := content.NewFarmEvent(farmerID, content.EventDetails{Title: "Workshop", StartsAt: start, EndsAt: start.Add(time.Hour)})
	require.NoError(t, err)

	repo.On("FindByID", mock.Anything, event.ID).Return(event, nil)
	repo.On("Save", mock.Anything, event).Return(nil)

	resp, err := svc.Cancel(context.Background(), farmerID, event.ID)
	require.NoError(t, err)
	assert.Equal(t, "cancelled", resp.Status)

	_, err = svc.Update(context.Background(), farmerID, event.ID, EventRequest{Title: "Workshop", StartsAt: start, EndsAt: start.Add(2 * time.Hour)})
	assert.ErrorIs(t, err, shared.NewDomainError("EVENT_CANCELLED", ""))
}

func TestEventService_ListUpcoming(t *testing.T) {
	repo := new(MockFarmEventRepository)
	svc := NewEventService(repo, zap.NewNop())
	now := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	repo.On("FindUpcoming", mock.Anything, (*uuid.UUID)(nil), now, 1, 20).Return([]content.FarmEvent{}, int64(0), nil)

	page, err := svc.ListUpcoming(context.Background(), ListEventsRequest{})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.NotNil(t, page.Items)
}
