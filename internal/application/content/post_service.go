package content

import (
	"context"
	"errors"
	"fmt"

	"github.com/farmmarket/backend/internal/domain/content"
	"github.com/farmmarket/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxSlugAttempts = 50

var errPostNotFound = shared.NewDomainError("POST_NOT_FOUND", "Post not found")

// PostService manages farmer blog posts and their public listing
type PostService struct {
	repo   content.BlogPostRepository
	logger *zap.Logger
}

// NewPostService creates a new PostService
func NewPostService(repo content.BlogPostRepository, logger *zap.Logger) *PostService {
	return &PostService{repo: repo, logger: logger}
}

// Create stores a new draft with a unique slug
func (s *PostService) Create(ctx context.Context, farmerID uuid.UUID, req CreatePostRequest) (*PostResponse, error) {
	post, err := content.NewBlogPost(farmerID, req.Title, req.Body)
	if err != nil {
		return nil, err
	}
	if req.Excerpt != "" || req.CoverImageURL != "" {
		if err := post.Update(content.PostUpdate{Excerpt: &req.Excerpt, CoverImageURL: &req.CoverImageURL}); err != nil {
			return nil, err
		}
	}
	slug, err := s.uniqueSlug(ctx, post.Slug)
	if err != nil {
		return nil, err
	}
	post.SetSlug(slug)

	if err := s.repo.Save(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to save post: %w", err)
	}
	s.logger.Info("Post created",
		zap.String("post_id", post.ID.String()),
		zap.String("farmer_id", farmerID.String()),
		zap.String("slug", post.Slug))
	resp := toPostResponse(post, true)
	return &resp, nil
}

// Get returns one of the farmer's posts, drafts included
func (s *PostService) Get(ctx context.Context, farmerID, postID uuid.UUID) (*PostResponse, error) {
	post, err := s.loadOwned(ctx, farmerID, postID)
	if err != nil {
		return nil, err
	}
	resp := toPostResponse(post, true)
	return &resp, nil
}

// ListMine lists the farmer's posts
func (s *PostService) ListMine(ctx context.Context, farmerID uuid.UUID, req ListPostsRequest) (shared.Paginated[PostResponse], error) {
	req.FarmerID = &farmerID
	return s.list(ctx, req)
}

// Update edits a post
func (s *PostService) Update(ctx context.Context, farmerID, postID uuid.UUID, req UpdatePostRequest) (*PostResponse, error) {
	post, err := s.loadOwned(ctx, farmerID, postID)
	if err != nil {
		return nil, err
	}
	if err := post.Update(content.PostUpdate{
		Title:         req.Title,
		Excerpt:       req.Excerpt,
		Body:          req.Body,
		CoverImageURL: req.CoverImageURL,
	}); err != nil {
		return nil, err
	}
	return s.save(ctx, post)
}

// Publish makes a post public
func (s *PostService) Publish(ctx context.Context, farmerID, postID uuid.UUID) (*PostResponse, error) {
	post, err := s.loadOwned(ctx, farmerID, postID)
	if err != nil {
		return nil, err
	}
	if err := post.Publish(); err != nil {
		return nil, err
	}
	return s.save(ctx, post)
}

// Unpublish returns a post to draft
func (s *PostService) Unpublish(ctx context.Context, farmerID, postID uuid.UUID) (*PostResponse, error) {
	post, err := s.loadOwned(ctx, farmerID, postID)
	if err != nil {
		return nil, err
	}
	if err := post.Unpublish(); err != nil {
		return nil, err
	}
	return s.save(ctx, post)
}

// Delete removes a post
func (s *PostService) Delete(ctx context.Context, farmerID, postID uuid.UUID) error {
	post, err := s.loadOwned(ctx, farmerID, postID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, post.ID); err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	s.logger.Info("Post deleted", zap.String("post_id", post.ID.String()))
	return nil
}

// ListPublished lists public posts, optionally for one farmer
func (s *PostService) ListPublished(ctx context.Context, req ListPostsRequest) (shared.Paginated[PostResponse], error) {
	req.Status = string(content.PostStatusPublished)
	return s.list(ctx, req)
}

// GetPublished returns a public post by slug
func (s *PostService) GetPublished(ctx context.Context, slug string) (*PostResponse, error) {
	post, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, errPostNotFound
		}
		return nil, err
	}
	if !post.IsPublished() {
		return nil, errPostNotFound
	}
	resp := toPostResponse(post, true)
	return &resp, nil
}

func (s *PostService) list(ctx context.Context, req ListPostsRequest) (shared.Paginated[PostResponse], error) {
	filter := shared.Filter{
		Page:     req.Page,
		PageSize: req.PageSize,
		OrderBy:  "created_at",
		OrderDir: "desc",
	}.Normalize()
	if req.FarmerID != nil {
		filter = filter.With(content.FilterFarmerID, *req.FarmerID)
	}
	if req.Status != "" {
		filter = filter.With(content.FilterStatus, content.PostStatus(req.Status))
		if req.Status == string(content.PostStatusPublished) {
			filter.OrderBy = "published_at"
		}
	}

	posts, total, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return shared.Paginated[PostResponse]{}, err
	}
	items := make([]PostResponse, len(posts))
	for i := range posts {
		items[i] = toPostResponse(&posts[i], false)
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

func (s *PostService) save(ctx context.Context, post *content.BlogPost) (*PostResponse, error) {
	if err := s.repo.Save(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to save post: %w", err)
	}
	s.logger.Info("Post updated",
		zap.String("post_id", post.ID.String()),
		zap.String("status", string(post.Status)))
	resp := toPostResponse(post, true)
	return &resp, nil
}

func (s *PostService) loadOwned(ctx context.Context, farmerID, postID uuid.UUID) (*content.BlogPost, error) {
	post, err := s.repo.FindByID(ctx, postID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, errPostNotFound
		}
		return nil, err
	}
	if post.FarmerID != farmerID {
		return nil, errPostNotFound
	}
	return post, nil
}

func (s *PostService) uniqueSlug(ctx context.Context, base string) (string, error) {
	slug := base
	for i := 2; i <= maxSlugAttempts+1; i++ {
		taken, err := s.repo.ExistsBySlug(ctx, slug)
		if err != nil {
			return "", fmt.Errorf("failed to check slug: %w", err)
		}
		if !taken {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
	return fmt.Sprintf("%s-%s", base, uuid.NewString()[:8]), nil
}
