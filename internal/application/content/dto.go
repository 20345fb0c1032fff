package content

import (
	"time"

	"github.com/farmmarket/backend/internal/domain/content"
	"github.com/google/uuid"
)

// CreatePostRequest creates a draft blog post
type CreatePostRequest struct {
	Title         string `json:"title" binding:"required,max=200"`
	Excerpt       string `json:"excerpt" binding:"max=500"`
	Body          string `json:"body" binding:"required"`
	CoverImageURL string `json:"cover_image_url" binding:"omitempty,url,max=500"`
}

// UpdatePostRequest changes post fields; omitted fields are kept
type UpdatePostRequest struct {
	Title         *string `json:"title" binding:"omitempty,max=200"`
	Excerpt       *string `json:"excerpt" binding:"omitempty,max=500"`
	Body          *string `json:"body"`
	CoverImageURL *string `json:"cover_image_url" binding:"omitempty,max=500"`
}

// ListPostsRequest filters posts
type ListPostsRequest struct {
	FarmerID *uuid.UUID `form:"-"`
	Status   string     `form:"status" binding:"omitempty,oneof=draft published"`
	Page     int        `form:"page" binding:"omitempty,min=1"`
	PageSize int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// EventRequest creates or reschedules a farm event
type EventRequest struct {
	Title       string    `json:"title" binding:"required,max=200"`
	Description string    `json:"description"`
	Location    string    `json:"location" binding:"max=255"`
	StartsAt    time.Time `json:"starts_at" binding:"required"`
	EndsAt      time.Time `json:"ends_at" binding:"required"`
	Capacity    int       `json:"capacity" binding:"min=0"`
}

// ListEventsRequest filters events
type ListEventsRequest struct {
	FarmerID *uuid.UUID `form:"-"`
	Status   string     `form:"status" binding:"omitempty,oneof=scheduled cancelled"`
	Page     int        `form:"page" binding:"omitempty,min=1"`
	PageSize int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// PostResponse represents a blog post
type PostResponse struct {
	ID            uuid.UUID  `json:"id"`
	FarmerID      uuid.UUID  `json:"farmer_id"`
	Title         string     `json:"title"`
	Slug          string     `json:"slug"`
	Excerpt       string     `json:"excerpt"`
	Body          string     `json:"body,omitempty"`
	CoverImageURL string     `json:"cover_image_url,omitempty"`
	Status        string     `json:"status"`
	PublishedAt   *time.Time `json:"published_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// EventResponse represents a farm event
type EventResponse struct {
	ID          uuid.UUID `json:"id"`
	FarmerID    uuid.UUID `json:"farmer_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
	Capacity    int       `json:"capacity"`
	Status      string    `json:"status"`
}

// toPostResponse converts a post; lists leave the body out
func toPostResponse(p *content.BlogPost, withBody bool) PostResponse {
	resp := PostResponse{
		ID:            p.ID,
		FarmerID:      p.FarmerID,
		Title:         p.Title,
		Slug:          p.Slug,
		Excerpt:       p.Excerpt,
		CoverImageURL: p.CoverImageURL,
		Status:        string(p.Status),
		PublishedAt:   p.PublishedAt,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
	if withBody {
		resp.Body = p.Body
	}
	return resp
}

func toEventResponse(e *content.FarmEvent) EventResponse {
	return EventResponse{
		ID:          e.ID,
		FarmerID:    e.FarmerID,
		Title:       e.Title,
		Description: e.Description,
		Location:    e.Location,
		StartsAt:    e.StartsAt,
		EndsAt:      e.EndsAt,
		Capacity:    e.Capacity,
		Status:      string(e.Status),
	}
}

func (r EventRequest) details() content.EventDetails {
	return content.EventDetails{
		Title:       r.Title,
		Description: r.Description,
		Location:    r.Location,
		StartsAt:    r.StartsAt,
		EndsAt:      r.EndsAt,
		Capacity:    r.Capacity,
	}
}
