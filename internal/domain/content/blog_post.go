package content

import (
	"strings"
	"time"

	"github.com/farmmarket/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// PostStatus is the publication state of a blog post
type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusPublished PostStatus = "published"
)

// IsValid checks if the status is known
func (s PostStatus) IsValid() bool {
	return s == PostStatusDraft || s == PostStatusPublished
}

const (
	maxTitleLength   = 200
	maxExcerptLength = 500
	maxBodyLength    = 100_000
)

// BlogPost is a farmer's article shown on the farm page
type BlogPost struct {
	shared.BaseAggregateRoot
	FarmerID      uuid.UUID  `gorm:"type:uuid;not null;index"`
	Title         string     `gorm:"type:varchar(200);not null"`
	Slug          string     `gorm:"type:varchar(140);not null;uniqueIndex"`
	Excerpt       string     `gorm:"type:varchar(500)"`
	Body          string     `gorm:"type:text;not null"`
	CoverImageURL string     `gorm:"type:varchar(500)"`
	Status        PostStatus `gorm:"type:varchar(20);not null;index"`
	PublishedAt   *time.Time `gorm:"index"`
}

// TableName returns the table name for GORM
func (BlogPost) TableName() string {
	return "blog_posts"
}

// NewBlogPost creates a draft post; the slug comes from the title
func NewBlogPost(farmerID uuid.UUID, title, body string) (*BlogPost, error) {
	if farmerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_FARMER", "Farmer is required")
	}
	title = strings.TrimSpace(title)
	if err := validateTitle(title); err != nil {
		return nil, err
	}
	if err := validateBody(body); err != nil {
		return nil, err
	}
	slug := shared.Slugify(title)
	if slug == "" {
		slug = "post"
	}
	return &BlogPost{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		FarmerID:          farmerID,
		Title:             title,
		Slug:              slug,
		Body:              body,
		Status:            PostStatusDraft,
	}, nil
}

// PostUpdate holds optional changes; nil fields are left alone
type PostUpdate struct {
	Title         *string
	Excerpt       *string
	Body          *string
	CoverImageURL *string
}

// Update applies field changes. The slug is kept so links stay valid.
func (p *BlogPost) Update(u PostUpdate) error {
	if u.Title != nil {
		t := strings.TrimSpace(*u.Title)
		if err := validateTitle(t); err != nil {
			return err
		}
		p.Title = t
	}
	if u.Excerpt != nil {
		e := strings.TrimSpace(*u.Excerpt)
		if len(e) > maxExcerptLength {
			return shared.NewDomainError("INVALID_EXCERPT", "Excerpt cannot exceed 500 characters")
		}
		p.Excerpt = e
	}
	if u.Body != nil {
		if err := validateBody(*u.Body); err != nil {
			return err
		}
		p.Body = *u.Body
	}
	if u.CoverImageURL != nil {
		p.CoverImageURL = strings.TrimSpace(*u.CoverImageURL)
	}
	p.IncrementVersion()
	return nil
}

// SetSlug replaces the slug, used when the derived one is taken
func (p *BlogPost) SetSlug(slug string) {
	p.Slug = slug
}

// Publish makes the post public
func (p *BlogPost) Publish() error {
	if p.Status == PostStatusPublished {
		return shared.NewDomainError("ALREADY_PUBLISHED", "Post is already published")
	}
	now := time.Now()
	p.Status = PostStatusPublished
	p.PublishedAt = &now
	p.IncrementVersion()
	return nil
}

// Unpublish returns the post to draft
func (p *BlogPost) Unpublish() error {
	if p.Status != PostStatusPublished {
		return shared.NewDomainError("NOT_PUBLISHED", "Post is not published")
	}
	p.Status = PostStatusDraft
	p.PublishedAt = nil
	p.IncrementVersion()
	return nil
}

// IsPublished returns true for public posts
func (p *BlogPost) IsPublished() bool {
	return p.Status == PostStatusPublished
}

func validateTitle(title string) error {
	if title == "" {
		return shared.NewDomainError("INVALID_TITLE", "Title cannot be empty")
	}
	if len(title) > maxTitleLength {
		return shared.NewDomainError("INVALID_TITLE", "Title cannot exceed 200 characters")
	}
	return nil
}

func validateBody(body string) error {
	if strings.TrimSpace(body) == "" {
		return shared.NewDomainError("INVALID_BODY", "Body cannot be empty")
	}
	if len(body) > maxBodyLength {
		return shared.NewDomainError("INVALID_BODY", "Body is too long")
	}
	return nil
}
