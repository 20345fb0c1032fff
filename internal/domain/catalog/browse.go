package catalog

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SortOption selects the storefront ordering
type SortOption string

const (
	SortNewest    SortOption = "newest"
	SortPriceAsc  SortOption = "price_asc"
	SortPriceDesc SortOption = "price_desc"
	SortNameAsc   SortOption = "name_asc"
	SortNameDesc  SortOption = "name_desc"
	SortRating    SortOption = "rating"
	SortPopular   SortOption = "popular"
)

// ParseSortOption maps user input to a SortOption; unknown values sort by newest
func ParseSortOption(s string) SortOption {
	switch o := SortOption(strings.ToLower(strings.TrimSpace(s))); o {
	case SortPriceAsc, SortPriceDesc, SortNameAsc, SortNameDesc, SortRating, SortPopular:
		return o
	default:
		return SortNewest
	}
}

// Listing is the storefront read model of an active product
type Listing struct {
	ProductID   uuid.UUID       `json:"product_id"`
	FarmerID    uuid.UUID       `json:"farmer_id"`
	FarmName    string          `json:"farm_name"`
	CategoryID  *uuid.UUID      `json:"category_id,omitempty"`
	Name        string          `json:"name"`
	Slug        string          `json:"slug"`
	Description string          `json:"description"`
	Unit        string          `json:"unit"`
	Price       decimal.Decimal `json:"price"`
	Currency    string          `json:"currency"`
	Organic     bool            `json:"organic"`
	ImageURL    string          `json:"image_url"`
	Tags        string          `json:"tags"`
	Rating      decimal.Decimal `json:"rating"`
	SoldCount   int             `json:"sold_count"`
	Stock       int             `json:"stock"`
	PublishedAt time.Time       `json:"published_at"`
}

// InStock reports whether any variant has stock
func (l Listing) InStock() bool {
	return l.Stock > 0
}

// BrowseQuery holds the storefront filters, sort and page
type BrowseQuery struct {
	Search     string
	CategoryID *uuid.UUID
	FarmerID   *uuid.UUID
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	Organic    *bool
	InStock    bool
	Sort       SortOption
	Page       int
	PageSize   int
}

// Matches applies every filter predicate to one listing
func (q BrowseQuery) Matches(l Listing) bool {
	if q.CategoryID != nil && (l.CategoryID == nil || *l.CategoryID != *q.CategoryID) {
		return false
	}
	if q.FarmerID != nil && l.FarmerID != *q.FarmerID {
		return false
	}
	if q.MinPrice != nil && l.Price.LessThan(*q.MinPrice) {
		return false
	}
	if q.MaxPrice != nil && l.Price.GreaterThan(*q.MaxPrice) {
		return false
	}
	if q.Organic != nil && l.Organic != *q.Organic {
		return false
	}
	if q.InStock && !l.InStock() {
		return false
	}
	if term := strings.ToLower(strings.TrimSpace(q.Search)); term != "" {
		if !strings.Contains(strings.ToLower(l.Name), term) &&
			!strings.Contains(strings.ToLower(l.Description), term) &&
			!strings.Contains(l.Tags, term) &&
			!strings.Contains(strings.ToLower(l.FarmName), term) {
			return false
		}
	}
	return true
}

// Compare orders two listings for the query's sort. Ties fall back to
// product ID so pages are stable.
func (q BrowseQuery) Compare(a, b Listing) int {
	var c int
	switch q.Sort {
	case SortPriceAsc:
		c = a.Price.Cmp(b.Price)
	case SortPriceDesc:
		c = b.Price.Cmp(a.Price)
	case SortNameAsc:
		c = strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	case SortNameDesc:
		c = strings.Compare(strings.ToLower(b.Name), strings.ToLower(a.Name))
	case SortRating:
		c = b.Rating.Cmp(a.Rating)
	case SortPopular:
		c = cmp.Compare(b.SoldCount, a.SoldCount)
	default:
		c = b.PublishedAt.Compare(a.PublishedAt)
	}
	if c != 0 {
		return c
	}
	return strings.Compare(a.ProductID.String(), b.ProductID.String())
}

// Browse filters, sorts and paginates listings. It returns the requested
// page and the number of listings that matched before pagination.
func Browse(listings []Listing, q BrowseQuery) ([]Listing, int) {
	matched := make([]Listing, 0, len(listings))
	for _, l := range listings {
		if q.Matches(l) {
			matched = append(matched, l)
		}
	}
	slices.SortFunc(matched, q.Compare)

	page, size := q.Page, q.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}
	start := (page - 1) * size
	if start >= len(matched) {
		return []Listing{}, len(matched)
	}
	end := min(start+size, len(matched))
	return matched[start:end], len(matched)
}
