package catalog

import (
	"context"
	"errors"

	"github.com/farmmarket/backend/internal/domain/catalog"
	"github.com/farmmarket/backend/internal/domain/inventory"
	"github.com/farmmarket/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ListingCache stores the full set of active listings
type ListingCache interface {
	Get(ctx context.Context) ([]catalog.Listing, bool, error)
	Set(ctx context.Context, listings []catalog.Listing) error
	Invalidate(ctx context.Context) error
}

// BrowseService serves the public storefront
type BrowseService struct {
	productRepo  catalog.ProductRepository
	categoryRepo catalog.CategoryRepository
	stockRepo    inventory.StockRepository
	cache        ListingCache
	logger       *zap.Logger
}

// NewBrowseService creates a new BrowseService; cache may be nil
func NewBrowseService(
	productRepo catalog.ProductRepository,
	categoryRepo catalog.CategoryRepository,
	stockRepo inventory.StockRepository,
	cache ListingCache,
	logger *zap.Logger,
) *BrowseService {
	return &BrowseService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		stockRepo:    stockRepo,
		cache:        cache,
		logger:       logger,
	}
}

// Browse filters, sorts and pages the active listings
func (s *BrowseService) Browse(ctx context.Context, req BrowseRequest) (shared.Paginated[catalog.Listing], error) {
	listings, err := s.activeListings(ctx)
	if err != nil {
		return shared.Paginated[catalog.Listing]{}, err
	}

	filter := shared.Filter{Page: req.Page, PageSize: req.PageSize}.Normalize()
	page, total := catalog.Browse(listings, catalog.BrowseQuery{
		Search:     req.Search,
		CategoryID: req.CategoryID,
		FarmerID:   req.FarmerID,
		MinPrice:   req.MinPrice,
		MaxPrice:   req.MaxPrice,
		Organic:    req.Organic,
		InStock:    req.InStock,
		Sort:       catalog.ParseSortOption(req.Sort),
		Page:       filter.Page,
		PageSize:   filter.PageSize,
	})
	return shared.NewPaginated(page, int64(total), filter.Page, filter.PageSize), nil
}

// GetProduct looks a published product up by ID or slug
func (s *BrowseService) GetProduct(ctx context.Context, idOrSlug string) (*ProductResponse, error) {
	var (
		product *catalog.Product
		err     error
	)
	if id, parseErr := uuid.Parse(idOrSlug); parseErr == nil {
		product, err = s.productRepo.FindByID(ctx, id)
	} else {
		product, err = s.productRepo.FindBySlug(ctx, idOrSlug)
	}
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, errProductNotFound
		}
		return nil, err
	}
	if product.Status != catalog.ProductStatusActive {
		return nil, errProductNotFound
	}

	// buyers only see variants they can order
	visible := product.Variants[:0:0]
	ids := make([]uuid.UUID, 0, len(product.Variants))
	for _, v := range product.Variants {
		if v.Active {
			visible = append(visible, v)
			ids = append(ids, v.ID)
		}
	}
	product.Variants = visible

	stock, err := stockLevels(ctx, s.stockRepo, ids)
	if err != nil {
		return nil, err
	}
	resp := toProductResponse(product, stock)
	return &resp, nil
}

// ListCategories returns every category in display order
func (s *BrowseService) ListCategories(ctx context.Context) ([]CategoryResponse, error) {
	categories, err := s.categoryRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]CategoryResponse, len(categories))
	for i := range categories {
		out[i] = toCategoryResponse(&categories[i])
	}
	return out, nil
}

func (s *BrowseService) activeListings(ctx context.Context) ([]catalog.Listing, error) {
	if s.cache != nil {
		listings, ok, err := s.cache.Get(ctx)
		if err != nil {
			s.logger.Warn("Catalog cache read failed", zap.Error(err))
		} else if ok {
			return listings, nil
		}
	}

	listings, err := s.productRepo.ListActiveListings(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, listings); err != nil {
			s.logger.Warn("Catalog cache write failed", zap.Error(err))
		}
	}
	return listings, nil
}
