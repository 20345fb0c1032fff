package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/farmmarket/backend/internal/domain/catalog"
	"github.com/farmmarket/backend/internal/domain/inventory"
	"github.com/farmmarket/backend/internal/domain/shared"
	"github.com/farmmarket/backend/internal/domain/subscription"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxSlugAttempts = 50

var errProductNotFound = shared.NewDomainError("PRODUCT_NOT_FOUND", "Product not found")

// PlanLimits resolves the plan a farmer is currently entitled to
type PlanLimits interface {
	EffectivePlan(ctx context.Context, farmerID uuid.UUID) (subscription.Plan, error)
}

// OrderHistory answers whether a product was ever ordered
type OrderHistory interface {
	ExistsForProduct(ctx context.Context, productID uuid.UUID) (bool, error)
}

// ProductService handles the farmer side of the catalog
type ProductService struct {
	productRepo  catalog.ProductRepository
	categoryRepo catalog.CategoryRepository
	stockRepo    inventory.StockRepository
	orders       OrderHistory
	plans        PlanLimits
	txManager    shared.TxManager
	publisher    shared.EventPublisher
	currency     string
	logger       *zap.Logger
}

// NewProductService creates a new ProductService
func NewProductService(
	productRepo catalog.ProductRepository,
	categoryRepo catalog.CategoryRepository,
	stockRepo inventory.StockRepository,
	orders OrderHistory,
	plans PlanLimits,
	txManager shared.TxManager,
	publisher shared.EventPublisher,
	currency string,
	logger *zap.Logger,
) *ProductService {
	return &ProductService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		stockRepo:    stockRepo,
		orders:       orders,
		plans:        plans,
		txManager:    txManager,
		publisher:    publisher,
		currency:     currency,
		logger:       logger,
	}
}

// Create creates a draft product with its default variant and an empty stock item
func (s *ProductService) Create(ctx context.Context, farmerID uuid.UUID, req CreateProductRequest) (*ProductResponse, error) {
	if err := s.checkPlanLimit(ctx, farmerID); err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, req.CategoryID); err != nil {
		return nil, err
	}

	product, err := catalog.NewProduct(farmerID, req.Name, req.Unit, req.Price, s.currency)
	if err != nil {
		return nil, err
	}
	update := catalog.ProductUpdate{
		Description: &req.Description,
		Organic:     &req.Organic,
		ImageURL:    &req.ImageURL,
		Tags:        req.Tags,
		CategoryID:  req.CategoryID,
	}
	if err := product.Update(update); err != nil {
		return nil, err
	}
	slug, err := s.uniqueSlug(ctx, product.Slug)
	if err != nil {
		return nil, err
	}
	if err := product.SetSlug(slug); err != nil {
		return nil, err
	}

	err = s.txManager.WithinTx(ctx, func(txCtx context.Context) error {
		if err := s.productRepo.Save(txCtx, product); err != nil {
			return fmt.Errorf("failed to save product: %w", err)
		}
		for _, v := range product.Variants {
			if err := s.createStockItem(txCtx, product, v.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, product)

	s.logger.Info("Product created",
		zap.String("product_id", product.ID.String()),
		zap.String("farmer_id", farmerID.String()),
		zap.String("slug", product.Slug))
	resp := toProductResponse(product, nil)
	return &resp, nil
}

// Get returns one of the farmer's products with per-variant stock
func (s *ProductService) Get(ctx context.Context, farmerID, productID uuid.UUID) (*ProductResponse, error) {
	product, err := s.loadOwned(ctx, farmerID, productID)
	if err != nil {
		return nil, err
	}
	return s.respond(ctx, product)
}

// ListMine lists the farmer's products across every status
func (s *ProductService) ListMine(ctx context.Context, farmerID uuid.UUID, req ListMyProductsRequest) (shared.Paginated[ProductResponse], error) {
	filter := shared.Filter{Page: req.Page, PageSize: req.PageSize, Search: req.Search}.Normalize()
	if req.Status != "" {
		filter = filter.With("status", req.Status)
	}
	products, total, err := s.productRepo.FindByFarmer(ctx, farmerID, filter)
	if err != nil {
		return shared.Paginated[ProductResponse]{}, err
	}

	var variantIDs []uuid.UUID
	for _, p := range products {
		for _, v := range p.Variants {
			variantIDs = append(variantIDs, v.ID)
		}
	}
	stock, err := s.stockByVariant(ctx, variantIDs)
	if err != nil {
		return shared.Paginated[ProductResponse]{}, err
	}

	items := make([]ProductResponse, len(products))
	for i := range products {
		items[i] = toProductResponse(&products[i], stock)
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// Update changes listing fields of a product
func (s *ProductService) Update(ctx context.Context, farmerID, productID uuid.UUID, req UpdateProductRequest) (*ProductResponse, error) {
	product, err := s.loadOwned(ctx, farmerID, productID)
	if err != nil {
		return nil, err
	}
	if !req.ClearCategory {
		if err := s.checkCategory(ctx, req.CategoryID); err != nil {
			return nil, err
		}
	}
	if err := product.Update(catalog.ProductUpdate{
		Name:          req.Name,
		Description:   req.Description,
		Unit:          req.Unit,
		Price:         req.Price,
		Organic:       req.Organic,
		ImageURL:      req.ImageURL,
		Tags:          req.Tags,
		CategoryID:    req.CategoryID,
		ClearCategory: req.ClearCategory,
	}); err != nil {
		return nil, err
	}
	if err := s.save(ctx, product); err != nil {
		return nil, err
	}
	return s.respond(ctx, product)
}

// AddVariant adds a variant and opens a stock item for it
func (s *ProductService) AddVariant(ctx context.Context, farmerID, productID uuid.UUID, req AddVariantRequest) (*ProductResponse, error) {
	product, err := s.loadOwned(ctx, farmerID, productID)
	if err != nil {
		return nil, err
	}
	variant, err := product.AddVariant(req.SKU, req.Name, req.Price)
	if err != nil {
		return nil, err
	}
	variantID := variant.ID

	err = s.txManager.WithinTx(ctx, func(txCtx context.Context) error {
		if err := s.productRepo.Save(txCtx, product); err != nil {
			return fmt.Errorf("failed to save product: %w", err)
		}
		return s.createStockItem(txCtx, product, variantID)
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, product)

	s.logger.Info("Variant added",
		zap.String("product_id", product.ID.String()),
		zap.String("variant_id", variantID.String()))
	return s.respond(ctx, product)
}

// UpdateVariant changes a variant's name, price or availability
func (s *ProductService) UpdateVariant(ctx context.Context, farmerID, productID, variantID uuid.UUID, req UpdateVariantRequest) (*ProductResponse, error) {
	product, err := s.loadOwned(ctx, farmerID, productID)
	if err != nil {
		return nil, err
	}
	if err := product.UpdateVariant(variantID, req.Name, req.Price, req.Active); err != nil {
		return nil, err
	}
	if err := s.save(ctx, product); err != nil {
		return nil, err
	}
	return s.respond(ctx, product)
}

// RemoveVariant deletes a variant that was never ordered
func (s *ProductService) RemoveVariant(ctx context.Context, farmerID, productID, variantID uuid.UUID) (*ProductResponse, error) {
	product, err := s.loadOwned(ctx, farmerID, productID)
	if err != nil {
		return nil, err
	}
	if err := product.RemoveVariant(variantID); err != nil {
		return nil, err
	}
	if err := s.save(ctx, product); err != nil {
		return nil, err
	}
	return s.respond(ctx, product)
}

// Publish lists the product on the storefront
func (s *ProductService) Publish(ctx context.Context, farmerID, productID uuid.UUID) (*ProductResponse, error) {
	return s.transition(ctx, farmerID, productID, (*catalog.Product).Publish)
}

// Unpublish returns the product to draft
func (s *ProductService) Unpublish(ctx context.Context, farmerID, productID uuid.UUID) (*ProductResponse, error) {
	return s.transition(ctx, farmerID, productID, (*catalog.Product).Unpublish)
}

// Archive takes the product off sale permanently
func (s *ProductService) Archive(ctx context.Context, farmerID, productID uuid.UUID) (*ProductResponse, error) {
	return s.transition(ctx, farmerID, productID, (*catalog.Product).Archive)
}

// Restore brings an archived product back as a draft; it counts against the plan again
func (s *ProductService) Restore(ctx context.Context, farmerID, productID uuid.UUID) (*ProductResponse, error) {
	product, err := s.loadOwned(ctx, farmerID, productID)
	if err != nil {
		return nil, err
	}
	if product.Status == catalog.ProductStatusArchived {
		if err := s.checkPlanLimit(ctx, farmerID); err != nil {
			return nil, err
		}
	}
	if err := product.Restore(); err != nil {
		return nil, err
	}
	if err := s.save(ctx, product); err != nil {
		return nil, err
	}
	return s.respond(ctx, product)
}

// Delete hard-deletes a product that is not published and was never ordered
func (s *ProductService) Delete(ctx context.Context, farmerID, productID uuid.UUID) error {
	product, err := s.loadOwned(ctx, farmerID, productID)
	if err != nil {
		return err
	}
	hasOrders, err := s.orders.ExistsForProduct(ctx, productID)
	if err != nil {
		return fmt.Errorf("failed to check order history: %w", err)
	}
	if err := product.CanDelete(hasOrders); err != nil {
		return err
	}

	err = s.txManager.WithinTx(ctx, func(txCtx context.Context) error {
		if err := s.stockRepo.DeleteByProduct(txCtx, productID); err != nil {
			return fmt.Errorf("failed to delete stock: %w", err)
		}
		return s.productRepo.Delete(txCtx, productID)
	})
	if err != nil {
		return err
	}
	product.AddDomainEvent(catalog.NewProductDeletedEvent(product))
	s.publish(ctx, product)

	s.logger.Info("Product deleted",
		zap.String("product_id", productID.String()),
		zap.String("farmer_id", farmerID.String()))
	return nil
}

func (s *ProductService) transition(ctx context.Context, farmerID, productID uuid.UUID, fn func(*catalog.Product) error) (*ProductResponse, error) {
	product, err := s.loadOwned(ctx, farmerID, productID)
	if err != nil {
		return nil, err
	}
	if err := fn(product); err != nil {
		return nil, err
	}
	if err := s.save(ctx, product); err != nil {
		return nil, err
	}
	s.logger.Info("Product status changed",
		zap.String("product_id", product.ID.String()),
		zap.String("status", string(product.Status)))
	return s.respond(ctx, product)
}

func (s *ProductService) loadOwned(ctx context.Context, farmerID, productID uuid.UUID) (*catalog.Product, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, errProductNotFound
		}
		return nil, err
	}
	// other farmers' products are reported as missing
	if product.FarmerID != farmerID {
		return nil, errProductNotFound
	}
	return product, nil
}

func (s *ProductService) save(ctx context.Context, product *catalog.Product) error {
	if err := s.productRepo.Save(ctx, product); err != nil {
		return err
	}
	s.publish(ctx, product)
	return nil
}

func (s *ProductService) publish(ctx context.Context, product *catalog.Product) {
	if err := shared.PublishAndClear(ctx, s.publisher, product); err != nil {
		s.logger.Warn("Failed to publish product events",
			zap.String("product_id", product.ID.String()),
			zap.Error(err))
	}
}

func (s *ProductService) respond(ctx context.Context, product *catalog.Product) (*ProductResponse, error) {
	ids := make([]uuid.UUID, len(product.Variants))
	for i, v := range product.Variants {
		ids[i] = v.ID
	}
	stock, err := s.stockByVariant(ctx, ids)
	if err != nil {
		return nil, err
	}
	resp := toProductResponse(product, stock)
	return &resp, nil
}

func (s *ProductService) stockByVariant(ctx context.Context, variantIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	return stockLevels(ctx, s.stockRepo, variantIDs)
}

func (s *ProductService) createStockItem(ctx context.Context, product *catalog.Product, variantID uuid.UUID) error {
	item, err := inventory.NewStockItem(product.FarmerID, product.ID, variantID)
	if err != nil {
		return err
	}
	if err := s.stockRepo.Create(ctx, item); err != nil {
		return fmt.Errorf("failed to create stock item: %w", err)
	}
	return nil
}

// checkPlanLimit rejects one more draft or active product beyond the plan cap
func (s *ProductService) checkPlanLimit(ctx context.Context, farmerID uuid.UUID) error {
	plan, err := s.plans.EffectivePlan(ctx, farmerID)
	if err != nil {
		return err
	}
	count, err := s.productRepo.CountByFarmer(ctx, farmerID, catalog.ProductStatusDraft, catalog.ProductStatusActive)
	if err != nil {
		return fmt.Errorf("failed to count products: %w", err)
	}
	if !plan.AllowsProducts(count + 1) {
		return shared.NewDomainError("PLAN_LIMIT_REACHED",
			fmt.Sprintf("The %s plan allows %d products; upgrade to add more", plan.Name, plan.MaxProducts))
	}
	return nil
}

func (s *ProductService) checkCategory(ctx context.Context, categoryID *uuid.UUID) error {
	if categoryID == nil {
		return nil
	}
	if _, err := s.categoryRepo.FindByID(ctx, *categoryID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return errCategoryNotFound
		}
		return err
	}
	return nil
}

// uniqueSlug appends -2, -3, ... until the slug is free
func (s *ProductService) uniqueSlug(ctx context.Context, base string) (string, error) {
	slug := base
	for i := 2; i <= maxSlugAttempts+1; i++ {
		taken, err := s.productRepo.ExistsBySlug(ctx, slug)
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

func stockLevels(ctx context.Context, repo inventory.StockRepository, variantIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	levels := make(map[uuid.UUID]int, len(variantIDs))
	if len(variantIDs) == 0 {
		return levels, nil
	}
	items, err := repo.FindByVariants(ctx, variantIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load stock: %w", err)
	}
	for _, item := range items {
		levels[item.VariantID] = item.Quantity
	}
	return levels, nil
}
