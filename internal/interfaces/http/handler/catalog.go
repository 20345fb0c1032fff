package handler

import (
	catalogapp "github.com/farmmarket/backend/internal/application/catalog"
	"github.com/farmmarket/backend/internal/domain/catalog"
	"github.com/gin-gonic/gin"
)

// ListingResponse is a storefront listing row
// @Description Active product with its price and stock on hand
type ListingResponse = catalog.Listing

// CatalogHandler serves the public storefront
type CatalogHandler struct {
	BaseHandler
	browseService *catalogapp.BrowseService
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(browseService *catalogapp.BrowseService) *CatalogHandler {
	return &CatalogHandler{browseService: browseService}
}

// Browse godoc
// @ID           browseCatalogProducts
// @Summary      Browse products
// @Description  Lists active products of active farmers. Results are cached briefly.
// @Tags         catalog
// @Produce      json
// @Param        search      query string  false "Full text search"
// @Param        category_id query string  false "Category ID" format(uuid)
// @Param        farmer_id   query string  false "Farmer ID" format(uuid)
// @Param        min_price   query number  false "Minimum price"
// @Param        max_price   query number  false "Maximum price"
// @Param        organic     query boolean false "Organic only"
// @Param        in_stock    query boolean false "Only products with stock"
// @Param        sort        query string  false "Sort order" Enums(newest, price_asc, price_desc, name_asc, name_desc, rating, popular)
// @Param        page        query int     false "Page number" default(1)
// @Param        page_size   query int     false "Page size" default(20)
// @Success      200 {object} APIResponse[[]ListingResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /catalog/products [get]
func (h *CatalogHandler) Browse(c *gin.Context) {
	var req catalogapp.BrowseRequest
	if !h.bindQuery(c, &req) {
		return
	}
	if !h.queryUUID(c, "category_id", &req.CategoryID) || !h.queryUUID(c, "farmer_id", &req.FarmerID) {
		return
	}
	page, err := h.browseService.Browse(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(c, page)
}

// GetProduct godoc
// @ID           getCatalogProduct
// @Summary      Get a product
// @Description  Looks the product up by ID or slug. Only active products are visible.
// @Tags         catalog
// @Produce      json
// @Param        idOrSlug path string true "Product ID or slug"
// @Success      200 {object} APIResponse[catalogapp.ProductResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /catalog/products/{idOrSlug} [get]
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	resp, err := h.browseService.GetProduct(c.Request.Context(), c.Param("idOrSlug"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListCategories godoc
// @ID           listCatalogCategories
// @Summary      List categories
// @Tags         catalog
// @Produce      json
// @Success      200 {object} APIResponse[[]catalogapp.CategoryResponse]
// @Router       /catalog/categories [get]
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	resp, err := h.browseService.ListCategories(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// CategoryHandler handles category management by admins
type CategoryHandler struct {
	BaseHandler
	categoryService *catalogapp.CategoryService
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(categoryService *catalogapp.CategoryService) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService}
}

// Create godoc
// @ID           createAdminCategory
// @Summary      Create a category
// @Tags         admin-categories
// @Accept       json
// @Produce      json
// @Param        request body catalogapp.CategoryRequest true "Category"
// @Success      201 {object} APIResponse[catalogapp.CategoryResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/categories [post]
func (h *CategoryHandler) Create(c *gin.Context) {
	var req catalogapp.CategoryRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.categoryService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Update godoc
// @ID           updateAdminCategory
// @Summary      Update a category
// @Tags         admin-categories
// @Accept       json
// @Produce      json
// @Param        id      path string                     true "Category ID" format(uuid)
// @Param        request body catalogapp.CategoryRequest true "Category"
// @Success      200 {object} APIResponse[catalogapp.CategoryResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/categories/{id} [put]
func (h *CategoryHandler) Update(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req catalogapp.CategoryRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.categoryService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Delete godoc
// @ID           deleteAdminCategory
// @Summary      Delete a category
// @Description  Fails while products still reference the category
// @Tags         admin-categories
// @Param        id path string true "Category ID" format(uuid)
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/categories/{id} [delete]
func (h *CategoryHandler) Delete(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.categoryService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
