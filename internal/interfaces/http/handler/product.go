package handler

import (
	"context"

	catalogapp "github.com/farmmarket/backend/internal/application/catalog"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ProductHandler handles a farmer's own products and variants
type ProductHandler struct {
	BaseHandler
	productService *catalogapp.ProductService
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService *catalogapp.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

type productAction func(ctx context.Context, farmerID, productID uuid.UUID) (*catalogapp.ProductResponse, error)

func (h *ProductHandler) lifecycle(c *gin.Context, action productAction) {
	farmerID, productID, ok := h.userAndPathID(c, "id")
	if !ok {
		return
	}
	resp, err := action(c.Request.Context(), farmerID, productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Create godoc
// @ID           createFarmerProduct
// @Summary      Create a product
// @Description  Creates a draft product with a default variant. Counts against the plan's product limit.
// @Tags         farmer-products
// @Accept       json
// @Produce      json
// @Param        request body catalogapp.CreateProductRequest true "Product"
// @Success      201 {object} APIResponse[catalogapp.ProductResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /farmer/products [post]
func (h *ProductHandler) Create(c *gin.Context) {
	farmerID, ok := h.userID(c)
	if !ok {
		return
	}
	var req catalogapp.CreateProductRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.productService.Create(c.Request.Context(), farmerID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// List godoc
// @ID           listFarmerProducts
// @Summary      List my products
// @Tags         farmer-products
// @Produce      json
// @Param        status    query string false "Status filter" Enums(draft, active, archived)
// @Param        search    query string false "Name search"
// @Param        page      query int    false "Page number" default(1)
// @Param        page_size query int    false "Page size" default(20)
// @Success      200 {object} APIResponse[[]catalogapp.ProductResponse]
// @Security     BearerAuth
// @Router       /farmer/products [get]
func (h *ProductHandler) List(c *gin.Context) {
	farmerID, ok := h.userID(c)
	if !ok {
		return
	}
	var req catalogapp.ListMyProductsRequest
	if !h.bindQuery(c, &req) {
		return
	}
	page, err := h.productService.ListMine(c.Request.Context(), farmerID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(c, page)
}

// Get godoc
// @ID           getFarmerProduct
// @Summary      Get my product
// @Tags         farmer-products
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Success      200 {object} APIResponse[catalogapp.ProductResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /farmer/products/{id} [get]
func (h *ProductHandler) Get(c *gin.Context) {
	h.lifecycle(c, h.productService.Get)
}

// Update godoc
// @ID           updateFarmerProduct
// @Summary      Update my product
// @Tags         farmer-products
// @Accept       json
// @Produce      json
// @Param        id      path string                          true "Product ID" format(uuid)
// @Param        request body catalogapp.UpdateProductRequest true "Changes"
// @Success      200 {object} APIResponse[catalogapp.ProductResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /farmer/products/{id} [put]
func (h *ProductHandler) Update(c *gin.Context) {
	farmerID, productID, ok := h.userAndPathID(c, "id")
	if !ok {
		return
	}
	var req catalogapp.UpdateProductRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.productService.Update(c.Request.Context(), farmerID, productID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Delete godoc
// @ID           deleteFarmerProduct
// @Summary      Delete my product
// @Description  Only unpublished products that were never ordered can be deleted
// @Tags         farmer-products
// @Param        id path string true "Product ID" format(uuid)
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /farmer/products/{id} [delete]
func (h *ProductHandler) Delete(c *gin.Context) {
	farmerID, productID, ok := h.userAndPathID(c, "id")
	if !ok {
		return
	}
	if err := h.productService.Delete(c.Request.Context(), farmerID, productID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Publish godoc
// @ID           publishFarmerProduct
// @Summary      Publish my product
// @Tags         farmer-products
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Success      200 {object} APIResponse[catalogapp.ProductResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /farmer/products/{id}/publish [post]
func (h *ProductHandler) Publish(c *gin.Context) {
	h.lifecycle(c, h.productService.Publish)
}

// Unpublish godoc
// @ID           unpublishFarmerProduct
// @Summary      Unpublish my product
// @Tags         farmer-products
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Success      200 {object} APIResponse[catalogapp.ProductResponse]
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /farmer/products/{id}/unpublish [post]
func (h *ProductHandler) Unpublish(c *gin.Context) {
	h.lifecycle(c, h.productService.Unpublish)
}

// Archive godoc
// @ID           archiveFarmerProduct
// @Summary      Archive my product
// @Tags         farmer-products
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Success      200 {object} APIResponse[catalogapp.ProductResponse]
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /farmer/products/{id}/archive [post]
func (h *ProductHandler) Archive(c *gin.Context) {
	h.lifecycle(c, h.productService.Archive)
}

// Restore godoc
// @ID           restoreFarmerProduct
// @Summary      Restore an archived product
// @Description  Returns the product to draft. Counts against the plan's product limit.
// @Tags         farmer-products
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Success      200 {object} APIResponse[catalogapp.ProductResponse]
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /farmer/products/{id}/restore [post]
func (h *ProductHandler) Restore(c *gin.Context) {
	h.lifecycle(c, h.productService.Restore)
}

// AddVariant godoc
// @ID           addFarmerProductVariant
// @Summary      Add a variant
// @Tags         farmer-products
// @Accept       json
// @Produce      json
// @Param        id      path string                       true "Product ID" format(uuid)
// @Param        request body catalogapp.AddVariantRequest true "Variant"
// @Success      201 {object} APIResponse[catalogapp.ProductResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /farmer/products/{id}/variants [post]
func (h *ProductHandler) AddVariant(c *gin.Context) {
	farmerID, productID, ok := h.userAndPathID(c, "id")
	if !ok {
		return
	}
	var req catalogapp.AddVariantRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.productService.AddVariant(c.Request.Context(), farmerID, productID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// UpdateVariant godoc
// @ID           updateFarmerProductVariant
// @Summary      Update a variant
// @Tags         farmer-products
// @Accept       json
// @Produce      json
// @Param        id         path string                          true "Product ID" format(uuid)
// @Param        variant_id path string                          true "Variant ID" format(uuid)
// @Param        request    body catalogapp.UpdateVariantRequest true "Changes"
// @Success      200 {object} APIResponse[catalogapp.ProductResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /farmer/products/{id}/variants/{variant_id} [put]
func (h *ProductHandler) UpdateVariant(c *gin.Context) {
	farmerID, productID, ok := h.userAndPathID(c, "id")
	if !ok {
		return
	}
	variantID, ok := h.pathUUID(c, "variant_id")
	if !ok {
		return
	}
	var req catalogapp.UpdateVariantRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.productService.UpdateVariant(c.Request.Context(), farmerID, productID, variantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// RemoveVariant godoc
// @ID           removeFarmerProductVariant
// @Summary      Remove a variant
// @Description  The last variant of a product cannot be removed
// @Tags         farmer-products
// @Produce      json
// @Param        id         path string true "Product ID" format(uuid)
// @Param        variant_id path string true "Variant ID" format(uuid)
// @Success      200 {object} APIResponse[catalogapp.ProductResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /farmer/products/{id}/variants/{variant_id} [delete]
func (h *ProductHandler) RemoveVariant(c *gin.Context) {
	farmerID, productID, ok := h.userAndPathID(c, "id")
	if !ok {
		return
	}
	variantID, ok := h.pathUUID(c, "variant_id")
	if !ok {
		return
	}
	resp, err := h.productService.RemoveVariant(c.Request.Context(), farmerID, productID, variantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
