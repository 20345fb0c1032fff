package handler

import (
	inventoryapp "github.com/farmmarket/backend/internal/application/inventory"
	"github.com/gin-gonic/gin"
)

// StockHandler handles a farmer's stock levels and movement ledger
type StockHandler struct {
	BaseHandler
	stockService *inventoryapp.StockService
}

// NewStockHandler creates a new StockHandler
func NewStockHandler(stockService *inventoryapp.StockService) *StockHandler {
	return &StockHandler{stockService: stockService}
}

// List godoc
// @ID           listFarmerStock
// @Summary      List my stock
// @Tags         farmer-stock
// @Produce      json
// @Param        low_stock_only query boolean false "Only items at or below their threshold"
// @Success      200 {object} APIResponse[[]inventoryapp.StockItemResponse]
// @Security     BearerAuth
// @Router       /farmer/stock [get]
func (h *StockHandler) List(c *gin.Context) {
	farmerID, ok := h.userID(c)
	if !ok {
		return
	}
	var req inventoryapp.ListStockRequest
	if !h.bindQuery(c, &req) {
		return
	}
	resp, err := h.stockService.ListStock(c.Request.Context(), farmerID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Restock godoc
// @ID           restockFarmerVariant
// @Summary      Restock a variant
// @Description  Adds received goods and records a restock movement
// @Tags         farmer-stock
// @Accept       json
// @Produce      json
// @Param        variant_id path string                      true "Variant ID" format(uuid)
// @Param        request    body inventoryapp.RestockRequest true "Quantity received"
// @Success      200 {object} APIResponse[inventoryapp.StockItemResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /farmer/stock/{variant_id}/restock [post]
func (h *StockHandler) Restock(c *gin.Context) {
	farmerID, variantID, ok := h.userAndPathID(c, "variant_id")
	if !ok {
		return
	}
	var req inventoryapp.RestockRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.stockService.Restock(c.Request.Context(), farmerID, variantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Adjust godoc
// @ID           adjustFarmerVariantStock
// @Summary      Adjust stock to a counted quantity
// @Description  Sets the quantity after a stock count and records the difference as an adjustment
// @Tags         farmer-stock
// @Accept       json
// @Produce      json
// @Param        variant_id path string                          true "Variant ID" format(uuid)
// @Param        request    body inventoryapp.AdjustStockRequest true "Counted quantity"
// @Success      200 {object} APIResponse[inventoryapp.StockItemResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /farmer/stock/{variant_id}/adjust [post]
func (h *StockHandler) Adjust(c *gin.Context) {
	farmerID, variantID, ok := h.userAndPathID(c, "variant_id")
	if !ok {
		return
	}
	var req inventoryapp.AdjustStockRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.stockService.Adjust(c.Request.Context(), farmerID, variantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// SetThreshold godoc
// @ID           setFarmerVariantThreshold
// @Summary      Set the low stock threshold
// @Tags         farmer-stock
// @Accept       json
// @Produce      json
// @Param        variant_id path string                           true "Variant ID" format(uuid)
// @Param        request    body inventoryapp.SetThresholdRequest true "Threshold"
// @Success      200 {object} APIResponse[inventoryapp.StockItemResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /farmer/stock/{variant_id}/threshold [put]
func (h *StockHandler) SetThreshold(c *gin.Context) {
	farmerID, variantID, ok := h.userAndPathID(c, "variant_id")
	if !ok {
		return
	}
	var req inventoryapp.SetThresholdRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.stockService.SetLowStockThreshold(c.Request.Context(), farmerID, variantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListMovements godoc
// @ID           listFarmerMovements
// @Summary      List stock movements
// @Tags         farmer-stock
// @Produce      json
// @Param        stock_item_id query string false "Stock item ID" format(uuid)
// @Param        product_id    query string false "Product ID" format(uuid)
// @Param        type          query string false "Movement type" Enums(restock, sale, adjustment, return, cancellation)
// @Param        from          query string false "From date" format(date)
// @Param        to            query string false "To date" format(date)
// @Param        page          query int    false "Page number" default(1)
// @Param        page_size     query int    false "Page size" default(20)
// @Success      200 {object} APIResponse[[]inventoryapp.MovementResponse]
// @Security     BearerAuth
// @Router       /farmer/movements [get]
func (h *StockHandler) ListMovements(c *gin.Context) {
	farmerID, ok := h.userID(c)
	if !ok {
		return
	}
	var req inventoryapp.ListMovementsRequest
	if !h.bindQuery(c, &req) {
		return
	}
	if !h.queryUUID(c, "stock_item_id", &req.StockItemID) || !h.queryUUID(c, "product_id", &req.ProductID) {
		return
	}
	page, err := h.stockService.ListMovements(c.Request.Context(), farmerID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(c, page)
}
