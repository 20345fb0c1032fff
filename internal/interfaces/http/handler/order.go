package handler

import (
	"context"

	orderapp "github.com/farmmarket/backend/internal/application/order"
	"github.com/farmmarket/backend/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// OrderHandler serves orders to buyers, farmers and admins. Buyers and farmers
// only ever see orders they are a party to.
type OrderHandler struct {
	BaseHandler
	orderService *orderapp.OrderService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService *orderapp.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

type orderAction func(ctx context.Context, userID, orderID uuid.UUID) (*orderapp.OrderResponse, error)

func (h *OrderHandler) single(c *gin.Context, action orderAction) {
	userID, orderID, ok := h.userAndPathID(c, "id")
	if !ok {
		return
	}
	resp, err := action(c.Request.Context(), userID, orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

func (h *OrderHandler) cancel(c *gin.Context, action func(context.Context, uuid.UUID, uuid.UUID, orderapp.CancelOrderRequest) (*orderapp.OrderResponse, error)) {
	userID, orderID, ok := h.userAndPathID(c, "id")
	if !ok {
		return
	}
	var req orderapp.CancelOrderRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := action(c.Request.Context(), userID, orderID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

func (h *OrderHandler) list(c *gin.Context, action func(context.Context, uuid.UUID, orderapp.ListOrdersRequest) (shared.Paginated[orderapp.OrderResponse], error)) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	var req orderapp.ListOrdersRequest
	if !h.bindQuery(c, &req) {
		return
	}
	page, err := action(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(c, page)
}

// ListMine godoc
// @ID           listBuyerOrders
// @Summary      List my orders
// @Tags         orders
// @Produce      json
// @Param        status    query string false "Status filter" Enums(pending, confirmed, shipped, delivered, cancelled)
// @Param        page      query int    false "Page number" default(1)
// @Param        page_size query int    false "Page size" default(20)
// @Success      200 {object} APIResponse[[]orderapp.OrderResponse]
// @Security     BearerAuth
// @Router       /orders [get]
func (h *OrderHandler) ListMine(c *gin.Context) {
	h.list(c, h.orderService.ListForBuyer)
}

// GetMine godoc
// @ID           getBuyerOrder
// @Summary      Get my order
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} APIResponse[orderapp.OrderResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /orders/{id} [get]
func (h *OrderHandler) GetMine(c *gin.Context) {
	h.single(c, h.orderService.GetForBuyer)
}

// CancelMine godoc
// @ID           cancelBuyerOrder
// @Summary      Cancel my order
// @Description  Buyers can cancel while the order is still pending. Stock is returned.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id      path string                      true "Order ID" format(uuid)
// @Param        request body orderapp.CancelOrderRequest true "Reason"
// @Success      200 {object} APIResponse[orderapp.OrderResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /orders/{id}/cancel [post]
func (h *OrderHandler) CancelMine(c *gin.Context) {
	h.cancel(c, h.orderService.CancelByBuyer)
}

// ListForFarmer godoc
// @ID           listFarmerOrders
// @Summary      List orders of my farm
// @Tags         farmer-orders
// @Produce      json
// @Param        status    query string false "Status filter" Enums(pending, confirmed, shipped, delivered, cancelled)
// @Param        page      query int    false "Page number" default(1)
// @Param        page_size query int    false "Page size" default(20)
// @Success      200 {object} APIResponse[[]orderapp.OrderResponse]
// @Security     BearerAuth
// @Router       /farmer/orders [get]
func (h *OrderHandler) ListForFarmer(c *gin.Context) {
	h.list(c, h.orderService.ListForFarmer)
}

// GetForFarmer godoc
// @ID           getFarmerOrder
// @Summary      Get an order of my farm
// @Tags         farmer-orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} APIResponse[orderapp.OrderResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /farmer/orders/{id} [get]
func (h *OrderHandler) GetForFarmer(c *gin.Context) {
	h.single(c, h.orderService.GetForFarmer)
}

// Confirm godoc
// @ID           confirmFarmerOrder
// @Summary      Confirm an order
// @Tags         farmer-orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} APIResponse[orderapp.OrderResponse]
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /farmer/orders/{id}/confirm [post]
func (h *OrderHandler) Confirm(c *gin.Context) {
	h.single(c, h.orderService.Confirm)
}

// Ship godoc
// @ID           shipFarmerOrder
// @Summary      Mark an order shipped
// @Tags         farmer-orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} APIResponse[orderapp.OrderResponse]
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /farmer/orders/{id}/ship [post]
func (h *OrderHandler) Ship(c *gin.Context) {
	h.single(c, h.orderService.Ship)
}

// Deliver godoc
// @ID           deliverFarmerOrder
// @Summary      Mark an order delivered
// @Tags         farmer-orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} APIResponse[orderapp.OrderResponse]
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /farmer/orders/{id}/deliver [post]
func (h *OrderHandler) Deliver(c *gin.Context) {
	h.single(c, h.orderService.Deliver)
}

// MarkPaid godoc
// @ID           markFarmerOrderPaid
// @Summary      Record payment received
// @Tags         farmer-orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} APIResponse[orderapp.OrderResponse]
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /farmer/orders/{id}/mark-paid [post]
func (h *OrderHandler) MarkPaid(c *gin.Context) {
	h.single(c, h.orderService.MarkPaid)
}

// CancelForFarmer godoc
// @ID           cancelFarmerOrder
// @Summary      Cancel an order of my farm
// @Description  Allowed until the order ships. Stock is returned and the buyer is notified.
// @Tags         farmer-orders
// @Accept       json
// @Produce      json
// @Param        id      path string                      true "Order ID" format(uuid)
// @Param        request body orderapp.CancelOrderRequest true "Reason"
// @Success      200 {object} APIResponse[orderapp.OrderResponse]
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /farmer/orders/{id}/cancel [post]
func (h *OrderHandler) CancelForFarmer(c *gin.Context) {
	h.cancel(c, h.orderService.CancelByFarmer)
}

// ListAll godoc
// @ID           listAdminOrders
// @Summary      List all orders
// @Tags         admin-orders
// @Produce      json
// @Param        status    query string false "Status filter" Enums(pending, confirmed, shipped, delivered, cancelled)
// @Param        page      query int    false "Page number" default(1)
// @Param        page_size query int    false "Page size" default(20)
// @Success      200 {object} APIResponse[[]orderapp.OrderResponse]
// @Security     BearerAuth
// @Router       /admin/orders [get]
func (h *OrderHandler) ListAll(c *gin.Context) {
	var req orderapp.ListOrdersRequest
	if !h.bindQuery(c, &req) {
		return
	}
	page, err := h.orderService.ListAll(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(c, page)
}
