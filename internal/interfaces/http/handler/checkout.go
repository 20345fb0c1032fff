package handler

import (
	orderapp "github.com/farmmarket/backend/internal/application/order"
	"github.com/gin-gonic/gin"
)

// IdempotencyKeyHeader lets clients retry checkout without placing orders twice
const IdempotencyKeyHeader = "Idempotency-Key"

const maxIdempotencyKeyLength = 128

// CheckoutHandler handles the three checkout steps
type CheckoutHandler struct {
	BaseHandler
	checkoutService *orderapp.CheckoutService
}

// NewCheckoutHandler creates a new CheckoutHandler
func NewCheckoutHandler(checkoutService *orderapp.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkoutService: checkoutService}
}

// Shipping godoc
// @ID           validateCheckoutShipping
// @Summary      Validate the shipping address
// @Tags         checkout
// @Accept       json
// @Produce      json
// @Param        request body orderapp.ShippingRequest true "Address"
// @Success      200 {object} APIResponse[orderapp.ShippingResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /checkout/shipping [post]
func (h *CheckoutHandler) Shipping(c *gin.Context) {
	var req orderapp.ShippingRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.checkoutService.ValidateShipping(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Quote godoc
// @ID           quoteCheckout
// @Summary      Price the cart
// @Description  Splits the cart per farmer and adds shipping fees
// @Tags         checkout
// @Accept       json
// @Produce      json
// @Param        request body orderapp.QuoteRequest true "Delivery method"
// @Success      200 {object} APIResponse[orderapp.QuoteResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /checkout/quote [post]
func (h *CheckoutHandler) Quote(c *gin.Context) {
	buyerID, ok := h.userID(c)
	if !ok {
		return
	}
	var req orderapp.QuoteRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.checkoutService.Quote(c.Request.Context(), buyerID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// PlaceOrder godoc
// @ID           placeCheckoutOrder
// @Summary      Place orders
// @Description  Creates one order per farmer, deducts stock and empties the cart. Replays with the same Idempotency-Key return the first result.
// @Tags         checkout
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key header string                     false "Client generated retry key"
// @Param        request         body   orderapp.PlaceOrderRequest true  "Order details"
// @Success      201 {object} APIResponse[orderapp.PlaceOrderResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /checkout/orders [post]
func (h *CheckoutHandler) PlaceOrder(c *gin.Context) {
	buyerID, ok := h.userID(c)
	if !ok {
		return
	}
	key := c.GetHeader(IdempotencyKeyHeader)
	if len(key) > maxIdempotencyKeyLength {
		h.BadRequest(c, "Idempotency-Key is too long")
		return
	}
	var req orderapp.PlaceOrderRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.checkoutService.PlaceOrder(c.Request.Context(), buyerID, req, key)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}
