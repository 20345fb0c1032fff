package handler

import (
	subscriptionapp "github.com/farmmarket/backend/internal/application/subscription"
	"github.com/gin-gonic/gin"
)

// SubscriptionHandler handles farmer plans and their administration
type SubscriptionHandler struct {
	BaseHandler
	subscriptionService *subscriptionapp.SubscriptionService
}

// NewSubscriptionHandler creates a new SubscriptionHandler
func NewSubscriptionHandler(subscriptionService *subscriptionapp.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptionService: subscriptionService}
}

// ListPlans godoc
// @ID           listSubscriptionPlans
// @Summary      List plans
// @Tags         subscriptions
// @Produce      json
// @Success      200 {object} APIResponse[[]subscriptionapp.PlanResponse]
// @Router       /plans [get]
func (h *SubscriptionHandler) ListPlans(c *gin.Context) {
	h.Success(c, h.subscriptionService.ListPlans())
}

// GetMine godoc
// @ID           getFarmerSubscription
// @Summary      Get my subscription
// @Description  Farmers without a subscription are reported on the free plan
// @Tags         subscriptions
// @Produce      json
// @Success      200 {object} APIResponse[subscriptionapp.SubscriptionResponse]
// @Security     BearerAuth
// @Router       /farmer/subscription [get]
func (h *SubscriptionHandler) GetMine(c *gin.Context) {
	farmerID, ok := h.userID(c)
	if !ok {
		return
	}
	resp, err := h.subscriptionService.GetMySubscription(c.Request.Context(), farmerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Subscribe godoc
// @ID           subscribeFarmer
// @Summary      Subscribe to a plan
// @Tags         subscriptions
// @Accept       json
// @Produce      json
// @Param        request body subscriptionapp.SubscribeRequest true "Plan"
// @Success      201 {object} APIResponse[subscriptionapp.SubscriptionResponse]
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /farmer/subscription [post]
func (h *SubscriptionHandler) Subscribe(c *gin.Context) {
	farmerID, ok := h.userID(c)
	if !ok {
		return
	}
	var req subscriptionapp.SubscribeRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.subscriptionService.Subscribe(c.Request.Context(), farmerID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// ChangePlan godoc
// @ID           changeFarmerSubscriptionPlan
// @Summary      Change plan
// @Description  Downgrades fail while the farmer has more active products than the new plan allows
// @Tags         subscriptions
// @Accept       json
// @Produce      json
// @Param        request body subscriptionapp.ChangePlanRequest true "Plan"
// @Success      200 {object} APIResponse[subscriptionapp.SubscriptionResponse]
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /farmer/subscription/plan [put]
func (h *SubscriptionHandler) ChangePlan(c *gin.Context) {
	farmerID, ok := h.userID(c)
	if !ok {
		return
	}
	var req subscriptionapp.ChangePlanRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.subscriptionService.ChangePlan(c.Request.Context(), farmerID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Cancel godoc
// @ID           cancelFarmerSubscription
// @Summary      Cancel my subscription
// @Description  The plan stays in effect until the end of the current period
// @Tags         subscriptions
// @Produce      json
// @Success      200 {object} APIResponse[subscriptionapp.SubscriptionResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /farmer/subscription/cancel [post]
func (h *SubscriptionHandler) Cancel(c *gin.Context) {
	farmerID, ok := h.userID(c)
	if !ok {
		return
	}
	resp, err := h.subscriptionService.Cancel(c.Request.Context(), farmerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// List godoc
// @ID           listAdminSubscriptions
// @Summary      List subscriptions
// @Tags         admin-subscriptions
// @Produce      json
// @Param        status    query string false "Status filter" Enums(active, cancelled, expired, suspended)
// @Param        plan      query string false "Plan filter" Enums(free, grower, pro)
// @Param        page      query int    false "Page number" default(1)
// @Param        page_size query int    false "Page size" default(20)
// @Success      200 {object} APIResponse[[]subscriptionapp.SubscriptionResponse]
// @Security     BearerAuth
// @Router       /admin/subscriptions [get]
func (h *SubscriptionHandler) List(c *gin.Context) {
	var req subscriptionapp.ListSubscriptionsRequest
	if !h.bindQuery(c, &req) {
		return
	}
	page, err := h.subscriptionService.List(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(c, page)
}

// Suspend godoc
// @ID           suspendAdminSubscription
// @Summary      Suspend a subscription
// @Description  The farmer falls back to the free plan while suspended
// @Tags         admin-subscriptions
// @Accept       json
// @Produce      json
// @Param        id      path string                          true "Subscription ID" format(uuid)
// @Param        request body subscriptionapp.SuspendRequest true "Reason"
// @Success      200 {object} APIResponse[subscriptionapp.SubscriptionResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/subscriptions/{id}/suspend [post]
func (h *SubscriptionHandler) Suspend(c *gin.Context) {
	adminID, id, ok := h.userAndPathID(c, "id")
	if !ok {
		return
	}
	var req subscriptionapp.SuspendRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.subscriptionService.Suspend(c.Request.Context(), adminID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Reinstate godoc
// @ID           reinstateAdminSubscription
// @Summary      Reinstate a suspended subscription
// @Tags         admin-subscriptions
// @Produce      json
// @Param        id path string true "Subscription ID" format(uuid)
// @Success      200 {object} APIResponse[subscriptionapp.SubscriptionResponse]
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/subscriptions/{id}/reinstate [post]
func (h *SubscriptionHandler) Reinstate(c *gin.Context) {
	adminID, id, ok := h.userAndPathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.subscriptionService.Reinstate(c.Request.Context(), adminID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
