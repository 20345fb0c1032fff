package handler

import (
	dashboardapp "github.com/farmmarket/backend/internal/application/dashboard"
	"github.com/gin-gonic/gin"
)

// DashboardHandler serves the farmer and admin overview pages
type DashboardHandler struct {
	BaseHandler
	dashboardService *dashboardapp.DashboardService
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(dashboardService *dashboardapp.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// Farmer godoc
// @ID           getFarmerDashboard
// @Summary      Farmer dashboard
// @Description  Sales totals, order counts, low stock and plan usage of the calling farmer
// @Tags         farmer-dashboard
// @Produce      json
// @Success      200 {object} APIResponse[dashboardapp.FarmerDashboardResponse]
// @Security     BearerAuth
// @Router       /farmer/dashboard [get]
func (h *DashboardHandler) Farmer(c *gin.Context) {
	farmerID, ok := h.userID(c)
	if !ok {
		return
	}
	resp, err := h.dashboardService.Farmer(c.Request.Context(), farmerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Admin godoc
// @ID           getAdminDashboard
// @Summary      Admin dashboard
// @Description  Marketplace wide counters and the moderation backlog
// @Tags         admin-dashboard
// @Produce      json
// @Success      200 {object} APIResponse[dashboardapp.AdminDashboardResponse]
// @Security     BearerAuth
// @Router       /admin/dashboard [get]
func (h *DashboardHandler) Admin(c *gin.Context) {
	resp, err := h.dashboardService.Admin(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
