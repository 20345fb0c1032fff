package handler

import (
	identityapp "github.com/farmmarket/backend/internal/application/identity"
	"github.com/gin-gonic/gin"
)

// UserAdminHandler handles account moderation by admins
type UserAdminHandler struct {
	BaseHandler
	userAdminService *identityapp.UserAdminService
}

// NewUserAdminHandler creates a new UserAdminHandler
func NewUserAdminHandler(userAdminService *identityapp.UserAdminService) *UserAdminHandler {
	return &UserAdminHandler{userAdminService: userAdminService}
}

// List godoc
// @ID           listAdminUsers
// @Summary      List users
// @Tags         admin-users
// @Produce      json
// @Param        role      query string false "Role filter" Enums(buyer, farmer, admin)
// @Param        status    query string false "Status filter" Enums(active, suspended, deleted)
// @Param        search    query string false "Email or display name"
// @Param        page      query int    false "Page number" default(1)
// @Param        page_size query int    false "Page size" default(20)
// @Success      200 {object} APIResponse[[]identityapp.AdminUserResponse]
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/users [get]
func (h *UserAdminHandler) List(c *gin.Context) {
	var req identityapp.ListUsersRequest
	if !h.bindQuery(c, &req) {
		return
	}
	page, err := h.userAdminService.ListUsers(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(c, page)
}

// Get godoc
// @ID           getAdminUser
// @Summary      Get a user
// @Tags         admin-users
// @Produce      json
// @Param        id path string true "User ID" format(uuid)
// @Success      200 {object} APIResponse[identityapp.AdminUserResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/users/{id} [get]
func (h *UserAdminHandler) Get(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.userAdminService.GetUser(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Suspend godoc
// @ID           suspendAdminUser
// @Summary      Suspend a user
// @Description  Blocks login and revokes every session of the user
// @Tags         admin-users
// @Accept       json
// @Produce      json
// @Param        id      path string                        true "User ID" format(uuid)
// @Param        request body identityapp.SuspendUserRequest true "Reason"
// @Success      200 {object} APIResponse[identityapp.AdminUserResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/users/{id}/suspend [post]
func (h *UserAdminHandler) Suspend(c *gin.Context) {
	adminID, id, ok := h.userAndPathID(c, "id")
	if !ok {
		return
	}
	var req identityapp.SuspendUserRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.userAdminService.SuspendUser(c.Request.Context(), adminID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Reactivate godoc
// @ID           reactivateAdminUser
// @Summary      Reactivate a suspended user
// @Tags         admin-users
// @Produce      json
// @Param        id path string true "User ID" format(uuid)
// @Success      200 {object} APIResponse[identityapp.AdminUserResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/users/{id}/reactivate [post]
func (h *UserAdminHandler) Reactivate(c *gin.Context) {
	adminID, id, ok := h.userAndPathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.userAdminService.ReactivateUser(c.Request.Context(), adminID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ChangeRole godoc
// @ID           changeAdminUserRole
// @Summary      Change a user's role
// @Tags         admin-users
// @Accept       json
// @Produce      json
// @Param        id      path string                       true "User ID" format(uuid)
// @Param        request body identityapp.ChangeRoleRequest true "New role"
// @Success      200 {object} APIResponse[identityapp.AdminUserResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/users/{id}/role [put]
func (h *UserAdminHandler) ChangeRole(c *gin.Context) {
	adminID, id, ok := h.userAndPathID(c, "id")
	if !ok {
		return
	}
	var req identityapp.ChangeRoleRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.userAdminService.ChangeRole(c.Request.Context(), adminID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
