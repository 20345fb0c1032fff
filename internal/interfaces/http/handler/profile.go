package handler

import (
	identityapp "github.com/farmmarket/backend/internal/application/identity"
	"github.com/gin-gonic/gin"
)

// ProfileHandler serves the /me endpoints of any signed-in user
type ProfileHandler struct {
	BaseHandler
	profileService *identityapp.ProfileService
}

// NewProfileHandler creates a new ProfileHandler
func NewProfileHandler(profileService *identityapp.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

// Get godoc
// @ID           getProfile
// @Summary      Get my profile
// @Tags         profile
// @Produce      json
// @Success      200 {object} APIResponse[identityapp.UserResponse]
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /me [get]
func (h *ProfileHandler) Get(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	resp, err := h.profileService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Update godoc
// @ID           updateProfile
// @Summary      Update my profile
// @Description  Only the fields present in the body change. Farm fields are accepted from farmers only.
// @Tags         profile
// @Accept       json
// @Produce      json
// @Param        request body identityapp.UpdateProfileRequest true "Profile changes"
// @Success      200 {object} APIResponse[identityapp.UserResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /me [put]
func (h *ProfileHandler) Update(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	var req identityapp.UpdateProfileRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.profileService.UpdateProfile(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ChangePassword godoc
// @ID           changeProfilePassword
// @Summary      Change my password
// @Description  Verifies the current password and invalidates every other session
// @Tags         profile
// @Accept       json
// @Param        request body identityapp.ChangePasswordRequest true "Passwords"
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /me/password [put]
func (h *ProfileHandler) ChangePassword(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	var req identityapp.ChangePasswordRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if err := h.profileService.ChangePassword(c.Request.Context(), userID, req); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// RequestAvatarUpload godoc
// @ID           requestProfileAvatarUpload
// @Summary      Get an avatar upload URL
// @Description  Returns a presigned URL to PUT the image to. Confirm the upload afterwards.
// @Tags         profile
// @Accept       json
// @Produce      json
// @Param        request body identityapp.AvatarUploadRequest true "File description"
// @Success      200 {object} APIResponse[identityapp.AvatarUploadResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /me/avatar/upload-url [post]
func (h *ProfileHandler) RequestAvatarUpload(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	var req identityapp.AvatarUploadRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.profileService.RequestAvatarUpload(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ConfirmAvatar godoc
// @ID           confirmProfileAvatar
// @Summary      Confirm an uploaded avatar
// @Tags         profile
// @Accept       json
// @Produce      json
// @Param        request body identityapp.ConfirmAvatarRequest true "Uploaded object"
// @Success      200 {object} APIResponse[identityapp.UserResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /me/avatar/confirm [post]
func (h *ProfileHandler) ConfirmAvatar(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	var req identityapp.ConfirmAvatarRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.profileService.ConfirmAvatar(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// RemoveAvatar godoc
// @ID           removeProfileAvatar
// @Summary      Remove my avatar
// @Tags         profile
// @Success      204
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /me/avatar [delete]
func (h *ProfileHandler) RemoveAvatar(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	if err := h.profileService.RemoveAvatar(c.Request.Context(), userID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
