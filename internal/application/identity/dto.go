package identity

import (
	"time"

	"github.com/farmmarket/backend/internal/domain/identity"
	"github.com/farmmarket/backend/internal/domain/shared/valueobject"
	"github.com/farmmarket/backend/internal/infrastructure/auth"
	"github.com/google/uuid"
)

// RegisterRequest is the sign-up payload
type RegisterRequest struct {
	Email       string `json:"email" binding:"required,email,max=254"`
	Password    string `json:"password" binding:"required,min=8,max=72"`
	DisplayName string `json:"display_name" binding:"required,min=1,max=120"`
	Role        string `json:"role" binding:"required,oneof=buyer farmer"`
	FarmName    string `json:"farm_name" binding:"max=160"`
}

// LoginRequest is the sign-in payload
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest carries the refresh token to rotate
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// LogoutInput identifies the tokens to revoke
type LogoutInput struct {
	UserID       uuid.UUID
	AccessJTI    string
	AccessTTL    time.Duration
	RefreshToken string
}

// AuthResponse is returned by register, login and refresh
type AuthResponse struct {
	Tokens auth.TokenPair `json:"tokens"`
	User   UserResponse   `json:"user"`
}

// UserResponse is the public view of an account
type UserResponse struct {
	ID          uuid.UUID            `json:"id"`
	Email       string               `json:"email"`
	Role        string               `json:"role"`
	Status      string               `json:"status"`
	DisplayName string               `json:"display_name"`
	Phone       string               `json:"phone,omitempty"`
	Address     *valueobject.Address `json:"address,omitempty"`
	AvatarURL   string               `json:"avatar_url,omitempty"`
	FarmName    string               `json:"farm_name,omitempty"`
	FarmBio     string               `json:"farm_bio,omitempty"`
	LastLoginAt *time.Time           `json:"last_login_at,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
}

// AdminUserResponse adds moderation fields to UserResponse
type AdminUserResponse struct {
	UserResponse
	SuspendedReason string     `json:"suspended_reason,omitempty"`
	LockedUntil     *time.Time `json:"locked_until,omitempty"`
	DeletedAt       *time.Time `json:"deleted_at,omitempty"`
}

// UpdateProfileRequest carries optional profile changes
type UpdateProfileRequest struct {
	DisplayName *string              `json:"display_name" binding:"omitempty,min=1,max=120"`
	Phone       *string              `json:"phone" binding:"omitempty,max=40"`
	Address     *valueobject.Address `json:"address"`
	FarmName    *string              `json:"farm_name" binding:"omitempty,min=1,max=160"`
	FarmBio     *string              `json:"farm_bio" binding:"omitempty,max=4000"`
}

// ChangePasswordRequest carries the current and new password
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=72"`
}

// AvatarUploadRequest describes the file the client is about to upload
type AvatarUploadRequest struct {
	ContentType string `json:"content_type" binding:"required"`
	Size        int64  `json:"size" binding:"required,gt=0"`
}

// AvatarUploadResponse tells the client where to PUT the file
type AvatarUploadResponse struct {
	UploadURL  string    `json:"upload_url"`
	Method     string    `json:"method"`
	StorageKey string    `json:"storage_key"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// ConfirmAvatarRequest references an uploaded object
type ConfirmAvatarRequest struct {
	StorageKey string `json:"storage_key" binding:"required"`
}

// ListUsersRequest filters the admin user listing
type ListUsersRequest struct {
	Role     string `form:"role" binding:"omitempty,oneof=buyer farmer admin"`
	Status   string `form:"status" binding:"omitempty,oneof=active suspended deleted"`
	Search   string `form:"search" binding:"max=100"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// SuspendUserRequest carries the moderation reason
type SuspendUserRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// ChangeRoleRequest carries the new role
type ChangeRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=buyer farmer admin"`
}

func toUserResponse(u *identity.User, avatarURL string) UserResponse {
	resp := UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		Role:        string(u.Role),
		Status:      string(u.Status),
		DisplayName: u.DisplayName,
		Phone:       u.Phone,
		AvatarURL:   avatarURL,
		FarmName:    u.FarmName,
		FarmBio:     u.FarmBio,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
	if !u.Address.IsEmpty() {
		addr := u.Address
		resp.Address = &addr
	}
	return resp
}

func toAdminUserResponse(u *identity.User) AdminUserResponse {
	return AdminUserResponse{
		UserResponse:    toUserResponse(u, ""),
		SuspendedReason: u.SuspendedReason,
		LockedUntil:     u.LockedUntil,
		DeletedAt:       u.DeletedAt,
	}
}
