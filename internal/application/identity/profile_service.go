package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/farmmarket/backend/internal/domain/identity"
	"github.com/farmmarket/backend/internal/domain/shared"
	"github.com/farmmarket/backend/internal/infrastructure/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultMaxAvatarSize is used when no limit is configured
const DefaultMaxAvatarSize int64 = 5 << 20

var avatarExtensions = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/webp": "webp",
	"image/gif":  "gif",
}

// AvatarStore is the part of object storage the profile service needs
type AvatarStore interface {
	PresignUpload(ctx context.Context, key, contentType string, expiresIn time.Duration) (storage.PresignedURL, error)
	PresignDownload(ctx context.Context, key string, expiresIn time.Duration) (storage.PresignedURL, error)
	Stat(ctx context.Context, key string) (storage.ObjectInfo, error)
	Delete(ctx context.Context, key string) error
}

// ProfileService manages the signed-in user's own account
type ProfileService struct {
	userRepo      identity.UserRepository
	store         AvatarStore
	publisher     shared.EventPublisher
	maxAvatarSize int64
	urlExpiry     time.Duration
	logger        *zap.Logger
}

// NewProfileService creates a new profile service
func NewProfileService(
	userRepo identity.UserRepository,
	store AvatarStore,
	publisher shared.EventPublisher,
	maxAvatarSize int64,
	urlExpiry time.Duration,
	logger *zap.Logger,
) *ProfileService {
	if maxAvatarSize <= 0 {
		maxAvatarSize = DefaultMaxAvatarSize
	}
	if urlExpiry <= 0 {
		urlExpiry = 15 * time.Minute
	}
	return &ProfileService{
		userRepo:      userRepo,
		store:         store,
		publisher:     publisher,
		maxAvatarSize: maxAvatarSize,
		urlExpiry:     urlExpiry,
		logger:        logger,
	}
}

// GetProfile returns the account with a presigned avatar URL
func (s *ProfileService) GetProfile(ctx context.Context, userID uuid.UUID) (*UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := toUserResponse(user, s.avatarURL(ctx, user))
	return &resp, nil
}

// UpdateProfile applies profile changes
func (s *ProfileService) UpdateProfile(ctx context.Context, userID uuid.UUID, req UpdateProfileRequest) (*UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if req.Address != nil && !req.Address.IsEmpty() {
		if err := req.Address.Validate(); err != nil {
			return nil, err
		}
	}
	if err := user.UpdateProfile(identity.ProfileUpdate{
		DisplayName: req.DisplayName,
		Phone:       req.Phone,
		Address:     req.Address,
		FarmName:    req.FarmName,
		FarmBio:     req.FarmBio,
	}); err != nil {
		return nil, err
	}
	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, err
	}
	if err := shared.PublishAndClear(ctx, s.publisher, user); err != nil {
		s.logger.Warn("Failed to publish profile change", zap.String("user_id", user.ID.String()), zap.Error(err))
	}
	resp := toUserResponse(user, s.avatarURL(ctx, user))
	return &resp, nil
}

// ChangePassword verifies the current password and stores the new one
func (s *ProfileService) ChangePassword(ctx context.Context, userID uuid.UUID, req ChangePasswordRequest) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := user.ChangePassword(req.OldPassword, req.NewPassword); err != nil {
		return err
	}
	if err := s.userRepo.Save(ctx, user); err != nil {
		return err
	}
	if err := shared.PublishAndClear(ctx, s.publisher, user); err != nil {
		s.logger.Warn("Failed to publish password change", zap.Error(err))
	}
	s.logger.Info("Password changed", zap.String("user_id", userID.String()))
	return nil
}

// RequestAvatarUpload returns a presigned PUT URL for a new avatar
func (s *ProfileService) RequestAvatarUpload(ctx context.Context, userID uuid.UUID, req AvatarUploadRequest) (*AvatarUploadResponse, error) {
	contentType := strings.ToLower(strings.TrimSpace(req.ContentType))
	ext, ok := avatarExtensions[contentType]
	if !ok {
		return nil, shared.NewDomainError("INVALID_FILE_TYPE", "Avatar must be a PNG, JPEG, WebP or GIF image")
	}
	if req.Size <= 0 || req.Size > s.maxAvatarSize {
		return nil, shared.NewDomainError("FILE_TOO_LARGE",
			fmt.Sprintf("Avatar cannot exceed %d bytes", s.maxAvatarSize))
	}
	if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s%s.%s", avatarPrefix(userID), uuid.New().String(), ext)
	url, err := s.store.PresignUpload(ctx, key, contentType, s.urlExpiry)
	if err != nil {
		return nil, fmt.Errorf("presign avatar upload: %w", err)
	}
	return &AvatarUploadResponse{
		UploadURL:  url.URL,
		Method:     url.Method,
		StorageKey: key,
		ExpiresAt:  url.ExpiresAt,
	}, nil
}

// ConfirmAvatar attaches an uploaded object as the user's avatar and
// deletes the previous one
func (s *ProfileService) ConfirmAvatar(ctx context.Context, userID uuid.UUID, req ConfirmAvatarRequest) (*UserResponse, error) {
	key := strings.TrimSpace(req.StorageKey)
	if !strings.HasPrefix(key, avatarPrefix(userID)) || strings.Contains(key, "..") {
		return nil, shared.NewDomainError("INVALID_STORAGE_KEY", "Storage key does not belong to this user")
	}

	info, err := s.store.Stat(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, shared.NewDomainError("UPLOAD_NOT_FOUND", "Uploaded file not found")
		}
		return nil, fmt.Errorf("stat avatar: %w", err)
	}
	if info.Size > s.maxAvatarSize {
		s.deleteObject(ctx, key)
		return nil, shared.NewDomainError("FILE_TOO_LARGE",
			fmt.Sprintf("Avatar cannot exceed %d bytes", s.maxAvatarSize))
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	previous := user.SetAvatar(key)
	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, err
	}
	if previous != "" && previous != key {
		s.deleteObject(ctx, previous)
	}

	resp := toUserResponse(user, s.avatarURL(ctx, user))
	return &resp, nil
}

// RemoveAvatar clears the avatar and deletes the stored object
func (s *ProfileService) RemoveAvatar(ctx context.Context, userID uuid.UUID) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.AvatarKey == "" {
		return nil
	}
	previous := user.SetAvatar("")
	if err := s.userRepo.Save(ctx, user); err != nil {
		return err
	}
	s.deleteObject(ctx, previous)
	return nil
}

func (s *ProfileService) avatarURL(ctx context.Context, user *identity.User) string {
	if user.AvatarKey == "" {
		return ""
	}
	url, err := s.store.PresignDownload(ctx, user.AvatarKey, s.urlExpiry)
	if err != nil {
		s.logger.Warn("Failed to presign avatar download", zap.String("key", user.AvatarKey), zap.Error(err))
		return ""
	}
	return url.URL
}

func (s *ProfileService) deleteObject(ctx context.Context, key string) {
	if err := s.store.Delete(ctx, key); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
		s.logger.Warn("Failed to delete avatar object", zap.String("key", key), zap.Error(err))
	}
}

func avatarPrefix(userID uuid.UUID) string {
	return "avatars/" + userID.String() + "/"
}
