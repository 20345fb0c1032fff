package identity

import (
	"context"

	"github.com/farmmarket/backend/internal/domain/identity"
	"github.com/farmmarket/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserAdminService implements admin user moderation
type UserAdminService struct {
	userRepo  identity.UserRepository
	sessions  SessionRevoker
	publisher shared.EventPublisher
	logger    *zap.Logger
}

// SessionRevoker invalidates every token of a user
type SessionRevoker interface {
	RevokeAllSessions(ctx context.Context, user *identity.User) error
}

// NewUserAdminService creates a new admin user service
func NewUserAdminService(
	userRepo identity.UserRepository,
	sessions SessionRevoker,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *UserAdminService {
	return &UserAdminService{
		userRepo:  userRepo,
		sessions:  sessions,
		publisher: publisher,
		logger:    logger,
	}
}

// ListUsers lists accounts for moderation
func (s *UserAdminService) ListUsers(ctx context.Context, req ListUsersRequest) (shared.Paginated[AdminUserResponse], error) {
	filter := shared.Filter{
		Page:     req.Page,
		PageSize: req.PageSize,
		OrderBy:  "created_at",
		OrderDir: "desc",
		Search:   req.Search,
	}.Normalize()
	if req.Role != "" {
		filter = filter.With("role", req.Role)
	}
	if req.Status != "" {
		filter = filter.With("status", req.Status)
	}

	users, total, err := s.userRepo.FindAll(ctx, filter)
	if err != nil {
		return shared.Paginated[AdminUserResponse]{}, err
	}
	items := make([]AdminUserResponse, len(users))
	for i := range users {
		items[i] = toAdminUserResponse(&users[i])
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// GetUser returns one account
func (s *UserAdminService) GetUser(ctx context.Context, userID uuid.UUID) (*AdminUserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := toAdminUserResponse(user)
	return &resp, nil
}

// SuspendUser blocks an account and revokes its sessions
func (s *UserAdminService) SuspendUser(ctx context.Context, adminID, userID uuid.UUID, req SuspendUserRequest) (*AdminUserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := user.Suspend(adminID, req.Reason); err != nil {
		return nil, err
	}
	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, err
	}
	if s.sessions != nil {
		if err := s.sessions.RevokeAllSessions(ctx, user); err != nil {
			s.logger.Error("Failed to revoke sessions of suspended user", zap.Error(err))
		}
	}
	s.publish(ctx, user)

	s.logger.Info("User suspended",
		zap.String("user_id", userID.String()),
		zap.String("admin_id", adminID.String()))
	resp := toAdminUserResponse(user)
	return &resp, nil
}

// ReactivateUser lifts a suspension
func (s *UserAdminService) ReactivateUser(ctx context.Context, adminID, userID uuid.UUID) (*AdminUserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := user.Reactivate(); err != nil {
		return nil, err
	}
	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, err
	}
	s.publish(ctx, user)

	s.logger.Info("User reactivated",
		zap.String("user_id", userID.String()),
		zap.String("admin_id", adminID.String()))
	resp := toAdminUserResponse(user)
	return &resp, nil
}

// ChangeRole switches a user's role. Existing tokens carry the old role,
// so the user's sessions are revoked.
func (s *UserAdminService) ChangeRole(ctx context.Context, adminID, userID uuid.UUID, req ChangeRoleRequest) (*AdminUserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	before := user.Role
	if err := user.ChangeRole(adminID, identity.Role(req.Role)); err != nil {
		return nil, err
	}
	if user.Role != before {
		if err := s.userRepo.Save(ctx, user); err != nil {
			return nil, err
		}
		if s.sessions != nil && user.ID != adminID {
			if err := s.sessions.RevokeAllSessions(ctx, user); err != nil {
				s.logger.Error("Failed to revoke sessions after role change", zap.Error(err))
			}
		}
		s.logger.Info("User role changed",
			zap.String("user_id", userID.String()),
			zap.String("from", string(before)),
			zap.String("to", string(user.Role)))
	}
	resp := toAdminUserResponse(user)
	return &resp, nil
}

func (s *UserAdminService) publish(ctx context.Context, user *identity.User) {
	if err := shared.PublishAndClear(ctx, s.publisher, user); err != nil {
		s.logger.Warn("Failed to publish user events", zap.Error(err))
	}
}
