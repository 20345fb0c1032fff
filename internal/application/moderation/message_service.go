package moderation

import (
	"context"
	"errors"
	"fmt"

	"github.com/farmmarket/backend/internal/domain/identity"
	"github.com/farmmarket/backend/internal/domain/moderation"
	"github.com/farmmarket/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	errMessageNotFound   = shared.NewDomainError("MESSAGE_NOT_FOUND", "Message not found")
	errRecipientNotFound = shared.NewDomainError("RECIPIENT_NOT_FOUND", "Recipient not found")
)

// UserFinder loads users by ID
type UserFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error)
}

// MessageService handles user messaging, notifications and message moderation
type MessageService struct {
	repo   moderation.MessageRepository
	users  UserFinder
	logger *zap.Logger
}

// NewMessageService creates a new MessageService
func NewMessageService(repo moderation.MessageRepository, users UserFinder, logger *zap.Logger) *MessageService {
	return &MessageService{repo: repo, users: users, logger: logger}
}

// Send stores a support message for the admins or a direct message to another user
func (s *MessageService) Send(ctx context.Context, senderID uuid.UUID, req SendMessageRequest) (*MessageResponse, error) {
	kind := moderation.MessageKind(req.Kind)
	if kind == moderation.KindDirect && req.RecipientID != nil && *req.RecipientID != senderID {
		recipient, err := s.users.FindByID(ctx, *req.RecipientID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, errRecipientNotFound
			}
			return nil, err
		}
		if recipient.Status != identity.UserStatusActive {
			return nil, errRecipientNotFound
		}
	}
	m, err := moderation.NewUserMessage(senderID, req.RecipientID, kind, req.Subject, req.Body)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to save message: %w", err)
	}
	s.logger.Info("Message sent",
		zap.String("message_id", m.ID.String()),
		zap.String("sender_id", senderID.String()),
		zap.String("kind", string(m.Kind)))
	resp := ToMessageResponse(m)
	return &resp, nil
}

// Inbox lists messages received by the user, or sent by them when Box is "sent"
func (s *MessageService) Inbox(ctx context.Context, userID uuid.UUID, req InboxRequest) (shared.Paginated[MessageResponse], error) {
	filter := shared.Filter{
		Page:     req.Page,
		PageSize: req.PageSize,
		OrderBy:  "created_at",
		OrderDir: "desc",
	}.Normalize()
	if req.Box == "sent" {
		filter = filter.With(moderation.FilterSenderID, userID)
	} else {
		filter = filter.With(moderation.FilterRecipientID, userID)
	}
	if req.Status != "" {
		filter = filter.With(moderation.FilterStatus, moderation.MessageStatus(req.Status))
	}
	return s.find(ctx, filter)
}

// Get returns a message the user sent or received
func (s *MessageService) Get(ctx context.Context, userID, messageID uuid.UUID) (*MessageResponse, error) {
	m, err := s.load(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if !m.IsVisibleTo(userID) {
		return nil, errMessageNotFound
	}
	resp := ToMessageResponse(m)
	return &resp, nil
}

// MarkRead marks a received message as read
func (s *MessageService) MarkRead(ctx context.Context, userID, messageID uuid.UUID) (*MessageResponse, error) {
	return s.updateReceived(ctx, userID, messageID, (*moderation.Message).MarkRead)
}

// Archive hides a received message from the inbox
func (s *MessageService) Archive(ctx context.Context, userID, messageID uuid.UUID) (*MessageResponse, error) {
	return s.updateReceived(ctx, userID, messageID, (*moderation.Message).Archive)
}

// Notify delivers a system notification to a user
func (s *MessageService) Notify(ctx context.Context, recipientID uuid.UUID, subject, body, relatedType string, relatedID uuid.UUID) error {
	m, err := moderation.NewNotification(recipientID, subject, body, relatedType, relatedID)
	if err != nil {
		return err
	}
	if err := s.repo.Save(ctx, m); err != nil {
		return fmt.Errorf("failed to save notification: %w", err)
	}
	s.logger.Debug("Notification stored",
		zap.String("recipient_id", recipientID.String()),
		zap.String("related_type", relatedType))
	return nil
}

// List lists all messages for admins
func (s *MessageService) List(ctx context.Context, req ListMessagesRequest) (shared.Paginated[MessageResponse], error) {
	filter := shared.Filter{
		Page:     req.Page,
		PageSize: req.PageSize,
		OrderBy:  "created_at",
		OrderDir: "desc",
	}.Normalize()
	if req.Kind != "" {
		filter = filter.With(moderation.FilterKind, moderation.MessageKind(req.Kind))
	}
	if req.Status != "" {
		filter = filter.With(moderation.FilterStatus, moderation.MessageStatus(req.Status))
	}
	if req.Flagged != nil {
		filter = filter.With(moderation.FilterFlagged, *req.Flagged)
	}
	return s.find(ctx, filter)
}

// Flag marks a message for review
func (s *MessageService) Flag(ctx context.Context, adminID, messageID uuid.UUID) (*MessageResponse, error) {
	return s.moderate(ctx, adminID, messageID, true)
}

// Unflag clears a message's moderation flag
func (s *MessageService) Unflag(ctx context.Context, adminID, messageID uuid.UUID) (*MessageResponse, error) {
	return s.moderate(ctx, adminID, messageID, false)
}

// Delete removes a message
func (s *MessageService) Delete(ctx context.Context, adminID, messageID uuid.UUID) error {
	m, err := s.load(ctx, messageID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, m.ID); err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	s.logger.Info("Message deleted",
		zap.String("message_id", m.ID.String()),
		zap.String("admin_id", adminID.String()))
	return nil
}

func (s *MessageService) moderate(ctx context.Context, adminID, messageID uuid.UUID, flagged bool) (*MessageResponse, error) {
	m, err := s.load(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if flagged {
		m.Flag()
	} else {
		m.Unflag()
	}
	if err := s.repo.Save(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to save message: %w", err)
	}
	s.logger.Info("Message moderated",
		zap.String("message_id", m.ID.String()),
		zap.String("admin_id", adminID.String()),
		zap.Bool("flagged", flagged))
	resp := ToMessageResponse(m)
	return &resp, nil
}

func (s *MessageService) updateReceived(ctx context.Context, userID, messageID uuid.UUID, step func(*moderation.Message) error) (*MessageResponse, error) {
	m, err := s.load(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if !m.IsRecipient(userID) {
		return nil, errMessageNotFound
	}
	if err := step(m); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to save message: %w", err)
	}
	resp := ToMessageResponse(m)
	return &resp, nil
}

func (s *MessageService) find(ctx context.Context, filter shared.Filter) (shared.Paginated[MessageResponse], error) {
	messages, total, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return shared.Paginated[MessageResponse]{}, err
	}
	items := make([]MessageResponse, len(messages))
	for i := range messages {
		items[i] = ToMessageResponse(&messages[i])
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

func (s *MessageService) load(ctx context.Context, id uuid.UUID) (*moderation.Message, error) {
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, errMessageNotFound
		}
		return nil, err
	}
	return m, nil
}
