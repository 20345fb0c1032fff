package moderation

import (
	"strings"

	"github.com/farmmarket/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// MessageKind distinguishes the channel of a message
type MessageKind string

const (
	KindSupport      MessageKind = "support"
	KindNotification MessageKind = "notification"
	KindDirect       MessageKind = "direct"
)

// IsValid checks if the kind is known
func (k MessageKind) IsValid() bool {
	return k == KindSupport || k == KindNotification || k == KindDirect
}

// MessageStatus is the read state of a message
type MessageStatus string

const (
	MessageStatusUnread   MessageStatus = "unread"
	MessageStatusRead     MessageStatus = "read"
	MessageStatusArchived MessageStatus = "archived"
)

// Message is a support request, a direct message or a system notification.
// Support messages have no recipient and land in the admin queue.
type Message struct {
	shared.BaseEntity
	SenderID    *uuid.UUID    `gorm:"type:uuid;index"`
	RecipientID *uuid.UUID    `gorm:"type:uuid;index"`
	Kind        MessageKind   `gorm:"type:varchar(20);not null;index"`
	Subject     string        `gorm:"type:varchar(200);not null"`
	Body        string        `gorm:"type:text;not null"`
	Status      MessageStatus `gorm:"type:varchar(20);not null;index"`
	Flagged     bool          `gorm:"not null;default:false"`
	RelatedType string        `gorm:"type:varchar(30)"`
	RelatedID   *uuid.UUID    `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (Message) TableName() string {
	return "messages"
}

func validateMessage(subject, body string) (string, string, error) {
	subject = strings.TrimSpace(subject)
	body = strings.TrimSpace(body)
	if subject == "" {
		return "", "", shared.NewDomainError("INVALID_SUBJECT", "Subject cannot be empty")
	}
	if len(subject) > 200 {
		return "", "", shared.NewDomainError("INVALID_SUBJECT", "Subject cannot exceed 200 characters")
	}
	if body == "" {
		return "", "", shared.NewDomainError("INVALID_BODY", "Body cannot be empty")
	}
	if len(body) > 10_000 {
		return "", "", shared.NewDomainError("INVALID_BODY", "Body cannot exceed 10000 characters")
	}
	return subject, body, nil
}

// NewUserMessage creates a support or direct message from a user
func NewUserMessage(senderID uuid.UUID, recipientID *uuid.UUID, kind MessageKind, subject, body string) (*Message, error) {
	switch kind {
	case KindSupport:
		recipientID = nil
	case KindDirect:
		if recipientID == nil || *recipientID == uuid.Nil {
			return nil, shared.NewDomainError("RECIPIENT_REQUIRED", "Direct messages need a recipient")
		}
		if *recipientID == senderID {
			return nil, shared.NewDomainError("INVALID_RECIPIENT", "Cannot message yourself")
		}
	default:
		return nil, shared.NewDomainError("INVALID_KIND", "Users can only send support or direct messages")
	}
	subject, body, err := validateMessage(subject, body)
	if err != nil {
		return nil, err
	}
	return &Message{
		BaseEntity:  shared.NewBaseEntity(),
		SenderID:    &senderID,
		RecipientID: recipientID,
		Kind:        kind,
		Subject:     subject,
		Body:        body,
		Status:      MessageStatusUnread,
	}, nil
}

// NewNotification creates a system message for a user
func NewNotification(recipientID uuid.UUID, subject, body, relatedType string, relatedID uuid.UUID) (*Message, error) {
	subject, body, err := validateMessage(subject, body)
	if err != nil {
		return nil, err
	}
	m := &Message{
		BaseEntity:  shared.NewBaseEntity(),
		RecipientID: &recipientID,
		Kind:        KindNotification,
		Subject:     subject,
		Body:        body,
		Status:      MessageStatusUnread,
		RelatedType: relatedType,
	}
	if relatedID != uuid.Nil {
		m.RelatedID = &relatedID
	}
	return m, nil
}

// IsVisibleTo reports whether a non-admin user may read the message
func (m *Message) IsVisibleTo(userID uuid.UUID) bool {
	return (m.RecipientID != nil && *m.RecipientID == userID) || (m.SenderID != nil && *m.SenderID == userID)
}

// IsRecipient reports whether the user received the message
func (m *Message) IsRecipient(userID uuid.UUID) bool {
	return m.RecipientID != nil && *m.RecipientID == userID
}

// MarkRead marks an unread message as read
func (m *Message) MarkRead() error {
	if m.Status == MessageStatusArchived {
		return shared.NewDomainError("MESSAGE_ARCHIVED", "Message is archived")
	}
	if m.Status == MessageStatusRead {
		return nil
	}
	m.Status = MessageStatusRead
	m.Touch()
	return nil
}

// Archive hides the message from the inbox
func (m *Message) Archive() error {
	if m.Status == MessageStatusArchived {
		return shared.NewDomainError("ALREADY_ARCHIVED", "Message is already archived")
	}
	m.Status = MessageStatusArchived
	m.Touch()
	return nil
}

// Flag marks the message for moderator attention
func (m *Message) Flag() {
	m.Flagged = true
	m.Touch()
}

// Unflag clears the moderation flag
func (m *Message) Unflag() {
	m.Flagged = false
	m.Touch()
}
