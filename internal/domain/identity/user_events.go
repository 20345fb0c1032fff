package identity

import (
	"time"

	"github.com/farmmarket/backend/internal/domain/shared"
)

// AggregateTypeUser is the aggregate type for user events
const AggregateTypeUser = "User"

// User domain event types
const (
	EventTypeUserRegistered      = "UserRegistered"
	EventTypeUserPasswordChanged = "UserPasswordChanged"
	EventTypeUserStatusChanged   = "UserStatusChanged"
	EventTypeUserDeleted         = "UserDeleted"
	EventTypeFarmProfileChanged  = "FarmProfileChanged"
)

// UserRegisteredEvent is published when an account is created
type UserRegisteredEvent struct {
	shared.BaseDomainEvent
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// NewUserRegisteredEvent creates a new UserRegisteredEvent
func NewUserRegisteredEvent(user *User) *UserRegisteredEvent {
	return &UserRegisteredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserRegistered, AggregateTypeUser, user.ID, user.ID),
		Email:           user.Email,
		Role:            user.Role,
	}
}

// UserPasswordChangedEvent is published when a user's password is changed
type UserPasswordChangedEvent struct {
	shared.BaseDomainEvent
	ChangedAt time.Time `json:"changed_at"`
}

// NewUserPasswordChangedEvent creates a new UserPasswordChangedEvent
func NewUserPasswordChangedEvent(user *User) *UserPasswordChangedEvent {
	return &UserPasswordChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserPasswordChanged, AggregateTypeUser, user.ID, user.ID),
		ChangedAt:       time.Now(),
	}
}

// UserStatusChangedEvent is published on suspension or reactivation
type UserStatusChangedEvent struct {
	shared.BaseDomainEvent
	Role      Role       `json:"role"`
	OldStatus UserStatus `json:"old_status"`
	NewStatus UserStatus `json:"new_status"`
	Reason    string     `json:"reason,omitempty"`
}

// NewUserStatusChangedEvent creates a new UserStatusChangedEvent
func NewUserStatusChangedEvent(user *User, oldStatus UserStatus) *UserStatusChangedEvent {
	return &UserStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserStatusChanged, AggregateTypeUser, user.ID, user.ID),
		Role:            user.Role,
		OldStatus:       oldStatus,
		NewStatus:       user.Status,
		Reason:          user.SuspendedReason,
	}
}

// UserDeletedEvent is published after an account has been anonymized
type UserDeletedEvent struct {
	shared.BaseDomainEvent
	Role Role `json:"role"`
}

// NewUserDeletedEvent creates a new UserDeletedEvent
func NewUserDeletedEvent(user *User) *UserDeletedEvent {
	return &UserDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserDeleted, AggregateTypeUser, user.ID, user.ID),
		Role:            user.Role,
	}
}

// FarmProfileChangedEvent is published when the public farm name changes
type FarmProfileChangedEvent struct {
	shared.BaseDomainEvent
	OldFarmName string `json:"old_farm_name"`
	FarmName    string `json:"farm_name"`
}

// NewFarmProfileChangedEvent creates a new FarmProfileChangedEvent
func NewFarmProfileChangedEvent(user *User, oldFarmName string) *FarmProfileChangedEvent {
	return &FarmProfileChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeFarmProfileChanged, AggregateTypeUser, user.ID, user.ID),
		OldFarmName:     oldFarmName,
		FarmName:        user.FarmName,
	}
}
