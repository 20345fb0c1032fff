package identity

import (
	"regexp"
	"strings"
	"time"

	"github.com/farmmarket/backend/internal/domain/shared"
	"github.com/farmmarket/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Role is the marketplace role of a user
type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleFarmer Role = "farmer"
	RoleAdmin  Role = "admin"
)

// IsValid reports whether r is a known role
func (r Role) IsValid() bool {
	switch r {
	case RoleBuyer, RoleFarmer, RoleAdmin:
		return true
	}
	return false
}

// CanSelfRegister reports whether the role may be chosen at sign-up
func (r Role) CanSelfRegister() bool {
	return r == RoleBuyer || r == RoleFarmer
}

// UserStatus represents the status of a user
type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
	UserStatusDeleted   UserStatus = "deleted"
)

const bcryptCost = 12

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// User is the account aggregate for buyers, farmers and admins
type User struct {
	shared.BaseAggregateRoot
	Email             string              `gorm:"type:varchar(254);not null;uniqueIndex"`
	PasswordHash      string              `gorm:"type:varchar(100);not null"`
	Role              Role                `gorm:"type:varchar(20);not null;index"`
	Status            UserStatus          `gorm:"type:varchar(20);not null;index"`
	DisplayName       string              `gorm:"type:varchar(120);not null"`
	Phone             string              `gorm:"type:varchar(40)"`
	Address           valueobject.Address `gorm:"type:text"`
	AvatarKey         string              `gorm:"type:varchar(300)"`
	FarmName          string              `gorm:"type:varchar(160)"`
	FarmBio           string              `gorm:"type:text"`
	SuspendedReason   string              `gorm:"type:varchar(500)"`
	FailedAttempts    int                 `gorm:"not null;default:0"`
	LastLoginAt       *time.Time
	LockedUntil       *time.Time
	PasswordChangedAt *time.Time
	DeletedAt         *time.Time
}

// TableName returns the table name for GORM
func (User) TableName() string {
	return "users"
}

// NewUser creates an active user with a hashed password
func NewUser(email, password, displayName string, role Role) (*User, error) {
	email = NormalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if !role.IsValid() {
		return nil, shared.NewDomainError("INVALID_ROLE", "Unknown role")
	}
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, shared.NewDomainError("INVALID_DISPLAY_NAME", "Display name cannot be empty")
	}
	if len(displayName) > 120 {
		return nil, shared.NewDomainError("INVALID_DISPLAY_NAME", "Display name cannot exceed 120 characters")
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}

	now := time.Now()
	user := &User{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Email:             email,
		PasswordHash:      hash,
		Role:              role,
		Status:            UserStatusActive,
		DisplayName:       displayName,
		PasswordChangedAt: &now,
	}
	user.AddDomainEvent(NewUserRegisteredEvent(user))
	return user, nil
}

// NormalizeEmail lowercases and trims an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsFarmer reports whether the user sells on the marketplace
func (u *User) IsFarmer() bool {
	return u.Role == RoleFarmer
}

// IsAdmin reports whether the user operates the platform
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// ProfileUpdate carries optional profile changes; nil fields are left untouched
type ProfileUpdate struct {
	DisplayName *string
	Phone       *string
	Address     *valueobject.Address
	FarmName    *string
	FarmBio     *string
}

// UpdateProfile applies profile changes
func (u *User) UpdateProfile(p ProfileUpdate) error {
	if u.Status == UserStatusDeleted {
		return shared.NewDomainError("ACCOUNT_DELETED", "Account has been deleted")
	}
	if p.DisplayName != nil {
		name := strings.TrimSpace(*p.DisplayName)
		if name == "" || len(name) > 120 {
			return shared.NewDomainError("INVALID_DISPLAY_NAME", "Display name must be 1-120 characters")
		}
		u.DisplayName = name
	}
	if p.Phone != nil {
		phone := strings.TrimSpace(*p.Phone)
		if len(phone) > 40 {
			return shared.NewDomainError("INVALID_PHONE", "Phone cannot exceed 40 characters")
		}
		u.Phone = phone
	}
	if p.Address != nil {
		u.Address = p.Address.Normalize()
	}
	if p.FarmName != nil || p.FarmBio != nil {
		if !u.IsFarmer() {
			return shared.NewDomainError("NOT_A_FARMER", "Only farmers have a farm profile")
		}
		if p.FarmName != nil {
			farm := strings.TrimSpace(*p.FarmName)
			if farm == "" || len(farm) > 160 {
				return shared.NewDomainError("INVALID_FARM_NAME", "Farm name must be 1-160 characters")
			}
			if previous := u.FarmName; farm != previous {
				u.FarmName = farm
				u.AddDomainEvent(NewFarmProfileChangedEvent(u, previous))
			}
		}
		if p.FarmBio != nil {
			u.FarmBio = strings.TrimSpace(*p.FarmBio)
		}
	}
	u.IncrementVersion()
	return nil
}

// SetFarmName sets the farm name, required for farmers at registration
func (u *User) SetFarmName(name string) error {
	name = strings.TrimSpace(name)
	if u.IsFarmer() && name == "" {
		return shared.NewDomainError("FARM_NAME_REQUIRED", "Farmers must provide a farm name")
	}
	if len(name) > 160 {
		return shared.NewDomainError("INVALID_FARM_NAME", "Farm name cannot exceed 160 characters")
	}
	u.FarmName = name
	return nil
}

// SetAvatar replaces the avatar object key and returns the previous one
func (u *User) SetAvatar(key string) string {
	previous := u.AvatarKey
	u.AvatarKey = key
	u.IncrementVersion()
	return previous
}

// VerifyPassword checks a plaintext password against the stored hash
func (u *User) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// ChangePassword verifies the current password and sets a new one
func (u *User) ChangePassword(oldPassword, newPassword string) error {
	if !u.VerifyPassword(oldPassword) {
		return shared.NewDomainError("INVALID_PASSWORD", "Current password is incorrect")
	}
	if oldPassword == newPassword {
		return shared.NewDomainError("PASSWORD_UNCHANGED", "New password must differ from the current one")
	}
	if err := ValidatePassword(newPassword); err != nil {
		return err
	}
	hash, err := hashPassword(newPassword)
	if err != nil {
		return shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}
	now := time.Now()
	u.PasswordHash = hash
	u.PasswordChangedAt = &now
	u.IncrementVersion()
	u.AddDomainEvent(NewUserPasswordChangedEvent(u))
	return nil
}

// CanLogin reports whether the account may authenticate right now
func (u *User) CanLogin() error {
	switch u.Status {
	case UserStatusSuspended:
		return shared.NewDomainError("ACCOUNT_SUSPENDED", "Account has been suspended")
	case UserStatusDeleted:
		return shared.NewDomainError("ACCOUNT_DELETED", "Account has been deleted")
	}
	if u.IsLocked() {
		return shared.NewDomainError("ACCOUNT_LOCKED", "Account is locked. Please try again later")
	}
	return nil
}

// IsLocked reports whether a temporary lock is in effect
func (u *User) IsLocked() bool {
	return u.LockedUntil != nil && time.Now().Before(*u.LockedUntil)
}

// RecordLoginSuccess resets failure counters
func (u *User) RecordLoginSuccess() {
	now := time.Now()
	u.LastLoginAt = &now
	u.FailedAttempts = 0
	u.LockedUntil = nil
	u.Touch()
}

// RecordLoginFailure counts a failed attempt and returns true when the
// account became locked.
func (u *User) RecordLoginFailure(maxAttempts int, lockDuration time.Duration) bool {
	u.FailedAttempts++
	u.Touch()
	if maxAttempts > 0 && u.FailedAttempts >= maxAttempts {
		until := time.Now().Add(lockDuration)
		u.LockedUntil = &until
		u.FailedAttempts = 0
		return true
	}
	return false
}

// Suspend blocks an account; actorID is the admin doing it
func (u *User) Suspend(actorID uuid.UUID, reason string) error {
	if actorID == u.ID {
		return shared.NewDomainError("CANNOT_SUSPEND_SELF", "Admins cannot suspend their own account")
	}
	switch u.Status {
	case UserStatusSuspended:
		return shared.NewDomainError("ALREADY_SUSPENDED", "User is already suspended")
	case UserStatusDeleted:
		return shared.NewDomainError("ACCOUNT_DELETED", "Account has been deleted")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Suspension reason is required")
	}
	old := u.Status
	u.Status = UserStatusSuspended
	u.SuspendedReason = reason
	u.IncrementVersion()
	u.AddDomainEvent(NewUserStatusChangedEvent(u, old))
	return nil
}

// Reactivate lifts a suspension
func (u *User) Reactivate() error {
	switch u.Status {
	case UserStatusActive:
		return shared.NewDomainError("ALREADY_ACTIVE", "User is already active")
	case UserStatusDeleted:
		return shared.NewDomainError("ACCOUNT_DELETED", "Deleted accounts cannot be reactivated")
	}
	old := u.Status
	u.Status = UserStatusActive
	u.SuspendedReason = ""
	u.FailedAttempts = 0
	u.LockedUntil = nil
	u.IncrementVersion()
	u.AddDomainEvent(NewUserStatusChangedEvent(u, old))
	return nil
}

// ChangeRole switches the account role; admins cannot demote themselves
func (u *User) ChangeRole(actorID uuid.UUID, role Role) error {
	if !role.IsValid() {
		return shared.NewDomainError("INVALID_ROLE", "Unknown role")
	}
	if u.Status == UserStatusDeleted {
		return shared.NewDomainError("ACCOUNT_DELETED", "Account has been deleted")
	}
	if actorID == u.ID && u.IsAdmin() && role != RoleAdmin {
		return shared.NewDomainError("CANNOT_DEMOTE_SELF", "Admins cannot remove their own admin role")
	}
	if u.Role == role {
		return nil
	}
	u.Role = role
	u.IncrementVersion()
	return nil
}

// Anonymize erases personal data and marks the account deleted.
// The row is kept so orders and ledgers stay referentially intact.
func (u *User) Anonymize() error {
	if u.Status == UserStatusDeleted {
		return shared.NewDomainError("ACCOUNT_DELETED", "Account has already been deleted")
	}
	now := time.Now()
	u.Email = "deleted+" + u.ID.String() + "@invalid.local"
	u.DisplayName = "Deleted user"
	u.Phone = ""
	u.Address = valueobject.Address{}
	u.AvatarKey = ""
	u.FarmBio = ""
	if u.IsFarmer() {
		u.FarmName = "Closed farm"
	}
	u.PasswordHash = "!"
	u.Status = UserStatusDeleted
	u.DeletedAt = &now
	u.IncrementVersion()
	u.AddDomainEvent(NewUserDeletedEvent(u))
	return nil
}

// PublicName returns the farm name for farmers, otherwise the display name
func (u *User) PublicName() string {
	if u.IsFarmer() && u.FarmName != "" {
		return u.FarmName
	}
	return u.DisplayName
}

// ValidatePassword enforces the password policy
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return shared.NewDomainError("WEAK_PASSWORD", "Password must be at least 8 characters")
	}
	if len(password) > 72 {
		return shared.NewDomainError("WEAK_PASSWORD", "Password cannot exceed 72 characters")
	}
	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case r >= '0' && r <= '9':
			hasDigit = true
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			hasLetter = true
		}
	}
	if !hasLetter || !hasDigit {
		return shared.NewDomainError("WEAK_PASSWORD", "Password must contain a letter and a digit")
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot be empty")
	}
	if len(email) > 254 || !emailPattern.MatchString(email) {
		return shared.NewDomainError("INVALID_EMAIL", "Email address is not valid")
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
