package identity

import (
	"testing"
	"time"

	"github.com/farmmarket/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUser(t *testing.T, role Role) *User {
	t.Helper()
	u, err := NewUser("  Grower@Example.com ", "sunshine42", "Ada Grower", role)
	require.NoError(t, err)
	return u
}

func TestNewUser(t *testing.T) {
	u := newTestUser(t, RoleFarmer)
	assert.Equal(t, "grower@example.com", u.Email)
	assert.Equal(t, UserStatusActive, u.Status)
	assert.NotEqual(t, "sunshine42", u.PasswordHash)
	assert.True(t, u.VerifyPassword("sunshine42"))
	assert.False(t, u.VerifyPassword("wrong"))
	require.Len(t, u.GetDomainEvents(), 1)
	assert.Equal(t, EventTypeUserRegistered, u.GetDomainEvents()[0].EventType())
}

func TestNewUser_Validation(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		display  string
		role     Role
		code     string
	}{
		{"bad email", "not-an-email", "sunshine42", "Ada", RoleBuyer, "INVALID_EMAIL"},
		{"short password", "a@b.co", "abc1", "Ada", RoleBuyer, "WEAK_PASSWORD"},
		{"no digit", "a@b.co", "abcdefghij", "Ada", RoleBuyer, "WEAK_PASSWORD"},
		{"empty name", "a@b.co", "sunshine42", "  ", RoleBuyer, "INVALID_DISPLAY_NAME"},
		{"unknown role", "a@b.co", "sunshine42", "Ada", Role("owner"), "INVALID_ROLE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewUser(tt.email, tt.password, tt.display, tt.role)
			require.Error(t, err)
			assertCode(t, err, tt.code)
		})
	}
}

func TestUser_LoginLockout(t *testing.T) {
	u := newTestUser(t, RoleBuyer)
	for i := 0; i < 4; i++ {
		assert.False(t, u.RecordLoginFailure(5, 15*time.Minute))
	}
	assert.True(t, u.RecordLoginFailure(5, 15*time.Minute))
	assert.True(t, u.IsLocked())
	assertCode(t, u.CanLogin(), "ACCOUNT_LOCKED")

	u.RecordLoginSuccess()
	assert.NoError(t, u.CanLogin())
	assert.NotNil(t, u.LastLoginAt)
}

func TestUser_SuspendAndReactivate(t *testing.T) {
	admin := uuid.New()
	u := newTestUser(t, RoleBuyer)

	assertCode(t, u.Suspend(admin, ""), "INVALID_REASON")
	require.NoError(t, u.Suspend(admin, "chargeback fraud"))
	assertCode(t, u.CanLogin(), "ACCOUNT_SUSPENDED")
	assertCode(t, u.Suspend(admin, "again"), "ALREADY_SUSPENDED")

	require.NoError(t, u.Reactivate())
	assert.Equal(t, UserStatusActive, u.Status)
	assert.Empty(t, u.SuspendedReason)
}

func TestUser_SuspendSelf(t *testing.T) {
	u := newTestUser(t, RoleAdmin)
	assertCode(t, u.Suspend(u.ID, "testing"), "CANNOT_SUSPEND_SELF")
}

func TestUser_ChangeRole(t *testing.T) {
	u := newTestUser(t, RoleAdmin)
	assertCode(t, u.ChangeRole(u.ID, RoleBuyer), "CANNOT_DEMOTE_SELF")
	require.NoError(t, u.ChangeRole(uuid.New(), RoleBuyer))
	assert.Equal(t, RoleBuyer, u.Role)
}

func TestUser_UpdateProfile(t *testing.T) {
	buyer := newTestUser(t, RoleBuyer)
	farm := "Sunny Acres"
	assertCode(t, buyer.UpdateProfile(ProfileUpdate{FarmName: &farm}), "NOT_A_FARMER")

	farmer := newTestUser(t, RoleFarmer)
	phone := " 555-0100 "
	addr := valueobject.Address{Line1: " 1 Farm Ln ", City: "Hill Valley"}
	require.NoError(t, farmer.UpdateProfile(ProfileUpdate{FarmName: &farm, Phone: &phone, Address: &addr}))
	assert.Equal(t, "Sunny Acres", farmer.FarmName)
	assert.Equal(t, "555-0100", farmer.Phone)
	assert.Equal(t, "1 Farm Ln", farmer.Address.Line1)
	assert.Equal(t, "Sunny Acres", farmer.PublicName())
}

func TestUser_UpdateProfile_FarmRenameRaisesEvent(t *testing.T) {
	farmer := newTestUser(t, RoleFarmer)
	require.NoError(t, farmer.SetFarmName("Green Acres"))
	farmer.ClearDomainEvents()

	same := " Green Acres "
	bio := "Heirloom tomatoes"
	require.NoError(t, farmer.UpdateProfile(ProfileUpdate{FarmName: &same, FarmBio: &bio}))
	assert.Empty(t, farmer.GetDomainEvents())

	renamed := "Sunny Acres"
	require.NoError(t, farmer.UpdateProfile(ProfileUpdate{FarmName: &renamed}))
	events := farmer.GetDomainEvents()
	require.Len(t, events, 1)
	changed, ok := events[0].(*FarmProfileChangedEvent)
	require.True(t, ok)
	assert.Equal(t, EventTypeFarmProfileChanged, changed.EventType())
	assert.Equal(t, "Green Acres", changed.OldFarmName)
	assert.Equal(t, "Sunny Acres", changed.FarmName)
}

func TestUser_StatusEventCarriesRole(t *testing.T) {
	farmer := newTestUser(t, RoleFarmer)
	farmer.ClearDomainEvents()
	require.NoError(t, farmer.Suspend(uuid.New(), "spam listings"))

	events := farmer.GetDomainEvents()
	require.Len(t, events, 1)
	changed, ok := events[0].(*UserStatusChangedEvent)
	require.True(t, ok)
	assert.Equal(t, RoleFarmer, changed.Role)
	assert.Equal(t, UserStatusSuspended, changed.NewStatus)
}

func TestUser_ChangePassword(t *testing.T) {
	u := newTestUser(t, RoleBuyer)
	assertCode(t, u.ChangePassword("nope", "harvest2024"), "INVALID_PASSWORD")
	assertCode(t, u.ChangePassword("sunshine42", "sunshine42"), "PASSWORD_UNCHANGED")
	require.NoError(t, u.ChangePassword("sunshine42", "harvest2024"))
	assert.True(t, u.VerifyPassword("harvest2024"))
}

func TestUser_Anonymize(t *testing.T) {
	u := newTestUser(t, RoleFarmer)
	u.AvatarKey = "avatars/x.png"
	u.Phone = "555"
	require.NoError(t, u.Anonymize())

	assert.Equal(t, UserStatusDeleted, u.Status)
	assert.Contains(t, u.Email, u.ID.String())
	assert.Empty(t, u.Phone)
	assert.Empty(t, u.AvatarKey)
	assert.NotNil(t, u.DeletedAt)
	assert.False(t, u.VerifyPassword("sunshine42"))
	assertCode(t, u.CanLogin(), "ACCOUNT_DELETED")
	assertCode(t, u.Reactivate(), "ACCOUNT_DELETED")
	assertCode(t, u.Anonymize(), "ACCOUNT_DELETED")
}
