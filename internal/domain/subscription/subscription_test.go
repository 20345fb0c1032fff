package subscription

import (
	"errors"
	"testing"
	"time"

	"github.com/farmmarket/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	var de *shared.DomainError
	require.True(t, errors.As(err, &de), "expected DomainError, got %v", err)
	assert.Equal(t, code, de.Code)
}

var t0 = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestPlans(t *testing.T) {
	all := Plans()
	require.Len(t, all, 3)
	assert.Equal(t, PlanFree, all[0].Code)

	pro, ok := FindPlan(PlanPro)
	require.True(t, ok)
	assert.True(t, pro.AllowsProducts(10_000))
	assert.True(t, pro.IsUpgradeFrom(FreePlan()))
	assert.False(t, FreePlan().AllowsProducts(6))

	_, ok = FindPlan("gold")
	assert.False(t, ok)
}

func TestNewSubscription(t *testing.T) {
	_, err := NewSubscription(uuid.New(), "gold", t0)
	assertCode(t, err, "INVALID_PLAN")

	s, err := NewSubscription(uuid.New(), PlanGrower, t0)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, s.Status)
	assert.Equal(t, t0.Add(BillingPeriod), s.CurrentPeriodEnd)
	assert.True(t, s.AutoRenew)
	assert.Len(t, s.GetDomainEvents(), 1)
}

func TestSubscription_ChangePlan(t *testing.T) {
	s, _ := NewSubscription(uuid.New(), PlanPro, t0)

	err := s.ChangePlan(PlanFree, 8)
	assertCode(t, err, "PLAN_LIMIT_EXCEEDED")
	assert.Equal(t, PlanPro, s.PlanCode)

	require.NoError(t, s.ChangePlan(PlanGrower, 8))
	assert.Equal(t, PlanGrower, s.PlanCode)
	assertCode(t, s.ChangePlan(PlanGrower, 0), "SAME_PLAN")
}

func TestSubscription_CancelKeepsBenefitsUntilPeriodEnd(t *testing.T) {
	s, _ := NewSubscription(uuid.New(), PlanGrower, t0)
	require.NoError(t, s.Cancel(t0.Add(time.Hour)))
	assert.False(t, s.AutoRenew)
	assert.Equal(t, PlanGrower, s.EffectivePlan(t0.Add(24*time.Hour)).Code)
	assert.Equal(t, PlanFree, s.EffectivePlan(s.CurrentPeriodEnd.Add(time.Second)).Code)

	assertCode(t, s.Cancel(t0), "INVALID_STATE")
}

func TestSubscription_RollOver(t *testing.T) {
	s, _ := NewSubscription(uuid.New(), PlanGrower, t0)
	end := s.CurrentPeriodEnd

	_, err := s.RollOver(t0)
	assertCode(t, err, "NOT_DUE")

	renewed, err := s.RollOver(end)
	require.NoError(t, err)
	assert.True(t, renewed)
	assert.Equal(t, end, s.CurrentPeriodStart)
	assert.Equal(t, StatusActive, s.Status)

	require.NoError(t, s.Cancel(end))
	renewed, err = s.RollOver(s.CurrentPeriodEnd)
	require.NoError(t, err)
	assert.False(t, renewed)
	assert.Equal(t, StatusExpired, s.Status)
	assert.False(t, s.IsEntitled(s.CurrentPeriodEnd))
}

func TestSubscription_RollOverCatchesUpMissedPeriods(t *testing.T) {
	s, _ := NewSubscription(uuid.New(), PlanGrower, t0)
	now := t0.Add(3*BillingPeriod + time.Hour)
	renewed, err := s.RollOver(now)
	require.NoError(t, err)
	assert.True(t, renewed)
	assert.True(t, now.Before(s.CurrentPeriodEnd))
}

func TestSubscription_SuspendReinstate(t *testing.T) {
	s, _ := NewSubscription(uuid.New(), PlanPro, t0)
	assertCode(t, s.Suspend(""), "INVALID_REASON")
	require.NoError(t, s.Suspend("chargeback"))
	assert.Equal(t, PlanFree, s.EffectivePlan(t0).Code)
	assertCode(t, s.Suspend("again"), "ALREADY_SUSPENDED")
	assertCode(t, s.Resubscribe(PlanPro, t0), "SUBSCRIPTION_SUSPENDED")

	require.NoError(t, s.Reinstate(t0.Add(time.Hour)))
	assert.Equal(t, StatusActive, s.Status)
	assertCode(t, s.Reinstate(t0), "NOT_SUSPENDED")
}

func TestSubscription_Resubscribe(t *testing.T) {
	s, _ := NewSubscription(uuid.New(), PlanGrower, t0)
	assertCode(t, s.Resubscribe(PlanPro, t0), "ALREADY_SUBSCRIBED")

	require.NoError(t, s.Cancel(t0))
	later := t0.Add(2 * BillingPeriod)
	require.NoError(t, s.Resubscribe(PlanPro, later))
	assert.Equal(t, StatusActive, s.Status)
	assert.Equal(t, PlanPro, s.PlanCode)
	assert.Nil(t, s.CancelledAt)
	assert.Equal(t, later.Add(BillingPeriod), s.CurrentPeriodEnd)
}
