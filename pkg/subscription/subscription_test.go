package subscription_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oficaz/billing-engine/pkg/catalog"
	"github.com/oficaz/billing-engine/pkg/subscription"
)

func TestNew(t *testing.T) {
	t.Parallel()

	cat := catalog.Default()
	plan, err := cat.Plan(catalog.PlanPro)
	require.NoError(t, err)

	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	companyID := uuid.New()

	t.Run("creates trialing subscription", func(t *testing.T) {
		t.Parallel()

		sub, err := subscription.New(companyID, plan, 14, now)
		require.NoError(t, err)

		assert.Equal(t, companyID, sub.CompanyID)
		assert.Equal(t, catalog.PlanPro, sub.Plan)
		assert.Equal(t, subscription.StatusTrialing, sub.Status)
		assert.Equal(t, now, sub.TrialStartDate)
		assert.Equal(t, now.AddDate(0, 0, 14), sub.TrialEndDate)
		assert.True(t, plan.MonthlyPrice.Equal(sub.BaseMonthlyPrice))
		assert.False(t, sub.HasPaymentMethod)
		assert.Equal(t, now, sub.CurrentPeriodStart)
		assert.Equal(t, now.AddDate(0, 1, 0), sub.CurrentPeriodEnd)
	})

	t.Run("rejects non-positive trial duration", func(t *testing.T) {
		t.Parallel()

		_, err := subscription.New(companyID, plan, 0, now)
		assert.ErrorIs(t, err, subscription.ErrInvalidTrialPeriod)

		_, err = subscription.New(companyID, plan, -3, now)
		assert.ErrorIs(t, err, subscription.ErrInvalidTrialPeriod)
	})
}

func TestTrialStatusAt(t *testing.T) {
	t.Parallel()

	cat := catalog.Default()
	plan, err := cat.Plan(catalog.PlanBasic)
	require.NoError(t, err)

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	sub, err := subscription.New(uuid.New(), plan, 14, start)
	require.NoError(t, err)

	t.Run("day one", func(t *testing.T) {
		t.Parallel()

		ts := sub.TrialStatusAt(start)
		assert.True(t, ts.IsTrialActive)
		assert.Equal(t, 14, ts.DaysRemaining)
		assert.False(t, ts.IsBlocked)
	})

	t.Run("partial days count as full", func(t *testing.T) {
		t.Parallel()

		// 13.5 days in: half a day left still reports one day.
		ts := sub.TrialStatusAt(start.Add(13*24*time.Hour + 12*time.Hour))
		assert.True(t, ts.IsTrialActive)
		assert.Equal(t, 1, ts.DaysRemaining)
	})

	t.Run("expired but not yet swept", func(t *testing.T) {
		t.Parallel()

		ts := sub.TrialStatusAt(start.AddDate(0, 0, 15))
		assert.False(t, ts.IsTrialActive)
		assert.Equal(t, 0, ts.DaysRemaining)
		assert.False(t, ts.IsBlocked)
		assert.Equal(t, subscription.StatusTrialing, ts.Status)
	})

	t.Run("blocked subscription", func(t *testing.T) {
		t.Parallel()

		blocked := *sub
		blocked.Status = subscription.StatusBlocked
		ts := blocked.TrialStatusAt(start.AddDate(0, 0, 20))
		assert.False(t, ts.IsTrialActive)
		assert.True(t, ts.IsBlocked)
	})

	t.Run("active subscription reports no trial", func(t *testing.T) {
		t.Parallel()

		active := *sub
		active.Status = subscription.StatusActive
		active.HasPaymentMethod = true
		ts := active.TrialStatusAt(start.AddDate(0, 0, 5))
		assert.False(t, ts.IsTrialActive)
		assert.Equal(t, 0, ts.DaysRemaining)
		assert.True(t, ts.HasPayment)
	})
}

func TestEndOfCurrentPeriodAt(t *testing.T) {
	t.Parallel()

	cat := catalog.Default()
	plan, err := cat.Plan(catalog.PlanBasic)
	require.NoError(t, err)

	start := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	sub, err := subscription.New(uuid.New(), plan, 14, start)
	require.NoError(t, err)

	// Inside the first period the stored anchor is the answer.
	assert.Equal(t, start.AddDate(0, 1, 0), sub.EndOfCurrentPeriodAt(start.AddDate(0, 0, 10)))

	// Three months later the projection rolls forward without mutating.
	later := start.AddDate(0, 3, 5)
	assert.Equal(t, start.AddDate(0, 4, 0), sub.EndOfCurrentPeriodAt(later))
	assert.Equal(t, start.AddDate(0, 1, 0), sub.CurrentPeriodEnd)
}

func TestMonthlyPrice(t *testing.T) {
	t.Parallel()

	cat := catalog.Default()
	plan, err := cat.Plan(catalog.PlanMaster)
	require.NoError(t, err)

	sub, err := subscription.New(uuid.New(), plan, 14, time.Now())
	require.NoError(t, err)

	assert.True(t, plan.MonthlyPrice.Equal(sub.MonthlyPrice()))

	custom := decimal.RequireFromString("39.00")
	sub.CustomMonthlyPrice = &custom
	assert.True(t, custom.Equal(sub.MonthlyPrice()))
}
