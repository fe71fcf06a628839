package catalog_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oficaz/billing-engine/pkg/catalog"
	"github.com/oficaz/billing-engine/pkg/feature"
)

func TestDefaultCatalog(t *testing.T) {
	t.Parallel()

	c := catalog.Default()

	for _, key := range []catalog.PlanKey{catalog.PlanBasic, catalog.PlanPro, catalog.PlanMaster, catalog.PlanOficaz} {
		p, err := c.Plan(key)
		require.NoError(t, err)
		assert.Equal(t, key, p.Key)
		assert.True(t, p.MonthlyPrice.IsPositive())
	}

	_, err := c.Plan(catalog.PlanKey("enterprise"))
	assert.ErrorIs(t, err, catalog.ErrPlanNotFound)

	messages, err := c.Addon("messages")
	require.NoError(t, err)
	assert.False(t, messages.FreeFeature)
	assert.Equal(t, feature.KeyMessages, messages.Feature)

	reports, err := c.Addon("reports")
	require.NoError(t, err)
	assert.True(t, reports.FreeFeature)
	assert.True(t, reports.MonthlyPrice.IsZero())

	_, err = c.Addon("nope")
	assert.ErrorIs(t, err, catalog.ErrAddonNotFound)

	for _, role := range catalog.SeatRoles() {
		price, err := c.SeatPrice(role)
		require.NoError(t, err)
		assert.True(t, price.IsPositive())
	}

	assert.Contains(t, c.PaidFeatureKeys(), feature.KeyMessages)
	assert.NotContains(t, c.PaidFeatureKeys(), feature.KeyReports)
	assert.Contains(t, c.FreeFeatureKeys(), feature.KeyReports)
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		plans  []catalog.Plan
		addons []catalog.Addon
	}{
		{
			name:  "unknown plan key",
			plans: []catalog.Plan{{Key: "gold", Name: "Gold"}},
		},
		{
			name:  "negative plan price",
			plans: []catalog.Plan{{Key: catalog.PlanBasic, MonthlyPrice: decimal.NewFromInt(-1)}},
		},
		{
			name:   "addon with unknown feature",
			addons: []catalog.Addon{{Key: "x", Feature: feature.Key("bogus")}},
		},
		{
			name:   "free addon with price",
			addons: []catalog.Addon{{Key: "x", Feature: feature.KeyReports, FreeFeature: true, MonthlyPrice: decimal.NewFromInt(5)}},
		},
		{
			name: "duplicate addon",
			addons: []catalog.Addon{
				{Key: "x", Feature: feature.KeyReports},
				{Key: "x", Feature: feature.KeyReports},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := catalog.New(tt.plans, tt.addons, nil)
			assert.ErrorIs(t, err, catalog.ErrInvalidCatalog)
		})
	}
}
