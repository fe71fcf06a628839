package feature_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oficaz/billing-engine/pkg/feature"
)

func TestResolve_PlanDefaultsOnly(t *testing.T) {
	t.Parallel()

	got := feature.Resolve(feature.ResolveInput{
		PlanDefaults: feature.NewSet(feature.KeyTimeTracking, feature.KeyVacations),
	})

	assert.True(t, got.Enabled(feature.KeyTimeTracking))
	assert.True(t, got.Enabled(feature.KeyVacations))
	assert.False(t, got.Enabled(feature.KeyMessages))
}

func TestResolve_PaidFeatureNeverGrantedByPlanDefaults(t *testing.T) {
	t.Parallel()

	// The basic plan's default map marks messages as enabled, but messages
	// is a paid addon: without a purchase the feature must stay off.
	got := feature.Resolve(feature.ResolveInput{
		PlanDefaults:      feature.NewSet(feature.KeyTimeTracking, feature.KeyMessages),
		PaidAddonFeatures: []feature.Key{feature.KeyMessages},
	})

	assert.False(t, got.Enabled(feature.KeyMessages))
	assert.True(t, got.Enabled(feature.KeyTimeTracking))
}

func TestResolve_PurchasedAddonGrants(t *testing.T) {
	t.Parallel()

	got := feature.Resolve(feature.ResolveInput{
		PlanDefaults:         feature.NewSet(feature.KeyTimeTracking),
		PaidAddonFeatures:    []feature.Key{feature.KeyMessages, feature.KeyDocuments},
		GrantedAddonFeatures: []feature.Key{feature.KeyMessages},
	})

	assert.True(t, got.Enabled(feature.KeyMessages))
	assert.False(t, got.Enabled(feature.KeyDocuments))
}

func TestResolve_CustomOverrideReplacesWholeMap(t *testing.T) {
	t.Parallel()

	got := feature.Resolve(feature.ResolveInput{
		PlanDefaults:       feature.NewSet(feature.KeyTimeTracking, feature.KeyVacations),
		UseCustomOverrides: true,
		CustomFeatures:     feature.NewSet(feature.KeyReports),
	})

	// Override is total: plan defaults do not leak through.
	assert.False(t, got.Enabled(feature.KeyTimeTracking))
	assert.False(t, got.Enabled(feature.KeyVacations))
	assert.True(t, got.Enabled(feature.KeyReports))
}

func TestResolve_PurchasedGrantWinsOverOverride(t *testing.T) {
	t.Parallel()

	// An admin-configured override disables messages, but the company has an
	// active purchase. The grant wins: nobody loses a feature they pay for.
	got := feature.Resolve(feature.ResolveInput{
		PlanDefaults:       feature.NewSet(feature.KeyTimeTracking),
		UseCustomOverrides: true,
		CustomFeatures:     feature.Set{feature.KeyMessages: false},
		PaidAddonFeatures:  []feature.Key{feature.KeyMessages},
		GrantedAddonFeatures: []feature.Key{
			feature.KeyMessages,
		},
	})

	assert.True(t, got.Enabled(feature.KeyMessages))
}

func TestResolve_FreeAddonFeaturesAlwaysOn(t *testing.T) {
	t.Parallel()

	got := feature.Resolve(feature.ResolveInput{
		PlanDefaults:       feature.NewSet(),
		UseCustomOverrides: true,
		CustomFeatures:     feature.NewSet(),
		FreeAddonFeatures:  []feature.Key{feature.KeyReports},
	})

	assert.True(t, got.Enabled(feature.KeyReports))
}

func TestResolve_MonotonicInAddons(t *testing.T) {
	t.Parallel()

	base := feature.ResolveInput{
		PlanDefaults:      feature.NewSet(feature.KeyTimeTracking, feature.KeyVacations),
		PaidAddonFeatures: []feature.Key{feature.KeyMessages, feature.KeyDocuments},
	}

	without := feature.Resolve(base)

	withAddon := base
	withAddon.GrantedAddonFeatures = []feature.Key{feature.KeyDocuments}
	with := feature.Resolve(withAddon)

	// Adding an addon grant never removes a previously granted feature.
	for k, enabled := range without {
		if enabled {
			assert.True(t, with.Enabled(k), "feature %s lost after addon grant", k)
		}
	}
	assert.True(t, with.Enabled(feature.KeyDocuments))
}

func TestResolve_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	defaults := feature.NewSet(feature.KeyTimeTracking)
	custom := feature.NewSet(feature.KeyReports)

	got := feature.Resolve(feature.ResolveInput{
		PlanDefaults:         defaults,
		UseCustomOverrides:   true,
		CustomFeatures:       custom,
		GrantedAddonFeatures: []feature.Key{feature.KeyMessages},
	})

	require.True(t, got.Enabled(feature.KeyMessages))
	assert.False(t, custom.Enabled(feature.KeyMessages), "input custom map must not be mutated")
}

func TestKeyValid(t *testing.T) {
	t.Parallel()

	for _, k := range feature.Keys() {
		assert.True(t, k.Valid(), "key %s", k)
	}
	assert.False(t, feature.Key("nonsense").Valid())
}
