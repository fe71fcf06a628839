package feature

// ResolveInput is an explicit snapshot of everything that influences a
// company's effective feature set. Callers assemble it from the subscription
// row, the company's addon rows and the addon catalog; Resolve itself touches
// no shared state and is safe to run concurrently.
type ResolveInput struct {
	// PlanDefaults is the feature map of the company's base plan.
	PlanDefaults Set

	// UseCustomOverrides switches the base map to CustomFeatures entirely.
	// The override is a total replacement, not a patch.
	UseCustomOverrides bool
	CustomFeatures     Set

	// PaidAddonFeatures lists features that are gated behind individually
	// billed addons. They are never granted by plan defaults alone.
	PaidAddonFeatures []Key

	// GrantedAddonFeatures lists features unlocked by addon purchases that
	// are currently active or pending cancellation.
	GrantedAddonFeatures []Key

	// FreeAddonFeatures lists features of free catalog addons. They are
	// always enabled; the catalog entry exists only to describe them.
	FreeAddonFeatures []Key
}

// Resolve computes the effective feature set for a single request.
//
// The result must not be cached beyond the request: plan, override and addon
// state can all change between calls. Resolution order:
//
//  1. Start from the plan defaults with paid-addon features masked off.
//  2. If custom overrides are enabled, replace the whole map with the
//     custom feature map.
//  3. Enable every feature granted by a purchased addon. Grants only turn
//     features on, never off, so a company keeps access to anything it is
//     actively paying for even when an override disables it.
//  4. Enable free-addon features unconditionally.
func Resolve(in ResolveInput) Set {
	paid := NewSet(in.PaidAddonFeatures...)

	effective := make(Set, len(in.PlanDefaults))
	for k, v := range in.PlanDefaults {
		if paid.Enabled(k) {
			continue
		}
		effective[k] = v
	}

	if in.UseCustomOverrides {
		effective = in.CustomFeatures.Clone()
	}

	for _, k := range in.GrantedAddonFeatures {
		effective[k] = true
	}
	for _, k := range in.FreeAddonFeatures {
		effective[k] = true
	}

	return effective
}
