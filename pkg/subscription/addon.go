package subscription

import (
	"time"

	"github.com/google/uuid"
)

// CompanyAddon is one company's purchase state for a single catalog addon.
// A row is created on first purchase and reused on later repurchases, so the
// cooldown stamped by a completed cancellation survives.
type CompanyAddon struct {
	CompanyID uuid.UUID
	AddonKey  string
	Status    AddonStatus

	ActivatedAt time.Time

	// CancellationEffectiveDate is set while the addon is pending_cancel;
	// it equals the end of the billing period in which cancellation was
	// requested. The feature stays usable until then.
	CancellationEffectiveDate *time.Time

	// CooldownEndsAt is stamped when the sweep completes a cancellation.
	// Repurchase before this instant is rejected.
	CooldownEndsAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// GrantsFeature reports whether the addon currently unlocks its feature.
// Pending cancellations still grant: access is only revoked once the
// effective date passes and the sweep completes the cancellation.
func (a *CompanyAddon) GrantsFeature() bool {
	return a.Status == AddonActive || a.Status == AddonPendingCancel
}

// InCooldownAt reports whether repurchase is blocked at the given time.
func (a *CompanyAddon) InCooldownAt(now time.Time) bool {
	return a.CooldownEndsAt != nil && now.Before(*a.CooldownEndsAt)
}
