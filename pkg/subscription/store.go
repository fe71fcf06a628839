package subscription

import (
	"context"

	"github.com/google/uuid"
)

// Snapshot is a company's complete billing state: the subscription row plus
// every addon row ever created for it.
type Snapshot struct {
	Subscription Subscription
	Addons       []CompanyAddon
}

// Addon returns the row for the given addon key, or nil.
func (s *Snapshot) Addon(key string) *CompanyAddon {
	for i := range s.Addons {
		if s.Addons[i].AddonKey == key {
			return &s.Addons[i]
		}
	}
	return nil
}

// Clone returns an independent copy of the snapshot.
func (s *Snapshot) Clone() *Snapshot {
	out := &Snapshot{Subscription: s.Subscription}
	if s.Subscription.CustomMonthlyPrice != nil {
		price := *s.Subscription.CustomMonthlyPrice
		out.Subscription.CustomMonthlyPrice = &price
	}
	if s.Subscription.CancellationEffectiveDate != nil {
		t := *s.Subscription.CancellationEffectiveDate
		out.Subscription.CancellationEffectiveDate = &t
	}
	out.Subscription.CustomFeatures = s.Subscription.CustomFeatures.Clone()
	out.Addons = make([]CompanyAddon, len(s.Addons))
	for i, a := range s.Addons {
		copied := a
		if a.CancellationEffectiveDate != nil {
			t := *a.CancellationEffectiveDate
			copied.CancellationEffectiveDate = &t
		}
		if a.CooldownEndsAt != nil {
			t := *a.CooldownEndsAt
			copied.CooldownEndsAt = &t
		}
		out.Addons[i] = copied
	}
	return out
}

// Store persists company billing state.
//
// Load is a lock-free read of the latest committed snapshot and may run
// fully in parallel; callers tolerate a stale snapshot. Mutate is the
// single-writer path: implementations serialize concurrent mutations for
// the same company (row lock, per-company mutex) and persist the modified
// snapshot only when fn returns nil. Any error from fn rolls the mutation
// back completely.
type Store interface {
	// Create persists a new company snapshot.
	// Returns ErrAlreadyExists when the company already has one.
	Create(ctx context.Context, snap *Snapshot) error

	// Load retrieves the latest committed snapshot.
	// Returns ErrNotFound when the company has no subscription.
	Load(ctx context.Context, companyID uuid.UUID) (*Snapshot, error)

	// Mutate runs fn against the company's snapshot under the per-company
	// write serialization and persists the result atomically.
	Mutate(ctx context.Context, companyID uuid.UUID, fn func(ctx context.Context, snap *Snapshot) error) error

	// CompanyIDs lists every company with a subscription, for sweeps.
	CompanyIDs(ctx context.Context) ([]uuid.UUID, error)
}
