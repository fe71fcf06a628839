package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/oficaz/billing-engine/pkg/catalog"
	"github.com/oficaz/billing-engine/pkg/clock"
	"github.com/oficaz/billing-engine/pkg/feature"
	"github.com/oficaz/billing-engine/pkg/logger"
	"github.com/oficaz/billing-engine/pkg/proration"
)

// Service is the single entry point of the billing engine. Every mutating
// operation is applied as one atomic unit against the company's snapshot:
// either the charge succeeded and the new state is persisted, or nothing
// changed at all.
type Service interface {
	// CreateSubscription starts a new company on a trialing subscription.
	CreateSubscription(ctx context.Context, companyID uuid.UUID, plan catalog.PlanKey, trialDays int) (*Subscription, error)

	// TrialStatus reports the trial state of a company as of now.
	TrialStatus(ctx context.Context, companyID uuid.UUID) (TrialStatus, error)

	// HasAccess reports whether a feature is available to the company.
	// Returns false on any error to fail closed.
	HasAccess(ctx context.Context, companyID uuid.UUID, key feature.Key) bool

	// ResolveFeatures computes the company's effective feature set for a
	// single request. Blocked and cancelled companies have no features.
	ResolveFeatures(ctx context.Context, companyID uuid.UUID) (feature.Set, error)

	// ListAddons returns the catalog annotated with the company's purchase
	// state for each entry.
	ListAddons(ctx context.Context, companyID uuid.UUID) ([]AddonListing, error)

	// MonthlyTotal returns what the company owes per month at the current
	// plan, seat and addon configuration.
	MonthlyTotal(ctx context.Context, companyID uuid.UUID) (decimal.Decimal, error)

	// PurchaseAddon buys an addon, charging a prorated amount for the
	// remainder of the current billing period before granting the feature.
	PurchaseAddon(ctx context.Context, companyID uuid.UUID, addonKey string) error

	// CancelAddon schedules an addon cancellation for the end of the
	// current billing period. The feature stays usable until then.
	CancelAddon(ctx context.Context, companyID uuid.UUID, addonKey string) error

	// ChangeSeats adds or removes extra seats. Added seats are charged
	// prorated; removed seats simply stop future billing.
	ChangeSeats(ctx context.Context, companyID uuid.UUID, delta Seats) error

	// ChangePlan switches the base plan, charging the prorated price
	// difference on upgrades.
	ChangePlan(ctx context.Context, companyID uuid.UUID, plan catalog.PlanKey) error

	// RecordPayment records a confirmed successful charge: marks the
	// payment method present and converts trialing/blocked companies to
	// active.
	RecordPayment(ctx context.Context, companyID uuid.UUID) error

	// CancelSubscription schedules cancellation for the end of the current
	// billing period. Trialing companies are cancelled immediately.
	CancelSubscription(ctx context.Context, companyID uuid.UUID) error

	// Override applies an operator change to plan, price or feature map.
	Override(ctx context.Context, companyID uuid.UUID, o OverrideParams) error

	// Sweep advances time-based transitions for every company: trial
	// expiry, deferred cancellations, addon cooldown stamping and billing
	// period rollover. Idempotent.
	Sweep(ctx context.Context) error

	// SweepCompany runs the sweep for a single company.
	SweepCompany(ctx context.Context, companyID uuid.UUID) error
}

// AddonListing pairs a catalog addon with the company's purchase state.
// Status is empty when the addon was never purchased.
type AddonListing struct {
	Addon                     catalog.Addon
	Status                    AddonStatus
	CancellationEffectiveDate *time.Time
	CooldownEndsAt            *time.Time
}

// OverrideParams carries an operator subscription patch. Nil fields are
// left untouched.
type OverrideParams struct {
	Plan                      *catalog.PlanKey
	CustomMonthlyPrice        *decimal.Decimal
	ClearCustomMonthlyPrice   bool
	UseCustomFeatureOverrides *bool
	CustomFeatures            feature.Set
}

type service struct {
	catalog   *catalog.Catalog
	store     Store
	processor PaymentProcessor
	cfg       Config
	clock     clock.Clock
	log       *slog.Logger
}

// NewService creates the billing engine service. Panics if required
// dependencies are nil to fail fast during initialization.
func NewService(ctx context.Context, src catalog.Source, store Store, processor PaymentProcessor, cfg Config, opts ...ServiceOption) (Service, error) {
	if src == nil {
		panic("subscription: catalog.Source is required")
	}
	if store == nil {
		panic("subscription: Store is required")
	}
	if processor == nil {
		panic("subscription: PaymentProcessor is required")
	}

	cat, err := src.Load(ctx)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}

	s := &service{
		catalog:   cat,
		store:     store,
		processor: processor,
		cfg:       cfg,
		clock:     clock.System(),
		log:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *service) CreateSubscription(ctx context.Context, companyID uuid.UUID, planKey catalog.PlanKey, trialDays int) (*Subscription, error) {
	plan, err := s.catalog.Plan(planKey)
	if err != nil {
		return nil, ErrPlanNotFound
	}

	if trialDays == 0 {
		trialDays = s.cfg.TrialDays
	}

	sub, err := New(companyID, plan, trialDays, s.clock.Now())
	if err != nil {
		return nil, err
	}

	if err := s.store.Create(ctx, &Snapshot{Subscription: *sub}); err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "subscription created",
		logger.CompanyID(companyID), logger.Plan(planKey), slog.Int("trial_days", trialDays))
	return sub, nil
}

func (s *service) TrialStatus(ctx context.Context, companyID uuid.UUID) (TrialStatus, error) {
	snap, err := s.store.Load(ctx, companyID)
	if err != nil {
		return TrialStatus{}, err
	}
	return snap.Subscription.TrialStatusAt(s.clock.Now()), nil
}

func (s *service) HasAccess(ctx context.Context, companyID uuid.UUID, key feature.Key) bool {
	set, err := s.ResolveFeatures(ctx, companyID)
	if err != nil {
		return false
	}
	return set.Enabled(key)
}

func (s *service) ResolveFeatures(ctx context.Context, companyID uuid.UUID) (feature.Set, error) {
	snap, err := s.store.Load(ctx, companyID)
	if err != nil {
		return nil, err
	}
	return s.resolveSnapshot(snap)
}

// resolveSnapshot recomputes the effective feature set from an explicit
// snapshot. Never cached: plan, override and addon state can change between
// requests.
func (s *service) resolveSnapshot(snap *Snapshot) (feature.Set, error) {
	sub := &snap.Subscription

	// A blocked company has run out its trial without payment; a cancelled
	// one only retains read-only data access. Neither has features.
	if sub.IsBlocked() || sub.IsCancelled() {
		return feature.Set{}, nil
	}

	plan, err := s.catalog.Plan(sub.Plan)
	if err != nil {
		return nil, ErrPlanNotFound
	}

	var granted []feature.Key
	for i := range snap.Addons {
		row := &snap.Addons[i]
		if !row.GrantsFeature() {
			continue
		}
		addon, err := s.catalog.Addon(row.AddonKey)
		if err != nil || addon.FreeFeature {
			continue
		}
		granted = append(granted, addon.Feature)
	}

	return feature.Resolve(feature.ResolveInput{
		PlanDefaults:         plan.Features,
		UseCustomOverrides:   sub.UseCustomFeatureOverrides,
		CustomFeatures:       sub.CustomFeatures,
		PaidAddonFeatures:    s.catalog.PaidFeatureKeys(),
		GrantedAddonFeatures: granted,
		FreeAddonFeatures:    s.catalog.FreeFeatureKeys(),
	}), nil
}

func (s *service) ListAddons(ctx context.Context, companyID uuid.UUID) ([]AddonListing, error) {
	snap, err := s.store.Load(ctx, companyID)
	if err != nil {
		return nil, err
	}

	addons := s.catalog.Addons()
	out := make([]AddonListing, 0, len(addons))
	for _, a := range addons {
		listing := AddonListing{Addon: a}
		if row := snap.Addon(a.Key); row != nil {
			listing.Status = row.Status
			listing.CancellationEffectiveDate = row.CancellationEffectiveDate
			listing.CooldownEndsAt = row.CooldownEndsAt
		}
		out = append(out, listing)
	}
	return out, nil
}

func (s *service) MonthlyTotal(ctx context.Context, companyID uuid.UUID) (decimal.Decimal, error) {
	snap, err := s.store.Load(ctx, companyID)
	if err != nil {
		return decimal.Decimal{}, err
	}

	total := snap.Subscription.MonthlyPrice()

	for _, role := range catalog.SeatRoles() {
		count := snap.Subscription.ExtraSeats.Count(role)
		if count == 0 {
			continue
		}
		price, err := s.catalog.SeatPrice(role)
		if err != nil {
			return decimal.Decimal{}, err
		}
		total = total.Add(price.Mul(decimal.NewFromInt(int64(count))))
	}

	for i := range snap.Addons {
		row := &snap.Addons[i]
		if !row.GrantsFeature() {
			continue
		}
		addon, err := s.catalog.Addon(row.AddonKey)
		if err != nil {
			continue
		}
		total = total.Add(addon.MonthlyPrice)
	}

	return total, nil
}

func (s *service) PurchaseAddon(ctx context.Context, companyID uuid.UUID, addonKey string) error {
	addon, err := s.catalog.Addon(addonKey)
	if err != nil {
		return ErrAddonNotFound
	}
	if addon.FreeFeature {
		return ErrAddonNotPurchasable
	}

	return s.store.Mutate(ctx, companyID, func(ctx context.Context, snap *Snapshot) error {
		sub := &snap.Subscription
		if sub.IsCancelled() {
			return ErrCancelled
		}

		now := s.clock.Now()
		sub.advancePeriodTo(now)

		row := snap.Addon(addonKey)
		if row != nil {
			if row.GrantsFeature() {
				return ErrAlreadyActive
			}
			if row.InCooldownAt(now) {
				return ErrInCooldown
			}
		}

		amount, err := proration.Prorate(addon.MonthlyPrice, sub.CurrentPeriodStart, sub.CurrentPeriodEnd, now, now)
		if err != nil {
			return err
		}

		// Phase 1: bill. The addon row is only written after the processor
		// confirms, so a failed or timed-out call leaves the snapshot
		// untouched.
		if err := s.billProrated(ctx, sub, fmt.Sprintf("Addon %s (prorated)", addon.Name), amount); err != nil {
			return err
		}

		// Phase 2: grant.
		if row != nil {
			next, err := addonMachine.Fire(ctx, row.Status, eventAddonRepurchase, &addonData{addon: row, now: now})
			if err != nil {
				return err
			}
			row.Status = next
			row.UpdatedAt = now
		} else {
			snap.Addons = append(snap.Addons, CompanyAddon{
				CompanyID:   companyID,
				AddonKey:    addonKey,
				Status:      AddonActive,
				ActivatedAt: now,
				CreatedAt:   now,
				UpdatedAt:   now,
			})
		}
		sub.UpdatedAt = now

		s.log.InfoContext(ctx, "addon purchased",
			logger.CompanyID(companyID), logger.AddonKey(addonKey), logger.Amount("prorated_amount", amount))
		return nil
	})
}

func (s *service) CancelAddon(ctx context.Context, companyID uuid.UUID, addonKey string) error {
	if _, err := s.catalog.Addon(addonKey); err != nil {
		return ErrAddonNotFound
	}

	return s.store.Mutate(ctx, companyID, func(ctx context.Context, snap *Snapshot) error {
		now := s.clock.Now()
		snap.Subscription.advancePeriodTo(now)

		row := snap.Addon(addonKey)
		if row == nil || !row.GrantsFeature() {
			return ErrNotActive
		}
		if row.Status == AddonPendingCancel {
			// Cancellation already scheduled; nothing to change.
			return nil
		}

		next, err := addonMachine.Fire(ctx, row.Status, eventAddonCancelRequested, &addonData{
			addon:     row,
			now:       now,
			periodEnd: snap.Subscription.CurrentPeriodEnd,
		})
		if err != nil {
			return err
		}
		row.Status = next
		row.UpdatedAt = now
		snap.Subscription.UpdatedAt = now

		s.log.InfoContext(ctx, "addon cancellation scheduled",
			logger.CompanyID(companyID), logger.AddonKey(addonKey),
			slog.Time("effective_date", *row.CancellationEffectiveDate))
		return nil
	})
}

func (s *service) ChangeSeats(ctx context.Context, companyID uuid.UUID, delta Seats) error {
	if delta.IsZero() {
		return nil
	}

	return s.store.Mutate(ctx, companyID, func(ctx context.Context, snap *Snapshot) error {
		sub := &snap.Subscription
		if sub.IsCancelled() {
			return ErrCancelled
		}

		result := sub.ExtraSeats.Add(delta)
		if result.Negative() {
			return ErrInvalidSeatDelta
		}

		now := s.clock.Now()
		sub.advancePeriodTo(now)

		// Only added seats cost money mid-period; removed seats stop
		// billing from the next period without a refund.
		addedMonthly := decimal.Zero
		for _, role := range catalog.SeatRoles() {
			added := delta.Count(role)
			if added <= 0 {
				continue
			}
			price, err := s.catalog.SeatPrice(role)
			if err != nil {
				return err
			}
			addedMonthly = addedMonthly.Add(price.Mul(decimal.NewFromInt(int64(added))))
		}

		if addedMonthly.IsPositive() {
			amount, err := proration.Prorate(addedMonthly, sub.CurrentPeriodStart, sub.CurrentPeriodEnd, now, now)
			if err != nil {
				return err
			}
			if err := s.billProrated(ctx, sub, "Extra seats (prorated)", amount); err != nil {
				return err
			}
		}

		sub.ExtraSeats = result
		sub.UpdatedAt = now

		s.log.InfoContext(ctx, "seats changed", logger.CompanyID(companyID),
			slog.Int("employees", result.Employees), slog.Int("managers", result.Managers), slog.Int("admins", result.Admins))
		return nil
	})
}

func (s *service) ChangePlan(ctx context.Context, companyID uuid.UUID, planKey catalog.PlanKey) error {
	plan, err := s.catalog.Plan(planKey)
	if err != nil {
		return ErrPlanNotFound
	}

	return s.store.Mutate(ctx, companyID, func(ctx context.Context, snap *Snapshot) error {
		sub := &snap.Subscription
		if sub.IsCancelled() {
			return ErrCancelled
		}
		if sub.Plan == planKey {
			return nil
		}

		now := s.clock.Now()
		sub.advancePeriodTo(now)

		// Upgrades charge the prorated price difference immediately;
		// downgrades apply from the next period with no refund.
		diff := plan.MonthlyPrice.Sub(sub.BaseMonthlyPrice)
		if diff.IsPositive() && sub.IsActive() {
			amount, err := proration.Prorate(diff, sub.CurrentPeriodStart, sub.CurrentPeriodEnd, now, now)
			if err != nil {
				return err
			}
			if err := s.billProrated(ctx, sub, fmt.Sprintf("Plan upgrade to %s (prorated)", plan.Name), amount); err != nil {
				return err
			}
		}

		from := sub.Plan
		sub.Plan = planKey
		sub.BaseMonthlyPrice = plan.MonthlyPrice
		sub.UpdatedAt = now

		s.log.InfoContext(ctx, "plan changed", logger.CompanyID(companyID),
			slog.Any("from", from), slog.Any("to", planKey))
		return nil
	})
}

func (s *service) RecordPayment(ctx context.Context, companyID uuid.UUID) error {
	return s.store.Mutate(ctx, companyID, func(ctx context.Context, snap *Snapshot) error {
		sub := &snap.Subscription
		if sub.IsCancelled() {
			return ErrCancelled
		}

		now := s.clock.Now()
		sub.HasPaymentMethod = true

		data := &subscriptionData{sub: sub, now: now}
		if subscriptionMachine.CanFire(ctx, sub.Status, eventChargeSucceeded, data) {
			next, err := subscriptionMachine.Fire(ctx, sub.Status, eventChargeSucceeded, data)
			if err != nil {
				return err
			}
			sub.Status = next
			// Billing starts the moment the first charge succeeds.
			sub.resetPeriodAnchor(now)
		} else {
			sub.advancePeriodTo(now)
		}
		sub.UpdatedAt = now

		s.log.InfoContext(ctx, "payment recorded",
			logger.CompanyID(companyID), slog.String("status", string(sub.Status)))
		return nil
	})
}

func (s *service) CancelSubscription(ctx context.Context, companyID uuid.UUID) error {
	return s.store.Mutate(ctx, companyID, func(ctx context.Context, snap *Snapshot) error {
		sub := &snap.Subscription
		if sub.IsCancelled() {
			return nil
		}

		now := s.clock.Now()
		sub.advancePeriodTo(now)

		if sub.IsActive() {
			// Deferred, mirroring addon cancellation: the company keeps
			// what it paid for until the period ends.
			effective := sub.CurrentPeriodEnd
			sub.CancellationEffectiveDate = &effective
		} else {
			// Trialing and blocked companies owe nothing; cancel now.
			sub.Status = StatusCancelled
			sub.CancellationEffectiveDate = &now
		}
		sub.UpdatedAt = now

		s.log.InfoContext(ctx, "subscription cancellation requested",
			logger.CompanyID(companyID), slog.Time("effective_date", *sub.CancellationEffectiveDate))
		return nil
	})
}

func (s *service) Override(ctx context.Context, companyID uuid.UUID, o OverrideParams) error {
	if o.Plan != nil {
		if _, err := s.catalog.Plan(*o.Plan); err != nil {
			return ErrPlanNotFound
		}
	}
	for k := range o.CustomFeatures {
		if !k.Valid() {
			return ErrInvalidFeatureKey
		}
	}

	return s.store.Mutate(ctx, companyID, func(ctx context.Context, snap *Snapshot) error {
		sub := &snap.Subscription

		if o.Plan != nil {
			plan, err := s.catalog.Plan(*o.Plan)
			if err != nil {
				return ErrPlanNotFound
			}
			sub.Plan = plan.Key
			sub.BaseMonthlyPrice = plan.MonthlyPrice
		}
		if o.ClearCustomMonthlyPrice {
			sub.CustomMonthlyPrice = nil
		} else if o.CustomMonthlyPrice != nil {
			price := *o.CustomMonthlyPrice
			sub.CustomMonthlyPrice = &price
		}
		if o.UseCustomFeatureOverrides != nil {
			sub.UseCustomFeatureOverrides = *o.UseCustomFeatureOverrides
		}
		if o.CustomFeatures != nil {
			sub.CustomFeatures = o.CustomFeatures.Clone()
		}
		sub.UpdatedAt = s.clock.Now()

		s.log.InfoContext(ctx, "operator override applied", logger.CompanyID(companyID))
		return nil
	})
}

func (s *service) Sweep(ctx context.Context) error {
	ids, err := s.store.CompanyIDs(ctx)
	if err != nil {
		return err
	}

	var errs []error
	for _, id := range ids {
		if err := s.SweepCompany(ctx, id); err != nil {
			s.log.ErrorContext(ctx, "sweep failed for company", logger.CompanyID(id), logger.Error(err))
			errs = append(errs, fmt.Errorf("company %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

func (s *service) SweepCompany(ctx context.Context, companyID uuid.UUID) error {
	return s.store.Mutate(ctx, companyID, func(ctx context.Context, snap *Snapshot) error {
		now := s.clock.Now()
		sub := &snap.Subscription
		data := &subscriptionData{sub: sub, now: now}

		if subscriptionMachine.CanFire(ctx, sub.Status, eventTrialExpired, data) {
			next, err := subscriptionMachine.Fire(ctx, sub.Status, eventTrialExpired, data)
			if err != nil {
				return err
			}
			sub.Status = next
			sub.UpdatedAt = now
			s.log.InfoContext(ctx, "trial expired without payment method, company blocked",
				logger.CompanyID(companyID))
		}

		if subscriptionMachine.CanFire(ctx, sub.Status, eventCancellationDue, data) {
			next, err := subscriptionMachine.Fire(ctx, sub.Status, eventCancellationDue, data)
			if err != nil {
				return err
			}
			sub.Status = next
			sub.UpdatedAt = now
			s.log.InfoContext(ctx, "subscription cancellation completed", logger.CompanyID(companyID))
		}

		for i := range snap.Addons {
			row := &snap.Addons[i]
			adata := &addonData{addon: row, now: now, cooldown: s.cfg.cooldown()}
			if !addonMachine.CanFire(ctx, row.Status, eventAddonCancellationDue, adata) {
				continue
			}
			next, err := addonMachine.Fire(ctx, row.Status, eventAddonCancellationDue, adata)
			if err != nil {
				return err
			}
			row.Status = next
			row.UpdatedAt = now
			s.log.InfoContext(ctx, "addon cancellation completed",
				logger.CompanyID(companyID), logger.AddonKey(row.AddonKey),
				slog.Time("cooldown_ends_at", *row.CooldownEndsAt))
		}

		if sub.IsActive() {
			sub.advancePeriodTo(now)
		}
		return nil
	})
}

// billProrated collects a prorated amount. Active companies are charged
// immediately; companies still on trial have no charge to run yet, so the
// amount is recorded as a proration item on their first invoice instead.
// The processor call runs under the configured timeout. Any error, a
// declined result, or a timeout counts as a failed payment; the engine never
// assumes a stuck call succeeded.
func (s *service) billProrated(ctx context.Context, sub *Subscription, description string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.PaymentTimeout)
	defer cancel()

	if !sub.IsActive() {
		err := s.processor.CreateProrationItem(ctx, ProrationItem{
			CompanyID:   sub.CompanyID,
			Description: description,
			Amount:      amount,
			Currency:    s.cfg.Currency,
			PeriodStart: sub.CurrentPeriodStart,
			PeriodEnd:   sub.CurrentPeriodEnd,
		})
		if err != nil {
			return errors.Join(ErrPaymentFailed, err)
		}
		return nil
	}

	result, err := s.processor.ChargeNow(ctx, ChargeRequest{
		CompanyID:   sub.CompanyID,
		Description: description,
		Amount:      amount,
		Currency:    s.cfg.Currency,
	})
	if err != nil {
		return errors.Join(ErrPaymentFailed, err)
	}
	if result.Status != ChargeCompleted {
		return ErrPaymentFailed
	}
	return nil
}
