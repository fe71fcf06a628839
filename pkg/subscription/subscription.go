package subscription

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/oficaz/billing-engine/pkg/catalog"
	"github.com/oficaz/billing-engine/pkg/feature"
)

const day = 24 * time.Hour

// Subscription is a company's billing state. Each company has exactly one
// subscription, owned exclusively by that company.
type Subscription struct {
	CompanyID uuid.UUID // primary key - one subscription per company
	Plan      catalog.PlanKey
	Status    Status

	TrialStartDate    time.Time
	TrialEndDate      time.Time // always TrialStartDate + TrialDurationDays
	TrialDurationDays int
	HasPaymentMethod  bool

	BaseMonthlyPrice   decimal.Decimal  // stamped from the catalog at creation/plan change
	CustomMonthlyPrice *decimal.Decimal // operator override, nil when unset

	UseCustomFeatureOverrides bool
	CustomFeatures            feature.Set // meaningful only when the override flag is set

	ExtraSeats Seats

	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time

	// CancellationEffectiveDate is set when the company requests
	// cancellation; the subscription stays active until it passes.
	CancellationEffectiveDate *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// New creates a trialing subscription for a company. trialDays must be
// positive; pass Config.TrialDays unless the company has a custom duration.
func New(companyID uuid.UUID, plan catalog.Plan, trialDays int, now time.Time) (*Subscription, error) {
	if trialDays <= 0 {
		return nil, ErrInvalidTrialPeriod
	}

	now = now.UTC()
	return &Subscription{
		CompanyID:          companyID,
		Plan:               plan.Key,
		Status:             StatusTrialing,
		TrialStartDate:     now,
		TrialEndDate:       now.AddDate(0, 0, trialDays),
		TrialDurationDays:  trialDays,
		BaseMonthlyPrice:   plan.MonthlyPrice,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   now.AddDate(0, 1, 0),
		CreatedAt:          now,
		UpdatedAt:          now,
	}, nil
}

func (s *Subscription) IsTrialing() bool  { return s.Status == StatusTrialing }
func (s *Subscription) IsActive() bool    { return s.Status == StatusActive }
func (s *Subscription) IsBlocked() bool   { return s.Status == StatusBlocked }
func (s *Subscription) IsCancelled() bool { return s.Status == StatusCancelled }

// TrialStatusAt computes the trial status as of now. Pure query: it never
// mutates, and the answer depends only on stored state and the given time.
func (s *Subscription) TrialStatusAt(now time.Time) TrialStatus {
	ts := TrialStatus{
		IsBlocked:    s.Status == StatusBlocked,
		TrialEndDate: s.TrialEndDate,
		Status:       s.Status,
		Plan:         s.Plan,
		HasPayment:   s.HasPaymentMethod,
	}

	if s.Status != StatusTrialing {
		return ts
	}

	if remaining := s.TrialEndDate.Sub(now); remaining > 0 {
		ts.IsTrialActive = true
		// Partial days count as full days remaining.
		ts.DaysRemaining = int((remaining + day - 1) / day)
	}

	return ts
}

// MonthlyPrice returns the plan price in effect: the operator override when
// set, the catalog base price otherwise.
func (s *Subscription) MonthlyPrice() decimal.Decimal {
	if s.CustomMonthlyPrice != nil {
		return *s.CustomMonthlyPrice
	}
	return s.BaseMonthlyPrice
}

// EndOfCurrentPeriodAt returns the end of the billing period containing now,
// projecting forward when the stored anchor is stale.
func (s *Subscription) EndOfCurrentPeriodAt(now time.Time) time.Time {
	end := s.CurrentPeriodEnd
	for !end.After(now) {
		end = end.AddDate(0, 1, 0)
	}
	return end
}

// advancePeriodTo rolls the stored period anchor forward until it contains
// now. Idempotent.
func (s *Subscription) advancePeriodTo(now time.Time) {
	for !s.CurrentPeriodEnd.After(now) {
		s.CurrentPeriodStart = s.CurrentPeriodEnd
		s.CurrentPeriodEnd = s.CurrentPeriodEnd.AddDate(0, 1, 0)
	}
}

// resetPeriodAnchor starts a fresh billing month at now. Used when a company
// converts out of trial or recovers from blocked: billing starts the moment
// the first charge succeeds.
func (s *Subscription) resetPeriodAnchor(now time.Time) {
	s.CurrentPeriodStart = now
	s.CurrentPeriodEnd = now.AddDate(0, 1, 0)
}
