package subscription

import (
	"time"

	"github.com/oficaz/billing-engine/pkg/catalog"
)

// Status represents the lifecycle state of a company subscription.
type Status string

const (
	StatusTrialing  Status = "trialing"
	StatusActive    Status = "active"
	StatusBlocked   Status = "blocked"
	StatusCancelled Status = "cancelled"
)

// AddonStatus represents the lifecycle state of a purchased addon.
type AddonStatus string

const (
	AddonActive        AddonStatus = "active"
	AddonPendingCancel AddonStatus = "pending_cancel"
	AddonCancelled     AddonStatus = "cancelled"
)

// Seats counts extra billable seats beyond the plan's included ones.
// The same type expresses seat-change deltas, where negative values remove
// seats.
type Seats struct {
	Employees int
	Managers  int
	Admins    int
}

// Count returns the seat count for a role.
func (s Seats) Count(role catalog.SeatRole) int {
	switch role {
	case catalog.SeatEmployee:
		return s.Employees
	case catalog.SeatManager:
		return s.Managers
	case catalog.SeatAdmin:
		return s.Admins
	}
	return 0
}

// Add returns the element-wise sum of s and d.
func (s Seats) Add(d Seats) Seats {
	return Seats{
		Employees: s.Employees + d.Employees,
		Managers:  s.Managers + d.Managers,
		Admins:    s.Admins + d.Admins,
	}
}

// Negative reports whether any seat count is below zero.
func (s Seats) Negative() bool {
	return s.Employees < 0 || s.Managers < 0 || s.Admins < 0
}

// IsZero reports whether all counts are zero.
func (s Seats) IsZero() bool {
	return s == Seats{}
}

// TrialStatus is the result of the pure trial-status query.
type TrialStatus struct {
	IsTrialActive bool
	DaysRemaining int
	IsBlocked     bool
	TrialEndDate  time.Time
	Status        Status
	Plan          catalog.PlanKey
	HasPayment    bool
}
