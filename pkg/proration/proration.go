// Package proration computes fractional charges for billing items that
// change mid-period. Amounts are day-based fractions of the full period
// price, rounded to two decimal places with round-half-up as expected on
// invoice lines.
package proration

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var ErrInvalidPeriod = errors.New("proration: period end must be after period start")

const day = 24 * time.Hour

// Prorate returns the charge for the remainder of the billing period when an
// item becomes effective mid-period.
//
// The charged fraction is daysRemaining/totalDays where daysRemaining counts
// whole days between the later of effectiveFrom and now, and periodEnd,
// floored at zero. An item effective from the period start is charged the
// full price; an item effective at the period end is charged nothing.
//
// Cancellations produce no credit through this function: cancelling simply
// stops future billing, in line with the no-partial-month-refund policy.
func Prorate(fullPeriodPrice decimal.Decimal, periodStart, periodEnd, effectiveFrom time.Time, now time.Time) (decimal.Decimal, error) {
	totalDays := Days(periodStart, periodEnd)
	if totalDays <= 0 {
		return decimal.Decimal{}, ErrInvalidPeriod
	}

	from := effectiveFrom
	if now.After(from) {
		from = now
	}

	remainingDays := Days(from, periodEnd)
	if remainingDays <= 0 {
		return decimal.Zero, nil
	}
	if remainingDays > totalDays {
		remainingDays = totalDays
	}

	amount := fullPeriodPrice.
		Mul(decimal.NewFromInt(remainingDays)).
		Div(decimal.NewFromInt(totalDays))

	// decimal.Round rounds half away from zero, which is round-half-up for
	// the non-negative amounts produced here.
	return amount.Round(2), nil
}

// Days returns the number of whole 24h days between from and to.
// Negative when to precedes from.
func Days(from, to time.Time) int64 {
	return int64(to.Sub(from) / day)
}
