package subscription

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentProcessor is the minimal interface the engine needs from a payment
// provider: charge a company immediately, and record a prorated line item on
// its next invoice. Implementations hide provider quirks behind these two
// primitives.
//
// Every call is made with a deadline; implementations must respect context
// cancellation. The engine treats any error, including a timeout, as a
// failed payment.
type PaymentProcessor interface {
	// ChargeNow attempts an immediate charge against the company's stored
	// payment method.
	ChargeNow(ctx context.Context, req ChargeRequest) (*ChargeResult, error)

	// CreateProrationItem records a prorated charge on the company's next
	// invoice instead of charging immediately.
	CreateProrationItem(ctx context.Context, item ProrationItem) error
}

// ChargeRequest describes an immediate charge.
type ChargeRequest struct {
	CompanyID   uuid.UUID
	Description string
	Amount      decimal.Decimal
	Currency    string
}

// ChargeStatus is the outcome reported by the processor.
type ChargeStatus string

const (
	ChargeCompleted ChargeStatus = "completed"
	ChargeDeclined  ChargeStatus = "declined"
)

// ChargeResult reports the processor's decision for a charge.
type ChargeResult struct {
	TransactionID string
	Status        ChargeStatus
}

// ProrationItem describes a prorated invoice line.
type ProrationItem struct {
	CompanyID   uuid.UUID
	Description string
	Amount      decimal.Decimal
	Currency    string
	PeriodStart time.Time
	PeriodEnd   time.Time
}
