package subscription

import "time"

// Config holds the engine's billing policy knobs, loadable via pkg/config.
type Config struct {
	// TrialDays is the default trial length for new companies. Individual
	// companies may be created with a different duration.
	TrialDays int `env:"BILLING_TRIAL_DAYS" envDefault:"14"`

	// CooldownDays is the waiting period after an addon cancellation
	// completes before the same addon can be purchased again. It exists to
	// stop purchase/cancel cycles that game proration.
	CooldownDays int `env:"BILLING_ADDON_COOLDOWN_DAYS" envDefault:"30"`

	// PaymentTimeout bounds every outbound payment-processor call. A timed
	// out charge is treated as failed, never as succeeded.
	PaymentTimeout time.Duration `env:"BILLING_PAYMENT_TIMEOUT" envDefault:"15s"`

	// Currency is the ISO 4217 code used on all charges.
	Currency string `env:"BILLING_CURRENCY" envDefault:"EUR"`
}

func (c Config) cooldown() time.Duration {
	return time.Duration(c.CooldownDays) * 24 * time.Hour
}
