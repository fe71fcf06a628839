package subscription

import (
	"log/slog"

	"github.com/oficaz/billing-engine/pkg/clock"
)

// ServiceOption configures optional service dependencies.
type ServiceOption func(*service)

// WithClock sets the time source. Tests use a fixed clock to drive trial
// expiry, cooldown and period rollover deterministically.
func WithClock(c clock.Clock) ServiceOption {
	return func(s *service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(log *slog.Logger) ServiceOption {
	return func(s *service) {
		if log != nil {
			s.log = log
		}
	}
}
