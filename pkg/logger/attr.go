package logger

import (
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// CompanyID records the company identifier under the key "company_id".
func CompanyID(id uuid.UUID) slog.Attr {
	return slog.String("company_id", id.String())
}

// AddonKey records an addon catalog key under the key "addon".
func AddonKey(key string) slog.Attr {
	return slog.String("addon", key)
}

// Plan records a plan key under the key "plan".
func Plan(plan any) slog.Attr {
	return slog.Any("plan", plan)
}

// Amount records a monetary amount under the given key.
func Amount(key string, amount decimal.Decimal) slog.Attr {
	return slog.String(key, amount.StringFixed(2))
}

// Feature records a feature key under the key "feature".
func Feature(key any) slog.Attr {
	return slog.Any("feature", key)
}
