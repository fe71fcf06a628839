package catalog

import (
	"github.com/shopspring/decimal"

	"github.com/oficaz/billing-engine/pkg/feature"
)

// Default returns the built-in pricing catalog. It mirrors the published
// price list; deployments that need different prices load a YAML catalog
// instead.
func Default() *Catalog {
	plans := []Plan{
		{
			Key:          PlanBasic,
			Name:         "Basic",
			MonthlyPrice: decimal.NewFromFloat(18.00),
			Features: feature.NewSet(
				feature.KeyTimeTracking,
				feature.KeyVacations,
				// Messages is listed for display purposes but is a paid
				// addon: the resolver never grants it from plan defaults.
				feature.KeyMessages,
			),
		},
		{
			Key:          PlanPro,
			Name:         "Pro",
			MonthlyPrice: decimal.NewFromFloat(29.00),
			Features: feature.NewSet(
				feature.KeyTimeTracking,
				feature.KeyVacations,
				feature.KeyMessages,
				feature.KeyReports,
				feature.KeyShifts,
			),
		},
		{
			Key:          PlanMaster,
			Name:         "Master",
			MonthlyPrice: decimal.NewFromFloat(49.00),
			Features: feature.NewSet(
				feature.KeyTimeTracking,
				feature.KeyVacations,
				feature.KeyMessages,
				feature.KeyReports,
				feature.KeyShifts,
				feature.KeyPayrollExport,
			),
		},
		{
			Key:          PlanOficaz,
			Name:         "Oficaz",
			MonthlyPrice: decimal.NewFromFloat(99.00),
			Features: feature.NewSet(
				feature.KeyTimeTracking,
				feature.KeyVacations,
				feature.KeyMessages,
				feature.KeyReports,
				feature.KeyShifts,
				feature.KeyPayrollExport,
			),
		},
	}

	addons := []Addon{
		{Key: "messages", Name: "Internal Messaging", Feature: feature.KeyMessages, MonthlyPrice: decimal.NewFromFloat(6.99)},
		{Key: "documents", Name: "Document Management", Feature: feature.KeyDocuments, MonthlyPrice: decimal.NewFromFloat(9.99)},
		{Key: "geolocation", Name: "Clock-in Geolocation", Feature: feature.KeyGeolocation, MonthlyPrice: decimal.NewFromFloat(4.99)},
		{Key: "signatures", Name: "Electronic Signatures", Feature: feature.KeySignatures, MonthlyPrice: decimal.NewFromFloat(14.99)},
		{Key: "api_access", Name: "API Access", Feature: feature.KeyAPIAccess, MonthlyPrice: decimal.NewFromFloat(19.99)},
		{Key: "reports", Name: "Work Reports", Feature: feature.KeyReports, FreeFeature: true},
	}

	seatPrices := map[SeatRole]decimal.Decimal{
		SeatEmployee: decimal.NewFromFloat(1.50),
		SeatManager:  decimal.NewFromFloat(2.50),
		SeatAdmin:    decimal.NewFromFloat(3.50),
	}

	c, err := New(plans, addons, seatPrices)
	if err != nil {
		// The built-in catalog is covered by tests; a validation failure
		// here is a programming error.
		panic(err)
	}
	return c
}
