// Package subscription implements the company billing lifecycle: trials,
// plan changes, paid addons with cooldown, extra seats, prorated charges and
// deferred cancellation.
//
// Every company has exactly one Subscription row plus zero or more
// CompanyAddon rows, persisted together as a Snapshot. All mutations go
// through Store.Mutate, which serializes writers per company and commits the
// modified snapshot only when the operation succeeds, so a declined or
// timed-out payment never leaves partial state behind.
//
// Feature access is never stored. ResolveFeatures recomputes the effective
// set on every call from the plan defaults, operator overrides and the
// current addon rows; see the feature package for the resolution order.
//
// Time-based transitions (trial expiry, addon cancellation taking effect,
// billing period rollover) do not happen on their own. Run Sweep
// periodically to apply them; the call is idempotent.
//
// Usage:
//
//	store := subscription.NewMemoryStore()
//	processor, err := subscription.NewPaddleProcessor(paddleCfg)
//	if err != nil {
//		return err
//	}
//
//	svc, err := subscription.NewService(ctx,
//		catalog.NewStaticSource(catalog.Default()),
//		store, processor, subscription.Config{
//			TrialDays:      14,
//			CooldownDays:   30,
//			PaymentTimeout: 15 * time.Second,
//			Currency:       "EUR",
//		})
//	if err != nil {
//		return err
//	}
//
//	sub, err := svc.CreateSubscription(ctx, companyID, catalog.PlanPro, 0)
package subscription
