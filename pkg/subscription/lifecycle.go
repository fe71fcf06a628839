package subscription

import (
	"context"
	"time"

	"github.com/oficaz/billing-engine/pkg/statemachine"
)

// The subscription and addon lifecycles are declared as explicit transition
// tables so that every "is it past X date" decision lives here instead of
// being scattered across operations.

type lifecycleEvent string

const (
	eventChargeSucceeded lifecycleEvent = "charge_succeeded"
	eventTrialExpired    lifecycleEvent = "trial_expired"
	eventCancellationDue lifecycleEvent = "cancellation_due"
)

// subscriptionData carries the row and the observation time through guards
// and actions.
type subscriptionData struct {
	sub *Subscription
	now time.Time
}

var subscriptionMachine = statemachine.MustNew(
	statemachine.Transition[Status, lifecycleEvent]{
		From: StatusTrialing, To: StatusActive, Event: eventChargeSucceeded,
		Guards: []statemachine.Guard[Status, lifecycleEvent]{hasPaymentMethod},
	},
	statemachine.Transition[Status, lifecycleEvent]{
		From: StatusBlocked, To: StatusActive, Event: eventChargeSucceeded,
		Guards: []statemachine.Guard[Status, lifecycleEvent]{hasPaymentMethod},
	},
	statemachine.Transition[Status, lifecycleEvent]{
		From: StatusTrialing, To: StatusBlocked, Event: eventTrialExpired,
		Guards: []statemachine.Guard[Status, lifecycleEvent]{trialOver, noPaymentMethod},
	},
	statemachine.Transition[Status, lifecycleEvent]{
		From: StatusActive, To: StatusCancelled, Event: eventCancellationDue,
		Guards: []statemachine.Guard[Status, lifecycleEvent]{cancellationDatePassed},
	},
)

func hasPaymentMethod(ctx context.Context, from Status, event lifecycleEvent, data any) bool {
	d := data.(*subscriptionData)
	return d.sub.HasPaymentMethod
}

func noPaymentMethod(ctx context.Context, from Status, event lifecycleEvent, data any) bool {
	d := data.(*subscriptionData)
	return !d.sub.HasPaymentMethod
}

func trialOver(ctx context.Context, from Status, event lifecycleEvent, data any) bool {
	d := data.(*subscriptionData)
	return d.now.After(d.sub.TrialEndDate)
}

func cancellationDatePassed(ctx context.Context, from Status, event lifecycleEvent, data any) bool {
	d := data.(*subscriptionData)
	return d.sub.CancellationEffectiveDate != nil && !d.now.Before(*d.sub.CancellationEffectiveDate)
}

type addonEvent string

const (
	eventAddonRepurchase      addonEvent = "repurchase"
	eventAddonCancelRequested addonEvent = "cancel_requested"
	eventAddonCancellationDue addonEvent = "cancellation_due"
)

// addonData carries the row, the observation time and the applicable
// policy values through guards and actions.
type addonData struct {
	addon     *CompanyAddon
	now       time.Time
	periodEnd time.Time
	cooldown  time.Duration
}

var addonMachine = statemachine.MustNew(
	statemachine.Transition[AddonStatus, addonEvent]{
		From: AddonCancelled, To: AddonActive, Event: eventAddonRepurchase,
		Guards:  []statemachine.Guard[AddonStatus, addonEvent]{cooldownElapsed},
		Actions: []statemachine.Action[AddonStatus, addonEvent]{reactivateAddon},
	},
	statemachine.Transition[AddonStatus, addonEvent]{
		From: AddonActive, To: AddonPendingCancel, Event: eventAddonCancelRequested,
		Actions: []statemachine.Action[AddonStatus, addonEvent]{scheduleAddonCancellation},
	},
	statemachine.Transition[AddonStatus, addonEvent]{
		From: AddonPendingCancel, To: AddonCancelled, Event: eventAddonCancellationDue,
		Guards:  []statemachine.Guard[AddonStatus, addonEvent]{addonCancellationDatePassed},
		Actions: []statemachine.Action[AddonStatus, addonEvent]{stampCooldown},
	},
)

func cooldownElapsed(ctx context.Context, from AddonStatus, event addonEvent, data any) bool {
	d := data.(*addonData)
	return !d.addon.InCooldownAt(d.now)
}

func addonCancellationDatePassed(ctx context.Context, from AddonStatus, event addonEvent, data any) bool {
	d := data.(*addonData)
	return d.addon.CancellationEffectiveDate != nil && !d.now.Before(*d.addon.CancellationEffectiveDate)
}

func reactivateAddon(ctx context.Context, from, to AddonStatus, event addonEvent, data any) error {
	d := data.(*addonData)
	d.addon.ActivatedAt = d.now
	d.addon.CancellationEffectiveDate = nil
	d.addon.CooldownEndsAt = nil
	return nil
}

func scheduleAddonCancellation(ctx context.Context, from, to AddonStatus, event addonEvent, data any) error {
	d := data.(*addonData)
	effective := d.periodEnd
	d.addon.CancellationEffectiveDate = &effective
	return nil
}

func stampCooldown(ctx context.Context, from, to AddonStatus, event addonEvent, data any) error {
	d := data.(*addonData)
	ends := d.now.Add(d.cooldown)
	d.addon.CooldownEndsAt = &ends
	d.addon.CancellationEffectiveDate = nil
	return nil
}
