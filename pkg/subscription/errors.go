package subscription

import "errors"

// All errors in this package are recoverable and user-facing. Every failed
// operation leaves the subscription state exactly as it was.
var (
	ErrAlreadyActive       = errors.New("subscription: addon is already active")
	ErrNotActive           = errors.New("subscription: addon is not active")
	ErrInCooldown          = errors.New("subscription: addon repurchase blocked by cooldown")
	ErrPaymentFailed       = errors.New("subscription: payment failed")
	ErrInvalidSeatDelta    = errors.New("subscription: seat change would result in a negative seat count")
	ErrPlanNotFound        = errors.New("subscription: plan not found")
	ErrAddonNotFound       = errors.New("subscription: addon not found in catalog")
	ErrAddonNotPurchasable = errors.New("subscription: free addons cannot be purchased")

	ErrNotFound           = errors.New("subscription: subscription not found")
	ErrAlreadyExists      = errors.New("subscription: subscription already exists")
	ErrCancelled          = errors.New("subscription: subscription is cancelled")
	ErrFailedToLoadPlans  = errors.New("subscription: failed to load pricing catalog")
	ErrInvalidFeatureKey  = errors.New("subscription: unknown feature key in custom feature map")
	ErrInvalidTrialPeriod = errors.New("subscription: trial duration must be positive")
)
