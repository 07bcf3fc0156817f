package domain

import "errors"

var (
	// Registry errors
	ErrUnauthorized       = errors.New("caller is not the configured authority")
	ErrAlreadyInitialized = errors.New("registry already initialized")
	ErrRegistryNotFound   = errors.New("registry not initialized")
	ErrSystemPaused       = errors.New("system is paused")

	// Plan errors
	ErrPlanNotFound      = errors.New("plan not found")
	ErrPlanInactive      = errors.New("plan is not active")
	ErrPlanFull          = errors.New("plan subscriber limit reached")
	ErrPlanAlreadyExists = errors.New("plan already exists")
	ErrInvalidPrice      = errors.New("price per period must be positive")
	ErrInvalidDuration   = errors.New("period duration must be positive")

	// Payment intent errors
	ErrIntentNotFound       = errors.New("payment intent not found")
	ErrIntentAlreadyExists  = errors.New("payment intent already exists")
	ErrIntentNotCreated     = errors.New("payment intent is not in created status")
	ErrIntentExpired        = errors.New("payment intent has expired")
	ErrInvalidPaymentAmount = errors.New("payment amount does not match plan price")
	ErrInvalidExpiry        = errors.New("expiry must be in the future")

	// Subscription errors
	ErrSubscriptionNotFound      = errors.New("subscription not found")
	ErrSubscriptionAlreadyExists = errors.New("subscription already exists")
	ErrSubscriptionInactive      = errors.New("subscription is not active")
	ErrAlreadyCancelled          = errors.New("subscription already cancelled")
	ErrAmountMismatch            = errors.New("amount does not match plan price")

	// Infra errors
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidExecContext = errors.New("invalid executor context")
)
