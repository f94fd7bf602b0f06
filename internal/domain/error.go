package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrAlreadyExists   = errors.New("entity already exists")
	ErrInvalidArgument = errors.New("invalid argument")

	// Ownership transfer errors
	ErrNotTransferable = errors.New("circle is not awaiting a new owner")
	ErrAlreadyOwner    = errors.New("caller already owns this circle")
	ErrOfferExpired    = errors.New("rescue offer has expired")

	// ErrCircleLimitReached is returned when a claim would push the claimant
	// past their plan's circle quota. The message carries the
	// CIRCLE_LIMIT_REACHED token that API clients match on to show an
	// upgrade prompt instead of a generic failure.
	ErrCircleLimitReached = errors.New("CIRCLE_LIMIT_REACHED: plan circle quota exceeded")

	// Billing errors
	ErrSessionNotPaid    = errors.New("checkout session is not paid")
	ErrSessionOwnership  = errors.New("checkout session belongs to another user")
	ErrNoSubscription    = errors.New("no active subscription")
	ErrUnknownPrice      = errors.New("price does not map to a known plan")
	ErrNoPendingDowngrade = errors.New("no pending downgrade to cancel")
)
