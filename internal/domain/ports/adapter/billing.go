package adapter

import (
	"context"
	"time"
)

type CheckoutMode string

const (
	CheckoutModeSubscription CheckoutMode = "subscription"
	CheckoutModePayment      CheckoutMode = "payment"
)

// CheckoutSession is the provider-agnostic view of a completed checkout.
type CheckoutSession struct {
	ID         string
	Mode       CheckoutMode
	Paid       bool
	ClientRef  string // the user id the session was created for
	CustomerID string
	PriceID    string            // subscription mode
	Metadata   map[string]string // payment mode carries circle_id here
}

// Subscription is the provider-agnostic view of an active subscription.
type Subscription struct {
	ID                string
	CustomerID        string
	PriceID           string
	CancelAtPeriodEnd bool
	CurrentPeriodEnd  time.Time
}

// ProrationPreview is the prorated cost of switching to a price without
// committing the change.
type ProrationPreview struct {
	ProratedAmount  int64 // minor units, the immediate charge
	NewMonthlyPrice int64 // minor units
	NextBillingDate time.Time
}

// BillingGateway is the hex port for the payment processor.
type BillingGateway interface {
	Name() string

	// GetCheckoutSession fetches a checkout session by reference.
	GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error)
	// ActiveSubscription returns the customer's single active subscription.
	ActiveSubscription(ctx context.Context, customerID string) (*Subscription, error)
	// SwitchPrice moves the subscription to priceID. With atPeriodEnd the
	// change takes effect at the next billing boundary with no proration;
	// otherwise it applies immediately.
	SwitchPrice(ctx context.Context, subscriptionID, priceID string, atPeriodEnd bool) (*Subscription, error)
	// SetCancelAtPeriodEnd toggles the pending-cancellation flag.
	SetCancelAtPeriodEnd(ctx context.Context, subscriptionID string, cancel bool) (*Subscription, error)
	// PreviewProration computes the cost of an immediate switch to priceID.
	PreviewProration(ctx context.Context, customerID, subscriptionID, priceID string) (*ProrationPreview, error)
}
