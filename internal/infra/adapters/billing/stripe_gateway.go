package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/stripe/stripe-go/v79/invoice"
	"github.com/stripe/stripe-go/v79/price"
	"github.com/stripe/stripe-go/v79/subscription"

	"circles-platform/internal/domain/ports/adapter"
)

var _ adapter.BillingGateway = (*StripeGateway)(nil)

// StripeGateway implements the billing port against the Stripe API.
type StripeGateway struct{}

// NewStripeGateway wires the Stripe API key and returns the gateway.
func NewStripeGateway(secretKey string) (*StripeGateway, error) {
	if secretKey == "" {
		return nil, errors.New("stripe secret key is required")
	}
	stripe.Key = secretKey
	return &StripeGateway{}, nil
}

func (g *StripeGateway) Name() string { return "stripe" }

func (g *StripeGateway) GetCheckoutSession(ctx context.Context, sessionID string) (*adapter.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	params.AddExpand("line_items")
	sess, err := session.Get(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("stripe get session: %w", err)
	}

	out := &adapter.CheckoutSession{
		ID:        sess.ID,
		Paid:      sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		ClientRef: sess.ClientReferenceID,
		Metadata:  sess.Metadata,
	}
	switch sess.Mode {
	case stripe.CheckoutSessionModeSubscription:
		out.Mode = adapter.CheckoutModeSubscription
	case stripe.CheckoutSessionModePayment:
		out.Mode = adapter.CheckoutModePayment
	default:
		out.Mode = adapter.CheckoutMode(sess.Mode)
	}
	if sess.Customer != nil {
		out.CustomerID = sess.Customer.ID
	}
	if sess.LineItems != nil && len(sess.LineItems.Data) > 0 && sess.LineItems.Data[0].Price != nil {
		out.PriceID = sess.LineItems.Data[0].Price.ID
	}
	return out, nil
}

func (g *StripeGateway) ActiveSubscription(ctx context.Context, customerID string) (*adapter.Subscription, error) {
	params := &stripe.SubscriptionListParams{
		Customer: stripe.String(customerID),
		Status:   stripe.String(string(stripe.SubscriptionStatusActive)),
	}
	params.Context = ctx
	params.Limit = stripe.Int64(1)
	it := subscription.List(params)
	for it.Next() {
		return fromStripeSubscription(it.Subscription()), nil
	}
	if err := it.Err(); err != nil {
		return nil, fmt.Errorf("stripe list subscriptions: %w", err)
	}
	return nil, errors.New("no active subscription for customer")
}

func (g *StripeGateway) SwitchPrice(ctx context.Context, subscriptionID, priceID string, atPeriodEnd bool) (*adapter.Subscription, error) {
	getParams := &stripe.SubscriptionParams{}
	getParams.Context = ctx
	sub, err := subscription.Get(subscriptionID, getParams)
	if err != nil {
		return nil, fmt.Errorf("stripe get subscription: %w", err)
	}
	if sub.Items == nil || len(sub.Items.Data) == 0 {
		return nil, errors.New("subscription has no items")
	}

	params := &stripe.SubscriptionParams{
		Items: []*stripe.SubscriptionItemsParams{
			{
				ID:    stripe.String(sub.Items.Data[0].ID),
				Price: stripe.String(priceID),
			},
		},
		// Never prorate a scheduled or restored switch; upgrade charges are
		// previewed and committed separately.
		ProrationBehavior: stripe.String("none"),
	}
	params.Context = ctx
	if atPeriodEnd {
		params.BillingCycleAnchorUnchanged = stripe.Bool(true)
	}
	updated, err := subscription.Update(subscriptionID, params)
	if err != nil {
		return nil, fmt.Errorf("stripe update subscription: %w", err)
	}
	return fromStripeSubscription(updated), nil
}

func (g *StripeGateway) SetCancelAtPeriodEnd(ctx context.Context, subscriptionID string, cancel bool) (*adapter.Subscription, error) {
	params := &stripe.SubscriptionParams{
		CancelAtPeriodEnd: stripe.Bool(cancel),
	}
	params.Context = ctx
	updated, err := subscription.Update(subscriptionID, params)
	if err != nil {
		return nil, fmt.Errorf("stripe update subscription: %w", err)
	}
	return fromStripeSubscription(updated), nil
}

func (g *StripeGateway) PreviewProration(ctx context.Context, customerID, subscriptionID, priceID string) (*adapter.ProrationPreview, error) {
	getParams := &stripe.SubscriptionParams{}
	getParams.Context = ctx
	sub, err := subscription.Get(subscriptionID, getParams)
	if err != nil {
		return nil, fmt.Errorf("stripe get subscription: %w", err)
	}
	if sub.Items == nil || len(sub.Items.Data) == 0 {
		return nil, errors.New("subscription has no items")
	}

	upcomingParams := &stripe.InvoiceUpcomingParams{
		Customer:     stripe.String(customerID),
		Subscription: stripe.String(subscriptionID),
		SubscriptionItems: []*stripe.SubscriptionItemsParams{
			{
				ID:    stripe.String(sub.Items.Data[0].ID),
				Price: stripe.String(priceID),
			},
		},
		SubscriptionProrationBehavior: stripe.String("create_prorations"),
	}
	upcomingParams.Context = ctx
	inv, err := invoice.Upcoming(upcomingParams)
	if err != nil {
		return nil, fmt.Errorf("stripe preview invoice: %w", err)
	}

	priceParams := &stripe.PriceParams{}
	priceParams.Context = ctx
	p, err := price.Get(priceID, priceParams)
	if err != nil {
		return nil, fmt.Errorf("stripe get price: %w", err)
	}

	return &adapter.ProrationPreview{
		ProratedAmount:  inv.AmountDue,
		NewMonthlyPrice: p.UnitAmount,
		NextBillingDate: time.Unix(sub.CurrentPeriodEnd, 0),
	}, nil
}

func fromStripeSubscription(sub *stripe.Subscription) *adapter.Subscription {
	out := &adapter.Subscription{
		ID:                sub.ID,
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
		CurrentPeriodEnd:  time.Unix(sub.CurrentPeriodEnd, 0),
	}
	if sub.Customer != nil {
		out.CustomerID = sub.Customer.ID
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		out.PriceID = sub.Items.Data[0].Price.ID
	}
	return out
}
