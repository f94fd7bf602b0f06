package billing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"circles-platform/internal/domain/ports/adapter"
)

var _ adapter.BillingGateway = (*NoopBillingGateway)(nil)

// NoopBillingGateway is a simple in-memory gateway to use in tests and dev
// mode. Sessions and subscriptions are registered up front by the test.
type NoopBillingGateway struct {
	mu       sync.Mutex
	sessions map[string]*adapter.CheckoutSession
	subs     map[string]*adapter.Subscription
	preview  adapter.ProrationPreview
}

func NewNoopBillingGateway() *NoopBillingGateway {
	return &NoopBillingGateway{
		sessions: make(map[string]*adapter.CheckoutSession),
		subs:     make(map[string]*adapter.Subscription),
		preview: adapter.ProrationPreview{
			ProratedAmount:  500,
			NewMonthlyPrice: 999,
			NextBillingDate: time.Now().Add(30 * 24 * time.Hour),
		},
	}
}

func (g *NoopBillingGateway) Name() string { return "noop" }

// AddSession registers a session the gateway will serve.
func (g *NoopBillingGateway) AddSession(sess *adapter.CheckoutSession) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sessions[sess.ID] = sess
}

// AddSubscription registers a subscription the gateway will serve.
func (g *NoopBillingGateway) AddSubscription(sub *adapter.Subscription) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.subs[sub.ID] = sub
}

func (g *NoopBillingGateway) GetCheckoutSession(ctx context.Context, sessionID string) (*adapter.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	sess, ok := g.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("noop: session %s not found", sessionID)
	}
	cp := *sess
	return &cp, nil
}

func (g *NoopBillingGateway) ActiveSubscription(ctx context.Context, customerID string) (*adapter.Subscription, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, s := range g.subs {
		if s.CustomerID == customerID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("noop: no subscription for customer %s", customerID)
}

func (g *NoopBillingGateway) SwitchPrice(ctx context.Context, subscriptionID, priceID string, atPeriodEnd bool) (*adapter.Subscription, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.subs[subscriptionID]
	if !ok {
		return nil, fmt.Errorf("noop: subscription %s not found", subscriptionID)
	}
	s.PriceID = priceID
	cp := *s
	return &cp, nil
}

func (g *NoopBillingGateway) SetCancelAtPeriodEnd(ctx context.Context, subscriptionID string, cancel bool) (*adapter.Subscription, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.subs[subscriptionID]
	if !ok {
		return nil, fmt.Errorf("noop: subscription %s not found", subscriptionID)
	}
	s.CancelAtPeriodEnd = cancel
	cp := *s
	return &cp, nil
}

func (g *NoopBillingGateway) PreviewProration(ctx context.Context, customerID, subscriptionID, priceID string) (*adapter.ProrationPreview, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.subs[subscriptionID]; !ok {
		return nil, fmt.Errorf("noop: subscription %s not found", subscriptionID)
	}
	cp := g.preview
	return &cp, nil
}
