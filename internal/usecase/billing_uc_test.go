// File: internal/usecase/billing_uc_test.go
package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"circles-platform/internal/domain"
	"circles-platform/internal/domain/model"
	"circles-platform/internal/domain/ports/adapter"
	"circles-platform/internal/infra/adapters/billing"
)

var testPrices = PriceMap{FamilyPriceID: "price_family", ExtendedPriceID: "price_extended"}

type billingFixture struct {
	gw      *billing.NoopBillingGateway
	plans   *memPlanRepo
	circles *memCircleRepo
	offers  *memOfferRepo
	uc      *BillingUseCase
}

func newBillingFixture(t *testing.T) *billingFixture {
	t.Helper()
	f := &billingFixture{
		gw:      billing.NewNoopBillingGateway(),
		plans:   newMemPlanRepo(),
		circles: newMemCircleRepo(),
		offers:  newMemOfferRepo(),
	}
	f.uc = NewBillingUseCase(f.gw, f.plans, f.circles, f.offers, testPrices, testLogger())
	return f
}

func (f *billingFixture) subscribedUser(t *testing.T, ctx context.Context, userID string, tier model.PlanTier) *model.PlanRecord {
	t.Helper()
	plan, err := model.NewPlanRecord(userID, tier)
	if err != nil {
		t.Fatalf("NewPlanRecord: %v", err)
	}
	plan.CustomerID = "cus_" + userID
	plan.SubscriptionID = "sub_" + userID
	if err := f.plans.Save(ctx, nil, plan); err != nil {
		t.Fatalf("save plan: %v", err)
	}
	priceID, _ := testPrices.PriceFor(tier)
	f.gw.AddSubscription(&adapter.Subscription{
		ID:               plan.SubscriptionID,
		CustomerID:       plan.CustomerID,
		PriceID:          priceID,
		CurrentPeriodEnd: time.Now().Add(20 * 24 * time.Hour),
	})
	return plan
}

func TestBillingUseCase_VerifyCheckout_Subscription(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	f := newBillingFixture(t)
	f.gw.AddSession(&adapter.CheckoutSession{
		ID:         "cs_1",
		Mode:       adapter.CheckoutModeSubscription,
		Paid:       true,
		ClientRef:  "u-1",
		CustomerID: "cus_u-1",
		PriceID:    "price_extended",
	})
	f.gw.AddSubscription(&adapter.Subscription{
		ID:               "sub_u-1",
		CustomerID:       "cus_u-1",
		PriceID:          "price_extended",
		CurrentPeriodEnd: time.Now().Add(30 * 24 * time.Hour),
	})

	got, err := f.uc.VerifyCheckout(ctx, "u-1", "cs_1")
	if err != nil {
		t.Fatalf("VerifyCheckout: %v", err)
	}
	if got.Type != "subscription" || got.Plan != model.PlanTierExtended {
		t.Fatalf("result = %+v, want extended subscription", got)
	}
	if got.MaxCircles != 3 || got.MaxMembersPerCircle != 35 {
		t.Fatalf("quotas = %d/%d, want 3/35", got.MaxCircles, got.MaxMembersPerCircle)
	}

	plan, err := f.plans.FindByUser(ctx, nil, "u-1")
	if err != nil {
		t.Fatalf("FindByUser: %v", err)
	}
	if plan.Plan != model.PlanTierExtended || plan.SubscriptionID != "sub_u-1" {
		t.Fatalf("stored plan = %+v, want extended with subscription reference", plan)
	}
	if plan.CurrentPeriodEnd == nil {
		t.Fatal("stored plan missing current period end")
	}
}

func TestBillingUseCase_VerifyCheckout_ExtraMembers(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	f := newBillingFixture(t)
	if err := f.circles.Save(ctx, nil, mustCircle(t, "C1", "Family", "u-1")); err != nil {
		t.Fatalf("save circle: %v", err)
	}
	f.gw.AddSession(&adapter.CheckoutSession{
		ID:        "cs_2",
		Mode:      adapter.CheckoutModePayment,
		Paid:      true,
		ClientRef: "u-1",
		Metadata:  map[string]string{"circle_id": "C1"},
	})

	got, err := f.uc.VerifyCheckout(ctx, "u-1", "cs_2")
	if err != nil {
		t.Fatalf("VerifyCheckout: %v", err)
	}
	if got.Type != "extra_members" || got.CircleID != "C1" || got.ExtraMembers != 7 {
		t.Fatalf("result = %+v, want 7 extra members on C1", got)
	}
	circle, _ := f.circles.FindByID(ctx, nil, "C1")
	if circle.ExtraMembers != 7 {
		t.Fatalf("stored extra_members = %d, want 7", circle.ExtraMembers)
	}
}

func TestBillingUseCase_VerifyCheckout_Rejections(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	f := newBillingFixture(t)
	f.gw.AddSession(&adapter.CheckoutSession{
		ID:        "cs_foreign",
		Mode:      adapter.CheckoutModeSubscription,
		Paid:      true,
		ClientRef: "someone-else",
		PriceID:   "price_family",
	})
	f.gw.AddSession(&adapter.CheckoutSession{
		ID:        "cs_unpaid",
		Mode:      adapter.CheckoutModeSubscription,
		Paid:      false,
		ClientRef: "u-1",
		PriceID:   "price_family",
	})
	f.gw.AddSession(&adapter.CheckoutSession{
		ID:        "cs_odd_price",
		Mode:      adapter.CheckoutModeSubscription,
		Paid:      true,
		ClientRef: "u-1",
		PriceID:   "price_unknown",
	})

	if _, err := f.uc.VerifyCheckout(ctx, "u-1", "cs_foreign"); !errors.Is(err, domain.ErrSessionOwnership) {
		t.Fatalf("foreign session: got %v, want ErrSessionOwnership", err)
	}
	if _, err := f.uc.VerifyCheckout(ctx, "u-1", "cs_unpaid"); !errors.Is(err, domain.ErrSessionNotPaid) {
		t.Fatalf("unpaid session: got %v, want ErrSessionNotPaid", err)
	}
	if _, err := f.uc.VerifyCheckout(ctx, "u-1", "cs_odd_price"); !errors.Is(err, domain.ErrUnknownPrice) {
		t.Fatalf("unknown price: got %v, want ErrUnknownPrice", err)
	}
	if _, err := f.uc.VerifyCheckout(ctx, "u-1", ""); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("empty session id: got %v, want ErrInvalidArgument", err)
	}
	if _, err := f.plans.FindByUser(ctx, nil, "u-1"); err != domain.ErrNotFound {
		t.Fatalf("plan after rejections: got %v, want ErrNotFound", err)
	}
}

func TestBillingUseCase_Downgrade(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	f := newBillingFixture(t)
	f.subscribedUser(t, ctx, "u-1", model.PlanTierExtended)

	got, err := f.uc.Downgrade(ctx, "u-1")
	if err != nil {
		t.Fatalf("Downgrade: %v", err)
	}
	if got.PendingPlan != model.PlanTierFamily {
		t.Fatalf("pending plan = %q, want family", got.PendingPlan)
	}

	plan, _ := f.plans.FindByUser(ctx, nil, "u-1")
	if plan.PendingPlan == nil || *plan.PendingPlan != model.PlanTierFamily {
		t.Fatalf("stored pending plan = %v, want family", plan.PendingPlan)
	}
	// Quotas stay at the extended figures until the period actually ends.
	if plan.Plan != model.PlanTierExtended || plan.MaxCircles != 3 || plan.MaxMembersPerCircle != 35 {
		t.Fatalf("stored plan = %+v, want untouched extended quotas", plan)
	}

	// No subscription on file.
	if _, err := f.uc.Downgrade(ctx, "u-none"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("downgrade without record: got %v, want ErrNotFound", err)
	}
}

func TestBillingUseCase_CancelDowngrade(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	f := newBillingFixture(t)
	f.subscribedUser(t, ctx, "u-1", model.PlanTierExtended)
	if _, err := f.uc.Downgrade(ctx, "u-1"); err != nil {
		t.Fatalf("Downgrade: %v", err)
	}

	// Open rescue offers created while over quota disappear on restore.
	offer, _ := model.NewRescueOffer("o-1", "c-1", "u-1", time.Now().Add(72*time.Hour))
	if err := f.offers.Save(ctx, nil, offer); err != nil {
		t.Fatalf("save offer: %v", err)
	}

	got, err := f.uc.CancelDowngrade(ctx, "u-1")
	if err != nil {
		t.Fatalf("CancelDowngrade: %v", err)
	}
	if got.Plan != model.PlanTierExtended {
		t.Fatalf("restored plan = %q, want extended", got.Plan)
	}

	plan, _ := f.plans.FindByUser(ctx, nil, "u-1")
	if plan.PendingPlan != nil {
		t.Fatalf("pending plan = %v, want cleared", plan.PendingPlan)
	}
	if plan.MaxCircles != 3 || plan.MaxMembersPerCircle != 35 {
		t.Fatalf("quotas = %d/%d, want 3/35", plan.MaxCircles, plan.MaxMembersPerCircle)
	}
	if n := f.offers.countOpen("u-1"); n != 0 {
		t.Fatalf("open offers after restore = %d, want 0", n)
	}

	// Without a scheduled downgrade there is nothing to cancel.
	if _, err := f.uc.CancelDowngrade(ctx, "u-1"); !errors.Is(err, domain.ErrNoPendingDowngrade) {
		t.Fatalf("repeat cancel: got %v, want ErrNoPendingDowngrade", err)
	}
}

func TestBillingUseCase_Reactivate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	f := newBillingFixture(t)
	plan := f.subscribedUser(t, ctx, "u-1", model.PlanTierFamily)
	plan.CancelAtPeriodEnd = true
	if err := f.plans.Save(ctx, nil, plan); err != nil {
		t.Fatalf("save plan: %v", err)
	}
	offer, _ := model.NewRescueOffer("o-1", "c-1", "u-1", time.Now().Add(72*time.Hour))
	if err := f.offers.Save(ctx, nil, offer); err != nil {
		t.Fatalf("save offer: %v", err)
	}

	end, err := f.uc.Reactivate(ctx, "u-1")
	if err != nil {
		t.Fatalf("Reactivate: %v", err)
	}
	if end.IsZero() {
		t.Fatal("expected a period end from the gateway")
	}

	stored, _ := f.plans.FindByUser(ctx, nil, "u-1")
	if stored.CancelAtPeriodEnd {
		t.Fatal("cancel flag still set after reactivation")
	}
	if n := f.offers.countOpen("u-1"); n != 0 {
		t.Fatalf("open offers after reactivation = %d, want 0", n)
	}
}

func TestBillingUseCase_PreviewUpgrade(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	f := newBillingFixture(t)
	f.subscribedUser(t, ctx, "u-1", model.PlanTierFamily)

	got, err := f.uc.PreviewUpgrade(ctx, "u-1", "price_extended")
	if err != nil {
		t.Fatalf("PreviewUpgrade: %v", err)
	}
	if got.PlanName != string(model.PlanTierExtended) {
		t.Fatalf("plan name = %q, want extended", got.PlanName)
	}
	if got.ProratedAmount <= 0 || got.NewMonthlyPrice <= 0 {
		t.Fatalf("preview amounts = %+v, want positive figures", got)
	}

	// Nothing was committed: the subscription still runs the family price.
	sub, err := f.gw.ActiveSubscription(ctx, "cus_u-1")
	if err != nil {
		t.Fatalf("ActiveSubscription: %v", err)
	}
	if sub.PriceID != "price_family" {
		t.Fatalf("subscription price = %q, want unchanged price_family", sub.PriceID)
	}

	if _, err := f.uc.PreviewUpgrade(ctx, "u-1", "price_bogus"); !errors.Is(err, domain.ErrUnknownPrice) {
		t.Fatalf("bogus price: got %v, want ErrUnknownPrice", err)
	}
}
