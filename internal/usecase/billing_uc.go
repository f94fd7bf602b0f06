// File: internal/usecase/billing_uc.go
package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"circles-platform/internal/domain"
	"circles-platform/internal/domain/model"
	"circles-platform/internal/domain/ports/adapter"
	"circles-platform/internal/domain/ports/repository"
	"circles-platform/internal/infra/metrics"
)

// PriceMap binds processor price ids to plan tiers.
type PriceMap struct {
	FamilyPriceID   string
	ExtendedPriceID string
}

func (m PriceMap) TierFor(priceID string) (model.PlanTier, bool) {
	switch priceID {
	case m.FamilyPriceID:
		return model.PlanTierFamily, true
	case m.ExtendedPriceID:
		return model.PlanTierExtended, true
	}
	return "", false
}

func (m PriceMap) PriceFor(tier model.PlanTier) (string, bool) {
	switch tier {
	case model.PlanTierFamily:
		return m.FamilyPriceID, true
	case model.PlanTierExtended:
		return m.ExtendedPriceID, true
	}
	return "", false
}

// VerifyResult is the applied plan/quota state returned for client-side
// confirmation after a checkout.
type VerifyResult struct {
	Type                string         `json:"type"` // "subscription" | "extra_members"
	Plan                model.PlanTier `json:"plan,omitempty"`
	MaxCircles          int            `json:"max_circles,omitempty"`
	MaxMembersPerCircle int            `json:"max_members_per_circle,omitempty"`
	CircleID            string         `json:"circle_id,omitempty"`
	ExtraMembers        int            `json:"extra_members,omitempty"`
}

// DowngradeResult mirrors the downgrade-subscription response payload.
type DowngradeResult struct {
	PendingPlan      model.PlanTier `json:"pending_plan"`
	CurrentPeriodEnd time.Time      `json:"current_period_end"`
}

// RestoreResult mirrors the cancel-downgrade response payload.
type RestoreResult struct {
	Plan             model.PlanTier `json:"plan"`
	CurrentPeriodEnd time.Time      `json:"current_period_end"`
}

// PreviewResult mirrors the preview-upgrade response payload.
type PreviewResult struct {
	ProratedAmount  int64     `json:"prorated_amount"`
	NewMonthlyPrice int64     `json:"new_monthly_price"`
	NextBillingDate time.Time `json:"next_billing_date"`
	PlanName        string    `json:"plan_name"`
}

// BillingUseCase translates payment-processor events and user actions into
// plan-record updates. It is the only writer of user_plans rows. Every
// operation is all-or-nothing: a failed record write after a processor call
// is reported as a failure, never papered over.
type BillingUseCase struct {
	gw      adapter.BillingGateway
	plans   repository.PlanRepository
	circles repository.CircleRepository
	offers  repository.RescueOfferRepository
	prices  PriceMap
	log     *zerolog.Logger
}

func NewBillingUseCase(
	gw adapter.BillingGateway,
	plans repository.PlanRepository,
	circles repository.CircleRepository,
	offers repository.RescueOfferRepository,
	prices PriceMap,
	logger *zerolog.Logger,
) *BillingUseCase {
	l := logger.With().Str("component", "BillingUC").Logger()
	return &BillingUseCase{
		gw:      gw,
		plans:   plans,
		circles: circles,
		offers:  offers,
		prices:  prices,
		log:     &l,
	}
}

func (uc *BillingUseCase) observe(op string, start time.Time, err error) {
	metrics.ObserveBillingOpLatency(op, float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.IncBillingOp(op, "error")
	} else {
		metrics.IncBillingOp(op, "ok")
	}
}

// VerifyCheckout validates that the session belongs to the caller and is
// paid, then applies its effect: subscription sessions write the mapped tier
// and quotas to the plan record, one-time-payment sessions add an
// extra-member bundle to the circle named in the session metadata.
func (uc *BillingUseCase) VerifyCheckout(ctx context.Context, userID, sessionID string) (res *VerifyResult, err error) {
	defer func(start time.Time) { uc.observe("verify_checkout", start, err) }(time.Now())

	if sessionID == "" {
		return nil, domain.ErrInvalidArgument
	}
	sess, err := uc.gw.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("fetch checkout session: %w", err)
	}
	if sess.ClientRef != userID {
		return nil, domain.ErrSessionOwnership
	}
	if !sess.Paid {
		return nil, domain.ErrSessionNotPaid
	}

	switch sess.Mode {
	case adapter.CheckoutModeSubscription:
		tier, ok := uc.prices.TierFor(sess.PriceID)
		if !ok {
			return nil, domain.ErrUnknownPrice
		}
		plan, err := uc.plans.FindByUser(ctx, repository.NoTX, userID)
		if err == domain.ErrNotFound {
			plan, err = model.NewPlanRecord(userID, tier)
		}
		if err != nil {
			return nil, err
		}
		plan.ApplyTier(tier)
		plan.CancelAtPeriodEnd = false
		if sess.CustomerID != "" {
			plan.CustomerID = sess.CustomerID
		}
		if sub, err := uc.gw.ActiveSubscription(ctx, plan.CustomerID); err == nil {
			plan.SubscriptionID = sub.ID
			plan.CurrentPeriodEnd = &sub.CurrentPeriodEnd
		}
		if err := uc.plans.Save(ctx, repository.NoTX, plan); err != nil {
			return nil, fmt.Errorf("persist plan record: %w", err)
		}
		uc.log.Info().Str("user_id", userID).Str("plan", string(tier)).Msg("subscription checkout verified")
		return &VerifyResult{
			Type:                "subscription",
			Plan:                tier,
			MaxCircles:          plan.MaxCircles,
			MaxMembersPerCircle: plan.MaxMembersPerCircle,
		}, nil

	case adapter.CheckoutModePayment:
		circleID := sess.Metadata["circle_id"]
		if circleID == "" {
			return nil, fmt.Errorf("%w: session has no circle_id", domain.ErrInvalidArgument)
		}
		if err := uc.circles.AddExtraMembers(ctx, circleID, model.ExtraMemberBundleSize); err != nil {
			return nil, fmt.Errorf("apply extra members: %w", err)
		}
		circle, err := uc.circles.FindByID(ctx, repository.NoTX, circleID)
		if err != nil {
			return nil, err
		}
		uc.log.Info().Str("user_id", userID).Str("circle_id", circleID).Msg("extra-member checkout verified")
		return &VerifyResult{
			Type:         "extra_members",
			CircleID:     circleID,
			ExtraMembers: circle.ExtraMembers,
		}, nil
	}
	return nil, fmt.Errorf("%w: unknown session mode %q", domain.ErrInvalidArgument, sess.Mode)
}

// Downgrade schedules a switch to the family price at the next billing
// boundary (no proration) and records pending_plan so clients can show the
// scheduled change. Current quotas stay untouched until the period ends.
func (uc *BillingUseCase) Downgrade(ctx context.Context, userID string) (res *DowngradeResult, err error) {
	defer func(start time.Time) { uc.observe("downgrade", start, err) }(time.Now())

	plan, err := uc.plans.FindByUser(ctx, repository.NoTX, userID)
	if err != nil {
		return nil, err
	}
	if plan.SubscriptionID == "" {
		return nil, domain.ErrNoSubscription
	}
	price, _ := uc.prices.PriceFor(model.PlanTierFamily)
	sub, err := uc.gw.SwitchPrice(ctx, plan.SubscriptionID, price, true)
	if err != nil {
		return nil, fmt.Errorf("schedule downgrade: %w", err)
	}

	pending := model.PlanTierFamily
	plan.PendingPlan = &pending
	plan.CurrentPeriodEnd = &sub.CurrentPeriodEnd
	plan.UpdatedAt = time.Now()
	if err := uc.plans.Save(ctx, repository.NoTX, plan); err != nil {
		return nil, fmt.Errorf("persist pending downgrade: %w", err)
	}
	return &DowngradeResult{PendingPlan: pending, CurrentPeriodEnd: sub.CurrentPeriodEnd}, nil
}

// CancelDowngrade restores the extended price with no additional charge,
// clears pending_plan, restores the tier quotas, and deletes any open rescue
// offers the caller created as a side effect of the downgrade.
func (uc *BillingUseCase) CancelDowngrade(ctx context.Context, userID string) (res *RestoreResult, err error) {
	defer func(start time.Time) { uc.observe("cancel_downgrade", start, err) }(time.Now())

	plan, err := uc.plans.FindByUser(ctx, repository.NoTX, userID)
	if err != nil {
		return nil, err
	}
	if plan.PendingPlan == nil {
		return nil, domain.ErrNoPendingDowngrade
	}
	if plan.SubscriptionID == "" {
		return nil, domain.ErrNoSubscription
	}
	price, _ := uc.prices.PriceFor(model.PlanTierExtended)
	sub, err := uc.gw.SwitchPrice(ctx, plan.SubscriptionID, price, false)
	if err != nil {
		return nil, fmt.Errorf("restore price: %w", err)
	}

	plan.ApplyTier(model.PlanTierExtended)
	plan.CurrentPeriodEnd = &sub.CurrentPeriodEnd
	if err := uc.plans.Save(ctx, repository.NoTX, plan); err != nil {
		return nil, fmt.Errorf("persist restored plan: %w", err)
	}
	if n, err := uc.offers.DeleteOpenByOwner(ctx, userID); err != nil {
		return nil, fmt.Errorf("delete rescue offers: %w", err)
	} else if n > 0 {
		uc.log.Info().Str("user_id", userID).Int("count", n).Msg("open rescue offers withdrawn")
	}
	return &RestoreResult{Plan: plan.Plan, CurrentPeriodEnd: sub.CurrentPeriodEnd}, nil
}

// Reactivate clears a pending cancellation on the subscription and on the
// plan record, and deletes the caller's open rescue offers.
func (uc *BillingUseCase) Reactivate(ctx context.Context, userID string) (end time.Time, err error) {
	defer func(start time.Time) { uc.observe("reactivate", start, err) }(time.Now())

	plan, err := uc.plans.FindByUser(ctx, repository.NoTX, userID)
	if err != nil {
		return time.Time{}, err
	}
	if plan.SubscriptionID == "" {
		return time.Time{}, domain.ErrNoSubscription
	}
	sub, err := uc.gw.SetCancelAtPeriodEnd(ctx, plan.SubscriptionID, false)
	if err != nil {
		return time.Time{}, fmt.Errorf("reactivate subscription: %w", err)
	}

	plan.CancelAtPeriodEnd = false
	plan.CurrentPeriodEnd = &sub.CurrentPeriodEnd
	plan.UpdatedAt = time.Now()
	if err := uc.plans.Save(ctx, repository.NoTX, plan); err != nil {
		return time.Time{}, fmt.Errorf("persist reactivated plan: %w", err)
	}
	if _, err := uc.offers.DeleteOpenByOwner(ctx, userID); err != nil {
		return time.Time{}, fmt.Errorf("delete rescue offers: %w", err)
	}
	return sub.CurrentPeriodEnd, nil
}

// PreviewUpgrade computes the prorated charge for switching to priceID
// without committing anything.
func (uc *BillingUseCase) PreviewUpgrade(ctx context.Context, userID, priceID string) (res *PreviewResult, err error) {
	defer func(start time.Time) { uc.observe("preview_upgrade", start, err) }(time.Now())

	tier, ok := uc.prices.TierFor(priceID)
	if !ok {
		return nil, domain.ErrUnknownPrice
	}
	plan, err := uc.plans.FindByUser(ctx, repository.NoTX, userID)
	if err != nil {
		return nil, err
	}
	if plan.SubscriptionID == "" {
		return nil, domain.ErrNoSubscription
	}
	p, err := uc.gw.PreviewProration(ctx, plan.CustomerID, plan.SubscriptionID, priceID)
	if err != nil {
		return nil, fmt.Errorf("preview proration: %w", err)
	}
	return &PreviewResult{
		ProratedAmount:  p.ProratedAmount,
		NewMonthlyPrice: p.NewMonthlyPrice,
		NextBillingDate: p.NextBillingDate,
		PlanName:        string(tier),
	}, nil
}
