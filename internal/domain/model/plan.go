package model

import (
	"time"

	"circles-platform/internal/domain"
)

type PlanTier string

const (
	PlanTierFree     PlanTier = "free"
	PlanTierFamily   PlanTier = "family"
	PlanTierExtended PlanTier = "extended"
)

// Quotas are the entitlement limits bundled with a tier.
type Quotas struct {
	MaxCircles          int
	MaxMembersPerCircle int
}

// TierQuotas returns the fixed quota bundle for a tier.
func TierQuotas(tier PlanTier) Quotas {
	switch tier {
	case PlanTierFamily:
		return Quotas{MaxCircles: 2, MaxMembersPerCircle: 15}
	case PlanTierExtended:
		return Quotas{MaxCircles: 3, MaxMembersPerCircle: 35}
	default:
		return Quotas{MaxCircles: 1, MaxMembersPerCircle: 8}
	}
}

// ExtraMemberBundleSize is the seat count added by one extra-member purchase.
const ExtraMemberBundleSize = 7

// PlanRecord is a user's subscription tier and entitlement quotas.
// Written exclusively by the billing bridge in response to processor events.
type PlanRecord struct {
	UserID              string
	Plan                PlanTier
	MaxCircles          int
	MaxMembersPerCircle int
	ExtraMembers        int
	PendingPlan         *PlanTier // scheduled downgrade, nil when none
	CancelAtPeriodEnd   bool
	CurrentPeriodEnd    *time.Time
	CustomerID          string // payment-processor customer reference
	SubscriptionID      string // payment-processor subscription reference
	UpdatedAt           time.Time
}

// EffectiveMemberLimit is the invariant limit = max_members_per_circle + extra_members.
func (p *PlanRecord) EffectiveMemberLimit() int {
	return p.MaxMembersPerCircle + p.ExtraMembers
}

// NewPlanRecord builds a record for a tier with that tier's quotas applied.
func NewPlanRecord(userID string, tier PlanTier) (*PlanRecord, error) {
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	q := TierQuotas(tier)
	return &PlanRecord{
		UserID:              userID,
		Plan:                tier,
		MaxCircles:          q.MaxCircles,
		MaxMembersPerCircle: q.MaxMembersPerCircle,
		UpdatedAt:           time.Now(),
	}, nil
}

// ApplyTier switches the record to a tier and its quotas, clearing any
// scheduled downgrade.
func (p *PlanRecord) ApplyTier(tier PlanTier) {
	q := TierQuotas(tier)
	p.Plan = tier
	p.MaxCircles = q.MaxCircles
	p.MaxMembersPerCircle = q.MaxMembersPerCircle
	p.PendingPlan = nil
	p.UpdatedAt = time.Now()
}
