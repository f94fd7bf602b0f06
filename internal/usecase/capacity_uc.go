// File: internal/usecase/capacity_uc.go
package usecase

import (
	"context"
	"fmt"

	"circles-platform/internal/domain"
	"circles-platform/internal/domain/model"
	"circles-platform/internal/domain/ports/repository"
)

// CapacityUseCase decides whether a circle is within its owner's member
// quota. The decision itself is a pure function of the plan record and the
// occupied-seat count.
type CapacityUseCase struct {
	circles repository.CircleRepository
	plans   repository.PlanRepository
}

func NewCapacityUseCase(circles repository.CircleRepository, plans repository.PlanRepository) *CapacityUseCase {
	return &CapacityUseCase{circles: circles, plans: plans}
}

// Evaluate computes the capacity status for a plan and an occupied-seat count
// (members plus one for the owner). A nil plan means the owner has never
// purchased anything and gets the free-tier limits.
func Evaluate(plan *model.PlanRecord, occupied int) model.CapacityStatus {
	limit := model.TierQuotas(model.PlanTierFree).MaxMembersPerCircle
	if plan != nil {
		limit = plan.EffectiveMemberLimit()
	}
	return model.CapacityStatus{
		CurrentCount: occupied,
		Limit:        limit,
		IsFull:       occupied >= limit,
	}
}

// EvaluateForCircle loads the circle's owner plan and seat count and runs
// Evaluate. Lookup failures propagate as a generic fetch error.
func (uc *CapacityUseCase) EvaluateForCircle(ctx context.Context, circleID string) (model.CapacityStatus, error) {
	circle, err := uc.circles.FindByID(ctx, repository.NoTX, circleID)
	if err != nil {
		return model.CapacityStatus{}, fmt.Errorf("fetch circle %s: %w", circleID, err)
	}
	occupied, err := uc.circles.CountOccupiedSeats(ctx, circleID)
	if err != nil {
		return model.CapacityStatus{}, fmt.Errorf("fetch seat count for %s: %w", circleID, err)
	}
	plan, err := uc.plans.FindByUser(ctx, repository.NoTX, circle.OwnerID)
	if err != nil && err != domain.ErrNotFound {
		return model.CapacityStatus{}, fmt.Errorf("fetch plan for %s: %w", circle.OwnerID, err)
	}
	return Evaluate(plan, occupied), nil
}
