package repository

import (
	"context"

	"circles-platform/internal/domain/model"
)

type PlanRepository interface {
	// Save upserts a plan record keyed by user_id.
	Save(ctx context.Context, tx Tx, plan *model.PlanRecord) error
	// FindByUser returns domain.ErrNotFound when the user has no record;
	// callers treat that as the free tier.
	FindByUser(ctx context.Context, tx Tx, userID string) (*model.PlanRecord, error)
	// FindByCustomer looks a record up by processor customer reference.
	FindByCustomer(ctx context.Context, customerID string) (*model.PlanRecord, error)
}
