package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"circles-platform/internal/domain"
	"circles-platform/internal/domain/model"
	"circles-platform/internal/domain/ports/repository"
)

// Ensure interface compliance
var _ repository.PlanRepository = (*PostgresPlanRepo)(nil)

type PostgresPlanRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresPlanRepo(pool *pgxpool.Pool) *PostgresPlanRepo {
	return &PostgresPlanRepo{pool: pool}
}

const planColumns = `user_id, plan, max_circles, max_members_per_circle, extra_members,
       pending_plan, cancel_at_period_end, current_period_end,
       stripe_customer_id, stripe_subscription_id, updated_at`

func (r *PostgresPlanRepo) Save(ctx context.Context, tx repository.Tx, plan *model.PlanRecord) error {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	const sql = `
INSERT INTO user_plans (user_id, plan, max_circles, max_members_per_circle, extra_members,
                        pending_plan, cancel_at_period_end, current_period_end,
                        stripe_customer_id, stripe_subscription_id, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (user_id) DO UPDATE
  SET plan                   = EXCLUDED.plan,
      max_circles            = EXCLUDED.max_circles,
      max_members_per_circle = EXCLUDED.max_members_per_circle,
      extra_members          = EXCLUDED.extra_members,
      pending_plan           = EXCLUDED.pending_plan,
      cancel_at_period_end   = EXCLUDED.cancel_at_period_end,
      current_period_end     = EXCLUDED.current_period_end,
      stripe_customer_id     = EXCLUDED.stripe_customer_id,
      stripe_subscription_id = EXCLUDED.stripe_subscription_id,
      updated_at             = EXCLUDED.updated_at;
`
	var pending *string
	if plan.PendingPlan != nil {
		s := string(*plan.PendingPlan)
		pending = &s
	}
	if _, err := ex.Exec(ctx, sql,
		plan.UserID, string(plan.Plan), plan.MaxCircles, plan.MaxMembersPerCircle, plan.ExtraMembers,
		pending, plan.CancelAtPeriodEnd, plan.CurrentPeriodEnd,
		plan.CustomerID, plan.SubscriptionID, plan.UpdatedAt,
	); err != nil {
		return fmt.Errorf("Save plan record: %w", err)
	}
	return nil
}

func (r *PostgresPlanRepo) FindByUser(ctx context.Context, tx repository.Tx, userID string) (*model.PlanRecord, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	sql := `SELECT ` + planColumns + ` FROM user_plans WHERE user_id = $1;`
	return scanPlan(ex.QueryRow(ctx, sql, userID), "FindByUser")
}

func (r *PostgresPlanRepo) FindByCustomer(ctx context.Context, customerID string) (*model.PlanRecord, error) {
	sql := `SELECT ` + planColumns + ` FROM user_plans WHERE stripe_customer_id = $1;`
	return scanPlan(r.pool.QueryRow(ctx, sql, customerID), "FindByCustomer")
}

func scanPlan(row pgx.Row, op string) (*model.PlanRecord, error) {
	var p model.PlanRecord
	var plan string
	var pending *string
	if err := row.Scan(
		&p.UserID, &plan, &p.MaxCircles, &p.MaxMembersPerCircle, &p.ExtraMembers,
		&pending, &p.CancelAtPeriodEnd, &p.CurrentPeriodEnd,
		&p.CustomerID, &p.SubscriptionID, &p.UpdatedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%s plan record: %w", op, err)
	}
	p.Plan = model.PlanTier(plan)
	if pending != nil {
		t := model.PlanTier(*pending)
		p.PendingPlan = &t
	}
	return &p, nil
}
