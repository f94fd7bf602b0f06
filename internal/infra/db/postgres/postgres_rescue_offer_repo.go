package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"circles-platform/internal/domain"
	"circles-platform/internal/domain/model"
	"circles-platform/internal/domain/ports/repository"
)

// Ensure interface compliance
var _ repository.RescueOfferRepository = (*PostgresRescueOfferRepo)(nil)

type PostgresRescueOfferRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresRescueOfferRepo(pool *pgxpool.Pool) *PostgresRescueOfferRepo {
	return &PostgresRescueOfferRepo{pool: pool}
}

func (r *PostgresRescueOfferRepo) Save(ctx context.Context, tx repository.Tx, offer *model.RescueOffer) error {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	// A partial unique index on (circle_id) WHERE status = 'open' enforces at
	// most one open offer per circle.
	const sql = `
INSERT INTO circle_rescue_offers (id, circle_id, current_owner, status, deadline, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO UPDATE
  SET status   = EXCLUDED.status,
      deadline = EXCLUDED.deadline;
`
	if _, err := ex.Exec(ctx, sql,
		offer.ID, offer.CircleID, offer.CurrentOwner, string(offer.Status), offer.Deadline, offer.CreatedAt,
	); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("Save rescue offer: %w", err)
	}
	return nil
}

func (r *PostgresRescueOfferRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.RescueOffer, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	const sql = `
SELECT id, circle_id, current_owner, status, deadline, created_at
  FROM circle_rescue_offers
 WHERE id = $1;
`
	return scanOffer(ex.QueryRow(ctx, sql, id), "FindByID")
}

func (r *PostgresRescueOfferRepo) FindOpenByCircle(ctx context.Context, tx repository.Tx, circleID string) (*model.RescueOffer, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	const sql = `
SELECT id, circle_id, current_owner, status, deadline, created_at
  FROM circle_rescue_offers
 WHERE circle_id = $1 AND status = 'open';
`
	return scanOffer(ex.QueryRow(ctx, sql, circleID), "FindOpenByCircle")
}

func scanOffer(row pgx.Row, op string) (*model.RescueOffer, error) {
	var o model.RescueOffer
	var status string
	if err := row.Scan(&o.ID, &o.CircleID, &o.CurrentOwner, &status, &o.Deadline, &o.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%s rescue offer: %w", op, err)
	}
	o.Status = model.RescueOfferStatus(status)
	return &o, nil
}

func (r *PostgresRescueOfferRepo) ListOpenPastDeadline(ctx context.Context, now time.Time) ([]*model.RescueOffer, error) {
	const sql = `
SELECT id, circle_id, current_owner, status, deadline, created_at
  FROM circle_rescue_offers
 WHERE status = 'open' AND deadline < $1;
`
	rows, err := r.pool.Query(ctx, sql, now)
	if err != nil {
		return nil, fmt.Errorf("ListOpenPastDeadline: %w", err)
	}
	defer rows.Close()
	var out []*model.RescueOffer
	for rows.Next() {
		var o model.RescueOffer
		var status string
		if err := rows.Scan(&o.ID, &o.CircleID, &o.CurrentOwner, &status, &o.Deadline, &o.CreatedAt); err != nil {
			return nil, err
		}
		o.Status = model.RescueOfferStatus(status)
		out = append(out, &o)
	}
	return out, rows.Err()
}

func (r *PostgresRescueOfferRepo) MarkExpired(ctx context.Context, offerID string) (bool, error) {
	// Conditional on still-open so a repeated sweep expires each offer once.
	const sql = `
UPDATE circle_rescue_offers
   SET status = 'expired'
 WHERE id = $1 AND status = 'open';
`
	ct, err := r.pool.Exec(ctx, sql, offerID)
	if err != nil {
		return false, fmt.Errorf("MarkExpired: %w", err)
	}
	return ct.RowsAffected() == 1, nil
}

func (r *PostgresRescueOfferRepo) CloseForCircle(ctx context.Context, tx repository.Tx, circleID string) error {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	const sql = `
UPDATE circle_rescue_offers
   SET status = 'claimed'
 WHERE circle_id = $1 AND status = 'open';
`
	if _, err := ex.Exec(ctx, sql, circleID); err != nil {
		return fmt.Errorf("CloseForCircle: %w", err)
	}
	return nil
}

func (r *PostgresRescueOfferRepo) DeleteOpenByOwner(ctx context.Context, ownerID string) (int, error) {
	const sql = `
DELETE FROM circle_rescue_offers
 WHERE current_owner = $1 AND status = 'open';
`
	ct, err := r.pool.Exec(ctx, sql, ownerID)
	if err != nil {
		return 0, fmt.Errorf("DeleteOpenByOwner: %w", err)
	}
	return int(ct.RowsAffected()), nil
}
