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
var _ repository.CircleRepository = (*PostgresCircleRepo)(nil)

type PostgresCircleRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresCircleRepo(pool *pgxpool.Pool) *PostgresCircleRepo {
	return &PostgresCircleRepo{pool: pool}
}

func (r *PostgresCircleRepo) Save(ctx context.Context, tx repository.Tx, circle *model.Circle) error {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	const sql = `
INSERT INTO circles (id, name, owner_id, extra_members, transfer_block, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO UPDATE
  SET name           = EXCLUDED.name,
      owner_id       = EXCLUDED.owner_id,
      extra_members  = EXCLUDED.extra_members,
      transfer_block = EXCLUDED.transfer_block;
`
	if _, err := ex.Exec(ctx, sql,
		circle.ID, circle.Name, circle.OwnerID, circle.ExtraMembers, circle.TransferBlock, circle.CreatedAt,
	); err != nil {
		return fmt.Errorf("Save circle: %w", err)
	}
	return nil
}

func (r *PostgresCircleRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Circle, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	const sql = `
SELECT id, name, owner_id, extra_members, transfer_block, created_at
  FROM circles
 WHERE id = $1;
`
	var c model.Circle
	if err := ex.QueryRow(ctx, sql, id).Scan(
		&c.ID, &c.Name, &c.OwnerID, &c.ExtraMembers, &c.TransferBlock, &c.CreatedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("FindByID circle: %w", err)
	}
	return &c, nil
}

func (r *PostgresCircleRepo) ListOwned(ctx context.Context, userID string) ([]*model.Circle, error) {
	const sql = `
SELECT id, name, owner_id, extra_members, transfer_block, created_at
  FROM circles
 WHERE owner_id = $1;
`
	return r.queryCircles(ctx, sql, userID)
}

func (r *PostgresCircleRepo) ListMemberships(ctx context.Context, userID string) ([]*model.Circle, error) {
	const sql = `
SELECT c.id, c.name, c.owner_id, c.extra_members, c.transfer_block, c.created_at
  FROM circles c
  JOIN circle_members m ON m.circle_id = c.id
 WHERE m.user_id = $1;
`
	return r.queryCircles(ctx, sql, userID)
}

func (r *PostgresCircleRepo) queryCircles(ctx context.Context, sql, userID string) ([]*model.Circle, error) {
	rows, err := r.pool.Query(ctx, sql, userID)
	if err != nil {
		return nil, fmt.Errorf("list circles: %w", err)
	}
	defer rows.Close()
	var out []*model.Circle
	for rows.Next() {
		var c model.Circle
		if err := rows.Scan(&c.ID, &c.Name, &c.OwnerID, &c.ExtraMembers, &c.TransferBlock, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

func (r *PostgresCircleRepo) CountOwned(ctx context.Context, tx repository.Tx, userID string) (int, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return 0, err
	}
	const sql = `SELECT COUNT(1) FROM circles WHERE owner_id = $1;`
	var cnt int
	if err := ex.QueryRow(ctx, sql, userID).Scan(&cnt); err != nil {
		return 0, fmt.Errorf("CountOwned: %w", err)
	}
	return cnt, nil
}

func (r *PostgresCircleRepo) CountOccupiedSeats(ctx context.Context, circleID string) (int, error) {
	// Members plus one seat for the owner.
	const sql = `
SELECT COUNT(1) + 1
  FROM circle_members
 WHERE circle_id = $1;
`
	var cnt int
	if err := r.pool.QueryRow(ctx, sql, circleID).Scan(&cnt); err != nil {
		return 0, fmt.Errorf("CountOccupiedSeats: %w", err)
	}
	return cnt, nil
}

func (r *PostgresCircleRepo) ReassignOwner(ctx context.Context, tx repository.Tx, circleID, newOwnerID string) (bool, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return false, err
	}
	// Conditional on the block still being set so exactly one claim wins.
	const sql = `
UPDATE circles
   SET owner_id = $2, transfer_block = false
 WHERE id = $1 AND transfer_block = true;
`
	ct, err := ex.Exec(ctx, sql, circleID, newOwnerID)
	if err != nil {
		return false, fmt.Errorf("ReassignOwner: %w", err)
	}
	return ct.RowsAffected() == 1, nil
}

func (r *PostgresCircleRepo) AddExtraMembers(ctx context.Context, circleID string, count int) error {
	const sql = `
UPDATE circles
   SET extra_members = extra_members + $2
 WHERE id = $1;
`
	ct, err := r.pool.Exec(ctx, sql, circleID, count)
	if err != nil {
		return fmt.Errorf("AddExtraMembers: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
