package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"circles-platform/internal/domain/model"
	"circles-platform/internal/domain/ports/repository"
)

// Ensure interface compliance
var _ repository.NotificationRepository = (*PostgresNotificationRepo)(nil)

type PostgresNotificationRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresNotificationRepo(pool *pgxpool.Pool) *PostgresNotificationRepo {
	return &PostgresNotificationRepo{pool: pool}
}

func (r *PostgresNotificationRepo) Save(ctx context.Context, tx repository.Tx, n *model.Notification) error {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	const sql = `
INSERT INTO notifications (id, user_id, type, title, message, related_circle_id, related_user_id, link, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
`
	if _, err := ex.Exec(ctx, sql,
		n.ID, n.UserID, string(n.Type), n.Title, n.Message,
		nullable(n.RelatedCircleID), nullable(n.RelatedUserID), nullable(n.Link), n.CreatedAt,
	); err != nil {
		return fmt.Errorf("Save notification: %w", err)
	}
	return nil
}

func (r *PostgresNotificationRepo) ListForUser(ctx context.Context, userID string, limit int) ([]*model.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	const sql = `
SELECT id, user_id, type, title, message,
       COALESCE(related_circle_id, ''), COALESCE(related_user_id, ''), COALESCE(link, ''), created_at
  FROM notifications
 WHERE user_id = $1
 ORDER BY created_at DESC
 LIMIT $2;
`
	rows, err := r.pool.Query(ctx, sql, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("ListForUser notifications: %w", err)
	}
	defer rows.Close()
	var out []*model.Notification
	for rows.Next() {
		var n model.Notification
		var typ string
		if err := rows.Scan(&n.ID, &n.UserID, &typ, &n.Title, &n.Message,
			&n.RelatedCircleID, &n.RelatedUserID, &n.Link, &n.CreatedAt); err != nil {
			return nil, err
		}
		n.Type = model.NotificationType(typ)
		out = append(out, &n)
	}
	return out, rows.Err()
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
