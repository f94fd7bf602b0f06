package repository

import (
	"context"

	"circles-platform/internal/domain/model"
)

type NotificationRepository interface {
	// Save appends a notification; rows are never updated or deleted.
	Save(ctx context.Context, tx Tx, n *model.Notification) error
	ListForUser(ctx context.Context, userID string, limit int) ([]*model.Notification, error)
}
