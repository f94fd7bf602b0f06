package repository

import "context"

// SelectedCircleStore keeps each user's currently selected circle. Backed by
// a TTL'd key/value store; an empty result means no selection.
type SelectedCircleStore interface {
	SetSelected(ctx context.Context, userID, circleID string) error
	GetSelected(ctx context.Context, userID string) (string, error)
	ClearSelected(ctx context.Context, userID string) error
}
