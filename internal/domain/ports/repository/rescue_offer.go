package repository

import (
	"context"
	"time"

	"circles-platform/internal/domain/model"
)

type RescueOfferRepository interface {
	Save(ctx context.Context, tx Tx, offer *model.RescueOffer) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.RescueOffer, error)
	// FindOpenByCircle returns the open offer for a circle, ErrNotFound if none.
	FindOpenByCircle(ctx context.Context, tx Tx, circleID string) (*model.RescueOffer, error)
	// ListOpenPastDeadline selects offers with status = open and deadline < now.
	// Re-running it after a partial sweep re-selects only untouched rows.
	ListOpenPastDeadline(ctx context.Context, now time.Time) ([]*model.RescueOffer, error)
	// MarkExpired flips a single open offer to expired; reports whether the
	// row was still open.
	MarkExpired(ctx context.Context, offerID string) (bool, error)
	// CloseForCircle marks any open offer on the circle as claimed.
	CloseForCircle(ctx context.Context, tx Tx, circleID string) error
	// DeleteOpenByOwner removes all open offers created for a given owner's
	// circles, used when the owner restores their entitlement.
	DeleteOpenByOwner(ctx context.Context, ownerID string) (int, error)
}
