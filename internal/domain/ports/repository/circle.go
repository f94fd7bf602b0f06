package repository

import (
	"context"

	"circles-platform/internal/domain/model"
)

type CircleRepository interface {
	Save(ctx context.Context, tx Tx, circle *model.Circle) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Circle, error)
	// ListOwned returns circles where owner_id = userID.
	ListOwned(ctx context.Context, userID string) ([]*model.Circle, error)
	// ListMemberships returns circles the user belongs to as a member.
	ListMemberships(ctx context.Context, userID string) ([]*model.Circle, error)
	// CountOwned counts circles owned by the user, for quota checks.
	CountOwned(ctx context.Context, tx Tx, userID string) (int, error)
	// CountOccupiedSeats counts members plus one for the owner.
	CountOccupiedSeats(ctx context.Context, circleID string) (int, error)
	// ReassignOwner swaps owner_id and clears transfer_block. The conditional
	// write only succeeds while the block is still set, so a racing claim
	// observes zero rows affected.
	ReassignOwner(ctx context.Context, tx Tx, circleID, newOwnerID string) (bool, error)
	// AddExtraMembers increments the circle's extra_members count.
	AddExtraMembers(ctx context.Context, circleID string, count int) error
}
