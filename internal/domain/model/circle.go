package model

import (
	"time"

	"circles-platform/internal/domain"
)

// CircleState is the derived lifecycle tag for a circle. The underlying
// storage keeps independent flags (transfer_block, an open rescue offer, the
// plan-vs-quota comparison); the tag collapses them with a fixed priority so
// callers reason about one state instead of flag combinations.
type CircleState string

const (
	CircleStateActive          CircleState = "active"
	CircleStateReadOnly        CircleState = "read_only"
	CircleStateTransferBlocked CircleState = "transfer_blocked"
	CircleStateRescuePending   CircleState = "rescue_pending"
)

// Circle is a private group with a shared feed and exactly one owner.
type Circle struct {
	ID            string
	Name          string
	OwnerID       string
	ExtraMembers  int
	TransferBlock bool
	CreatedAt     time.Time
}

func (c *Circle) IsZero() bool { return c == nil || c.ID == "" }

// NewCircle validates and constructs a circle.
func NewCircle(id, name, ownerID string) (*Circle, error) {
	if id == "" || name == "" || ownerID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &Circle{
		ID:        id,
		Name:      name,
		OwnerID:   ownerID,
		CreatedAt: time.Now(),
	}, nil
}

// State derives the lifecycle tag. Transfer-block conditions take priority
// over read-only: a blocked circle needs a new owner before write access is
// even a question.
func (c *Circle) State(hasOpenOffer, readOnly bool) CircleState {
	switch {
	case c.TransferBlock && hasOpenOffer:
		return CircleStateRescuePending
	case c.TransferBlock:
		return CircleStateTransferBlocked
	case readOnly:
		return CircleStateReadOnly
	default:
		return CircleStateActive
	}
}
