package model

import (
	"time"

	"circles-platform/internal/domain"
)

type RescueOfferStatus string

const (
	RescueOfferStatusOpen    RescueOfferStatus = "open"
	RescueOfferStatusExpired RescueOfferStatus = "expired"
	RescueOfferStatusClaimed RescueOfferStatus = "claimed"
)

// RescueOffer is a time-boxed opportunity for a circle's members to claim
// ownership after the owner's entitlement lapsed. At most one open offer
// exists per circle; terminal states are claimed and expired.
type RescueOffer struct {
	ID           string
	CircleID     string
	CurrentOwner string
	Status       RescueOfferStatus
	Deadline     time.Time
	CreatedAt    time.Time
}

// NewRescueOffer validates and constructs an open offer.
func NewRescueOffer(id, circleID, currentOwner string, deadline time.Time) (*RescueOffer, error) {
	if id == "" || circleID == "" || currentOwner == "" || deadline.IsZero() {
		return nil, domain.ErrInvalidArgument
	}
	return &RescueOffer{
		ID:           id,
		CircleID:     circleID,
		CurrentOwner: currentOwner,
		Status:       RescueOfferStatusOpen,
		Deadline:     deadline,
		CreatedAt:    time.Now(),
	}, nil
}

func (o *RescueOffer) IsExpired(now time.Time) bool {
	return o.Status == RescueOfferStatusOpen && now.After(o.Deadline)
}
