package model

import "time"

type NotificationType string

const (
	NotificationTypeOwnershipClaimed NotificationType = "ownership_claimed"
	NotificationTypeRescueExpired    NotificationType = "rescue_expired"
)

// Notification is an append-only record shown in a user's inbox. Created as a
// side effect of ownership claims and rescue-offer expiry.
type Notification struct {
	ID              string
	UserID          string
	Type            NotificationType
	Title           string
	Message         string
	RelatedCircleID string
	RelatedUserID   string
	Link            string
	CreatedAt       time.Time
}
