package model

import "time"

type Notification struct {
	NotificationID string    `bson:"notification_id" json:"notification_id"`
	Title          string    `bson:"title" json:"title"`
	Body           string    `bson:"body,omitempty" json:"body,omitempty"`
	Read           bool      `bson:"read" json:"read"`
	CreatedAt      time.Time `bson:"created_at" json:"created_at"`
}
