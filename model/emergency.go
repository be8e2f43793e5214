package model

import "time"

// Emergency records a panic action taken from the user page
// ("Call Hostel", "Call Police", "Emergency")
type Emergency struct {
	EmergencyID string    `bson:"emergency_id" json:"emergency_id"`
	StudentID   string    `bson:"student_id,omitempty" json:"student_id,omitempty"`
	Cause       string    `bson:"cause" json:"cause"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
}
