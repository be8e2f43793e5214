package model

import "time"

const (
	ExtensionPending  = "pending"
	ExtensionApproved = "approved"
	ExtensionRejected = "rejected"
)

// ExtensionRequest asks for extra minutes on an active trip session.
// Once approved or rejected a record never changes again; terminal
// states are kept as history.
type ExtensionRequest struct {
	RequestID       string    `bson:"request_id" json:"request_id"`
	StudentID       string    `bson:"student_id" json:"student_id"`
	ExtendMinutes   int       `bson:"extend_minutes" json:"extend_minutes"`
	PersonalMessage string    `bson:"personal_message,omitempty" json:"personal_message,omitempty"`
	Status          string    `bson:"status" json:"status"`
	CreatedAt       time.Time `bson:"created_at" json:"created_at"`
}

func (r *ExtensionRequest) Terminal() bool {
	return r.Status == ExtensionApproved || r.Status == ExtensionRejected
}
