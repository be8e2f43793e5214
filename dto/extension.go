package dto

import "time"

type CreateExtensionRequest struct {
	StudentID       string `json:"studentId" binding:"required"`
	ExtendMinutes   *int   `json:"extendMinutes" binding:"required,gte=0"`
	PersonalMessage string `json:"personalMessage"`
}

type DecideExtensionRequest struct {
	RequestID string `json:"requestId" binding:"required"`
	Action    string `json:"action" binding:"required,oneof=approve reject"`
}

// PendingExtension is a pending request enriched with the student's
// display name for the admin list
type PendingExtension struct {
	RequestID       string    `json:"request_id"`
	StudentID       string    `json:"student_id"`
	StudentName     string    `json:"student_name"`
	ExtendMinutes   int       `json:"extend_minutes"`
	PersonalMessage string    `json:"personal_message,omitempty"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
}
