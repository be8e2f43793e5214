package dto

type CreateEmergencyRequest struct {
	Cause     string `json:"cause" binding:"required"`
	StudentID string `json:"studentId"`
}

type SendSMSRequest struct {
	PhoneNumbers []string `json:"phoneNumbers" binding:"required,min=1"`
	Message      string   `json:"message" binding:"required"`
}

type CreateNotificationRequest struct {
	Title string `json:"title" binding:"required"`
	Body  string `json:"body"`
}

type MarkNotificationReadRequest struct {
	NotificationID string `json:"notificationId" binding:"required"`
}
