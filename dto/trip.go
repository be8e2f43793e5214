package dto

import "safemove/model"

type PlanTripRequest struct {
	StudentID     string  `json:"studentId" binding:"required"`
	DurationHours float64 `json:"durationHours" binding:"required,gt=0"`
}

type PlanTripResponse struct {
	Session   *model.TripSession `json:"session"`
	Payload   string             `json:"payload"`
	QRCode    string             `json:"qrCode"`    // base64-encoded PNG
	ExpiresAt int64              `json:"expiresAt"` // milliseconds since epoch
}

type DecodePayloadRequest struct {
	Payload string `json:"payload" binding:"required"`
}

type DecodePayloadResponse struct {
	Session   *model.TripSession `json:"session"`
	ExpiresAt int64              `json:"expiresAt"`
	Remaining string             `json:"remaining"`
	Expired   bool               `json:"expired"`
}
