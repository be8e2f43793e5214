package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// TripSession is the payload embedded in a trip QR code. It is the only
// representation of a session: nothing is stored server-side beyond the
// cache entry written when the trip is planned.
type TripSession struct {
	Content       string  `json:"content" bson:"content"`
	DurationHours float64 `json:"durationHours" bson:"duration_hours"`
	CreatedAt     int64   `json:"createdAt" bson:"created_at"` // milliseconds since epoch
}

func (s *TripSession) Validate() error {
	if s.Content == "" {
		return fmt.Errorf("session content cannot be empty")
	}
	if s.DurationHours <= 0 {
		return fmt.Errorf("session duration must be positive")
	}
	if s.CreatedAt <= 0 {
		return fmt.Errorf("session creation timestamp must be positive")
	}
	return nil
}

// ExpiresAt is createdAt + durationHours * 3600 * 1000, in wall-clock time
func (s *TripSession) ExpiresAt() time.Time {
	expiryMs := s.CreatedAt + int64(s.DurationHours*3600*1000)
	return time.UnixMilli(expiryMs)
}

// Remaining is a pure function of wall-clock time, never negative
func (s *TripSession) Remaining(now time.Time) time.Duration {
	remaining := s.ExpiresAt().Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (s *TripSession) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt())
}

// Encode serializes the session to the compact JSON text a QR code carries
func (s *TripSession) Encode() (string, error) {
	if err := s.Validate(); err != nil {
		return "", err
	}
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("failed to encode session payload: %w", err)
	}
	return string(data), nil
}

// DecodeTripSession parses a scanned QR payload back into a session
func DecodeTripSession(payload string) (*TripSession, error) {
	var session TripSession
	if err := json.Unmarshal([]byte(payload), &session); err != nil {
		return nil, fmt.Errorf("failed to decode session payload: %w", err)
	}
	if err := session.Validate(); err != nil {
		return nil, err
	}
	return &session, nil
}

// FormatRemaining renders a countdown as HH:MM:SS for display
func FormatRemaining(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d.Seconds())
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}
