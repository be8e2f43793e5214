package relay

import (
	"encoding/json"
	"fmt"
)

// Wire events, matching what the scanning client and the admin map speak
const (
	EventJoinSession     = "joinSession"
	EventSessionJoined   = "sessionJoined"
	EventLocationUpdate  = "locationUpdate"
	EventLeaveSession    = "leaveSession"
	EventSessionExpired  = "sessionExpired"
	EventSessionExtended = "sessionExtended"
)

// Frame is the envelope for every relay message
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type JoinData struct {
	SessionID string `json:"sessionId"`
}

type JoinAck struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// LocationData is the inbound publish shape. Pointers distinguish a
// missing coordinate from zero, so malformed payloads can be dropped
// without faking a position at (0, 0).
type LocationData struct {
	SessionID string   `json:"sessionId"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// LocationBroadcast is what observers receive
type LocationBroadcast struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type ExpiredData struct {
	SessionID string `json:"sessionId"`
}

type ExtendedData struct {
	SessionID     string `json:"sessionId"`
	ExtendMinutes int    `json:"extendMinutes"`
	ExpiresAt     int64  `json:"expiresAt"` // milliseconds since epoch
}

// EncodeFrame marshals an event and its data into a wire frame
func EncodeFrame(event string, data interface{}) ([]byte, error) {
	var raw json.RawMessage
	if data != nil {
		encoded, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s data: %w", event, err)
		}
		raw = encoded
	}
	frame, err := json.Marshal(Frame{Event: event, Data: raw})
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s frame: %w", event, err)
	}
	return frame, nil
}

// DecodeFrame parses an inbound wire frame
func DecodeFrame(message []byte) (*Frame, error) {
	var frame Frame
	if err := json.Unmarshal(message, &frame); err != nil {
		return nil, fmt.Errorf("malformed frame: %w", err)
	}
	if frame.Event == "" {
		return nil, fmt.Errorf("frame missing event")
	}
	return &frame, nil
}
