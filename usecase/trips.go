package usecase

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"time"

	"safemove/config"
	"safemove/dto"
	"safemove/model"
	"safemove/utils"

	qrcode "github.com/skip2/go-qrcode"
)

var ErrStudentNotFound = errors.New("student not found")

// TripStudentStore is the slice of the students repository trip planning
// touches
type TripStudentStore interface {
	FindStudent(ctx context.Context, studentID string) (*model.Student, error)
	UpdateStatus(ctx context.Context, studentID, status string) (bool, error)
}

// TripSessionCache receives the minted session so the relay and the
// extension workflow can find it later
type TripSessionCache interface {
	SetActiveSession(studentID string, session *model.TripSession) error
	ClearActiveSession(studentID string) error
}

type TripService struct {
	Config   config.TripConfig
	Students TripStudentStore
	Cache    TripSessionCache // optional

	// Now is swappable for tests
	Now func() time.Time
}

func (s *TripService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// ClampDuration snaps an allotted duration onto the configured step grid
// and clamps it into [min, max]. This is the planning-time control behind
// the admin's increment/decrement buttons.
func (s *TripService) ClampDuration(hours float64) float64 {
	step := s.Config.DurationStepHours
	if step > 0 {
		hours = math.Round(hours/step) * step
	}
	if hours < s.Config.MinDurationHours {
		hours = s.Config.MinDurationHours
	}
	if hours > s.Config.MaxDurationHours {
		hours = s.Config.MaxDurationHours
	}
	return hours
}

// StepDuration moves an allotted duration by whole steps, clamped
func (s *TripService) StepDuration(hours float64, steps int) float64 {
	return s.ClampDuration(hours + float64(steps)*s.Config.DurationStepHours)
}

// PlanTrip mints a session for a student, renders its QR payload, marks the
// student out, and caches the session for the relay
func (s *TripService) PlanTrip(ctx context.Context, studentID string, durationHours float64) (*dto.PlanTripResponse, error) {
	if studentID == "" {
		return nil, errors.New("student ID is required")
	}
	if durationHours <= 0 {
		return nil, errors.New("duration must be positive")
	}

	student, err := s.Students.FindStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, ErrStudentNotFound
	}

	session := &model.TripSession{
		Content:       utils.GenerateSessionToken(),
		DurationHours: s.ClampDuration(durationHours),
		CreatedAt:     s.now().UnixMilli(),
	}

	payload, err := session.Encode()
	if err != nil {
		return nil, err
	}

	png, err := qrcode.Encode(payload, qrcode.Medium, s.Config.QRSize)
	if err != nil {
		return nil, fmt.Errorf("failed to render session QR code: %w", err)
	}

	if _, err := s.Students.UpdateStatus(ctx, studentID, model.StatusOnTrip); err != nil {
		return nil, err
	}

	if s.Cache != nil {
		if err := s.Cache.SetActiveSession(studentID, session); err != nil {
			return nil, fmt.Errorf("failed to cache active session: %w", err)
		}
	}

	return &dto.PlanTripResponse{
		Session:   session,
		Payload:   payload,
		QRCode:    base64.StdEncoding.EncodeToString(png),
		ExpiresAt: session.ExpiresAt().UnixMilli(),
	}, nil
}

// DecodePayload parses a scanned QR payload and reports where its countdown
// stands right now
func (s *TripService) DecodePayload(payload string) (*dto.DecodePayloadResponse, error) {
	session, err := model.DecodeTripSession(payload)
	if err != nil {
		return nil, err
	}

	now := s.now()
	return &dto.DecodePayloadResponse{
		Session:   session,
		ExpiresAt: session.ExpiresAt().UnixMilli(),
		Remaining: model.FormatRemaining(session.Remaining(now)),
		Expired:   session.Expired(now),
	}, nil
}

// EndTrip brings a student back inside and clears their trip state
func (s *TripService) EndTrip(ctx context.Context, studentID string) error {
	matched, err := s.Students.UpdateStatus(ctx, studentID, model.StatusInsideHostel)
	if err != nil {
		return err
	}
	if !matched {
		return ErrStudentNotFound
	}
	if s.Cache != nil {
		if err := s.Cache.ClearActiveSession(studentID); err != nil {
			return fmt.Errorf("failed to clear trip cache: %w", err)
		}
	}
	return nil
}
