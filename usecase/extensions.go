package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"safemove/dto"
	"safemove/model"
	"safemove/utils"
)

var (
	ErrExtensionNotFound = errors.New("extension request not found")
	ErrExtensionDecided  = errors.New("extension request already decided")
)

// ExtensionStore is the persistence surface the workflow needs; the mongo
// repository satisfies it, tests use an in-memory fake
type ExtensionStore interface {
	CreateRequest(ctx context.Context, request *model.ExtensionRequest) error
	FindRequest(ctx context.Context, requestID string) (*model.ExtensionRequest, error)
	ListByStatus(ctx context.Context, status string) ([]*model.ExtensionRequest, error)
	TransitionStatus(ctx context.Context, requestID, from, to string) (bool, error)
}

// StudentDirectory resolves subject ids to display names for the admin list
type StudentDirectory interface {
	FindStudent(ctx context.Context, studentID string) (*model.Student, error)
}

// SessionExtender is how an approval reaches the live countdown. The
// workflow signals it and moves on; actually moving the deadline is the
// relay's business.
type SessionExtender interface {
	ExtendSession(sessionID string, extendMinutes int) bool
}

// TripSessionLookup maps a student to their active session token
type TripSessionLookup interface {
	ActiveSessionID(studentID string) (string, error)
	ExtendSession(studentID, sessionID string, extendMinutes int) error
}

type ExtensionService struct {
	Extensions ExtensionStore
	Students   StudentDirectory
	Sessions   SessionExtender   // optional: nil means no live relay
	TripCache  TripSessionLookup // optional
}

// RequestExtension records a pending request and returns its id. Repeated
// requests from the same student stack up as independent records.
func (s *ExtensionService) RequestExtension(ctx context.Context, studentID string, extendMinutes int, personalMessage string) (string, error) {
	studentID = strings.TrimSpace(studentID)
	if studentID == "" {
		return "", errors.New("student ID is required")
	}
	if extendMinutes < 0 {
		return "", errors.New("extend minutes cannot be negative")
	}

	request := &model.ExtensionRequest{
		RequestID:       utils.GenerateID(),
		StudentID:       studentID,
		ExtendMinutes:   extendMinutes,
		PersonalMessage: strings.TrimSpace(personalMessage),
		Status:          model.ExtensionPending,
		CreatedAt:       time.Now(),
	}

	if err := s.Extensions.CreateRequest(ctx, request); err != nil {
		return "", err
	}

	utils.TrackExtensionOperation("create")
	return request.RequestID, nil
}

// ListPending returns every pending request enriched with the student's
// display name, newest first
func (s *ExtensionService) ListPending(ctx context.Context) ([]*dto.PendingExtension, error) {
	requests, err := s.Extensions.ListByStatus(ctx, model.ExtensionPending)
	if err != nil {
		return nil, err
	}

	pending := make([]*dto.PendingExtension, 0, len(requests))
	for _, request := range requests {
		name := ""
		if s.Students != nil {
			student, err := s.Students.FindStudent(ctx, request.StudentID)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve student %s: %w", request.StudentID, err)
			}
			if student != nil {
				name = student.Name
			}
		}
		pending = append(pending, &dto.PendingExtension{
			RequestID:       request.RequestID,
			StudentID:       request.StudentID,
			StudentName:     name,
			ExtendMinutes:   request.ExtendMinutes,
			PersonalMessage: request.PersonalMessage,
			Status:          request.Status,
			CreatedAt:       request.CreatedAt,
		})
	}
	return pending, nil
}

// Decide moves exactly one pending request to approved or rejected. A
// request already in a terminal state is reported as an error and left
// untouched. On approval the live session, if any, is told to extend;
// a student with no live session still gets the approval on record.
func (s *ExtensionService) Decide(ctx context.Context, requestID, action string) error {
	var target string
	switch action {
	case "approve":
		target = model.ExtensionApproved
	case "reject":
		target = model.ExtensionRejected
	default:
		return fmt.Errorf("invalid action %q: must be approve or reject", action)
	}

	request, err := s.Extensions.FindRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if request == nil {
		return ErrExtensionNotFound
	}

	moved, err := s.Extensions.TransitionStatus(ctx, requestID, model.ExtensionPending, target)
	if err != nil {
		return err
	}
	if !moved {
		// Lost the race or the record was already decided; either way the
		// stored status stands.
		return ErrExtensionDecided
	}

	utils.TrackExtensionOperation(action)

	if target == model.ExtensionApproved {
		s.extendLiveSession(request.StudentID, request.ExtendMinutes)
	}
	return nil
}

func (s *ExtensionService) extendLiveSession(studentID string, extendMinutes int) {
	if s.TripCache == nil {
		return
	}
	sessionID, err := s.TripCache.ActiveSessionID(studentID)
	if err != nil {
		log.Printf("Extension: active session lookup failed for student %s: %v", studentID, err)
		utils.TrackError("extension", "session_lookup_failed")
		return
	}
	if sessionID == "" {
		log.Printf("Extension: student %s has no active session, approval recorded only", studentID)
		return
	}

	if s.Sessions != nil {
		if !s.Sessions.ExtendSession(sessionID, extendMinutes) {
			log.Printf("Extension: session %s not live in relay, approval recorded only", sessionID)
		}
	}
	if err := s.TripCache.ExtendSession(studentID, sessionID, extendMinutes); err != nil {
		log.Printf("Extension: failed to extend cached session %s: %v", sessionID, err)
		utils.TrackError("extension", "cache_extend_failed")
	}
}
