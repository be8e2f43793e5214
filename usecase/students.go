package usecase

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"safemove/model"
	"safemove/utils"
)

// StudentStore is the full students repository surface
type StudentStore interface {
	CreateStudent(ctx context.Context, student *model.Student) error
	FindStudent(ctx context.Context, studentID string) (*model.Student, error)
	SearchStudents(ctx context.Context, nameQuery string) ([]*model.Student, error)
	UpdateStatus(ctx context.Context, studentID, status string) (bool, error)
	UpdateLocation(ctx context.Context, studentID string, latitude, longitude float64, at time.Time) (bool, error)
	DeleteStudent(ctx context.Context, studentID string) (bool, error)
}

// LocationCache mirrors last-known positions for quick map seeding
type LocationCache interface {
	SetLastLocation(studentID string, latitude, longitude float64) error
}

type StudentService struct {
	Students StudentStore
	Cache    LocationCache // optional
}

func (s *StudentService) CreateStudent(ctx context.Context, name, phone, image, status string) (*model.Student, error) {
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)
	if name == "" || phone == "" {
		return nil, errors.New("name and phone are required")
	}
	if status == "" {
		status = model.StatusInsideHostel
	}
	if !model.ValidStudentStatus(status) {
		return nil, errors.New("invalid student status")
	}

	student := &model.Student{
		StudentID: utils.GenerateID(),
		Name:      name,
		Phone:     phone,
		Image:     image,
		Status:    status,
		CreatedAt: time.Now(),
	}
	if err := s.Students.CreateStudent(ctx, student); err != nil {
		return nil, err
	}
	return student, nil
}

func (s *StudentService) SearchStudents(ctx context.Context, nameQuery string) ([]*model.Student, error) {
	return s.Students.SearchStudents(ctx, strings.TrimSpace(nameQuery))
}

func (s *StudentService) GetStudent(ctx context.Context, studentID string) (*model.Student, error) {
	if studentID == "" {
		return nil, errors.New("student ID is required")
	}
	student, err := s.Students.FindStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, ErrStudentNotFound
	}
	return student, nil
}

func (s *StudentService) SetStatus(ctx context.Context, studentID, status string) error {
	if !model.ValidStudentStatus(status) {
		return errors.New("invalid student status")
	}
	matched, err := s.Students.UpdateStatus(ctx, studentID, status)
	if err != nil {
		return err
	}
	if !matched {
		return ErrStudentNotFound
	}
	return nil
}

// RecordLocation persists the last-known position and mirrors it into the
// cache. This is the collaborator store the live relay deliberately does
// not replace: map markers seed from here before the first update arrives.
func (s *StudentService) RecordLocation(ctx context.Context, studentID string, latitude, longitude float64) error {
	if !utils.ValidateCoordinates(latitude, longitude) {
		return errors.New("latitude and longitude must be finite coordinates")
	}

	matched, err := s.Students.UpdateLocation(ctx, studentID, latitude, longitude, time.Now())
	if err != nil {
		return err
	}
	if !matched {
		return ErrStudentNotFound
	}

	if s.Cache != nil {
		if err := s.Cache.SetLastLocation(studentID, latitude, longitude); err != nil {
			// Cache is advisory; the database write already landed.
			log.Printf("Warning: failed to cache location for student %s: %v", studentID, err)
			utils.TrackError("cache", "location_cache_set_failed")
		}
	}
	return nil
}

func (s *StudentService) DeleteStudent(ctx context.Context, studentID string) error {
	deleted, err := s.Students.DeleteStudent(ctx, studentID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrStudentNotFound
	}
	return nil
}
