package usecase

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"safemove/config"
	"safemove/model"
)

type fakeTripStudents struct {
	students map[string]*model.Student
	statuses map[string]string
}

func newFakeTripStudents(ids ...string) *fakeTripStudents {
	f := &fakeTripStudents{
		students: make(map[string]*model.Student),
		statuses: make(map[string]string),
	}
	for _, id := range ids {
		f.students[id] = &model.Student{StudentID: id, Name: "Student " + id, Status: model.StatusInsideHostel}
	}
	return f
}

func (f *fakeTripStudents) FindStudent(ctx context.Context, studentID string) (*model.Student, error) {
	return f.students[studentID], nil
}

func (f *fakeTripStudents) UpdateStatus(ctx context.Context, studentID, status string) (bool, error) {
	if _, ok := f.students[studentID]; !ok {
		return false, nil
	}
	f.statuses[studentID] = status
	return true, nil
}

type fakeTripSessionCache struct {
	sessions map[string]*model.TripSession
	failSet  error
}

func (f *fakeTripSessionCache) SetActiveSession(studentID string, session *model.TripSession) error {
	if f.failSet != nil {
		return f.failSet
	}
	if f.sessions == nil {
		f.sessions = make(map[string]*model.TripSession)
	}
	f.sessions[studentID] = session
	return nil
}

func (f *fakeTripSessionCache) ClearActiveSession(studentID string) error {
	delete(f.sessions, studentID)
	return nil
}

func newTripService(students *fakeTripStudents, cache *fakeTripSessionCache) *TripService {
	service := &TripService{
		Config: config.TripConfig{
			MinDurationHours:  0.5,
			MaxDurationHours:  24,
			DurationStepHours: 0.5,
			QRSize:            256,
		},
		Students: students,
		Now:      func() time.Time { return time.UnixMilli(1700000000000) },
	}
	if cache != nil {
		service.Cache = cache
	}
	return service
}

func TestClampDuration(t *testing.T) {
	service := newTripService(newFakeTripStudents(), nil)

	tests := []struct {
		name  string
		hours float64
		want  float64
	}{
		{"on grid", 2, 2},
		{"rounds to nearest step", 1.7, 1.5},
		{"rounds up past midpoint", 1.8, 2},
		{"below minimum", 0.1, 0.5},
		{"zero", 0, 0.5},
		{"above maximum", 48, 24},
		{"negative", -3, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := service.ClampDuration(tt.hours); got != tt.want {
				t.Errorf("ClampDuration(%v) = %v, want %v", tt.hours, got, tt.want)
			}
		})
	}
}

func TestStepDuration(t *testing.T) {
	service := newTripService(newFakeTripStudents(), nil)

	if got := service.StepDuration(2, 1); got != 2.5 {
		t.Errorf("Expected 2.5, got %v", got)
	}
	if got := service.StepDuration(2, -1); got != 1.5 {
		t.Errorf("Expected 1.5, got %v", got)
	}
	if got := service.StepDuration(0.5, -1); got != 0.5 {
		t.Errorf("Expected clamp at minimum, got %v", got)
	}
	if got := service.StepDuration(24, 1); got != 24 {
		t.Errorf("Expected clamp at maximum, got %v", got)
	}
}

func TestPlanTripMintsSession(t *testing.T) {
	students := newFakeTripStudents("stu-7")
	cache := &fakeTripSessionCache{}
	service := newTripService(students, cache)

	resp, err := service.PlanTrip(context.Background(), "stu-7", 2)
	if err != nil {
		t.Fatalf("Failed to plan trip: %v", err)
	}

	if resp.Session.Content == "" {
		t.Error("Expected a minted session token")
	}
	if resp.Session.DurationHours != 2 {
		t.Errorf("Expected 2 hours, got %v", resp.Session.DurationHours)
	}
	if resp.Session.CreatedAt != 1700000000000 {
		t.Errorf("Expected creation at the injected clock, got %d", resp.Session.CreatedAt)
	}
	wantExpiry := int64(1700000000000 + 2*3600*1000)
	if resp.ExpiresAt != wantExpiry {
		t.Errorf("Expected expiry %d, got %d", wantExpiry, resp.ExpiresAt)
	}

	// The payload must round-trip back to the same session
	decoded, err := model.DecodeTripSession(resp.Payload)
	if err != nil {
		t.Fatalf("Payload does not decode: %v", err)
	}
	if decoded.Content != resp.Session.Content || decoded.CreatedAt != resp.Session.CreatedAt {
		t.Errorf("Decoded payload differs: %+v vs %+v", decoded, resp.Session)
	}

	png, err := base64.StdEncoding.DecodeString(resp.QRCode)
	if err != nil {
		t.Fatalf("QR code is not valid base64: %v", err)
	}
	if len(png) == 0 {
		t.Error("Expected a non-empty QR PNG")
	}

	if students.statuses["stu-7"] != model.StatusOnTrip {
		t.Errorf("Expected student marked %s, got %q", model.StatusOnTrip, students.statuses["stu-7"])
	}
	if cache.sessions["stu-7"] == nil || cache.sessions["stu-7"].Content != resp.Session.Content {
		t.Error("Expected minted session cached under the student")
	}
}

func TestPlanTripClampsDuration(t *testing.T) {
	service := newTripService(newFakeTripStudents("stu-7"), nil)

	resp, err := service.PlanTrip(context.Background(), "stu-7", 99)
	if err != nil {
		t.Fatalf("Failed to plan trip: %v", err)
	}
	if resp.Session.DurationHours != 24 {
		t.Errorf("Expected clamp to 24 hours, got %v", resp.Session.DurationHours)
	}
}

func TestPlanTripValidation(t *testing.T) {
	service := newTripService(newFakeTripStudents("stu-7"), nil)

	if _, err := service.PlanTrip(context.Background(), "", 2); err == nil {
		t.Error("Expected error for blank student id")
	}
	if _, err := service.PlanTrip(context.Background(), "stu-7", 0); err == nil {
		t.Error("Expected error for zero duration")
	}
	if _, err := service.PlanTrip(context.Background(), "stu-missing", 2); !errors.Is(err, ErrStudentNotFound) {
		t.Errorf("Expected ErrStudentNotFound, got %v", err)
	}
}

func TestDecodePayload(t *testing.T) {
	service := newTripService(newFakeTripStudents(), nil)

	session := &model.TripSession{
		Content:       "sess-abc",
		DurationHours: 1,
		CreatedAt:     1700000000000 - 30*60*1000, // planned 30 minutes ago
	}
	payload, err := session.Encode()
	if err != nil {
		t.Fatalf("Failed to encode session: %v", err)
	}

	resp, err := service.DecodePayload(payload)
	if err != nil {
		t.Fatalf("Failed to decode payload: %v", err)
	}
	if resp.Expired {
		t.Error("Expected the session to still be running")
	}
	if resp.Remaining != "00:30:00" {
		t.Errorf("Expected 00:30:00 remaining, got %s", resp.Remaining)
	}
	if resp.ExpiresAt != session.ExpiresAt().UnixMilli() {
		t.Errorf("Expected expiry %d, got %d", session.ExpiresAt().UnixMilli(), resp.ExpiresAt)
	}
}

func TestDecodePayloadExpired(t *testing.T) {
	service := newTripService(newFakeTripStudents(), nil)

	session := &model.TripSession{
		Content:       "sess-old",
		DurationHours: 1,
		CreatedAt:     1700000000000 - 2*3600*1000,
	}
	payload, _ := session.Encode()

	resp, err := service.DecodePayload(payload)
	if err != nil {
		t.Fatalf("Failed to decode payload: %v", err)
	}
	if !resp.Expired {
		t.Error("Expected the session to be expired")
	}
	if resp.Remaining != "00:00:00" {
		t.Errorf("Expected zeroed countdown, got %s", resp.Remaining)
	}
}

func TestDecodePayloadRejectsGarbage(t *testing.T) {
	service := newTripService(newFakeTripStudents(), nil)

	for _, payload := range []string{"", "not json", `{"content":""}`} {
		if _, err := service.DecodePayload(payload); err == nil {
			t.Errorf("Expected decode error for %q", payload)
		}
	}
}

func TestEndTrip(t *testing.T) {
	students := newFakeTripStudents("stu-7")
	cache := &fakeTripSessionCache{}
	service := newTripService(students, cache)

	if _, err := service.PlanTrip(context.Background(), "stu-7", 2); err != nil {
		t.Fatalf("Failed to plan trip: %v", err)
	}
	if err := service.EndTrip(context.Background(), "stu-7"); err != nil {
		t.Fatalf("Failed to end trip: %v", err)
	}
	if students.statuses["stu-7"] != model.StatusInsideHostel {
		t.Errorf("Expected student back %s, got %q", model.StatusInsideHostel, students.statuses["stu-7"])
	}
	if cache.sessions["stu-7"] != nil {
		t.Error("Expected cached session cleared")
	}

	if err := service.EndTrip(context.Background(), "stu-missing"); !errors.Is(err, ErrStudentNotFound) {
		t.Errorf("Expected ErrStudentNotFound, got %v", err)
	}
}
