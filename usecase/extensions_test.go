package usecase

import (
	"context"
	"errors"
	"testing"

	"safemove/model"
)

type fakeExtensionStore struct {
	requests map[string]*model.ExtensionRequest
	order    []string
	failWith error
}

func newFakeExtensionStore() *fakeExtensionStore {
	return &fakeExtensionStore{requests: make(map[string]*model.ExtensionRequest)}
}

func (f *fakeExtensionStore) CreateRequest(ctx context.Context, request *model.ExtensionRequest) error {
	if f.failWith != nil {
		return f.failWith
	}
	stored := *request
	f.requests[request.RequestID] = &stored
	f.order = append(f.order, request.RequestID)
	return nil
}

func (f *fakeExtensionStore) FindRequest(ctx context.Context, requestID string) (*model.ExtensionRequest, error) {
	request, ok := f.requests[requestID]
	if !ok {
		return nil, nil
	}
	found := *request
	return &found, nil
}

func (f *fakeExtensionStore) ListByStatus(ctx context.Context, status string) ([]*model.ExtensionRequest, error) {
	var matched []*model.ExtensionRequest
	for i := len(f.order) - 1; i >= 0; i-- {
		request := f.requests[f.order[i]]
		if request.Status == status {
			found := *request
			matched = append(matched, &found)
		}
	}
	return matched, nil
}

func (f *fakeExtensionStore) TransitionStatus(ctx context.Context, requestID, from, to string) (bool, error) {
	request, ok := f.requests[requestID]
	if !ok || request.Status != from {
		return false, nil
	}
	request.Status = to
	return true, nil
}

type fakeDirectory struct {
	students map[string]*model.Student
}

func (f *fakeDirectory) FindStudent(ctx context.Context, studentID string) (*model.Student, error) {
	return f.students[studentID], nil
}

type recordingExtender struct {
	sessionID string
	minutes   int
	calls     int
	live      bool
}

func (r *recordingExtender) ExtendSession(sessionID string, extendMinutes int) bool {
	r.sessionID = sessionID
	r.minutes = extendMinutes
	r.calls++
	return r.live
}

type fakeSessionLookup struct {
	active   map[string]string
	extended map[string]int
}

func (f *fakeSessionLookup) ActiveSessionID(studentID string) (string, error) {
	return f.active[studentID], nil
}

func (f *fakeSessionLookup) ExtendSession(studentID, sessionID string, extendMinutes int) error {
	if f.extended == nil {
		f.extended = make(map[string]int)
	}
	f.extended[sessionID] += extendMinutes
	return nil
}

func TestRequestExtensionCreatesPendingRecord(t *testing.T) {
	store := newFakeExtensionStore()
	service := &ExtensionService{Extensions: store}

	requestID, err := service.RequestExtension(context.Background(), "stu-7", 15, "running late")
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}
	if requestID == "" {
		t.Fatal("Expected a non-empty request id")
	}

	pending, err := service.ListPending(context.Background())
	if err != nil {
		t.Fatalf("Failed to list pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("Expected 1 pending request, got %d", len(pending))
	}
	got := pending[0]
	if got.StudentID != "stu-7" || got.ExtendMinutes != 15 || got.PersonalMessage != "running late" {
		t.Errorf("Unexpected pending record: %+v", got)
	}
	if got.Status != model.ExtensionPending {
		t.Errorf("Expected status %s, got %s", model.ExtensionPending, got.Status)
	}
}

func TestRequestExtensionValidation(t *testing.T) {
	service := &ExtensionService{Extensions: newFakeExtensionStore()}

	if _, err := service.RequestExtension(context.Background(), "  ", 15, ""); err == nil {
		t.Error("Expected error for blank student id")
	}
	if _, err := service.RequestExtension(context.Background(), "stu-7", -5, ""); err == nil {
		t.Error("Expected error for negative minutes")
	}
	if _, err := service.RequestExtension(context.Background(), "stu-7", 0, ""); err != nil {
		t.Errorf("Expected zero minutes to be accepted, got %v", err)
	}
}

func TestRepeatedRequestsStack(t *testing.T) {
	store := newFakeExtensionStore()
	service := &ExtensionService{Extensions: store}

	first, _ := service.RequestExtension(context.Background(), "stu-7", 15, "first")
	second, _ := service.RequestExtension(context.Background(), "stu-7", 30, "second")
	if first == second {
		t.Fatal("Expected distinct request ids")
	}

	pending, err := service.ListPending(context.Background())
	if err != nil {
		t.Fatalf("Failed to list pending: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("Expected 2 independent pending requests, got %d", len(pending))
	}
	// Newest first
	if pending[0].ExtendMinutes != 30 || pending[1].ExtendMinutes != 15 {
		t.Errorf("Expected newest-first ordering, got %d then %d",
			pending[0].ExtendMinutes, pending[1].ExtendMinutes)
	}
}

func TestListPendingResolvesStudentNames(t *testing.T) {
	store := newFakeExtensionStore()
	service := &ExtensionService{
		Extensions: store,
		Students: &fakeDirectory{students: map[string]*model.Student{
			"stu-7": {StudentID: "stu-7", Name: "Priya Sharma"},
		}},
	}

	service.RequestExtension(context.Background(), "stu-7", 15, "")
	service.RequestExtension(context.Background(), "stu-gone", 10, "")

	pending, err := service.ListPending(context.Background())
	if err != nil {
		t.Fatalf("Failed to list pending: %v", err)
	}
	byStudent := make(map[string]string)
	for _, p := range pending {
		byStudent[p.StudentID] = p.StudentName
	}
	if byStudent["stu-7"] != "Priya Sharma" {
		t.Errorf("Expected resolved name, got %q", byStudent["stu-7"])
	}
	if byStudent["stu-gone"] != "" {
		t.Errorf("Expected empty name for unknown student, got %q", byStudent["stu-gone"])
	}
}

func TestDecideApproveExtendsLiveSession(t *testing.T) {
	store := newFakeExtensionStore()
	extender := &recordingExtender{live: true}
	lookup := &fakeSessionLookup{active: map[string]string{"stu-7": "sess-42"}}
	service := &ExtensionService{
		Extensions: store,
		Sessions:   extender,
		TripCache:  lookup,
	}

	requestID, _ := service.RequestExtension(context.Background(), "stu-7", 15, "")

	if err := service.Decide(context.Background(), requestID, "approve"); err != nil {
		t.Fatalf("Failed to approve: %v", err)
	}

	stored := store.requests[requestID]
	if stored.Status != model.ExtensionApproved {
		t.Errorf("Expected status %s, got %s", model.ExtensionApproved, stored.Status)
	}
	if extender.calls != 1 || extender.sessionID != "sess-42" || extender.minutes != 15 {
		t.Errorf("Expected relay extend for sess-42 by 15 minutes, got %+v", extender)
	}
	if lookup.extended["sess-42"] != 15 {
		t.Errorf("Expected cached session extended by 15, got %d", lookup.extended["sess-42"])
	}
}

func TestDecideRejectLeavesSessionsAlone(t *testing.T) {
	store := newFakeExtensionStore()
	extender := &recordingExtender{live: true}
	service := &ExtensionService{
		Extensions: store,
		Sessions:   extender,
		TripCache:  &fakeSessionLookup{active: map[string]string{"stu-7": "sess-42"}},
	}

	requestID, _ := service.RequestExtension(context.Background(), "stu-7", 15, "")

	if err := service.Decide(context.Background(), requestID, "reject"); err != nil {
		t.Fatalf("Failed to reject: %v", err)
	}
	if store.requests[requestID].Status != model.ExtensionRejected {
		t.Errorf("Expected status %s, got %s", model.ExtensionRejected, store.requests[requestID].Status)
	}
	if extender.calls != 0 {
		t.Error("Expected no relay extend on rejection")
	}
}

func TestDecideApproveWithoutLiveSession(t *testing.T) {
	store := newFakeExtensionStore()
	extender := &recordingExtender{}
	service := &ExtensionService{
		Extensions: store,
		Sessions:   extender,
		TripCache:  &fakeSessionLookup{active: map[string]string{}},
	}

	requestID, _ := service.RequestExtension(context.Background(), "stu-offsite", 20, "")

	// No active session is not a failure: the approval still stands
	if err := service.Decide(context.Background(), requestID, "approve"); err != nil {
		t.Fatalf("Expected approval to succeed without a live session: %v", err)
	}
	if store.requests[requestID].Status != model.ExtensionApproved {
		t.Errorf("Expected status %s, got %s", model.ExtensionApproved, store.requests[requestID].Status)
	}
	if extender.calls != 0 {
		t.Error("Expected no relay extend without an active session")
	}
}

func TestDecideTwiceFails(t *testing.T) {
	store := newFakeExtensionStore()
	service := &ExtensionService{Extensions: store}

	requestID, _ := service.RequestExtension(context.Background(), "stu-7", 15, "")

	if err := service.Decide(context.Background(), requestID, "approve"); err != nil {
		t.Fatalf("First decision failed: %v", err)
	}
	err := service.Decide(context.Background(), requestID, "reject")
	if !errors.Is(err, ErrExtensionDecided) {
		t.Fatalf("Expected ErrExtensionDecided, got %v", err)
	}
	if store.requests[requestID].Status != model.ExtensionApproved {
		t.Error("Second decision must not overwrite the first")
	}
}

func TestDecideUnknownRequest(t *testing.T) {
	service := &ExtensionService{Extensions: newFakeExtensionStore()}

	err := service.Decide(context.Background(), "req-missing", "approve")
	if !errors.Is(err, ErrExtensionNotFound) {
		t.Fatalf("Expected ErrExtensionNotFound, got %v", err)
	}
}

func TestDecideInvalidAction(t *testing.T) {
	store := newFakeExtensionStore()
	service := &ExtensionService{Extensions: store}

	requestID, _ := service.RequestExtension(context.Background(), "stu-7", 15, "")

	if err := service.Decide(context.Background(), requestID, "maybe"); err == nil {
		t.Fatal("Expected error for unknown action")
	}
	if store.requests[requestID].Status != model.ExtensionPending {
		t.Error("Invalid action must leave the request untouched")
	}
}
