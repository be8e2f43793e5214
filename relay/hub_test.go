package relay

import (
	"context"
	"encoding/json"
	"math"
	"testing"
	"time"

	"safemove/config"
	"safemove/model"
)

func testRelayConfig() config.RelayConfig {
	return config.RelayConfig{
		SendBuffer:     8,
		WriteWait:      time.Second,
		PongWait:       time.Second,
		PingPeriod:     900 * time.Millisecond,
		MaxMessageSize: 1024,
		TickInterval:   5 * time.Millisecond,
	}
}

// fakeSource serves canned sessions to the hub
type fakeSource struct {
	sessions map[string]*model.TripSession
}

func (f *fakeSource) ActiveSession(ctx context.Context, sessionID string) (*model.TripSession, error) {
	return f.sessions[sessionID], nil
}

func startHub(t *testing.T, source SessionSource) *Hub {
	t.Helper()
	hub := NewHub(testRelayConfig(), source)
	go hub.Run()
	t.Cleanup(hub.Close)
	return hub
}

func newTestClient(hub *Hub) *Client {
	return NewClient(hub, nil, testRelayConfig(), "test device", "127.0.0.1")
}

func readFrame(t *testing.T, c *Client) *Frame {
	t.Helper()
	select {
	case message := <-c.send:
		frame, err := DecodeFrame(message)
		if err != nil {
			t.Fatalf("Failed to decode frame: %v", err)
		}
		return frame
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for frame")
		return nil
	}
}

func expectNoFrame(t *testing.T, c *Client, wait time.Duration) {
	t.Helper()
	select {
	case message := <-c.send:
		t.Fatalf("Expected no frame, got %s", message)
	case <-time.After(wait):
	}
}

// waitForExtend retries until the session countdown is attached and moved;
// the lookup that arms it runs off the hub loop
func waitForExtend(t *testing.T, hub *Hub, sessionID string, minutes int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !hub.ExtendSession(sessionID, minutes) {
		if time.Now().After(deadline) {
			t.Fatalf("Timed out waiting to extend session %s", sessionID)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func joinSession(t *testing.T, hub *Hub, c *Client, sessionID string) {
	t.Helper()
	hub.Join(c, sessionID)
	frame := readFrame(t, c)
	if frame.Event != EventSessionJoined {
		t.Fatalf("Expected %s, got %s", EventSessionJoined, frame.Event)
	}
	var ack JoinAck
	if err := json.Unmarshal(frame.Data, &ack); err != nil {
		t.Fatalf("Failed to decode join ack: %v", err)
	}
	if !ack.Success {
		t.Fatalf("Expected successful join, got %q", ack.Message)
	}
}

func decodeLocation(t *testing.T, frame *Frame) LocationBroadcast {
	t.Helper()
	if frame.Event != EventLocationUpdate {
		t.Fatalf("Expected %s, got %s", EventLocationUpdate, frame.Event)
	}
	var loc LocationBroadcast
	if err := json.Unmarshal(frame.Data, &loc); err != nil {
		t.Fatalf("Failed to decode location: %v", err)
	}
	return loc
}

func TestPublishFansOutToSessionObservers(t *testing.T) {
	hub := startHub(t, nil)

	publisher := newTestClient(hub)
	observerA := newTestClient(hub)
	observerB := newTestClient(hub)
	elsewhere := newTestClient(hub)
	for _, c := range []*Client{publisher, observerA, observerB, elsewhere} {
		hub.Register(c)
	}

	joinSession(t, hub, publisher, "sess-42")
	joinSession(t, hub, observerA, "sess-42")
	joinSession(t, hub, observerB, "sess-42")
	joinSession(t, hub, elsewhere, "sess-99")

	hub.Publish(publisher, "sess-42", 28.6129, 77.2295)

	for _, observer := range []*Client{observerA, observerB} {
		loc := decodeLocation(t, readFrame(t, observer))
		if loc.Latitude != 28.6129 || loc.Longitude != 77.2295 {
			t.Errorf("Expected (28.6129, 77.2295), got (%v, %v)", loc.Latitude, loc.Longitude)
		}
	}

	expectNoFrame(t, publisher, 50*time.Millisecond)
	expectNoFrame(t, elsewhere, 50*time.Millisecond)
}

func TestPublishPreservesOrderPerObserver(t *testing.T) {
	hub := startHub(t, nil)

	publisher := newTestClient(hub)
	observer := newTestClient(hub)
	hub.Register(publisher)
	hub.Register(observer)
	joinSession(t, hub, publisher, "sess-1")
	joinSession(t, hub, observer, "sess-1")

	coords := [][2]float64{{1, 1}, {2, 2}, {3, 3}}
	for _, pair := range coords {
		hub.Publish(publisher, "sess-1", pair[0], pair[1])
	}
	for _, pair := range coords {
		loc := decodeLocation(t, readFrame(t, observer))
		if loc.Latitude != pair[0] || loc.Longitude != pair[1] {
			t.Errorf("Expected (%v, %v), got (%v, %v)", pair[0], pair[1], loc.Latitude, loc.Longitude)
		}
	}
}

func TestLeaveStopsDelivery(t *testing.T) {
	hub := startHub(t, nil)

	publisher := newTestClient(hub)
	observer := newTestClient(hub)
	hub.Register(publisher)
	hub.Register(observer)
	joinSession(t, hub, publisher, "sess-1")
	joinSession(t, hub, observer, "sess-1")

	hub.Leave(observer)
	hub.Publish(publisher, "sess-1", 10, 20)

	expectNoFrame(t, observer, 50*time.Millisecond)

	// Leave for a connection no longer subscribed is a no-op
	hub.Leave(observer)
}

func TestJoinNewSessionLeavesPrevious(t *testing.T) {
	hub := startHub(t, nil)

	publisher := newTestClient(hub)
	mover := newTestClient(hub)
	hub.Register(publisher)
	hub.Register(mover)
	joinSession(t, hub, publisher, "sess-1")
	joinSession(t, hub, mover, "sess-1")
	joinSession(t, hub, mover, "sess-2")

	hub.Publish(publisher, "sess-1", 10, 20)
	expectNoFrame(t, mover, 50*time.Millisecond)
}

func TestJoinSameSessionIsIdempotent(t *testing.T) {
	hub := startHub(t, nil)

	publisher := newTestClient(hub)
	observer := newTestClient(hub)
	hub.Register(publisher)
	hub.Register(observer)
	joinSession(t, hub, publisher, "sess-1")
	joinSession(t, hub, observer, "sess-1")
	joinSession(t, hub, observer, "sess-1")

	hub.Publish(publisher, "sess-1", 10, 20)
	decodeLocation(t, readFrame(t, observer))
	// One membership entry means exactly one copy of each update
	expectNoFrame(t, observer, 50*time.Millisecond)
}

func TestJoinRejectsEmptySessionID(t *testing.T) {
	hub := startHub(t, nil)

	client := newTestClient(hub)
	hub.Register(client)
	hub.Join(client, "")

	frame := readFrame(t, client)
	if frame.Event != EventSessionJoined {
		t.Fatalf("Expected %s, got %s", EventSessionJoined, frame.Event)
	}
	var ack JoinAck
	if err := json.Unmarshal(frame.Data, &ack); err != nil {
		t.Fatalf("Failed to decode join ack: %v", err)
	}
	if ack.Success {
		t.Error("Expected join failure for empty session identifier")
	}
}

func TestPublishDropsInvalidCoordinates(t *testing.T) {
	hub := startHub(t, nil)

	publisher := newTestClient(hub)
	observer := newTestClient(hub)
	hub.Register(publisher)
	hub.Register(observer)
	joinSession(t, hub, publisher, "sess-1")
	joinSession(t, hub, observer, "sess-1")

	hub.Publish(publisher, "sess-1", math.NaN(), 20)
	hub.Publish(publisher, "sess-1", 10, math.Inf(1))
	hub.Publish(publisher, "sess-1", 91, 20)
	hub.Publish(publisher, "sess-1", 10, 181)

	expectNoFrame(t, observer, 50*time.Millisecond)

	// A bad payload must not wedge the stream for the next good one
	hub.Publish(publisher, "sess-1", 10, 20)
	loc := decodeLocation(t, readFrame(t, observer))
	if loc.Latitude != 10 || loc.Longitude != 20 {
		t.Errorf("Expected (10, 20), got (%v, %v)", loc.Latitude, loc.Longitude)
	}
}

func TestPublishDropsUnderBackpressure(t *testing.T) {
	hub := startHub(t, nil)

	publisher := newTestClient(hub)
	hub.Register(publisher)

	slow := NewClient(hub, nil, config.RelayConfig{SendBuffer: 1, TickInterval: 5 * time.Millisecond}, "slow", "127.0.0.1")
	hub.Register(slow)

	joinSession(t, hub, publisher, "sess-1")
	joinSession(t, hub, slow, "sess-1")

	// The first update fills the queue; later ones drop instead of stalling
	// the hub
	hub.Publish(publisher, "sess-1", 1, 1)
	hub.Publish(publisher, "sess-1", 2, 2)
	hub.Publish(publisher, "sess-1", 3, 3)
	// Stats round-trips the run loop, so all three publishes have been
	// processed before anything starts receiving on the 1-deep buffer
	hub.Stats()

	loc := decodeLocation(t, readFrame(t, slow))
	if loc.Latitude != 1 || loc.Longitude != 1 {
		t.Errorf("Expected the first queued update, got (%v, %v)", loc.Latitude, loc.Longitude)
	}
	expectNoFrame(t, slow, 50*time.Millisecond)
}

func TestUnregisterCleansMembership(t *testing.T) {
	hub := startHub(t, nil)

	publisher := newTestClient(hub)
	observer := newTestClient(hub)
	hub.Register(publisher)
	hub.Register(observer)
	joinSession(t, hub, publisher, "sess-1")
	joinSession(t, hub, observer, "sess-1")

	hub.Unregister(observer)
	// Repeat unregister must not panic or double-close
	hub.Unregister(observer)

	hub.Publish(publisher, "sess-1", 10, 20)
	connections, _ := hub.Stats()
	if connections != 1 {
		t.Errorf("Expected 1 connection after unregister, got %d", connections)
	}
}

func TestSessionExpiryHaltsPublishing(t *testing.T) {
	session := &model.TripSession{
		Content:       "sess-short",
		DurationHours: 150.0 / 3600 / 1000, // 150ms
		CreatedAt:     time.Now().UnixMilli(),
	}
	hub := startHub(t, &fakeSource{sessions: map[string]*model.TripSession{
		"sess-short": session,
	}})

	publisher := newTestClient(hub)
	observer := newTestClient(hub)
	hub.Register(publisher)
	hub.Register(observer)
	joinSession(t, hub, publisher, "sess-short")
	joinSession(t, hub, observer, "sess-short")

	frame := readFrame(t, observer)
	if frame.Event != EventSessionExpired {
		t.Fatalf("Expected %s, got %s", EventSessionExpired, frame.Event)
	}
	var expired ExpiredData
	if err := json.Unmarshal(frame.Data, &expired); err != nil {
		t.Fatalf("Failed to decode expiry notice: %v", err)
	}
	if expired.SessionID != "sess-short" {
		t.Errorf("Expected session sess-short, got %q", expired.SessionID)
	}

	// The publisher in the room is told too
	frame = readFrame(t, publisher)
	if frame.Event != EventSessionExpired {
		t.Fatalf("Expected %s on publisher, got %s", EventSessionExpired, frame.Event)
	}

	// Further publishes to the expired session go nowhere
	hub.Publish(publisher, "sess-short", 10, 20)
	expectNoFrame(t, observer, 50*time.Millisecond)
}

func TestJoinAlreadyExpiredSession(t *testing.T) {
	session := &model.TripSession{
		Content:       "sess-old",
		DurationHours: 1,
		CreatedAt:     time.Now().Add(-2 * time.Hour).UnixMilli(),
	}
	hub := startHub(t, &fakeSource{sessions: map[string]*model.TripSession{
		"sess-old": session,
	}})

	publisher := newTestClient(hub)
	observer := newTestClient(hub)
	hub.Register(publisher)
	hub.Register(observer)
	joinSession(t, hub, publisher, "sess-old")
	joinSession(t, hub, observer, "sess-old")

	// Each connection learns the session is over, whether it was in the
	// room when the lookup landed or joined afterwards
	for _, c := range []*Client{publisher, observer} {
		frame := readFrame(t, c)
		if frame.Event != EventSessionExpired {
			t.Fatalf("Expected %s, got %s", EventSessionExpired, frame.Event)
		}
	}

	hub.Publish(publisher, "sess-old", 10, 20)
	expectNoFrame(t, observer, 50*time.Millisecond)
}

func TestExtendSessionMovesDeadlineAndNotifiesRoom(t *testing.T) {
	session := &model.TripSession{
		Content:       "sess-live",
		DurationHours: 1,
		CreatedAt:     time.Now().UnixMilli(),
	}
	hub := startHub(t, &fakeSource{sessions: map[string]*model.TripSession{
		"sess-live": session,
	}})

	publisher := newTestClient(hub)
	observer := newTestClient(hub)
	hub.Register(publisher)
	hub.Register(observer)
	joinSession(t, hub, publisher, "sess-live")
	joinSession(t, hub, observer, "sess-live")

	waitForExtend(t, hub, "sess-live", 15)

	for _, c := range []*Client{publisher, observer} {
		frame := readFrame(t, c)
		if frame.Event != EventSessionExtended {
			t.Fatalf("Expected %s, got %s", EventSessionExtended, frame.Event)
		}
		var extended ExtendedData
		if err := json.Unmarshal(frame.Data, &extended); err != nil {
			t.Fatalf("Failed to decode extension notice: %v", err)
		}
		if extended.ExtendMinutes != 15 {
			t.Errorf("Expected 15 extra minutes, got %d", extended.ExtendMinutes)
		}
		wantExpiry := session.ExpiresAt().UnixMilli()
		if extended.ExpiresAt != wantExpiry {
			t.Errorf("Expected moved expiry %d, got %d", wantExpiry, extended.ExpiresAt)
		}
	}
}

// slowSource stands in for a laggy session store
type slowSource struct {
	delay    time.Duration
	sessions map[string]*model.TripSession
}

func (s *slowSource) ActiveSession(ctx context.Context, sessionID string) (*model.TripSession, error) {
	select {
	case <-time.After(s.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return s.sessions[sessionID], nil
}

func TestSlowSessionLookupDoesNotStallFanout(t *testing.T) {
	hub := startHub(t, &slowSource{delay: 500 * time.Millisecond})

	publisher := newTestClient(hub)
	observer := newTestClient(hub)
	cold := newTestClient(hub)
	for _, c := range []*Client{publisher, observer, cold} {
		hub.Register(c)
	}
	joinSession(t, hub, publisher, "sess-warm")
	joinSession(t, hub, observer, "sess-warm")

	// This join's lookup is still sleeping when the publish below runs
	hub.Join(cold, "sess-cold")

	start := time.Now()
	hub.Publish(publisher, "sess-warm", 10, 20)
	decodeLocation(t, readFrame(t, observer))
	if elapsed := time.Since(start); elapsed > 250*time.Millisecond {
		t.Fatalf("Publish waited %v behind another session's lookup", elapsed)
	}

	// The cold join itself acked without waiting for its lookup
	frame := readFrame(t, cold)
	if frame.Event != EventSessionJoined {
		t.Fatalf("Expected %s, got %s", EventSessionJoined, frame.Event)
	}
}

func TestExtendSessionUnknownOrUntracked(t *testing.T) {
	hub := startHub(t, nil)

	if hub.ExtendSession("sess-missing", 15) {
		t.Error("Expected extend to fail for an unknown session")
	}

	// A room without a minted session record has no countdown to move
	client := newTestClient(hub)
	hub.Register(client)
	joinSession(t, hub, client, "sess-untracked")
	if hub.ExtendSession("sess-untracked", 15) {
		t.Error("Expected extend to fail for a session without a countdown")
	}
}
