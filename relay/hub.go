package relay

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"safemove/config"
	"safemove/model"
	"safemove/utils"
)

// SessionSource resolves a session identifier to the payload minted at trip
// planning time. A nil result means the token is unknown to this process;
// the relay still lets connections gather under it, it just cannot enforce
// a deadline for it.
type SessionSource interface {
	ActiveSession(ctx context.Context, sessionID string) (*model.TripSession, error)
}

// room is the set of connections joined under one session identifier
type room struct {
	clients   map[*Client]bool
	session   *model.TripSession
	countdown *Countdown
	stopTimer func()
	expired   bool
}

// Hub owns the session-to-connections index. All mutation happens on the
// run goroutine; public methods enqueue operations onto it, so join, leave,
// publish and extend never race.
type Hub struct {
	cfg    config.RelayConfig
	source SessionSource

	ops  chan func()
	done chan struct{}

	rooms      map[string]*room
	membership map[*Client]string

	closeOnce sync.Once
}

func NewHub(cfg config.RelayConfig, source SessionSource) *Hub {
	return &Hub{
		cfg:        cfg,
		source:     source,
		ops:        make(chan func(), 64),
		done:       make(chan struct{}),
		rooms:      make(map[string]*room),
		membership: make(map[*Client]string),
	}
}

// Run processes hub operations until Close is called
func (h *Hub) Run() {
	for {
		select {
		case op := <-h.ops:
			op()
		case <-h.done:
			for sessionID := range h.rooms {
				h.dropRoom(sessionID)
			}
			for client := range h.membership {
				delete(h.membership, client)
				client.closeSend()
			}
			utils.RelayConnections.Set(0)
			utils.RelaySessionsActive.Set(0)
			return
		}
	}
}

// Close tears the hub down; it is safe to call more than once
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

func (h *Hub) do(op func()) {
	select {
	case h.ops <- op:
	case <-h.done:
	}
}

// Register tracks a new connection. It belongs to no session until it joins.
func (h *Hub) Register(c *Client) {
	h.do(func() {
		if _, ok := h.membership[c]; ok {
			return
		}
		h.membership[c] = ""
		utils.RelayConnections.Inc()
		log.Printf("Relay: connection registered (%s)", c.DeviceInfo)
	})
}

// Unregister removes a connection entirely, leaving whatever session it was
// in. Triggered by explicit stop and by abrupt disconnect alike, and a
// repeat call is a no-op.
func (h *Hub) Unregister(c *Client) {
	h.do(func() {
		sessionID, ok := h.membership[c]
		if !ok {
			return
		}
		h.removeFromRoom(c, sessionID)
		delete(h.membership, c)
		utils.RelayConnections.Dec()
		c.closeSend()
	})
}

// Join subscribes a connection to a session. Joining a new session leaves
// the previous one; rejoining the current one is a no-op. The ack goes to
// the caller only.
func (h *Hub) Join(c *Client, sessionID string) {
	h.do(func() {
		current, registered := h.membership[c]
		if !registered {
			return
		}
		if sessionID == "" {
			c.enqueue(mustEncode(EventSessionJoined, JoinAck{
				Success: false,
				Message: "invalid session identifier",
			}))
			return
		}
		if current == sessionID {
			c.enqueue(mustEncode(EventSessionJoined, JoinAck{
				Success: true,
				Message: fmt.Sprintf("Joined session %s", sessionID),
			}))
			return
		}
		if current != "" {
			h.removeFromRoom(c, current)
		}

		rm := h.rooms[sessionID]
		if rm == nil {
			rm = h.openRoom(sessionID)
		}
		rm.clients[c] = true
		h.membership[c] = sessionID

		c.enqueue(mustEncode(EventSessionJoined, JoinAck{
			Success: true,
			Message: fmt.Sprintf("Joined session %s", sessionID),
		}))

		// A late joiner to a finished session gets the terminal notice the
		// room-wide broadcast already delivered
		if rm.expired {
			c.enqueue(mustEncode(EventSessionExpired, ExpiredData{SessionID: sessionID}))
		}
	})
}

// Leave detaches a connection from its session without dropping the
// connection itself. A connection in no session is left alone.
func (h *Hub) Leave(c *Client) {
	h.do(func() {
		sessionID, ok := h.membership[c]
		if !ok || sessionID == "" {
			return
		}
		h.removeFromRoom(c, sessionID)
		h.membership[c] = ""
	})
}

// Publish fans a location update out to every other connection in the
// session. Invalid payloads and publishes to expired or unknown sessions
// are dropped without an error frame, so one bad message never interrupts
// tracking.
func (h *Hub) Publish(sender *Client, sessionID string, latitude, longitude float64) {
	h.do(func() {
		if !utils.ValidateCoordinates(latitude, longitude) {
			utils.TrackDroppedLocation("invalid")
			return
		}
		rm := h.rooms[sessionID]
		if rm == nil {
			utils.TrackDroppedLocation("no_session")
			return
		}
		if rm.expired {
			utils.TrackDroppedLocation("expired")
			return
		}

		frame := mustEncode(EventLocationUpdate, LocationBroadcast{
			Latitude:  latitude,
			Longitude: longitude,
		})
		for client := range rm.clients {
			if client == sender {
				continue
			}
			if client.enqueue(frame) {
				utils.LocationsRelayed.Inc()
			} else {
				utils.TrackDroppedLocation("backpressure")
			}
		}
	})
}

// ExtendSession moves a live session's deadline forward and tells every
// connection in the room. Returns false when no live session is known
// under the identifier or it has already expired.
func (h *Hub) ExtendSession(sessionID string, extendMinutes int) bool {
	result := make(chan bool, 1)
	h.do(func() {
		rm := h.rooms[sessionID]
		if rm == nil || rm.countdown == nil || rm.expired {
			result <- false
			return
		}
		if !rm.countdown.Extend(time.Duration(extendMinutes) * time.Minute) {
			result <- false
			return
		}
		rm.session.DurationHours += float64(extendMinutes) / 60
		frame := mustEncode(EventSessionExtended, ExtendedData{
			SessionID:     sessionID,
			ExtendMinutes: extendMinutes,
			ExpiresAt:     rm.countdown.Deadline().UnixMilli(),
		})
		for client := range rm.clients {
			client.enqueue(frame)
		}
		result <- true
	})

	select {
	case ok := <-result:
		return ok
	case <-h.done:
		return false
	}
}

// Stats reports current connection and session counts for the stats
// endpoint
func (h *Hub) Stats() (connections, sessions int) {
	result := make(chan [2]int, 1)
	h.do(func() {
		result <- [2]int{len(h.membership), len(h.rooms)}
	})
	select {
	case counts := <-result:
		return counts[0], counts[1]
	case <-h.done:
		return 0, 0
	}
}

// openRoom creates the room. The session lookup is a remote call, so it
// runs off the run loop; fan-out for other sessions never waits on it.
func (h *Hub) openRoom(sessionID string) *room {
	rm := &room{clients: make(map[*Client]bool)}
	h.rooms[sessionID] = rm
	utils.RelaySessionsActive.Set(float64(len(h.rooms)))

	if h.source != nil {
		go h.resolveSession(sessionID)
	}
	return rm
}

// resolveSession looks the session token up and, if the room is still open
// and untracked, attaches the payload and arms its countdown. Only the
// attach goes back through the run loop.
func (h *Hub) resolveSession(sessionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	session, err := h.source.ActiveSession(ctx, sessionID)
	cancel()
	if err != nil {
		log.Printf("Relay: session lookup failed for %s: %v", sessionID, err)
		utils.TrackError("relay", "session_lookup_failed")
		return
	}
	if session == nil {
		return
	}

	h.do(func() {
		rm := h.rooms[sessionID]
		if rm == nil || rm.session != nil {
			return
		}
		rm.session = session
		rm.countdown = NewCountdown(session)
		if rm.countdown.Expired() {
			h.markExpired(sessionID, rm)
			return
		}
		rm.stopTimer = rm.countdown.Start(h.cfg.TickInterval, nil, func() {
			h.expireSession(sessionID)
		})
	})
}

// expireSession is the terminal transition: refuse further publishes and
// tell everyone still in the room
func (h *Hub) expireSession(sessionID string) {
	h.do(func() {
		rm := h.rooms[sessionID]
		if rm == nil || rm.expired {
			return
		}
		h.markExpired(sessionID, rm)
	})
}

// markExpired flips the room terminal and notifies its clients. Must run on
// the run loop.
func (h *Hub) markExpired(sessionID string, rm *room) {
	rm.expired = true
	log.Printf("Relay: session %s expired", sessionID)
	frame := mustEncode(EventSessionExpired, ExpiredData{SessionID: sessionID})
	for client := range rm.clients {
		client.enqueue(frame)
	}
}

func (h *Hub) removeFromRoom(c *Client, sessionID string) {
	if sessionID == "" {
		return
	}
	rm := h.rooms[sessionID]
	if rm == nil {
		return
	}
	delete(rm.clients, c)
	if len(rm.clients) == 0 {
		h.dropRoom(sessionID)
	}
}

func (h *Hub) dropRoom(sessionID string) {
	rm := h.rooms[sessionID]
	if rm == nil {
		return
	}
	if rm.stopTimer != nil {
		rm.stopTimer()
	}
	delete(h.rooms, sessionID)
	utils.RelaySessionsActive.Set(float64(len(h.rooms)))
}

// mustEncode wraps EncodeFrame for hub-built frames, which marshal fixed
// struct shapes and cannot fail
func mustEncode(event string, data interface{}) []byte {
	frame, err := EncodeFrame(event, data)
	if err != nil {
		log.Printf("Relay: failed to encode %s frame: %v", event, err)
		return nil
	}
	return frame
}
