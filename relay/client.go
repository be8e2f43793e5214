package relay

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"safemove/config"

	"github.com/gorilla/websocket"
)

// Client is one live relay connection. The hub owns the session index; the
// client owns its own subscription state and unregisters itself on teardown.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	cfg  config.RelayConfig

	// send is the outbound queue. Shallow on purpose: only the latest
	// position matters, so overflow drops the frame, not the connection.
	send chan []byte

	DeviceInfo string
	RemoteAddr string

	closeOnce sync.Once
}

func NewClient(hub *Hub, conn *websocket.Conn, cfg config.RelayConfig, deviceInfo, remoteAddr string) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		cfg:        cfg,
		send:       make(chan []byte, cfg.SendBuffer),
		DeviceInfo: deviceInfo,
		RemoteAddr: remoteAddr,
	}
}

// Serve registers the client and runs its pumps until the connection dies.
// Blocks for the life of the connection.
func (c *Client) Serve() {
	c.hub.Register(c)
	go c.writePump()
	c.readPump()
}

// enqueue queues a frame without blocking the hub. Reports whether the
// frame was accepted; a full queue drops it.
func (c *Client) enqueue(message []byte) bool {
	if message == nil {
		return false
	}
	select {
	case c.send <- message:
		return true
	default:
		return false
	}
}

// closeSend is called by the hub once the client is out of the index; the
// write pump drains and exits
func (c *Client) closeSend() {
	c.closeOnce.Do(func() { close(c.send) })
}

// readPump relays inbound frames to the hub. Exit means the connection is
// gone; the unregister cleans the subscription out of the index.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.cfg.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("Relay: unexpected close from %s: %v", c.RemoteAddr, err)
			}
			return
		}
		c.dispatch(message)
	}
}

// dispatch routes one inbound frame. Malformed frames are dropped without
// erroring the connection: one bad message must not interrupt tracking.
func (c *Client) dispatch(message []byte) {
	frame, err := DecodeFrame(message)
	if err != nil {
		log.Printf("Relay: dropping malformed frame from %s: %v", c.RemoteAddr, err)
		return
	}

	switch frame.Event {
	case EventJoinSession:
		var data JoinData
		if err := json.Unmarshal(frame.Data, &data); err != nil {
			c.hub.Join(c, "")
			return
		}
		c.hub.Join(c, data.SessionID)

	case EventLocationUpdate:
		var data LocationData
		if err := json.Unmarshal(frame.Data, &data); err != nil {
			return
		}
		if data.SessionID == "" || data.Latitude == nil || data.Longitude == nil {
			return
		}
		c.hub.Publish(c, data.SessionID, *data.Latitude, *data.Longitude)

	case EventLeaveSession:
		c.hub.Leave(c)

	default:
		log.Printf("Relay: ignoring unknown event %q from %s", frame.Event, c.RemoteAddr)
	}
}

// writePump flushes queued frames and keeps the connection alive with pings
func (c *Client) writePump() {
	ticker := time.NewTicker(c.cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
