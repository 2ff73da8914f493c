package realtime

import (
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/anonto42/socialpulse/backend/internal/logging"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendQueueSize  = 256
)

// Client is one websocket connection. It starts anonymous and becomes
// addressable once it sends a setup event with a user identity.
type Client struct {
	id   ConnID
	hub  *Hub
	conn *websocket.Conn

	// send is written and closed only by the hub goroutine.
	send chan []byte
}

// NewClient wraps conn with a fresh connection id.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		id:   ConnID(uuid.NewString()),
		hub:  hub,
		conn: conn,
		send: make(chan []byte, sendQueueSize),
	}
}

// ID returns the connection identifier.
func (c *Client) ID() ConnID {
	return c.id
}

// Start attaches the client to the hub and runs its pumps.
func (c *Client) Start() {
	c.hub.attach(c)
	go c.writePump()
	go c.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.detach(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logging.Error().Err(err).Msg("failed to set read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.Warn().Err(err).Str("conn", string(c.id)).Msg("unexpected websocket close")
			}
			return
		}
		c.handleFrame(data)
	}
}

// handleFrame dispatches one inbound frame. Malformed frames, unknown events
// and setup payloads without an identity are ignored.
func (c *Client) handleFrame(data []byte) {
	var in inbound
	if err := json.Unmarshal(data, &in); err != nil {
		logging.Debug().Err(err).Str("conn", string(c.id)).Msg("ignoring malformed frame")
		return
	}

	switch in.Type {
	case EventSetup:
		user, ok := ResolveIdentity(in.Data)
		if !ok {
			logging.Debug().Str("conn", string(c.id)).Msg("setup without identity, connection stays anonymous")
			return
		}
		c.hub.setup(c, user)
	case EventPing:
		c.hub.reply(c, Envelope{Type: EventPong})
	default:
		logging.Debug().Str("conn", string(c.id)).Str("type", in.Type).Msg("ignoring unknown event")
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if !ok {
				// The hub closed the queue.
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				logging.Debug().Err(err).Str("conn", string(c.id)).Msg("websocket write failed")
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
