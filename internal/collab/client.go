package collab

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// writeWait is the time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// pongWait is the time allowed to read the next pong from the peer
	pongWait = 60 * time.Second

	// pingPeriod must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize bounds inbound event size
	maxMessageSize = 64 << 10
)

// Client couples a websocket connection with its hub session and runs the
// read/write pumps. All writes to the connection go through the write pump
// so there is exactly one writer per connection.
type Client struct {
	session *Session
	hub     *Hub
	conn    *websocket.Conn
	logger  *slog.Logger
}

// NewClient wraps an upgraded connection for the given session.
func NewClient(hub *Hub, session *Session, conn *websocket.Conn, logger *slog.Logger) *Client {
	return &Client{
		session: session,
		hub:     hub,
		conn:    conn,
		logger:  logger,
	}
}

// Run starts the write pump and blocks on the read pump until the
// connection drops, then disconnects the session (implicit leave of every
// joined room).
func (c *Client) Run() {
	go c.writePump()
	c.readPump()
}

// readPump reads inbound events and dispatches them to the hub. Messages
// that are not valid JSON envelopes are dropped, not fatal.
func (c *Client) readPump() {
	defer func() {
		c.hub.Disconnect(c.session)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("websocket read error", "user_id", c.session.UserID, "error", err)
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(message, &env); err != nil {
			c.logger.Debug("malformed event dropped", "user_id", c.session.UserID, "error", err)
			continue
		}

		c.hub.Dispatch(c.session, &env)
	}
}

// writePump drains the session's send channel onto the connection and
// keeps the connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.session.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the session
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
