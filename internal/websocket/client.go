// Stockpulse - Stock Watchlist and Price-Move Alerts
// SPDX-License-Identifier: MIT

package websocket

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/stockpulse/stockpulse/internal/logging"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
)

// clientIDCounter assigns monotonically increasing IDs so rooms can be
// iterated in a stable order.
var clientIDCounter atomic.Uint64

// Client bridges one WebSocket connection and the hub.
type Client struct {
	id     uint64
	userID int64
	hub    *Hub
	conn   *websocket.Conn
	send   chan Message
}

// NewClient wraps an upgraded connection owned by the given user.
func NewClient(hub *Hub, conn *websocket.Conn, userID int64) *Client {
	return &Client{
		id:     clientIDCounter.Add(1),
		userID: userID,
		hub:    hub,
		conn:   conn,
		send:   make(chan Message, 64),
	}
}

// Start launches the read and write pumps.
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}

// readPump consumes frames from the connection until it closes. The only
// client-to-server message honored is an application-level ping.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister <- c
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logging.Error().Err(err).Msg("Failed to set read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.Warn().Err(err).Int64("user_id", c.userID).Msg("Unexpected WebSocket close")
			}
			break
		}

		if msg.Event == EventPing {
			select {
			case c.send <- Message{Event: EventPong}:
			default:
			}
		}
	}
}

// writePump drains the send channel to the connection and keeps the
// connection alive with protocol pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(message); err != nil {
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

// upgrader accepts any origin; CORS policy is enforced at the router.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeWS upgrades an authenticated request and registers the connection
// in the owner's room.
func ServeWS(hub *Hub, w http.ResponseWriter, r *http.Request, userID int64) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := NewClient(hub, conn, userID)
	hub.Register <- client
	client.Start()
}
