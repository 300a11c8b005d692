// Stockpulse - Stock Watchlist and Price-Move Alerts
// SPDX-License-Identifier: MIT

// Package websocket delivers alerts to connected browsers in real time.
// Connections are grouped into per-user rooms; an alert published for a
// user fans out to every connection that user has open.
package websocket

import (
	"context"
	"sort"
	"sync"

	"github.com/stockpulse/stockpulse/internal/logging"
	"github.com/stockpulse/stockpulse/internal/metrics"
	"github.com/stockpulse/stockpulse/internal/models"
)

// Event names sent to clients.
const (
	EventAlertNew = "alert:new"
	EventPing     = "ping"
	EventPong     = "pong"
)

// Message is one WebSocket frame: an event name plus its payload.
type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// userMessage targets a message at a single user's room.
type userMessage struct {
	userID  int64
	message Message
}

// Hub maintains per-user rooms of active clients and routes published
// messages to them.
type Hub struct {
	rooms      map[int64]map[*Client]bool
	publish    chan userMessage
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[int64]map[*Client]bool),
		publish:    make(chan userMessage, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

// RunWithContext runs the hub loop until the context is canceled. Client
// lifecycle events take priority over message delivery so room membership
// is always settled before a message fans out.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		default:
		}

		select {
		case client := <-h.Register:
			h.addClient(client)
			continue
		case client := <-h.Unregister:
			h.removeClient(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()

		case client := <-h.Register:
			h.addClient(client)

		case client := <-h.Unregister:
			h.removeClient(client)

		case msg := <-h.publish:
			h.deliver(msg)
		}
	}
}

// PublishAlert sends an alert to every connection in the owner's room.
// Publishing never blocks; if the hub's queue is full the message is
// dropped and counted.
func (h *Hub) PublishAlert(alert *models.Alert) {
	msg := userMessage{
		userID:  alert.UserID,
		message: Message{Event: EventAlertNew, Data: alert},
	}

	select {
	case h.publish <- msg:
	default:
		metrics.WebSocketMessagesDropped.Inc()
		logging.Warn().Int64("user_id", alert.UserID).Msg("Publish queue full, dropping alert message")
	}
}

// ClientCount returns the number of connected clients across all rooms.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0
	for _, room := range h.rooms {
		count += len(room)
	}
	return count
}

// RoomSize returns the number of connections a user has open.
func (h *Hub) RoomSize(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[userID])
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.userID]
	if !ok {
		room = make(map[*Client]bool)
		h.rooms[client.userID] = room
	}
	room[client] = true
	h.mu.Unlock()

	metrics.WebSocketConnections.Inc()
	logging.Info().Int64("user_id", client.userID).Int("room_size", len(room)).Msg("WebSocket client connected")
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.userID]
	if ok {
		if _, member := room[client]; member {
			delete(room, client)
			close(client.send)
			metrics.WebSocketConnections.Dec()
		}
		if len(room) == 0 {
			delete(h.rooms, client.userID)
		}
	}
	h.mu.Unlock()

	logging.Info().Int64("user_id", client.userID).Msg("WebSocket client disconnected")
}

// deliver fans a message out to the target room. Clients whose send buffer
// is full are disconnected rather than allowed to stall the hub.
func (h *Hub) deliver(msg userMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[msg.userID]
	if !ok {
		return
	}

	clients := make([]*Client, 0, len(room))
	for client := range room {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].id < clients[j].id })

	var toRemove []*Client
	for _, client := range clients {
		select {
		case client.send <- msg.message:
			metrics.WebSocketMessagesSent.WithLabelValues(msg.message.Event).Inc()
		default:
			toRemove = append(toRemove, client)
		}
	}

	for _, client := range toRemove {
		close(client.send)
		delete(room, client)
		metrics.WebSocketConnections.Dec()
		metrics.WebSocketMessagesDropped.Inc()
	}
	if len(room) == 0 {
		delete(h.rooms, msg.userID)
	}
}

// shutdown closes every connected client.
func (h *Hub) shutdown(ctx context.Context) {
	h.mu.Lock()
	closed := 0
	for userID, room := range h.rooms {
		for client := range room {
			close(client.send)
			closed++
		}
		delete(h.rooms, userID)
	}
	h.mu.Unlock()

	metrics.WebSocketConnections.Sub(float64(closed))
	logging.Info().
		Str("component", "websocket-hub").
		Int("clients_closed", closed).
		Msg("WebSocket hub stopped")
}
