package broadcast

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/gofiber/contrib/websocket"
)

// Conn is the subset of the websocket connection the hub writes to.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client represents a connected, authenticated WebSocket client.
type Client struct {
	ID   string
	conn Conn
	mu   sync.Mutex // serializes writes from the hub and the dispatcher
}

// NewClient creates a client for the given connection.
func NewClient(id string, conn Conn) *Client {
	return &Client{ID: id, conn: conn}
}

func (c *Client) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// WriteJSON marshals v and writes it as a single text frame.
func (c *Client) WriteJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.write(data)
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Frame is the envelope for every event sent to a client.
type Frame struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// BroadcastMessage is a message queued for fan-out to a room.
type BroadcastMessage struct {
	RoomKey string
	Event   string
	Payload any
}

// Hub manages connected clients, their sessions, and room membership, and
// fans messages out to every current member of a room. Membership is purely
// additive until disconnect-driven removal; the reverse index keeps that
// removal bounded by the number of rooms the connection joined.
type Hub struct {
	clients   map[string]*Client         // connectionID -> client
	rooms     map[string]map[string]bool // roomKey -> set of connectionIDs
	joined    map[string]map[string]bool // connectionID -> set of roomKeys
	sessions  *SessionStore
	broadcast chan *BroadcastMessage
	done      chan struct{}
	mu        sync.RWMutex
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients:   make(map[string]*Client),
		rooms:     make(map[string]map[string]bool),
		joined:    make(map[string]map[string]bool),
		sessions:  NewSessionStore(),
		broadcast: make(chan *BroadcastMessage, 256),
		done:      make(chan struct{}),
	}
}

// Sessions returns the session store owned by the hub.
func (h *Hub) Sessions() *SessionStore {
	return h.sessions
}

// Run starts the hub's fan-out loop. It accepts a context for graceful
// shutdown. Registration does not go through this loop; only broadcasts do.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			log.Println("[hub] Shutting down...")
			h.closeAllClients()
			close(h.done)
			return
		case msg := <-h.broadcast:
			h.handleBroadcast(msg)
		}
	}
}

// Wait blocks until the hub has stopped.
func (h *Hub) Wait() {
	<-h.done
}

// Register adds a client to the hub. Registration takes effect before the
// call returns, so a join issued right after the handshake cannot miss it.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.ID] = client
	log.Printf("[hub] Client %s registered (total: %d)", client.ID, len(h.clients))
}

// Broadcast queues a message for delivery to every member of the room.
func (h *Hub) Broadcast(roomKey, event string, payload any) {
	h.broadcast <- &BroadcastMessage{
		RoomKey: roomKey,
		Event:   event,
		Payload: payload,
	}
}

// Unregister removes a client, its room memberships, and its session,
// effective immediately. Idempotent for unknown clients.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; !ok {
		return
	}

	delete(h.clients, client.ID)
	for roomKey := range h.joined[client.ID] {
		delete(h.rooms[roomKey], client.ID)
		if len(h.rooms[roomKey]) == 0 {
			delete(h.rooms, roomKey)
		}
	}
	delete(h.joined, client.ID)
	h.sessions.Unbind(client.ID)
	log.Printf("[hub] Client %s unregistered (total: %d)", client.ID, len(h.clients))
}

// handleBroadcast delivers the message to every member of the room at this
// instant, the sender included. Delivery is best-effort: a failed write to
// one member is logged and skipped, never surfaced to the publisher.
func (h *Hub) handleBroadcast(msg *BroadcastMessage) {
	data, err := json.Marshal(Frame{Event: msg.Event, Data: msg.Payload})
	if err != nil {
		log.Printf("[hub] Failed to marshal broadcast message: %v", err)
		return
	}

	for _, client := range h.roomSnapshot(msg.RoomKey) {
		if err := client.write(data); err != nil {
			log.Printf("[hub] Failed to send to client %s: %v", client.ID, err)
		}
	}
}

// roomSnapshot returns the room's members at the moment of the call, so the
// fan-out writes happen outside the hub lock.
func (h *Hub) roomSnapshot(roomKey string) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	members := make([]*Client, 0, len(h.rooms[roomKey]))
	for connectionID := range h.rooms[roomKey] {
		if client, ok := h.clients[connectionID]; ok {
			members = append(members, client)
		}
	}
	return members
}

// JoinRoom adds the connection to the room. Idempotent; joining twice leaves
// membership unchanged. A connection may be in any number of rooms.
func (h *Hub) JoinRoom(connectionID, roomKey string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[connectionID]; !ok {
		return
	}

	if h.rooms[roomKey] == nil {
		h.rooms[roomKey] = make(map[string]bool)
	}
	h.rooms[roomKey][connectionID] = true

	if h.joined[connectionID] == nil {
		h.joined[connectionID] = make(map[string]bool)
	}
	h.joined[connectionID][roomKey] = true
}

// MembersOf returns the ids of every connection currently in the room.
func (h *Hub) MembersOf(roomKey string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	members := make([]string, 0, len(h.rooms[roomKey]))
	for connectionID := range h.rooms[roomKey] {
		members = append(members, connectionID)
	}
	return members
}

// RoomsOf returns the room keys the connection has joined.
func (h *Hub) RoomsOf(connectionID string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	rooms := make([]string, 0, len(h.joined[connectionID]))
	for roomKey := range h.joined[connectionID] {
		rooms = append(rooms, roomKey)
	}
	return rooms
}

// ClientCount returns the total number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RoomClientCount returns the number of clients in a room.
func (h *Hub) RoomClientCount(roomKey string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomKey])
}

// closeAllClients closes all connected client connections.
func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.clients {
		_ = client.Close()
	}
	h.clients = make(map[string]*Client)
	h.rooms = make(map[string]map[string]bool)
	h.joined = make(map[string]map[string]bool)
}
