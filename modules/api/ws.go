package api

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"

	domain "github.com/example/chat-relay/domain/chat"
	"github.com/example/chat-relay/modules/broadcast"
)

// Inbound WebSocket event names.
const (
	EventConnect     = "connect"
	EventDisconnect  = "disconnect"
	EventAck         = "ack"
	EventJoin        = "join"
	EventChatMessage = "chat_message"
)

// Outbound WebSocket event names.
const (
	EventConnected = "connected"
	EventJoined    = "joined"
	EventError     = "error"
)

// exemptEvents skip per-message session re-validation. They are the
// lifecycle events that carry no room-scoped payload.
var exemptEvents = map[string]bool{
	EventConnect:    true,
	EventDisconnect: true,
	EventAck:        true,
}

// Rate limiting constants
const (
	messagesPerSecond = 10
	burstSize         = 20
)

// inboundFrame is the envelope for every event received from a client.
type inboundFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// connectPayload carries the credential presented during the handshake.
// Token uses the Authorization header shape: "<scheme> <value>".
type connectPayload struct {
	Token string `json:"token"`
}

// connectedPayload confirms a successful handshake.
type connectedPayload struct {
	ConnectionID string `json:"connectionId"`
}

// joinPayload identifies the room to join.
type joinPayload struct {
	OrganizationID string `json:"organizationId"`
	ChatID         string `json:"chatId"`
}

// messagePayload carries an inbound chat message.
type messagePayload struct {
	OrganizationID string `json:"organizationId"`
	ChatID         string `json:"chatId"`
	Message        string `json:"message"`
	Sender         string `json:"sender"`
}

// errorPayload carries an error delivered to a single client.
type errorPayload struct {
	Message string `json:"message"`
}

// wsEventHandler processes a single dispatched event.
type wsEventHandler func(ctx context.Context, sess *wsSession, data json.RawMessage)

// wsConn is the subset of the websocket connection the dispatcher drives.
type wsConn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// wsSession is the per-connection state built up by a successful handshake.
type wsSession struct {
	client  *broadcast.Client
	limiter *rateLimiter
	subject string
}

// rateLimiter implements a simple token bucket rate limiter.
type rateLimiter struct {
	tokens     int
	maxTokens  int
	refillRate int // tokens per second
	lastRefill time.Time
	mu         sync.Mutex
}

func newRateLimiter(maxTokens, refillRate int) *rateLimiter {
	return &rateLimiter{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

func (r *rateLimiter) allow() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(r.lastRefill)
	tokensToAdd := int(elapsed.Seconds()) * r.refillRate
	if tokensToAdd > 0 {
		r.tokens += tokensToAdd
		if r.tokens > r.maxTokens {
			r.tokens = r.maxTokens
		}
		r.lastRefill = now
	}

	if r.tokens > 0 {
		r.tokens--
		return true
	}
	return false
}

// tokenFromScheme extracts the credential value from a "<scheme> <value>"
// pair. The scheme itself is not checked; only the shape is.
func tokenFromScheme(raw string) (string, bool) {
	parts := strings.Fields(raw)
	if len(parts) != 2 {
		return "", false
	}
	return parts[1], true
}

// HandleWebSocket handles a WebSocket connection for its whole lifetime:
// handshake, event loop, teardown.
func (h *Handlers) HandleWebSocket(c *websocket.Conn) {
	h.serveConn(c)
}

func (h *Handlers) serveConn(c wsConn) {
	ctx := context.Background()

	sess, ok := h.authenticate(ctx, c)
	if !ok {
		c.Close()
		return
	}

	defer func() {
		h.hub.Unregister(sess.client)
		c.Close()
		log.Printf("[api] WebSocket disconnected: %s", sess.client.ID)
	}()

	for {
		_, msgBytes, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[api] WebSocket error for %s: %v", sess.client.ID, err)
			}
			return
		}

		var frame inboundFrame
		if err := json.Unmarshal(msgBytes, &frame); err != nil {
			h.sendError(sess.client, "Invalid message format")
			continue
		}

		if frame.Event == EventDisconnect {
			return
		}

		if !exemptEvents[frame.Event] {
			if !h.revalidate(ctx, sess) {
				h.sendError(sess.client, "Session expired")
				return
			}
			if !sess.limiter.allow() {
				h.sendError(sess.client, "Rate limit exceeded, please slow down")
				continue
			}
		}

		handler, ok := h.dispatch[frame.Event]
		if !ok {
			h.sendError(sess.client, "Unknown event: "+frame.Event)
			continue
		}
		handler(ctx, sess, frame.Data)
	}
}

// authenticate performs the connect handshake. The first frame must be a
// connect event with a valid token; anything else ends the connection before
// it is ever registered with the hub.
func (h *Handlers) authenticate(ctx context.Context, c wsConn) (*wsSession, bool) {
	_, msgBytes, err := c.ReadMessage()
	if err != nil {
		return nil, false
	}

	var frame inboundFrame
	if err := json.Unmarshal(msgBytes, &frame); err != nil || frame.Event != EventConnect {
		writeFrame(c, broadcast.Frame{Event: EventError, Data: errorPayload{Message: "Expected connect event"}})
		return nil, false
	}

	var payload connectPayload
	if err := json.Unmarshal(frame.Data, &payload); err != nil {
		writeFrame(c, broadcast.Frame{Event: EventError, Data: errorPayload{Message: "Invalid connect payload"}})
		return nil, false
	}

	token, ok := tokenFromScheme(payload.Token)
	if !ok {
		writeFrame(c, broadcast.Frame{Event: EventError, Data: errorPayload{Message: "Token must be in '<scheme> <value>' format"}})
		return nil, false
	}

	claims, err := h.authAdapter.ValidateToken(ctx, token)
	if err != nil {
		writeFrame(c, broadcast.Frame{Event: EventError, Data: errorPayload{Message: "Invalid or expired token"}})
		return nil, false
	}

	connectionID := uuid.New().String()
	client := broadcast.NewClient(connectionID, c)
	h.hub.Register(client)
	h.hub.Sessions().Bind(connectionID, token)

	sess := &wsSession{
		client:  client,
		limiter: newRateLimiter(burstSize, messagesPerSecond),
		subject: claims.Subject,
	}

	if err := client.WriteJSON(broadcast.Frame{
		Event: EventConnected,
		Data:  connectedPayload{ConnectionID: connectionID},
	}); err != nil {
		h.hub.Unregister(client)
		return nil, false
	}

	log.Printf("[api] WebSocket connected: %s (subject: %s)", connectionID, claims.Subject)
	return sess, true
}

// revalidate checks the session's stored token before every room-scoped
// event. A missing or expired session forces a disconnect.
func (h *Handlers) revalidate(ctx context.Context, sess *wsSession) bool {
	token, ok := h.hub.Sessions().Lookup(sess.client.ID)
	if !ok {
		return false
	}
	_, err := h.authAdapter.ValidateToken(ctx, token)
	return err == nil
}

// handleAck is a keepalive; it carries no payload and has no reply.
func (h *Handlers) handleAck(_ context.Context, _ *wsSession, _ json.RawMessage) {
}

// handleJoin processes join room requests.
func (h *Handlers) handleJoin(ctx context.Context, sess *wsSession, data json.RawMessage) {
	var req joinPayload
	if err := json.Unmarshal(data, &req); err != nil {
		h.sendError(sess.client, "Invalid join payload")
		return
	}

	if req.OrganizationID == "" || req.ChatID == "" {
		h.sendError(sess.client, "organizationId and chatId are required")
		return
	}

	h.hub.JoinRoom(sess.client.ID, domain.RoomKey(req.OrganizationID, req.ChatID))

	if err := h.chatAdapter.RecordJoin(ctx, req.OrganizationID, req.ChatID); err != nil {
		log.Printf("[api] Failed to record join for %s: %v",
			domain.RoomKey(req.OrganizationID, req.ChatID), err)
	}

	if err := sess.client.WriteJSON(broadcast.Frame{Event: EventJoined, Data: req}); err != nil {
		log.Printf("[api] Failed to confirm join to %s: %v", sess.client.ID, err)
	}
}

// handleChatMessage processes chat messages. A rejected message is reported
// to the sender only; an accepted one comes back to the whole room, the
// sender included, as a new_message broadcast.
func (h *Handlers) handleChatMessage(ctx context.Context, sess *wsSession, data json.RawMessage) {
	var req messagePayload
	if err := json.Unmarshal(data, &req); err != nil {
		h.sendError(sess.client, "Invalid message payload")
		return
	}

	if req.Sender == "" {
		req.Sender = sess.subject
	}

	if _, err := h.chatAdapter.SendMessage(ctx, req.OrganizationID, req.ChatID, req.Message, req.Sender); err != nil {
		h.sendError(sess.client, rejectReason(err))
	}
}

// rejectReason maps a send failure to the message shown to the sender.
func rejectReason(err error) string {
	errStr := err.Error()
	switch {
	case strings.Contains(errStr, "organizationId and chatId are required"):
		return "organizationId and chatId are required"
	case strings.Contains(errStr, "sender is required"):
		return "sender is required"
	case strings.Contains(errStr, "message text is required"):
		return "message is required"
	case strings.Contains(errStr, "message exceeds maximum length"):
		return "message exceeds maximum length"
	default:
		log.Printf("[api] Failed to send message: %v", err)
		return "Failed to send message"
	}
}

// sendError sends an error frame to a single registered client.
func (h *Handlers) sendError(client *broadcast.Client, message string) {
	if err := client.WriteJSON(broadcast.Frame{
		Event: EventError,
		Data:  errorPayload{Message: message},
	}); err != nil {
		log.Printf("[api] Failed to send error to %s: %v", client.ID, err)
	}
}

// writeFrame writes a frame to a raw connection, for replies before the
// client is registered with the hub.
func writeFrame(c wsConn, frame broadcast.Frame) {
	data, err := json.Marshal(frame)
	if err != nil {
		log.Printf("[api] Failed to marshal frame: %v", err)
		return
	}
	if err := c.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Printf("[api] Failed to write frame: %v", err)
	}
}
