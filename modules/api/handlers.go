package api

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	domain "github.com/example/chat-relay/domain/chat"
	"github.com/example/chat-relay/modules/auth"
	"github.com/example/chat-relay/modules/broadcast"
	"github.com/example/chat-relay/modules/chat"
)

// Handlers contains HTTP and WebSocket handlers for the API.
type Handlers struct {
	authAdapter auth.AuthPort
	chatAdapter chat.ChatPort
	hub         *broadcast.Hub
	dispatch    map[string]wsEventHandler
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(authAdapter auth.AuthPort, chatAdapter chat.ChatPort, hub *broadcast.Hub) *Handlers {
	h := &Handlers{
		authAdapter: authAdapter,
		chatAdapter: chatAdapter,
		hub:         hub,
	}
	h.dispatch = map[string]wsEventHandler{
		EventAck:         h.handleAck,
		EventJoin:        h.handleJoin,
		EventChatMessage: h.handleChatMessage,
	}
	return h
}

// Login handles user login (POST /auth).
func (h *Handlers) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid request body",
		})
	}

	if req.Username == "" || req.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "bad_request",
			Message: "Username and password are required",
		})
	}

	token, err := h.authAdapter.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		if strings.Contains(err.Error(), "invalid username or password") {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Error:   "unauthorized",
				Message: "Invalid username or password",
			})
		}
		log.Printf("[api] Login failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		})
	}

	return c.Status(fiber.StatusOK).JSON(TokenResponse{
		AccessToken: token.AccessToken,
		TokenType:   token.TokenType,
		ExpiresIn:   token.ExpiresIn,
	})
}

// GetOrganization handles organization listing requests
// (GET /:organizationId). Unknown organizations yield an empty chat map,
// never an error.
func (h *Handlers) GetOrganization(c *fiber.Ctx) error {
	organizationID := c.Params("organizationId")

	chats, err := h.chatAdapter.Organization(c.UserContext(), organizationID)
	if err != nil {
		log.Printf("[api] Failed to load organization %s: %v", organizationID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to load organization",
		})
	}

	resp := OrganizationResponse{Chats: make(map[string]HistoryResponse, len(chats))}
	for chatID, messages := range chats {
		if messages == nil {
			messages = []domain.Message{}
		}
		resp.Chats[chatID] = HistoryResponse{Messages: messages}
	}
	return c.Status(fiber.StatusOK).JSON(resp)
}

// GetHistory handles room history requests (GET /:organizationId/:chatId).
// Unknown rooms yield an empty message list, never an error.
func (h *Handlers) GetHistory(c *fiber.Ctx) error {
	organizationID := c.Params("organizationId")
	chatID := c.Params("chatId")

	messages, err := h.chatAdapter.History(c.UserContext(), organizationID, chatID)
	if err != nil {
		log.Printf("[api] Failed to load history for %s: %v",
			domain.RoomKey(organizationID, chatID), err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to load history",
		})
	}

	if messages == nil {
		messages = []domain.Message{}
	}
	return c.Status(fiber.StatusOK).JSON(HistoryResponse{Messages: messages})
}

// HealthCheck handles health check requests (GET /health).
func (h *Handlers) HealthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "healthy",
		"module": "api",
	})
}
