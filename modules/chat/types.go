package chat

import (
	"errors"

	domain "github.com/example/chat-relay/domain/chat"
)

// Validation constants.
const (
	MaxMessageLength = 4096
	MaxSenderLength  = 128
)

// Validation errors. These are the "bad request" conditions reported back to
// the originating caller only; nothing is logged or broadcast for them.
var (
	ErrMissingRoom    = errors.New("organizationId and chatId are required")
	ErrMissingSender  = errors.New("sender is required")
	ErrEmptyMessage   = errors.New("message text is required")
	ErrMessageTooLong = errors.New("message exceeds maximum length")
)

// Service names registered in the service container.
const (
	ServiceSendMessage     = "send-message"
	ServiceGetHistory      = "get-history"
	ServiceGetOrganization = "get-organization"
	ServiceRecordJoin      = "record-join"
)

// SendMessageRequest is the request to append and broadcast a message.
// Timestamp is optional; zero means "stamp at creation".
type SendMessageRequest struct {
	OrganizationID string `json:"organization_id"`
	ChatID         string `json:"chat_id"`
	Message        string `json:"message"`
	Sender         string `json:"sender"`
	Timestamp      int64  `json:"timestamp,omitempty"`
}

// SendMessageResponse carries the message as logged.
type SendMessageResponse struct {
	Message domain.Message `json:"message"`
}

// GetHistoryRequest is the request for a room's message history.
type GetHistoryRequest struct {
	OrganizationID string `json:"organization_id"`
	ChatID         string `json:"chat_id"`
}

// GetHistoryResponse carries a room's messages in append order.
type GetHistoryResponse struct {
	Messages []domain.Message `json:"messages"`
}

// GetOrganizationRequest is the request for an organization's chats.
type GetOrganizationRequest struct {
	OrganizationID string `json:"organization_id"`
}

// GetOrganizationResponse maps chatID to that chat's history.
type GetOrganizationResponse struct {
	Chats map[string][]domain.Message `json:"chats"`
}

// RecordJoinRequest registers a room under its organization on join.
type RecordJoinRequest struct {
	OrganizationID string `json:"organization_id"`
	ChatID         string `json:"chat_id"`
}

// RecordJoinResponse is the (empty) reply to a RecordJoinRequest.
type RecordJoinResponse struct{}

// validateRoom checks the organization/chat pair of an inbound request.
func validateRoom(organizationID, chatID string) error {
	if organizationID == "" || chatID == "" {
		return ErrMissingRoom
	}
	return nil
}
