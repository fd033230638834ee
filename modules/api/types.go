package api

import domain "github.com/example/chat-relay/domain/chat"

// LoginRequest represents a user login request.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse represents an authentication token response.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// HistoryResponse represents a single chat's message log.
type HistoryResponse struct {
	Messages []domain.Message `json:"messages"`
}

// OrganizationResponse represents every chat known for an organization.
type OrganizationResponse struct {
	Chats map[string]HistoryResponse `json:"chats"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
