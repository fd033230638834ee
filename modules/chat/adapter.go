package chat

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"

	domain "github.com/example/chat-relay/domain/chat"
)

// ChatPort defines the interface for message log operations.
type ChatPort interface {
	SendMessage(ctx context.Context, organizationID, chatID, text, sender string) (domain.Message, error)
	History(ctx context.Context, organizationID, chatID string) ([]domain.Message, error)
	Organization(ctx context.Context, organizationID string) (map[string][]domain.Message, error)
	RecordJoin(ctx context.Context, organizationID, chatID string) error
}

// ChatAdapter implements ChatPort using the service container.
type ChatAdapter struct {
	container mono.ServiceContainer
}

// NewChatAdapter creates a new ChatAdapter.
func NewChatAdapter(container mono.ServiceContainer) *ChatAdapter {
	return &ChatAdapter{container: container}
}

// SendMessage appends a message to the room's log and triggers the broadcast.
func (a *ChatAdapter) SendMessage(ctx context.Context, organizationID, chatID, text, sender string) (domain.Message, error) {
	req := SendMessageRequest{
		OrganizationID: organizationID,
		ChatID:         chatID,
		Message:        text,
		Sender:         sender,
	}
	var resp SendMessageResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceSendMessage,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return domain.Message{}, fmt.Errorf("send-message request failed: %w", err)
	}
	return resp.Message, nil
}

// History returns a room's messages in append order.
func (a *ChatAdapter) History(ctx context.Context, organizationID, chatID string) ([]domain.Message, error) {
	req := GetHistoryRequest{OrganizationID: organizationID, ChatID: chatID}
	var resp GetHistoryResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceGetHistory,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("get-history request failed: %w", err)
	}
	return resp.Messages, nil
}

// Organization returns every chat known for the organization.
func (a *ChatAdapter) Organization(ctx context.Context, organizationID string) (map[string][]domain.Message, error) {
	req := GetOrganizationRequest{OrganizationID: organizationID}
	var resp GetOrganizationResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceGetOrganization,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("get-organization request failed: %w", err)
	}
	return resp.Chats, nil
}

// RecordJoin registers the room under its organization.
func (a *ChatAdapter) RecordJoin(ctx context.Context, organizationID, chatID string) error {
	req := RecordJoinRequest{OrganizationID: organizationID, ChatID: chatID}
	var resp RecordJoinResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceRecordJoin,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return fmt.Errorf("record-join request failed: %w", err)
	}
	return nil
}
