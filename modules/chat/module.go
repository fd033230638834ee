package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"

	domain "github.com/example/chat-relay/domain/chat"
	"github.com/example/chat-relay/events"
)

// ChatModule owns the message log and the organization index, and publishes
// a broadcast event for every successfully handled message.
type ChatModule struct {
	store    *MessageStore
	eventBus mono.EventBus
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*ChatModule)(nil)
	_ mono.ServiceProviderModule = (*ChatModule)(nil)
	_ mono.EventBusAwareModule   = (*ChatModule)(nil)
	_ mono.EventEmitterModule    = (*ChatModule)(nil)
	_ mono.HealthCheckableModule = (*ChatModule)(nil)
)

// NewModule creates a new ChatModule.
func NewModule() *ChatModule {
	return &ChatModule{
		store: NewMessageStore(),
	}
}

// Name returns the module name.
func (m *ChatModule) Name() string {
	return "chat"
}

// SetEventBus receives the EventBus from the framework.
func (m *ChatModule) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module can emit.
func (m *ChatModule) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.MessageBroadcastV1.ToBase(),
	}
}

// Start initializes the chat module.
func (m *ChatModule) Start(_ context.Context) error {
	log.Println("[chat] Module started")
	return nil
}

// Stop gracefully shuts down the module.
func (m *ChatModule) Stop(_ context.Context) error {
	log.Println("[chat] Module stopped")
	return nil
}

// Health returns the health status.
func (m *ChatModule) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *ChatModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container,
		ServiceSendMessage,
		json.Unmarshal,
		json.Marshal,
		m.handleSendMessage,
	); err != nil {
		return fmt.Errorf("failed to register send-message service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container,
		ServiceGetHistory,
		json.Unmarshal,
		json.Marshal,
		m.handleGetHistory,
	); err != nil {
		return fmt.Errorf("failed to register get-history service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container,
		ServiceGetOrganization,
		json.Unmarshal,
		json.Marshal,
		m.handleGetOrganization,
	); err != nil {
		return fmt.Errorf("failed to register get-organization service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container,
		ServiceRecordJoin,
		json.Unmarshal,
		json.Marshal,
		m.handleRecordJoin,
	); err != nil {
		return fmt.Errorf("failed to register record-join service: %w", err)
	}

	log.Printf("[chat] Registered services: %s, %s, %s, %s",
		ServiceSendMessage, ServiceGetHistory, ServiceGetOrganization, ServiceRecordJoin)
	return nil
}

// handleSendMessage validates the request, appends the message to the room's
// log, and publishes the broadcast event. A malformed request fails without
// touching the log.
func (m *ChatModule) handleSendMessage(_ context.Context, req SendMessageRequest, _ *mono.Msg) (SendMessageResponse, error) {
	if err := validateRoom(req.OrganizationID, req.ChatID); err != nil {
		return SendMessageResponse{}, err
	}
	if req.Sender == "" || len(req.Sender) > MaxSenderLength {
		return SendMessageResponse{}, ErrMissingSender
	}
	if req.Message == "" {
		return SendMessageResponse{}, ErrEmptyMessage
	}
	if len(req.Message) > MaxMessageLength {
		return SendMessageResponse{}, ErrMessageTooLong
	}

	msg := domain.NewMessage(req.Message, req.Sender, req.Timestamp)
	m.store.Append(req.OrganizationID, req.ChatID, msg)

	event := events.MessageBroadcastEvent{
		OrganizationID: req.OrganizationID,
		ChatID:         req.ChatID,
		RoomKey:        domain.RoomKey(req.OrganizationID, req.ChatID),
		Message:        msg,
	}
	// Fan-out is best-effort: the message is already logged, so a publish
	// failure is not surfaced to the sender.
	if err := events.MessageBroadcastV1.Publish(m.eventBus, event, nil); err != nil {
		log.Printf("[chat] Failed to publish MessageBroadcast event: %v", err)
	}

	return SendMessageResponse{Message: msg}, nil
}

// handleGetHistory returns a room's log in append order.
func (m *ChatModule) handleGetHistory(_ context.Context, req GetHistoryRequest, _ *mono.Msg) (GetHistoryResponse, error) {
	return GetHistoryResponse{
		Messages: m.store.History(req.OrganizationID, req.ChatID),
	}, nil
}

// handleGetOrganization returns every chat known for the organization.
func (m *ChatModule) handleGetOrganization(_ context.Context, req GetOrganizationRequest, _ *mono.Msg) (GetOrganizationResponse, error) {
	return GetOrganizationResponse{
		Chats: m.store.Organization(req.OrganizationID),
	}, nil
}

// handleRecordJoin registers the room under its organization.
func (m *ChatModule) handleRecordJoin(_ context.Context, req RecordJoinRequest, _ *mono.Msg) (RecordJoinResponse, error) {
	if err := validateRoom(req.OrganizationID, req.ChatID); err != nil {
		return RecordJoinResponse{}, err
	}
	m.store.RecordRoom(req.OrganizationID, req.ChatID)
	return RecordJoinResponse{}, nil
}

// Store returns the message store.
func (m *ChatModule) Store() *MessageStore {
	return m.store
}
