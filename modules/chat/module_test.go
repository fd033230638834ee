package chat

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestChatModule_HandleSendMessage_Rejections(t *testing.T) {
	m := NewModule()

	tests := []struct {
		name    string
		req     SendMessageRequest
		wantErr error
	}{
		{
			name:    "missing organization",
			req:     SendMessageRequest{ChatID: "chat1", Message: "hi", Sender: "alice"},
			wantErr: ErrMissingRoom,
		},
		{
			name:    "missing chat",
			req:     SendMessageRequest{OrganizationID: "org1", Message: "hi", Sender: "alice"},
			wantErr: ErrMissingRoom,
		},
		{
			name:    "missing sender",
			req:     SendMessageRequest{OrganizationID: "org1", ChatID: "chat1", Message: "hi"},
			wantErr: ErrMissingSender,
		},
		{
			name: "sender too long",
			req: SendMessageRequest{
				OrganizationID: "org1",
				ChatID:         "chat1",
				Message:        "hi",
				Sender:         strings.Repeat("a", MaxSenderLength+1),
			},
			wantErr: ErrMissingSender,
		},
		{
			name:    "empty message",
			req:     SendMessageRequest{OrganizationID: "org1", ChatID: "chat1", Sender: "alice"},
			wantErr: ErrEmptyMessage,
		},
		{
			name: "message too long",
			req: SendMessageRequest{
				OrganizationID: "org1",
				ChatID:         "chat1",
				Message:        strings.Repeat("x", MaxMessageLength+1),
				Sender:         "alice",
			},
			wantErr: ErrMessageTooLong,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.handleSendMessage(context.Background(), tt.req, nil)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("handleSendMessage() error = %v, want %v", err, tt.wantErr)
			}

			// A rejected message must never reach the log
			if n := m.store.Len(tt.req.OrganizationID, tt.req.ChatID); n != 0 {
				t.Errorf("store.Len() = %d after rejection, want 0", n)
			}
		})
	}
}

func TestChatModule_HandleGetHistory(t *testing.T) {
	m := NewModule()

	resp, err := m.handleGetHistory(context.Background(), GetHistoryRequest{
		OrganizationID: "org1",
		ChatID:         "chat1",
	}, nil)
	if err != nil {
		t.Fatalf("handleGetHistory() error = %v", err)
	}
	if len(resp.Messages) != 0 {
		t.Errorf("unknown room returned %d messages, want 0", len(resp.Messages))
	}
}

func TestChatModule_HandleRecordJoin(t *testing.T) {
	m := NewModule()

	if _, err := m.handleRecordJoin(context.Background(), RecordJoinRequest{
		OrganizationID: "org1",
		ChatID:         "chat1",
	}, nil); err != nil {
		t.Fatalf("handleRecordJoin() error = %v", err)
	}

	resp, err := m.handleGetOrganization(context.Background(), GetOrganizationRequest{
		OrganizationID: "org1",
	}, nil)
	if err != nil {
		t.Fatalf("handleGetOrganization() error = %v", err)
	}
	if _, ok := resp.Chats["chat1"]; !ok {
		t.Errorf("organization listing missing joined room, got %v", resp.Chats)
	}

	// Missing ids are rejected
	if _, err := m.handleRecordJoin(context.Background(), RecordJoinRequest{}, nil); !errors.Is(err, ErrMissingRoom) {
		t.Errorf("handleRecordJoin() error = %v, want %v", err, ErrMissingRoom)
	}
}
