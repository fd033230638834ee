package events

import (
	"github.com/go-monolith/mono/pkg/helper"

	domain "github.com/example/chat-relay/domain/chat"
)

// MessageBroadcastEvent is emitted by the chat module after a message has
// been appended to a room's log. The broadcast module consumes it to fan the
// message out to every current member of the room.
type MessageBroadcastEvent struct {
	OrganizationID string         `json:"organization_id"`
	ChatID         string         `json:"chat_id"`
	RoomKey        string         `json:"room_key"`
	Message        domain.Message `json:"message"`
}

// MessageBroadcastV1 is published once per successfully handled chat message.
var MessageBroadcastV1 = helper.EventDefinition[MessageBroadcastEvent](
	"relay",
	"MessageBroadcast",
	"v1",
)
