package chat

import "time"

// Message is a single chat message relayed through a room. Messages are
// immutable once created.
type Message struct {
	Text      string `json:"text"`
	Sender    string `json:"sender"`
	Timestamp int64  `json:"timestamp"` // milliseconds since epoch
}

// NewMessage builds a message stamped with the current time. A non-zero
// timestamp supplied by the caller is kept as-is.
func NewMessage(text, sender string, timestamp int64) Message {
	if timestamp == 0 {
		timestamp = time.Now().UnixMilli()
	}
	return Message{
		Text:      text,
		Sender:    sender,
		Timestamp: timestamp,
	}
}

// RoomKey is the canonical identifier of the room for an organization/chat
// pair. The key is opaque everywhere except the organization listing, which
// tracks the two parts separately.
func RoomKey(organizationID, chatID string) string {
	return organizationID + ":" + chatID
}
