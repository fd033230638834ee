package chat

import (
	"sync"

	domain "github.com/example/chat-relay/domain/chat"
)

// MessageStore is the in-memory append-only message log, plus the secondary
// index from organization to the chats known for it. Entries are created
// lazily on first join or message and live for the process lifetime.
type MessageStore struct {
	mu       sync.RWMutex
	messages map[string][]domain.Message    // room key -> ordered log
	orgRooms map[string]map[string]struct{} // organizationID -> set of chatIDs
}

// NewMessageStore creates an empty MessageStore.
func NewMessageStore() *MessageStore {
	return &MessageStore{
		messages: make(map[string][]domain.Message),
		orgRooms: make(map[string]map[string]struct{}),
	}
}

// Append adds a message to the room's log, creating the log and the
// organization index entry lazily. Append order equals call order per room.
func (s *MessageStore) Append(organizationID, chatID string, msg domain.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := domain.RoomKey(organizationID, chatID)
	s.messages[key] = append(s.messages[key], msg)
	s.recordRoomLocked(organizationID, chatID)
}

// RecordRoom registers a chat under its organization without appending
// anything. Called on join so the organization listing includes rooms that
// have members but no messages yet.
func (s *MessageStore) RecordRoom(organizationID, chatID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recordRoomLocked(organizationID, chatID)
}

func (s *MessageStore) recordRoomLocked(organizationID, chatID string) {
	if s.orgRooms[organizationID] == nil {
		s.orgRooms[organizationID] = make(map[string]struct{})
	}
	s.orgRooms[organizationID][chatID] = struct{}{}
}

// History returns a copy of the room's log in append order. An unknown room
// yields an empty slice, not an error.
func (s *MessageStore) History(organizationID, chatID string) []domain.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages := s.messages[domain.RoomKey(organizationID, chatID)]
	result := make([]domain.Message, len(messages))
	copy(result, messages)
	return result
}

// Organization returns the history of every chat known for the organization,
// keyed by chatID. An unknown organization yields an empty map.
func (s *MessageStore) Organization(organizationID string) map[string][]domain.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string][]domain.Message, len(s.orgRooms[organizationID]))
	for chatID := range s.orgRooms[organizationID] {
		messages := s.messages[domain.RoomKey(organizationID, chatID)]
		history := make([]domain.Message, len(messages))
		copy(history, messages)
		result[chatID] = history
	}
	return result
}

// RoomsOf returns the set of chatIDs known for the organization.
func (s *MessageStore) RoomsOf(organizationID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]string, 0, len(s.orgRooms[organizationID]))
	for chatID := range s.orgRooms[organizationID] {
		result = append(result, chatID)
	}
	return result
}

// Len returns the number of messages logged for the room.
func (s *MessageStore) Len(organizationID, chatID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages[domain.RoomKey(organizationID, chatID)])
}
