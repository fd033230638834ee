package broadcast

import "sync"

// SessionStore binds a connection id to the credential it authenticated
// with. Sessions are strictly connection-scoped: created on successful
// authentication, destroyed on disconnect. No other component holds raw
// credentials.
type SessionStore struct {
	mu     sync.RWMutex
	byConn map[string]string // connectionID -> token
}

// NewSessionStore creates an empty SessionStore.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		byConn: make(map[string]string),
	}
}

// Bind stores the token for the connection, overwriting any prior session.
func (s *SessionStore) Bind(connectionID, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byConn[connectionID] = token
}

// Lookup returns the token bound to the connection, if any.
func (s *SessionStore) Lookup(connectionID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	token, ok := s.byConn[connectionID]
	return token, ok
}

// Unbind removes the connection's session. A no-op for unknown connections.
func (s *SessionStore) Unbind(connectionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byConn, connectionID)
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byConn)
}
