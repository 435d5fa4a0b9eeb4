package ephemeral

import (
	"time"
)

// SessionStore maps live session ids to the email they were issued for.
// Removing an id revokes the session even though its token is still signed.
type SessionStore struct {
	core *coreStore
}

func NewSessionStore(maxSessions int) *SessionStore {
	return &SessionStore{core: newCoreStore(maxSessions)}
}

func (s *SessionStore) Set(sessionID, email string, ttl time.Duration) error {
	return s.core.set(sessionID, email, ttl)
}

func (s *SessionStore) Get(sessionID string) (string, bool) {
	return s.core.get(sessionID)
}

func (s *SessionStore) Delete(sessionID string) {
	s.core.delete(sessionID)
}

// Sweep drops expired sessions immediately and reports how many were removed.
func (s *SessionStore) Sweep() int {
	return s.core.sweep()
}

// Close stops the background cleanup.
func (s *SessionStore) Close() {
	s.core.close()
}
