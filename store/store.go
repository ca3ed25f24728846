// Package store is the in-memory source of truth for editing sessions.
// Nothing here survives a restart; proposal history lives only as long as
// the process, mirroring the session-scoped state of the original editor.
package store

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/deckdraft/proposal-backend/models"
)

// SessionStore holds all live editing sessions keyed by session id.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	now func() time.Time
}

// NewSessionStore returns an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// NewSession creates a session in the upload phase with the assistant
// greeting already in its transcript.
func (st *SessionStore) NewSession() *Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	now := st.now()
	s := &Session{
		id:        uuid.NewString(),
		createdAt: now,
		phase:     PhaseUpload,
		messages: []models.Message{
			models.NewMessage(models.SenderAI, models.AssistantGreeting, now),
		},
		now: st.now,
	}
	st.sessions[s.id] = s
	return s
}

// Get returns the session with the given id.
func (st *SessionStore) Get(id string) (*Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	return s, ok
}

// Delete discards a session and everything it holds.
func (st *SessionStore) Delete(id string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.sessions[id]; !ok {
		return false
	}
	delete(st.sessions, id)
	return true
}

// Len returns the number of live sessions.
func (st *SessionStore) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}
