package storage

import (
	"sync"

	"github.com/darkroom-tools/darkroom/internal/session"
)

// Store holds every live editing session for the process lifetime. Nothing
// is persisted; a restart starts from a clean slate.
type Store struct {
	sessions map[string]*session.Session
	mu       sync.RWMutex
}

func New() *Store {
	return &Store{
		sessions: make(map[string]*session.Session),
	}
}

func (s *Store) Get(sessionID string) (*session.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, exists := s.sessions[sessionID]
	return sess, exists
}

func (s *Store) Set(sessionID string, sess *session.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = sess
}

func (s *Store) GetAll() map[string]*session.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]*session.Session, len(s.sessions))
	for k, v := range s.sessions {
		result[k] = v
	}
	return result
}

// Delete tears the session down, releasing its display handles, and removes
// it from the store.
func (s *Store) Delete(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, exists := s.sessions[sessionID]; exists {
		sess.StartOver()
	}
	delete(s.sessions, sessionID)
}

// Teardown releases every remaining live display handle across all sessions.
// Called on process shutdown.
func (s *Store) Teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.sessions {
		sess.StartOver()
		delete(s.sessions, id)
	}
}
