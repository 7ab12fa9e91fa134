package services

import (
	"sync"

	"github.com/visaprep-ai/backend/internal/models"
)

// sessionStore is the in-process registry of live interview sessions. Each
// entry carries its own mutex so at most one answer is processed per session
// at a time, without any cross-session contention.
type sessionStore struct {
	mu    sync.Mutex
	items map[string]*sessionEntry
}

type sessionEntry struct {
	// mu serializes SubmitAnswer/ProcessStreamedAnswer for this session.
	mu   sync.Mutex
	sess *models.Session
}

func newSessionStore() *sessionStore {
	return &sessionStore{items: make(map[string]*sessionEntry)}
}

func (s *sessionStore) Insert(sess *models.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[sess.SessionID] = &sessionEntry{sess: sess}
}

func (s *sessionStore) Lookup(sessionID string) (*sessionEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[sessionID]
	return e, ok
}

func (s *sessionStore) Remove(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, sessionID)
}

func (s *sessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
