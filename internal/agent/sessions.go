package agent

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionStore holds the in-memory conversations. Each session's message
// sequence is isolated; only the immutable handler registry is shared
// across them. Idle sessions are dropped after maxAge to bound memory.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Conversation

	maxAge  time.Duration
	factory func() *Conversation
}

// NewSessionStore creates a session store and starts its background
// cleanup. factory builds a fresh Conversation wired with the process-wide
// model, router and gate.
func NewSessionStore(maxAge, cleanupInterval time.Duration, factory func() *Conversation) *SessionStore {
	s := &SessionStore{
		sessions: make(map[uuid.UUID]*Conversation),
		maxAge:   maxAge,
		factory:  factory,
	}
	go s.cleanupExpired(cleanupInterval)
	return s
}

// Create starts a new conversation and registers it.
func (s *SessionStore) Create() *Conversation {
	conv := s.factory()
	s.mu.Lock()
	s.sessions[conv.ID] = conv
	s.mu.Unlock()
	log.Printf("[Sessions] Created conversation %s.", conv.ID)
	return conv
}

// Get retrieves a conversation by ID.
func (s *SessionStore) Get(id uuid.UUID) (*Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv, ok := s.sessions[id]
	return conv, ok
}

// Count reports the number of live conversations.
func (s *SessionStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *SessionStore) cleanupExpired(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-s.maxAge)

		s.mu.Lock()
		removed := 0
		for id, conv := range s.sessions {
			if conv.LastActive().Before(cutoff) {
				delete(s.sessions, id)
				removed++
			}
		}
		remaining := len(s.sessions)
		s.mu.Unlock()

		if removed > 0 {
			log.Printf("[Sessions] Cleaned up %d expired conversations, %d remaining.", removed, remaining)
		}
	}
}
