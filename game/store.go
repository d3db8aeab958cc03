package game

import (
	"sync"
	"time"

	"github.com/lifegoals/quest-api/utils"
)

// SessionStore keeps live game sessions keyed by their token. Sessions
// that sit idle past their TTL are swept out by a background goroutine.
type SessionStore struct {
	sessions map[string]*storeEntry
	mutex    sync.RWMutex
	ttl      time.Duration
	cfg      Config
	notifier Notifier
	recorder Recorder
}

type storeEntry struct {
	session   *Session
	expiresAt time.Time
}

// NewSessionStore creates a store whose sessions share the given config
// and hooks. A TTL of 0 defaults to 24 hours.
func NewSessionStore(cfg Config, ttl time.Duration, notifier Notifier, recorder Recorder) *SessionStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	store := &SessionStore{
		sessions: make(map[string]*storeEntry),
		ttl:      ttl,
		cfg:      cfg,
		notifier: notifier,
		recorder: recorder,
	}

	// Start a cleanup goroutine
	go store.cleanupExpiredSessions()

	return store
}

// CreateSession mints a new session on the welcome screen.
func (s *SessionStore) CreateSession() *Session {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	token := utils.GenerateSessionToken()
	session := NewSession(token, s.cfg, s.notifier, s.recorder)
	s.sessions[token] = &storeEntry{
		session:   session,
		expiresAt: time.Now().Add(s.ttl),
	}
	return session
}

// GetSession looks up a live session and refreshes its expiry.
func (s *SessionStore) GetSession(token string) (*Session, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	entry, exists := s.sessions[token]
	if !exists {
		return nil, false
	}

	if time.Now().After(entry.expiresAt) {
		entry.session.Restart()
		delete(s.sessions, token)
		return nil, false
	}

	entry.expiresAt = time.Now().Add(s.ttl)
	return entry.session, true
}

// DeleteSession removes a session, cancelling its timers.
func (s *SessionStore) DeleteSession(token string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if entry, exists := s.sessions[token]; exists {
		entry.session.Restart()
		delete(s.sessions, token)
	}
}

// Count returns the number of live sessions.
func (s *SessionStore) Count() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.sessions)
}

func (s *SessionStore) cleanupExpiredSessions() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		s.mutex.Lock()
		now := time.Now()
		cleaned := 0
		for token, entry := range s.sessions {
			if now.After(entry.expiresAt) {
				entry.session.Restart()
				delete(s.sessions, token)
				cleaned++
			}
		}
		if cleaned > 0 {
			utils.LogInfo("Cleaned up %d expired game sessions", cleaned)
		}
		s.mutex.Unlock()
	}
}
