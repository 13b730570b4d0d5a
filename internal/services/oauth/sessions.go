package oauth

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Refresh tokens outlive access tokens; rotation keeps each one single-use.
const refreshLifetime = 24 * time.Hour

type Session struct {
	ID           string    `json:"id"`
	RefreshToken string    `json:"refresh_token"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// SessionStore holds anonymous sessions keyed by refresh token.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]Session),
	}
}

func (s *SessionStore) CreateSession() Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	session := Session{
		ID:           uuid.New().String(),
		RefreshToken: uuid.New().String(),
		CreatedAt:    time.Now(),
		ExpiresAt:    time.Now().Add(refreshLifetime),
	}

	s.sessions[session.RefreshToken] = session
	return session
}

func (s *SessionStore) GetSession(refreshToken string) (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, exists := s.sessions[refreshToken]
	if !exists || time.Now().After(session.ExpiresAt) {
		return Session{}, false
	}
	return session, true
}

// RefreshSession rotates the refresh token. The session ID survives; the
// old refresh token is invalidated.
func (s *SessionStore) RefreshSession(oldRefreshToken string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	oldSession, exists := s.sessions[oldRefreshToken]
	if !exists || time.Now().After(oldSession.ExpiresAt) {
		return Session{}, false
	}

	newSession := Session{
		ID:           oldSession.ID,
		RefreshToken: uuid.New().String(),
		CreatedAt:    time.Now(),
		ExpiresAt:    time.Now().Add(refreshLifetime),
	}

	delete(s.sessions, oldRefreshToken)
	s.sessions[newSession.RefreshToken] = newSession

	return newSession, true
}
