// Package service holds the application services above the repositories:
// the household session gate and outbound email.
package service

import (
	"errors"
	"sync"
	"time"

	"mymeals/internal/security"
)

var (
	ErrInvalidPassword = errors.New("invalid household password")
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
)

// Session is one authenticated browser.
type Session struct {
	ID        string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// AuthService gates the app behind a single shared household password.
// Sessions live in memory; restarting the server signs everyone out. With
// no password configured the gate is open and every request passes.
type AuthService struct {
	mu              sync.Mutex
	passwordHash    string
	sessions        map[string]*Session
	sessionDuration time.Duration
}

// NewAuthService hashes the household password up front. An empty password
// disables the gate.
func NewAuthService(password string, sessionDuration time.Duration) (*AuthService, error) {
	s := &AuthService{
		sessions:        make(map[string]*Session),
		sessionDuration: sessionDuration,
	}
	if password != "" {
		hash, err := security.HashPassword(password)
		if err != nil {
			return nil, err
		}
		s.passwordHash = hash
	}
	return s, nil
}

// Enabled reports whether a household password is configured.
func (s *AuthService) Enabled() bool {
	return s.passwordHash != ""
}

// Login checks the household password and creates a session.
func (s *AuthService) Login(password string) (*Session, error) {
	if !s.Enabled() {
		return nil, ErrInvalidPassword
	}
	if !security.CheckPassword(password, s.passwordHash) {
		return nil, ErrInvalidPassword
	}

	now := time.Now()
	session := &Session{
		ID:        security.GenerateSessionID(),
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionDuration),
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()
	return session, nil
}

// ValidateSession checks a session ID. An expired session is removed.
func (s *AuthService) ValidateSession(sessionID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if time.Now().After(session.ExpiresAt) {
		delete(s.sessions, sessionID)
		return nil, ErrSessionExpired
	}
	return session, nil
}

// Logout removes the session. Unknown IDs are a no-op.
func (s *AuthService) Logout(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}

// CleanupExpiredSessions removes sessions past their expiry and returns
// how many were dropped. The server calls this periodically.
func (s *AuthService) CleanupExpiredSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	removed := 0
	for id, session := range s.sessions {
		if now.After(session.ExpiresAt) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}
