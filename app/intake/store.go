package intake

import (
	"sync"
	"time"
)

// DefaultMaxSessions caps how many questionnaires may run at the same time.
const DefaultMaxSessions = 10

// Store owns the session map. Every read and mutation happens under its
// lock: telebot dispatches updates on separate goroutines, so both the map
// structure and per-session fields need guarding.
type Store struct {
	mu       sync.Mutex
	limit    int
	sessions map[int64]*Session
}

// NewStore creates a session store with the given concurrent session cap.
// A non-positive limit falls back to DefaultMaxSessions.
func NewStore(limit int) *Store {
	if limit <= 0 {
		limit = DefaultMaxSessions
	}
	return &Store{
		limit:    limit,
		sessions: make(map[int64]*Session),
	}
}

// Begin creates a fresh session at the first step, replacing any previous
// one for the chat. The capacity check and the insert run under one lock so
// concurrent starts cannot over-admit; the check comes first, so a chat that
// already holds a session is still rejected at capacity.
func (s *Store) Begin(chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sessions) >= s.limit {
		return ErrCapacity
	}
	s.sessions[chatID] = &Session{
		ChatID:    chatID,
		Step:      StepChildName,
		StartedAt: time.Now(),
	}
	return nil
}

// Remove deletes the chat's session and reports whether one existed.
func (s *Store) Remove(chatID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[chatID]
	delete(s.sessions, chatID)
	return ok
}

// Take atomically snapshots the chat's session by value and removes it.
func (s *Store) Take(chatID int64) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[chatID]
	if !ok {
		return Session{}, false
	}
	delete(s.sessions, chatID)
	return *sess, true
}

// Step returns the chat's current step.
func (s *Store) Step(chatID int64) (Step, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[chatID]
	if !ok {
		return "", false
	}
	return sess.Step, true
}

// Update runs fn on the chat's session under the store lock. It reports
// whether a session existed; fn must not block.
func (s *Store) Update(chatID int64, fn func(*Session)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[chatID]
	if !ok {
		return false
	}
	fn(sess)
	return true
}

// Len reports the number of active sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
