// Package history keeps the bounded, session-scoped conversation memory for
// the assistant dialogue. Each session owns an ordered log of role-tagged
// turns capped at the most recent MaxTurns; the oldest turns fall off first.
//
// The store is process-wide mutable state guarded by a mutex. Sessions are
// dropped only through Reset; expiry of abandoned sessions is the session
// layer's concern.
package history

import (
	"sync"

	"github.com/devconnect/chat-service/internal/ai"
)

// MaxTurns is the per-session cap on retained conversation turns.
const MaxTurns = 30

// Store is a concurrency-safe map of session id → conversation turns.
// The zero value is not usable; construct with New.
type Store struct {
	mu       sync.Mutex
	sessions map[string][]ai.Message
}

// New returns an empty Store.
func New() *Store {
	return &Store{sessions: make(map[string][]ai.Message)}
}

// Get returns a copy of the session's turns, oldest first. Unknown sessions
// yield an empty slice.
func (s *Store) Get(sessionID string) []ai.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	turns := s.sessions[sessionID]
	out := make([]ai.Message, len(turns))
	copy(out, turns)
	return out
}

// Append adds one turn and re-enforces the cap.
func (s *Store) Append(sessionID string, turn ai.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = cap30(append(s.sessions[sessionID], turn))
}

// Set replaces the session's turns wholesale (capped). The input slice is
// copied so callers keep ownership of theirs.
func (s *Store) Set(sessionID string, turns []ai.Message) {
	clipped := cap30(turns)
	own := make([]ai.Message, len(clipped))
	copy(own, clipped)

	s.mu.Lock()
	s.sessions[sessionID] = own
	s.mu.Unlock()
}

// Reset drops the session entirely.
func (s *Store) Reset(sessionID string) {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
}

// LastAssistant returns the most recent assistant turn, or "" when the
// session has none. Used for anti-repetition checks.
func (s *Store) LastAssistant(sessionID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	turns := s.sessions[sessionID]
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == ai.RoleAssistant {
			return turns[i].Content
		}
	}
	return ""
}

// cap30 keeps the most recent MaxTurns entries.
func cap30(turns []ai.Message) []ai.Message {
	if len(turns) > MaxTurns {
		return turns[len(turns)-MaxTurns:]
	}
	return turns
}
