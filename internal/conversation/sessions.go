package conversation

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/circlegod/circlegod/pkg/models"
)

// ErrSessionNotFound is returned when a session ID does not exist.
type ErrSessionNotFound struct {
	ID string
}

func (e *ErrSessionNotFound) Error() string {
	return "session not found: " + e.ID
}

// SessionStore persists multi-turn chat sessions.
type SessionStore interface {
	CreateSession(ctx context.Context, session *models.ChatSession) error
	GetSession(ctx context.Context, id string) (*models.ChatSession, error)
	AppendMessages(ctx context.Context, id string, msgs ...models.ChatMessage) error
	ListSessions(ctx context.Context, workspace string, limit int) ([]models.ChatSession, error)
	DeleteSession(ctx context.Context, id string) error
}

// MemorySessionStore is a thread-safe in-memory SessionStore.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*models.ChatSession
}

// NewMemorySessionStore creates an empty in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]*models.ChatSession)}
}

// CreateSession stores a new session.
func (s *MemorySessionStore) CreateSession(_ context.Context, session *models.ChatSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now
	s.sessions[session.ID] = session
	return nil
}

// GetSession returns a copy of the session by ID.
func (s *MemorySessionStore) GetSession(_ context.Context, id string) (*models.ChatSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, &ErrSessionNotFound{ID: id}
	}
	cp := *session
	cp.Messages = append([]models.ChatMessage(nil), session.Messages...)
	return &cp, nil
}

// AppendMessages adds messages to the end of a session. Message order
// is insertion order and is never rewritten.
func (s *MemorySessionStore) AppendMessages(_ context.Context, id string, msgs ...models.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return &ErrSessionNotFound{ID: id}
	}
	session.Messages = append(session.Messages, msgs...)
	session.UpdatedAt = time.Now().UTC()
	return nil
}

// ListSessions returns sessions for a workspace, most recently updated
// first.
func (s *MemorySessionStore) ListSessions(_ context.Context, workspace string, limit int) ([]models.ChatSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []models.ChatSession
	for _, sess := range s.sessions {
		if sess.Workspace == workspace {
			result = append(result, *sess)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].UpdatedAt.After(result[j].UpdatedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// DeleteSession removes a session.
func (s *MemorySessionStore) DeleteSession(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return &ErrSessionNotFound{ID: id}
	}
	delete(s.sessions, id)
	return nil
}
