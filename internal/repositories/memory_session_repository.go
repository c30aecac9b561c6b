package repositories

import (
	"context"
	"sync"

	"course-assistant/internal/models"

	"github.com/google/uuid"
)

// MemorySessionRepository implements SessionRepository with an in-process
// map. Used when Redis is unavailable and in tests. Appends for the same
// session are serialized by a single lock; reads take the same lock and copy
// out, so concurrent queries never observe a partially appended exchange.
type MemorySessionRepository struct {
	mu         sync.Mutex
	sessions   map[string][]models.ChatMessage
	maxHistory int
}

// NewMemorySessionRepository creates an in-memory session repository keeping
// the last maxHistory exchanges per session.
func NewMemorySessionRepository(maxHistory int) *MemorySessionRepository {
	if maxHistory <= 0 {
		maxHistory = 2
	}
	return &MemorySessionRepository{
		sessions:   make(map[string][]models.ChatMessage),
		maxHistory: maxHistory,
	}
}

// CreateSession returns a new unique session id
func (r *MemorySessionRepository) CreateSession(ctx context.Context) (string, error) {
	id := uuid.New().String()
	r.mu.Lock()
	r.sessions[id] = nil
	r.mu.Unlock()
	return id, nil
}

// AddExchange appends one question/answer pair, evicting the oldest exchange
// beyond the history bound.
func (r *MemorySessionRepository) AddExchange(ctx context.Context, sessionID, question, answer string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	history := append(r.sessions[sessionID],
		models.ChatMessage{Role: "user", Content: question},
		models.ChatMessage{Role: "assistant", Content: answer},
	)

	// Two messages per exchange; drop from the front.
	maxMessages := r.maxHistory * 2
	if len(history) > maxMessages {
		history = history[len(history)-maxMessages:]
	}

	r.sessions[sessionID] = history
	return nil
}

// GetHistory returns the session's messages in chronological order
func (r *MemorySessionRepository) GetHistory(ctx context.Context, sessionID string) ([]models.ChatMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	history := r.sessions[sessionID]
	out := make([]models.ChatMessage, len(history))
	copy(out, history)
	return out, nil
}

// ClearSession drops all history for the session id
func (r *MemorySessionRepository) ClearSession(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	delete(r.sessions, sessionID)
	r.mu.Unlock()
	return nil
}
