package repositories

import (
	"context"
	"encoding/json"

	"course-assistant/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// Redis key prefix for session history lists
	sessionKeyPrefix = "session:history:"
)

// RedisSessionRepository implements SessionRepository using a Redis list per
// session. The history bound is enforced with LTRIM, which keeps appends for
// one session atomic without any client-side locking.
type RedisSessionRepository struct {
	client     *redis.Client
	maxHistory int
}

// NewRedisSessionRepository creates a Redis-based session repository keeping
// the last maxHistory exchanges per session.
func NewRedisSessionRepository(client *redis.Client, maxHistory int) *RedisSessionRepository {
	if maxHistory <= 0 {
		maxHistory = 2
	}
	return &RedisSessionRepository{
		client:     client,
		maxHistory: maxHistory,
	}
}

// CreateSession returns a new unique session id. No key is written until the
// first exchange lands; Redis lists spring into existence on RPUSH.
func (r *RedisSessionRepository) CreateSession(ctx context.Context) (string, error) {
	return uuid.New().String(), nil
}

// AddExchange appends one question/answer pair and trims to the bound
func (r *RedisSessionRepository) AddExchange(ctx context.Context, sessionID, question, answer string) error {
	userJSON, err := json.Marshal(models.ChatMessage{Role: "user", Content: question})
	if err != nil {
		return NewSessionRepositoryError("add_exchange", sessionID, err)
	}
	assistantJSON, err := json.Marshal(models.ChatMessage{Role: "assistant", Content: answer})
	if err != nil {
		return NewSessionRepositoryError("add_exchange", sessionID, err)
	}

	key := sessionKeyPrefix + sessionID
	maxMessages := int64(r.maxHistory * 2)

	pipe := r.client.TxPipeline()
	pipe.RPush(ctx, key, userJSON, assistantJSON)
	pipe.LTrim(ctx, key, -maxMessages, -1)

	if _, err := pipe.Exec(ctx); err != nil {
		return NewSessionRepositoryError("add_exchange", sessionID, err)
	}
	return nil
}

// GetHistory returns the session's messages in chronological order
func (r *RedisSessionRepository) GetHistory(ctx context.Context, sessionID string) ([]models.ChatMessage, error) {
	key := sessionKeyPrefix + sessionID

	entries, err := r.client.LRange(ctx, key, 0, -1).Result()
	if err == redis.Nil {
		return []models.ChatMessage{}, nil
	}
	if err != nil {
		return nil, NewSessionRepositoryError("get_history", sessionID, err)
	}

	history := make([]models.ChatMessage, 0, len(entries))
	for _, entry := range entries {
		var msg models.ChatMessage
		if err := json.Unmarshal([]byte(entry), &msg); err != nil {
			return nil, NewSessionRepositoryError("get_history", sessionID, err)
		}
		history = append(history, msg)
	}
	return history, nil
}

// ClearSession drops all history for the session id
func (r *RedisSessionRepository) ClearSession(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, sessionKeyPrefix+sessionID).Err(); err != nil {
		return NewSessionRepositoryError("clear_session", sessionID, err)
	}
	return nil
}
