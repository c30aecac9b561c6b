package repositories

import (
	"context"

	"course-assistant/internal/models"
)

// SessionRepository maintains a bounded ordered conversation history per
// session id. Histories keep the last maxHistory exchanges (one exchange is
// a user message plus an assistant message); older entries are dropped first.
type SessionRepository interface {
	// CreateSession returns a new unique session id
	CreateSession(ctx context.Context) (string, error)

	// AddExchange appends one question/answer pair to the session's history,
	// evicting the oldest exchange when the bound is exceeded.
	AddExchange(ctx context.Context, sessionID, question, answer string) error

	// GetHistory returns the session's messages in chronological order.
	// Unknown session ids yield an empty history, not an error.
	GetHistory(ctx context.Context, sessionID string) ([]models.ChatMessage, error)

	// ClearSession drops all history for the session id
	ClearSession(ctx context.Context, sessionID string) error
}

// SessionRepositoryError represents errors from a session repository
type SessionRepositoryError struct {
	Operation string
	SessionID string
	Err       error
}

func (e *SessionRepositoryError) Error() string {
	msg := "session " + e.Operation
	if e.SessionID != "" {
		msg += " (" + e.SessionID + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SessionRepositoryError) Unwrap() error {
	return e.Err
}

// NewSessionRepositoryError creates a new session repository error
func NewSessionRepositoryError(operation, sessionID string, err error) *SessionRepositoryError {
	return &SessionRepositoryError{
		Operation: operation,
		SessionID: sessionID,
		Err:       err,
	}
}
