package repositories

import (
	"context"
)

// VectorRepository defines the interface for vector database operations.
// This abstracts ChromaDB and allows for easy testing and implementation swapping.
type VectorRepository interface {
	// Collection Management
	EnsureCollection(ctx context.Context, name string) error
	DeleteCollection(ctx context.Context, name string) error
	CountRecords(ctx context.Context, collectionName string) (int, error)

	// Record Operations
	UpsertRecords(ctx context.Context, collectionName string, records []*Record) error
	AddRecords(ctx context.Context, collectionName string, records []*Record) error
	QueryNearest(ctx context.Context, collectionName string, queryEmbedding []float32, topK int, filter map[string]interface{}) ([]*NearestResult, error)
	GetRecords(ctx context.Context, collectionName string, filter map[string]interface{}, limit int) ([]*Record, error)

	// Health
	Ping(ctx context.Context) error
	Close() error
}

// Record represents one embedded entry in a collection
type Record struct {
	ID        string                 `json:"id"`
	Document  string                 `json:"document"`
	Embedding []float32              `json:"embedding,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// NearestResult represents a single nearest-neighbor match
type NearestResult struct {
	ID       string                 `json:"id"`
	Document string                 `json:"document"`
	Distance float32                `json:"distance"` // lower = closer
	Metadata map[string]interface{} `json:"metadata"`
}

// VectorRepositoryError represents errors from the vector repository
type VectorRepositoryError struct {
	Operation string
	Err       error
	Message   string
}

func (e *VectorRepositoryError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Operation + ": " + e.Err.Error()
	}
	return e.Operation + ": unknown error"
}

func (e *VectorRepositoryError) Unwrap() error {
	return e.Err
}

// NewVectorRepositoryError creates a new vector repository error
func NewVectorRepositoryError(operation string, err error, message string) *VectorRepositoryError {
	return &VectorRepositoryError{
		Operation: operation,
		Err:       err,
		Message:   message,
	}
}
