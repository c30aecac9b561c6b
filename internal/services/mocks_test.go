package services

import (
	"context"

	"course-assistant/internal/models"
	"course-assistant/internal/repositories"

	"github.com/stretchr/testify/mock"
)

// ============================================================================
// Shared Mocks
// ============================================================================

// MockVectorRepository mocks repositories.VectorRepository
type MockVectorRepository struct {
	mock.Mock
}

func (m *MockVectorRepository) EnsureCollection(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

func (m *MockVectorRepository) DeleteCollection(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

func (m *MockVectorRepository) CountRecords(ctx context.Context, collectionName string) (int, error) {
	args := m.Called(ctx, collectionName)
	return args.Int(0), args.Error(1)
}

func (m *MockVectorRepository) UpsertRecords(ctx context.Context, collectionName string, records []*repositories.Record) error {
	args := m.Called(ctx, collectionName, records)
	return args.Error(0)
}

func (m *MockVectorRepository) AddRecords(ctx context.Context, collectionName string, records []*repositories.Record) error {
	args := m.Called(ctx, collectionName, records)
	return args.Error(0)
}

func (m *MockVectorRepository) QueryNearest(ctx context.Context, collectionName string, queryEmbedding []float32, topK int, filter map[string]interface{}) ([]*repositories.NearestResult, error) {
	args := m.Called(ctx, collectionName, queryEmbedding, topK, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repositories.NearestResult), args.Error(1)
}

func (m *MockVectorRepository) GetRecords(ctx context.Context, collectionName string, filter map[string]interface{}, limit int) ([]*repositories.Record, error) {
	args := m.Called(ctx, collectionName, filter, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repositories.Record), args.Error(1)
}

func (m *MockVectorRepository) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockVectorRepository) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockEmbedder mocks the Embedder interface
type MockEmbedder struct {
	mock.Mock
}

func (m *MockEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

func (m *MockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	args := m.Called(ctx, texts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]float32), args.Error(1)
}

// MockContentSearcher mocks the ContentSearcher interface
type MockContentSearcher struct {
	mock.Mock
}

func (m *MockContentSearcher) Search(ctx context.Context, query string, opts SearchOptions) (*models.SearchResults, error) {
	args := m.Called(ctx, query, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SearchResults), args.Error(1)
}

// MockAnswerGenerator mocks the AnswerGenerator interface
type MockAnswerGenerator struct {
	mock.Mock
}

func (m *MockAnswerGenerator) GenerateResponse(ctx context.Context, query, conversationHistory string, tools []ToolDefinition, registry *ToolRegistry) (string, []models.Source, error) {
	args := m.Called(ctx, query, conversationHistory, tools, registry)
	if args.Get(1) == nil {
		return args.String(0), nil, args.Error(2)
	}
	return args.String(0), args.Get(1).([]models.Source), args.Error(2)
}
