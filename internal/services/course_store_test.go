package services

import (
	"context"
	"errors"
	"log"
	"os"
	"testing"

	"course-assistant/internal/models"
	"course-assistant/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupTestCourseStore(t *testing.T) (*CourseStore, *MockVectorRepository, *MockEmbedder) {
	mockRepo := new(MockVectorRepository)
	mockEmbedder := new(MockEmbedder)
	logger := log.New(os.Stdout, "[TEST] ", log.LstdFlags)

	store := NewCourseStore(mockRepo, mockEmbedder, 5, 1.2, logger)
	return store, mockRepo, mockEmbedder
}

func testCourse() *models.Course {
	return &models.Course{
		Title:      "Building Towards Computer Use with Anthropic",
		CourseLink: "https://example.com/courses/computer-use",
		Instructor: "Colt Steele",
		Lessons: []models.Lesson{
			{LessonNumber: 0, Title: "Introduction", LessonLink: "https://example.com/lesson/0"},
			{LessonNumber: 1, Title: "Tool Use", LessonLink: "https://example.com/lesson/1"},
		},
	}
}

func testEmbedding() []float32 {
	return make([]float32, 384)
}

func catalogMatch(title string, distance float32) []*repositories.NearestResult {
	return []*repositories.NearestResult{
		{
			ID:       title,
			Document: title,
			Distance: distance,
			Metadata: map[string]interface{}{"title": title},
		},
	}
}

func TestAddCourseMetadata_UpsertsCatalogRecord(t *testing.T) {
	store, mockRepo, mockEmbedder := setupTestCourseStore(t)
	course := testCourse()

	mockEmbedder.On("EmbedQuery", mock.Anything, mock.Anything).Return(testEmbedding(), nil)
	mockRepo.On("UpsertRecords", mock.Anything, CatalogCollection, mock.MatchedBy(func(records []*repositories.Record) bool {
		return len(records) == 1 &&
			records[0].ID == course.Title &&
			records[0].Metadata["instructor"] == "Colt Steele" &&
			records[0].Metadata["lesson_count"] == 2
	})).Return(nil)

	err := store.AddCourseMetadata(context.Background(), course)

	require.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestAddCourseContent_StoresChunks(t *testing.T) {
	store, mockRepo, mockEmbedder := setupTestCourseStore(t)
	chunks := []models.CourseChunk{
		{Content: "chunk one", CourseTitle: "Test Course", LessonNumber: 0, ChunkIndex: 0},
		{Content: "chunk two", CourseTitle: "Test Course", LessonNumber: 1, ChunkIndex: 1},
	}

	mockEmbedder.On("EmbedBatch", mock.Anything, []string{"chunk one", "chunk two"}).
		Return([][]float32{testEmbedding(), testEmbedding()}, nil)
	mockRepo.On("AddRecords", mock.Anything, ContentCollection, mock.MatchedBy(func(records []*repositories.Record) bool {
		return len(records) == 2 &&
			records[0].Metadata["course_title"] == "Test Course" &&
			records[1].Metadata["lesson_number"] == 1
	})).Return(nil)

	err := store.AddCourseContent(context.Background(), chunks)

	require.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestAddCourseContent_EmptyIsNoOp(t *testing.T) {
	store, mockRepo, mockEmbedder := setupTestCourseStore(t)

	err := store.AddCourseContent(context.Background(), nil)

	require.NoError(t, err)
	mockRepo.AssertNotCalled(t, "AddRecords")
	mockEmbedder.AssertNotCalled(t, "EmbedBatch")
}

func TestSearch_NoFilters(t *testing.T) {
	store, mockRepo, mockEmbedder := setupTestCourseStore(t)

	mockEmbedder.On("EmbedQuery", mock.Anything, "tool use").Return(testEmbedding(), nil)
	mockRepo.On("QueryNearest", mock.Anything, ContentCollection, mock.Anything, 5, mock.Anything).
		Run(func(args mock.Arguments) {
			assert.Nil(t, args.Get(4))
		}).
		Return([]*repositories.NearestResult{
			{
				ID:       "c_0",
				Document: "Tool use allows the model to interact with external systems.",
				Distance: 0.1,
				Metadata: map[string]interface{}{
					"course_title":  "Test Course",
					"lesson_number": float64(1),
					"lesson_link":   "https://example.com/lesson/1",
				},
			},
		}, nil)

	results, err := store.Search(context.Background(), "tool use", SearchOptions{})

	require.NoError(t, err)
	require.Len(t, results.Documents, 1)
	assert.Equal(t, "Test Course", results.Metadata[0].CourseTitle)
	assert.Equal(t, 1, results.Metadata[0].LessonNumber)
	assert.Empty(t, results.Error)
}

func TestSearch_ResolvesCourseNameThenFilters(t *testing.T) {
	store, mockRepo, mockEmbedder := setupTestCourseStore(t)
	lesson := 1

	mockEmbedder.On("EmbedQuery", mock.Anything, mock.Anything).Return(testEmbedding(), nil)
	mockRepo.On("QueryNearest", mock.Anything, CatalogCollection, mock.Anything, 1, mock.Anything).
		Return(catalogMatch("Building Towards Computer Use with Anthropic", 0.3), nil)
	mockRepo.On("QueryNearest", mock.Anything, ContentCollection, mock.Anything, 5, mock.MatchedBy(func(filter map[string]interface{}) bool {
		clauses, ok := filter["$and"].([]map[string]interface{})
		return ok && len(clauses) == 2 &&
			clauses[0]["course_title"] == "Building Towards Computer Use with Anthropic" &&
			clauses[1]["lesson_number"] == 1
	})).Return([]*repositories.NearestResult{}, nil)

	results, err := store.Search(context.Background(), "tool use", SearchOptions{
		CourseName:   "Computer Use",
		LessonNumber: &lesson,
	})

	require.NoError(t, err)
	assert.True(t, results.IsEmpty())
	mockRepo.AssertExpectations(t)
}

func TestSearch_UnresolvableCourseName(t *testing.T) {
	store, mockRepo, mockEmbedder := setupTestCourseStore(t)

	mockEmbedder.On("EmbedQuery", mock.Anything, mock.Anything).Return(testEmbedding(), nil)
	mockRepo.On("QueryNearest", mock.Anything, CatalogCollection, mock.Anything, 1, mock.Anything).
		Return([]*repositories.NearestResult{}, nil)

	results, err := store.Search(context.Background(), "anything", SearchOptions{CourseName: "NonExistent Course"})

	require.NoError(t, err)
	assert.Equal(t, "No course found matching 'NonExistent Course'", results.Error)
	mockRepo.AssertNotCalled(t, "QueryNearest", mock.Anything, ContentCollection, mock.Anything, mock.Anything, mock.Anything)
}

func TestSearch_DistantCatalogMatchIsRejected(t *testing.T) {
	store, mockRepo, mockEmbedder := setupTestCourseStore(t)

	mockEmbedder.On("EmbedQuery", mock.Anything, mock.Anything).Return(testEmbedding(), nil)
	mockRepo.On("QueryNearest", mock.Anything, CatalogCollection, mock.Anything, 1, mock.Anything).
		Return(catalogMatch("Completely Unrelated Course", 1.9), nil)

	results, err := store.Search(context.Background(), "anything", SearchOptions{CourseName: "Quantum Basket Weaving"})

	require.NoError(t, err)
	assert.Contains(t, results.Error, "No course found matching")
}

func TestSearch_RepositoryFailurePropagates(t *testing.T) {
	store, mockRepo, mockEmbedder := setupTestCourseStore(t)

	mockEmbedder.On("EmbedQuery", mock.Anything, mock.Anything).Return(testEmbedding(), nil)
	mockRepo.On("QueryNearest", mock.Anything, ContentCollection, mock.Anything, 5, mock.Anything).
		Return(nil, errors.New("connection refused"))

	_, err := store.Search(context.Background(), "tool use", SearchOptions{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestGetCourseCount_DegradesToZero(t *testing.T) {
	store, mockRepo, _ := setupTestCourseStore(t)

	mockRepo.On("CountRecords", mock.Anything, CatalogCollection).Return(0, errors.New("boom"))

	assert.Equal(t, 0, store.GetCourseCount(context.Background()))
}

func TestGetExistingCourseTitles_DegradesToEmpty(t *testing.T) {
	store, mockRepo, _ := setupTestCourseStore(t)

	mockRepo.On("GetRecords", mock.Anything, CatalogCollection, mock.Anything, 0).
		Return(nil, errors.New("boom"))

	titles := store.GetExistingCourseTitles(context.Background())

	assert.NotNil(t, titles)
	assert.Empty(t, titles)
}

func TestGetExistingCourseTitles_ReturnsIDs(t *testing.T) {
	store, mockRepo, _ := setupTestCourseStore(t)

	mockRepo.On("GetRecords", mock.Anything, CatalogCollection, mock.Anything, 0).
		Return([]*repositories.Record{{ID: "Course A"}, {ID: "Course B"}}, nil)

	titles := store.GetExistingCourseTitles(context.Background())

	assert.Equal(t, []string{"Course A", "Course B"}, titles)
}

func TestClearAllData_RecreatesCollections(t *testing.T) {
	store, mockRepo, _ := setupTestCourseStore(t)

	mockRepo.On("DeleteCollection", mock.Anything, CatalogCollection).Return(nil)
	mockRepo.On("DeleteCollection", mock.Anything, ContentCollection).Return(nil)
	mockRepo.On("EnsureCollection", mock.Anything, CatalogCollection).Return(nil)
	mockRepo.On("EnsureCollection", mock.Anything, ContentCollection).Return(nil)

	err := store.ClearAllData(context.Background())

	require.NoError(t, err)
	mockRepo.AssertExpectations(t)
}
