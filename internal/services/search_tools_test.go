package services

import (
	"context"
	"errors"
	"testing"

	"course-assistant/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func sampleResults() *models.SearchResults {
	return &models.SearchResults{
		Documents: []string{
			"Welcome to Building Toward Computer Use with Anthropic.",
			"Tool use allows Claude to interact with external systems.",
		},
		Metadata: []models.ChunkMetadata{
			{
				CourseTitle:  "Building Towards Computer Use with Anthropic",
				LessonNumber: 0,
				LessonLink:   "https://example.com/lesson/0",
			},
			{
				CourseTitle:  "Building Towards Computer Use with Anthropic",
				LessonNumber: 1,
				LessonLink:   "https://example.com/lesson/1",
			},
		},
		Distances: []float32{0.1, 0.2},
	}
}

func TestCourseSearchTool_Definition(t *testing.T) {
	tool := NewCourseSearchTool(new(MockContentSearcher))

	def := tool.Definition()

	assert.Equal(t, "search_course_content", def.Name)
	assert.NotEmpty(t, def.Description)
	assert.Equal(t, "string", def.InputSchema.Properties["query"].Type)
	assert.Equal(t, []string{"query"}, def.InputSchema.Required)
}

func TestCourseSearchTool_FormatsResultsWithHeaders(t *testing.T) {
	searcher := new(MockContentSearcher)
	searcher.On("Search", mock.Anything, "computer use", SearchOptions{}).Return(sampleResults(), nil)
	tool := NewCourseSearchTool(searcher)

	output, sources, err := tool.Execute(context.Background(), map[string]interface{}{"query": "computer use"})

	require.NoError(t, err)
	assert.Contains(t, output, "[Building Towards Computer Use with Anthropic - Lesson 0]")
	assert.Contains(t, output, "[Building Towards Computer Use with Anthropic - Lesson 1]")
	assert.Contains(t, output, "Welcome to Building Toward Computer Use")
	require.Len(t, sources, 2)
	assert.Equal(t, "Building Towards Computer Use with Anthropic - Lesson 0", sources[0].Text)
	assert.Equal(t, "https://example.com/lesson/0", sources[0].Link)
	assert.Equal(t, "https://example.com/lesson/1", sources[1].Link)
}

func TestCourseSearchTool_PassesFilters(t *testing.T) {
	searcher := new(MockContentSearcher)
	searcher.On("Search", mock.Anything, "tool basics", mock.MatchedBy(func(opts SearchOptions) bool {
		return opts.CourseName == "Computer Use" &&
			opts.LessonNumber != nil && *opts.LessonNumber == 1
	})).Return(sampleResults(), nil)
	tool := NewCourseSearchTool(searcher)

	_, _, err := tool.Execute(context.Background(), map[string]interface{}{
		"query":         "tool basics",
		"course_name":   "Computer Use",
		"lesson_number": float64(1), // JSON numbers decode as float64
	})

	require.NoError(t, err)
	searcher.AssertExpectations(t)
}

func TestCourseSearchTool_EmptyResults(t *testing.T) {
	searcher := new(MockContentSearcher)
	searcher.On("Search", mock.Anything, mock.Anything, mock.Anything).
		Return(&models.SearchResults{}, nil)
	tool := NewCourseSearchTool(searcher)

	output, sources, err := tool.Execute(context.Background(), map[string]interface{}{"query": "nonexistent topic"})

	require.NoError(t, err)
	assert.Contains(t, output, "No relevant content found")
	assert.Empty(t, sources)
}

func TestCourseSearchTool_EmptyResultsMentionFilters(t *testing.T) {
	searcher := new(MockContentSearcher)
	searcher.On("Search", mock.Anything, mock.Anything, mock.Anything).
		Return(&models.SearchResults{}, nil)
	tool := NewCourseSearchTool(searcher)

	output, _, err := tool.Execute(context.Background(), map[string]interface{}{
		"query":         "test",
		"course_name":   "Nonexistent Course",
		"lesson_number": float64(99),
	})

	require.NoError(t, err)
	assert.Contains(t, output, "No relevant content found")
	assert.Contains(t, output, "Nonexistent Course")
	assert.Contains(t, output, "lesson 99")
}

func TestCourseSearchTool_SurfacesResultError(t *testing.T) {
	searcher := new(MockContentSearcher)
	searcher.On("Search", mock.Anything, mock.Anything, mock.Anything).
		Return(models.EmptySearchResults("No course found matching 'Bad Course'"), nil)
	tool := NewCourseSearchTool(searcher)

	output, sources, err := tool.Execute(context.Background(), map[string]interface{}{
		"query":       "test",
		"course_name": "Bad Course",
	})

	require.NoError(t, err)
	assert.Contains(t, output, "No course found matching")
	assert.Empty(t, sources)
}

func TestCourseSearchTool_InfrastructureErrorPropagates(t *testing.T) {
	searcher := new(MockContentSearcher)
	searcher.On("Search", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("connection refused"))
	tool := NewCourseSearchTool(searcher)

	_, _, err := tool.Execute(context.Background(), map[string]interface{}{"query": "test"})

	require.Error(t, err)
}

func TestCourseSearchTool_MissingQuery(t *testing.T) {
	tool := NewCourseSearchTool(new(MockContentSearcher))

	output, _, err := tool.Execute(context.Background(), map[string]interface{}{})

	require.NoError(t, err)
	assert.Contains(t, output, "query")
}

func TestToolRegistry_RegisterAndExecute(t *testing.T) {
	searcher := new(MockContentSearcher)
	searcher.On("Search", mock.Anything, mock.Anything, mock.Anything).Return(sampleResults(), nil)

	registry := NewToolRegistry()
	registry.Register(NewCourseSearchTool(searcher))

	defs := registry.Definitions()
	require.Len(t, defs, 1)
	assert.Equal(t, "search_course_content", defs[0].Name)

	output, sources, err := registry.Execute(context.Background(), "search_course_content",
		map[string]interface{}{"query": "test"})
	require.NoError(t, err)
	assert.NotEmpty(t, output)
	assert.Len(t, sources, 2)
}

func TestToolRegistry_UnknownTool(t *testing.T) {
	registry := NewToolRegistry()

	output, sources, err := registry.Execute(context.Background(), "nonexistent_tool", nil)

	require.NoError(t, err)
	assert.Equal(t, "Tool 'nonexistent_tool' not found", output)
	assert.Empty(t, sources)
}
