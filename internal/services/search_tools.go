package services

import (
	"context"
	"fmt"
	"strings"

	"course-assistant/internal/models"
)

// ToolDefinition is the JSON schema for one tool, in the Anthropic
// Messages API format.
type ToolDefinition struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema InputSchema `json:"input_schema"`
}

// InputSchema describes a tool's input object.
type InputSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required"`
}

// Property describes one input field.
type Property struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// Tool is one callable capability exposed to the model. Execute returns the
// text fed back to the model plus the sources backing it; domain-level
// misses (no results, unknown course) are reported in the text, while the
// error return is reserved for infrastructure failures.
type Tool interface {
	Definition() ToolDefinition
	Execute(ctx context.Context, args map[string]interface{}) (string, []models.Source, error)
}

// ContentSearcher is the slice of CourseStore the search tool needs.
type ContentSearcher interface {
	Search(ctx context.Context, query string, opts SearchOptions) (*models.SearchResults, error)
}

// CourseSearchTool searches course content with optional course and lesson
// filters.
type CourseSearchTool struct {
	searcher ContentSearcher
}

// NewCourseSearchTool creates the course content search tool.
func NewCourseSearchTool(searcher ContentSearcher) *CourseSearchTool {
	return &CourseSearchTool{searcher: searcher}
}

// Definition returns the tool schema advertised to the model.
func (t *CourseSearchTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        "search_course_content",
		Description: "Search course materials with smart course name matching and lesson filtering",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"query": {
					Type:        "string",
					Description: "What to search for in the course content",
				},
				"course_name": {
					Type:        "string",
					Description: "Course title (partial matches work, e.g. 'MCP', 'Introduction')",
				},
				"lesson_number": {
					Type:        "integer",
					Description: "Specific lesson number to search within (e.g. 1, 2, 3)",
				},
			},
			Required: []string{"query"},
		},
	}
}

// Execute runs the search and formats the hits for the model, one block per
// chunk with a "[Course Title - Lesson N]" header. Sources mirror the
// returned blocks in order.
func (t *CourseSearchTool) Execute(ctx context.Context, args map[string]interface{}) (string, []models.Source, error) {
	query, ok := args["query"].(string)
	if !ok || query == "" {
		return "The 'query' parameter is required for search_course_content", nil, nil
	}

	opts := SearchOptions{}
	if name, ok := args["course_name"].(string); ok {
		opts.CourseName = name
	}
	if number, hasNumber := intArg(args, "lesson_number"); hasNumber {
		opts.LessonNumber = &number
	}

	results, err := t.searcher.Search(ctx, query, opts)
	if err != nil {
		return "", nil, err
	}
	if results.Error != "" {
		return results.Error, nil, nil
	}
	if results.IsEmpty() {
		return noResultsMessage(opts), nil, nil
	}

	return formatResults(results)
}

func intArg(args map[string]interface{}, key string) (int, bool) {
	switch v := args[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	default:
		return 0, false
	}
}

func noResultsMessage(opts SearchOptions) string {
	msg := "No relevant content found"
	if opts.CourseName != "" {
		msg += fmt.Sprintf(" in course '%s'", opts.CourseName)
	}
	if opts.LessonNumber != nil {
		msg += fmt.Sprintf(" in lesson %d", *opts.LessonNumber)
	}
	return msg + "."
}

func formatResults(results *models.SearchResults) (string, []models.Source, error) {
	blocks := make([]string, 0, len(results.Documents))
	sources := make([]models.Source, 0, len(results.Documents))

	for i, document := range results.Documents {
		meta := results.Metadata[i]

		header := fmt.Sprintf("[%s", meta.CourseTitle)
		label := meta.CourseTitle
		if meta.LessonNumber >= 0 {
			header += fmt.Sprintf(" - Lesson %d", meta.LessonNumber)
			label += fmt.Sprintf(" - Lesson %d", meta.LessonNumber)
		}
		header += "]"

		blocks = append(blocks, header+"\n"+document)
		sources = append(sources, models.Source{Text: label, Link: meta.LessonLink})
	}

	return strings.Join(blocks, "\n\n"), sources, nil
}

// ToolRegistry holds the closed set of tools the model may call.
// Registration order is preserved in Definitions.
type ToolRegistry struct {
	tools map[string]Tool
	order []string
}

// NewToolRegistry creates an empty registry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{tools: make(map[string]Tool)}
}

// Register adds a tool. Re-registering a name replaces the tool but keeps
// its position.
func (r *ToolRegistry) Register(tool Tool) {
	name := tool.Definition().Name
	if _, exists := r.tools[name]; !exists {
		r.order = append(r.order, name)
	}
	r.tools[name] = tool
}

// Definitions returns all tool schemas in registration order.
func (r *ToolRegistry) Definitions() []ToolDefinition {
	defs := make([]ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.tools[name].Definition())
	}
	return defs
}

// Execute dispatches one tool call. An unknown tool name is reported back
// to the model as text, not as an error.
func (r *ToolRegistry) Execute(ctx context.Context, name string, args map[string]interface{}) (string, []models.Source, error) {
	tool, ok := r.tools[name]
	if !ok {
		return fmt.Sprintf("Tool '%s' not found", name), nil, nil
	}
	return tool.Execute(ctx, args)
}
