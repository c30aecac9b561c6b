package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"course-assistant/internal/models"
	"course-assistant/internal/repositories"
)

const (
	// CatalogCollection stores one record per course for fuzzy title resolution
	CatalogCollection = "course_catalog"
	// ContentCollection stores the embedded transcript chunks
	ContentCollection = "course_content"
)

// SearchOptions narrows a content search. Zero values mean "no filter".
type SearchOptions struct {
	CourseName   string // fuzzy course title, resolved against the catalog
	LessonNumber *int   // exact lesson number
	Limit        int    // max results, defaults to the store's maxResults
}

// CourseStore owns the two vector collections backing the assistant: the
// course catalog (one record per course, queried to resolve fuzzy course
// names) and the course content (embedded chunks, queried semantically).
type CourseStore struct {
	vectorRepo       repositories.VectorRepository
	embedder         Embedder
	maxResults       int
	matchMaxDistance float32
	logger           *log.Logger
}

// NewCourseStore creates a course store over the given vector repository and
// embedder. matchMaxDistance bounds how far a catalog match may be before a
// fuzzy course name is considered unresolved.
func NewCourseStore(vectorRepo repositories.VectorRepository, embedder Embedder, maxResults int, matchMaxDistance float32, logger *log.Logger) *CourseStore {
	if maxResults <= 0 {
		maxResults = 5
	}
	return &CourseStore{
		vectorRepo:       vectorRepo,
		embedder:         embedder,
		maxResults:       maxResults,
		matchMaxDistance: matchMaxDistance,
		logger:           logger,
	}
}

// EnsureCollections creates both collections if they do not exist yet.
func (s *CourseStore) EnsureCollections(ctx context.Context) error {
	for _, name := range []string{CatalogCollection, ContentCollection} {
		if err := s.vectorRepo.EnsureCollection(ctx, name); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", name, err)
		}
	}
	return nil
}

// AddCourseMetadata upserts one catalog record for the course, keyed by its
// exact title. The embedded document is a synthesized description of the
// course so that fuzzy queries ("MCP course") land near the right record.
func (s *CourseStore) AddCourseMetadata(ctx context.Context, course *models.Course) error {
	description := courseDescription(course)

	embedding, err := s.embedder.EmbedQuery(ctx, description)
	if err != nil {
		return fmt.Errorf("failed to embed course description: %w", err)
	}

	lessonsJSON, err := json.Marshal(course.Lessons)
	if err != nil {
		return fmt.Errorf("failed to marshal lessons: %w", err)
	}

	record := &repositories.Record{
		ID:        course.Title,
		Document:  description,
		Embedding: embedding,
		Metadata: map[string]interface{}{
			"title":        course.Title,
			"instructor":   course.Instructor,
			"course_link":  course.CourseLink,
			"lesson_count": len(course.Lessons),
			"lessons_json": string(lessonsJSON),
		},
	}
	return s.vectorRepo.UpsertRecords(ctx, CatalogCollection, []*repositories.Record{record})
}

// AddCourseContent embeds and stores the given chunks. An empty chunk list
// is a no-op.
func (s *CourseStore) AddCourseContent(ctx context.Context, chunks []models.CourseChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}

	embeddings, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed course content: %w", err)
	}

	records := make([]*repositories.Record, len(chunks))
	for i, chunk := range chunks {
		records[i] = &repositories.Record{
			ID:        fmt.Sprintf("%s_%d", strings.ReplaceAll(chunk.CourseTitle, " ", "_"), chunk.ChunkIndex),
			Document:  chunk.Content,
			Embedding: embeddings[i],
			Metadata: map[string]interface{}{
				"course_title":  chunk.CourseTitle,
				"lesson_number": chunk.LessonNumber,
				"chunk_index":   chunk.ChunkIndex,
				"lesson_link":   chunk.LessonLink,
			},
		}
	}
	return s.vectorRepo.AddRecords(ctx, ContentCollection, records)
}

// Search runs a semantic query over the content collection. A non-empty
// CourseName is first resolved against the catalog; an unresolvable name
// yields a SearchResults carrying an error message rather than a Go error,
// so the caller can surface it to the model. Infrastructure failures are
// returned as Go errors.
func (s *CourseStore) Search(ctx context.Context, query string, opts SearchOptions) (*models.SearchResults, error) {
	resolvedTitle := ""
	if opts.CourseName != "" {
		title, err := s.resolveCourseName(ctx, opts.CourseName)
		if err != nil {
			return nil, err
		}
		if title == "" {
			return models.EmptySearchResults(fmt.Sprintf("No course found matching '%s'", opts.CourseName)), nil
		}
		resolvedTitle = title
	}

	embedding, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = s.maxResults
	}

	matches, err := s.vectorRepo.QueryNearest(ctx, ContentCollection, embedding, limit, buildContentFilter(resolvedTitle, opts.LessonNumber))
	if err != nil {
		return nil, fmt.Errorf("content search failed: %w", err)
	}

	results := &models.SearchResults{
		Documents: make([]string, 0, len(matches)),
		Metadata:  make([]models.ChunkMetadata, 0, len(matches)),
		Distances: make([]float32, 0, len(matches)),
	}
	for _, match := range matches {
		results.Documents = append(results.Documents, match.Document)
		results.Metadata = append(results.Metadata, chunkMetadataFrom(match.Metadata))
		results.Distances = append(results.Distances, match.Distance)
	}
	return results, nil
}

// resolveCourseName maps a partial or fuzzy course name onto an exact
// catalog title. Returns "" when nothing matches closely enough.
func (s *CourseStore) resolveCourseName(ctx context.Context, name string) (string, error) {
	embedding, err := s.embedder.EmbedQuery(ctx, name)
	if err != nil {
		return "", fmt.Errorf("failed to embed course name: %w", err)
	}

	matches, err := s.vectorRepo.QueryNearest(ctx, CatalogCollection, embedding, 1, nil)
	if err != nil {
		return "", fmt.Errorf("catalog lookup failed: %w", err)
	}
	if len(matches) == 0 {
		return "", nil
	}
	best := matches[0]
	if s.matchMaxDistance > 0 && best.Distance > s.matchMaxDistance {
		s.logger.Printf("Course name %q resolved to %q but distance %.3f exceeds threshold %.3f",
			name, best.ID, best.Distance, s.matchMaxDistance)
		return "", nil
	}
	if title, ok := best.Metadata["title"].(string); ok && title != "" {
		return title, nil
	}
	return best.ID, nil
}

// GetCourseCount returns the number of catalog records. Failures degrade to
// zero so callers rendering statistics never error out.
func (s *CourseStore) GetCourseCount(ctx context.Context) int {
	count, err := s.vectorRepo.CountRecords(ctx, CatalogCollection)
	if err != nil {
		s.logger.Printf("Failed to count courses: %v", err)
		return 0
	}
	return count
}

// GetExistingCourseTitles returns the exact titles of all stored courses.
// Failures degrade to an empty list.
func (s *CourseStore) GetExistingCourseTitles(ctx context.Context) []string {
	records, err := s.vectorRepo.GetRecords(ctx, CatalogCollection, nil, 0)
	if err != nil {
		s.logger.Printf("Failed to list course titles: %v", err)
		return []string{}
	}
	titles := make([]string, 0, len(records))
	for _, record := range records {
		titles = append(titles, record.ID)
	}
	return titles
}

// ClearAllData drops and recreates both collections.
func (s *CourseStore) ClearAllData(ctx context.Context) error {
	for _, name := range []string{CatalogCollection, ContentCollection} {
		if err := s.vectorRepo.DeleteCollection(ctx, name); err != nil {
			return fmt.Errorf("failed to delete collection %s: %w", name, err)
		}
	}
	return s.EnsureCollections(ctx)
}

// courseDescription synthesizes the catalog document embedded for fuzzy
// course name resolution.
func courseDescription(course *models.Course) string {
	var b strings.Builder
	b.WriteString(course.Title)
	if course.Instructor != "" {
		b.WriteString(" taught by ")
		b.WriteString(course.Instructor)
	}
	for _, lesson := range course.Lessons {
		if lesson.Title != "" {
			b.WriteString("\nLesson ")
			b.WriteString(fmt.Sprintf("%d", lesson.LessonNumber))
			b.WriteString(": ")
			b.WriteString(lesson.Title)
		}
	}
	return b.String()
}

// buildContentFilter composes equality filters with AND semantics in the
// Chroma where syntax.
func buildContentFilter(courseTitle string, lessonNumber *int) map[string]interface{} {
	switch {
	case courseTitle != "" && lessonNumber != nil:
		return map[string]interface{}{
			"$and": []map[string]interface{}{
				{"course_title": courseTitle},
				{"lesson_number": *lessonNumber},
			},
		}
	case courseTitle != "":
		return map[string]interface{}{"course_title": courseTitle}
	case lessonNumber != nil:
		return map[string]interface{}{"lesson_number": *lessonNumber}
	default:
		return nil
	}
}

// chunkMetadataFrom extracts typed chunk metadata from the raw metadata map.
// Numbers arrive as float64 after JSON decoding.
func chunkMetadataFrom(raw map[string]interface{}) models.ChunkMetadata {
	meta := models.ChunkMetadata{LessonNumber: -1, ChunkIndex: -1}
	if title, ok := raw["course_title"].(string); ok {
		meta.CourseTitle = title
	}
	if link, ok := raw["lesson_link"].(string); ok {
		meta.LessonLink = link
	}
	meta.LessonNumber = intFromMetadata(raw["lesson_number"], meta.LessonNumber)
	meta.ChunkIndex = intFromMetadata(raw["chunk_index"], meta.ChunkIndex)
	return meta
}

func intFromMetadata(value interface{}, fallback int) int {
	switch v := value.(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return fallback
	}
}
