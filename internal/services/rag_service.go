package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"course-assistant/internal/models"
	"course-assistant/internal/repositories"
)

// AnswerGenerator is the slice of AIGenerator the RAG service needs.
type AnswerGenerator interface {
	GenerateResponse(ctx context.Context, query, conversationHistory string, tools []ToolDefinition, registry *ToolRegistry) (string, []models.Source, error)
}

// RAGService wires document processing, vector storage, session history and
// answer generation into the query pipeline.
type RAGService struct {
	processor *DocumentProcessor
	store     *CourseStore
	generator AnswerGenerator
	sessions  repositories.SessionRepository
	registry  *ToolRegistry
	logger    *log.Logger
}

// NewRAGService assembles the service and registers the course search tool.
func NewRAGService(processor *DocumentProcessor, store *CourseStore, generator AnswerGenerator, sessions repositories.SessionRepository, logger *log.Logger) *RAGService {
	registry := NewToolRegistry()
	registry.Register(NewCourseSearchTool(store))

	return &RAGService{
		processor: processor,
		store:     store,
		generator: generator,
		sessions:  sessions,
		registry:  registry,
		logger:    logger,
	}
}

// Query answers one user question. When sessionID is non-empty, prior turns
// of that session are included as conversation context and the new exchange
// is recorded afterwards. Sources cover exactly the tool calls made while
// answering this query.
func (s *RAGService) Query(ctx context.Context, query, sessionID string) (string, []models.Source, error) {
	history := ""
	if sessionID != "" {
		msgs, err := s.sessions.GetHistory(ctx, sessionID)
		if err != nil {
			s.logger.Printf("Failed to load history for session %s: %v", sessionID, err)
		} else {
			history = formatHistory(msgs)
		}
	}

	prompt := fmt.Sprintf("Answer this question about course materials: %s", query)
	answer, sources, err := s.generator.GenerateResponse(ctx, prompt, history, s.registry.Definitions(), s.registry)
	if err != nil {
		return "", nil, err
	}

	if sessionID != "" {
		if err := s.sessions.AddExchange(ctx, sessionID, query, answer); err != nil {
			// The answer is already produced; losing one history entry is
			// preferable to failing the request.
			s.logger.Printf("Failed to record exchange for session %s: %v", sessionID, err)
		}
	}
	return answer, sources, nil
}

// AddCourseDocument ingests one transcript: parse, store catalog metadata,
// store embedded chunks. Returns the parsed course and its chunk count.
func (s *RAGService) AddCourseDocument(ctx context.Context, rawText, sourceLabel string) (*models.Course, int, error) {
	course, chunks, err := s.processor.ProcessDocument(rawText, sourceLabel)
	if err != nil {
		return nil, 0, err
	}
	if err := course.Validate(); err != nil {
		return nil, 0, &ParseError{Source: sourceLabel, Message: err.Error()}
	}

	if err := s.store.AddCourseMetadata(ctx, course); err != nil {
		return nil, 0, fmt.Errorf("failed to store course metadata: %w", err)
	}
	if err := s.store.AddCourseContent(ctx, chunks); err != nil {
		return nil, 0, fmt.Errorf("failed to store course content: %w", err)
	}
	return course, len(chunks), nil
}

// AddCourseFolder ingests every .txt transcript in folderPath. Courses whose
// title already exists in the catalog are skipped, so reloading a folder is
// idempotent. With clearExisting, both collections are wiped first.
// Unparseable files are logged and skipped. Returns the number of newly
// added courses and chunks.
func (s *RAGService) AddCourseFolder(ctx context.Context, folderPath string, clearExisting bool) (int, int, error) {
	if clearExisting {
		s.logger.Printf("Clearing existing course data")
		if err := s.store.ClearAllData(ctx); err != nil {
			return 0, 0, fmt.Errorf("failed to clear existing data: %w", err)
		}
	}

	entries, err := os.ReadDir(folderPath)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read course folder %s: %w", folderPath, err)
	}

	existing := make(map[string]bool)
	for _, title := range s.store.GetExistingCourseTitles(ctx) {
		existing[title] = true
	}

	coursesAdded, chunksAdded := 0, 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}

		path := filepath.Join(folderPath, entry.Name())
		raw, err := os.ReadFile(path)
		if err != nil {
			s.logger.Printf("Skipping %s: %v", entry.Name(), err)
			continue
		}

		course, chunks, err := s.processor.ProcessDocument(string(raw), entry.Name())
		if err != nil {
			var parseErr *ParseError
			if errors.As(err, &parseErr) {
				s.logger.Printf("Skipping %s: %v", entry.Name(), err)
				continue
			}
			return coursesAdded, chunksAdded, err
		}

		if existing[course.Title] {
			s.logger.Printf("Skipping %s: course %q already loaded", entry.Name(), course.Title)
			continue
		}

		if err := s.store.AddCourseMetadata(ctx, course); err != nil {
			return coursesAdded, chunksAdded, fmt.Errorf("failed to store metadata for %s: %w", entry.Name(), err)
		}
		if err := s.store.AddCourseContent(ctx, chunks); err != nil {
			return coursesAdded, chunksAdded, fmt.Errorf("failed to store content for %s: %w", entry.Name(), err)
		}

		existing[course.Title] = true
		coursesAdded++
		chunksAdded += len(chunks)
	}

	s.logger.Printf("Loaded %d new courses (%d chunks) from %s", coursesAdded, chunksAdded, folderPath)
	return coursesAdded, chunksAdded, nil
}

// GetCourseAnalytics reports how many courses are loaded and their titles.
func (s *RAGService) GetCourseAnalytics(ctx context.Context) models.CourseStats {
	return models.CourseStats{
		TotalCourses: s.store.GetCourseCount(ctx),
		CourseTitles: s.store.GetExistingCourseTitles(ctx),
	}
}

// CreateSession starts a new conversation session.
func (s *RAGService) CreateSession(ctx context.Context) (string, error) {
	return s.sessions.CreateSession(ctx)
}

// ClearSession forgets the history of one session.
func (s *RAGService) ClearSession(ctx context.Context, sessionID string) error {
	return s.sessions.ClearSession(ctx, sessionID)
}

// formatHistory renders prior turns the way the generator expects them in
// the system prompt.
func formatHistory(messages []models.ChatMessage) string {
	if len(messages) == 0 {
		return ""
	}
	lines := make([]string, 0, len(messages))
	for _, msg := range messages {
		role := "User"
		if msg.Role == "assistant" {
			role = "Assistant"
		}
		lines = append(lines, role+": "+msg.Content)
	}
	return strings.Join(lines, "\n")
}
