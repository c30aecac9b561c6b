package services

import (
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"

	"course-assistant/internal/models"

	"github.com/jdkato/prose/v2"
)

// Course transcripts start with a fixed header followed by lesson sections:
//
//	Course Title: Building Towards Computer Use with Anthropic
//	Course Link: https://...
//	Course Instructor: Colt Steele
//
//	Lesson 0: Introduction
//	Lesson Link: https://...
//	<lesson body>
//
// Only the title line is mandatory.
var lessonMarkerPattern = regexp.MustCompile(`^Lesson\s+(\d+):\s*(.*)$`)

// ParseError indicates a malformed course document. Callers decide whether
// to skip the file or abort the batch.
type ParseError struct {
	Source  string
	Message string
}

func (e *ParseError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("parse %s: %s", e.Source, e.Message)
	}
	return "parse document: " + e.Message
}

// DocumentProcessor converts one raw course transcript into structured
// course metadata plus an ordered sequence of overlapping text chunks.
type DocumentProcessor struct {
	chunkSize    int // target chunk size in characters
	chunkOverlap int // character overlap between consecutive chunks
	logger       *log.Logger
}

// NewDocumentProcessor creates a document processor with the given chunking
// parameters. Non-positive values fall back to the defaults (800/100).
func NewDocumentProcessor(chunkSize, chunkOverlap int, logger *log.Logger) *DocumentProcessor {
	if chunkSize <= 0 {
		chunkSize = 800
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = 100
	}
	return &DocumentProcessor{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		logger:       logger,
	}
}

// ProcessDocument parses the transcript header and lesson sections, then
// splits each lesson body into overlapping chunks. Chunk indices are
// assigned sequentially across lessons, so they are unique within the
// course. sourceLabel only decorates errors and logs.
func (p *DocumentProcessor) ProcessDocument(rawText, sourceLabel string) (*models.Course, []models.CourseChunk, error) {
	lines := strings.Split(rawText, "\n")

	course, bodyStart, err := p.parseHeader(lines, sourceLabel)
	if err != nil {
		return nil, nil, err
	}

	chunks := make([]models.CourseChunk, 0)
	chunkIndex := 0

	for _, section := range p.parseLessons(lines[bodyStart:]) {
		course.Lessons = append(course.Lessons, section.lesson)

		for _, chunk := range p.chunkText(section.body) {
			chunks = append(chunks, models.CourseChunk{
				Content: fmt.Sprintf("Course %s Lesson %d content: %s",
					course.Title, section.lesson.LessonNumber, chunk),
				CourseTitle:  course.Title,
				LessonNumber: section.lesson.LessonNumber,
				ChunkIndex:   chunkIndex,
				LessonLink:   section.lesson.LessonLink,
			})
			chunkIndex++
		}
	}

	p.logger.Printf("Processed %s: course=%q lessons=%d chunks=%d",
		sourceLabel, course.Title, len(course.Lessons), len(chunks))

	return course, chunks, nil
}

// parseHeader reads the course title, link and instructor lines. Returns the
// index of the first line after the header.
func (p *DocumentProcessor) parseHeader(lines []string, sourceLabel string) (*models.Course, int, error) {
	course := &models.Course{}
	i := 0

	for ; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		if lessonMarkerPattern.MatchString(line) {
			break
		}

		switch {
		case strings.HasPrefix(line, "Course Title:"):
			course.Title = strings.TrimSpace(strings.TrimPrefix(line, "Course Title:"))
		case strings.HasPrefix(line, "Course Link:"):
			course.CourseLink = strings.TrimSpace(strings.TrimPrefix(line, "Course Link:"))
		case strings.HasPrefix(line, "Course Instructor:"):
			course.Instructor = strings.TrimSpace(strings.TrimPrefix(line, "Course Instructor:"))
		default:
			// Unrecognized preamble text outside any lesson is ignored.
		}
	}

	if course.Title == "" {
		return nil, 0, &ParseError{Source: sourceLabel, Message: "missing 'Course Title:' line"}
	}
	return course, i, nil
}

type lessonSection struct {
	lesson models.Lesson
	body   string
}

// parseLessons splits the document body into lesson sections. Each section
// starts at a "Lesson N: Title" marker, optionally followed by a
// "Lesson Link:" line, then the lesson body up to the next marker.
func (p *DocumentProcessor) parseLessons(lines []string) []lessonSection {
	sections := make([]lessonSection, 0)
	var current *lessonSection
	var body []string

	flush := func() {
		if current != nil {
			current.body = strings.TrimSpace(strings.Join(body, "\n"))
			sections = append(sections, *current)
		}
		body = body[:0]
	}

	for _, raw := range lines {
		line := strings.TrimSpace(raw)

		if m := lessonMarkerPattern.FindStringSubmatch(line); m != nil {
			flush()
			number, _ := strconv.Atoi(m[1])
			current = &lessonSection{
				lesson: models.Lesson{LessonNumber: number, Title: strings.TrimSpace(m[2])},
			}
			continue
		}

		if current != nil && strings.HasPrefix(line, "Lesson Link:") && len(body) == 0 {
			current.lesson.LessonLink = strings.TrimSpace(strings.TrimPrefix(line, "Lesson Link:"))
			continue
		}

		if current != nil {
			body = append(body, raw)
		}
	}
	flush()

	return sections
}

// chunkText splits text into chunks of at most chunkSize characters using a
// sentence-aware sliding window. Splits land on sentence boundaries whenever
// a boundary exists within the window; consecutive chunks share trailing
// text of up to chunkOverlap characters.
func (p *DocumentProcessor) chunkText(text string) []string {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	chunks := make([]string, 0)
	carry := ""
	i := 0
	for i < len(sentences) {
		total := len(carry)
		j := i
		for j < len(sentences) {
			size := len(sentences[j])
			if j > i || carry != "" {
				size++ // joining space
			}
			if total+size > p.chunkSize && j > i {
				break
			}
			total += size
			j++
		}

		chunk := strings.Join(sentences[i:j], " ")
		if carry != "" {
			chunk = carry + " " + chunk
		}
		chunks = append(chunks, chunk)
		if j >= len(sentences) {
			break
		}

		// Walk back over trailing sentences totalling at most chunkOverlap
		// characters so the next window re-covers them. When even the last
		// sentence alone exceeds the budget, carry its trailing characters
		// forward instead so consecutive chunks still share context.
		nextStart := j
		overlap := 0
		for k := j - 1; k > i; k-- {
			if overlap+len(sentences[k]) > p.chunkOverlap {
				break
			}
			overlap += len(sentences[k])
			nextStart = k
		}
		carry = ""
		if nextStart == j && p.chunkOverlap > 0 {
			last := sentences[j-1]
			if len(last) > p.chunkOverlap {
				last = last[len(last)-p.chunkOverlap:]
			}
			carry = last
		}
		i = nextStart
	}

	return chunks
}

// splitSentences segments text into trimmed sentences, falling back to the
// whole text when segmentation finds nothing.
func splitSentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	doc, err := prose.NewDocument(text,
		prose.WithTokenization(false),
		prose.WithTagging(false),
		prose.WithExtraction(false))
	if err != nil {
		return []string{text}
	}

	sentences := make([]string, 0)
	for _, sentence := range doc.Sentences() {
		if trimmed := strings.TrimSpace(sentence.Text); trimmed != "" {
			sentences = append(sentences, trimmed)
		}
	}
	if len(sentences) == 0 {
		return []string{text}
	}
	return sentences
}
