package models

// Lesson represents a single lesson within a course. The lesson number is
// unique within its owning course.
type Lesson struct {
	LessonNumber int    `json:"lesson_number"`
	Title        string `json:"title"`
	LessonLink   string `json:"lesson_link,omitempty"`
}

// Course represents one course transcript. The title is the unique identifier
// for a course across the whole system.
type Course struct {
	Title      string   `json:"title"`
	CourseLink string   `json:"course_link,omitempty"`
	Instructor string   `json:"instructor,omitempty"`
	Lessons    []Lesson `json:"lessons"`
}

// LessonLink returns the link for the given lesson number, or "" if the
// lesson has no link or does not exist.
func (c *Course) LessonLink(lessonNumber int) string {
	for _, lesson := range c.Lessons {
		if lesson.LessonNumber == lessonNumber {
			return lesson.LessonLink
		}
	}
	return ""
}

// Validate checks if the course is valid
func (c *Course) Validate() error {
	if c.Title == "" {
		return &ValidationError{Field: "title", Message: "course title is required"}
	}
	seen := make(map[int]bool, len(c.Lessons))
	for _, lesson := range c.Lessons {
		if lesson.LessonNumber < 0 {
			return &ValidationError{Field: "lesson_number", Message: "lesson number cannot be negative"}
		}
		if seen[lesson.LessonNumber] {
			return &ValidationError{Field: "lesson_number", Message: "lesson number must be unique within a course"}
		}
		seen[lesson.LessonNumber] = true
	}
	return nil
}

// CourseChunk is one retrievable unit of lesson text. Chunks are immutable
// once created; the index is zero-based and monotonic across lessons in
// processing order, unique within the course.
type CourseChunk struct {
	Content      string `json:"content"`
	CourseTitle  string `json:"course_title"`
	LessonNumber int    `json:"lesson_number"`
	ChunkIndex   int    `json:"chunk_index"`
	LessonLink   string `json:"lesson_link,omitempty"`
}

// Validate checks if the chunk is valid
func (c *CourseChunk) Validate() error {
	if c.Content == "" {
		return &ValidationError{Field: "content", Message: "content is required"}
	}
	if c.CourseTitle == "" {
		return &ValidationError{Field: "course_title", Message: "course title is required"}
	}
	if c.ChunkIndex < 0 {
		return &ValidationError{Field: "chunk_index", Message: "chunk index cannot be negative"}
	}
	return nil
}

// ValidationError represents a model validation failure
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
