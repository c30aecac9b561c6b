package services

import (
	"fmt"
	"log"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProcessor(chunkSize, chunkOverlap int) *DocumentProcessor {
	logger := log.New(os.Stdout, "[TEST] ", log.LstdFlags)
	return NewDocumentProcessor(chunkSize, chunkOverlap, logger)
}

const sampleTranscript = `Course Title: Building Towards Computer Use with Anthropic
Course Link: https://example.com/courses/computer-use
Course Instructor: Colt Steele

Lesson 0: Introduction
Lesson Link: https://example.com/lesson/0
Welcome to Building Toward Computer Use with Anthropic. This course teaches you how models interact with computers. We will cover the basics first.

Lesson 1: Tool Use
Lesson Link: https://example.com/lesson/1
Tool use allows the model to interact with external systems. Each tool has a name and a schema.
`

func TestProcessDocument_ParsesHeader(t *testing.T) {
	processor := newTestProcessor(800, 100)

	course, chunks, err := processor.ProcessDocument(sampleTranscript, "sample.txt")

	require.NoError(t, err)
	assert.Equal(t, "Building Towards Computer Use with Anthropic", course.Title)
	assert.Equal(t, "https://example.com/courses/computer-use", course.CourseLink)
	assert.Equal(t, "Colt Steele", course.Instructor)
	assert.Len(t, course.Lessons, 2)
	assert.NotEmpty(t, chunks)
}

func TestProcessDocument_ParsesLessons(t *testing.T) {
	processor := newTestProcessor(800, 100)

	course, _, err := processor.ProcessDocument(sampleTranscript, "sample.txt")

	require.NoError(t, err)
	assert.Equal(t, 0, course.Lessons[0].LessonNumber)
	assert.Equal(t, "Introduction", course.Lessons[0].Title)
	assert.Equal(t, "https://example.com/lesson/0", course.Lessons[0].LessonLink)
	assert.Equal(t, 1, course.Lessons[1].LessonNumber)
	assert.Equal(t, "Tool Use", course.Lessons[1].Title)
}

func TestProcessDocument_MissingTitle(t *testing.T) {
	processor := newTestProcessor(800, 100)

	_, _, err := processor.ProcessDocument("Lesson 0: Intro\nSome content.", "broken.txt")

	require.Error(t, err)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "broken.txt", parseErr.Source)
}

func TestProcessDocument_ChunkPrefix(t *testing.T) {
	processor := newTestProcessor(800, 100)

	course, chunks, err := processor.ProcessDocument(sampleTranscript, "sample.txt")

	require.NoError(t, err)
	for _, chunk := range chunks {
		prefix := fmt.Sprintf("Course %s Lesson %d content: ", course.Title, chunk.LessonNumber)
		assert.True(t, strings.HasPrefix(chunk.Content, prefix),
			"chunk %d should start with %q", chunk.ChunkIndex, prefix)
	}
}

func TestProcessDocument_ChunkIndicesAreSequential(t *testing.T) {
	processor := newTestProcessor(800, 100)

	_, chunks, err := processor.ProcessDocument(sampleTranscript, "sample.txt")

	require.NoError(t, err)
	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.ChunkIndex)
	}
}

func TestProcessDocument_LessonLinkCarriedOnChunks(t *testing.T) {
	processor := newTestProcessor(800, 100)

	_, chunks, err := processor.ProcessDocument(sampleTranscript, "sample.txt")

	require.NoError(t, err)
	byLesson := make(map[int]string)
	for _, chunk := range chunks {
		byLesson[chunk.LessonNumber] = chunk.LessonLink
	}
	assert.Equal(t, "https://example.com/lesson/0", byLesson[0])
	assert.Equal(t, "https://example.com/lesson/1", byLesson[1])
}

func TestProcessDocument_NoLessons(t *testing.T) {
	processor := newTestProcessor(800, 100)

	course, chunks, err := processor.ProcessDocument("Course Title: Empty Course\n", "empty.txt")

	require.NoError(t, err)
	assert.Equal(t, "Empty Course", course.Title)
	assert.Empty(t, course.Lessons)
	assert.Empty(t, chunks)
}

func TestChunkText_RespectsChunkSize(t *testing.T) {
	processor := newTestProcessor(100, 20)

	sentences := make([]string, 20)
	for i := range sentences {
		sentences[i] = fmt.Sprintf("This is sentence number %d in the transcript.", i)
	}
	chunks := processor.chunkText(strings.Join(sentences, " "))

	require.NotEmpty(t, chunks)
	assert.Greater(t, len(chunks), 1)
	for _, chunk := range chunks {
		// A single sentence longer than the window may exceed the target,
		// but multi-sentence chunks must stay within it.
		if strings.Count(chunk, ".") > 1 {
			assert.LessOrEqual(t, len(chunk), 100)
		}
	}
}

func TestChunkText_LongSentencesKeepOverlap(t *testing.T) {
	processor := newTestProcessor(800, 100)

	// Every sentence is longer than the overlap budget, so no whole
	// sentence can be walked back into the next window.
	sentences := make([]string, 20)
	for i := range sentences {
		sentences[i] = fmt.Sprintf("Sentence number %02d keeps going on about transcripts and retrieval for quite a while before it finally ends here.", i)
	}
	chunks := processor.chunkText(strings.Join(sentences, " "))

	require.Greater(t, len(chunks), 1)
	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1]
		require.GreaterOrEqual(t, len(prev), 100)
		assert.True(t, strings.HasPrefix(chunks[i], prev[len(prev)-100:]),
			"chunk %d should start with the last 100 characters of chunk %d", i, i-1)
	}
}

func TestChunkText_CoversAllText(t *testing.T) {
	processor := newTestProcessor(100, 20)

	sentences := make([]string, 10)
	for i := range sentences {
		sentences[i] = fmt.Sprintf("Unique marker %d appears here.", i)
	}
	chunks := processor.chunkText(strings.Join(sentences, " "))

	joined := strings.Join(chunks, " ")
	for i := range sentences {
		assert.Contains(t, joined, fmt.Sprintf("Unique marker %d", i))
	}
}

func TestChunkText_OversizedSentenceBecomesOwnChunk(t *testing.T) {
	processor := newTestProcessor(50, 10)

	long := "This single sentence is far longer than the configured chunk size limit allows for."
	chunks := processor.chunkText(long)

	require.Len(t, chunks, 1)
	assert.Equal(t, long, chunks[0])
}

func TestChunkText_Empty(t *testing.T) {
	processor := newTestProcessor(800, 100)

	assert.Empty(t, processor.chunkText(""))
	assert.Empty(t, processor.chunkText("   \n  "))
}
