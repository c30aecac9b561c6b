package models

// ChunkMetadata is the filterable metadata attached to one content chunk in
// the vector store.
type ChunkMetadata struct {
	CourseTitle  string `json:"course_title"`
	LessonNumber int    `json:"lesson_number"`
	ChunkIndex   int    `json:"chunk_index"`
	LessonLink   string `json:"lesson_link,omitempty"`
}

// SearchResults holds the outcome of one content search as parallel ordered
// sequences. The three slices are always equal length unless Error is set,
// in which case all three are empty. Constructed fresh per search call and
// never mutated afterwards.
type SearchResults struct {
	Documents []string        `json:"documents"`
	Metadata  []ChunkMetadata `json:"metadata"`
	Distances []float32       `json:"distances"`
	Error     string          `json:"error,omitempty"`
}

// EmptySearchResults creates an empty result set carrying an error message
// intended to be read by the language model.
func EmptySearchResults(errMsg string) *SearchResults {
	return &SearchResults{
		Documents: []string{},
		Metadata:  []ChunkMetadata{},
		Distances: []float32{},
		Error:     errMsg,
	}
}

// IsEmpty reports whether the search produced no documents.
func (r *SearchResults) IsEmpty() bool {
	return len(r.Documents) == 0
}

// Source is a display pair shown to the end user indicating which chunk
// backed part of an answer.
type Source struct {
	Text string `json:"text"`
	Link string `json:"link,omitempty"`
}
