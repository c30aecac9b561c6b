package models

// ChatMessage represents a single message in a conversation
type ChatMessage struct {
	Role    string `json:"role"`    // "user" or "assistant"
	Content string `json:"content"` // The message content
}

// QueryRequest represents the incoming query request from the frontend
type QueryRequest struct {
	Query     string `json:"query"`                // The user's question
	SessionID string `json:"session_id,omitempty"` // Existing session to continue, if any
}

// QueryResponse represents the answer sent back to the frontend
type QueryResponse struct {
	Answer    string   `json:"answer"`     // The assistant's answer
	Sources   []Source `json:"sources"`    // Chunks that backed the answer
	SessionID string   `json:"session_id"` // Session id (created if the request had none)
}

// CourseStats represents catalog analytics for the frontend
type CourseStats struct {
	TotalCourses int      `json:"total_courses"`
	CourseTitles []string `json:"course_titles"`
}

// ClearSessionRequest asks the server to drop a session's history
type ClearSessionRequest struct {
	SessionID string `json:"session_id"`
}

// BasicResponse is a minimal status payload for health and ack endpoints
type BasicResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}
