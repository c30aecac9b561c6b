package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"course-assistant/internal/models"
)

// ErrorResponse is the JSON error body returned by all API endpoints
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}

// CourseAnalytics is the slice of the RAG service the courses handler needs.
type CourseAnalytics interface {
	GetCourseAnalytics(ctx context.Context) models.CourseStats
}

// CoursesHandler handles HTTP requests for course catalog statistics
type CoursesHandler struct {
	analytics CourseAnalytics
	logger    *log.Logger
}

// NewCoursesHandler creates a new courses handler
func NewCoursesHandler(analytics CourseAnalytics, logger *log.Logger) *CoursesHandler {
	return &CoursesHandler{analytics: analytics, logger: logger}
}

// Courses lists the loaded courses
// @Summary Course statistics
// @Description Report how many courses are loaded and their titles
// @Tags courses
// @Produce json
// @Success 200 {object} models.CourseStats
// @Router /api/courses [get]
func (h *CoursesHandler) Courses(w http.ResponseWriter, r *http.Request) {
	stats := h.analytics.GetCourseAnalytics(r.Context())
	if stats.CourseTitles == nil {
		stats.CourseTitles = []string{}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(stats); err != nil {
		h.logger.Printf("Failed to encode JSON: %v", err)
	}
}
