package routes

import (
	"net/http"

	"course-assistant/internal/handlers"

	"github.com/gorilla/mux"
)

// Handlers bundles everything RegisterRoutes needs
type Handlers struct {
	Health         http.HandlerFunc
	QueryHandler   *handlers.QueryHandler
	CoursesHandler *handlers.CoursesHandler
}

// RegisterRoutes sets up all application routes
func RegisterRoutes(router *mux.Router, h *Handlers) {
	router.HandleFunc("/health", h.Health).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/query", h.QueryHandler.Query).Methods(http.MethodPost)
	api.HandleFunc("/courses", h.CoursesHandler.Courses).Methods(http.MethodGet)
	api.HandleFunc("/session/clear", h.QueryHandler.ClearSession).Methods(http.MethodPost)
}
