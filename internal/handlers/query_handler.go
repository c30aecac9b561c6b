package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"course-assistant/internal/models"
)

// RAGQuerier is the slice of the RAG service the query handler needs.
type RAGQuerier interface {
	Query(ctx context.Context, query, sessionID string) (string, []models.Source, error)
	CreateSession(ctx context.Context) (string, error)
	ClearSession(ctx context.Context, sessionID string) error
}

// QueryHandler handles HTTP requests for the query and session endpoints
type QueryHandler struct {
	rag    RAGQuerier
	logger *log.Logger
}

// NewQueryHandler creates a new query handler
func NewQueryHandler(rag RAGQuerier, logger *log.Logger) *QueryHandler {
	return &QueryHandler{rag: rag, logger: logger}
}

// Query answers a question about the loaded course materials
// @Summary Query course materials
// @Description Answer a question using retrieval-augmented generation over the loaded courses
// @Tags query
// @Accept json
// @Produce json
// @Param query body models.QueryRequest true "Query request"
// @Success 200 {object} models.QueryResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/query [post]
func (h *QueryHandler) Query(w http.ResponseWriter, r *http.Request) {
	var req models.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Printf("Failed to decode query request: %v", err)
		h.sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Query == "" {
		h.sendError(w, http.StatusBadRequest, "Field 'query' is required")
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		created, err := h.rag.CreateSession(r.Context())
		if err != nil {
			h.logger.Printf("Failed to create session: %v", err)
			h.sendError(w, http.StatusInternalServerError, "Failed to create session")
			return
		}
		sessionID = created
	}

	answer, sources, err := h.rag.Query(r.Context(), req.Query, sessionID)
	if err != nil {
		h.logger.Printf("Query failed (session %s): %v", sessionID, err)
		h.sendError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if sources == nil {
		sources = []models.Source{}
	}
	h.sendJSON(w, http.StatusOK, models.QueryResponse{
		Answer:    answer,
		Sources:   sources,
		SessionID: sessionID,
	})
}

// ClearSession drops the conversation history of one session
// @Summary Clear a session
// @Description Forget the conversation history of the given session
// @Tags query
// @Accept json
// @Produce json
// @Param session body models.ClearSessionRequest true "Session to clear"
// @Success 200 {object} models.BasicResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/session/clear [post]
func (h *QueryHandler) ClearSession(w http.ResponseWriter, r *http.Request) {
	var req models.ClearSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.SessionID == "" {
		h.sendError(w, http.StatusBadRequest, "Field 'session_id' is required")
		return
	}

	if err := h.rag.ClearSession(r.Context(), req.SessionID); err != nil {
		h.logger.Printf("Failed to clear session %s: %v", req.SessionID, err)
		h.sendError(w, http.StatusInternalServerError, "Failed to clear session")
		return
	}
	h.sendJSON(w, http.StatusOK, models.BasicResponse{Message: "Session cleared", Status: "success"})
}

func (h *QueryHandler) sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Printf("Failed to encode JSON: %v", err)
	}
}

func (h *QueryHandler) sendError(w http.ResponseWriter, status int, message string) {
	h.sendJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Status:  status,
	})
}
