// Package api provides the REST handlers for managing the concept registry.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/ayusman/mudra/internal/embedding"
	"github.com/ayusman/mudra/internal/landmark"
	"github.com/ayusman/mudra/internal/store"
)

// ConceptHandler handles HTTP requests for registry concepts.
type ConceptHandler struct {
	store *store.Store
}

// NewConceptHandler creates a new ConceptHandler backed by the given store.
func NewConceptHandler(s *store.Store) *ConceptHandler {
	return &ConceptHandler{store: s}
}

// ServeHTTP routes requests under /api/concepts.
func (h *ConceptHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/concepts")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		// Collection endpoint: /api/concepts
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	// Item endpoint: /api/concepts/{id}. Concepts are keyed by (id,
	// language), so item requests carry the language as a query
	// parameter.
	id := path
	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// createConceptRequest is the request body for creating a concept.
type createConceptRequest struct {
	ID        string    `json:"id"`
	Language  string    `json:"language"`
	Name      string    `json:"name"`
	Embedding []float64 `json:"embedding"`
	Samples   int       `json:"samples"`
}

// conceptResponse is the API representation of a concept. The embedding
// itself is only included on single-concept reads.
type conceptResponse struct {
	ID        string    `json:"id"`
	Language  string    `json:"language"`
	Name      string    `json:"name"`
	Dim       int       `json:"dim"`
	Samples   int       `json:"samples"`
	Embedding []float64 `json:"embedding,omitempty"`
	CreatedAt string    `json:"created_at"`
	UpdatedAt string    `json:"updated_at"`
}

// listConceptsResponse is the response for listing concepts.
type listConceptsResponse struct {
	Concepts []conceptResponse `json:"concepts"`
}

// errorResponse is a JSON error message.
type errorResponse struct {
	Error string `json:"error"`
}

// toResponse converts a store.Concept to a conceptResponse.
func toResponse(c *store.Concept, includeEmbedding bool) conceptResponse {
	resp := conceptResponse{
		ID:        c.ID,
		Language:  c.Language,
		Name:      c.Name,
		Dim:       len(c.Vector),
		Samples:   c.Samples,
		CreatedAt: c.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt: c.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if includeEmbedding {
		resp.Embedding = c.Vector
	}
	return resp
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// list handles GET /api/concepts. An optional ?language= parameter
// restricts the listing to one language.
func (h *ConceptHandler) list(w http.ResponseWriter, r *http.Request) {
	language := r.URL.Query().Get("language")

	concepts, err := h.store.Concepts().List(language)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list concepts")
		return
	}

	response := listConceptsResponse{
		Concepts: make([]conceptResponse, 0, len(concepts)),
	}
	for _, c := range concepts {
		response.Concepts = append(response.Concepts, toResponse(c, false))
	}

	writeJSON(w, http.StatusOK, response)
}

// create handles POST /api/concepts and inserts a new concept.
func (h *ConceptHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createConceptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if req.Language == "" {
		writeError(w, http.StatusBadRequest, "Language is required")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	}
	if len(req.Embedding) != landmark.Dim {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("Embedding must have %d values, got %d", landmark.Dim, len(req.Embedding)))
		return
	}

	id := req.ID
	if id == "" {
		id = uuid.New().String()
	}
	samples := req.Samples
	if samples <= 0 {
		samples = 1
	}

	concept := &store.Concept{
		ID:       id,
		Language: req.Language,
		Name:     req.Name,
		Vector:   embedding.Vector(req.Embedding),
		Samples:  samples,
	}

	if err := h.store.Concepts().Create(concept); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create concept")
		return
	}

	writeJSON(w, http.StatusCreated, toResponse(concept, false))
}

// get handles GET /api/concepts/{id}?language=xx and returns a single
// concept including its embedding.
func (h *ConceptHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	language := r.URL.Query().Get("language")
	if language == "" {
		writeError(w, http.StatusBadRequest, "Language query parameter is required")
		return
	}

	concept, err := h.store.Concepts().GetByID(id, language)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Concept not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get concept")
		return
	}

	writeJSON(w, http.StatusOK, toResponse(concept, true))
}

// delete handles DELETE /api/concepts/{id}?language=xx.
func (h *ConceptHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	language := r.URL.Query().Get("language")
	if language == "" {
		writeError(w, http.StatusBadRequest, "Language query parameter is required")
		return
	}

	if err := h.store.Concepts().Delete(id, language); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Concept not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete concept")
		return
	}

	writeJSON(w, http.StatusNoContent, nil)
}
