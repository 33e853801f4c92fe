package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cerplabs/quiver/internal/enginerr"
	"github.com/cerplabs/quiver/internal/registry"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// handleHealth implements GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleStats implements GET /stats: process uptime plus per-collection
// document counts.
func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	names := s.registry.List()
	perCollection := make(map[string]int, len(names))
	for _, name := range names {
		if e, ok := s.registry.Get(name); ok {
			perCollection[name] = e.DocCount()
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"version":     buildVersion,
		"uptime":      time.Since(s.startedAt).String(),
		"collections": perCollection,
	})
}

// handleListCollections implements GET /collections.
func (s *Server) handleListCollections(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"collections": s.registry.List()})
}

// handleCreateCollection implements POST /collections.
func (s *Server) handleCreateCollection(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name   string    `json:"name"`
		Schema schemaDTO `json:"schema"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	schema, err := body.Schema.toEngineSchema()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.registry.Create(body.Name, schema); err != nil {
		if errors.Is(err, registry.ErrCollectionExists) {
			writeError(w, http.StatusBadRequest, "collection already exists")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"name": body.Name})
}

// handleDropCollection implements DELETE /collections/{name}.
func (s *Server) handleDropCollection(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := s.registry.Drop(name); err != nil {
		if errors.Is(err, registry.ErrCollectionNotFound) {
			writeError(w, http.StatusNotFound, "collection not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"name": name})
}

// maxTolerance is the collaborator-enforced bound the core itself does
// not impose (spec.md §9 Open Question: "Tolerance range and maximum
// (documented 0..5)... enforced by the collaborator, not the core").
const maxTolerance = 5

// handleSearch implements POST /collections/{name}/search.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	e, ok := s.registry.Get(name)
	if !ok {
		writeError(w, http.StatusNotFound, "collection not found")
		return
	}

	var req searchRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Tolerance < 0 || req.Tolerance > maxTolerance {
		writeError(w, http.StatusBadRequest, "tolerance must be between 0 and 5")
		return
	}

	result := e.Search(req.toEngineQuery())
	writeJSON(w, http.StatusOK, resultToDTO(result))
}

// handleAddDocument implements POST /collections/{name}/docs?id=….
func (s *Server) handleAddDocument(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	e, ok := s.registry.Get(name)
	if !ok {
		writeError(w, http.StatusNotFound, "collection not found")
		return
	}

	var body documentDTO
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	doc, err := body.toEngineDocument(e.Schema())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id := r.URL.Query().Get("id")
	newID, err := s.registry.AddDocument(name, doc, id)
	if err != nil {
		if errors.Is(err, enginerr.ErrDuplicateID) {
			writeError(w, http.StatusConflict, "document id already exists")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": newID})
}

// handleGetDocument implements GET /collections/{name}/docs/{id}.
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	id := chi.URLParam(r, "id")
	e, ok := s.registry.Get(name)
	if !ok {
		writeError(w, http.StatusNotFound, "collection not found")
		return
	}
	doc, found := e.GetDocument(id)
	if !found {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}
	writeJSON(w, http.StatusOK, documentToJSON(doc))
}

// handleUpdateDocument implements PUT /collections/{name}/docs/{id}.
func (s *Server) handleUpdateDocument(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	id := chi.URLParam(r, "id")
	e, ok := s.registry.Get(name)
	if !ok {
		writeError(w, http.StatusNotFound, "collection not found")
		return
	}

	var body documentDTO
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	partial, err := body.toEngineDocument(e.Schema())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ok2, err := s.registry.UpdateDocument(name, id, partial)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !ok2 {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

// handleDeleteDocument implements DELETE /collections/{name}/docs/{id}.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	id := chi.URLParam(r, "id")

	ok, err := s.registry.DeleteDocument(name, id)
	if err != nil {
		if errors.Is(err, registry.ErrCollectionNotFound) {
			writeError(w, http.StatusNotFound, "collection not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}
