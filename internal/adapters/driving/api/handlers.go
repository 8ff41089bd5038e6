package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/corvidae-labs/archivist/internal/core/domain"
	"github.com/corvidae-labs/archivist/internal/logger"
)

// retrieveRequest is the body of /api/retrieve and /api/ask.
type retrieveRequest struct {
	Query    string `json:"query"`
	TopPages int    `json:"top_pages,omitempty"`
	TopK     int    `json:"top_k,omitempty"`
}

// pageSearchRequest is the body of /api/pages/search.
type pageSearchRequest struct {
	Path  string `json:"path"`
	Query string `json:"query"`
	TopK  int    `json:"top_k,omitempty"`
}

// citation is the wire form of a ranked chunk.
type citation struct {
	ID      int     `json:"id"`
	Title   string  `json:"title"`
	Path    string  `json:"path"`
	Section string  `json:"section"`
	Text    string  `json:"text"`
	Score   float64 `json:"score"`
}

// retrieveResponse is the wire form of a retrieval result.
type retrieveResponse struct {
	ExitReason string     `json:"exit_reason"`
	Citations  []citation `json:"citations"`
}

// suggestion is one entry of the /api/suggest response.
type suggestion struct {
	Title string `json:"title"`
	Path  string `json:"path"`
}

func toResponse(result *domain.RetrievalResult) retrieveResponse {
	resp := retrieveResponse{
		ExitReason: string(result.ExitReason),
		Citations:  []citation{},
	}
	for _, rc := range result.Citations {
		resp.Citations = append(resp.Citations, citation{
			ID:      rc.CitationID,
			Title:   rc.Chunk.ParentTitle,
			Path:    rc.Chunk.ParentPath,
			Section: rc.Chunk.SectionLabel,
			Text:    rc.Chunk.Text,
			Score:   rc.Score,
		})
	}
	return resp
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{"status": "ok"}
	if s.deps.IndexStat != nil {
		n, err := s.deps.IndexStat(r.Context())
		if err != nil {
			status["status"] = "degraded"
			status["index"] = "unavailable"
		} else {
			status["index"] = "ready"
			status["indexed_titles"] = n
		}
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleRetrieve(w http.ResponseWriter, r *http.Request) {
	var req retrieveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	result, err := s.deps.Retriever.Retrieve(r.Context(), req.Query, domain.RetrievalOptions{
		TopPages: req.TopPages,
		TopK:     req.TopK,
	})
	if err != nil {
		writeRetrievalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(result))
}

func (s *Server) handlePageSearch(w http.ResponseWriter, r *http.Request) {
	var req pageSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.Path == "" || req.Query == "" {
		writeError(w, http.StatusBadRequest, "path and query are required")
		return
	}

	result, err := s.deps.Retriever.RetrieveInPath(r.Context(), req.Path, req.Query, req.TopK)
	if err != nil {
		writeRetrievalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(result))
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	if s.deps.Suggester == nil {
		writeError(w, http.StatusServiceUnavailable, "suggestions are not available")
		return
	}

	prefix := r.URL.Query().Get("q")
	if prefix == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	refs, err := s.deps.Suggester.Suggest(r.Context(), prefix, limit)
	if err != nil {
		writeRetrievalError(w, err)
		return
	}

	suggestions := []suggestion{}
	for _, ref := range refs {
		suggestions = append(suggestions, suggestion{Title: ref.Title, Path: ref.Path})
	}
	writeJSON(w, http.StatusOK, map[string]any{"suggestions": suggestions})
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	if s.deps.Answerer == nil {
		writeError(w, http.StatusServiceUnavailable, "answer generation is not available")
		return
	}

	var req retrieveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	sink, err := newSSESink(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "streaming is not supported")
		return
	}

	opts := domain.RetrievalOptions{TopPages: req.TopPages, TopK: req.TopK}
	if err := s.deps.Answerer.Ask(r.Context(), req.Query, opts, sink); err != nil {
		// Headers are already out; report the failure in-stream.
		logger.Warn("ask stream failed: %v", err)
		sink.Error(err)
		return
	}
	sink.Done()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeRetrievalError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrIndexUnavailable),
		errors.Is(err, domain.ErrEmbeddingUnavailable),
		errors.Is(err, domain.ErrLLMUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
