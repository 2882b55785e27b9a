package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/serisow/metaminds/document"
	"github.com/serisow/metaminds/services/search_service"
)

type SearchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

type SearchResponse struct {
	Results []document.SearchResult `json:"results"`
	Count   int                     `json:"count"`
}

type SearchHandler struct {
	search *search_service.Service
	logger *slog.Logger
}

func NewSearchHandler(search *search_service.Service, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{
		search: search,
		logger: logger,
	}
}

func (h *SearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("Failed to decode search request",
			slog.String("error", err.Error()))
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Query == "" {
		writeJSONError(w, "Search query cannot be empty", http.StatusBadRequest)
		return
	}

	results, err := h.search.Search(r.Context(), req.Query, req.TopK)
	if err != nil {
		h.logger.Error("Search failed",
			slog.String("query", req.Query),
			slog.String("error", err.Error()))
		writeJSONError(w, "Search failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, SearchResponse{
		Results: results,
		Count:   len(results),
	})
}
