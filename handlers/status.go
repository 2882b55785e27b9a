package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/serisow/metaminds/document"
	"github.com/serisow/metaminds/document_store"
)

// StatusHandler serves the current lifecycle state of a document.
type StatusHandler struct {
	store  document_store.Store
	logger *slog.Logger
}

func NewStatusHandler(store document_store.Store, logger *slog.Logger) *StatusHandler {
	return &StatusHandler{
		store:  store,
		logger: logger,
	}
}

func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeJSONError(w, "Invalid document id", http.StatusBadRequest)
		return
	}

	doc, err := h.store.Get(r.Context(), id)
	if errors.Is(err, document.ErrNotFound) {
		writeJSONError(w, "Document not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("Failed to load document",
			slog.Int64("document_id", id),
			slog.String("error", err.Error()))
		writeJSONError(w, "Failed to load document", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, doc)
}
