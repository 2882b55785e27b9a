package handlers

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/serisow/metaminds/document"
	"github.com/serisow/metaminds/document_store"
	"github.com/serisow/metaminds/storage"
)

// Enqueuer hands a registered document to the ingestion pipeline.
type Enqueuer interface {
	Enqueue(documentID int64) error
}

type UploadResponse struct {
	Message    string          `json:"message"`
	DocumentID int64           `json:"document_id"`
	Filename   string          `json:"filename"`
	Status     document.Status `json:"status"`
}

type UploadHandler struct {
	store    document_store.Store
	blobs    *storage.FileStore
	pipeline Enqueuer
	logger   *slog.Logger
}

func NewUploadHandler(store document_store.Store, blobs *storage.FileStore, pipeline Enqueuer, logger *slog.Logger) *UploadHandler {
	return &UploadHandler{
		store:    store,
		blobs:    blobs,
		pipeline: pipeline,
		logger:   logger,
	}
}

// ServeHTTP registers the upload and schedules processing. The caller
// gets the document id and PENDING back immediately; extraction and
// embedding happen on the pipeline's workers.
func (h *UploadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.logger.Info("Received file upload request")

	err := r.ParseMultipartForm(10 << 20) // 10 MB limit
	if err != nil {
		writeJSONError(w, "Failed to parse multipart form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSONError(w, "Failed to get file from form", http.StatusBadRequest)
		return
	}
	defer file.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		writeJSONError(w, "Failed to read file", http.StatusInternalServerError)
		return
	}

	ext := filepath.Ext(header.Filename)
	if ext == "" {
		writeJSONError(w, "Filename has no extension", http.StatusBadRequest)
		return
	}

	path, err := h.blobs.Save(header.Filename, buf.Bytes())
	if err != nil {
		h.logger.Error("Failed to save upload",
			slog.String("filename", header.Filename),
			slog.String("error", err.Error()))
		writeJSONError(w, "Failed to save file", http.StatusInternalServerError)
		return
	}

	id, err := h.store.Register(r.Context(), header.Filename, path, ext)
	if err != nil {
		// The blob save and the metadata insert are one logical unit:
		// roll the blob back so no bytes linger without a record.
		if rmErr := h.blobs.Remove(path); rmErr != nil {
			h.logger.Error("Failed to remove orphaned blob",
				slog.String("filepath", path),
				slog.String("error", rmErr.Error()))
		}
		h.logger.Error("Failed to register document",
			slog.String("filename", header.Filename),
			slog.String("error", err.Error()))
		writeJSONError(w, "Failed to register document", http.StatusInternalServerError)
		return
	}

	if err := h.pipeline.Enqueue(id); err != nil {
		// The record stays PENDING; re-submission is the recovery path.
		h.logger.Error("Failed to enqueue document",
			slog.Int64("document_id", id),
			slog.String("error", err.Error()))
		writeJSONError(w, "Ingestion queue is full, please retry", http.StatusServiceUnavailable)
		return
	}

	h.logger.Info("Upload accepted",
		slog.Int64("document_id", id),
		slog.String("filename", header.Filename))

	writeJSON(w, http.StatusAccepted, UploadResponse{
		Message:    "File uploaded. Processing has started.",
		DocumentID: id,
		Filename:   header.Filename,
		Status:     document.StatusPending,
	})
}
