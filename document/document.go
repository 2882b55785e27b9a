// Package document holds the domain model shared by the ingestion
// pipeline, the metadata store and the search service.
package document

import (
	"time"

	"github.com/pgvector/pgvector-go"
)

// Status is the lifecycle state of an uploaded document.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusProcessed  Status = "PROCESSED"
	StatusFailed     Status = "FAILED"
)

// PlaceholderCategory is assigned to every successfully processed document
// until real classification exists.
const PlaceholderCategory = "Uncategorized"

// IsTerminal reports whether the status can never change again.
func (s Status) IsTerminal() bool {
	return s == StatusProcessed || s == StatusFailed
}

// CanTransition reports whether moving from one status to another is a
// legal forward move. Statuses only advance PENDING -> PROCESSING ->
// {PROCESSED, FAILED}; terminal states never change.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusProcessing
	case StatusProcessing:
		return to == StatusProcessed || to == StatusFailed
	}
	return false
}

// Document is the metadata record kept for every upload.
type Document struct {
	ID            int64      `json:"id"`
	Filename      string     `json:"filename"`
	Filepath      string     `json:"filepath"`
	FileType      string     `json:"file_type"`
	Category      string     `json:"category,omitempty"`
	Status        Status     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	LastProcessed *time.Time `json:"last_processed,omitempty"`
}

// IndexEntry is the denormalized payload stored alongside a document's
// embedding in the vector index.
type IndexEntry struct {
	DocumentID int64
	Embedding  pgvector.Vector
	Content    string
	Filename   string
	Category   string
}

// SearchResult is one ranked hit returned to search callers. Score is
// cosine similarity in [-1, 1]; higher means more similar.
type SearchResult struct {
	Filename string  `json:"filename"`
	Category string  `json:"category"`
	Score    float64 `json:"score"`
}
