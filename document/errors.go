package document

import "errors"

// Failure taxonomy shared across the pipeline and the search path.
// Callers match with errors.Is; causes are attached by wrapping.
var (
	// ErrUnsupportedType means no extractor is registered for the
	// document's declared type. Terminal, never retried.
	ErrUnsupportedType = errors.New("unsupported file type")

	// ErrExtractionFailed wraps a parser or OCR failure on a supported type.
	ErrExtractionFailed = errors.New("text extraction failed")

	// ErrEmptyExtraction means extraction succeeded but produced no text
	// after whitespace normalization. The pipeline never embeds empty content.
	ErrEmptyExtraction = errors.New("no text content extracted")

	// ErrEmbeddingFailed wraps an embedding backend failure.
	ErrEmbeddingFailed = errors.New("embedding generation failed")

	// ErrStorageIO wraps a blob store or database I/O failure.
	ErrStorageIO = errors.New("storage error")

	// ErrNotFound means the referenced document id does not exist.
	ErrNotFound = errors.New("document not found")

	// ErrInvalidTransition means a status update would move a document
	// backward or out of a terminal state.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrSearchFailed wraps any failure while serving a search query.
	ErrSearchFailed = errors.New("search failed")
)
