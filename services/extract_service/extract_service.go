// Package extract_service turns uploaded file bytes into plain text,
// dispatching on the document's declared type.
package extract_service

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/serisow/metaminds/document"
)

// Extractor converts raw file bytes into text.
type Extractor interface {
	Extract(data []byte) (string, error)
}

// Registry maps lowercase extension tokens (".pdf", ".docx", ...) to
// extractors. Dispatch is case-insensitive.
type Registry struct {
	extractors map[string]Extractor
	logger     *slog.Logger
}

// NewRegistry builds a registry with the full set of supported formats.
func NewRegistry(logger *slog.Logger) *Registry {
	r := &Registry{
		extractors: make(map[string]Extractor),
		logger:     logger,
	}

	r.Register(".pdf", &PDFExtractor{logger: logger})
	r.Register(".doc", &WordExtractor{mimeType: docMimeType, logger: logger})
	r.Register(".docx", &WordExtractor{mimeType: docxMimeType, logger: logger})
	r.Register(".txt", &TextExtractor{})
	r.Register(".html", &HTMLExtractor{logger: logger})
	r.Register(".htm", &HTMLExtractor{logger: logger})
	for _, ext := range []string{".png", ".jpg", ".jpeg", ".tiff"} {
		r.Register(ext, &ImageExtractor{logger: logger})
	}

	return r
}

// Register installs an extractor for an extension token. The token is
// normalized to a lowercase dotted form.
func (r *Registry) Register(ext string, e Extractor) {
	r.extractors[normalizeExt(ext)] = e
}

// Extract dispatches to the extractor for the declared type and returns
// the extracted text. Unknown types fail with document.ErrUnsupportedType
// without touching the data; library failures are wrapped in
// document.ErrExtractionFailed; whitespace-only output fails with
// document.ErrEmptyExtraction.
func (r *Registry) Extract(data []byte, declaredType string) (string, error) {
	ext := normalizeExt(declaredType)

	extractor, ok := r.extractors[ext]
	if !ok {
		r.logger.Error("Unsupported file type",
			slog.String("extension", ext))
		return "", fmt.Errorf("%w: %s", document.ErrUnsupportedType, ext)
	}

	text, err := extractor.Extract(data)
	if err != nil {
		r.logger.Error("Text extraction failed",
			slog.String("extension", ext),
			slog.String("error", err.Error()))
		return "", fmt.Errorf("%w: %v", document.ErrExtractionFailed, err)
	}

	if strings.TrimSpace(text) == "" {
		r.logger.Error("Extraction produced no text",
			slog.String("extension", ext))
		return "", fmt.Errorf("%w (%s)", document.ErrEmptyExtraction, ext)
	}

	r.logger.Info("Successfully extracted text",
		slog.String("extension", ext),
		slog.Int("text_length", len(text)))

	return text, nil
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
