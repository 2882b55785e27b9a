package extract_service

import (
	"bytes"
	"fmt"
	"log/slog"

	"code.sajari.com/docconv/v2"
)

// docconv dispatches on the MIME type, so legacy OLE .doc files and
// ZIP-based .docx files must be routed to different converters.
const (
	docMimeType  = "application/msword"
	docxMimeType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// WordExtractor pulls paragraph text out of Word documents in document
// order, newline-joined by the converter.
type WordExtractor struct {
	mimeType string
	logger   *slog.Logger
}

func (e *WordExtractor) Extract(data []byte) (string, error) {
	e.logger.Debug("Starting Word document text extraction",
		slog.String("mime_type", e.mimeType),
		slog.Int("data_size", len(data)))

	result, err := docconv.Convert(bytes.NewReader(data), e.mimeType, false)
	if err != nil {
		e.logger.Error("Failed to convert Word document",
			slog.String("mime_type", e.mimeType),
			slog.String("error", err.Error()),
			slog.Int("data_size", len(data)))
		return "", fmt.Errorf("failed to convert Word document: %v", err)
	}

	return result.Body, nil
}
