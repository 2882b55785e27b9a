package extract_service

import (
	"fmt"
	"log/slog"

	"github.com/otiai10/gosseract/v2"
)

// ImageExtractor runs Tesseract OCR over raster images.
type ImageExtractor struct {
	logger *slog.Logger
}

func (e *ImageExtractor) Extract(data []byte) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetImageFromBytes(data); err != nil {
		e.logger.Error("Failed to load image for OCR",
			slog.String("error", err.Error()),
			slog.Int("data_size", len(data)))
		return "", fmt.Errorf("failed to load image: %v", err)
	}

	text, err := client.Text()
	if err != nil {
		e.logger.Error("OCR failed",
			slog.String("error", err.Error()))
		return "", fmt.Errorf("OCR failed: %v", err)
	}

	e.logger.Debug("OCR complete",
		slog.Int("text_length", len(text)))

	return text, nil
}
