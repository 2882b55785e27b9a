package extract_service

import (
	"fmt"
	"unicode/utf8"
)

// TextExtractor decodes plain text verbatim as UTF-8.
type TextExtractor struct{}

func (e *TextExtractor) Extract(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("file is not valid UTF-8")
	}
	return string(data), nil
}
