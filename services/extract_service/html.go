package extract_service

import (
	"bytes"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/PuerkitoBio/goquery"
)

var whitespacePattern = regexp.MustCompile(`\s+`)

// HTMLExtractor pulls visible text out of an HTML document, dropping
// script and style content.
type HTMLExtractor struct {
	logger *slog.Logger
}

func (e *HTMLExtractor) Extract(data []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		e.logger.Error("Failed to parse HTML document",
			slog.String("error", err.Error()))
		return "", fmt.Errorf("failed to parse HTML: %v", err)
	}

	doc.Find("script, style, noscript").Remove()

	text := doc.Find("body").Text()
	if text == "" {
		// Fragment without a body element; fall back to the whole tree.
		text = doc.Text()
	}

	return whitespacePattern.ReplaceAllString(text, " "), nil
}
