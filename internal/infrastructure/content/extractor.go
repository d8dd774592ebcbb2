package content

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"aidigest/internal/ports"
)

const defaultTimeout = 30 * time.Second

// Extractor turns a published article URL into plain text suitable for
// summarization, using readability extraction with an HTML-stripping
// fallback.
type Extractor struct {
	timeout time.Duration
}

var _ ports.ArticleExtractor = (*Extractor)(nil)

// NewExtractor builds an extractor; a non-positive timeout uses the default.
func NewExtractor(timeout time.Duration) *Extractor {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Extractor{timeout: timeout}
}

// Extract fetches the page and returns its readable text content.
func (e *Extractor) Extract(ctx context.Context, pageURL string) (string, error) {
	if pageURL == "" {
		return "", fmt.Errorf("empty page url")
	}

	article, err := readability.FromURL(pageURL, e.timeout)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", pageURL, err)
	}

	text := strings.TrimSpace(article.TextContent)
	if text != "" {
		return text, nil
	}

	// Readability occasionally yields markup without a text rendering;
	// strip the tags ourselves.
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(article.Content))
	if err != nil {
		return "", fmt.Errorf("parse extracted content %s: %w", pageURL, err)
	}
	return strings.TrimSpace(doc.Text()), nil
}
