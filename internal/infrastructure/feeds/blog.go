package feeds

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"aidigest/internal/domain"
	"aidigest/internal/producer"
)

// BlogProducer discovers recent entries of one blog source across one or
// more RSS/Atom feeds. The same article can appear in several feeds of the
// same source, so guids are deduplicated across them.
type BlogProducer struct {
	sourceType domain.SourceType
	parser     *gofeed.Parser
	feedURLs   []string
	lookback   time.Duration
	logger     *slog.Logger
}

var _ producer.Producer = (*BlogProducer)(nil)

// NewBlogProducer wires a feed parser over the given feed URLs.
func NewBlogProducer(sourceType domain.SourceType, feedURLs []string, lookback time.Duration, logger *slog.Logger) *BlogProducer {
	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: 20 * time.Second}
	return &BlogProducer{
		sourceType: sourceType,
		parser:     parser,
		feedURLs:   feedURLs,
		lookback:   lookback,
		logger:     logger,
	}
}

// SourceType identifies the producer inside the registry.
func (p *BlogProducer) SourceType() domain.SourceType {
	return p.sourceType
}

// Discover walks every feed and returns entries published within the
// lookback window. An unreachable feed is skipped so the remaining feeds of
// the source still contribute.
func (p *BlogProducer) Discover(ctx context.Context) ([]domain.SourceItem, error) {
	cutoff := time.Now().UTC().Add(-p.lookback)
	seen := map[string]struct{}{}

	var items []domain.SourceItem
	for _, feedURL := range p.feedURLs {
		feed, err := p.parser.ParseURLWithContext(feedURL, ctx)
		if err != nil {
			p.warn("feed fetch failed", "source", p.sourceType, "feed", feedURL, "error", err)
			continue
		}

		for _, entry := range feed.Items {
			published := publishedTime(entry)
			if published.IsZero() || published.Before(cutoff) {
				continue
			}

			guid := entry.GUID
			if guid == "" {
				guid = entry.Link
			}
			if guid == "" {
				continue
			}
			if _, dup := seen[guid]; dup {
				continue
			}
			seen[guid] = struct{}{}

			var category string
			if len(entry.Categories) > 0 {
				category = entry.Categories[0]
			}

			items = append(items, domain.SourceItem{
				SourceType:  p.sourceType,
				SourceID:    guid,
				Title:       entry.Title,
				URL:         entry.Link,
				PublishedAt: published,
				Description: entry.Description,
				Category:    category,
			})
		}
	}

	return items, nil
}

func (p *BlogProducer) warn(msg string, args ...interface{}) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
