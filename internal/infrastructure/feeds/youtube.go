package feeds

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"aidigest/internal/domain"
	"aidigest/internal/producer"
)

const channelFeedBase = "https://www.youtube.com/feeds/videos.xml?channel_id="

// YouTubeProducer discovers recent uploads of configured channels via their
// public Atom feeds. Shorts are skipped.
type YouTubeProducer struct {
	parser     *gofeed.Parser
	channelIDs []string
	lookback   time.Duration
	logger     *slog.Logger

	// feedBase is overridable in tests.
	feedBase string
}

var _ producer.Producer = (*YouTubeProducer)(nil)

// NewYouTubeProducer wires a feed parser over the given channel ids,
// looking back the given duration per run.
func NewYouTubeProducer(channelIDs []string, lookback time.Duration, logger *slog.Logger) *YouTubeProducer {
	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: 20 * time.Second}
	return &YouTubeProducer{
		parser:     parser,
		channelIDs: channelIDs,
		lookback:   lookback,
		logger:     logger,
		feedBase:   channelFeedBase,
	}
}

// SourceType identifies the producer inside the registry.
func (p *YouTubeProducer) SourceType() domain.SourceType {
	return domain.SourceYouTube
}

// Discover parses each channel feed and returns videos published within the
// lookback window, without transcripts; those are attached in stage two.
func (p *YouTubeProducer) Discover(ctx context.Context) ([]domain.SourceItem, error) {
	cutoff := time.Now().UTC().Add(-p.lookback)

	var items []domain.SourceItem
	for _, channelID := range p.channelIDs {
		feed, err := p.parser.ParseURLWithContext(p.feedBase+channelID, ctx)
		if err != nil {
			return nil, fmt.Errorf("parse channel feed %s: %w", channelID, err)
		}

		for _, entry := range feed.Items {
			if strings.Contains(entry.Link, "/shorts/") {
				continue
			}

			published := publishedTime(entry)
			if published.IsZero() || published.Before(cutoff) {
				continue
			}

			items = append(items, domain.SourceItem{
				SourceType:  domain.SourceYouTube,
				SourceID:    ExtractVideoID(entry.Link),
				Title:       entry.Title,
				URL:         entry.Link,
				PublishedAt: published,
				Description: entry.Description,
			})
		}
	}

	p.debug("youtube discover done", "channels", len(p.channelIDs), "videos", len(items))
	return items, nil
}

// ExtractVideoID pulls the video id out of watch, shorts and youtu.be URL
// forms; unknown forms are returned unchanged.
func ExtractVideoID(videoURL string) string {
	if _, after, found := strings.Cut(videoURL, "youtube.com/watch?v="); found {
		id, _, _ := strings.Cut(after, "&")
		return id
	}
	if _, after, found := strings.Cut(videoURL, "youtube.com/shorts/"); found {
		id, _, _ := strings.Cut(after, "?")
		return id
	}
	if _, after, found := strings.Cut(videoURL, "youtu.be/"); found {
		id, _, _ := strings.Cut(after, "?")
		return id
	}
	return videoURL
}

func publishedTime(entry *gofeed.Item) time.Time {
	if entry.PublishedParsed != nil {
		return entry.PublishedParsed.UTC()
	}
	if entry.UpdatedParsed != nil {
		return entry.UpdatedParsed.UTC()
	}
	return time.Time{}
}

func (p *YouTubeProducer) debug(msg string, args ...interface{}) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}
