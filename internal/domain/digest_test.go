package domain

import "testing"

func TestDigestID(t *testing.T) {
	t.Parallel()

	if got := DigestID(SourceYouTube, "abc123"); got != "youtube:abc123" {
		t.Fatalf("unexpected digest id: %s", got)
	}
	if got := DigestID(SourceOpenAI, "https://openai.com/blog/gpt-4"); got != "openai:https://openai.com/blog/gpt-4" {
		t.Fatalf("unexpected digest id: %s", got)
	}
}

func TestEnrichmentText(t *testing.T) {
	t.Parallel()

	var item SourceItem
	if item.EnrichmentText() != "" || item.Enriched() {
		t.Fatalf("absent enrichment should read as empty")
	}

	sentinel := EnrichmentUnavailable
	item.Enrichment = &sentinel
	if item.EnrichmentText() != "" || item.Enriched() {
		t.Fatalf("unavailable sentinel should read as empty")
	}

	text := "full transcript"
	item.Enrichment = &text
	if item.EnrichmentText() != "full transcript" || !item.Enriched() {
		t.Fatalf("unexpected enrichment text: %q", item.EnrichmentText())
	}
}

func TestSourceTypeValid(t *testing.T) {
	t.Parallel()

	for _, sourceType := range SourceTypes() {
		if !sourceType.Valid() {
			t.Fatalf("%s should be valid", sourceType)
		}
	}
	if SourceType("rss").Valid() {
		t.Fatalf("unknown source type should be invalid")
	}
}
