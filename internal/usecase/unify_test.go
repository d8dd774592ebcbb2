package usecase

import (
	"context"
	"testing"
	"time"

	"aidigest/internal/domain"
	"aidigest/internal/infrastructure/storage"
)

func fixtureItem(sourceType domain.SourceType, id string) domain.SourceItem {
	return domain.SourceItem{
		SourceType:  sourceType,
		SourceID:    id,
		Title:       "title " + id,
		URL:         "https://example.org/" + id,
		PublishedAt: time.Now().UTC().Add(-time.Hour),
		Description: "description " + id,
	}
}

// seedAllStates stores, per source type, one not-ready item (where the
// source has an enrichment stage), one ready item, and one ready item that
// already has a digest.
func seedAllStates(t *testing.T, store *storage.MemoryStore) {
	t.Helper()
	ctx := context.Background()

	register := func(item domain.SourceItem) {
		if err := store.Register(ctx, item); err != nil {
			t.Fatalf("register %s/%s: %v", item.SourceType, item.SourceID, err)
		}
	}
	attach := func(sourceType domain.SourceType, id, value string) {
		if _, err := store.AttachEnrichment(ctx, sourceType, id, value); err != nil {
			t.Fatalf("attach %s/%s: %v", sourceType, id, err)
		}
	}
	digest := func(sourceType domain.SourceType, id string) {
		_, err := store.CreateDigest(ctx, sourceType, id, "https://example.org/"+id, "t", "s", time.Now().UTC())
		if err != nil {
			t.Fatalf("digest %s/%s: %v", sourceType, id, err)
		}
	}

	register(fixtureItem(domain.SourceYouTube, "yt-pending"))
	register(fixtureItem(domain.SourceYouTube, "yt-unavailable"))
	attach(domain.SourceYouTube, "yt-unavailable", domain.EnrichmentUnavailable)
	register(fixtureItem(domain.SourceYouTube, "yt-ready"))
	attach(domain.SourceYouTube, "yt-ready", "transcript text")
	register(fixtureItem(domain.SourceYouTube, "yt-done"))
	attach(domain.SourceYouTube, "yt-done", "done transcript")
	digest(domain.SourceYouTube, "yt-done")

	register(fixtureItem(domain.SourceOpenAI, "oa-ready"))
	register(fixtureItem(domain.SourceOpenAI, "oa-done"))
	digest(domain.SourceOpenAI, "oa-done")

	register(fixtureItem(domain.SourceAnthropic, "an-pending"))
	register(fixtureItem(domain.SourceAnthropic, "an-ready"))
	attach(domain.SourceAnthropic, "an-ready", "full document text")
	register(fixtureItem(domain.SourceAnthropic, "an-done"))
	attach(domain.SourceAnthropic, "an-done", "done document")
	digest(domain.SourceAnthropic, "an-done")
}

func TestPendingForDigestSoundAndComplete(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryStore()
	seedAllStates(t, store)

	pending, err := NewUnifier(store, store).PendingForDigest(context.Background(), 0)
	if err != nil {
		t.Fatalf("pending for digest: %v", err)
	}

	want := []struct {
		sourceType domain.SourceType
		id         string
		content    string
	}{
		{domain.SourceYouTube, "yt-ready", "transcript text"},
		{domain.SourceOpenAI, "oa-ready", "description oa-ready"},
		{domain.SourceAnthropic, "an-ready", "full document text"},
	}
	if len(pending) != len(want) {
		t.Fatalf("expected %d pending items, got %d: %v", len(want), len(pending), pending)
	}
	for i, w := range want {
		got := pending[i]
		if got.SourceType != w.sourceType || got.SourceID != w.id {
			t.Fatalf("position %d: expected %s/%s, got %s/%s", i, w.sourceType, w.id, got.SourceType, got.SourceID)
		}
		if got.Content != w.content {
			t.Fatalf("%s: unexpected content %q", w.id, got.Content)
		}
		if got.Title == "" || got.URL == "" {
			t.Fatalf("%s: missing title or url", w.id)
		}
	}
}

func TestPendingForDigestLimit(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryStore()
	seedAllStates(t, store)

	pending, err := NewUnifier(store, store).PendingForDigest(context.Background(), 2)
	if err != nil {
		t.Fatalf("pending for digest: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected truncation to 2, got %d", len(pending))
	}
	if pending[0].SourceType != domain.SourceYouTube || pending[1].SourceType != domain.SourceOpenAI {
		t.Fatalf("truncation must keep scan order, got %s then %s", pending[0].SourceType, pending[1].SourceType)
	}
}

func TestVideoLifecycle(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryStore()
	unifier := NewUnifier(store, store)
	ctx := context.Background()

	if err := store.Register(ctx, fixtureItem(domain.SourceYouTube, "v1")); err != nil {
		t.Fatalf("register: %v", err)
	}

	pending, err := unifier.PendingForDigest(ctx, 0)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("unenriched video must not be pending, got %v", pending)
	}

	if _, err := store.AttachEnrichment(ctx, domain.SourceYouTube, "v1", "transcript text"); err != nil {
		t.Fatalf("attach: %v", err)
	}

	pending, err = unifier.PendingForDigest(ctx, 0)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 1 || pending[0].SourceID != "v1" || pending[0].Content != "transcript text" {
		t.Fatalf("expected v1 with transcript content, got %v", pending)
	}

	_, err = store.CreateDigest(ctx, domain.SourceYouTube, "v1", pending[0].URL, "New Title", "Summary", pending[0].PublishedAt)
	if err != nil {
		t.Fatalf("create digest: %v", err)
	}

	pending, err = unifier.PendingForDigest(ctx, 0)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("digested video must not resurface, got %v", pending)
	}
}

func TestDescriptionOnlySourceReadyImmediately(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryStore()
	ctx := context.Background()

	if err := store.Register(ctx, fixtureItem(domain.SourceOpenAI, "a1")); err != nil {
		t.Fatalf("register: %v", err)
	}

	pending, err := NewUnifier(store, store).PendingForDigest(ctx, 0)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 1 || pending[0].SourceID != "a1" {
		t.Fatalf("expected a1 pending immediately, got %v", pending)
	}
	if pending[0].Content != "description a1" {
		t.Fatalf("expected short description as content, got %q", pending[0].Content)
	}
}

func TestContentForFallsBackToDescription(t *testing.T) {
	t.Parallel()

	blank := ""
	item := fixtureItem(domain.SourceAnthropic, "g1")
	item.Enrichment = &blank

	if got := contentFor(item); got != "description g1" {
		t.Fatalf("blank enrichment should fall back to description, got %q", got)
	}
}
