package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"aidigest/internal/domain"
	"aidigest/internal/infrastructure/storage"
	"aidigest/internal/producer"
)

type fakeProducer struct {
	sourceType domain.SourceType
	items      []domain.SourceItem
}

func (f *fakeProducer) SourceType() domain.SourceType { return f.sourceType }

func (f *fakeProducer) Discover(ctx context.Context) ([]domain.SourceItem, error) {
	return f.items, nil
}

// fakeTranscripts resolves ids present in the map; everything else is
// confirmed unavailable.
type fakeTranscripts struct {
	texts map[string]string
}

func (f *fakeTranscripts) Fetch(ctx context.Context, videoID string) (string, bool, error) {
	text, ok := f.texts[videoID]
	return text, ok, nil
}

type fakeExtractor struct {
	texts map[string]string
}

func (f *fakeExtractor) Extract(ctx context.Context, pageURL string) (string, error) {
	text, ok := f.texts[pageURL]
	if !ok {
		return "", fmt.Errorf("unreachable page %s", pageURL)
	}
	return text, nil
}

type fakeDigester struct {
	calls int
}

func (f *fakeDigester) Generate(ctx context.Context, item domain.UnifiedItem) (string, string, error) {
	f.calls++
	return "digest " + item.SourceID, "summary of " + item.SourceID, nil
}

type fakeCurator struct {
	got int
}

func (f *fakeCurator) Rank(ctx context.Context, digests []domain.DigestRecord) ([]domain.RankedDigest, error) {
	f.got = len(digests)
	ranked := make([]domain.RankedDigest, 0, len(digests))
	for i, d := range digests {
		ranked = append(ranked, domain.RankedDigest{DigestID: d.ID, Score: 5, Rank: i + 1})
	}
	return ranked, nil
}

func TestPipelineEndToEnd(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryStore()
	registry := producer.NewRegistry()
	registry.Register(&fakeProducer{
		sourceType: domain.SourceYouTube,
		items: []domain.SourceItem{
			fixtureItem(domain.SourceYouTube, "v-ok"),
			fixtureItem(domain.SourceYouTube, "v-missing"),
		},
	})
	registry.Register(&fakeProducer{
		sourceType: domain.SourceOpenAI,
		items:      []domain.SourceItem{fixtureItem(domain.SourceOpenAI, "a1")},
	})
	registry.Register(&fakeProducer{
		sourceType: domain.SourceAnthropic,
		items:      []domain.SourceItem{fixtureItem(domain.SourceAnthropic, "g1")},
	})

	digester := &fakeDigester{}
	curator := &fakeCurator{}
	pipeline := NewPipeline(PipelineDeps{
		Producers:   registry,
		Store:       store,
		Ledger:      store,
		Transcripts: &fakeTranscripts{texts: map[string]string{"v-ok": "spoken words"}},
		Extractor:   &fakeExtractor{texts: map[string]string{"https://example.org/g1": "long document"}},
		Digester:    digester,
		Curator:     curator,
		WindowHours: 24,
	})

	ctx := context.Background()
	if err := pipeline.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}

	ids, err := store.ListDigestIDs(ctx)
	if err != nil {
		t.Fatalf("list digest ids: %v", err)
	}
	if len(ids) != 3 {
		t.Fatalf("expected digests for v-ok, a1, g1; got %v", ids)
	}
	if digester.calls != 3 {
		t.Fatalf("expected 3 digest generations, got %d", digester.calls)
	}
	if curator.got != 3 {
		t.Fatalf("curator should see 3 recent digests, got %d", curator.got)
	}

	// The transcript miss is terminal: the video never re-enters the
	// pending queue.
	pendingVideos, err := store.ListPendingEnrichment(ctx, domain.SourceYouTube, 0)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pendingVideos) != 0 {
		t.Fatalf("expected no pending videos after run, got %v", pendingVideos)
	}

	// A second run is fully idempotent: same discoveries, nothing new to
	// digest.
	if err := pipeline.Run(ctx); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if digester.calls != 3 {
		t.Fatalf("second run must not re-digest, got %d calls", digester.calls)
	}
}

func TestPipelineLeavesFailedExtractionPending(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryStore()
	registry := producer.NewRegistry()
	registry.Register(&fakeProducer{
		sourceType: domain.SourceAnthropic,
		items:      []domain.SourceItem{fixtureItem(domain.SourceAnthropic, "g-down")},
	})

	pipeline := NewPipeline(PipelineDeps{
		Producers: registry,
		Store:     store,
		Ledger:    store,
		Extractor: &fakeExtractor{},
		Digester:  &fakeDigester{},
	})

	ctx := context.Background()
	if err := pipeline.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}

	pending, err := store.ListPendingEnrichment(ctx, domain.SourceAnthropic, 0)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 || pending[0].SourceID != "g-down" {
		t.Fatalf("transient failure must keep the item pending, got %v", pending)
	}

	ids, err := store.ListDigestIDs(ctx)
	if err != nil {
		t.Fatalf("list digest ids: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("nothing was ready to digest, got %v", ids)
	}
}

func TestPipelineToleratesDigestRetry(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryStore()
	ctx := context.Background()

	item := fixtureItem(domain.SourceOpenAI, "a1")
	if err := store.Register(ctx, item); err != nil {
		t.Fatalf("register: %v", err)
	}
	// Simulate a digest committed by a previous crashed run.
	if _, err := store.CreateDigest(ctx, domain.SourceOpenAI, "a1", item.URL, "t", "s", time.Now().UTC()); err != nil {
		t.Fatalf("seed digest: %v", err)
	}

	digester := &fakeDigester{}
	pipeline := NewPipeline(PipelineDeps{
		Store:    store,
		Ledger:   store,
		Digester: digester,
	})

	if err := pipeline.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
	if digester.calls != 0 {
		t.Fatalf("already-digested item must not be regenerated, got %d calls", digester.calls)
	}
}
