package ports

import (
	"context"
	"time"

	"aidigest/internal/domain"
)

// SourceStore persists deduplicated source items and their two-stage
// enrichment state, one logical table per source type.
type SourceStore interface {
	// Register stores a newly discovered item. Returns
	// domain.ErrAlreadyExists when the (sourceType, sourceId) key is
	// already taken; the existing row is never overwritten.
	Register(ctx context.Context, item domain.SourceItem) error

	// RegisterBatch stores many items in one round trip, skipping keys
	// that already exist. Returns the number of newly created rows;
	// duplicates never roll back the rest of the batch.
	RegisterBatch(ctx context.Context, items []domain.SourceItem) (int, error)

	// ListPendingEnrichment returns items whose enrichment has not been
	// attempted yet. Sources without an enrichment stage return nothing.
	// limit <= 0 means no limit. No ordering is guaranteed.
	ListPendingEnrichment(ctx context.Context, sourceType domain.SourceType, limit int) ([]domain.SourceItem, error)

	// AttachEnrichment sets the enrichment payload (or the unavailable
	// sentinel) on a row whose enrichment is still unset. Reports false
	// when the row is missing or already enriched; both are benign.
	AttachEnrichment(ctx context.Context, sourceType domain.SourceType, sourceID, value string) (bool, error)

	// ListReady returns items satisfying the source's readiness predicate
	// for digest generation.
	ListReady(ctx context.Context, sourceType domain.SourceType) ([]domain.SourceItem, error)
}

// DigestLedger records produced digests, write-once per source item.
type DigestLedger interface {
	// CreateDigest stores a digest under the derived type:id key. Returns
	// domain.ErrAlreadyExists when the key is taken, without mutating the
	// stored record. A zero publishedAt falls back to wall-clock time.
	CreateDigest(ctx context.Context, sourceType domain.SourceType, sourceID, url, title, summary string, publishedAt time.Time) (domain.DigestRecord, error)

	// ListDigestIDs returns every digest key in one scan.
	ListDigestIDs(ctx context.Context) ([]string, error)

	// Recent returns digests created within the trailing window, newest
	// first. windowHours must be positive.
	Recent(ctx context.Context, windowHours int) ([]domain.DigestRecord, error)
}

// TranscriptFetcher obtains a transcript for a video. ok=false with a nil
// error means the source confirmed no transcript exists; the caller should
// record the unavailable sentinel rather than retry.
type TranscriptFetcher interface {
	Fetch(ctx context.Context, videoID string) (text string, ok bool, err error)
}

// ArticleExtractor fetches a page and converts it to plain text. Errors are
// treated as transient; the item stays pending for the next run.
type ArticleExtractor interface {
	Extract(ctx context.Context, pageURL string) (string, error)
}

// DigestGenerator turns one unified item into a digest title and summary.
type DigestGenerator interface {
	Generate(ctx context.Context, item domain.UnifiedItem) (title, summary string, err error)
}

// Curator ranks recent digests for the reader.
type Curator interface {
	Rank(ctx context.Context, digests []domain.DigestRecord) ([]domain.RankedDigest, error)
}

// Scheduler controls when the pipeline executes.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
