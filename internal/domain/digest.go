package domain

import "time"

// DigestID derives the ledger key for a source item. The flat "type:id"
// encoding keeps the key computable without a lookup, so unification can
// test membership against a single ledger scan.
func DigestID(sourceType SourceType, sourceID string) string {
	return string(sourceType) + ":" + sourceID
}

// DigestRecord is the write-once result of summarizing one source item.
type DigestRecord struct {
	ID         string
	SourceType SourceType
	SourceID   string
	URL        string
	Title      string
	Summary    string

	// CreatedAt is the item's original publication time when known,
	// otherwise the ingestion wall-clock time. Recency queries therefore
	// reflect editorial freshness, not processing time.
	CreatedAt time.Time
}

// UnifiedItem is the cross-source work unit handed to the digest stage.
// Content is the per-source text chosen for summarization.
type UnifiedItem struct {
	SourceType  SourceType
	SourceID    string
	Title       string
	URL         string
	Content     string
	PublishedAt time.Time
}

// RankedDigest is the curation verdict for one digest.
type RankedDigest struct {
	DigestID  string
	Score     float64
	Rank      int
	Reasoning string
}
