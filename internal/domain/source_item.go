package domain

import (
	"errors"
	"time"
)

// ErrAlreadyExists reports an idempotent create that found its key taken.
// Callers treat it as "no-op, proceed", not as a failure.
var ErrAlreadyExists = errors.New("already exists")

// ErrInvalidInput reports a malformed key or parameter.
var ErrInvalidInput = errors.New("invalid input")

// EnrichmentUnavailable marks an enrichment that was attempted and came back
// empty-handed. Terminal: the item never re-enters the pending queue.
const EnrichmentUnavailable = "__UNAVAILABLE__"

// SourceType discriminates which external source produced an item. It is
// part of the global identity of every item and digest.
type SourceType string

const (
	SourceYouTube   SourceType = "youtube"
	SourceOpenAI    SourceType = "openai"
	SourceAnthropic SourceType = "anthropic"
)

// SourceTypes lists all known sources in unification scan order.
func SourceTypes() []SourceType {
	return []SourceType{SourceYouTube, SourceOpenAI, SourceAnthropic}
}

// Valid reports whether the source type is one of the known discriminants.
func (t SourceType) Valid() bool {
	switch t {
	case SourceYouTube, SourceOpenAI, SourceAnthropic:
		return true
	}
	return false
}

// SourceItem is one piece of content registered from an external feed.
// (SourceType, SourceID) is the unique key; SourceID alone is only unique
// within its source.
type SourceItem struct {
	SourceType  SourceType
	SourceID    string
	Title       string
	URL         string
	PublishedAt time.Time
	Description string
	Category    string

	// Enrichment holds the heavy second-stage payload (transcript, full
	// document text). nil = not yet attempted; EnrichmentUnavailable =
	// attempted and confirmed missing.
	Enrichment *string
}

// EnrichmentText returns the enrichment payload, or "" when it is absent or
// the unavailable sentinel.
func (s SourceItem) EnrichmentText() string {
	if s.Enrichment == nil || *s.Enrichment == EnrichmentUnavailable {
		return ""
	}
	return *s.Enrichment
}

// Enriched reports whether the item carries usable enrichment content.
func (s SourceItem) Enriched() bool {
	return s.EnrichmentText() != ""
}
