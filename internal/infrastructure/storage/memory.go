package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"aidigest/internal/domain"
	"aidigest/internal/ports"
)

// MemoryStore is an in-process implementation of the source stores and the
// digest ledger. It backs tests and database-less local runs with the same
// contract as the Postgres store.
type MemoryStore struct {
	mu      sync.RWMutex
	items   map[domain.SourceType]map[string]domain.SourceItem
	order   map[domain.SourceType][]string
	digests map[string]domain.DigestRecord
}

var _ ports.SourceStore = (*MemoryStore)(nil)
var _ ports.DigestLedger = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store covering all known source types.
func NewMemoryStore() *MemoryStore {
	items := make(map[domain.SourceType]map[string]domain.SourceItem, len(sourceSpecs))
	order := make(map[domain.SourceType][]string, len(sourceSpecs))
	for sourceType := range sourceSpecs {
		items[sourceType] = make(map[string]domain.SourceItem)
	}
	return &MemoryStore{
		items:   items,
		order:   order,
		digests: make(map[string]domain.DigestRecord),
	}
}

// Register stores the item unless its key is taken.
func (s *MemoryStore) Register(ctx context.Context, item domain.SourceItem) error {
	if _, err := specFor(item.SourceType, item.SourceID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insert(item)
}

// RegisterBatch stores the batch under one lock, skipping taken keys.
func (s *MemoryStore) RegisterBatch(ctx context.Context, items []domain.SourceItem) (int, error) {
	for _, item := range items {
		if _, err := specFor(item.SourceType, item.SourceID); err != nil {
			return 0, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	created := 0
	for _, item := range items {
		if err := s.insert(item); err == nil {
			created++
		}
	}
	return created, nil
}

func (s *MemoryStore) insert(item domain.SourceItem) error {
	if _, exists := s.items[item.SourceType][item.SourceID]; exists {
		return fmt.Errorf("register %s/%s: %w", item.SourceType, item.SourceID, domain.ErrAlreadyExists)
	}
	if item.Enrichment != nil {
		value := *item.Enrichment
		item.Enrichment = &value
	}
	item.PublishedAt = item.PublishedAt.UTC()
	s.items[item.SourceType][item.SourceID] = item
	s.order[item.SourceType] = append(s.order[item.SourceType], item.SourceID)
	return nil
}

// ListPendingEnrichment returns items whose enrichment is still unset.
func (s *MemoryStore) ListPendingEnrichment(ctx context.Context, sourceType domain.SourceType, limit int) ([]domain.SourceItem, error) {
	spec, ok := sourceSpecs[sourceType]
	if !ok {
		return nil, fmt.Errorf("unknown source type %q: %w", sourceType, domain.ErrInvalidInput)
	}
	if !spec.enrichable {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var pending []domain.SourceItem
	for _, id := range s.order[sourceType] {
		item := s.items[sourceType][id]
		if item.Enrichment != nil {
			continue
		}
		pending = append(pending, item)
		if limit > 0 && len(pending) == limit {
			break
		}
	}
	return pending, nil
}

// AttachEnrichment sets the payload on a still-unset row, first write wins.
func (s *MemoryStore) AttachEnrichment(ctx context.Context, sourceType domain.SourceType, sourceID, value string) (bool, error) {
	if _, err := specFor(sourceType, sourceID); err != nil {
		return false, err
	}
	if value == "" {
		return false, fmt.Errorf("attach enrichment %s/%s: empty value: %w", sourceType, sourceID, domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item, exists := s.items[sourceType][sourceID]
	if !exists || item.Enrichment != nil {
		return false, nil
	}
	item.Enrichment = &value
	s.items[sourceType][sourceID] = item
	return true, nil
}

// ListReady returns items passing the source's readiness predicate.
func (s *MemoryStore) ListReady(ctx context.Context, sourceType domain.SourceType) ([]domain.SourceItem, error) {
	spec, ok := sourceSpecs[sourceType]
	if !ok {
		return nil, fmt.Errorf("unknown source type %q: %w", sourceType, domain.ErrInvalidInput)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var ready []domain.SourceItem
	for _, id := range s.order[sourceType] {
		item := s.items[sourceType][id]
		if spec.enrichable && !item.Enriched() {
			continue
		}
		ready = append(ready, item)
	}
	return ready, nil
}

// CreateDigest records a digest under the derived key, write-once.
func (s *MemoryStore) CreateDigest(ctx context.Context, sourceType domain.SourceType, sourceID, url, title, summary string, publishedAt time.Time) (domain.DigestRecord, error) {
	if _, err := specFor(sourceType, sourceID); err != nil {
		return domain.DigestRecord{}, err
	}

	record := newDigestRecord(sourceType, sourceID, url, title, summary, publishedAt)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.digests[record.ID]; exists {
		return domain.DigestRecord{}, fmt.Errorf("create digest %s: %w", record.ID, domain.ErrAlreadyExists)
	}
	s.digests[record.ID] = record
	return record, nil
}

// ListDigestIDs returns every ledger key.
func (s *MemoryStore) ListDigestIDs(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.digests))
	for id := range s.digests {
		ids = append(ids, id)
	}
	return ids, nil
}

// Recent returns digests inside the trailing window, newest first.
func (s *MemoryStore) Recent(ctx context.Context, windowHours int) ([]domain.DigestRecord, error) {
	if windowHours <= 0 {
		return nil, fmt.Errorf("window must be positive, got %d: %w", windowHours, domain.ErrInvalidInput)
	}

	cutoff := time.Now().UTC().Add(-time.Duration(windowHours) * time.Hour)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []domain.DigestRecord
	for _, record := range s.digests {
		if record.CreatedAt.Before(cutoff) {
			continue
		}
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	return records, nil
}
