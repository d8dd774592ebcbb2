package usecase

import (
	"context"
	"fmt"

	"aidigest/internal/domain"
	"aidigest/internal/ports"
)

// Unifier merges the per-source backlogs into the single queue of items the
// digest stage still has to process. It hides the three source schemas and
// the completed-digest check behind one call.
type Unifier struct {
	store  ports.SourceStore
	ledger ports.DigestLedger
}

// NewUnifier wires the unification engine over the stores.
func NewUnifier(store ports.SourceStore, ledger ports.DigestLedger) *Unifier {
	return &Unifier{store: store, ledger: ledger}
}

// PendingForDigest returns every ready, not-yet-digested item across all
// sources, scanned in fixed source order and truncated to limit when
// limit > 0. The digested-key check is one ledger scan, not a point lookup
// per candidate. A failed source scan fails the whole call; silently
// dropping one source's backlog would break the unification guarantee.
func (u *Unifier) PendingForDigest(ctx context.Context, limit int) ([]domain.UnifiedItem, error) {
	ids, err := u.ledger.ListDigestIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list digested keys: %w", err)
	}
	digested := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		digested[id] = struct{}{}
	}

	var unified []domain.UnifiedItem
	for _, sourceType := range domain.SourceTypes() {
		items, err := u.store.ListReady(ctx, sourceType)
		if err != nil {
			return nil, fmt.Errorf("list ready (%s): %w", sourceType, err)
		}

		for _, item := range items {
			if _, done := digested[domain.DigestID(item.SourceType, item.SourceID)]; done {
				continue
			}
			unified = append(unified, domain.UnifiedItem{
				SourceType:  item.SourceType,
				SourceID:    item.SourceID,
				Title:       item.Title,
				URL:         item.URL,
				Content:     contentFor(item),
				PublishedAt: item.PublishedAt,
			})
		}
	}

	if limit > 0 && len(unified) > limit {
		unified = unified[:limit]
	}
	return unified, nil
}

// contentFor picks the text the digest stage should summarize. Enrichable
// sources use their enrichment payload and fall back to the short
// description if that payload is somehow blank; the description-only source
// is summarized straight from its description.
func contentFor(item domain.SourceItem) string {
	switch item.SourceType {
	case domain.SourceOpenAI:
		return item.Description
	default:
		if text := item.EnrichmentText(); text != "" {
			return text
		}
		return item.Description
	}
}
