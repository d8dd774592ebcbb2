package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"

	"aidigest/internal/domain"
	"aidigest/internal/ports"
)

const digestTable = "digests"

// sourceSpec describes how one source type maps onto storage: its table and
// whether it has a second enrichment stage at all.
type sourceSpec struct {
	table      string
	enrichable bool
}

var sourceSpecs = map[domain.SourceType]sourceSpec{
	domain.SourceYouTube:   {table: "youtube_videos", enrichable: true},
	domain.SourceOpenAI:    {table: "openai_articles", enrichable: false},
	domain.SourceAnthropic: {table: "anthropic_articles", enrichable: true},
}

var itemColumns = []string{"source_id", "title", "url", "published_at", "description", "category", "enrichment"}

// PostgresStore implements the source record stores and the digest ledger on
// a single Postgres database. Uniqueness on (sourceType, sourceId) and on
// the digest key is enforced by primary-key constraints, so concurrent
// registrations resolve to exactly one winner.
type PostgresStore struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

var _ ports.SourceStore = (*PostgresStore)(nil)
var _ ports.DigestLedger = (*PostgresStore)(nil)

// NewPostgresStore connects to Postgres, verifies the connection, and
// returns a store. The caller should Close it when done.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &PostgresStore{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar).RunWith(db),
	}, nil
}

// Close closes the underlying database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// Migrate creates the schema when it does not exist yet.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	stmts := make([]string, 0, len(sourceSpecs)+2)
	for _, spec := range sourceSpecs {
		stmts = append(stmts, fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				source_id    TEXT PRIMARY KEY,
				title        TEXT NOT NULL DEFAULT '',
				url          TEXT NOT NULL DEFAULT '',
				published_at TIMESTAMPTZ,
				description  TEXT NOT NULL DEFAULT '',
				category     TEXT NOT NULL DEFAULT '',
				enrichment   TEXT
			)`, spec.table))
	}
	stmts = append(stmts, `
		CREATE TABLE IF NOT EXISTS digests (
			id          TEXT PRIMARY KEY,
			source_type TEXT NOT NULL,
			source_id   TEXT NOT NULL,
			url         TEXT NOT NULL DEFAULT '',
			title       TEXT NOT NULL DEFAULT '',
			summary     TEXT NOT NULL DEFAULT '',
			created_at  TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS digests_created_at_idx ON digests (created_at DESC)`,
	)

	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Register inserts a single item; the conflict target makes the insert a
// no-op when the key is already taken.
func (s *PostgresStore) Register(ctx context.Context, item domain.SourceItem) error {
	spec, err := specFor(item.SourceType, item.SourceID)
	if err != nil {
		return err
	}

	res, err := s.sb.Insert(spec.table).
		Columns(itemColumns...).
		Values(itemValues(item)...).
		Suffix("ON CONFLICT (source_id) DO NOTHING").
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("register %s/%s: %w", item.SourceType, item.SourceID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("register %s/%s: %w", item.SourceType, item.SourceID, err)
	}
	if affected == 0 {
		return fmt.Errorf("register %s/%s: %w", item.SourceType, item.SourceID, domain.ErrAlreadyExists)
	}
	return nil
}

// RegisterBatch inserts the whole batch in one statement. Keys that already
// exist are skipped without affecting the rest; the returned count covers
// only newly created rows.
func (s *PostgresStore) RegisterBatch(ctx context.Context, items []domain.SourceItem) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	spec, err := specFor(items[0].SourceType, items[0].SourceID)
	if err != nil {
		return 0, err
	}

	insert := s.sb.Insert(spec.table).Columns(itemColumns...)
	for _, item := range items {
		if _, err := specFor(item.SourceType, item.SourceID); err != nil {
			return 0, err
		}
		if item.SourceType != items[0].SourceType {
			return 0, fmt.Errorf("batch mixes source types %s and %s: %w",
				items[0].SourceType, item.SourceType, domain.ErrInvalidInput)
		}
		insert = insert.Values(itemValues(item)...)
	}

	res, err := insert.Suffix("ON CONFLICT (source_id) DO NOTHING").ExecContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("register batch (%s): %w", items[0].SourceType, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("register batch (%s): %w", items[0].SourceType, err)
	}
	return int(affected), nil
}

// ListPendingEnrichment returns items still waiting for their second stage.
func (s *PostgresStore) ListPendingEnrichment(ctx context.Context, sourceType domain.SourceType, limit int) ([]domain.SourceItem, error) {
	spec, ok := sourceSpecs[sourceType]
	if !ok {
		return nil, fmt.Errorf("unknown source type %q: %w", sourceType, domain.ErrInvalidInput)
	}
	if !spec.enrichable {
		return nil, nil
	}

	query := s.sb.Select(itemColumns...).
		From(spec.table).
		Where(sq.Eq{"enrichment": nil})
	if limit > 0 {
		query = query.Limit(uint64(limit))
	}

	rows, err := query.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pending (%s): %w", sourceType, err)
	}
	return scanItems(rows, sourceType)
}

// AttachEnrichment records the second-stage payload, first write wins. The
// guard on a NULL enrichment makes the update idempotent and keeps the
// unavailable sentinel permanent.
func (s *PostgresStore) AttachEnrichment(ctx context.Context, sourceType domain.SourceType, sourceID, value string) (bool, error) {
	spec, err := specFor(sourceType, sourceID)
	if err != nil {
		return false, err
	}
	if value == "" {
		return false, fmt.Errorf("attach enrichment %s/%s: empty value: %w", sourceType, sourceID, domain.ErrInvalidInput)
	}

	res, err := s.sb.Update(spec.table).
		Set("enrichment", value).
		Where(sq.Eq{"source_id": sourceID}).
		Where(sq.Eq{"enrichment": nil}).
		ExecContext(ctx)
	if err != nil {
		return false, fmt.Errorf("attach enrichment %s/%s: %w", sourceType, sourceID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("attach enrichment %s/%s: %w", sourceType, sourceID, err)
	}
	return affected > 0, nil
}

// ListReady returns items passing the source's readiness predicate.
func (s *PostgresStore) ListReady(ctx context.Context, sourceType domain.SourceType) ([]domain.SourceItem, error) {
	spec, ok := sourceSpecs[sourceType]
	if !ok {
		return nil, fmt.Errorf("unknown source type %q: %w", sourceType, domain.ErrInvalidInput)
	}

	query := s.sb.Select(itemColumns...).From(spec.table)
	if cond := readyCondition(spec); cond != nil {
		query = query.Where(cond)
	}

	rows, err := query.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("list ready (%s): %w", sourceType, err)
	}
	return scanItems(rows, sourceType)
}

// CreateDigest records a digest under the derived key, write-once.
func (s *PostgresStore) CreateDigest(ctx context.Context, sourceType domain.SourceType, sourceID, url, title, summary string, publishedAt time.Time) (domain.DigestRecord, error) {
	if _, err := specFor(sourceType, sourceID); err != nil {
		return domain.DigestRecord{}, err
	}

	record := newDigestRecord(sourceType, sourceID, url, title, summary, publishedAt)

	res, err := s.sb.Insert(digestTable).
		Columns("id", "source_type", "source_id", "url", "title", "summary", "created_at").
		Values(record.ID, record.SourceType, record.SourceID, record.URL, record.Title, record.Summary, record.CreatedAt).
		Suffix("ON CONFLICT (id) DO NOTHING").
		ExecContext(ctx)
	if err != nil {
		return domain.DigestRecord{}, fmt.Errorf("create digest %s: %w", record.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return domain.DigestRecord{}, fmt.Errorf("create digest %s: %w", record.ID, err)
	}
	if affected == 0 {
		return domain.DigestRecord{}, fmt.Errorf("create digest %s: %w", record.ID, domain.ErrAlreadyExists)
	}
	return record, nil
}

// ListDigestIDs scans the ledger keys in one query.
func (s *PostgresStore) ListDigestIDs(ctx context.Context) ([]string, error) {
	rows, err := s.sb.Select("id").From(digestTable).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("list digest ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan digest id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate digest ids: %w", err)
	}
	return ids, nil
}

// Recent returns digests inside the trailing window, newest first.
func (s *PostgresStore) Recent(ctx context.Context, windowHours int) ([]domain.DigestRecord, error) {
	if windowHours <= 0 {
		return nil, fmt.Errorf("window must be positive, got %d: %w", windowHours, domain.ErrInvalidInput)
	}

	cutoff := time.Now().UTC().Add(-time.Duration(windowHours) * time.Hour)

	rows, err := s.sb.Select("id", "source_type", "source_id", "url", "title", "summary", "created_at").
		From(digestTable).
		Where(sq.GtOrEq{"created_at": cutoff}).
		OrderBy("created_at DESC").
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("recent digests: %w", err)
	}
	defer rows.Close()

	var records []domain.DigestRecord
	for rows.Next() {
		var rec domain.DigestRecord
		if err := rows.Scan(&rec.ID, &rec.SourceType, &rec.SourceID, &rec.URL, &rec.Title, &rec.Summary, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan digest: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate digests: %w", err)
	}
	return records, nil
}

// readyCondition expresses the per-source digest readiness predicate as SQL.
// Sources without an enrichment stage are always ready.
func readyCondition(spec sourceSpec) sq.Sqlizer {
	if !spec.enrichable {
		return nil
	}
	return sq.And{
		sq.NotEq{"enrichment": nil},
		sq.NotEq{"enrichment": domain.EnrichmentUnavailable},
		sq.NotEq{"enrichment": ""},
	}
}

func specFor(sourceType domain.SourceType, sourceID string) (sourceSpec, error) {
	spec, ok := sourceSpecs[sourceType]
	if !ok {
		return sourceSpec{}, fmt.Errorf("unknown source type %q: %w", sourceType, domain.ErrInvalidInput)
	}
	if sourceID == "" {
		return sourceSpec{}, fmt.Errorf("empty source id (%s): %w", sourceType, domain.ErrInvalidInput)
	}
	return spec, nil
}

func itemValues(item domain.SourceItem) []interface{} {
	return []interface{}{
		item.SourceID,
		item.Title,
		item.URL,
		item.PublishedAt.UTC(),
		item.Description,
		item.Category,
		item.Enrichment,
	}
}

func scanItems(rows *sql.Rows, sourceType domain.SourceType) ([]domain.SourceItem, error) {
	defer rows.Close()

	var items []domain.SourceItem
	for rows.Next() {
		var (
			item       domain.SourceItem
			enrichment sql.NullString
		)
		err := rows.Scan(&item.SourceID, &item.Title, &item.URL, &item.PublishedAt,
			&item.Description, &item.Category, &enrichment)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		item.SourceType = sourceType
		if enrichment.Valid {
			value := enrichment.String
			item.Enrichment = &value
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}
	return items, nil
}

// newDigestRecord derives the ledger key and pins createdAt to the item's
// publication time when known, else to ingestion time.
func newDigestRecord(sourceType domain.SourceType, sourceID, url, title, summary string, publishedAt time.Time) domain.DigestRecord {
	createdAt := time.Now().UTC()
	if !publishedAt.IsZero() {
		createdAt = publishedAt.UTC()
	}
	return domain.DigestRecord{
		ID:         domain.DigestID(sourceType, sourceID),
		SourceType: sourceType,
		SourceID:   sourceID,
		URL:        url,
		Title:      title,
		Summary:    summary,
		CreatedAt:  createdAt,
	}
}
