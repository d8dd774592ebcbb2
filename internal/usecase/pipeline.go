package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"aidigest/internal/domain"
	"aidigest/internal/ports"
	"aidigest/internal/producer"
)

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Producers   *producer.Registry
	Store       ports.SourceStore
	Ledger      ports.DigestLedger
	Transcripts ports.TranscriptFetcher
	Extractor   ports.ArticleExtractor
	Digester    ports.DigestGenerator
	Curator     ports.Curator
	Logger      *slog.Logger

	// EnrichLimit caps how many pending items each enrichment pass picks
	// up per run; DigestLimit caps the digest batch. Zero means no cap.
	EnrichLimit int
	DigestLimit int
	// WindowHours is the recency window handed to the curator.
	WindowHours int
}

// Pipeline implements the ingest → enrich → digest → curate workflow.
type Pipeline struct {
	producers   *producer.Registry
	store       ports.SourceStore
	ledger      ports.DigestLedger
	transcripts ports.TranscriptFetcher
	extractor   ports.ArticleExtractor
	digester    ports.DigestGenerator
	curator     ports.Curator
	unifier     *Unifier
	logger      *slog.Logger
	enrichLimit int
	digestLimit int
	windowHours int
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		producers:   deps.Producers,
		store:       deps.Store,
		ledger:      deps.Ledger,
		transcripts: deps.Transcripts,
		extractor:   deps.Extractor,
		digester:    deps.Digester,
		curator:     deps.Curator,
		unifier:     NewUnifier(deps.Store, deps.Ledger),
		logger:      logger,
		enrichLimit: deps.EnrichLimit,
		digestLimit: deps.DigestLimit,
		windowHours: deps.WindowHours,
	}
}

// Run executes one full pass: discover and register new items, attach
// enrichments, digest the unified backlog, then rank the recent digests.
func (p *Pipeline) Run(ctx context.Context) error {
	if err := p.ingest(ctx); err != nil {
		return err
	}
	if err := p.enrich(ctx); err != nil {
		return err
	}
	if err := p.digest(ctx); err != nil {
		return err
	}
	return p.curate(ctx)
}

func (p *Pipeline) ingest(ctx context.Context) error {
	if p.producers == nil {
		return nil
	}

	for _, prod := range p.producers.All() {
		items, err := prod.Discover(ctx)
		if err != nil {
			return fmt.Errorf("discover %s: %w", prod.SourceType(), err)
		}
		if len(items) == 0 {
			continue
		}

		created, err := p.store.RegisterBatch(ctx, items)
		if err != nil {
			return fmt.Errorf("register batch %s: %w", prod.SourceType(), err)
		}
		p.logger.Info("registered items",
			"source", prod.SourceType(), "discovered", len(items), "created", created)
	}
	return nil
}

// enrich runs both second-stage fetches. A transient fetch failure only
// skips the item; it stays pending for the next run. A confirmed-missing
// transcript writes the sentinel so the video is never retried.
func (p *Pipeline) enrich(ctx context.Context) error {
	if p.transcripts != nil {
		pending, err := p.store.ListPendingEnrichment(ctx, domain.SourceYouTube, p.enrichLimit)
		if err != nil {
			return fmt.Errorf("list pending transcripts: %w", err)
		}
		for _, item := range pending {
			text, ok, err := p.transcripts.Fetch(ctx, item.SourceID)
			if err != nil {
				p.logger.Warn("transcript fetch failed", "video", item.SourceID, "error", err)
				continue
			}
			value := text
			if !ok || value == "" {
				value = domain.EnrichmentUnavailable
			}
			if _, err := p.store.AttachEnrichment(ctx, item.SourceType, item.SourceID, value); err != nil {
				return fmt.Errorf("attach transcript %s: %w", item.SourceID, err)
			}
		}
	}

	if p.extractor != nil {
		pending, err := p.store.ListPendingEnrichment(ctx, domain.SourceAnthropic, p.enrichLimit)
		if err != nil {
			return fmt.Errorf("list pending articles: %w", err)
		}
		for _, item := range pending {
			text, err := p.extractor.Extract(ctx, item.URL)
			if err != nil || text == "" {
				p.logger.Warn("article extraction failed", "article", item.SourceID, "error", err)
				continue
			}
			if _, err := p.store.AttachEnrichment(ctx, item.SourceType, item.SourceID, text); err != nil {
				return fmt.Errorf("attach article text %s: %w", item.SourceID, err)
			}
		}
	}

	return nil
}

func (p *Pipeline) digest(ctx context.Context) error {
	if p.digester == nil {
		return nil
	}

	pending, err := p.unifier.PendingForDigest(ctx, p.digestLimit)
	if err != nil {
		return fmt.Errorf("pending for digest: %w", err)
	}

	for _, item := range pending {
		title, summary, err := p.digester.Generate(ctx, item)
		if err != nil {
			p.logger.Warn("digest generation failed",
				"source", item.SourceType, "id", item.SourceID, "error", err)
			continue
		}

		_, err = p.ledger.CreateDigest(ctx, item.SourceType, item.SourceID, item.URL, title, summary, item.PublishedAt)
		if errors.Is(err, domain.ErrAlreadyExists) {
			continue
		}
		if err != nil {
			return fmt.Errorf("create digest %s/%s: %w", item.SourceType, item.SourceID, err)
		}
		p.logger.Info("digest created", "source", item.SourceType, "id", item.SourceID)
	}
	return nil
}

func (p *Pipeline) curate(ctx context.Context) error {
	if p.curator == nil || p.windowHours <= 0 {
		return nil
	}

	recent, err := p.ledger.Recent(ctx, p.windowHours)
	if err != nil {
		return fmt.Errorf("recent digests: %w", err)
	}
	if len(recent) == 0 {
		return nil
	}

	ranked, err := p.curator.Rank(ctx, recent)
	if err != nil {
		return fmt.Errorf("rank digests: %w", err)
	}

	for _, r := range ranked {
		p.logger.Info("ranked digest",
			"digest", r.DigestID, "rank", r.Rank, "score", r.Score)
	}
	return nil
}

// Scheduler wires the recurring driver with the pipeline.
type Scheduler struct {
	driver   ports.Scheduler
	pipeline *Pipeline
	logger   *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring runs.
func NewScheduler(driver ports.Scheduler, pipeline *Pipeline, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{driver: driver, pipeline: pipeline, logger: logger}
}

// Start registers the pipeline with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.pipeline == nil {
		return nil
	}

	job := func(trigger time.Time) {
		if err := s.pipeline.Run(ctx); err != nil {
			s.logger.Error("pipeline run failed", "trigger", trigger, "error", err)
		}
	}
	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}
	return s.driver.Stop(ctx)
}
