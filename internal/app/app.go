package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"aidigest/internal/config"
	"aidigest/internal/domain"
	"aidigest/internal/infrastructure/content"
	"aidigest/internal/infrastructure/feeds"
	"aidigest/internal/infrastructure/llm"
	"aidigest/internal/infrastructure/scheduler"
	"aidigest/internal/infrastructure/storage"
	"aidigest/internal/infrastructure/transcript"
	"aidigest/internal/logging"
	"aidigest/internal/ports"
	"aidigest/internal/producer"
	"aidigest/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	pipeline *usecase.Pipeline
	closer   func() error
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	var (
		store  ports.SourceStore
		ledger ports.DigestLedger
		closer func() error
	)
	if cfg.Database.DSN != "" {
		pg, err := storage.NewPostgresStore(cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("connect storage: %w", err)
		}
		if err := pg.Migrate(context.Background()); err != nil {
			pg.Close()
			return nil, fmt.Errorf("migrate storage: %w", err)
		}
		store, ledger, closer = pg, pg, pg.Close
	} else {
		baseLogger.Warn("no database configured, state will not survive restarts")
		mem := storage.NewMemoryStore()
		store, ledger = mem, mem
	}

	lookback := time.Duration(cfg.Sources.LookbackHours) * time.Hour
	registry := producer.NewRegistry()
	if len(cfg.Sources.YouTubeChannels) > 0 {
		registry.Register(feeds.NewYouTubeProducer(cfg.Sources.YouTubeChannels, lookback,
			baseLogger.With("component", "producer.youtube")))
	}
	if len(cfg.Sources.OpenAIFeeds) > 0 {
		registry.Register(feeds.NewBlogProducer(domain.SourceOpenAI, cfg.Sources.OpenAIFeeds, lookback,
			baseLogger.With("component", "producer.openai")))
	}
	if len(cfg.Sources.AnthropicFeeds) > 0 {
		registry.Register(feeds.NewBlogProducer(domain.SourceAnthropic, cfg.Sources.AnthropicFeeds, lookback,
			baseLogger.With("component", "producer.anthropic")))
	}

	var transcripts ports.TranscriptFetcher
	if cfg.Transcript.Endpoint != "" {
		transcripts = transcript.NewClient(cfg.Transcript.Endpoint, cfg.Transcript.APIKey)
	}

	var (
		digester ports.DigestGenerator
		curator  ports.Curator
	)
	if cfg.LLM.APIKey != "" {
		digester = llm.NewDigestClient(cfg.LLM.Endpoint, cfg.LLM.Model, cfg.LLM.APIKey)
		curatorModel := cfg.LLM.CuratorModel
		if curatorModel == "" {
			curatorModel = cfg.LLM.Model
		}
		curator = llm.NewCuratorClient(cfg.LLM.Endpoint, curatorModel, cfg.LLM.APIKey, llm.Profile{
			Name:        cfg.Profile.Name,
			Background:  cfg.Profile.Background,
			Expertise:   cfg.Profile.Expertise,
			Interests:   cfg.Profile.Interests,
			Preferences: cfg.Profile.Preferences,
		})
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Producers:   registry,
		Store:       store,
		Ledger:      ledger,
		Transcripts: transcripts,
		Extractor:   content.NewExtractor(0),
		Digester:    digester,
		Curator:     curator,
		Logger:      baseLogger.With("component", "pipeline"),
		EnrichLimit: cfg.Pipeline.EnrichLimit,
		DigestLimit: cfg.Pipeline.DigestLimit,
		WindowHours: cfg.Pipeline.RecentWindowHours,
	})

	return &Application{cfg: cfg, logger: baseLogger, pipeline: pipeline, closer: closer}, nil
}

// Run executes the pipeline once, or on the configured interval until the
// context is cancelled.
func (a *Application) Run(ctx context.Context) error {
	defer a.close()

	if a.cfg.Scheduler.RunOnce {
		return a.pipeline.Run(ctx)
	}

	driver := scheduler.NewTickerScheduler(a.cfg.Scheduler.Duration())
	sched := usecase.NewScheduler(driver, a.pipeline, a.logger.With("component", "scheduler"))
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	<-ctx.Done()
	return sched.Stop(context.Background())
}

func (a *Application) close() {
	if a.closer == nil {
		return
	}
	if err := a.closer(); err != nil {
		a.logger.Error("close storage", "error", err)
	}
}
