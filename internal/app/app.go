// Package app assembles the discovery pipeline from configuration.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/grantscout/grantscout/internal/archive"
	"github.com/grantscout/grantscout/internal/clarify"
	"github.com/grantscout/grantscout/internal/config"
	"github.com/grantscout/grantscout/internal/crawl"
	"github.com/grantscout/grantscout/internal/discovery"
	"github.com/grantscout/grantscout/internal/enrich"
	"github.com/grantscout/grantscout/internal/extract"
	"github.com/grantscout/grantscout/internal/fetch"
	"github.com/grantscout/grantscout/internal/grant"
	"github.com/grantscout/grantscout/internal/llm"
	"github.com/grantscout/grantscout/internal/logging"
	"github.com/grantscout/grantscout/internal/portal"
	"github.com/grantscout/grantscout/internal/store"
)

// App owns every long-lived component of the service.
type App struct {
	Cfg          config.Config
	Logger       *zap.Logger
	Orchestrator *discovery.Orchestrator

	renderer *fetch.HeadlessRenderer
	runs     store.Provider
}

// New loads configuration and wires the full pipeline.
func New(ctx context.Context, cfgPath string) (*App, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}

	fetcher := fetch.New(fetch.Config{
		UserAgent:        cfg.Fetch.UserAgent,
		Timeout:          cfg.FetchTimeout(),
		MaxAttempts:      cfg.Fetch.MaxAttempts,
		BackoffBase:      time.Duration(cfg.Fetch.BackoffBaseMs) * time.Millisecond,
		RelayEnabled:     cfg.Fetch.RelayEnabled,
		RelayEndpoint:    cfg.Fetch.RelayEndpoint,
		RelayAPIKey:      cfg.Fetch.RelayAPIKey,
		RelayRenderPages: cfg.Fetch.RelayRenderPages,
	}, logger)

	app := &App{Cfg: cfg, Logger: logger}

	var renderer crawl.Renderer
	var detector *crawl.RenderDetector
	if cfg.Headless.Enabled {
		hr, err := fetch.NewHeadlessRenderer(fetch.HeadlessConfig{
			UserAgent:   cfg.Fetch.UserAgent,
			MaxParallel: cfg.Headless.MaxParallel,
			NavTimeout:  time.Duration(cfg.Headless.NavTimeoutSec) * time.Second,
			DomainQPS:   cfg.Headless.DomainQPS,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("starting headless renderer: %w", err)
		}
		app.renderer = hr
		renderer = hr
		detector = crawl.NewRenderDetector(cfg.Headless.MinHTMLBytes, cfg.Headless.SignalKeywords)
	}

	var sink crawl.Sink
	if cfg.Archive.Enabled {
		fs, err := archive.NewFileSink(cfg.Archive.Dir, cfg.Archive.MaxPageBytes, logger)
		if err != nil {
			return nil, fmt.Errorf("opening archive: %w", err)
		}
		sink = fs
	}

	crawler := crawl.New(fetcher, renderer, detector, sink, crawl.Config{
		MaxPages:        cfg.Crawler.MaxPagesPerPortal,
		MaxLinksPerPage: cfg.Crawler.MaxLinksPerPage,
		Politeness:      time.Duration(cfg.Crawler.PolitenessMs) * time.Millisecond,
	}, logger)

	var scorer grant.RelevanceScorer
	var refiner grant.CriteriaExtractor
	var judge grant.ParaphraseJudge
	if cfg.LLM.APIKey != "" {
		client := llm.NewClient(llm.Config{
			Endpoint: cfg.LLM.Endpoint,
			Model:    cfg.LLM.Model,
			APIKey:   cfg.LLM.APIKey,
			Timeout:  time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
		}, logger)
		scorer, refiner, judge = client, client, client
	}

	runs, err := buildStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	app.runs = runs

	app.Orchestrator = discovery.New(
		portal.NewSelector(portal.Catalog(), cfg.Crawler.MaxPortals),
		crawler,
		extract.NewExtractor(logger),
		enrich.NewEnricher(scorer, logger),
		clarify.NewPolicy(judge, logger),
		refiner,
		runs,
		discovery.Config{
			Workers: cfg.Crawler.PortalWorkers,
			Budget:  cfg.RunBudget(),
		},
		logger,
	)
	return app, nil
}

func buildStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (store.Provider, error) {
	if cfg.Store.Provider != "postgres" {
		return store.NoOp{}, nil
	}
	pg, err := store.NewPostgres(ctx, cfg.Store.DSN, int(cfg.Store.MaxConns), logger)
	if err != nil {
		return nil, fmt.Errorf("connecting to run store: %w", err)
	}
	return pg, nil
}

// Close shuts down every component that holds external resources.
func (a *App) Close() {
	if a.renderer != nil {
		if err := a.renderer.Close(); err != nil {
			a.Logger.Warn("closing headless renderer", zap.Error(err))
		}
	}
	if a.runs != nil {
		if err := a.runs.Close(); err != nil {
			a.Logger.Warn("closing run store", zap.Error(err))
		}
	}
	_ = a.Logger.Sync()
}
