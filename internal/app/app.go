package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/matchstats/external/apisports"
	"github.com/riskibarqy/matchstats/internal/config"
	"github.com/riskibarqy/matchstats/internal/domain/fixture"
	"github.com/riskibarqy/matchstats/internal/domain/matchstats"
	cacherepo "github.com/riskibarqy/matchstats/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/matchstats/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/matchstats/internal/interfaces/httpapi"
	basecache "github.com/riskibarqy/matchstats/internal/platform/cache"
	idgen "github.com/riskibarqy/matchstats/internal/platform/id"
	"github.com/riskibarqy/matchstats/internal/platform/logging"
	"github.com/riskibarqy/matchstats/internal/scheduler"
	"github.com/riskibarqy/matchstats/internal/usecase"
)

// Collector ties the API-Sports client, the store and the schedule together.
type Collector struct {
	cfg       config.Config
	service   *usecase.CollectionService
	scheduler *scheduler.Scheduler
	logger    *logging.Logger
}

func NewCollector(cfg config.Config, db *sqlx.DB, recorder usecase.CollectionRecorder, logger *logging.Logger) (*Collector, error) {
	if logger == nil {
		logger = logging.Default()
	}

	client := apisports.NewClient(apisports.ClientConfig{
		BaseURL:        cfg.APISportsBaseURL,
		APIKey:         cfg.APISportsKey,
		Timeout:        cfg.APISportsTimeout,
		MaxRetries:     cfg.APISportsMaxRetries,
		CircuitBreaker: cfg.APISportsCircuit,
		Logger:         logger.Named("apisports"),
	})

	fixtureRepo := postgres.NewFixtureRepository(db)
	statsRepo := postgres.NewMatchStatisticsRepository(db)
	writer := usecase.NewStatisticsWriter(statsRepo, logger)
	service := usecase.NewCollectionService(client, fixtureRepo, writer, usecase.CollectionConfig{
		MaxWorkers: cfg.CollectMaxWorkers,
		Recorder:   recorder,
		IDs:        idgen.NewUUIDGenerator(),
	}, logger.Named("collector"))

	c := &Collector{
		cfg:     cfg,
		service: service,
		logger:  logger,
	}

	sched, err := scheduler.New(scheduler.Config{
		Interval:   cfg.CollectInterval,
		Cron:       cfg.CollectCron,
		RunOnStart: cfg.CollectRunOnStart,
		RunTimeout: cfg.CollectRunTimeout,
	}, c.RunOnce, logger.Named("scheduler"))
	if err != nil {
		return nil, fmt.Errorf("build scheduler: %w", err)
	}
	c.scheduler = sched

	return c, nil
}

// RunOnce collects every configured league for the configured season.
func (c *Collector) RunOnce(ctx context.Context) {
	c.service.CollectAll(ctx, c.cfg.CollectLeagues, c.cfg.CollectSeason)
}

// Run blocks until ctx is cancelled and the in-flight run, if any, has finished.
func (c *Collector) Run(ctx context.Context) error {
	c.logger.InfoContext(ctx, "collector started",
		"leagues", c.cfg.CollectLeagues,
		"season", c.cfg.CollectSeason,
		"interval", c.cfg.CollectInterval.String(),
		"cron", c.cfg.CollectCron,
	)
	return c.scheduler.Run(ctx)
}

// NewHTTPServer builds the read API over db. metrics is mounted at /metrics when non-nil.
func NewHTTPServer(cfg config.Config, db *sqlx.DB, metrics http.Handler, logger *logging.Logger) (*http.Server, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	var fixtureRepo fixture.Repository = postgres.NewFixtureRepository(db)
	var statsRepo matchstats.Repository = postgres.NewMatchStatisticsRepository(db)
	if cfg.CacheEnabled {
		store := basecache.NewStore(cfg.CacheTTL)
		fixtureRepo = cacherepo.NewFixtureRepository(fixtureRepo, store)
		statsRepo = cacherepo.NewMatchStatisticsRepository(statsRepo, store)
	}

	queryService := usecase.NewQueryService(fixtureRepo, statsRepo)
	handler := httpapi.NewHandler(queryService, db, logger.Named("httpapi"))
	router := httpapi.NewRouter(handler, logger, cfg.CORSAllowedOrigins, metrics)

	return &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}, nil
}
