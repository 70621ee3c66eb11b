package usecase

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/matchstats/internal/domain/fixture"
	"github.com/riskibarqy/matchstats/internal/platform/id"
	"github.com/riskibarqy/matchstats/internal/platform/logging"
	"github.com/sourcegraph/conc/panics"
	"go.opentelemetry.io/otel/attribute"
)

type FixtureOutcome string

const (
	OutcomeSaved   FixtureOutcome = "saved"
	OutcomeSkipped FixtureOutcome = "skipped"
	OutcomeNoData  FixtureOutcome = "no_data"
	OutcomeFailed  FixtureOutcome = "failed"
)

const (
	RunResultOK      = "ok"
	RunResultPartial = "partial"
	RunResultFailed  = "failed"
)

// CollectionRecorder receives pipeline counters. Implementations must be safe for concurrent use.
type CollectionRecorder interface {
	FixtureProcessed(league string, outcome FixtureOutcome)
	UpstreamError(op string, rateLimited bool)
	LeagueCollected(league string, elapsed time.Duration)
	RunFinished(result string)
}

type noopCollectionRecorder struct{}

func (noopCollectionRecorder) FixtureProcessed(string, FixtureOutcome) {}
func (noopCollectionRecorder) UpstreamError(string, bool)              {}
func (noopCollectionRecorder) LeagueCollected(string, time.Duration)   {}
func (noopCollectionRecorder) RunFinished(string)                      {}

type fixtureUpserter interface {
	UpsertMany(ctx context.Context, items []fixture.Fixture) error
}

type statisticsSaver interface {
	SaveStatistics(ctx context.Context, fx fixture.Fixture, blocks []ExternalTeamStatistics) error
}

type CollectionConfig struct {
	// MaxWorkers bounds concurrent fixture processing inside one league. 1 keeps it serial.
	MaxWorkers int
	Recorder   CollectionRecorder
	IDs        id.Generator
}

type CollectionService struct {
	provider   FootballProvider
	fixtures   fixtureUpserter
	writer     statisticsSaver
	recorder   CollectionRecorder
	ids        id.Generator
	maxWorkers int
	logger     *logging.Logger
}

type LeagueResult struct {
	LeagueID int64
	Season   int
	League   string
	Fixtures int
	Finished int
	Saved    int
	Skipped  int
	NoData   int
	Failed   int
	// FixtureStoreErr is set when the bulk fixture upsert failed. Statistics saves still run.
	FixtureStoreErr error
	Failures        []FixtureFailure
	Duration        time.Duration
}

type FixtureFailure struct {
	FixtureID int64
	Err       error
}

type LeagueFailure struct {
	LeagueID int64
	Err      error
}

type RunResult struct {
	RunID         string
	Season        int
	StartedAt     time.Time
	Duration      time.Duration
	Leagues       []LeagueResult
	FailedLeagues []LeagueFailure
}

// Status summarises the run for metrics and logs.
func (r RunResult) Status() string {
	attempted := len(r.Leagues) + len(r.FailedLeagues)
	if attempted > 0 && len(r.FailedLeagues) == attempted {
		return RunResultFailed
	}
	if len(r.FailedLeagues) > 0 {
		return RunResultPartial
	}
	for _, league := range r.Leagues {
		if league.Failed > 0 || league.FixtureStoreErr != nil {
			return RunResultPartial
		}
	}
	return RunResultOK
}

func (r RunResult) Saved() int {
	total := 0
	for _, league := range r.Leagues {
		total += league.Saved
	}
	return total
}

func NewCollectionService(
	provider FootballProvider,
	fixtures fixtureUpserter,
	writer statisticsSaver,
	cfg CollectionConfig,
	logger *logging.Logger,
) *CollectionService {
	if logger == nil {
		logger = logging.Default()
	}
	recorder := cfg.Recorder
	if recorder == nil {
		recorder = noopCollectionRecorder{}
	}
	ids := cfg.IDs
	if ids == nil {
		ids = id.NewUUIDGenerator()
	}
	workers := cfg.MaxWorkers
	if workers <= 0 {
		workers = 1
	}

	return &CollectionService{
		provider:   provider,
		fixtures:   fixtures,
		writer:     writer,
		recorder:   recorder,
		ids:        ids,
		maxWorkers: workers,
		logger:     logger,
	}
}

// CollectAll runs every league of one season in order. A failing league is logged and
// does not stop the others.
func (s *CollectionService) CollectAll(ctx context.Context, leagueIDs []int64, season int) RunResult {
	ctx, span := startUsecaseSpan(ctx, "usecase.CollectionService.CollectAll", attribute.Int("season", season))
	defer span.End()

	runID, err := s.ids.NewID()
	if err != nil {
		runID = strconv.FormatInt(time.Now().UnixNano(), 36)
	}
	logger := s.logger.With("run_id", runID)

	result := RunResult{
		RunID:     runID,
		Season:    season,
		StartedAt: time.Now().UTC(),
		Leagues:   make([]LeagueResult, 0, len(leagueIDs)),
	}
	logger.InfoContext(ctx, "collection run started", "leagues", len(leagueIDs), "season", season)

	for _, leagueID := range leagueIDs {
		if ctx.Err() != nil {
			result.FailedLeagues = append(result.FailedLeagues, LeagueFailure{LeagueID: leagueID, Err: ctx.Err()})
			continue
		}

		league, err := s.collectLeague(ctx, logger, leagueID, season)
		if err != nil {
			logger.ErrorContext(ctx, "league collection failed", "league_id", leagueID, "season", season, "error", err)
			result.FailedLeagues = append(result.FailedLeagues, LeagueFailure{LeagueID: leagueID, Err: err})
			continue
		}
		result.Leagues = append(result.Leagues, league)
	}

	result.Duration = time.Since(result.StartedAt)
	status := result.Status()
	s.recorder.RunFinished(status)
	logger.InfoContext(ctx, "collection run finished",
		"result", status,
		"leagues_ok", len(result.Leagues),
		"leagues_failed", len(result.FailedLeagues),
		"saved", result.Saved(),
		"duration_ms", result.Duration.Milliseconds(),
	)
	return result
}

// CollectLeagueStats fetches every fixture of a league season, stores them and saves
// statistics for the finished ones. Only the fixture list fetch aborts the league.
func (s *CollectionService) CollectLeagueStats(ctx context.Context, leagueID int64, season int) (LeagueResult, error) {
	return s.collectLeague(ctx, s.logger, leagueID, season)
}

func (s *CollectionService) collectLeague(ctx context.Context, logger *logging.Logger, leagueID int64, season int) (LeagueResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CollectionService.CollectLeagueStats",
		attribute.Int64("league_id", leagueID),
		attribute.Int("season", season),
	)
	defer span.End()

	start := time.Now()
	label := strconv.FormatInt(leagueID, 10)
	result := LeagueResult{LeagueID: leagueID, Season: season}
	if leagueID <= 0 {
		return result, fmt.Errorf("%w: league id must be greater than zero", ErrInvalidInput)
	}
	logger = logger.With("league_id", leagueID, "season", season)

	items, err := s.provider.FetchFixtures(ctx, leagueID, season)
	if err != nil {
		s.recordUpstream("fixtures", err)
		err = fmt.Errorf("fetch fixtures league_id=%d season=%d: %w", leagueID, season, err)
		recordSpanError(span, err)
		return result, err
	}

	fixtures := make([]fixture.Fixture, 0, len(items))
	for _, item := range items {
		fx := item.ToFixture()
		if err := fx.Validate(); err != nil {
			logger.WarnContext(ctx, "invalid fixture from provider", "fixture_id", fx.ID, "error", err)
			result.Failed++
			result.Failures = append(result.Failures, FixtureFailure{FixtureID: fx.ID, Err: fmt.Errorf("%w: %w", ErrInvalidInput, err)})
			s.recorder.FixtureProcessed(label, OutcomeFailed)
			continue
		}
		if result.League == "" {
			result.League = fx.League
		}
		fixtures = append(fixtures, fx)
	}
	result.Fixtures = len(items)
	logger.InfoContext(ctx, "fixtures fetched", "league", result.League, "fixtures", len(items))

	if len(fixtures) > 0 {
		if err := s.fixtures.UpsertMany(ctx, fixtures); err != nil {
			result.FixtureStoreErr = fmt.Errorf("%w: upsert fixtures: %w", ErrPersistence, err)
			logger.ErrorContext(ctx, "upsert fixtures failed", "fixtures", len(fixtures), "error", err)
		}
	}

	outcomes, err := s.processFixtures(ctx, logger, fixtures)
	if err != nil {
		recordSpanError(span, err)
		return result, err
	}

	for _, item := range outcomes {
		s.recorder.FixtureProcessed(label, item.outcome)
		switch item.outcome {
		case OutcomeSaved:
			result.Finished++
			result.Saved++
		case OutcomeNoData:
			result.Finished++
			result.NoData++
		case OutcomeSkipped:
			result.Skipped++
		default:
			result.Finished++
			result.Failed++
			result.Failures = append(result.Failures, FixtureFailure{FixtureID: item.fixtureID, Err: item.err})
		}
	}
	sort.SliceStable(result.Failures, func(i, j int) bool {
		return result.Failures[i].FixtureID < result.Failures[j].FixtureID
	})

	result.Duration = time.Since(start)
	s.recorder.LeagueCollected(label, result.Duration)
	logger.InfoContext(ctx, "league collection finished",
		"league", result.League,
		"fixtures", result.Fixtures,
		"finished", result.Finished,
		"saved", result.Saved,
		"skipped", result.Skipped,
		"no_data", result.NoData,
		"failed", result.Failed,
		"duration_ms", result.Duration.Milliseconds(),
	)
	return result, nil
}

type fixtureOutcome struct {
	fixtureID int64
	outcome   FixtureOutcome
	err       error
}

func (s *CollectionService) processFixtures(ctx context.Context, logger *logging.Logger, fixtures []fixture.Fixture) ([]fixtureOutcome, error) {
	if len(fixtures) == 0 {
		return nil, nil
	}

	workerCount := s.maxWorkers
	if workerCount > len(fixtures) {
		workerCount = len(fixtures)
	}

	pool, err := ants.NewPool(workerCount)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	results := make(chan fixtureOutcome, len(fixtures))
	var workers sync.WaitGroup
	for _, fx := range fixtures {
		fx := fx
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()
			outcome, err := s.runIsolated(ctx, logger, fx)
			results <- fixtureOutcome{fixtureID: fx.ID, outcome: outcome, err: err}
		}); err != nil {
			workers.Done()
			workers.Wait()
			return nil, fmt.Errorf("submit fixture to worker pool: %w", err)
		}
	}

	workers.Wait()
	close(results)

	out := make([]fixtureOutcome, 0, len(fixtures))
	for item := range results {
		out = append(out, item)
	}
	return out, nil
}

// runIsolated turns a panic in one fixture into a failure of that fixture only.
func (s *CollectionService) runIsolated(ctx context.Context, logger *logging.Logger, fx fixture.Fixture) (FixtureOutcome, error) {
	var (
		outcome FixtureOutcome
		err     error
		catcher panics.Catcher
	)
	catcher.Try(func() {
		outcome, err = s.processFixture(ctx, logger, fx)
	})
	if recovered := catcher.Recovered(); recovered != nil {
		outcome = OutcomeFailed
		err = fmt.Errorf("fixture_id=%d: %w", fx.ID, recovered.AsError())
	}

	if outcome == OutcomeFailed {
		logger.ErrorContext(ctx, "fixture collection failed", "fixture_id", fx.ID, "error", err)
	}
	return outcome, err
}

func (s *CollectionService) processFixture(ctx context.Context, logger *logging.Logger, fx fixture.Fixture) (FixtureOutcome, error) {
	if !fx.IsFinished() {
		logger.DebugContext(ctx, "fixture not finished, skipping", "fixture_id", fx.ID, "status", fx.Status)
		return OutcomeSkipped, nil
	}
	if err := ctx.Err(); err != nil {
		return OutcomeFailed, err
	}

	blocks, err := s.provider.FetchStatistics(ctx, fx.ID)
	if err != nil {
		s.recordUpstream("statistics", err)
		return OutcomeFailed, fmt.Errorf("fetch statistics fixture_id=%d: %w", fx.ID, err)
	}
	if len(blocks) == 0 {
		logger.InfoContext(ctx, "no stats available", "fixture_id", fx.ID)
		return OutcomeNoData, nil
	}

	if err := s.writer.SaveStatistics(ctx, fx, blocks); err != nil {
		return OutcomeFailed, err
	}

	logger.InfoContext(ctx, "fixture statistics saved",
		"fixture_id", fx.ID,
		"home_team", fx.HomeTeam,
		"away_team", fx.AwayTeam,
		"teams", len(blocks),
	)
	return OutcomeSaved, nil
}

func (s *CollectionService) recordUpstream(op string, err error) {
	if err == nil {
		return
	}
	s.recorder.UpstreamError(op, IsRateLimited(err))
}
