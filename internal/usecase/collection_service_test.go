package usecase

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/riskibarqy/matchstats/internal/domain/fixture"
	"github.com/riskibarqy/matchstats/internal/domain/matchstats"
	"github.com/riskibarqy/matchstats/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/matchstats/internal/platform/id"
	"github.com/riskibarqy/matchstats/internal/platform/logging"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type providerMock struct {
	mock.Mock
}

func (m *providerMock) FetchFixtures(ctx context.Context, leagueID int64, season int) ([]ExternalFixture, error) {
	args := m.Called(ctx, leagueID, season)
	items, _ := args.Get(0).([]ExternalFixture)
	return items, args.Error(1)
}

func (m *providerMock) FetchStatistics(ctx context.Context, fixtureID int64) ([]ExternalTeamStatistics, error) {
	args := m.Called(ctx, fixtureID)
	items, _ := args.Get(0).([]ExternalTeamStatistics)
	return items, args.Error(1)
}

type recorderStub struct {
	mu       sync.Mutex
	outcomes map[FixtureOutcome]int
	upstream []string
	runs     []string
}

func newRecorderStub() *recorderStub {
	return &recorderStub{outcomes: make(map[FixtureOutcome]int)}
}

func (r *recorderStub) FixtureProcessed(_ string, outcome FixtureOutcome) {
	r.mu.Lock()
	r.outcomes[outcome]++
	r.mu.Unlock()
}

func (r *recorderStub) UpstreamError(op string, _ bool) {
	r.mu.Lock()
	r.upstream = append(r.upstream, op)
	r.mu.Unlock()
}

func (r *recorderStub) LeagueCollected(string, time.Duration) {}

func (r *recorderStub) RunFinished(result string) {
	r.mu.Lock()
	r.runs = append(r.runs, result)
	r.mu.Unlock()
}

type pipelineFixture struct {
	provider *providerMock
	fixtures *memory.FixtureRepository
	stats    *memory.StatisticsRepository
	recorder *recorderStub
	service  *CollectionService
}

func newPipeline(t *testing.T, workers int) pipelineFixture {
	t.Helper()

	store := memory.NewStore()
	p := pipelineFixture{
		provider: &providerMock{},
		fixtures: memory.NewFixtureRepository(store, nil),
		stats:    memory.NewStatisticsRepository(store),
		recorder: newRecorderStub(),
	}
	writer := NewStatisticsWriter(p.stats, logging.NewNop())
	p.service = NewCollectionService(p.provider, p.fixtures, writer, CollectionConfig{
		MaxWorkers: workers,
		Recorder:   p.recorder,
		IDs:        id.Static("run-test"),
	}, logging.NewNop())
	t.Cleanup(func() { p.provider.AssertExpectations(t) })
	return p
}

func externalFixture(fixtureID int64, status string) ExternalFixture {
	return ExternalFixture{
		ID:         fixtureID,
		LeagueID:   94,
		LeagueName: "Primeira Liga",
		Season:     2025,
		MatchDate:  time.Date(2025, 8, 9, 18, 0, 0, 0, time.UTC).Add(time.Duration(fixtureID) * time.Hour),
		HomeTeam:   "Porto",
		AwayTeam:   "Benfica",
		Status:     status,
	}
}

func teamBlocks() []ExternalTeamStatistics {
	return []ExternalTeamStatistics{
		{TeamName: "Porto", Statistics: []matchstats.Stat{{Type: "Shots on Goal", Value: float64(5)}, {Type: "Ball Possession", Value: "55%"}}},
		{TeamName: "Benfica", Statistics: []matchstats.Stat{{Type: "Shots on Goal", Value: float64(2)}, {Type: "Ball Possession", Value: "45%"}}},
	}
}

func TestCollectLeagueStats_FinishedAndNotStarted(t *testing.T) {
	t.Parallel()

	p := newPipeline(t, 1)
	ctx := context.Background()

	p.provider.On("FetchFixtures", mock.Anything, int64(94), 2025).
		Return([]ExternalFixture{externalFixture(1, "FT"), externalFixture(2, "NS")}, nil).
		Once()
	p.provider.On("FetchStatistics", mock.Anything, int64(1)).Return(teamBlocks(), nil).Once()

	result, err := p.service.CollectLeagueStats(ctx, 94, 2025)
	require.NoError(t, err)

	if result.Fixtures != 2 || result.Saved != 1 || result.Skipped != 1 || result.Failed != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.League != "Primeira Liga" {
		t.Fatalf("unexpected league name %q", result.League)
	}

	rows, _ := p.stats.ListByFixtureIDs(ctx, []int64{1})
	if len(rows) != 2 {
		t.Fatalf("expected 2 statistics rows for fixture 1, got=%d", len(rows))
	}
	rows, _ = p.stats.ListByFixtureIDs(ctx, []int64{2})
	if len(rows) != 0 {
		t.Fatalf("expected no statistics rows for fixture 2, got=%d", len(rows))
	}
	stored, _ := p.fixtures.List(ctx, fixture.Filter{})
	if len(stored) != 2 {
		t.Fatalf("expected 2 fixtures stored, got=%d", len(stored))
	}
	p.provider.AssertNotCalled(t, "FetchStatistics", mock.Anything, int64(2))
}

func TestCollectLeagueStats_EmptyStatisticsIsNoData(t *testing.T) {
	t.Parallel()

	p := newPipeline(t, 1)
	p.provider.On("FetchFixtures", mock.Anything, int64(94), 2025).
		Return([]ExternalFixture{externalFixture(1, "FT")}, nil).
		Once()
	p.provider.On("FetchStatistics", mock.Anything, int64(1)).Return([]ExternalTeamStatistics{}, nil).Once()

	result, err := p.service.CollectLeagueStats(context.Background(), 94, 2025)
	require.NoError(t, err)

	if result.NoData != 1 || result.Saved != 0 || result.Failed != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if p.stats.Count() != 0 {
		t.Fatalf("expected no statistics rows, got=%d", p.stats.Count())
	}
}

func TestCollectLeagueStats_UpstreamFailureIsIsolated(t *testing.T) {
	t.Parallel()

	for _, workers := range []int{1, 4} {
		p := newPipeline(t, workers)
		p.provider.On("FetchFixtures", mock.Anything, int64(94), 2025).
			Return([]ExternalFixture{externalFixture(1, "FT"), externalFixture(2, "FT"), externalFixture(3, "FT")}, nil).
			Once()
		p.provider.On("FetchStatistics", mock.Anything, int64(1)).Return(teamBlocks(), nil).Once()
		p.provider.On("FetchStatistics", mock.Anything, int64(2)).
			Return(nil, NewUpstreamError("statistics", http.StatusTooManyRequests, errors.New("too many requests"))).
			Once()
		p.provider.On("FetchStatistics", mock.Anything, int64(3)).Return(teamBlocks(), nil).Once()

		result, err := p.service.CollectLeagueStats(context.Background(), 94, 2025)
		require.NoError(t, err)

		if result.Saved != 2 || result.Failed != 1 {
			t.Fatalf("workers=%d: unexpected result: %+v", workers, result)
		}
		if len(result.Failures) != 1 || result.Failures[0].FixtureID != 2 {
			t.Fatalf("workers=%d: unexpected failures: %+v", workers, result.Failures)
		}
		if !errors.Is(result.Failures[0].Err, ErrUpstream) || !IsRateLimited(result.Failures[0].Err) {
			t.Fatalf("workers=%d: expected rate limited upstream error, got %v", workers, result.Failures[0].Err)
		}
		if p.stats.Count() != 4 {
			t.Fatalf("workers=%d: expected 4 statistics rows, got=%d", workers, p.stats.Count())
		}
		if len(p.recorder.upstream) != 1 || p.recorder.upstream[0] != "statistics" {
			t.Fatalf("workers=%d: unexpected upstream records: %v", workers, p.recorder.upstream)
		}
	}
}

type panickingProvider struct {
	*providerMock
}

func (p panickingProvider) FetchStatistics(ctx context.Context, fixtureID int64) ([]ExternalTeamStatistics, error) {
	if fixtureID == 1 {
		panic("decoder exploded")
	}
	return p.providerMock.FetchStatistics(ctx, fixtureID)
}

func TestCollectLeagueStats_PanicIsContainedToFixture(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	stats := memory.NewStatisticsRepository(store)
	provider := &providerMock{}
	provider.On("FetchFixtures", mock.Anything, int64(94), 2025).
		Return([]ExternalFixture{externalFixture(1, "FT"), externalFixture(2, "FT")}, nil).
		Once()
	provider.On("FetchStatistics", mock.Anything, int64(2)).Return(teamBlocks(), nil).Once()

	service := NewCollectionService(
		panickingProvider{provider},
		memory.NewFixtureRepository(store, nil),
		NewStatisticsWriter(stats, logging.NewNop()),
		CollectionConfig{},
		logging.NewNop(),
	)

	result, err := service.CollectLeagueStats(context.Background(), 94, 2025)
	require.NoError(t, err)
	if result.Saved != 1 || result.Failed != 1 || result.Failures[0].FixtureID != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	provider.AssertExpectations(t)
}

func TestCollectLeagueStats_FixtureFetchFailureAbortsLeague(t *testing.T) {
	t.Parallel()

	p := newPipeline(t, 1)
	p.provider.On("FetchFixtures", mock.Anything, int64(94), 2025).
		Return(nil, NewUpstreamError("fixtures", http.StatusBadGateway, errors.New("bad gateway"))).
		Once()

	_, err := p.service.CollectLeagueStats(context.Background(), 94, 2025)
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

type failingStatisticsRepo struct {
	matchstats.Repository
	failFixture int64
}

func (r failingStatisticsRepo) SaveFixtureStatistics(ctx context.Context, fx fixture.Fixture, rows []matchstats.MatchStatistics) error {
	if fx.ID == r.failFixture {
		return errors.New("connection reset")
	}
	return r.Repository.SaveFixtureStatistics(ctx, fx, rows)
}

func TestCollectAll_PersistenceFailureAndFailingLeague(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	stats := memory.NewStatisticsRepository(store)
	provider := &providerMock{}
	recorder := newRecorderStub()

	provider.On("FetchFixtures", mock.Anything, int64(39), 2025).Return(nil, errors.New("dial tcp: timeout")).Once()
	provider.On("FetchFixtures", mock.Anything, int64(94), 2025).
		Return([]ExternalFixture{externalFixture(1, "FT"), externalFixture(2, "FT")}, nil).
		Once()
	provider.On("FetchStatistics", mock.Anything, int64(1)).Return(teamBlocks(), nil).Once()
	provider.On("FetchStatistics", mock.Anything, int64(2)).Return(teamBlocks(), nil).Once()

	service := NewCollectionService(
		provider,
		memory.NewFixtureRepository(store, nil),
		NewStatisticsWriter(failingStatisticsRepo{Repository: stats, failFixture: 1}, logging.NewNop()),
		CollectionConfig{Recorder: recorder, IDs: id.Static("run-1")},
		logging.NewNop(),
	)

	run := service.CollectAll(context.Background(), []int64{39, 94}, 2025)
	if run.RunID != "run-1" {
		t.Fatalf("unexpected run id %q", run.RunID)
	}
	if len(run.FailedLeagues) != 1 || run.FailedLeagues[0].LeagueID != 39 {
		t.Fatalf("unexpected failed leagues: %+v", run.FailedLeagues)
	}
	if len(run.Leagues) != 1 || run.Leagues[0].Saved != 1 || run.Leagues[0].Failed != 1 {
		t.Fatalf("unexpected league results: %+v", run.Leagues)
	}
	if !errors.Is(run.Leagues[0].Failures[0].Err, ErrPersistence) {
		t.Fatalf("expected persistence error, got %v", run.Leagues[0].Failures[0].Err)
	}
	if run.Status() != RunResultPartial || len(recorder.runs) != 1 || recorder.runs[0] != RunResultPartial {
		t.Fatalf("unexpected run status: %s records=%v", run.Status(), recorder.runs)
	}
	provider.AssertExpectations(t)
}

func TestCollectLeagueStats_RepeatRunIsIdempotent(t *testing.T) {
	t.Parallel()

	p := newPipeline(t, 1)
	p.provider.On("FetchFixtures", mock.Anything, int64(94), 2025).
		Return([]ExternalFixture{externalFixture(1, "FT")}, nil).
		Twice()
	p.provider.On("FetchStatistics", mock.Anything, int64(1)).Return(teamBlocks(), nil).Twice()

	ctx := context.Background()
	_, err := p.service.CollectLeagueStats(ctx, 94, 2025)
	require.NoError(t, err)
	first, _ := p.stats.ListByFixtureIDs(ctx, []int64{1})

	_, err = p.service.CollectLeagueStats(ctx, 94, 2025)
	require.NoError(t, err)
	second, _ := p.stats.ListByFixtureIDs(ctx, []int64{1})

	require.Equal(t, first, second)
}
