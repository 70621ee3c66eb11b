package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/matchstats/internal/domain/fixture"
	"github.com/riskibarqy/matchstats/internal/domain/matchstats"
	"github.com/riskibarqy/matchstats/internal/infrastructure/repository/memory"
	basecache "github.com/riskibarqy/matchstats/internal/platform/cache"
)

type countingFixtureRepository struct {
	fixture.Repository
	leagueCalls int
	rangeCalls  int
	failLeagues error
}

func (r *countingFixtureRepository) ListLeagues(ctx context.Context) ([]string, error) {
	r.leagueCalls++
	if r.failLeagues != nil {
		return nil, r.failLeagues
	}
	return r.Repository.ListLeagues(ctx)
}

func (r *countingFixtureRepository) GetDateRange(ctx context.Context, league string) (fixture.DateRange, bool, error) {
	r.rangeCalls++
	return r.Repository.GetDateRange(ctx, league)
}

func sampleFixture(id int64, league string) fixture.Fixture {
	return fixture.Fixture{
		ID:        id,
		League:    league,
		MatchDate: time.Date(2025, 8, int(id), 19, 0, 0, 0, time.UTC),
		HomeTeam:  "Sporting",
		AwayTeam:  "Braga",
		Status:    fixture.StatusFinished,
	}
}

func TestFixtureRepository_CachesReadsUntilUpsert(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	next := &countingFixtureRepository{Repository: memory.NewFixtureRepository(store, []fixture.Fixture{sampleFixture(1, "Primeira Liga")})}
	repo := NewFixtureRepository(next, basecache.NewStore(time.Minute))

	for range 3 {
		leagues, err := repo.ListLeagues(ctx)
		if err != nil {
			t.Fatalf("list leagues: %v", err)
		}
		if len(leagues) != 1 || leagues[0] != "Primeira Liga" {
			t.Fatalf("unexpected leagues: %v", leagues)
		}
	}
	if next.leagueCalls != 1 {
		t.Fatalf("expected one load, got %d", next.leagueCalls)
	}

	if err := repo.UpsertMany(ctx, []fixture.Fixture{sampleFixture(2, "Eredivisie")}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	leagues, err := repo.ListLeagues(ctx)
	if err != nil {
		t.Fatalf("list leagues after upsert: %v", err)
	}
	if len(leagues) != 2 || next.leagueCalls != 2 {
		t.Fatalf("expected reload after upsert, got %v calls=%d", leagues, next.leagueCalls)
	}
}

func TestFixtureRepository_DoesNotCacheErrors(t *testing.T) {
	ctx := context.Background()
	next := &countingFixtureRepository{
		Repository:  memory.NewFixtureRepository(memory.NewStore(), nil),
		failLeagues: errors.New("connection refused"),
	}
	repo := NewFixtureRepository(next, basecache.NewStore(time.Minute))

	if _, err := repo.ListLeagues(ctx); err == nil {
		t.Fatalf("expected error")
	}
	next.failLeagues = nil
	leagues, err := repo.ListLeagues(ctx)
	if err != nil {
		t.Fatalf("list leagues: %v", err)
	}
	if len(leagues) != 0 || next.leagueCalls != 2 {
		t.Fatalf("expected second load to reach the repository, got %v calls=%d", leagues, next.leagueCalls)
	}
}

func TestFixtureRepository_CachesMissingDateRange(t *testing.T) {
	ctx := context.Background()
	next := &countingFixtureRepository{Repository: memory.NewFixtureRepository(memory.NewStore(), nil)}
	repo := NewFixtureRepository(next, basecache.NewStore(time.Minute))

	for range 2 {
		if _, ok, err := repo.GetDateRange(ctx, "Ligue 1"); err != nil || ok {
			t.Fatalf("expected empty range, ok=%v err=%v", ok, err)
		}
	}
	if next.rangeCalls != 1 {
		t.Fatalf("expected cached miss, got %d calls", next.rangeCalls)
	}
}

func TestMatchStatisticsRepository_SaveDropsCachedReads(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	cacheStore := basecache.NewStore(time.Minute)
	fixtures := NewFixtureRepository(memory.NewFixtureRepository(store, nil), cacheStore)
	stats := NewMatchStatisticsRepository(memory.NewStatisticsRepository(store), cacheStore)

	if leagues, _ := fixtures.ListLeagues(ctx); len(leagues) != 0 {
		t.Fatalf("expected no leagues, got %v", leagues)
	}
	if rows, _ := stats.ListByTeam(ctx, "", "Sporting"); len(rows) != 0 {
		t.Fatalf("expected no rows, got %v", rows)
	}

	fx := sampleFixture(4, "Primeira Liga")
	row := matchstats.MatchStatistics{FixtureID: fx.ID, TeamName: "Sporting", League: fx.League, MatchDate: fx.MatchDate}
	if err := stats.SaveFixtureStatistics(ctx, fx, []matchstats.MatchStatistics{row}); err != nil {
		t.Fatalf("save: %v", err)
	}

	if leagues, _ := fixtures.ListLeagues(ctx); len(leagues) != 1 {
		t.Fatalf("expected fixture cache dropped, got %v", leagues)
	}
	if rows, _ := stats.ListByTeam(ctx, "", "Sporting"); len(rows) != 1 {
		t.Fatalf("expected statistics cache dropped, got %v", rows)
	}
}

func TestFixtureListKey_DistinguishesFilters(t *testing.T) {
	from := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	a := fixtureListKey(fixture.Filter{League: "Serie A"})
	b := fixtureListKey(fixture.Filter{League: "Serie A", From: &from})
	c := fixtureListKey(fixture.Filter{Team: "Serie A"})
	if a == b || a == c || b == c {
		t.Fatalf("expected distinct keys: %q %q %q", a, b, c)
	}
}
