package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/matchstats/internal/domain/fixture"
	"github.com/riskibarqy/matchstats/internal/domain/matchstats"
	fixturemock "github.com/riskibarqy/matchstats/internal/mocks/domain/fixture"
	matchstatsmock "github.com/riskibarqy/matchstats/internal/mocks/domain/matchstats"
	"github.com/stretchr/testify/mock"
)

func TestQueryService_ListStatistics_UsesMatchingFixtureIDs(t *testing.T) {
	t.Parallel()

	ctx := context.WithValue(context.Background(), "trace_id", "trace-123")
	fixtureRepo := fixturemock.NewRepository(t)
	statsRepo := matchstatsmock.NewRepository(t)
	service := NewQueryService(fixtureRepo, statsRepo)

	from := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 8, 31, 23, 59, 59, 0, time.UTC)
	filter := fixture.Filter{League: "La Liga", Team: "Sevilla", From: &from, To: &to}

	fixtureRepo.
		On("List", mock.MatchedBy(func(v context.Context) bool { return v == ctx }), filter).
		Return([]fixture.Fixture{{ID: 11}, {ID: 12}}, nil).
		Once()
	statsRepo.
		On("ListByFixtureIDs", mock.MatchedBy(func(v context.Context) bool { return v == ctx }), []int64{11, 12}).
		Return([]matchstats.MatchStatistics{{FixtureID: 11, TeamName: "Sevilla"}}, nil).
		Once()

	got, err := service.ListStatistics(ctx, fixture.Filter{League: " La Liga ", Team: "Sevilla", From: &from, To: &to})
	if err != nil {
		t.Fatalf("list statistics: %v", err)
	}
	if len(got) != 1 || got[0].FixtureID != 11 {
		t.Fatalf("unexpected statistics: %+v", got)
	}
}

func TestQueryService_ListStatistics_NoFixturesSkipsStatsQuery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fixtureRepo := fixturemock.NewRepository(t)
	statsRepo := matchstatsmock.NewRepository(t)
	service := NewQueryService(fixtureRepo, statsRepo)

	fixtureRepo.On("List", mock.Anything, fixture.Filter{League: "Serie A"}).Return([]fixture.Fixture{}, nil).Once()

	got, err := service.ListStatistics(ctx, fixture.Filter{League: "Serie A"})
	if err != nil {
		t.Fatalf("list statistics: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil result, got %+v", got)
	}
}

func TestQueryService_ListFixtures_RejectsInvertedRange(t *testing.T) {
	t.Parallel()

	service := NewQueryService(fixturemock.NewRepository(t), matchstatsmock.NewRepository(t))
	from := time.Date(2025, 9, 2, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)

	_, err := service.ListFixtures(context.Background(), fixture.Filter{From: &from, To: &to})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestQueryService_GetFixtureStatistics_NotFound(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fixtureRepo := fixturemock.NewRepository(t)
	service := NewQueryService(fixtureRepo, matchstatsmock.NewRepository(t))

	fixtureRepo.
		On("GetByID", mock.MatchedBy(func(v context.Context) bool { return v == ctx }), int64(404)).
		Return(fixture.Fixture{}, false, nil).
		Once()

	_, _, err := service.GetFixtureStatistics(ctx, 404)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestQueryService_TeamSummary(t *testing.T) {
	t.Parallel()

	statsRepo := matchstatsmock.NewRepository(t)
	service := NewQueryService(fixturemock.NewRepository(t), statsRepo)
	shots := 7

	statsRepo.
		On("ListByTeam", mock.Anything, "Ligue 1", "Lyon").
		Return([]matchstats.MatchStatistics{{TeamName: "Lyon", TotalShots: &shots}, {TeamName: "Lyon", TotalShots: &shots}}, nil).
		Once()

	got, err := service.TeamSummary(context.Background(), "Ligue 1", "Lyon")
	if err != nil {
		t.Fatalf("team summary: %v", err)
	}
	if got.Matches != 2 || got.TotalShots != 14 {
		t.Fatalf("unexpected summary: %+v", got)
	}

	if _, err := service.TeamSummary(context.Background(), "", "Lyon"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestQueryService_PropagatesRepositoryErrors(t *testing.T) {
	t.Parallel()

	fixtureRepo := fixturemock.NewRepository(t)
	service := NewQueryService(fixtureRepo, matchstatsmock.NewRepository(t))
	dbErr := errors.New("connection refused")

	fixtureRepo.On("ListLeagues", mock.Anything).Return(nil, dbErr).Once()
	fixtureRepo.On("ListTeams", mock.Anything, "Bundesliga").Return([]string{"Bayern"}, nil).Once()
	fixtureRepo.On("GetDateRange", mock.Anything, "").Return(fixture.DateRange{}, false, nil).Once()

	if _, err := service.ListLeagues(context.Background()); !errors.Is(err, dbErr) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
	teams, err := service.ListTeams(context.Background(), " Bundesliga ")
	if err != nil || len(teams) != 1 {
		t.Fatalf("unexpected teams=%v err=%v", teams, err)
	}
	if _, ok, err := service.DateRange(context.Background(), ""); ok || err != nil {
		t.Fatalf("expected empty range, ok=%v err=%v", ok, err)
	}
}
