package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/riskibarqy/matchstats/internal/domain/fixture"
	"github.com/riskibarqy/matchstats/internal/domain/matchstats"
)

// QueryService is the read-only view over stored fixtures and statistics.
type QueryService struct {
	fixtureRepo fixture.Repository
	statsRepo   matchstats.Repository
}

func NewQueryService(fixtureRepo fixture.Repository, statsRepo matchstats.Repository) *QueryService {
	return &QueryService{
		fixtureRepo: fixtureRepo,
		statsRepo:   statsRepo,
	}
}

func (s *QueryService) ListLeagues(ctx context.Context) ([]string, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.QueryService.ListLeagues")
	defer span.End()

	leagues, err := s.fixtureRepo.ListLeagues(ctx)
	if err != nil {
		return nil, fmt.Errorf("list leagues: %w", err)
	}
	return leagues, nil
}

// ListTeams returns every team that appears as home or away side, optionally within one league.
func (s *QueryService) ListTeams(ctx context.Context, league string) ([]string, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.QueryService.ListTeams")
	defer span.End()

	teams, err := s.fixtureRepo.ListTeams(ctx, strings.TrimSpace(league))
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	return teams, nil
}

func (s *QueryService) DateRange(ctx context.Context, league string) (fixture.DateRange, bool, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.QueryService.DateRange")
	defer span.End()

	out, ok, err := s.fixtureRepo.GetDateRange(ctx, strings.TrimSpace(league))
	if err != nil {
		return fixture.DateRange{}, false, fmt.Errorf("get date range: %w", err)
	}
	return out, ok, nil
}

func (s *QueryService) ListFixtures(ctx context.Context, filter fixture.Filter) ([]fixture.Fixture, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.QueryService.ListFixtures")
	defer span.End()

	filter, err := normalizeFilter(filter)
	if err != nil {
		return nil, err
	}

	items, err := s.fixtureRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list fixtures: %w", err)
	}
	return items, nil
}

// ListStatistics returns the statistics rows of every fixture matching filter.
func (s *QueryService) ListStatistics(ctx context.Context, filter fixture.Filter) ([]matchstats.MatchStatistics, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.QueryService.ListStatistics")
	defer span.End()

	items, err := s.ListFixtures(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return []matchstats.MatchStatistics{}, nil
	}

	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}

	rows, err := s.statsRepo.ListByFixtureIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list statistics by fixtures: %w", err)
	}
	return rows, nil
}

func (s *QueryService) GetFixtureStatistics(ctx context.Context, fixtureID int64) (fixture.Fixture, []matchstats.MatchStatistics, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.QueryService.GetFixtureStatistics")
	defer span.End()

	if fixtureID <= 0 {
		return fixture.Fixture{}, nil, fmt.Errorf("%w: fixture id must be greater than zero", ErrInvalidInput)
	}

	item, exists, err := s.fixtureRepo.GetByID(ctx, fixtureID)
	if err != nil {
		return fixture.Fixture{}, nil, fmt.Errorf("get fixture: %w", err)
	}
	if !exists {
		return fixture.Fixture{}, nil, fmt.Errorf("%w: fixture=%d", ErrNotFound, fixtureID)
	}

	rows, err := s.statsRepo.ListByFixtureIDs(ctx, []int64{fixtureID})
	if err != nil {
		return fixture.Fixture{}, nil, fmt.Errorf("list statistics by fixture: %w", err)
	}
	return item, rows, nil
}

// TeamSummary aggregates every stored statistics row of a team inside one league.
func (s *QueryService) TeamSummary(ctx context.Context, league, team string) (matchstats.SeasonSummary, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.QueryService.TeamSummary")
	defer span.End()

	league = strings.TrimSpace(league)
	team = strings.TrimSpace(team)
	if league == "" || team == "" {
		return matchstats.SeasonSummary{}, fmt.Errorf("%w: league and team are required", ErrInvalidInput)
	}

	rows, err := s.statsRepo.ListByTeam(ctx, league, team)
	if err != nil {
		return matchstats.SeasonSummary{}, fmt.Errorf("list statistics by team: %w", err)
	}
	if len(rows) == 0 {
		return matchstats.SeasonSummary{}, fmt.Errorf("%w: no statistics for team=%s league=%s", ErrNotFound, team, league)
	}
	return matchstats.Summarize(team, league, rows), nil
}

func normalizeFilter(filter fixture.Filter) (fixture.Filter, error) {
	filter.League = strings.TrimSpace(filter.League)
	filter.Team = strings.TrimSpace(filter.Team)
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return filter, fmt.Errorf("%w: from must not be after to", ErrInvalidInput)
	}
	return filter, nil
}
