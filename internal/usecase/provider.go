package usecase

import (
	"context"
	"time"

	"github.com/riskibarqy/matchstats/internal/domain/fixture"
	"github.com/riskibarqy/matchstats/internal/domain/matchstats"
)

// FootballProvider is the read side of the upstream fixtures API.
type FootballProvider interface {
	FetchFixtures(ctx context.Context, leagueID int64, season int) ([]ExternalFixture, error)
	FetchStatistics(ctx context.Context, fixtureID int64) ([]ExternalTeamStatistics, error)
}

type ExternalFixture struct {
	ID         int64
	LeagueID   int64
	LeagueName string
	Season     int
	MatchDate  time.Time
	HomeTeam   string
	AwayTeam   string
	Status     string
}

func (e ExternalFixture) ToFixture() fixture.Fixture {
	return fixture.Fixture{
		ID:        e.ID,
		League:    e.LeagueName,
		MatchDate: e.MatchDate,
		HomeTeam:  e.HomeTeam,
		AwayTeam:  e.AwayTeam,
		Status:    e.Status,
	}.Normalize()
}

// ExternalTeamStatistics is one team's block of labelled statistics for a fixture.
type ExternalTeamStatistics struct {
	TeamID     int64
	TeamName   string
	Statistics []matchstats.Stat
}
