package matchstats

import (
	"context"

	"github.com/riskibarqy/matchstats/internal/domain/fixture"
)

// Repository persists statistics rows.
//
// SaveFixtureStatistics upserts the parent fixture and every team row in one
// transaction: all rows are written or none are.
type Repository interface {
	SaveFixtureStatistics(ctx context.Context, fx fixture.Fixture, rows []MatchStatistics) error
	ListByFixtureIDs(ctx context.Context, fixtureIDs []int64) ([]MatchStatistics, error)
	ListByTeam(ctx context.Context, league, teamName string) ([]MatchStatistics, error)
}
