package fixture

import "context"

// Repository exposes fixture persistence and read operations.
type Repository interface {
	UpsertMany(ctx context.Context, fixtures []Fixture) error
	List(ctx context.Context, filter Filter) ([]Fixture, error)
	GetByID(ctx context.Context, fixtureID int64) (Fixture, bool, error)
	ListLeagues(ctx context.Context) ([]string, error)
	ListTeams(ctx context.Context, league string) ([]string, error)
	GetDateRange(ctx context.Context, league string) (DateRange, bool, error)
}
