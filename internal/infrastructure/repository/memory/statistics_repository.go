package memory

import (
	"context"
	"sort"

	"github.com/riskibarqy/matchstats/internal/domain/fixture"
	"github.com/riskibarqy/matchstats/internal/domain/matchstats"
)

type StatisticsRepository struct {
	store *Store
}

func NewStatisticsRepository(store *Store) *StatisticsRepository {
	if store == nil {
		store = NewStore()
	}
	return &StatisticsRepository{store: store}
}

// SaveFixtureStatistics validates every row before writing any, so a bad row leaves the store unchanged.
func (r *StatisticsRepository) SaveFixtureStatistics(_ context.Context, fx fixture.Fixture, rows []matchstats.MatchStatistics) error {
	fx = fx.Normalize()
	if err := fx.Validate(); err != nil {
		return err
	}
	for _, row := range rows {
		if err := row.Validate(); err != nil {
			return err
		}
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.fixtures[fx.ID] = fx
	for _, row := range rows {
		r.store.stats[row.Key()] = row
	}
	return nil
}

func (r *StatisticsRepository) ListByFixtureIDs(_ context.Context, fixtureIDs []int64) ([]matchstats.MatchStatistics, error) {
	wanted := make(map[int64]struct{}, len(fixtureIDs))
	for _, id := range fixtureIDs {
		wanted[id] = struct{}{}
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]matchstats.MatchStatistics, 0)
	for key, row := range r.store.stats {
		if _, ok := wanted[key.FixtureID]; ok {
			out = append(out, row)
		}
	}
	sortStatistics(out)
	return out, nil
}

func (r *StatisticsRepository) ListByTeam(_ context.Context, league, teamName string) ([]matchstats.MatchStatistics, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]matchstats.MatchStatistics, 0)
	for _, row := range r.store.stats {
		if row.TeamName == teamName && (league == "" || row.League == league) {
			out = append(out, row)
		}
	}
	sortStatistics(out)
	return out, nil
}

// Count reports the number of stored statistics rows.
func (r *StatisticsRepository) Count() int {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return len(r.store.stats)
}

func sortStatistics(rows []matchstats.MatchStatistics) {
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].MatchDate.Equal(rows[j].MatchDate) {
			return rows[i].MatchDate.Before(rows[j].MatchDate)
		}
		if rows[i].FixtureID != rows[j].FixtureID {
			return rows[i].FixtureID < rows[j].FixtureID
		}
		return rows[i].TeamName < rows[j].TeamName
	})
}
