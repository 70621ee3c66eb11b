package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/riskibarqy/matchstats/internal/domain/fixture"
	"github.com/riskibarqy/matchstats/internal/domain/matchstats"
)

// Store holds both tables so statistics writes can upsert their parent fixture.
type Store struct {
	mu       sync.RWMutex
	fixtures map[int64]fixture.Fixture
	stats    map[matchstats.Key]matchstats.MatchStatistics
}

func NewStore() *Store {
	return &Store{
		fixtures: make(map[int64]fixture.Fixture),
		stats:    make(map[matchstats.Key]matchstats.MatchStatistics),
	}
}

type FixtureRepository struct {
	store *Store
}

func NewFixtureRepository(store *Store, fixtures []fixture.Fixture) *FixtureRepository {
	if store == nil {
		store = NewStore()
	}
	store.mu.Lock()
	for _, item := range fixtures {
		store.fixtures[item.ID] = item
	}
	store.mu.Unlock()

	return &FixtureRepository{store: store}
}

func (r *FixtureRepository) UpsertMany(_ context.Context, fixtures []fixture.Fixture) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, item := range fixtures {
		item = item.Normalize()
		if err := item.Validate(); err != nil {
			return err
		}
	}
	for _, item := range fixtures {
		item = item.Normalize()
		r.store.fixtures[item.ID] = item
	}
	return nil
}

func (r *FixtureRepository) List(_ context.Context, filter fixture.Filter) ([]fixture.Fixture, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]fixture.Fixture, 0, len(r.store.fixtures))
	for _, item := range r.store.fixtures {
		if filter.Matches(item) {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].MatchDate.Equal(out[j].MatchDate) {
			return out[i].MatchDate.Before(out[j].MatchDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *FixtureRepository) GetByID(_ context.Context, fixtureID int64) (fixture.Fixture, bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	item, ok := r.store.fixtures[fixtureID]
	return item, ok, nil
}

func (r *FixtureRepository) ListLeagues(_ context.Context) ([]string, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, item := range r.store.fixtures {
		seen[item.League] = struct{}{}
	}
	return sortedKeys(seen), nil
}

func (r *FixtureRepository) ListTeams(_ context.Context, league string) ([]string, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, item := range r.store.fixtures {
		if league != "" && item.League != league {
			continue
		}
		seen[item.HomeTeam] = struct{}{}
		seen[item.AwayTeam] = struct{}{}
	}
	return sortedKeys(seen), nil
}

func (r *FixtureRepository) GetDateRange(_ context.Context, league string) (fixture.DateRange, bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var (
		out   fixture.DateRange
		found bool
	)
	for _, item := range r.store.fixtures {
		if league != "" && item.League != league {
			continue
		}
		if !found || item.MatchDate.Before(out.From) {
			out.From = item.MatchDate
		}
		if !found || item.MatchDate.After(out.To) {
			out.To = item.MatchDate
		}
		found = true
	}
	return out, found, nil
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for key := range set {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}
