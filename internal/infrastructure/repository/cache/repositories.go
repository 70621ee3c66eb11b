package cache

import (
	"context"
	"strconv"
	"strings"

	"github.com/riskibarqy/matchstats/internal/domain/fixture"
	"github.com/riskibarqy/matchstats/internal/domain/matchstats"
	basecache "github.com/riskibarqy/matchstats/internal/platform/cache"
)

const (
	fixturePrefix    = "fixture:"
	statisticsPrefix = "stats:"
)

type FixtureRepository struct {
	next  fixture.Repository
	cache *basecache.Store
}

func NewFixtureRepository(next fixture.Repository, cache *basecache.Store) *FixtureRepository {
	return &FixtureRepository{next: next, cache: cache}
}

func (r *FixtureRepository) UpsertMany(ctx context.Context, fixtures []fixture.Fixture) error {
	if err := r.next.UpsertMany(ctx, fixtures); err != nil {
		return err
	}

	r.cache.DeletePrefix(ctx, fixturePrefix)
	return nil
}

func (r *FixtureRepository) List(ctx context.Context, filter fixture.Filter) ([]fixture.Fixture, error) {
	items, err := basecache.Load(ctx, r.cache, fixtureListKey(filter), func(ctx context.Context) ([]fixture.Fixture, error) {
		return r.next.List(ctx, filter)
	})
	if err != nil {
		return nil, err
	}
	return append([]fixture.Fixture(nil), items...), nil
}

func (r *FixtureRepository) GetByID(ctx context.Context, fixtureID int64) (fixture.Fixture, bool, error) {
	key := fixturePrefix + "id:" + strconv.FormatInt(fixtureID, 10)
	cached, err := basecache.Load(ctx, r.cache, key, func(ctx context.Context) (cachedFixtureByID, error) {
		item, exists, err := r.next.GetByID(ctx, fixtureID)
		if err != nil {
			return cachedFixtureByID{}, err
		}
		return cachedFixtureByID{value: item, exists: exists}, nil
	})
	if err != nil {
		return fixture.Fixture{}, false, err
	}
	return cached.value, cached.exists, nil
}

type cachedFixtureByID struct {
	value  fixture.Fixture
	exists bool
}

func (r *FixtureRepository) ListLeagues(ctx context.Context) ([]string, error) {
	items, err := basecache.Load(ctx, r.cache, fixturePrefix+"leagues", r.next.ListLeagues)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), items...), nil
}

func (r *FixtureRepository) ListTeams(ctx context.Context, league string) ([]string, error) {
	items, err := basecache.Load(ctx, r.cache, fixturePrefix+"teams:"+league, func(ctx context.Context) ([]string, error) {
		return r.next.ListTeams(ctx, league)
	})
	if err != nil {
		return nil, err
	}
	return append([]string(nil), items...), nil
}

func (r *FixtureRepository) GetDateRange(ctx context.Context, league string) (fixture.DateRange, bool, error) {
	cached, err := basecache.Load(ctx, r.cache, fixturePrefix+"range:"+league, func(ctx context.Context) (cachedDateRange, error) {
		value, exists, err := r.next.GetDateRange(ctx, league)
		if err != nil {
			return cachedDateRange{}, err
		}
		return cachedDateRange{value: value, exists: exists}, nil
	})
	if err != nil {
		return fixture.DateRange{}, false, err
	}
	return cached.value, cached.exists, nil
}

type cachedDateRange struct {
	value  fixture.DateRange
	exists bool
}

func fixtureListKey(filter fixture.Filter) string {
	var b strings.Builder
	b.WriteString(fixturePrefix)
	b.WriteString("list:")
	b.WriteString(filter.League)
	b.WriteString("|")
	b.WriteString(filter.Team)
	b.WriteString("|")
	if filter.From != nil {
		b.WriteString(strconv.FormatInt(filter.From.Unix(), 10))
	}
	b.WriteString("|")
	if filter.To != nil {
		b.WriteString(strconv.FormatInt(filter.To.Unix(), 10))
	}
	return b.String()
}

type MatchStatisticsRepository struct {
	next  matchstats.Repository
	cache *basecache.Store
}

func NewMatchStatisticsRepository(next matchstats.Repository, cache *basecache.Store) *MatchStatisticsRepository {
	return &MatchStatisticsRepository{next: next, cache: cache}
}

// SaveFixtureStatistics also upserts the fixture row, so fixture reads are dropped too.
func (r *MatchStatisticsRepository) SaveFixtureStatistics(ctx context.Context, fx fixture.Fixture, rows []matchstats.MatchStatistics) error {
	if err := r.next.SaveFixtureStatistics(ctx, fx, rows); err != nil {
		return err
	}

	r.cache.DeletePrefix(ctx, statisticsPrefix)
	r.cache.DeletePrefix(ctx, fixturePrefix)
	return nil
}

func (r *MatchStatisticsRepository) ListByFixtureIDs(ctx context.Context, fixtureIDs []int64) ([]matchstats.MatchStatistics, error) {
	return r.next.ListByFixtureIDs(ctx, fixtureIDs)
}

func (r *MatchStatisticsRepository) ListByTeam(ctx context.Context, league, teamName string) ([]matchstats.MatchStatistics, error) {
	key := statisticsPrefix + "team:" + league + "|" + teamName
	items, err := basecache.Load(ctx, r.cache, key, func(ctx context.Context) ([]matchstats.MatchStatistics, error) {
		return r.next.ListByTeam(ctx, league, teamName)
	})
	if err != nil {
		return nil, err
	}
	return append([]matchstats.MatchStatistics(nil), items...), nil
}
