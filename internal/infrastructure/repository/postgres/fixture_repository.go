package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/matchstats/internal/domain/fixture"
	qb "github.com/riskibarqy/matchstats/internal/platform/querybuilder"
)

const fixtureUpsertSuffix = `ON CONFLICT (fixture_id)
DO UPDATE SET
    league = EXCLUDED.league,
    match_date = EXCLUDED.match_date,
    home_team = EXCLUDED.home_team,
    away_team = EXCLUDED.away_team,
    status = EXCLUDED.status`

const fixtureTeamsSource = "fixtures CROSS JOIN LATERAL (VALUES (home_team), (away_team)) AS sides(team)"

type FixtureRepository struct {
	db *sqlx.DB
}

func NewFixtureRepository(db *sqlx.DB) *FixtureRepository {
	return &FixtureRepository{db: db}
}

// UpsertMany writes all fixtures in one transaction. A repeated id keeps the last item.
func (r *FixtureRepository) UpsertMany(ctx context.Context, fixtures []fixture.Fixture) error {
	models, err := fixtureModels(fixtures)
	if err != nil {
		return err
	}
	if len(models) == 0 {
		return nil
	}

	return withTx(ctx, r.db, "upsert fixtures", func(tx *sqlx.Tx) error {
		for _, batch := range chunk(models, upsertBatchSize) {
			query, args, err := qb.InsertModels(fixturesTable, batch, fixtureUpsertSuffix)
			if err != nil {
				return fmt.Errorf("build upsert fixtures query: %w", err)
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("upsert fixtures batch=%d: %w", len(batch), err)
			}
		}
		return nil
	})
}

func (r *FixtureRepository) List(ctx context.Context, filter fixture.Filter) ([]fixture.Fixture, error) {
	query, args, err := buildListFixturesQuery(filter)
	if err != nil {
		return nil, fmt.Errorf("build select fixtures query: %w", err)
	}

	var rows []fixtureTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select fixtures: %w", err)
	}

	out := make([]fixture.Fixture, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *FixtureRepository) GetByID(ctx context.Context, fixtureID int64) (fixture.Fixture, bool, error) {
	query, args, err := qb.Select(fixtureColumns...).
		From(fixturesTable).
		Where(qb.Eq("fixture_id", fixtureID)).
		Limit(1).
		ToSQL()
	if err != nil {
		return fixture.Fixture{}, false, fmt.Errorf("build get fixture query: %w", err)
	}

	var row fixtureTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return fixture.Fixture{}, false, nil
		}
		return fixture.Fixture{}, false, fmt.Errorf("get fixture id=%d: %w", fixtureID, err)
	}
	return row.toDomain(), true, nil
}

func (r *FixtureRepository) ListLeagues(ctx context.Context) ([]string, error) {
	query, args, err := qb.Select("league").Distinct().From(fixturesTable).OrderBy("league").ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select leagues query: %w", err)
	}

	out := make([]string, 0)
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("select leagues: %w", err)
	}
	return out, nil
}

func (r *FixtureRepository) ListTeams(ctx context.Context, league string) ([]string, error) {
	query, args, err := buildListTeamsQuery(league)
	if err != nil {
		return nil, fmt.Errorf("build select teams query: %w", err)
	}

	out := make([]string, 0)
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("select teams: %w", err)
	}
	return out, nil
}

func (r *FixtureRepository) GetDateRange(ctx context.Context, league string) (fixture.DateRange, bool, error) {
	builder := qb.Select("MIN(match_date) AS min_date", "MAX(match_date) AS max_date").From(fixturesTable)
	if league = strings.TrimSpace(league); league != "" {
		builder.Where(qb.Eq("league", league))
	}
	query, args, err := builder.ToSQL()
	if err != nil {
		return fixture.DateRange{}, false, fmt.Errorf("build date range query: %w", err)
	}

	var row dateRangeRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		return fixture.DateRange{}, false, fmt.Errorf("get date range: %w", err)
	}
	if !row.MinDate.Valid || !row.MaxDate.Valid {
		return fixture.DateRange{}, false, nil
	}
	return fixture.DateRange{From: asUTC(row.MinDate.Time), To: asUTC(row.MaxDate.Time)}, true, nil
}

func buildListFixturesQuery(filter fixture.Filter) (string, []any, error) {
	conditions := make([]qb.Condition, 0, 4)
	if filter.League != "" {
		conditions = append(conditions, qb.Eq("league", filter.League))
	}
	if filter.Team != "" {
		conditions = append(conditions, qb.Or(qb.Eq("home_team", filter.Team), qb.Eq("away_team", filter.Team)))
	}
	if filter.From != nil {
		conditions = append(conditions, qb.Gte("match_date", filter.From.UTC()))
	}
	if filter.To != nil {
		conditions = append(conditions, qb.Lte("match_date", filter.To.UTC()))
	}

	return qb.Select(fixtureColumns...).
		From(fixturesTable).
		Where(conditions...).
		OrderBy("match_date", "fixture_id").
		ToSQL()
}

func buildListTeamsQuery(league string) (string, []any, error) {
	builder := qb.Select("sides.team").Distinct().From(fixtureTeamsSource)
	if league = strings.TrimSpace(league); league != "" {
		builder.Where(qb.Eq("league", league))
	}
	return builder.OrderBy("sides.team").ToSQL()
}

func fixtureModels(fixtures []fixture.Fixture) ([]fixtureTableModel, error) {
	position := make(map[int64]int, len(fixtures))
	out := make([]fixtureTableModel, 0, len(fixtures))
	for _, item := range fixtures {
		item = item.Normalize()
		if err := item.Validate(); err != nil {
			return nil, fmt.Errorf("fixture id=%d: %w", item.ID, err)
		}
		model := fixtureModelFromDomain(item)
		if idx, ok := position[item.ID]; ok {
			out[idx] = model
			continue
		}
		position[item.ID] = len(out)
		out = append(out, model)
	}
	return out, nil
}
