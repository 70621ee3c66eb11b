package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/riskibarqy/matchstats/internal/domain/fixture"
	"github.com/riskibarqy/matchstats/internal/domain/matchstats"
	qb "github.com/riskibarqy/matchstats/internal/platform/querybuilder"
)

type MatchStatisticsRepository struct {
	db *sqlx.DB
}

func NewMatchStatisticsRepository(db *sqlx.DB) *MatchStatisticsRepository {
	return &MatchStatisticsRepository{db: db}
}

// SaveFixtureStatistics upserts fx and then every team row inside one transaction.
func (r *MatchStatisticsRepository) SaveFixtureStatistics(ctx context.Context, fx fixture.Fixture, rows []matchstats.MatchStatistics) error {
	fx = fx.Normalize()
	if err := fx.Validate(); err != nil {
		return fmt.Errorf("fixture id=%d: %w", fx.ID, err)
	}
	models := make([]matchStatisticsTableModel, 0, len(rows))
	for _, row := range rows {
		if err := row.Validate(); err != nil {
			return fmt.Errorf("statistics fixture_id=%d team=%q: %w", row.FixtureID, row.TeamName, err)
		}
		models = append(models, matchStatisticsModelFromDomain(row))
	}

	return withTx(ctx, r.db, "save fixture statistics", func(tx *sqlx.Tx) error {
		query, args, err := qb.InsertModel(fixturesTable, fixtureModelFromDomain(fx), fixtureUpsertSuffix)
		if err != nil {
			return fmt.Errorf("build upsert fixture query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert fixture id=%d: %w", fx.ID, err)
		}

		if len(models) == 0 {
			return nil
		}
		query, args, err = qb.InsertModels(matchStatisticsTable, models, matchStatisticsUpsertSuffix)
		if err != nil {
			return fmt.Errorf("build upsert match statistics query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert match statistics fixture_id=%d: %w", fx.ID, err)
		}
		return nil
	})
}

func (r *MatchStatisticsRepository) ListByFixtureIDs(ctx context.Context, fixtureIDs []int64) ([]matchstats.MatchStatistics, error) {
	if len(fixtureIDs) == 0 {
		return []matchstats.MatchStatistics{}, nil
	}

	query, args, err := buildListStatisticsByFixturesQuery(fixtureIDs)
	if err != nil {
		return nil, fmt.Errorf("build select statistics by fixtures query: %w", err)
	}
	return r.selectRows(ctx, "select statistics by fixtures", query, args)
}

func (r *MatchStatisticsRepository) ListByTeam(ctx context.Context, league, teamName string) ([]matchstats.MatchStatistics, error) {
	conditions := []qb.Condition{qb.Eq("team_name", strings.TrimSpace(teamName))}
	if league = strings.TrimSpace(league); league != "" {
		conditions = append(conditions, qb.Eq("league", league))
	}

	query, args, err := qb.Select(matchStatisticsColumns...).
		From(matchStatisticsTable).
		Where(conditions...).
		OrderBy("match_date", "fixture_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select statistics by team query: %w", err)
	}
	return r.selectRows(ctx, "select statistics by team", query, args)
}

func (r *MatchStatisticsRepository) selectRows(ctx context.Context, op, query string, args []any) ([]matchstats.MatchStatistics, error) {
	var rows []matchStatisticsTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := make([]matchstats.MatchStatistics, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func buildListStatisticsByFixturesQuery(fixtureIDs []int64) (string, []any, error) {
	return qb.Select(matchStatisticsColumns...).
		From(matchStatisticsTable).
		Where(qb.Expr("fixture_id = ANY(?)", pq.Array(fixtureIDs))).
		OrderBy("match_date", "fixture_id", "team_name").
		ToSQL()
}
