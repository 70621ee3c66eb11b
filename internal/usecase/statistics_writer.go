package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/riskibarqy/matchstats/internal/domain/fixture"
	"github.com/riskibarqy/matchstats/internal/domain/matchstats"
	"github.com/riskibarqy/matchstats/internal/platform/logging"
	"go.opentelemetry.io/otel/attribute"
)

// StatisticsWriter projects provider statistics blocks onto stored rows.
type StatisticsWriter struct {
	repo   matchstats.Repository
	logger *logging.Logger
}

func NewStatisticsWriter(repo matchstats.Repository, logger *logging.Logger) *StatisticsWriter {
	if logger == nil {
		logger = logging.Default()
	}
	return &StatisticsWriter{repo: repo, logger: logger}
}

// SaveStatistics upserts one row per team block of fx in a single transaction.
// A repeated team name in blocks replaces the earlier block.
func (w *StatisticsWriter) SaveStatistics(ctx context.Context, fx fixture.Fixture, blocks []ExternalTeamStatistics) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.StatisticsWriter.SaveStatistics", attribute.Int64("fixture_id", fx.ID))
	defer span.End()

	fx = fx.Normalize()
	if err := fx.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if len(blocks) == 0 {
		return nil
	}

	rows, err := projectBlocks(fx, blocks)
	if err != nil {
		return err
	}

	if err := w.repo.SaveFixtureStatistics(ctx, fx, rows); err != nil {
		err = fmt.Errorf("%w: save statistics fixture_id=%d: %w", ErrPersistence, fx.ID, err)
		recordSpanError(span, err)
		return err
	}

	w.logger.DebugContext(ctx, "statistics saved", "fixture_id", fx.ID, "teams", len(rows))
	return nil
}

func projectBlocks(fx fixture.Fixture, blocks []ExternalTeamStatistics) ([]matchstats.MatchStatistics, error) {
	rows := make([]matchstats.MatchStatistics, 0, len(blocks))
	position := make(map[string]int, len(blocks))
	for _, block := range blocks {
		if strings.TrimSpace(block.TeamName) == "" {
			return nil, fmt.Errorf("%w: fixture_id=%d: %w", ErrInvalidInput, fx.ID, matchstats.ErrMissingTeamName)
		}

		row := matchstats.Project(fx, block.TeamName, block.Statistics)
		if idx, ok := position[row.TeamName]; ok {
			rows[idx] = row
			continue
		}
		position[row.TeamName] = len(rows)
		rows = append(rows, row)
	}
	return rows, nil
}
