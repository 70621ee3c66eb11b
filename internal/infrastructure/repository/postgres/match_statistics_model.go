package postgres

import (
	"strings"
	"time"

	"github.com/riskibarqy/matchstats/internal/domain/matchstats"
	qb "github.com/riskibarqy/matchstats/internal/platform/querybuilder"
	"github.com/shopspring/decimal"
)

const matchStatisticsTable = "match_statistics"

type matchStatisticsTableModel struct {
	FixtureID       int64               `db:"fixture_id"`
	TeamName        string              `db:"team_name"`
	League          string              `db:"league"`
	MatchDate       time.Time           `db:"match_date"`
	ShotsOnGoal     *int                `db:"shots_on_goal"`
	ShotsOffGoal    *int                `db:"shots_off_goal"`
	TotalShots      *int                `db:"total_shots"`
	BlockedShots    *int                `db:"blocked_shots"`
	ShotsInsideBox  *int                `db:"shots_insidebox"`
	ShotsOutsideBox *int                `db:"shots_outsidebox"`
	Fouls           *int                `db:"fouls"`
	CornerKicks     *int                `db:"corner_kicks"`
	Offsides        *int                `db:"offsides"`
	BallPossession  decimal.NullDecimal `db:"ball_possession"`
	YellowCards     *int                `db:"yellow_cards"`
	RedCards        *int                `db:"red_cards"`
	GoalkeeperSaves *int                `db:"goalkeeper_saves"`
	TotalPasses     *int                `db:"total_passes"`
	PassesAccurate  *int                `db:"passes_accurate"`
	PassesPercent   decimal.NullDecimal `db:"passes_percent"`
	ExpectedGoals   decimal.NullDecimal `db:"expected_goals"`
}

var (
	matchStatisticsColumns      = mustColumns(matchStatisticsTableModel{})
	matchStatisticsUpsertSuffix = buildMatchStatisticsUpsertSuffix(matchStatisticsColumns)
)

func matchStatisticsModelFromDomain(row matchstats.MatchStatistics) matchStatisticsTableModel {
	return matchStatisticsTableModel{
		FixtureID:       row.FixtureID,
		TeamName:        row.TeamName,
		League:          row.League,
		MatchDate:       row.MatchDate.UTC(),
		ShotsOnGoal:     row.ShotsOnGoal,
		ShotsOffGoal:    row.ShotsOffGoal,
		TotalShots:      row.TotalShots,
		BlockedShots:    row.BlockedShots,
		ShotsInsideBox:  row.ShotsInsideBox,
		ShotsOutsideBox: row.ShotsOutsideBox,
		Fouls:           row.Fouls,
		CornerKicks:     row.CornerKicks,
		Offsides:        row.Offsides,
		BallPossession:  row.BallPossession,
		YellowCards:     row.YellowCards,
		RedCards:        row.RedCards,
		GoalkeeperSaves: row.GoalkeeperSaves,
		TotalPasses:     row.TotalPasses,
		PassesAccurate:  row.PassesAccurate,
		PassesPercent:   row.PassesPercent,
		ExpectedGoals:   row.ExpectedGoals,
	}
}

func (m matchStatisticsTableModel) toDomain() matchstats.MatchStatistics {
	return matchstats.MatchStatistics{
		FixtureID:       m.FixtureID,
		TeamName:        m.TeamName,
		League:          m.League,
		MatchDate:       asUTC(m.MatchDate),
		ShotsOnGoal:     m.ShotsOnGoal,
		ShotsOffGoal:    m.ShotsOffGoal,
		TotalShots:      m.TotalShots,
		BlockedShots:    m.BlockedShots,
		ShotsInsideBox:  m.ShotsInsideBox,
		ShotsOutsideBox: m.ShotsOutsideBox,
		Fouls:           m.Fouls,
		CornerKicks:     m.CornerKicks,
		Offsides:        m.Offsides,
		BallPossession:  m.BallPossession,
		YellowCards:     m.YellowCards,
		RedCards:        m.RedCards,
		GoalkeeperSaves: m.GoalkeeperSaves,
		TotalPasses:     m.TotalPasses,
		PassesAccurate:  m.PassesAccurate,
		PassesPercent:   m.PassesPercent,
		ExpectedGoals:   m.ExpectedGoals,
	}
}

func mustColumns(model any) []string {
	cols, err := qb.Columns(model)
	if err != nil {
		panic(err)
	}
	return cols
}

// buildMatchStatisticsUpsertSuffix overwrites every non-key column so a repeated save replaces the row.
func buildMatchStatisticsUpsertSuffix(columns []string) string {
	var b strings.Builder
	b.WriteString("ON CONFLICT (fixture_id, team_name)\nDO UPDATE SET")
	first := true
	for _, col := range columns {
		if col == "fixture_id" || col == "team_name" {
			continue
		}
		if !first {
			b.WriteString(",")
		}
		first = false
		b.WriteString("\n    ")
		b.WriteString(col)
		b.WriteString(" = EXCLUDED.")
		b.WriteString(col)
	}
	return b.String()
}
