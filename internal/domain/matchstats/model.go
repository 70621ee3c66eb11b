package matchstats

import (
	"errors"
	"strings"
	"time"

	"github.com/riskibarqy/matchstats/internal/domain/fixture"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidFixtureID = errors.New("statistics fixture id must be greater than zero")
	ErrMissingTeamName  = errors.New("statistics team name is required")
)

// MatchStatistics is one team's statistics for one fixture, keyed by (FixtureID, TeamName).
// Nil pointers and invalid decimals are stored as NULL.
type MatchStatistics struct {
	FixtureID       int64
	TeamName        string
	League          string
	MatchDate       time.Time
	ShotsOnGoal     *int
	ShotsOffGoal    *int
	TotalShots      *int
	BlockedShots    *int
	ShotsInsideBox  *int
	ShotsOutsideBox *int
	Fouls           *int
	CornerKicks     *int
	Offsides        *int
	BallPossession  decimal.NullDecimal
	YellowCards     *int
	RedCards        *int
	GoalkeeperSaves *int
	TotalPasses     *int
	PassesAccurate  *int
	PassesPercent   decimal.NullDecimal
	ExpectedGoals   decimal.NullDecimal
}

// Key identifies a statistics row.
type Key struct {
	FixtureID int64
	TeamName  string
}

func (m MatchStatistics) Key() Key {
	return Key{FixtureID: m.FixtureID, TeamName: m.TeamName}
}

func (m MatchStatistics) Validate() error {
	if m.FixtureID <= 0 {
		return ErrInvalidFixtureID
	}
	if strings.TrimSpace(m.TeamName) == "" {
		return ErrMissingTeamName
	}
	return nil
}

// Stat is one (type label, value) pair as reported by the provider.
// Value holds whatever the JSON decoder produced: float64, string, json.Number or nil.
type Stat struct {
	Type  string
	Value any
}

// Project builds the fixed-field record for one team block. Labels that are not
// part of the mapping table are ignored and absent labels stay NULL.
func Project(fx fixture.Fixture, teamName string, stats []Stat) MatchStatistics {
	fx = fx.Normalize()
	out := MatchStatistics{
		FixtureID: fx.ID,
		TeamName:  fixture.NormalizeName(teamName),
		League:    fx.League,
		MatchDate: fx.MatchDate,
	}
	for _, stat := range stats {
		field, ok := LookupField(stat.Type)
		if !ok {
			continue
		}
		field.apply(&out, stat.Value)
	}
	return out
}

// SeasonSummary aggregates one team's stored statistics.
type SeasonSummary struct {
	TeamName              string
	League                string
	Matches               int
	AverageBallPossession decimal.NullDecimal
	AverageExpectedGoals  decimal.NullDecimal
	TotalShots            int
	TotalShotsOnGoal      int
	TotalCornerKicks      int
	TotalFouls            int
	TotalYellowCards      int
	TotalRedCards         int
}

// Summarize aggregates rows of a single team. NULL values are skipped in totals and averages.
func Summarize(teamName, league string, rows []MatchStatistics) SeasonSummary {
	out := SeasonSummary{TeamName: teamName, League: league}
	possession := newAverager()
	xg := newAverager()
	for _, row := range rows {
		if row.TeamName != teamName {
			continue
		}
		out.Matches++
		out.TotalShots += deref(row.TotalShots)
		out.TotalShotsOnGoal += deref(row.ShotsOnGoal)
		out.TotalCornerKicks += deref(row.CornerKicks)
		out.TotalFouls += deref(row.Fouls)
		out.TotalYellowCards += deref(row.YellowCards)
		out.TotalRedCards += deref(row.RedCards)
		possession.add(row.BallPossession)
		xg.add(row.ExpectedGoals)
	}
	out.AverageBallPossession = possession.result()
	out.AverageExpectedGoals = xg.result()
	return out
}

type averager struct {
	sum   decimal.Decimal
	count int64
}

func newAverager() *averager {
	return &averager{sum: decimal.Zero}
}

func (a *averager) add(v decimal.NullDecimal) {
	if !v.Valid {
		return
	}
	a.sum = a.sum.Add(v.Decimal)
	a.count++
}

func (a *averager) result() decimal.NullDecimal {
	if a.count == 0 {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(a.sum.Div(decimal.NewFromInt(a.count)).Round(2))
}

func deref(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
