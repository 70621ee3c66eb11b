package matchstats

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Field maps one provider statistic label onto a MatchStatistics column.
type Field struct {
	Label  string
	Column string
	apply  func(*MatchStatistics, any)
}

var fields = []Field{
	intField("Shots on Goal", "shots_on_goal", func(m *MatchStatistics) **int { return &m.ShotsOnGoal }),
	intField("Shots off Goal", "shots_off_goal", func(m *MatchStatistics) **int { return &m.ShotsOffGoal }),
	intField("Total Shots", "total_shots", func(m *MatchStatistics) **int { return &m.TotalShots }),
	intField("Blocked Shots", "blocked_shots", func(m *MatchStatistics) **int { return &m.BlockedShots }),
	intField("Shots insidebox", "shots_insidebox", func(m *MatchStatistics) **int { return &m.ShotsInsideBox }),
	intField("Shots outsidebox", "shots_outsidebox", func(m *MatchStatistics) **int { return &m.ShotsOutsideBox }),
	intField("Fouls", "fouls", func(m *MatchStatistics) **int { return &m.Fouls }),
	intField("Corner Kicks", "corner_kicks", func(m *MatchStatistics) **int { return &m.CornerKicks }),
	intField("Offsides", "offsides", func(m *MatchStatistics) **int { return &m.Offsides }),
	percentField("Ball Possession", "ball_possession", func(m *MatchStatistics) *decimal.NullDecimal { return &m.BallPossession }),
	intField("Yellow Cards", "yellow_cards", func(m *MatchStatistics) **int { return &m.YellowCards }),
	intField("Red Cards", "red_cards", func(m *MatchStatistics) **int { return &m.RedCards }),
	intField("Goalkeeper Saves", "goalkeeper_saves", func(m *MatchStatistics) **int { return &m.GoalkeeperSaves }),
	intField("Total passes", "total_passes", func(m *MatchStatistics) **int { return &m.TotalPasses }),
	intField("Passes accurate", "passes_accurate", func(m *MatchStatistics) **int { return &m.PassesAccurate }),
	percentField("Passes %", "passes_percent", func(m *MatchStatistics) *decimal.NullDecimal { return &m.PassesPercent }),
	decimalField("expected_goals", "expected_goals", maxExpectedGoals, func(m *MatchStatistics) *decimal.NullDecimal { return &m.ExpectedGoals }),
}

var fieldsByLabel = indexFields(fields)

// Fields returns the mapping table in column order.
func Fields() []Field {
	return append([]Field(nil), fields...)
}

// KnownLabels lists every provider label that is persisted.
func KnownLabels() []string {
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, f.Label)
	}
	return out
}

// LookupField resolves a provider label, ignoring case and surrounding whitespace.
func LookupField(label string) (Field, bool) {
	f, ok := fieldsByLabel[normalizeLabel(label)]
	return f, ok
}

func normalizeLabel(label string) string {
	return strings.ToLower(strings.Join(strings.Fields(label), " "))
}

func indexFields(items []Field) map[string]Field {
	out := make(map[string]Field, len(items))
	for _, item := range items {
		out[normalizeLabel(item.Label)] = item
	}
	return out
}

func intField(label, column string, target func(*MatchStatistics) **int) Field {
	return Field{
		Label:  label,
		Column: column,
		apply: func(m *MatchStatistics, raw any) {
			*target(m) = parseCount(raw)
		},
	}
}

func percentField(label, column string, target func(*MatchStatistics) *decimal.NullDecimal) Field {
	return Field{
		Label:  label,
		Column: column,
		apply: func(m *MatchStatistics, raw any) {
			*target(m) = parsePercent(raw)
		},
	}
}

func decimalField(label, column string, limit decimal.Decimal, target func(*MatchStatistics) *decimal.NullDecimal) Field {
	return Field{
		Label:  label,
		Column: column,
		apply: func(m *MatchStatistics, raw any) {
			*target(m) = parseBoundedDecimal(raw, limit)
		},
	}
}
