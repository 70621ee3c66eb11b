package matchstats

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/riskibarqy/matchstats/internal/domain/fixture"
	"github.com/shopspring/decimal"
)

func testFixture() fixture.Fixture {
	return fixture.Fixture{
		ID:        1208021,
		League:    "Premier League",
		MatchDate: time.Date(2025, 8, 15, 19, 0, 0, 0, time.UTC),
		HomeTeam:  "Liverpool",
		AwayTeam:  "Bournemouth",
		Status:    fixture.StatusFinished,
	}
}

func TestProject_KnownLabelsAndPossessionNormalization(t *testing.T) {
	row := Project(testFixture(), "Liverpool", []Stat{
		{Type: "Shots on Goal", Value: float64(5)},
		{Type: "Ball Possession", Value: "55%"},
		{Type: "Passes %", Value: "87%"},
		{Type: "expected_goals", Value: "2.456"},
		{Type: "Total passes", Value: json.Number("612")},
		{Type: "Red Cards", Value: nil},
	})

	if row.FixtureID != 1208021 || row.TeamName != "Liverpool" {
		t.Fatalf("unexpected key: %+v", row.Key())
	}
	if row.League != "Premier League" {
		t.Fatalf("expected league copied from fixture, got %q", row.League)
	}
	if row.ShotsOnGoal == nil || *row.ShotsOnGoal != 5 {
		t.Fatalf("expected shots_on_goal=5, got %v", row.ShotsOnGoal)
	}
	if !row.BallPossession.Valid || !row.BallPossession.Decimal.Equal(decimal.NewFromInt(55)) {
		t.Fatalf("expected ball_possession=55, got %+v", row.BallPossession)
	}
	if got := row.BallPossession.Decimal.StringFixed(2); got != "55.00" {
		t.Fatalf("expected 55.00, got %s", got)
	}
	if !row.PassesPercent.Valid || !row.PassesPercent.Decimal.Equal(decimal.NewFromInt(87)) {
		t.Fatalf("expected passes_percent=87, got %+v", row.PassesPercent)
	}
	if !row.ExpectedGoals.Valid || row.ExpectedGoals.Decimal.String() != "2.46" {
		t.Fatalf("expected expected_goals=2.46, got %+v", row.ExpectedGoals)
	}
	if row.TotalPasses == nil || *row.TotalPasses != 612 {
		t.Fatalf("expected total_passes=612, got %v", row.TotalPasses)
	}
	if row.RedCards != nil {
		t.Fatalf("expected null red cards, got %d", *row.RedCards)
	}
	if row.Fouls != nil || row.CornerKicks != nil {
		t.Fatalf("expected missing labels to stay null")
	}
}

func TestProject_UnknownLabelsAreDropped(t *testing.T) {
	withUnknown := Project(testFixture(), "Liverpool", []Stat{
		{Type: "Fouls", Value: float64(11)},
		{Type: "goals_prevented", Value: float64(1)},
		{Type: "Tackles", Value: "17"},
	})
	withoutUnknown := Project(testFixture(), "Liverpool", []Stat{
		{Type: "Fouls", Value: float64(11)},
	})

	if withUnknown.Fouls == nil || *withUnknown.Fouls != 11 {
		t.Fatalf("expected fouls=11, got %v", withUnknown.Fouls)
	}
	if *withUnknown.Fouls != *withoutUnknown.Fouls || withUnknown.Key() != withoutUnknown.Key() {
		t.Fatalf("unknown labels changed the projected record")
	}
	if _, ok := LookupField("goals_prevented"); ok {
		t.Fatalf("goals_prevented must not be a known label")
	}
}

func TestLookupField_IgnoresCaseAndWhitespace(t *testing.T) {
	for _, label := range []string{"shots on goal", "  Shots on Goal ", "SHOTS  ON GOAL"} {
		f, ok := LookupField(label)
		if !ok {
			t.Fatalf("expected label %q to resolve", label)
		}
		if f.Column != "shots_on_goal" {
			t.Fatalf("unexpected column for %q: %s", label, f.Column)
		}
	}
}

func TestFields_CoverEveryStatisticColumnOnce(t *testing.T) {
	want := []string{
		"shots_on_goal", "shots_off_goal", "total_shots", "blocked_shots", "shots_insidebox",
		"shots_outsidebox", "fouls", "corner_kicks", "offsides", "ball_possession", "yellow_cards",
		"red_cards", "goalkeeper_saves", "total_passes", "passes_accurate", "passes_percent",
		"expected_goals",
	}

	got := Fields()
	if len(got) != len(want) {
		t.Fatalf("unexpected field count: got=%d want=%d", len(got), len(want))
	}
	seen := make(map[string]struct{}, len(got))
	for i, f := range got {
		if f.Column != want[i] {
			t.Fatalf("field %d: got column=%s want=%s", i, f.Column, want[i])
		}
		if _, dup := seen[f.Column]; dup {
			t.Fatalf("duplicate column %s", f.Column)
		}
		seen[f.Column] = struct{}{}
	}
	if len(KnownLabels()) != len(want) {
		t.Fatalf("KnownLabels does not match the field table")
	}
}

func TestValueParsing(t *testing.T) {
	countCases := []struct {
		raw  any
		want *int
	}{
		{raw: float64(7), want: intPtr(7)},
		{raw: "7", want: intPtr(7)},
		{raw: " 12 ", want: intPtr(12)},
		{raw: float64(7.5), want: nil},
		{raw: float64(-1), want: nil},
		{raw: "n/a", want: nil},
		{raw: nil, want: nil},
		{raw: true, want: nil},
	}
	for _, tc := range countCases {
		got := parseCount(tc.raw)
		if (got == nil) != (tc.want == nil) || (got != nil && *got != *tc.want) {
			t.Fatalf("parseCount(%v)=%v want=%v", tc.raw, got, tc.want)
		}
	}

	percentCases := []struct {
		raw   any
		valid bool
		want  string
	}{
		{raw: "55%", valid: true, want: "55.00"},
		{raw: "45.5 %", valid: true, want: "45.50"},
		{raw: float64(60), valid: true, want: "60.00"},
		{raw: "101%", valid: false},
		{raw: "", valid: false},
	}
	for _, tc := range percentCases {
		got := parsePercent(tc.raw)
		if got.Valid != tc.valid {
			t.Fatalf("parsePercent(%v).Valid=%v want=%v", tc.raw, got.Valid, tc.valid)
		}
		if tc.valid && got.Decimal.StringFixed(2) != tc.want {
			t.Fatalf("parsePercent(%v)=%s want=%s", tc.raw, got.Decimal.StringFixed(2), tc.want)
		}
	}

	if got := parseBoundedDecimal("150.2", maxExpectedGoals); got.Valid {
		t.Fatalf("expected out of range expected goals to be null")
	}
}

func TestSummarize(t *testing.T) {
	rows := []MatchStatistics{
		{TeamName: "Liverpool", TotalShots: intPtr(10), ShotsOnGoal: intPtr(5), BallPossession: decimal.NewNullDecimal(decimal.NewFromInt(60))},
		{TeamName: "Liverpool", TotalShots: intPtr(14), YellowCards: intPtr(2), BallPossession: decimal.NewNullDecimal(decimal.NewFromInt(51))},
		{TeamName: "Liverpool"},
		{TeamName: "Arsenal", TotalShots: intPtr(99)},
	}

	got := Summarize("Liverpool", "Premier League", rows)
	if got.Matches != 3 {
		t.Fatalf("expected 3 matches, got=%d", got.Matches)
	}
	if got.TotalShots != 24 || got.TotalShotsOnGoal != 5 || got.TotalYellowCards != 2 {
		t.Fatalf("unexpected totals: %+v", got)
	}
	if !got.AverageBallPossession.Valid || got.AverageBallPossession.Decimal.StringFixed(2) != "55.50" {
		t.Fatalf("unexpected average possession: %+v", got.AverageBallPossession)
	}
	if got.AverageExpectedGoals.Valid {
		t.Fatalf("expected null average xG when no values are stored")
	}
}

func intPtr(v int) *int {
	return &v
}
