package httpapi

import (
	"time"

	"github.com/riskibarqy/matchstats/internal/domain/fixture"
	"github.com/riskibarqy/matchstats/internal/domain/matchstats"
	"github.com/shopspring/decimal"
)

type fixtureDTO struct {
	FixtureID int64  `json:"fixtureId"`
	League    string `json:"league"`
	MatchDate string `json:"matchDate"`
	HomeTeam  string `json:"homeTeam"`
	AwayTeam  string `json:"awayTeam"`
	Status    string `json:"status"`
}

type dateRangeDTO struct {
	Available bool    `json:"available"`
	From      *string `json:"from"`
	To        *string `json:"to"`
}

type statisticsDTO struct {
	FixtureID       int64    `json:"fixtureId"`
	TeamName        string   `json:"teamName"`
	League          string   `json:"league"`
	MatchDate       string   `json:"matchDate"`
	ShotsOnGoal     *int     `json:"shotsOnGoal"`
	ShotsOffGoal    *int     `json:"shotsOffGoal"`
	TotalShots      *int     `json:"totalShots"`
	BlockedShots    *int     `json:"blockedShots"`
	ShotsInsideBox  *int     `json:"shotsInsideBox"`
	ShotsOutsideBox *int     `json:"shotsOutsideBox"`
	Fouls           *int     `json:"fouls"`
	CornerKicks     *int     `json:"cornerKicks"`
	Offsides        *int     `json:"offsides"`
	BallPossession  *float64 `json:"ballPossession"`
	YellowCards     *int     `json:"yellowCards"`
	RedCards        *int     `json:"redCards"`
	GoalkeeperSaves *int     `json:"goalkeeperSaves"`
	TotalPasses     *int     `json:"totalPasses"`
	PassesAccurate  *int     `json:"passesAccurate"`
	PassesPercent   *float64 `json:"passesPercent"`
	ExpectedGoals   *float64 `json:"expectedGoals"`
}

type fixtureStatisticsDTO struct {
	Fixture    fixtureDTO      `json:"fixture"`
	Statistics []statisticsDTO `json:"statistics"`
}

type seasonSummaryDTO struct {
	TeamName              string   `json:"teamName"`
	League                string   `json:"league"`
	Matches               int      `json:"matches"`
	AverageBallPossession *float64 `json:"averageBallPossession"`
	AverageExpectedGoals  *float64 `json:"averageExpectedGoals"`
	TotalShots            int      `json:"totalShots"`
	TotalShotsOnGoal      int      `json:"totalShotsOnGoal"`
	TotalCornerKicks      int      `json:"totalCornerKicks"`
	TotalFouls            int      `json:"totalFouls"`
	TotalYellowCards      int      `json:"totalYellowCards"`
	TotalRedCards         int      `json:"totalRedCards"`
}

func fixtureToDTO(v fixture.Fixture) fixtureDTO {
	return fixtureDTO{
		FixtureID: v.ID,
		League:    v.League,
		MatchDate: v.MatchDate.UTC().Format(time.RFC3339),
		HomeTeam:  v.HomeTeam,
		AwayTeam:  v.AwayTeam,
		Status:    v.Status,
	}
}

func dateRangeToDTO(v fixture.DateRange, ok bool) dateRangeDTO {
	if !ok {
		return dateRangeDTO{}
	}
	from := v.From.UTC().Format(time.RFC3339)
	to := v.To.UTC().Format(time.RFC3339)
	return dateRangeDTO{Available: true, From: &from, To: &to}
}

func statisticsToDTOs(rows []matchstats.MatchStatistics) []statisticsDTO {
	out := make([]statisticsDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, statisticsDTO{
			FixtureID:       row.FixtureID,
			TeamName:        row.TeamName,
			League:          row.League,
			MatchDate:       row.MatchDate.UTC().Format(time.RFC3339),
			ShotsOnGoal:     row.ShotsOnGoal,
			ShotsOffGoal:    row.ShotsOffGoal,
			TotalShots:      row.TotalShots,
			BlockedShots:    row.BlockedShots,
			ShotsInsideBox:  row.ShotsInsideBox,
			ShotsOutsideBox: row.ShotsOutsideBox,
			Fouls:           row.Fouls,
			CornerKicks:     row.CornerKicks,
			Offsides:        row.Offsides,
			BallPossession:  decimalPtr(row.BallPossession),
			YellowCards:     row.YellowCards,
			RedCards:        row.RedCards,
			GoalkeeperSaves: row.GoalkeeperSaves,
			TotalPasses:     row.TotalPasses,
			PassesAccurate:  row.PassesAccurate,
			PassesPercent:   decimalPtr(row.PassesPercent),
			ExpectedGoals:   decimalPtr(row.ExpectedGoals),
		})
	}
	return out
}

func seasonSummaryToDTO(v matchstats.SeasonSummary) seasonSummaryDTO {
	return seasonSummaryDTO{
		TeamName:              v.TeamName,
		League:                v.League,
		Matches:               v.Matches,
		AverageBallPossession: decimalPtr(v.AverageBallPossession),
		AverageExpectedGoals:  decimalPtr(v.AverageExpectedGoals),
		TotalShots:            v.TotalShots,
		TotalShotsOnGoal:      v.TotalShotsOnGoal,
		TotalCornerKicks:      v.TotalCornerKicks,
		TotalFouls:            v.TotalFouls,
		TotalYellowCards:      v.TotalYellowCards,
		TotalRedCards:         v.TotalRedCards,
	}
}

func decimalPtr(v decimal.NullDecimal) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Decimal.InexactFloat64()
	return &f
}
