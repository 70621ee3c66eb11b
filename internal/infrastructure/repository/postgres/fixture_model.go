package postgres

import (
	"database/sql"
	"time"

	"github.com/riskibarqy/matchstats/internal/domain/fixture"
)

const fixturesTable = "fixtures"

var fixtureColumns = []string{"fixture_id", "league", "match_date", "home_team", "away_team", "status"}

type fixtureTableModel struct {
	FixtureID int64          `db:"fixture_id"`
	League    string         `db:"league"`
	MatchDate time.Time      `db:"match_date"`
	HomeTeam  string         `db:"home_team"`
	AwayTeam  string         `db:"away_team"`
	Status    sql.NullString `db:"status"`
}

func fixtureModelFromDomain(item fixture.Fixture) fixtureTableModel {
	return fixtureTableModel{
		FixtureID: item.ID,
		League:    item.League,
		MatchDate: item.MatchDate.UTC(),
		HomeTeam:  item.HomeTeam,
		AwayTeam:  item.AwayTeam,
		Status:    sql.NullString{String: item.Status, Valid: item.Status != ""},
	}
}

func (m fixtureTableModel) toDomain() fixture.Fixture {
	return fixture.Fixture{
		ID:        m.FixtureID,
		League:    m.League,
		MatchDate: asUTC(m.MatchDate),
		HomeTeam:  m.HomeTeam,
		AwayTeam:  m.AwayTeam,
		Status:    m.Status.String,
	}
}

type dateRangeRow struct {
	MinDate sql.NullTime `db:"min_date"`
	MaxDate sql.NullTime `db:"max_date"`
}

// TIMESTAMP columns come back without a zone; the stored values are UTC.
func asUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}
