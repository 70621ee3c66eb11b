package fixture

import (
	"errors"
	"strings"
	"time"
)

// Provider short status codes.
const (
	StatusNotStarted = "NS"
	StatusHalfTime   = "HT"
	StatusFinished   = "FT"
	StatusPostponed  = "PST"
	StatusCancelled  = "CANC"
)

// Column limits of the fixtures table.
const (
	MaxNameLength   = 100
	MaxStatusLength = 10
)

var (
	ErrInvalidID        = errors.New("fixture id must be greater than zero")
	ErrMissingLeague    = errors.New("fixture league is required")
	ErrMissingTeams     = errors.New("fixture home and away teams are required")
	ErrMissingMatchDate = errors.New("fixture match date is required")
)

// Fixture represents one scheduled or played match as stored in the fixtures table.
type Fixture struct {
	ID        int64
	League    string
	MatchDate time.Time
	HomeTeam  string
	AwayTeam  string
	Status    string
}

// IsFinished reports whether statistics are expected to be available.
// Only the exact provider code FT qualifies.
func (f Fixture) IsFinished() bool {
	return f.Status == StatusFinished
}

// Involves reports whether team plays in the fixture.
func (f Fixture) Involves(team string) bool {
	return f.HomeTeam == team || f.AwayTeam == team
}

// Normalize trims names, clamps them to column limits and stores the kickoff in UTC.
func (f Fixture) Normalize() Fixture {
	f.League = NormalizeName(f.League)
	f.HomeTeam = NormalizeName(f.HomeTeam)
	f.AwayTeam = NormalizeName(f.AwayTeam)
	f.Status = clamp(strings.TrimSpace(f.Status), MaxStatusLength)
	if !f.MatchDate.IsZero() {
		f.MatchDate = f.MatchDate.UTC()
	}
	return f
}

func (f Fixture) Validate() error {
	if f.ID <= 0 {
		return ErrInvalidID
	}
	if strings.TrimSpace(f.League) == "" {
		return ErrMissingLeague
	}
	if strings.TrimSpace(f.HomeTeam) == "" || strings.TrimSpace(f.AwayTeam) == "" {
		return ErrMissingTeams
	}
	if f.MatchDate.IsZero() {
		return ErrMissingMatchDate
	}
	return nil
}

// Filter narrows fixture reads. Zero values mean "no constraint".
type Filter struct {
	League string
	Team   string
	From   *time.Time
	To     *time.Time
}

// Matches applies the filter in memory with the same semantics as the SQL read path.
func (f Filter) Matches(item Fixture) bool {
	if f.League != "" && item.League != f.League {
		return false
	}
	if f.Team != "" && !item.Involves(f.Team) {
		return false
	}
	if f.From != nil && item.MatchDate.Before(*f.From) {
		return false
	}
	if f.To != nil && item.MatchDate.After(*f.To) {
		return false
	}
	return true
}

// DateRange is the span of stored match dates.
type DateRange struct {
	From time.Time
	To   time.Time
}

// NormalizeName trims a league or team name and clamps it to the column limit.
func NormalizeName(value string) string {
	return clamp(strings.TrimSpace(value), MaxNameLength)
}

func clamp(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit])
}
