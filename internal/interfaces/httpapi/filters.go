package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/riskibarqy/matchstats/internal/domain/fixture"
	"github.com/riskibarqy/matchstats/internal/usecase"
)

const queryDateLayout = "2006-01-02"

type fixtureFilterQuery struct {
	League string `validate:"omitempty,max=100"`
	Team   string `validate:"omitempty,max=100"`
	From   string `validate:"omitempty,datetime=2006-01-02"`
	To     string `validate:"omitempty,datetime=2006-01-02"`
}

type teamSummaryQuery struct {
	League string `validate:"required,max=100"`
	Team   string `validate:"required,max=100"`
}

// parseFixtureFilter reads league, team, from and to. Dates are UTC days and to covers its whole day.
func (h *Handler) parseFixtureFilter(ctx context.Context, r *http.Request) (fixture.Filter, error) {
	values := r.URL.Query()
	query := fixtureFilterQuery{
		League: strings.TrimSpace(values.Get("league")),
		Team:   strings.TrimSpace(values.Get("team")),
		From:   strings.TrimSpace(values.Get("from")),
		To:     strings.TrimSpace(values.Get("to")),
	}
	if err := h.validateRequest(ctx, query); err != nil {
		return fixture.Filter{}, err
	}

	filter := fixture.Filter{League: query.League, Team: query.Team}
	if query.From != "" {
		from, err := time.ParseInLocation(queryDateLayout, query.From, time.UTC)
		if err != nil {
			return fixture.Filter{}, fmt.Errorf("%w: invalid from date %q", usecase.ErrInvalidInput, query.From)
		}
		filter.From = &from
	}
	if query.To != "" {
		day, err := time.ParseInLocation(queryDateLayout, query.To, time.UTC)
		if err != nil {
			return fixture.Filter{}, fmt.Errorf("%w: invalid to date %q", usecase.ErrInvalidInput, query.To)
		}
		// Postgres timestamps keep microseconds.
		to := endOfDay(day)
		filter.To = &to
	}
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return fixture.Filter{}, fmt.Errorf("%w: from %s is after to %s", usecase.ErrInvalidInput, query.From, query.To)
	}

	return filter, nil
}

func endOfDay(day time.Time) time.Time {
	return day.Add(24*time.Hour - time.Microsecond)
}
