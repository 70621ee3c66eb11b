package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/matchstats/internal/platform/logging"
	"github.com/riskibarqy/matchstats/internal/usecase"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Handler struct {
	queryService *usecase.QueryService
	db           Pinger
	logger       *logging.Logger
	validator    *validator.Validate
}

func NewHandler(queryService *usecase.QueryService, db Pinger, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		queryService: queryService,
		db:           db,
		logger:       logger,
		validator:    validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	if h.db != nil {
		if err := h.db.PingContext(ctx); err != nil {
			h.logger.WarnContext(ctx, "health check database ping failed", "error", err)
			writeError(ctx, w, fmt.Errorf("%w: database unreachable: %w", usecase.ErrDependencyUnavailable, err))
			return
		}
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) ListLeagues(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListLeagues")
	defer span.End()

	leagues, err := h.queryService.ListLeagues(ctx)
	if err != nil {
		h.fail(ctx, w, "list leagues failed", err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, leagues)
}

func (h *Handler) ListTeams(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTeams")
	defer span.End()

	league := strings.TrimSpace(r.URL.Query().Get("league"))
	teams, err := h.queryService.ListTeams(ctx, league)
	if err != nil {
		h.fail(ctx, w, "list teams failed", err, "league", league)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, teams)
}

func (h *Handler) GetTeamSummary(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetTeamSummary")
	defer span.End()

	var query teamSummaryQuery
	query.League = strings.TrimSpace(r.URL.Query().Get("league"))
	query.Team = strings.TrimSpace(r.URL.Query().Get("team"))
	if err := h.validateRequest(ctx, query); err != nil {
		writeError(ctx, w, err)
		return
	}

	summary, err := h.queryService.TeamSummary(ctx, query.League, query.Team)
	if err != nil {
		h.fail(ctx, w, "team summary failed", err, "league", query.League, "team", query.Team)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, seasonSummaryToDTO(summary))
}

func (h *Handler) ListFixtures(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListFixtures")
	defer span.End()

	filter, err := h.parseFixtureFilter(ctx, r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	fixtures, err := h.queryService.ListFixtures(ctx, filter)
	if err != nil {
		h.fail(ctx, w, "list fixtures failed", err, "league", filter.League, "team", filter.Team)
		return
	}

	items := make([]fixtureDTO, 0, len(fixtures))
	for _, item := range fixtures {
		items = append(items, fixtureToDTO(item))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetFixtureDateRange(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetFixtureDateRange")
	defer span.End()

	league := strings.TrimSpace(r.URL.Query().Get("league"))
	span.SetAttributes(attrLeague(league))
	dateRange, ok, err := h.queryService.DateRange(ctx, league)
	if err != nil {
		h.fail(ctx, w, "fixture date range failed", err, "league", league)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, dateRangeToDTO(dateRange, ok))
}

func (h *Handler) ListStatistics(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListStatistics")
	defer span.End()

	filter, err := h.parseFixtureFilter(ctx, r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	rows, err := h.queryService.ListStatistics(ctx, filter)
	if err != nil {
		h.fail(ctx, w, "list statistics failed", err, "league", filter.League, "team", filter.Team)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, statisticsToDTOs(rows))
}

func (h *Handler) GetFixtureStatistics(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetFixtureStatistics")
	defer span.End()

	rawID := strings.TrimSpace(r.PathValue("fixtureID"))
	fixtureID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || fixtureID <= 0 {
		writeError(ctx, w, fmt.Errorf("%w: fixture id must be a positive integer, got %q", usecase.ErrInvalidInput, rawID))
		return
	}

	fx, rows, err := h.queryService.GetFixtureStatistics(ctx, fixtureID)
	if err != nil {
		h.fail(ctx, w, "get fixture statistics failed", err, "fixture_id", fixtureID)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, fixtureStatisticsDTO{
		Fixture:    fixtureToDTO(fx),
		Statistics: statisticsToDTOs(rows),
	})
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

// fail logs client errors at warn and everything else at error, then writes the envelope.
func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error, args ...any) {
	args = append(args, "error", err)
	if mapError(ctx, err).HTTPStatus < http.StatusInternalServerError {
		h.logger.WarnContext(ctx, msg, args...)
	} else {
		h.logger.ErrorContext(ctx, msg, args...)
	}
	writeError(ctx, w, err)
}
