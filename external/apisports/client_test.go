package apisports

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/riskibarqy/matchstats/internal/platform/logging"
	"github.com/riskibarqy/matchstats/internal/platform/resilience"
	"github.com/riskibarqy/matchstats/internal/usecase"
)

const testAPIKey = "secret-key-123"

func newTestClient(t *testing.T, handler http.HandlerFunc, mutate ...func(*ClientConfig)) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := ClientConfig{
		HTTPClient:   server.Client(),
		BaseURL:      server.URL,
		APIKey:       testAPIKey,
		RetryBackoff: time.Millisecond,
		Logger:       logging.NewNop(),
	}
	for _, fn := range mutate {
		fn(&cfg)
	}
	return NewClient(cfg)
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, payload any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := jsoniter.NewEncoder(w).Encode(payload); err != nil {
		t.Errorf("encode payload: %v", err)
	}
}

func TestClient_FetchFixtures(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/fixtures" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("x-apisports-key"); got != testAPIKey {
			t.Errorf("unexpected api key header %q", got)
		}
		if got := r.Header.Get("accept"); got != "application/json" {
			t.Errorf("unexpected accept header %q", got)
		}
		if r.URL.Query().Get("league") != "39" || r.URL.Query().Get("season") != "2025" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}

		writeJSON(t, w, http.StatusOK, map[string]any{
			"get":     "fixtures",
			"errors":  []any{},
			"results": 2,
			"response": []any{
				map[string]any{
					"fixture": map[string]any{"id": 1208022, "date": "2025-08-16T11:30:00+00:00", "status": map[string]any{"short": "NS"}},
					"league":  map[string]any{"id": 39, "name": "Premier League", "season": 2025},
					"teams":   map[string]any{"home": map[string]any{"name": "Aston Villa"}, "away": map[string]any{"name": "Newcastle"}},
				},
				map[string]any{
					"fixture": map[string]any{"id": 1208021, "date": "2025-08-15T21:00:00+02:00", "status": map[string]any{"short": "FT"}},
					"league":  map[string]any{"id": 39, "name": "Premier League", "season": 2025},
					"teams":   map[string]any{"home": map[string]any{"name": "Liverpool"}, "away": map[string]any{"name": "Bournemouth"}},
				},
			},
		})
	})

	got, err := client.FetchFixtures(context.Background(), 39, 2025)
	if err != nil {
		t.Fatalf("fetch fixtures: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 fixtures, got=%d", len(got))
	}

	first := got[0]
	if first.ID != 1208021 || first.Status != "FT" || first.LeagueName != "Premier League" {
		t.Fatalf("unexpected first fixture: %+v", first)
	}
	if first.HomeTeam != "Liverpool" || first.AwayTeam != "Bournemouth" {
		t.Fatalf("unexpected teams: %+v", first)
	}
	want := time.Date(2025, 8, 15, 19, 0, 0, 0, time.UTC)
	if !first.MatchDate.Equal(want) || first.MatchDate.Location() != time.UTC {
		t.Fatalf("expected kickoff %s in UTC, got %s", want, first.MatchDate)
	}
}

func TestClient_FetchStatistics(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/fixtures/statistics" || r.URL.Query().Get("fixture") != "1208021" {
			t.Errorf("unexpected request %s", r.URL.String())
		}
		writeJSON(t, w, http.StatusOK, map[string]any{
			"errors": []any{},
			"response": []any{
				map[string]any{
					"team": map[string]any{"id": 40, "name": "Liverpool"},
					"statistics": []any{
						map[string]any{"type": "Shots on Goal", "value": 10},
						map[string]any{"type": "Ball Possession", "value": "62%"},
						map[string]any{"type": "Red Cards", "value": nil},
						map[string]any{"type": "expected_goals", "value": "2.84"},
					},
				},
				map[string]any{
					"team":       map[string]any{"id": 35, "name": "Bournemouth"},
					"statistics": []any{map[string]any{"type": "Shots on Goal", "value": 3}},
				},
			},
		})
	})

	got, err := client.FetchStatistics(context.Background(), 1208021)
	if err != nil {
		t.Fatalf("fetch statistics: %v", err)
	}
	if len(got) != 2 || got[0].TeamName != "Liverpool" || got[0].TeamID != 40 {
		t.Fatalf("unexpected blocks: %+v", got)
	}
	stats := got[0].Statistics
	if len(stats) != 4 {
		t.Fatalf("expected 4 statistics, got=%d", len(stats))
	}
	if v, ok := stats[0].Value.(float64); !ok || v != 10 {
		t.Fatalf("expected numeric shots on goal, got %#v", stats[0].Value)
	}
	if stats[1].Value != "62%" || stats[2].Value != nil {
		t.Fatalf("unexpected raw values: %#v %#v", stats[1].Value, stats[2].Value)
	}
}

func TestClient_FetchStatistics_EmptyIsNoData(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{"errors": []any{}, "results": 0, "response": []any{}})
	})

	got, err := client.FetchStatistics(context.Background(), 5)
	if err != nil {
		t.Fatalf("fetch statistics: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no blocks, got=%d", len(got))
	}
}

func TestClient_NonSuccessStatusIsUpstreamError(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		writeJSON(t, w, http.StatusTooManyRequests, map[string]any{"message": "Too many requests"})
	})

	_, err := client.FetchFixtures(context.Background(), 39, 2025)
	var upstream *usecase.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected UpstreamError, got %T %v", err, err)
	}
	if upstream.StatusCode != http.StatusTooManyRequests || !upstream.RateLimited || upstream.Op != "fixtures" {
		t.Fatalf("unexpected upstream error: %+v", upstream)
	}
	if !errors.Is(err, usecase.ErrUpstream) {
		t.Fatalf("expected ErrUpstream mark")
	}
	if calls.Load() != 1 {
		t.Fatalf("expected no retries by default, got %d calls", calls.Load())
	}
}

func TestClient_RetriesTransientStatus(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		writeJSON(t, w, http.StatusOK, map[string]any{"errors": []any{}, "response": []any{}})
	}, func(cfg *ClientConfig) { cfg.MaxRetries = 2 })

	if _, err := client.FetchStatistics(context.Background(), 9); err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 calls, got %d", calls.Load())
	}
}

func TestClient_ClientErrorIsNotRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}, func(cfg *ClientConfig) { cfg.MaxRetries = 3 })

	_, err := client.FetchStatistics(context.Background(), 9)
	var upstream *usecase.UpstreamError
	if !errors.As(err, &upstream) || upstream.StatusCode != http.StatusForbidden || upstream.RateLimited {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single call, got %d", calls.Load())
	}
}

func TestClient_EnvelopeErrorsAreUpstreamErrors(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{
			"errors":   map[string]any{"requests": "You have reached the request limit for the day, key " + testAPIKey},
			"response": []any{},
		})
	})

	_, err := client.FetchFixtures(context.Background(), 39, 2025)
	var upstream *usecase.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if !upstream.RateLimited {
		t.Fatalf("expected rate limited flag from envelope error")
	}
	if strings.Contains(err.Error(), testAPIKey) {
		t.Fatalf("api key leaked into error: %v", err)
	}
}

func TestClient_CircuitBreakerOpensAfterFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}, func(cfg *ClientConfig) {
		cfg.CircuitBreaker = resilience.CircuitBreakerConfig{Enabled: true, FailureThreshold: 2, OpenTimeout: time.Minute, HalfOpenMaxReq: 1}
	})

	for i := 0; i < 2; i++ {
		if _, err := client.FetchStatistics(context.Background(), 1); err == nil {
			t.Fatalf("expected failure on call %d", i)
		}
	}

	_, err := client.FetchStatistics(context.Background(), 1)
	if !errors.Is(err, usecase.ErrDependencyUnavailable) || !errors.Is(err, usecase.ErrUpstream) {
		t.Fatalf("expected open breaker error, got %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected open breaker to short-circuit, got %d calls", calls.Load())
	}
}

func TestClient_RejectsInvalidIDs(t *testing.T) {
	t.Parallel()

	client := NewClient(ClientConfig{APIKey: testAPIKey, Logger: logging.NewNop()})
	if _, err := client.FetchFixtures(context.Background(), 0, 2025); !errors.Is(err, usecase.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if _, err := client.FetchStatistics(context.Background(), -1); !errors.Is(err, usecase.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestParseProviderDateTime(t *testing.T) {
	cases := map[string]string{
		"2025-08-15T19:00:00+00:00": "2025-08-15T19:00:00Z",
		"2025-08-15T21:00:00+02:00": "2025-08-15T19:00:00Z",
		"2025-08-15 19:00:00":       "2025-08-15T19:00:00Z",
	}
	for raw, want := range cases {
		got := parseProviderDateTime(raw)
		if got == nil || got.Format(time.RFC3339) != want {
			t.Fatalf("parseProviderDateTime(%q)=%v want=%s", raw, got, want)
		}
	}
	if parseProviderDateTime("not a date") != nil {
		t.Fatalf("expected nil for garbage input")
	}
}
