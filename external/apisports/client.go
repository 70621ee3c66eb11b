package apisports

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/matchstats/internal/domain/matchstats"
	"github.com/riskibarqy/matchstats/internal/platform/logging"
	"github.com/riskibarqy/matchstats/internal/platform/resilience"
	"github.com/riskibarqy/matchstats/internal/usecase"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultBaseURL      = "https://v3.football.api-sports.io"
	defaultTimeout      = 20 * time.Second
	defaultRetryBackoff = time.Second
	maxResponseBytes    = 8 << 20
	apiKeyHeader        = "x-apisports-key"

	opFixtures   = "fixtures"
	opStatistics = "statistics"
)

var errAPISportsTransient = crerr.New("api-sports transient failure")

type ClientConfig struct {
	HTTPClient *http.Client
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	// MaxRetries applies to 429 and 5xx responses and transport errors only.
	MaxRetries     int
	RetryBackoff   time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

type Client struct {
	httpClient   *http.Client
	baseURL      string
	apiKey       string
	maxRetries   int
	retryBackoff time.Duration
	logger       *logging.Logger
	breaker      *resilience.CircuitBreaker
	flight       resilience.SingleFlight
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = defaultTimeout
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	backoff := cfg.RetryBackoff
	if backoff <= 0 {
		backoff = defaultRetryBackoff
	}

	client := &Client{
		httpClient:   httpClient,
		baseURL:      baseURL,
		apiKey:       strings.TrimSpace(cfg.APIKey),
		maxRetries:   max(cfg.MaxRetries, 0),
		retryBackoff: backoff,
		logger:       logger,
		breaker:      cfg.CircuitBreaker.NewBreaker(),
	}
	if client.breaker != nil {
		client.breaker.OnStateChange(func(from, to resilience.CircuitState) {
			logger.Warn("api-sports circuit breaker state changed", "from", string(from), "to", string(to))
		})
	}
	return client
}

// FetchFixtures lists every fixture of a league season.
func (c *Client) FetchFixtures(ctx context.Context, leagueID int64, season int) ([]usecase.ExternalFixture, error) {
	if leagueID <= 0 {
		return nil, fmt.Errorf("%w: league id must be greater than zero", usecase.ErrInvalidInput)
	}

	var payload envelope[fixtureItem]
	query := map[string]string{
		"league": strconv.FormatInt(leagueID, 10),
		"season": strconv.Itoa(season),
	}
	if err := c.doJSON(ctx, opFixtures, "/fixtures", query, &payload); err != nil {
		return nil, err
	}

	out := make([]usecase.ExternalFixture, 0, len(payload.Response))
	for _, item := range payload.Response {
		if item.Fixture.ID <= 0 {
			continue
		}
		out = append(out, mapFixture(item))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// FetchStatistics returns one block per team. An empty result means the provider has
// no statistics for the fixture yet.
func (c *Client) FetchStatistics(ctx context.Context, fixtureID int64) ([]usecase.ExternalTeamStatistics, error) {
	if fixtureID <= 0 {
		return nil, fmt.Errorf("%w: fixture id must be greater than zero", usecase.ErrInvalidInput)
	}

	var payload envelope[statisticsItem]
	query := map[string]string{"fixture": strconv.FormatInt(fixtureID, 10)}
	if err := c.doJSON(ctx, opStatistics, "/fixtures/statistics", query, &payload); err != nil {
		return nil, err
	}

	out := make([]usecase.ExternalTeamStatistics, 0, len(payload.Response))
	for _, item := range payload.Response {
		stats := make([]matchstats.Stat, 0, len(item.Statistics))
		for _, entry := range item.Statistics {
			stats = append(stats, matchstats.Stat{Type: entry.Type, Value: entry.Value})
		}
		out = append(out, usecase.ExternalTeamStatistics{
			TeamID:     item.Team.ID,
			TeamName:   strings.TrimSpace(item.Team.Name),
			Statistics: stats,
		})
	}
	return out, nil
}

func (c *Client) doJSON(ctx context.Context, op, path string, query map[string]string, target any) error {
	values := url.Values{}
	for key, value := range query {
		values.Set(key, value)
	}

	fullURL := c.baseURL + path
	if encoded := values.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	out, err, _ := c.flight.Do(fullURL, func() (any, error) {
		if c.breaker == nil {
			return c.executeRequest(ctx, op, fullURL)
		}

		var raw []byte
		err := c.breaker.Do(func() error {
			var reqErr error
			raw, reqErr = c.executeRequest(ctx, op, fullURL)
			return reqErr
		}, isCircuitFailure)
		if stderrors.Is(err, resilience.ErrCircuitOpen) {
			c.logger.WarnContext(ctx, "api-sports circuit breaker rejected request", "op", op, "state", string(c.breaker.State()))
			return nil, usecase.NewUpstreamError(op, 0, fmt.Errorf("%w: football provider is temporarily unavailable", usecase.ErrDependencyUnavailable))
		}
		return raw, err
	})
	if err != nil {
		return err
	}

	raw, ok := out.([]byte)
	if !ok {
		return usecase.NewUpstreamError(op, 0, fmt.Errorf("unexpected response payload type %T", out))
	}

	if err := sonic.Unmarshal(raw, target); err != nil {
		return usecase.NewUpstreamError(op, http.StatusOK, fmt.Errorf("decode provider payload: %w", err))
	}
	if env, ok := target.(interface{ providerErrors() string }); ok {
		if msg := env.providerErrors(); msg != "" {
			upstream := usecase.NewUpstreamError(op, http.StatusOK, fmt.Errorf("provider errors: %s", sanitizeSensitiveText(msg, c.apiKey)))
			upstream.RateLimited = isRateLimitMessage(msg)
			c.logger.WarnContext(ctx, "api-sports reported errors", "op", op, "url", fullURL, "error", upstream)
			return upstream
		}
	}

	return nil
}

func (c *Client) executeRequest(ctx context.Context, op, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, usecase.NewUpstreamError(op, 0, fmt.Errorf("build request: %w", err))
		}
		req.Header.Set(apiKeyHeader, c.apiKey)
		req.Header.Set("accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = usecase.NewUpstreamError(op, 0, fmt.Errorf("%w: send request: %s", errAPISportsTransient, sanitizeSensitiveText(err.Error(), c.apiKey)))
		} else {
			raw, readErr := readBody(resp.Body)
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = usecase.NewUpstreamError(op, resp.StatusCode, fmt.Errorf("%w: read response body: %v", errAPISportsTransient, readErr))
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return raw, nil
			case isRetryableStatus(resp.StatusCode):
				lastErr = usecase.NewUpstreamError(op, resp.StatusCode, fmt.Errorf("%w: body=%s", errAPISportsTransient, abbreviateBody(raw)))
			default:
				lastErr = usecase.NewUpstreamError(op, resp.StatusCode, fmt.Errorf("body=%s", abbreviateBody(raw)))
				c.logger.WarnContext(ctx, "api-sports request failed", "op", op, "url", fullURL, "error", lastErr)
				return nil, lastErr
			}
		}

		if attempt == c.maxRetries || ctx.Err() != nil {
			break
		}
		timer := time.NewTimer(time.Duration(attempt+1) * c.retryBackoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, usecase.NewUpstreamError(op, 0, ctx.Err())
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = usecase.NewUpstreamError(op, 0, fmt.Errorf("provider request failed"))
	}
	c.logger.WarnContext(ctx, "api-sports request failed", "op", op, "url", fullURL, "error", lastErr)
	return nil, lastErr
}

func readBody(body io.Reader) ([]byte, error) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if _, err := buf.ReadFrom(io.LimitReader(body, maxResponseBytes)); err != nil {
		return nil, err
	}
	return append([]byte(nil), buf.B...), nil
}

func (e *envelope[T]) providerErrors() string {
	switch v := e.Errors.(type) {
	case nil:
		return ""
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			if s := strings.TrimSpace(fmt.Sprint(item)); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "; ")
	case map[string]any:
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, key := range keys {
			parts = append(parts, key+": "+strings.TrimSpace(fmt.Sprint(v[key])))
		}
		return strings.Join(parts, "; ")
	case string:
		return strings.TrimSpace(v)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func mapFixture(item fixtureItem) usecase.ExternalFixture {
	out := usecase.ExternalFixture{
		ID:         item.Fixture.ID,
		LeagueID:   item.League.ID,
		LeagueName: strings.TrimSpace(item.League.Name),
		Season:     item.League.Season,
		HomeTeam:   strings.TrimSpace(item.Teams.Home.Name),
		AwayTeam:   strings.TrimSpace(item.Teams.Away.Name),
		Status:     strings.TrimSpace(item.Fixture.Status.Short),
	}
	if parsed := parseProviderDateTime(item.Fixture.Date); parsed != nil {
		out.MatchDate = *parsed
	} else if item.Fixture.Timestamp > 0 {
		out.MatchDate = time.Unix(item.Fixture.Timestamp, 0).UTC()
	}
	return out
}

func parseProviderDateTime(raw string) *time.Time {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil
	}

	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05-0700",
		"2006-01-02 15:04:05",
	}
	for _, layout := range layouts {
		parsed, err := time.Parse(layout, value)
		if err == nil {
			v := parsed.UTC()
			return &v
		}
	}
	return nil
}

func sanitizeSensitiveText(value, apiKey string) string {
	value = strings.TrimSpace(value)
	if value == "" || apiKey == "" {
		return value
	}
	return strings.ReplaceAll(value, apiKey, "REDACTED")
}

func isCircuitFailure(err error) bool {
	return stderrors.Is(err, errAPISportsTransient)
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func isRateLimitMessage(msg string) bool {
	msg = strings.ToLower(msg)
	return strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "ratelimit") ||
		strings.Contains(msg, "request limit") ||
		strings.Contains(msg, "too many requests")
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}
