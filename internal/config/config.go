package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"github.com/riskibarqy/matchstats/internal/platform/logging"
	"github.com/riskibarqy/matchstats/internal/platform/resilience"
)

// ErrConfiguration marks every configuration failure. Callers treat it as fatal at startup.
var ErrConfiguration = crerr.New("invalid configuration")

// DefaultLeagues are the API-Sports league ids collected when COLLECT_LEAGUES is unset.
var DefaultLeagues = []int64{39, 140, 78, 135, 61, 88, 94, 2, 3, 344}

// Config stores runtime configuration for the collector and the query API.
type Config struct {
	AppEnv         string
	ServiceName    string
	ServiceVersion string
	LogLevel       logging.Level

	DBURL         string
	DBAutoMigrate bool

	HTTPAddr           string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	CORSAllowedOrigins []string
	CacheEnabled       bool
	CacheTTL           time.Duration

	APISportsBaseURL    string
	APISportsKey        string
	APISportsTimeout    time.Duration
	APISportsMaxRetries int
	APISportsCircuit    resilience.CircuitBreakerConfig

	CollectLeagues    []int64
	CollectSeason     int
	CollectInterval   time.Duration
	CollectCron       string
	CollectRunOnStart bool
	CollectRunTimeout time.Duration
	CollectMaxWorkers int

	UptraceEnabled bool
	UptraceDSN     string

	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration

	PprofEnabled   bool
	PprofAddr      string
	MetricsEnabled bool
	MetricsAddr    string
}

// Load reads an optional .env file and then the process environment. Real environment values win.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg, err := load()
	if err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	return cfg, nil
}

// ValidateCollector checks what the collector needs beyond Load.
func (c Config) ValidateCollector() error {
	if c.APISportsKey == "" {
		return fmt.Errorf("%w: APISPORTS_KEY is required", ErrConfiguration)
	}
	return c.ValidateDatabase()
}

func (c Config) ValidateDatabase() error {
	if c.DBURL == "" {
		return fmt.Errorf("%w: DATABASE_URL is required", ErrConfiguration)
	}
	return nil
}

func load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	dbAutoMigrate, err := getEnvAsBool("DB_AUTO_MIGRATE", true)
	if err != nil {
		return Config{}, fmt.Errorf("parse DB_AUTO_MIGRATE: %w", err)
	}
	dbURL, err := NormalizeDatabaseURL(getEnv("DATABASE_URL", getEnv("DB_URL", "")))
	if err != nil {
		return Config{}, fmt.Errorf("parse DATABASE_URL: %w", err)
	}

	readTimeout, err := getEnvAsPositiveDuration("APP_READ_TIMEOUT", 10*time.Second)
	if err != nil {
		return Config{}, err
	}
	writeTimeout, err := getEnvAsPositiveDuration("APP_WRITE_TIMEOUT", 15*time.Second)
	if err != nil {
		return Config{}, err
	}
	cacheEnabled, err := getEnvAsBool("CACHE_ENABLED", true)
	if err != nil {
		return Config{}, fmt.Errorf("parse CACHE_ENABLED: %w", err)
	}
	cacheTTL, err := getEnvAsPositiveDuration("CACHE_TTL", 60*time.Second)
	if err != nil {
		return Config{}, err
	}
	corsAllowedOrigins := splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*"))
	if len(corsAllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}

	apiSportsBaseURL := strings.TrimRight(strings.TrimSpace(getEnv("APISPORTS_BASE_URL", "https://v3.football.api-sports.io")), "/")
	if _, err := url.ParseRequestURI(apiSportsBaseURL); err != nil {
		return Config{}, fmt.Errorf("parse APISPORTS_BASE_URL: %w", err)
	}
	apiSportsTimeout, err := getEnvAsPositiveDuration("APISPORTS_TIMEOUT", 20*time.Second)
	if err != nil {
		return Config{}, err
	}
	apiSportsMaxRetries, err := getEnvAsInt("APISPORTS_MAX_RETRIES", 0)
	if err != nil {
		return Config{}, fmt.Errorf("parse APISPORTS_MAX_RETRIES: %w", err)
	}
	if apiSportsMaxRetries < 0 {
		return Config{}, fmt.Errorf("APISPORTS_MAX_RETRIES must be >= 0")
	}
	apiSportsCircuit, err := loadCircuitBreaker("APISPORTS_CIRCUIT")
	if err != nil {
		return Config{}, err
	}

	collectLeagues := DefaultLeagues
	if raw := strings.TrimSpace(os.Getenv("COLLECT_LEAGUES")); raw != "" {
		collectLeagues, err = parseIDList(raw)
		if err != nil {
			return Config{}, fmt.Errorf("parse COLLECT_LEAGUES: %w", err)
		}
	}
	collectSeason, err := getEnvAsInt("COLLECT_SEASON", 2025)
	if err != nil {
		return Config{}, fmt.Errorf("parse COLLECT_SEASON: %w", err)
	}
	if collectSeason < 1900 || collectSeason > 2100 {
		return Config{}, fmt.Errorf("COLLECT_SEASON must be a four digit year, got %d", collectSeason)
	}
	collectInterval, err := getEnvAsPositiveDuration("COLLECT_INTERVAL", time.Hour)
	if err != nil {
		return Config{}, err
	}
	collectRunOnStart, err := getEnvAsBool("COLLECT_RUN_ON_START", false)
	if err != nil {
		return Config{}, fmt.Errorf("parse COLLECT_RUN_ON_START: %w", err)
	}
	collectRunTimeout, err := getEnvAsPositiveDuration("COLLECT_RUN_TIMEOUT", 50*time.Minute)
	if err != nil {
		return Config{}, err
	}
	collectMaxWorkers, err := getEnvAsInt("COLLECT_MAX_WORKERS", 1)
	if err != nil {
		return Config{}, fmt.Errorf("parse COLLECT_MAX_WORKERS: %w", err)
	}
	if collectMaxWorkers < 1 {
		return Config{}, fmt.Errorf("COLLECT_MAX_WORKERS must be >= 1")
	}

	uptraceEnabled, err := getEnvAsBool("UPTRACE_ENABLED", false)
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceDSN == "" {
		uptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	pprofEnabled, err := getEnvAsBool("PPROF_ENABLED", false)
	if err != nil {
		return Config{}, fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}
	pprofAddr := strings.TrimSpace(getEnv("PPROF_ADDR", ":6060"))
	if pprofEnabled && pprofAddr == "" {
		return Config{}, fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}
	metricsEnabled, err := getEnvAsBool("METRICS_ENABLED", false)
	if err != nil {
		return Config{}, fmt.Errorf("parse METRICS_ENABLED: %w", err)
	}
	metricsAddr := strings.TrimSpace(getEnv("METRICS_ADDR", ":9090"))
	if metricsEnabled && metricsAddr == "" {
		return Config{}, fmt.Errorf("METRICS_ADDR is required when METRICS_ENABLED=true")
	}

	pyroscopeEnabled, err := getEnvAsBool("PYROSCOPE_ENABLED", false)
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	pyroscopeServerAddress := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	pyroscopeUploadRate, err := getEnvAsPositiveDuration("PYROSCOPE_UPLOAD_RATE", 15*time.Second)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv:                     appEnv,
		ServiceName:                getEnv("APP_SERVICE_NAME", "matchstats"),
		ServiceVersion:             getEnv("APP_SERVICE_VERSION", "dev"),
		LogLevel:                   logging.ParseLevel(getEnv("APP_LOG_LEVEL", "info")),
		DBURL:                      dbURL,
		DBAutoMigrate:              dbAutoMigrate,
		HTTPAddr:                   getEnv("APP_HTTP_ADDR", ":8080"),
		ReadTimeout:                readTimeout,
		WriteTimeout:               writeTimeout,
		CORSAllowedOrigins:         corsAllowedOrigins,
		CacheEnabled:               cacheEnabled,
		CacheTTL:                   cacheTTL,
		APISportsBaseURL:           apiSportsBaseURL,
		APISportsKey:               strings.TrimSpace(getEnv("APISPORTS_KEY", "")),
		APISportsTimeout:           apiSportsTimeout,
		APISportsMaxRetries:        apiSportsMaxRetries,
		APISportsCircuit:           apiSportsCircuit,
		CollectLeagues:             collectLeagues,
		CollectSeason:              collectSeason,
		CollectInterval:            collectInterval,
		CollectCron:                strings.TrimSpace(getEnv("COLLECT_CRON", "")),
		CollectRunOnStart:          collectRunOnStart,
		CollectRunTimeout:          collectRunTimeout,
		CollectMaxWorkers:          collectMaxWorkers,
		UptraceEnabled:             uptraceEnabled,
		UptraceDSN:                 uptraceDSN,
		PyroscopeEnabled:           pyroscopeEnabled,
		PyroscopeServerAddress:     pyroscopeServerAddress,
		PyroscopeAuthToken:         strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeBasicAuthUser:     strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", "")),
		PyroscopeBasicAuthPassword: strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")),
		PyroscopeUploadRate:        pyroscopeUploadRate,
		PprofEnabled:               pprofEnabled,
		PprofAddr:                  pprofAddr,
		MetricsEnabled:             metricsEnabled,
		MetricsAddr:                metricsAddr,
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	if cfg.PyroscopeEnabled && cfg.PyroscopeAppName == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_APP_NAME cannot be empty when PYROSCOPE_ENABLED=true")
	}

	return cfg, nil
}

func loadCircuitBreaker(prefix string) (resilience.CircuitBreakerConfig, error) {
	defaults := resilience.DefaultCircuitBreakerConfig()

	enabled, err := getEnvAsBool(prefix+"_ENABLED", defaults.Enabled)
	if err != nil {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("parse %s_ENABLED: %w", prefix, err)
	}
	failureCount, err := getEnvAsInt(prefix+"_FAILURE_COUNT", defaults.FailureThreshold)
	if err != nil {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("parse %s_FAILURE_COUNT: %w", prefix, err)
	}
	if failureCount < 1 {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("%s_FAILURE_COUNT must be >= 1", prefix)
	}
	openTimeout, err := getEnvAsPositiveDuration(prefix+"_OPEN_TIMEOUT", defaults.OpenTimeout)
	if err != nil {
		return resilience.CircuitBreakerConfig{}, err
	}
	halfOpenMaxReq, err := getEnvAsInt(prefix+"_HALF_OPEN_MAX_REQ", defaults.HalfOpenMaxReq)
	if err != nil {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("parse %s_HALF_OPEN_MAX_REQ: %w", prefix, err)
	}
	if halfOpenMaxReq < 1 {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("%s_HALF_OPEN_MAX_REQ must be >= 1", prefix)
	}

	return resilience.CircuitBreakerConfig{
		Enabled:          enabled,
		FailureThreshold: failureCount,
		OpenTimeout:      openTimeout,
		HalfOpenMaxReq:   halfOpenMaxReq,
	}, nil
}

// NormalizeDatabaseURL accepts SQLAlchemy style schemes such as postgresql+psycopg2://.
func NormalizeDatabaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}

	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok {
		// key=value DSN
		return raw, nil
	}
	if base, _, found := strings.Cut(scheme, "+"); found {
		scheme = base
	}
	switch strings.ToLower(scheme) {
	case "postgres", "postgresql":
	default:
		return "", fmt.Errorf("unsupported database scheme %q", scheme)
	}
	return strings.ToLower(scheme) + "://" + rest, nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func getEnvAsBool(key string, fallback bool) (bool, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}
	return strconv.ParseBool(value)
}

func getEnvAsPositiveDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if out <= 0 {
		return 0, fmt.Errorf("%s must be > 0", key)
	}
	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}

func parseIDList(raw string) ([]int64, error) {
	out := make([]int64, 0)
	seen := make(map[int64]struct{})
	for _, item := range splitCSV(raw) {
		value, err := strconv.ParseInt(item, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid league id %q: %w", item, err)
		}
		if value <= 0 {
			return nil, fmt.Errorf("league id must be > 0, got %d", value)
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("at least one league id is required")
	}
	return out, nil
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	items := strings.Split(raw, ",")
	for _, item := range items {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			value := strings.TrimSpace(parts[1])
			return strings.Trim(value, "\"'")
		}
	}

	return ""
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
