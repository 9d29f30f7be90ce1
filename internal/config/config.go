package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/riskibarqy/typer-league/internal/platform/logging"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv                  string
	ServiceName             string
	ServiceVersion          string
	HTTPAddr                string
	DBURL                   string
	DBDisablePreparedBinary bool
	CacheEnabled            bool
	CacheTTL                time.Duration
	CORSAllowedOrigins      []string
	ReadTimeout             time.Duration
	WriteTimeout            time.Duration
	PprofEnabled            bool
	PprofAddr               string
	MetricsEnabled          bool
	UptraceEnabled          bool
	UptraceDSN              string
	UptraceLogsEnabled      bool
	PyroscopeEnabled        bool
	PyroscopeServerAddress  string
	PyroscopeAppName        string
	PyroscopeAuthToken      string
	PyroscopeBasicAuthUser  string
	PyroscopeBasicAuthPass  string
	PyroscopeUploadRate     time.Duration
	InternalJobToken        string
	SeedMatches             bool

	RoundSize                    int
	HallOfFameThreshold          int
	ExactScorePoints             int
	OutcomePoints                int
	LeaderboardParallelThreshold int
	LeaderboardWorkers           int

	FeedEnabled               bool
	FeedBaseURL               string
	FeedAuthToken             string
	FeedTimeout               time.Duration
	FeedMaxRetries            int
	FeedRetryBackoff          time.Duration
	FeedSyncInterval          time.Duration
	FeedCircuitEnabled        bool
	FeedCircuitFailureCount   int
	FeedCircuitOpenTimeout    time.Duration
	FeedCircuitHalfOpenMaxReq int

	LogLevel logging.Level
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

// Load reads the optional YAML file named by CONFIG_FILE and overlays the
// process environment on top of it. YAML keys are the lower-cased variable
// names, e.g. http_addr or round_size.
func Load() (Config, error) {
	src, err := newSource(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return Config{}, err
	}

	appEnv, err := parseAppEnv(src.getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv:             appEnv,
		ServiceName:        strings.TrimSpace(src.getEnv("SERVICE_NAME", "typer-league-api")),
		ServiceVersion:     strings.TrimSpace(src.getEnv("SERVICE_VERSION", "dev")),
		HTTPAddr:           strings.TrimSpace(src.getEnv("HTTP_ADDR", ":8080")),
		DBURL:              strings.TrimSpace(src.getEnv("DB_URL", "")),
		CORSAllowedOrigins: splitCSV(src.getEnv("CORS_ALLOWED_ORIGINS", "*")),
		PprofAddr:          strings.TrimSpace(src.getEnv("PPROF_ADDR", ":6060")),
		InternalJobToken:   strings.TrimSpace(src.getEnv("INTERNAL_JOB_TOKEN", "")),
		FeedBaseURL:        strings.TrimSpace(src.getEnv("FEED_BASE_URL", "")),
		FeedAuthToken:      strings.TrimSpace(src.getEnv("FEED_AUTH_TOKEN", "")),
		LogLevel:           logging.ParseLevel(src.getEnv("APP_LOG_LEVEL", "info")),
	}
	if cfg.HTTPAddr == "" {
		return Config{}, fmt.Errorf("HTTP_ADDR must not be empty")
	}

	bools := []struct {
		key      string
		fallback bool
		dst      *bool
	}{
		{"DB_DISABLE_PREPARED_BINARY_RESULT", false, &cfg.DBDisablePreparedBinary},
		{"CACHE_ENABLED", true, &cfg.CacheEnabled},
		{"PPROF_ENABLED", false, &cfg.PprofEnabled},
		{"METRICS_ENABLED", true, &cfg.MetricsEnabled},
		{"UPTRACE_ENABLED", false, &cfg.UptraceEnabled},
		{"UPTRACE_LOGS_ENABLED", true, &cfg.UptraceLogsEnabled},
		{"PYROSCOPE_ENABLED", false, &cfg.PyroscopeEnabled},
		{"SEED_MATCHES", false, &cfg.SeedMatches},
		{"FEED_ENABLED", false, &cfg.FeedEnabled},
		{"FEED_CIRCUIT_ENABLED", true, &cfg.FeedCircuitEnabled},
	}
	for _, item := range bools {
		value, err := src.getEnvAsBool(item.key, item.fallback)
		if err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", item.key, err)
		}
		*item.dst = value
	}

	durations := []struct {
		key      string
		fallback string
		positive bool
		dst      *time.Duration
	}{
		{"CACHE_TTL", "30s", true, &cfg.CacheTTL},
		{"READ_TIMEOUT", "10s", true, &cfg.ReadTimeout},
		{"WRITE_TIMEOUT", "15s", true, &cfg.WriteTimeout},
		{"PYROSCOPE_UPLOAD_RATE", "15s", true, &cfg.PyroscopeUploadRate},
		{"FEED_TIMEOUT", "10s", true, &cfg.FeedTimeout},
		{"FEED_RETRY_BACKOFF", "250ms", false, &cfg.FeedRetryBackoff},
		{"FEED_SYNC_INTERVAL", "0s", false, &cfg.FeedSyncInterval},
		{"FEED_CIRCUIT_OPEN_TIMEOUT", "30s", true, &cfg.FeedCircuitOpenTimeout},
	}
	for _, item := range durations {
		value, err := src.getEnvAsDuration(item.key, item.fallback)
		if err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", item.key, err)
		}
		if item.positive && value <= 0 {
			return Config{}, fmt.Errorf("%s must be > 0", item.key)
		}
		if value < 0 {
			return Config{}, fmt.Errorf("%s must be >= 0", item.key)
		}
		*item.dst = value
	}

	ints := []struct {
		key      string
		fallback int
		min      int
		dst      *int
	}{
		{"ROUND_SIZE", 9, 1, &cfg.RoundSize},
		{"HALL_OF_FAME_THRESHOLD", 20, 0, &cfg.HallOfFameThreshold},
		{"POINTS_EXACT_SCORE", 3, 0, &cfg.ExactScorePoints},
		{"POINTS_OUTCOME", 1, 0, &cfg.OutcomePoints},
		{"LEADERBOARD_PARALLEL_THRESHOLD", 500, 0, &cfg.LeaderboardParallelThreshold},
		{"LEADERBOARD_WORKERS", runtime.NumCPU(), 1, &cfg.LeaderboardWorkers},
		{"FEED_MAX_RETRIES", 2, 0, &cfg.FeedMaxRetries},
		{"FEED_CIRCUIT_FAILURE_COUNT", 5, 1, &cfg.FeedCircuitFailureCount},
		{"FEED_CIRCUIT_HALF_OPEN_MAX_REQ", 1, 1, &cfg.FeedCircuitHalfOpenMaxReq},
	}
	for _, item := range ints {
		value, err := src.getEnvAsInt(item.key, item.fallback)
		if err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", item.key, err)
		}
		if value < item.min {
			return Config{}, fmt.Errorf("%s must be >= %d", item.key, item.min)
		}
		*item.dst = value
	}

	cfg.UptraceDSN = strings.TrimSpace(src.getEnv("UPTRACE_DSN", ""))
	if cfg.UptraceDSN == "" {
		cfg.UptraceDSN = parseUptraceDSNFromOTLPHeaders(src.getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if cfg.UptraceEnabled && cfg.UptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	cfg.PyroscopeServerAddress = strings.TrimSpace(src.getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if cfg.PyroscopeEnabled && cfg.PyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	cfg.PyroscopeAppName = strings.TrimSpace(src.getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	cfg.PyroscopeAuthToken = strings.TrimSpace(src.getEnv("PYROSCOPE_AUTH_TOKEN", ""))
	cfg.PyroscopeBasicAuthUser = strings.TrimSpace(src.getEnv("PYROSCOPE_BASIC_AUTH_USER", ""))
	cfg.PyroscopeBasicAuthPass = strings.TrimSpace(src.getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", ""))

	if cfg.PprofEnabled && cfg.PprofAddr == "" {
		return Config{}, fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}
	if cfg.FeedEnabled && cfg.FeedBaseURL == "" {
		return Config{}, fmt.Errorf("FEED_BASE_URL is required when FEED_ENABLED=true")
	}
	if cfg.FeedSyncInterval > 0 && !cfg.FeedEnabled {
		return Config{}, fmt.Errorf("FEED_SYNC_INTERVAL requires FEED_ENABLED=true")
	}
	if cfg.AppEnv == EnvProd && cfg.InternalJobToken == "" {
		return Config{}, fmt.Errorf("INTERNAL_JOB_TOKEN is required when APP_ENV=%s", EnvProd)
	}

	return cfg, nil
}

type source struct {
	k *koanf.Koanf
}

func newSource(path string) (*source, error) {
	k := koanf.New(".")

	if path = strings.TrimSpace(path); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load CONFIG_FILE %s: %w", path, err)
		}
	}

	// Blank variables are skipped so they do not mask file values.
	envProvider := env.ProviderWithValue("", ".", func(key, value string) (string, interface{}) {
		if strings.TrimSpace(value) == "" {
			return "", nil
		}
		return strings.ToLower(key), value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	return &source{k: k}, nil
}

func (s *source) getEnv(key, fallback string) string {
	value := s.k.String(strings.ToLower(key))
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func (s *source) getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(s.getEnv(key, ""))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func (s *source) getEnvAsBool(key string, fallback bool) (bool, error) {
	value := strings.TrimSpace(s.getEnv(key, ""))
	if value == "" {
		return fallback, nil
	}

	return strconv.ParseBool(value)
}

func (s *source) getEnvAsDuration(key, fallback string) (time.Duration, error) {
	return time.ParseDuration(strings.TrimSpace(s.getEnv(key, fallback)))
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

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
