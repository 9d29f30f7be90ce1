package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/riskibarqy/typer-league/internal/platform/logging"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("CONFIG_FILE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.RoundSize != 9 {
		t.Fatalf("unexpected RoundSize: %d", cfg.RoundSize)
	}
	if cfg.HallOfFameThreshold != 20 {
		t.Fatalf("unexpected HallOfFameThreshold: %d", cfg.HallOfFameThreshold)
	}
	if cfg.ExactScorePoints != 3 || cfg.OutcomePoints != 1 {
		t.Fatalf("unexpected points: exact=%d outcome=%d", cfg.ExactScorePoints, cfg.OutcomePoints)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("unexpected HTTPAddr: %q", cfg.HTTPAddr)
	}
	if !cfg.CacheEnabled || cfg.CacheTTL != 30*time.Second {
		t.Fatalf("unexpected cache config: enabled=%v ttl=%s", cfg.CacheEnabled, cfg.CacheTTL)
	}
	if cfg.FeedEnabled || cfg.FeedSyncInterval != 0 {
		t.Fatalf("expected feed disabled by default")
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
		t.Fatalf("unexpected CORSAllowedOrigins: %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoad_AppEnvValidation(t *testing.T) {
	t.Setenv("APP_ENV", "invalid")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid APP_ENV")
	}
}

func TestLoad_UptraceRequiresDSNWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when UPTRACE_ENABLED=true without UPTRACE_DSN")
	}
}

func TestLoad_UptraceDSNFromOTLPHeaders(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "foo=bar, uptrace-dsn='https://token@api.uptrace.dev/1'")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.UptraceDSN != "https://token@api.uptrace.dev/1" {
		t.Fatalf("unexpected UptraceDSN: %q", cfg.UptraceDSN)
	}
}

func TestLoad_ScoringRulesValidation(t *testing.T) {
	cases := map[string]string{
		"ROUND_SIZE":             "0",
		"HALL_OF_FAME_THRESHOLD": "-1",
		"POINTS_EXACT_SCORE":     "abc",
		"LEADERBOARD_WORKERS":    "0",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv("APP_ENV", EnvDev)
			t.Setenv(key, value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%s", key, value)
			}
		})
	}
}

func TestLoad_FeedRequiresBaseURLWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("FEED_ENABLED", "true")
	t.Setenv("FEED_BASE_URL", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when FEED_ENABLED=true without FEED_BASE_URL")
	}
}

func TestLoad_FeedSyncIntervalRequiresFeed(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("FEED_ENABLED", "false")
	t.Setenv("FEED_SYNC_INTERVAL", "1m")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when FEED_SYNC_INTERVAL is set without FEED_ENABLED")
	}
}

func TestLoad_ProdRequiresInternalJobToken(t *testing.T) {
	t.Setenv("APP_ENV", EnvProd)
	t.Setenv("INTERNAL_JOB_TOKEN", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when APP_ENV=prod without INTERNAL_JOB_TOKEN")
	}
}

func TestLoad_FileValuesUnderEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
round_size: 6
hall_of_fame_threshold: 12
cache_enabled: false
feed_enabled: true
feed_base_url: https://pool.example.firebaseio.com
feed_sync_interval: 2m
app_log_level: debug
http_addr: ":9000"
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("APP_ENV", EnvStage)
	t.Setenv("HTTP_ADDR", ":7000")
	t.Setenv("ROUND_SIZE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.RoundSize != 6 {
		t.Fatalf("unexpected RoundSize: %d", cfg.RoundSize)
	}
	if cfg.HallOfFameThreshold != 12 {
		t.Fatalf("unexpected HallOfFameThreshold: %d", cfg.HallOfFameThreshold)
	}
	if cfg.CacheEnabled {
		t.Fatalf("expected CacheEnabled=false from file")
	}
	if !cfg.FeedEnabled || cfg.FeedBaseURL != "https://pool.example.firebaseio.com" {
		t.Fatalf("unexpected feed config: enabled=%v url=%q", cfg.FeedEnabled, cfg.FeedBaseURL)
	}
	if cfg.FeedSyncInterval != 2*time.Minute {
		t.Fatalf("unexpected FeedSyncInterval: %s", cfg.FeedSyncInterval)
	}
	if cfg.LogLevel != logging.LevelDebug {
		t.Fatalf("unexpected LogLevel: %s", cfg.LogLevel)
	}
	if cfg.HTTPAddr != ":7000" {
		t.Fatalf("expected environment to override file, got %q", cfg.HTTPAddr)
	}
	if cfg.AppEnv != EnvStage {
		t.Fatalf("unexpected AppEnv: %q", cfg.AppEnv)
	}
}

func TestLoad_MissingConfigFile(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for missing CONFIG_FILE")
	}
}

func TestSplitCSV(t *testing.T) {
	got := splitCSV(" https://a.example , ,https://b.example,")
	if len(got) != 2 || got[0] != "https://a.example" || got[1] != "https://b.example" {
		t.Fatalf("unexpected split result: %v", got)
	}
}
