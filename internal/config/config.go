package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	FixtureSourceEmbedded = "embedded"
	FixtureSourceS3       = "s3"
)

// Config captures the runtime configuration for the CourseMates backend service.
type Config struct {
	AppPort           int
	LogLevel          string
	DatabaseURL       string
	MigrationDir      string
	DirectoryCacheTTL time.Duration
	FixtureSource     string
	FixtureKey        string
	ObjectStore       ObjectStoreConfig
	RateLimit         RateLimitConfig
	AllowReset        bool
	CORSOrigins       []string
}

// ObjectStoreConfig points at the S3-compatible bucket holding fixture bundles.
type ObjectStoreConfig struct {
	Bucket        string
	Region        string
	Endpoint      string
	PublicBaseURL string
}

// RateLimitConfig bounds how often a single client may mutate friendships.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	Burst    int
}

// Load reads configuration from the environment, after loading an optional
// .env file from the working directory. Variables already set in the
// environment win over the file.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Config{
		AppPort:           getInt("COURSEMATES_PORT", 8080),
		LogLevel:          getString("COURSEMATES_LOG_LEVEL", "info"),
		DatabaseURL:       getString("COURSEMATES_DATABASE_URL", ""),
		MigrationDir:      getString("COURSEMATES_MIGRATIONS", "migrations"),
		DirectoryCacheTTL: getDuration("COURSEMATES_DIRECTORY_CACHE_TTL", time.Minute),
		FixtureSource:     strings.ToLower(getString("COURSEMATES_FIXTURE_SOURCE", FixtureSourceEmbedded)),
		FixtureKey:        getString("COURSEMATES_FIXTURE_KEY", "fixtures/bundle.json"),
		ObjectStore: ObjectStoreConfig{
			Bucket:        getString("COURSEMATES_S3_BUCKET", ""),
			Region:        getString("COURSEMATES_S3_REGION", "us-east-1"),
			Endpoint:      getString("COURSEMATES_S3_ENDPOINT", ""),
			PublicBaseURL: getString("COURSEMATES_S3_PUBLIC_BASE_URL", ""),
		},
		RateLimit: RateLimitConfig{
			Requests: getInt("COURSEMATES_RATE_LIMIT_REQUESTS", 30),
			Window:   getDuration("COURSEMATES_RATE_LIMIT_WINDOW", time.Minute),
			Burst:    getInt("COURSEMATES_RATE_LIMIT_BURST", 10),
		},
		AllowReset:  getBool("COURSEMATES_ALLOW_RESET", false),
		CORSOrigins: getList("COURSEMATES_CORS_ORIGINS", []string{"*"}),
	}

	switch cfg.FixtureSource {
	case FixtureSourceEmbedded:
	case FixtureSourceS3:
		if cfg.ObjectStore.Bucket == "" {
			return Config{}, fmt.Errorf("COURSEMATES_S3_BUCKET is required when COURSEMATES_FIXTURE_SOURCE=%s", FixtureSourceS3)
		}
	default:
		return Config{}, fmt.Errorf("unknown fixture source %q", cfg.FixtureSource)
	}

	return cfg, nil
}

// SlogLevel maps LogLevel onto a slog level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getString(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return i
}

func getBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return b
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

func getList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
