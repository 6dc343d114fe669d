package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// InstanceConfig identifies one upstream JIRA instance.
type InstanceConfig struct {
	ID       string // stable identifier used in field mappings ("instance_1", "instance_2")
	URL      string
	Username string
	Token    string
}

// PerformanceConfig holds the tunables the sync engine re-reads at the start
// of every run, so operators can adjust them without a restart.
type PerformanceConfig struct {
	MaxWorkers         int
	ProjectTimeout     time.Duration
	BatchSize          int
	LookbackDays       int
	RateLimitPause     time.Duration
	RequestTimeout     time.Duration
	MaxRetries         int
	ConnectionPoolSize int
}

// Config is the process-level configuration snapshot.
type Config struct {
	AppEnv       string
	Port         string
	APIKey       string
	SyncSchedule string // cron expression for scheduled syncs; empty disables
	RedisAddr    string // empty disables the shared cache
	RedisPass    string
	RedisDB      int
	Instances    []InstanceConfig
	Performance  PerformanceConfig
}

// Load reads configuration from the environment. A .env file is honored in
// development; missing file is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:       getEnv("APP_ENV", "development"),
		Port:         getEnv("PORT", "8080"),
		APIKey:       os.Getenv("ADMIN_API_KEY"),
		SyncSchedule: getEnv("SYNC_SCHEDULE", "@every 2h"),
		RedisAddr:    os.Getenv("REDIS_ADDR"),
		RedisPass:    os.Getenv("REDIS_PASSWORD"),
		RedisDB:      getEnvInt("REDIS_DB", 0),
		Performance:  LoadPerformance(),
	}

	for _, id := range []string{"instance_1", "instance_2"} {
		prefix := envPrefix(id)
		url := os.Getenv(prefix + "_URL")
		if url == "" {
			continue
		}
		cfg.Instances = append(cfg.Instances, InstanceConfig{
			ID:       id,
			URL:      url,
			Username: os.Getenv(prefix + "_USERNAME"),
			Token:    os.Getenv(prefix + "_TOKEN"),
		})
	}

	if len(cfg.Instances) == 0 {
		return nil, fmt.Errorf("no JIRA instances configured: set JIRA_INSTANCE_1_URL")
	}

	return cfg, nil
}

// LoadPerformance reads only the sync tunables. Called once per sync run so
// edits take effect on the next run, never mid-run.
func LoadPerformance() PerformanceConfig {
	return PerformanceConfig{
		MaxWorkers:         getEnvInt("SYNC_MAX_WORKERS", 8),
		ProjectTimeout:     time.Duration(getEnvInt("SYNC_PROJECT_TIMEOUT_SECONDS", 300)) * time.Second,
		BatchSize:          getEnvInt("SYNC_BATCH_SIZE", 200),
		LookbackDays:       getEnvInt("SYNC_LOOKBACK_DAYS", 60),
		RateLimitPause:     time.Duration(getEnvInt("JIRA_RATE_LIMIT_PAUSE_MS", 500)) * time.Millisecond,
		RequestTimeout:     time.Duration(getEnvInt("JIRA_REQUEST_TIMEOUT_SECONDS", 60)) * time.Second,
		MaxRetries:         getEnvInt("JIRA_MAX_RETRIES", 3),
		ConnectionPoolSize: getEnvInt("JIRA_CONNECTION_POOL_SIZE", 20),
	}
}

// PostgresDSN assembles the connection string from PG_* variables.
func PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		os.Getenv("PG_USER"),
		os.Getenv("PG_PASSWORD"),
		getEnv("PG_HOST", "localhost"),
		getEnv("PG_PORT", "5432"),
		getEnv("PG_DB", "jirapulse"),
	)
}

func envPrefix(instanceID string) string {
	if instanceID == "instance_2" {
		return "JIRA_INSTANCE_2"
	}
	return "JIRA_INSTANCE_1"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
