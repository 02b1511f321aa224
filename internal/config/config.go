package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	DatabaseURL string
	Port        string
	Environment string

	// Companion (Sight) upstream
	CompanionBaseURL string

	// Alerting / analytics
	DiscordWebhookURL string
	GAPropertyID      string

	Updater UpdaterConfig
}

// UpdaterConfig holds the auto-update tunables. Defaults mirror the cron
// setup: one run per minute, ending before the next minute mark.
type UpdaterConfig struct {
	MaxItemsPerRun     int           // due-page size, also the queue offset unit
	MaxItemsPerRequest int           // chunk size, bounds per-request concurrency
	ItemUpdateDelay    time.Duration // an item never updates faster than this
	RunTimeout         time.Duration // wall-clock budget per run
	AsyncDelay         time.Duration // wait between the two settle passes
	ErrorThreshold     int           // breaker trip point, pre-run and mid-run
	ExceptionLookback  time.Duration // pre-run breaker counting window
	AlertCooldown      time.Duration // per-message alert dedup window
}

func Load() *Config {
	defaultDSN := "root:companion@tcp(127.0.0.1:3306)/cafemaker?charset=utf8mb4&parseTime=True&loc=Local"

	return &Config{
		DatabaseURL: getEnv("DATABASE_URL", defaultDSN),
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),

		CompanionBaseURL: getEnv("COMPANION_BASE_URL", "https://companion.finalfantasyxiv.com/sight"),

		DiscordWebhookURL: getEnv("DISCORD_WEBHOOK_URL", ""),
		GAPropertyID:      getEnv("GA_PROPERTY_ID", ""),

		Updater: UpdaterConfig{
			MaxItemsPerRun:     getEnvInt("UPDATER_MAX_ITEMS_PER_RUN", 100),
			MaxItemsPerRequest: getEnvInt("UPDATER_MAX_ITEMS_PER_REQUEST", 10),
			ItemUpdateDelay:    getEnvDuration("UPDATER_ITEM_UPDATE_DELAY", 180*time.Second),
			RunTimeout:         getEnvDuration("UPDATER_RUN_TIMEOUT", 55*time.Second),
			AsyncDelay:         getEnvDuration("UPDATER_ASYNC_DELAY", 1500*time.Millisecond),
			ErrorThreshold:     getEnvInt("UPDATER_ERROR_THRESHOLD", 20),
			ExceptionLookback:  getEnvDuration("UPDATER_EXCEPTION_LOOKBACK", time.Hour),
			AlertCooldown:      getEnvDuration("UPDATER_ALERT_COOLDOWN", 60*time.Second),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
