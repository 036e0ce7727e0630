// Package config provides runtime configuration values for the bot.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Update intake modes.
const (
	ModePolling = "polling"
	ModeWebhook = "webhook"
)

// Config holds configuration knobs for the HTTP surface, the Bot API
// transport, the catalog and the dispatch workers.
type Config struct {
	Port            string
	BotToken        string
	TelegramAPIURL  string
	UpdateMode      string
	WebhookURL      string
	WebhookSecret   string
	CatalogPath     string
	CatalogWatch    bool
	WorkerShards    int
	RateLimitPerSec int
	RateLimitBurst  int
	PollTimeout     time.Duration
	HTTPTimeout     time.Duration
	BreakerFailures int
	BreakerOpen     time.Duration
	ShutdownTimeout time.Duration
	LogLevel        string
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoienv(key string, def int) int {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func boolenv(key string, def bool) bool {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func durenvms(key string, defMs int) time.Duration {
	return time.Duration(atoienv(key, defMs)) * time.Millisecond
}

func durenvs(key string, defSec int) time.Duration {
	return time.Duration(atoienv(key, defSec)) * time.Second
}

// Load collects configuration from environment with defaults.
func Load() Config {
	mode := strings.ToLower(getenv("UPDATE_MODE", ModePolling))
	if mode != ModeWebhook {
		mode = ModePolling
	}
	shards := atoienv("WORKER_SHARDS", 8)
	if shards < 1 {
		shards = 1
	}
	return Config{
		Port:            getenv("PORT", "8050"),
		BotToken:        getenv("BOT_TOKEN", ""),
		TelegramAPIURL:  strings.TrimRight(getenv("TELEGRAM_API_URL", "https://api.telegram.org"), "/"),
		UpdateMode:      mode,
		WebhookURL:      getenv("WEBHOOK_URL", ""),
		WebhookSecret:   getenv("WEBHOOK_SECRET", ""),
		CatalogPath:     getenv("CATALOG_PATH", "tech_data.json"),
		CatalogWatch:    boolenv("CATALOG_WATCH", true),
		WorkerShards:    shards,
		RateLimitPerSec: atoienv("RATE_LIMIT_PER_SEC", 5),
		RateLimitBurst:  atoienv("RATE_LIMIT_BURST", 10),
		PollTimeout:     durenvs("POLL_TIMEOUT_SEC", 30),
		HTTPTimeout:     durenvms("HTTP_TIMEOUT_MS", 35000),
		BreakerFailures: atoienv("BREAKER_FAILURES", 5),
		BreakerOpen:     durenvs("BREAKER_OPEN_SEC", 30),
		ShutdownTimeout: durenvs("SHUTDOWN_TIMEOUT", 15),
		LogLevel:        strings.ToLower(getenv("LOG_LEVEL", "info")),
	}
}
