package config

import (
	"os"
	"strings"
	"time"

	"github.com/yoockh/hotelbridge/internal/providers/agent"
)

// Slide store backends.
const (
	SlideStoreMemory = "memory"
	SlideStoreRedis  = "redis"
)

// App holds the process settings read from the environment.
type App struct {
	Port          string
	WebhookSecret string
	LogDir        string
	SeedDir       string
	SlideStore    string
	RedisPrefix   string
	Agent         agent.Config
}

func Load() App {
	return App{
		Port:          envOr("PORT", "8080"),
		WebhookSecret: strings.TrimSpace(os.Getenv("WEBHOOK_SECRET")),
		LogDir:        strings.TrimSpace(os.Getenv("LOG_DIR")),
		SeedDir:       strings.TrimSpace(os.Getenv("SEED_DIR")),
		SlideStore:    slideStore(os.Getenv("SLIDE_STORE")),
		RedisPrefix:   envOr("REDIS_PREFIX", "hotelbridge:"),
		Agent:         LoadAgent(),
	}
}

// LoadAgent reads the downstream agent settings. A missing URL is not an
// error; the bridge answers with an apology instead.
func LoadAgent() agent.Config {
	return agent.Config{
		EndpointURL:   strings.TrimSpace(os.Getenv("AI_AGENT_API_URL")),
		APIKey:        strings.TrimSpace(os.Getenv("AI_AGENT_API_KEY")),
		Timeout:       durationOr("AI_AGENT_TIMEOUT", 25*time.Second),
		AddressFamily: agent.NormalizeFamily(os.Getenv("AI_AGENT_ADDRESS_FAMILY")),
	}
}

func slideStore(v string) string {
	if strings.EqualFold(strings.TrimSpace(v), SlideStoreRedis) {
		return SlideStoreRedis
	}
	return SlideStoreMemory
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// durationOr accepts Go durations ("30s") or a bare number of seconds.
func durationOr(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if d, err := time.ParseDuration(v + "s"); err == nil && d > 0 {
		return d
	}
	return def
}
