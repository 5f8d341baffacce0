package domain

import (
	"strconv"
	"strings"
	"time"
)

// Config holds the complete lendscore service configuration.
// Scoring constants are not part of it; they are fixed in scoring.Policy.
type Config struct {
	Server ServerConfig `json:"server"`

	// Tier determines which infrastructure backends are used
	Tier Tier `json:"tier"`

	Cache    CacheConfig    `json:"cache"`
	EventBus EventBusConfig `json:"eventBus"`
	Worker   WorkerConfig   `json:"worker"`

	// How long computed assessments stay retrievable via GET /assessments/{id}
	AssessmentTTL time.Duration `json:"assessmentTTL"`

	Logging   LoggingConfig   `json:"logging"`
	Tracing   TracingConfig   `json:"tracing"`
	RateLimit RateLimitConfig `json:"rateLimit"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string `json:"host"`
	Port         int    `json:"port"`
	ReadTimeout  int    `json:"readTimeout"`  // seconds
	WriteTimeout int    `json:"writeTimeout"` // seconds
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // json, text
}

// TracingConfig holds OpenTelemetry settings.
type TracingConfig struct {
	Enabled     bool   `json:"enabled"`
	ServiceName string `json:"serviceName"`
	Endpoint    string `json:"endpoint"` // OTLP/HTTP host:port
	Insecure    bool   `json:"insecure"`
}

// RateLimitConfig holds per-client request limits for the API.
// A zero RequestsPerSecond disables limiting.
type RateLimitConfig struct {
	RequestsPerSecond float64 `json:"requestsPerSecond"`
	Burst             int     `json:"burst"`
}

// WorkerConfig controls the asynchronous scoring worker.
type WorkerConfig struct {
	Enabled bool `json:"enabled"`

	// Tenants to subscribe for; empty means the global subscription
	TenantIDs []string `json:"tenantIds"`
}

// Tier represents the deployment tier.
type Tier string

const (
	// TierCommunity runs on in-process cache and channels only
	TierCommunity Tier = "community"

	// TierPro uses Redis and NATS
	TierPro Tier = "pro"
)

// DefaultConfig returns a configuration for the Community tier.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30,
			WriteTimeout: 30,
		},
		Tier: TierCommunity,
		Cache: CacheConfig{
			Type:         "memory",
			LocalMaxSize: 10000,
			LocalTTL:     5 * time.Minute,
		},
		EventBus: EventBusConfig{
			Type:              "channel",
			ChannelBufferSize: 1000,
		},
		AssessmentTTL: 15 * time.Minute,
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Tracing: TracingConfig{
			Enabled:     false,
			ServiceName: "lendscore",
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 20,
			Burst:             40,
		},
	}
}

// ProConfig returns a configuration for the Pro tier.
func ProConfig() *Config {
	cfg := DefaultConfig()
	cfg.Tier = TierPro
	cfg.Cache = CacheConfig{
		Type:           "redis",
		RedisAddr:      "localhost:6379",
		EnableTwoPhase: true,
		LocalMaxSize:   1000,
		LocalTTL:       time.Minute,
	}
	cfg.EventBus = EventBusConfig{
		Type:              "nats",
		NATSUrl:           "nats://localhost:4222",
		NATSMaxReconnects: 10,
		NATSReconnectWait: 5,
	}
	cfg.Worker.Enabled = true
	cfg.Tracing.Enabled = true
	return cfg
}

// ApplyEnv overrides configuration values from LENDSCORE_* variables.
// Unset or unparsable values leave the current setting untouched.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv("LENDSCORE_HOST"); v != "" {
		c.Server.Host = v
	}
	if v, err := strconv.Atoi(getenv("LENDSCORE_PORT")); err == nil && v > 0 {
		c.Server.Port = v
	}
	if getenv("LENDSCORE_DEBUG") == "true" {
		c.Logging.Level = "debug"
	}
	if v := getenv("LENDSCORE_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}

	if v := getenv("LENDSCORE_REDIS_ADDR"); v != "" {
		c.Cache.Type = "redis"
		c.Cache.RedisAddr = v
	}
	if v := getenv("LENDSCORE_REDIS_PASSWORD"); v != "" {
		c.Cache.RedisPassword = v
	}
	if v, err := time.ParseDuration(getenv("LENDSCORE_ASSESSMENT_TTL")); err == nil && v > 0 {
		c.AssessmentTTL = v
	}

	if v := getenv("LENDSCORE_NATS_URL"); v != "" {
		c.EventBus.Type = "nats"
		c.EventBus.NATSUrl = v
	}
	if v := getenv("LENDSCORE_NATS_TOKEN"); v != "" {
		c.EventBus.NATSToken = v
	}

	if getenv("LENDSCORE_ASYNC_WORKER") == "true" {
		c.Worker.Enabled = true
	}
	if v := getenv("LENDSCORE_TENANTS"); v != "" {
		c.Worker.TenantIDs = nil
		for _, t := range strings.Split(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				c.Worker.TenantIDs = append(c.Worker.TenantIDs, t)
			}
		}
	}

	if v := getenv("LENDSCORE_TRACING_ENDPOINT"); v != "" {
		c.Tracing.Enabled = true
		c.Tracing.Endpoint = v
	}
	if getenv("LENDSCORE_TRACING_INSECURE") == "true" {
		c.Tracing.Insecure = true
	}

	if v, err := strconv.ParseFloat(getenv("LENDSCORE_RATE_LIMIT_RPS"), 64); err == nil && v >= 0 {
		c.RateLimit.RequestsPerSecond = v
	}
	if v, err := strconv.Atoi(getenv("LENDSCORE_RATE_LIMIT_BURST")); err == nil && v > 0 {
		c.RateLimit.Burst = v
	}
}
