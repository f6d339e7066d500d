// Package config defines configuration parsing and helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all application configuration parsed from environment variables.
type Config struct {
	AppEnv string `env:"APP_ENV" envDefault:"dev"`
	Port   int    `env:"PORT" envDefault:"8080"`

	OpenRouterAPIKey  string `env:"OPENROUTER_API_KEY"`
	OpenRouterBaseURL string `env:"OPENROUTER_BASE_URL" envDefault:"https://openrouter.ai/api/v1"`
	ChatModel         string `env:"CHAT_MODEL" envDefault:"meta-llama/llama-3.1-70b-instruct"`
	OpenAIAPIKey      string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL     string `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
	EmbeddingsModel   string `env:"EMBEDDINGS_MODEL" envDefault:"text-embedding-3-small"`

	// Per-stage timeouts for the remote-dependent scorers. The semantic stage
	// budget covers one schema-correction retry.
	EmbedTimeout    time.Duration `env:"EMBED_TIMEOUT" envDefault:"8s"`
	SemanticTimeout time.Duration `env:"SEMANTIC_TIMEOUT" envDefault:"45s"`
	// SemanticMaxTokens caps completion size for the qualitative analysis.
	SemanticMaxTokens int `env:"SEMANTIC_MAX_TOKENS" envDefault:"1200"`

	// Result cache: TTL-bounded, LRU-evicted. RedisURL switches the backing
	// store from in-process memory to Redis.
	CacheTTL      time.Duration `env:"CACHE_TTL" envDefault:"1h"`
	CacheCapacity int           `env:"CACHE_CAPACITY" envDefault:"1024"`
	RedisURL      string        `env:"REDIS_URL"`

	OTLPEndpoint    string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
	OTELServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"match-engine"`

	MaxTextChars          int           `env:"MAX_TEXT_CHARS" envDefault:"20000"`
	CORSAllowOrigins      string        `env:"CORS_ALLOW_ORIGINS" envDefault:"*"`
	RateLimitPerMin       int           `env:"RATE_LIMIT_PER_MIN" envDefault:"60"`
	ServerShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	HTTPReadTimeout       time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	HTTPWriteTimeout      time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"60s"`
	HTTPIdleTimeout       time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"60s"`

	// AI Backoff Configuration
	AIBackoffMaxElapsedTime  time.Duration `env:"AI_BACKOFF_MAX_ELAPSED_TIME" envDefault:"30s"`
	AIBackoffInitialInterval time.Duration `env:"AI_BACKOFF_INITIAL_INTERVAL" envDefault:"500ms"`
	AIBackoffMaxInterval     time.Duration `env:"AI_BACKOFF_MAX_INTERVAL" envDefault:"5s"`
	AIBackoffMultiplier      float64       `env:"AI_BACKOFF_MULTIPLIER" envDefault:"1.5"`
}

// Load parses environment variables into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("op=config.Load: %w", err)
	}
	return cfg, nil
}

// IsDev reports whether the app is running in development mode.
func (c Config) IsDev() bool { return strings.ToLower(c.AppEnv) == "dev" }

// IsProd reports whether the app is running in production mode.
func (c Config) IsProd() bool { return strings.ToLower(c.AppEnv) == "prod" }

// IsTest reports whether the app is running in test mode.
func (c Config) IsTest() bool { return strings.ToLower(c.AppEnv) == "test" }

// ProvidersConfigured reports whether the real AI providers can be used;
// otherwise the server falls back to the deterministic stub client.
func (c Config) ProvidersConfigured() bool {
	return c.OpenRouterAPIKey != "" && c.OpenAIAPIKey != ""
}

// GetAIBackoffConfig returns backoff configuration appropriate for the current
// environment. Test mode uses much shorter intervals for fast test execution.
func (c Config) GetAIBackoffConfig() (maxElapsedTime, initialInterval, maxInterval time.Duration, multiplier float64) {
	if c.IsTest() {
		return 2 * time.Second, 50 * time.Millisecond, 500 * time.Millisecond, 2.0
	}
	return c.AIBackoffMaxElapsedTime, c.AIBackoffInitialInterval, c.AIBackoffMaxInterval, c.AIBackoffMultiplier
}
