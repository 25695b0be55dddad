// Package config provides environment configuration for the API server.
package config

import (
	"os"
	"strconv"
	"time"
)

// ModelRates holds per-1K-token prices for one model.
type ModelRates struct {
	Input  float64
	Output float64
}

// DefaultModelRates is the price table used for exact cost accounting.
// Unknown models fall back to the fast-tier rates.
var DefaultModelRates = map[string]ModelRates{
	"gpt-4-1106-preview": {Input: 0.01, Output: 0.03},
	"gpt-4":              {Input: 0.03, Output: 0.06},
	"gpt-3.5-turbo-1106": {Input: 0.001, Output: 0.002},
	"gpt-3.5-turbo":      {Input: 0.0015, Output: 0.002},
}

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	ServerPort         string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration

	// LLM settings
	OpenAIAPIKey    string
	AnthropicAPIKey string
	DefaultModel    string
	FastModel       string
	MaxTokens       int
	Temperature     float64
	LLMTimeout      time.Duration

	// Retry policy for provider calls
	RetryMaxAttempts int
	RetryBaseDelay   time.Duration
	RetryMaxDelay    time.Duration

	// Session lifecycle
	SessionTTL    time.Duration
	SweepInterval time.Duration

	// Response optimization
	CachingEnabled    bool
	CacheTTL          time.Duration
	CostOptimization  bool
	MaxContextMessage int
	ModelRates        map[string]ModelRates

	// Rate limiting
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// NATS event feed (optional)
	NATSURL      string
	NATSCAFile   string
	NATSCertFile string
	NATSKeyFile  string
	NATSToken    string

	// Logging
	LogLevel string

	// Tracing
	TracingEndpoint string
	TracingEnabled  bool
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		// Server
		ServerPort:         getEnv("PORT", "8080"),
		ServerReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
		ServerWriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 120*time.Second),

		// LLM
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		DefaultModel:    getEnv("LLM_MODEL", "gpt-4-1106-preview"),
		FastModel:       getEnv("LLM_MODEL_FAST", "gpt-3.5-turbo-1106"),
		MaxTokens:       getIntEnv("LLM_MAX_TOKENS", 1000),
		Temperature:     getFloatEnv("LLM_TEMPERATURE", 0.7),
		LLMTimeout:      getDurationEnv("LLM_TIMEOUT", 30*time.Second),

		// Retry
		RetryMaxAttempts: getIntEnv("LLM_RETRY_ATTEMPTS", 3),
		RetryBaseDelay:   getDurationEnv("LLM_RETRY_BASE_DELAY", 4*time.Second),
		RetryMaxDelay:    getDurationEnv("LLM_RETRY_MAX_DELAY", 10*time.Second),

		// Sessions
		SessionTTL:    getDurationEnv("SESSION_TTL", time.Hour),
		SweepInterval: getDurationEnv("SESSION_SWEEP_INTERVAL", 5*time.Minute),

		// Optimization
		CachingEnabled:    getBoolEnv("ENABLE_CACHING", true),
		CacheTTL:          getDurationEnv("CACHE_TTL", time.Hour),
		CostOptimization:  getBoolEnv("COST_OPTIMIZATION", true),
		MaxContextMessage: getIntEnv("MAX_CONTEXT_MESSAGES", 10),
		ModelRates:        DefaultModelRates,

		// Rate limiting
		RateLimitRequests: getIntEnv("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:   getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),

		// NATS
		NATSURL:      getEnv("NATS_URL", ""),
		NATSCAFile:   getEnv("NATS_CA_FILE", ""),
		NATSCertFile: getEnv("NATS_CERT_FILE", ""),
		NATSKeyFile:  getEnv("NATS_KEY_FILE", ""),
		NATSToken:    getEnv("NATS_TOKEN", ""),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "info"),

		// Tracing
		TracingEndpoint: getEnv("TRACING_ENDPOINT", "localhost:4318"),
		TracingEnabled:  getBoolEnv("TRACING_ENABLED", false),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
