package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/luvbird32/solana-wallet-a15fbb3a-sub000/pkg/ratelimiter"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `json:"server"`
	MongoDB   MongoDBConfig   `json:"mongodb"`
	Auth      AuthConfig      `json:"auth"`
	RateLimit RateLimitConfig `json:"rate_limit"`
	Security  SecurityConfig  `json:"security"`
	Logging   LoggingConfig   `json:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            string        `json:"port"`
	Host            string        `json:"host"`
	ReadTimeout     time.Duration `json:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout"`
	IdleTimeout     time.Duration `json:"idle_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
	TrustedProxies  []string      `json:"trusted_proxies"`
}

// MongoDBConfig holds MongoDB connection configuration
type MongoDBConfig struct {
	URI              string        `json:"uri"`
	Database         string        `json:"database"`
	APIKeyCollection string        `json:"api_key_collection"`
	ConnectTimeout   time.Duration `json:"connect_timeout"`
	MaxPoolSize      uint64        `json:"max_pool_size"`
}

// AuthConfig controls the optional API key gate
type AuthConfig struct {
	Enabled      bool          `json:"enabled"`
	CacheTTL     time.Duration `json:"cache_ttl"`
	CacheMaxSize int           `json:"cache_max_size"`
	// AdminKey unlocks the rate limit admin routes; they are not mounted
	// when it is empty
	AdminKey string `json:"-"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	WalletCreation   ratelimiter.Rule `json:"wallet_creation"`
	TokenSearch      ratelimiter.Rule `json:"token_search"`
	BalanceCheck     ratelimiter.Rule `json:"balance_check"`
	SweepProbability float64          `json:"sweep_probability"`
	FailClosed       bool             `json:"fail_closed"`
	CleanupInterval  time.Duration    `json:"cleanup_interval"`
}

// Rules returns the per-operation quota table
func (r RateLimitConfig) Rules() map[string]ratelimiter.Rule {
	return map[string]ratelimiter.Rule{
		ratelimiter.OperationWalletCreation: r.WalletCreation,
		ratelimiter.OperationTokenSearch:    r.TokenSearch,
		ratelimiter.OperationBalanceCheck:   r.BalanceCheck,
	}
}

// SecurityConfig toggles the stages of the request security pipeline
type SecurityConfig struct {
	EnableRateLimit         bool     `json:"enable_rate_limit"`
	EnableCORS              bool     `json:"enable_cors"`
	EnableRequestValidation bool     `json:"enable_request_validation"`
	EnableSecurityHeaders   bool     `json:"enable_security_headers"`
	EnableCSRF              bool     `json:"enable_csrf"`
	AllowedOrigins          []string `json:"allowed_origins"`
	MaxRequestSize          int64    `json:"max_request_size"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level       string   `json:"level"`
	Environment string   `json:"environment"`
	OutputPaths []string `json:"output_paths"`
}

// Load reads an optional .env file and then builds the configuration from
// the environment. Variables already set in the environment win over the file.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}

	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load %s: %w", file, err)
		}
	}

	cfg := LoadConfig()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig loads configuration from environment variables with defaults
func LoadConfig() *Config {
	defaults := ratelimiter.DefaultRules()

	return &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:     getDurationEnv("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			TrustedProxies:  getStringSliceEnv("SERVER_TRUSTED_PROXIES", nil),
		},
		MongoDB: MongoDBConfig{
			URI:              getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database:         getEnv("MONGODB_DATABASE", "solana_wallet"),
			APIKeyCollection: getEnv("MONGODB_APIKEY_COLLECTION", "api_keys"),
			ConnectTimeout:   getDurationEnv("MONGODB_CONNECT_TIMEOUT", 10*time.Second),
			MaxPoolSize:      getUint64Env("MONGODB_MAX_POOL_SIZE", 100),
		},
		Auth: AuthConfig{
			Enabled:      getBoolEnv("AUTH_ENABLED", false),
			CacheTTL:     getDurationEnv("AUTH_CACHE_TTL", 5*time.Minute),
			CacheMaxSize: getIntEnv("AUTH_CACHE_MAX_SIZE", 10000),
			AdminKey:     getEnv("ADMIN_API_KEY", ""),
		},
		RateLimit: RateLimitConfig{
			WalletCreation:   getRuleEnv("RATE_LIMIT_WALLET_CREATION", defaults[ratelimiter.OperationWalletCreation]),
			TokenSearch:      getRuleEnv("RATE_LIMIT_TOKEN_SEARCH", defaults[ratelimiter.OperationTokenSearch]),
			BalanceCheck:     getRuleEnv("RATE_LIMIT_BALANCE_CHECK", defaults[ratelimiter.OperationBalanceCheck]),
			SweepProbability: getFloatEnv("RATE_LIMIT_SWEEP_PROBABILITY", ratelimiter.DefaultSweepProbability),
			FailClosed:       getBoolEnv("RATE_LIMIT_FAIL_CLOSED", false),
			CleanupInterval:  getDurationEnv("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute),
		},
		Security: SecurityConfig{
			EnableRateLimit:         getBoolEnv("SECURITY_ENABLE_RATE_LIMIT", true),
			EnableCORS:              getBoolEnv("SECURITY_ENABLE_CORS", true),
			EnableRequestValidation: getBoolEnv("SECURITY_ENABLE_REQUEST_VALIDATION", true),
			EnableSecurityHeaders:   getBoolEnv("SECURITY_ENABLE_HEADERS", true),
			EnableCSRF:              getBoolEnv("SECURITY_ENABLE_CSRF", false),
			AllowedOrigins:          getStringSliceEnv("SECURITY_ALLOWED_ORIGINS", []string{"https://localhost:8080", "https://127.0.0.1:8080"}),
			MaxRequestSize:          getInt64Env("SECURITY_MAX_REQUEST_SIZE", 1024*1024),
		},
		Logging: LoggingConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Environment: getEnv("LOG_ENVIRONMENT", "development"),
			OutputPaths: getStringSliceEnv("LOG_OUTPUT_PATHS", []string{"stdout"}),
		},
	}
}

// Validate rejects configurations the server cannot run with
func (c *Config) Validate() error {
	for op, rule := range c.RateLimit.Rules() {
		if rule.Requests < 0 || rule.Window <= 0 {
			return fmt.Errorf("invalid rate limit for %s: %d requests per %s", op, rule.Requests, rule.Window)
		}
	}
	if c.RateLimit.SweepProbability < 0 || c.RateLimit.SweepProbability > 1 {
		return fmt.Errorf("rate limit sweep probability must be within [0,1], got %v", c.RateLimit.SweepProbability)
	}
	if c.Security.MaxRequestSize <= 0 {
		return fmt.Errorf("max request size must be positive")
	}
	if c.Auth.Enabled && c.Auth.CacheMaxSize <= 0 {
		return fmt.Errorf("auth cache size must be positive")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getInt64Env(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getUint64Env(key string, defaultValue uint64) uint64 {
	if value := os.Getenv(key); value != "" {
		if uint64Value, err := strconv.ParseUint(value, 10, 64); err == nil {
			return uint64Value
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
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getRuleEnv parses "<requests>/<window>", e.g. "5/60s"
func getRuleEnv(key string, defaultValue ratelimiter.Rule) ratelimiter.Rule {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	requests, window, found := strings.Cut(value, "/")
	if !found {
		return defaultValue
	}

	n, err := strconv.Atoi(strings.TrimSpace(requests))
	if err != nil {
		return defaultValue
	}
	d, err := time.ParseDuration(strings.TrimSpace(window))
	if err != nil {
		return defaultValue
	}

	return ratelimiter.Rule{Requests: n, Window: d}
}

func getStringSliceEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
