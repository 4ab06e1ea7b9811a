package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	PublicBaseURL string
	LogLevel      string

	// Record store
	StoreBackend  string // "redis", "postgres" or "memory"
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool
	DatabaseURL   string

	// Identity provider (OIDC)
	OIDCIssuerURL string
	OIDCAudience  string

	// Provisioning
	AccessServiceURL       string
	AccessServiceTimeout   time.Duration
	DefaultAPIKey          string
	DefaultAPIKeyID        string
	DefaultAIProvider      string
	DefaultMaxTokensPerDay int

	// Booking wizard
	WizardSessionTTL time.Duration

	// Visualization
	ChartImageDir string
	ChartImageTTL time.Duration

	// HTTP surface
	CORSAllowedOrigins []string
	RateLimitPerSecond float64
	RateLimitBurst     int
}

// Load reads configuration from environment variables. A .env file in the
// working directory is loaded first when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),

		StoreBackend:  strings.ToLower(strings.TrimSpace(getEnv("STORE_BACKEND", "redis"))),
		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),
		DatabaseURL:   getEnv("DATABASE_URL", ""),

		OIDCIssuerURL: getEnv("OIDC_ISSUER_URL", ""),
		OIDCAudience:  getEnv("OIDC_AUDIENCE", ""),

		AccessServiceURL:       getEnv("ACCESS_SERVICE_URL", ""),
		AccessServiceTimeout:   getEnvAsDuration("ACCESS_SERVICE_TIMEOUT", 10*time.Second),
		DefaultAPIKey:          getEnv("PROVISIONING_DEFAULT_API_KEY", ""),
		DefaultAPIKeyID:        getEnv("PROVISIONING_DEFAULT_API_KEY_ID", "default"),
		DefaultAIProvider:      getEnv("PROVISIONING_AI_PROVIDER", "kimi-k2"),
		DefaultMaxTokensPerDay: getEnvAsInt("PROVISIONING_MAX_TOKENS_PER_DAY", 100000),

		WizardSessionTTL: getEnvAsDuration("WIZARD_SESSION_TTL", 2*time.Hour),

		ChartImageDir: getEnv("CHART_IMAGE_DIR", "generated_images"),
		ChartImageTTL: getEnvAsDuration("CHART_IMAGE_TTL", 24*time.Hour),

		CORSAllowedOrigins: splitAndTrim(getEnv("CORS_ALLOWED_ORIGINS", "")),
		RateLimitPerSecond: getEnvAsFloat("RATE_LIMIT_PER_SECOND", 10),
		RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 20),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
