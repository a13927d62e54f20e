package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port        string
	Environment string
	CORSOrigins string
	LogDir      string
	// Identity store
	IdentityStore string // memory, postgres or redis
	DatabaseURL   string
	TablePrefix   string
	RedisURL      string
	// Completion
	AnthropicAPIKey     string
	CompletionProvider  string
	CompletionModel     string
	CompletionMaxTokens int
	CompletionTimeout   time.Duration
	CompletionRPS       float64
	CompletionBurst     int
	PromptVersion       int
	// Quota
	RateLimitMax        int
	RateLimitWindow     time.Duration
	RateLimitSweepEvery time.Duration
	// Public identity routes, per client IP
	IPRateRPS   float64
	IPRateBurst int
	TrustProxy  bool // honour X-Forwarded-For
	// Catalog
	CatalogBaseURL string
	CatalogTTL     time.Duration
	// Payments and mail
	WebhookSecret        string
	WebhookAllowUnsigned bool
	ResendAPIKey         string
	MailFrom             string
	// Admin routes are disabled when empty
	AdminJWKSURL string
	// Debug flags
	Debug bool
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: env,
		CORSOrigins: getEnv("CORS_ORIGINS", "https://scryfall.com"),
		LogDir:      getEnv("LOG_DIR", ""),

		IdentityStore: getEnv("IDENTITY_STORE", "memory"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		TablePrefix:   getTablePrefix(env),
		RedisURL:      getEnv("REDIS_URL", "redis://localhost:6379/0"),

		AnthropicAPIKey:     getEnv("ANTHROPIC_API_KEY", ""),
		CompletionProvider:  getEnv("COMPLETION_PROVIDER", "anthropic"),
		CompletionModel:     getEnv("COMPLETION_MODEL", "claude-haiku-4-5-20251001"),
		CompletionMaxTokens: getEnvInt("COMPLETION_MAX_TOKENS", 512),
		CompletionTimeout:   getEnvDuration("COMPLETION_TIMEOUT", 30*time.Second),
		CompletionRPS:       getEnvFloat("COMPLETION_RPS", 0),
		CompletionBurst:     getEnvInt("COMPLETION_BURST", 5),
		PromptVersion:       getEnvInt("PROMPT_VERSION", 0),

		RateLimitMax:        getEnvInt("RATE_LIMIT_MAX", 60),
		RateLimitWindow:     getEnvDuration("RATE_LIMIT_WINDOW", time.Hour),
		RateLimitSweepEvery: getEnvDuration("RATE_LIMIT_SWEEP_EVERY", 30*time.Minute),

		IPRateRPS:   getEnvFloat("IP_RATE_RPS", 2),
		IPRateBurst: getEnvInt("IP_RATE_BURST", 10),
		TrustProxy:  getEnv("TRUST_PROXY", "false") == "true",

		CatalogBaseURL: getEnv("CATALOG_BASE_URL", "https://api.scryfall.com"),
		CatalogTTL:     getEnvDuration("CATALOG_TTL", 24*time.Hour),

		WebhookSecret:        getEnv("WEBHOOK_SECRET", ""),
		WebhookAllowUnsigned: getEnv("WEBHOOK_ALLOW_UNSIGNED", "false") == "true" && env != "prod",
		ResendAPIKey:         getEnv("RESEND_API_KEY", ""),
		MailFrom:             getEnv("MAIL_FROM", "licenses@cardquery.app"),

		AdminJWKSURL: getEnv("ADMIN_JWKS_URL", ""),

		// Debug flags - default to true in dev/test, false in production
		Debug: getEnv("DEBUG", getDefaultDebug(env)) == "true",
	}
}

// IsProd reports whether the service runs in the production environment.
func (c *Config) IsProd() bool {
	return c.Environment == "prod"
}

// LogLevel returns the slog level for the configured debug flag.
func (c *Config) LogLevel() slog.Level {
	if c.Debug {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// Origins splits CORSOrigins on commas.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// getDefaultDebug returns the default debug setting based on environment
func getDefaultDebug(env string) string {
	if env == "prod" {
		return "false"
	}
	return "true"
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvFloat(key string, defaultValue float64) float64 {
	f, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		return defaultValue
	}
	return f
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || d < 0 {
		return defaultValue
	}
	return d
}
