package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server configuration
	Environment string

	// Redis configuration
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// Payment gateway configuration
	GatewayBaseURL string
	GatewayToken   string
	GatewayTimeout time.Duration
	WebhookSecret  string

	// Ticket QR signing
	QRSecret string

	// Reports
	ReportCacheTTL   time.Duration
	CacheSweepPeriod time.Duration

	// Checkout
	CheckoutHoldTTL time.Duration

	// Realtime notifications
	PubNubPublishKey   string
	PubNubSubscribeKey string
	PubNubSecretKey    string
	PubNubUserID       string
	PubNubScanChannel  string

	// Rate limiting
	CheckoutRateLimit int
	ScanRateLimit     int
	RateLimitWindow   time.Duration

	// Monitoring
	EnableMetrics bool
	MetricsPort   string
}

func LoadConfig() *Config {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	return &Config{
		Environment: getEnv("ENVIRONMENT", "development"),

		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		GatewayBaseURL: getEnv("GATEWAY_BASE_URL", "https://apitest.myfatoorah.com"),
		GatewayToken:   getEnv("GATEWAY_API_TOKEN", ""),
		GatewayTimeout: getEnvAsDuration("GATEWAY_TIMEOUT", "10s"),
		WebhookSecret:  getEnv("WEBHOOK_SECRET", ""),

		QRSecret: getEnv("QR_SECRET", ""),

		ReportCacheTTL:   getEnvAsDuration("REPORT_CACHE_TTL", "5m"),
		CacheSweepPeriod: getEnvAsDuration("CACHE_SWEEP_PERIOD", "10m"),

		CheckoutHoldTTL: getEnvAsDuration("CHECKOUT_HOLD_TTL", "10m"),

		PubNubPublishKey:   getEnv("PUBNUB_PUBLISH_KEY", ""),
		PubNubSubscribeKey: getEnv("PUBNUB_SUBSCRIBE_KEY", ""),
		PubNubSecretKey:    getEnv("PUBNUB_SECRET_KEY", ""),
		PubNubUserID:       getEnv("PUBNUB_USER_ID", "tickethub-server"),
		PubNubScanChannel:  getEnv("PUBNUB_SCAN_CHANNEL", "organizer-scans"),

		CheckoutRateLimit: getEnvAsInt("CHECKOUT_RATE_LIMIT", 10),
		ScanRateLimit:     getEnvAsInt("SCAN_RATE_LIMIT", 60),
		RateLimitWindow:   getEnvAsDuration("RATE_LIMIT_WINDOW", "1m"),

		EnableMetrics: getEnvAsBool("ENABLE_METRICS", true),
		MetricsPort:   getEnv("METRICS_PORT", "9090"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
