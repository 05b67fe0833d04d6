package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config - структура для хранения конфигурации сервера
type Config struct {
	DatabaseURL string `env:"DATABASE_URL"`
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// Redis Config
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD"`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// Webhook Config
	WebhookURL        string        `env:"WEBHOOK_URL"`
	WebhookSecret     string        `env:"WEBHOOK_SECRET"`
	WebhookTimeout    time.Duration `env:"WEBHOOK_TIMEOUT" envDefault:"5s"`
	WebhookMaxRetries int           `env:"WEBHOOK_MAX_RETRIES" envDefault:"3"`
	WebhookBaseDelay  time.Duration `env:"WEBHOOK_BASE_DELAY" envDefault:"1s"`

	// Classifier Config
	ClassifierURL     string        `env:"CLASSIFIER_URL"`
	ClassifierAPIKey  string        `env:"CLASSIFIER_API_KEY"`
	ClassifierTimeout time.Duration `env:"CLASSIFIER_TIMEOUT" envDefault:"10s"`

	// Issue Config
	IssueRateLimit int           `env:"ISSUE_RATE_LIMIT" envDefault:"20"`
	IssueCacheTTL  time.Duration `env:"ISSUE_CACHE_TTL" envDefault:"5m"`

	// CORS
	CORSOrigins []string `env:"CORS_ORIGINS"`

	// API Keys for admin endpoints
	APIKeys []string `env:"API_KEYS"`
}

// ClientConfig - конфигурация клиентских утилит (map bridge, чат)
type ClientConfig struct {
	APIBaseURL       string        `env:"API_BASE_URL" envDefault:"http://localhost:8080/api/v1"`
	LogLevel         string        `env:"LOG_LEVEL" envDefault:"info"`
	FeedMode         string        `env:"FEED_MODE" envDefault:"poll"`
	FeedPollInterval time.Duration `env:"FEED_POLL_INTERVAL" envDefault:"3s"`
	ChatMode         string        `env:"CHAT_MODE" envDefault:"stream"`
	ChatPollInterval time.Duration `env:"CHAT_POLL_INTERVAL" envDefault:"3s"`
	BridgePort       string        `env:"BRIDGE_PORT" envDefault:"8090"`
	RequestTimeout   time.Duration `env:"REQUEST_TIMEOUT" envDefault:"10s"`
}

const (
	FeedModePoll   = "poll"
	FeedModeStream = "stream"
)

// LoadConfig загружает конфигурацию из переменных окружения и .env файла
func LoadConfig() (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	cfg := &Config{
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		HTTPPort:          getEnv("HTTP_PORT", "8080"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPass:         os.Getenv("REDIS_PASSWORD"),
		RedisDB:           getEnvAsInt("REDIS_DB", 0),
		WebhookURL:        os.Getenv("WEBHOOK_URL"),
		WebhookSecret:     os.Getenv("WEBHOOK_SECRET"),
		WebhookTimeout:    getEnvAsDuration("WEBHOOK_TIMEOUT", 5*time.Second),
		WebhookMaxRetries: getEnvAsInt("WEBHOOK_MAX_RETRIES", 3),
		WebhookBaseDelay:  getEnvAsDuration("WEBHOOK_BASE_DELAY", time.Second),
		ClassifierURL:     os.Getenv("CLASSIFIER_URL"),
		ClassifierAPIKey:  os.Getenv("CLASSIFIER_API_KEY"),
		ClassifierTimeout: getEnvAsDuration("CLASSIFIER_TIMEOUT", 10*time.Second),
		IssueRateLimit:    getEnvAsInt("ISSUE_RATE_LIMIT", 20),
		IssueCacheTTL:     getEnvAsDuration("ISSUE_CACHE_TTL", 5*time.Minute),
		CORSOrigins:       getEnvAsList("CORS_ORIGINS"),
		APIKeys:           getEnvAsList("API_KEYS"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	return cfg, nil
}

// LoadClientConfig загружает конфигурацию клиентских утилит
func LoadClientConfig() (*ClientConfig, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	cfg := &ClientConfig{
		APIBaseURL:       strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:8080/api/v1"), "/"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		FeedMode:         getEnv("FEED_MODE", FeedModePoll),
		FeedPollInterval: getEnvAsDuration("FEED_POLL_INTERVAL", 3*time.Second),
		ChatMode:         getEnv("CHAT_MODE", FeedModeStream),
		ChatPollInterval: getEnvAsDuration("CHAT_POLL_INTERVAL", 3*time.Second),
		BridgePort:       getEnv("BRIDGE_PORT", "8090"),
		RequestTimeout:   getEnvAsDuration("REQUEST_TIMEOUT", 10*time.Second),
	}

	if err := ValidateMode(cfg.FeedMode); err != nil {
		return nil, fmt.Errorf("FEED_MODE: %w", err)
	}
	if err := ValidateMode(cfg.ChatMode); err != nil {
		return nil, fmt.Errorf("CHAT_MODE: %w", err)
	}
	return cfg, nil
}

// ValidateMode проверяет стратегию синхронизации
func ValidateMode(mode string) error {
	switch mode {
	case FeedModePoll, FeedModeStream:
		return nil
	}
	return fmt.Errorf("unknown mode %q, expected %q or %q", mode, FeedModePoll, FeedModeStream)
}

// loadDotEnv загружает переменные окружения из .env файла (если есть)
func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("ошибка загрузки файла .env: %w", err)
	}
	return nil
}

// getEnv возвращает значение переменной окружения или значение по умолчанию
func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt возвращает значение переменной окружения как int или значение по умолчанию
func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsDuration возвращает значение переменной окружения как time.Duration или значение по умолчанию
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if durationValue, err := time.ParseDuration(value); err == nil {
			return durationValue
		}
	}
	return defaultValue
}

// getEnvAsList разбирает список через запятую, пропуская пустые элементы
func getEnvAsList(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
