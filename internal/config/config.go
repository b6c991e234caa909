package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

var (
	ErrInvalidMaxRetailers = errors.New("SEARCH_MAX_RETAILERS must be between 1 and 20")
	ErrInvalidMaxRetries   = errors.New("SEARCH_MAX_RETRIES must be between 1 and 10")
	ErrMissingAPIKey       = errors.New("OPENROUTER_API_KEY is required for the openrouter provider")
)

type Config struct {
	Search    SearchConfig
	LLM       LLMConfig
	Tavily    TavilyConfig
	Database  DatabaseConfig
	Telegram  TelegramConfig
	Log       LogConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	Metrics   MetricsConfig
}

type SearchConfig struct {
	MaxRetailers int
	MaxRetries   int
	ResultsDir   string
}

type LLMConfig struct {
	Provider   string
	OpenRouter OpenRouterConfig
}

type OpenRouterConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

type TavilyConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// DatabaseConfig - постгрес опционален: без DATABASE_URL история прогонов
// просто не пишется
type DatabaseConfig struct {
	URL string
}

// TelegramConfig - уведомления о завершенных прогонах, опционально
type TelegramConfig struct {
	Token  string
	ChatID int64
}

type LogConfig struct {
	Level string
}

type CacheConfig struct {
	TTL             time.Duration
	CleanupInterval time.Duration
}

type RateLimitConfig struct {
	RequestsPerMinute int
}

type MetricsConfig struct {
	Addr string
}

func Load() (*Config, error) {
	cfg := &Config{
		Search: SearchConfig{
			MaxRetailers: getEnvIntOrDefault("SEARCH_MAX_RETAILERS", 5),
			MaxRetries:   getEnvIntOrDefault("SEARCH_MAX_RETRIES", 3),
			ResultsDir:   getEnvOrDefault("RESULTS_DIR", "product-search-results"),
		},
		LLM: LLMConfig{
			Provider: getEnvOrDefault("LLM_PROVIDER", "mock"),
			OpenRouter: OpenRouterConfig{
				APIKey:  os.Getenv("OPENROUTER_API_KEY"),
				Model:   getEnvOrDefault("OPENROUTER_MODEL", "deepseek/deepseek-chat"),
				BaseURL: getEnvOrDefault("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
				Timeout: time.Duration(getEnvIntOrDefault("OPENROUTER_TIMEOUT_SEC", 60)) * time.Second,
			},
		},
		Tavily: TavilyConfig{
			APIKey:  os.Getenv("TAVILY_API_KEY"),
			BaseURL: getEnvOrDefault("TAVILY_BASE_URL", "https://api.tavily.com"),
			Timeout: time.Duration(getEnvIntOrDefault("TAVILY_TIMEOUT_SEC", 30)) * time.Second,
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Telegram: TelegramConfig{
			Token:  os.Getenv("TELEGRAM_BOT_TOKEN"),
			ChatID: getEnvInt64OrDefault("TELEGRAM_CHAT_ID", 0),
		},
		Log: LogConfig{
			Level: getEnvOrDefault("LOG_LEVEL", "info"),
		},
		Cache: CacheConfig{
			TTL:             time.Duration(getEnvIntOrDefault("CACHE_TTL_SEC", 3600)) * time.Second,
			CleanupInterval: time.Duration(getEnvIntOrDefault("CACHE_CLEANUP_INTERVAL_SEC", 300)) * time.Second,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: getEnvIntOrDefault("RATE_LIMIT_PER_MINUTE", 10),
		},
		Metrics: MetricsConfig{
			Addr: getEnvOrDefault("METRICS_ADDR", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Search.MaxRetailers < 1 || c.Search.MaxRetailers > 20 {
		return ErrInvalidMaxRetailers
	}
	if c.Search.MaxRetries < 1 || c.Search.MaxRetries > 10 {
		return ErrInvalidMaxRetries
	}
	if c.LLM.Provider == "openrouter" && c.LLM.OpenRouter.APIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}
