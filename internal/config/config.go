package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the configuration for the application.
type Config struct {
	Env    string
	DBPath string

	// Food data sources
	USDAAPIKey      string
	USDABaseURL     string
	USDAMinInterval time.Duration
	USDAMaxRetries  int
	OFFBaseURL      string
	ResolveTimeout  time.Duration

	// Language models
	GeminiAPIKey string
	GeminiModel  string
	GroqAPIKey   string
	GroqModel    string
	GroqURL      string

	// Telegram Config
	TelegramBotToken       string
	TelegramWebhookURL     string
	TelegramAllowedUserIDs []int64
	TelegramAdminID        int64
	Port                   string
}

// Defaults applied when a variable is unset.
const (
	DefaultDBPath          = "data/nourish.db"
	DefaultUSDAMinInterval = 400 * time.Millisecond
	DefaultUSDAMaxRetries  = 3
	DefaultResolveTimeout  = 20 * time.Second
	DefaultPort            = "8080"
)

// NewFromEnv creates a new Config object from environment variables.
// Every variable is optional; the language model keys are checked by the
// features that need them.
func NewFromEnv() (*Config, error) {
	cfg := &Config{
		Env:                os.Getenv("NOURISH_ENV"),
		DBPath:             getenv("NOURISH_DB_PATH", DefaultDBPath),
		USDAAPIKey:         os.Getenv("USDA_API_KEY"),
		USDABaseURL:        os.Getenv("USDA_BASE_URL"),
		OFFBaseURL:         os.Getenv("OFF_BASE_URL"),
		GeminiAPIKey:       os.Getenv("GEMINI_API_KEY"),
		GeminiModel:        os.Getenv("GEMINI_MODEL"),
		GroqAPIKey:         os.Getenv("GROQ_API_KEY"),
		GroqModel:          os.Getenv("GROQ_MODEL"),
		GroqURL:            os.Getenv("GROQ_API_URL"),
		TelegramBotToken:   os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramWebhookURL: os.Getenv("TELEGRAM_WEBHOOK_URL"),
		Port:               getenv("PORT", DefaultPort),
	}

	var err error
	if cfg.USDAMinInterval, err = durationEnv("USDA_MIN_INTERVAL", DefaultUSDAMinInterval); err != nil {
		return nil, err
	}
	if cfg.ResolveTimeout, err = durationEnv("RESOLVE_TIMEOUT", DefaultResolveTimeout); err != nil {
		return nil, err
	}

	cfg.USDAMaxRetries = DefaultUSDAMaxRetries
	if v := os.Getenv("USDA_MAX_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("USDA_MAX_RETRIES must be a non-negative integer, got %q", v)
		}
		cfg.USDAMaxRetries = n
	}

	if v := os.Getenv("TELEGRAM_ALLOWED_USER_IDS"); v != "" {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("TELEGRAM_ALLOWED_USER_IDS contains invalid id %q", part)
			}
			cfg.TelegramAllowedUserIDs = append(cfg.TelegramAllowedUserIDs, id)
		}
	}

	if v := os.Getenv("TELEGRAM_ADMIN_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("TELEGRAM_ADMIN_ID must be an integer, got %q", v)
		}
		cfg.TelegramAdminID = id
	}

	return cfg, nil
}

// IsDevelopment reports whether NOURISH_ENV selects development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// HasLLM reports whether any language model key is configured.
func (c *Config) HasLLM() bool {
	return c.GeminiAPIKey != "" || c.GroqAPIKey != ""
}

// ValidateBot checks the variables the Telegram bot cannot run without.
func (c *Config) ValidateBot() error {
	if c.TelegramBotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable not set")
	}
	if c.TelegramWebhookURL == "" {
		return fmt.Errorf("TELEGRAM_WEBHOOK_URL environment variable not set")
	}
	if !c.HasLLM() {
		return fmt.Errorf("GEMINI_API_KEY or GROQ_API_KEY environment variable not set")
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("%s must be a duration, got %q", key, v)
	}
	return d, nil
}
