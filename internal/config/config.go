package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir      string
	BrapiBaseURL string
	BrapiToken   string
	ScrapeURL    string
	NewsFeedURL  string
	GeminiAPIKey string
	LogLevel     string
	Port         int
	DevMode      bool

	// Cron expressions for the background jobs (robfig/cron format).
	RefreshSchedule  string
	DividendSchedule string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		DataDir:          getEnv("CARTEIRA_DATA_DIR", defaultDataDir()),
		BrapiBaseURL:     getEnv("BRAPI_BASE_URL", ""),
		BrapiToken:       getEnv("BRAPI_TOKEN", ""),
		ScrapeURL:        getEnv("SCRAPE_BASE_URL", ""),
		NewsFeedURL:      getEnv("NEWS_FEED_URL", ""),
		GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		Port:             getEnvAsInt("PORT", 8080),
		DevMode:          getEnvAsBool("DEV_MODE", false),
		RefreshSchedule:  getEnv("REFRESH_SCHEDULE", "*/10 10-18 * * 1-5"),
		DividendSchedule: getEnv("DIVIDEND_SCHEDULE", "0 9,19 * * *"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("CARTEIRA_DATA_DIR is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT %d is out of range", c.Port)
	}
	return nil
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".carteira"
	}
	return filepath.Join(home, ".carteira")
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
