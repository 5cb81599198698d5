package infra

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv            string
	GeminiAPIKey      string
	GeminiModel       string
	GeminiVideoModel  string
	GeminiBaseURL     string
	OutputDir         string
	Locale            string
	HTTPTimeout       time.Duration
	PollInterval      time.Duration
	PollMaxAttempts   int
	BatchMaxInFlight  int
	VideoDurationSecs int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:            getEnv("APP_ENV", "development"),
		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		GeminiModel:       getEnv("GEMINI_MODEL", "gemini-2.5-flash-image"),
		GeminiVideoModel:  getEnv("GEMINI_VIDEO_MODEL", "veo-3.0-generate-001"),
		GeminiBaseURL:     getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		OutputDir:         getEnv("OUTPUT_DIR", "./out"),
		Locale:            getEnv("LOCALE", "en"),
		HTTPTimeout:       time.Second * time.Duration(getEnvInt("HTTP_TIMEOUT_SECONDS", 60)),
		PollInterval:      time.Second * time.Duration(getEnvInt("POLL_INTERVAL_SECONDS", 10)),
		PollMaxAttempts:   getEnvInt("POLL_MAX_ATTEMPTS", 0),
		BatchMaxInFlight:  getEnvInt("BATCH_MAX_IN_FLIGHT", 0),
		VideoDurationSecs: getEnvInt("VIDEO_DURATION_SECONDS", 8),
	}

	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("POLL_INTERVAL_SECONDS must be positive")
	}

	if cfg.PollMaxAttempts < 0 {
		return nil, fmt.Errorf("POLL_MAX_ATTEMPTS must not be negative")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
