package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the runtime configuration.
type Config struct {
	ServerPort     string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	DataTZ         *time.Location
	AlertURL       string
	AlertKey       string
	AlertTimeout   time.Duration
	AllowedOrigins []string
}

// Load reads a .env file when present and assembles the configuration from
// environment variables. DataTZ fixes the calendar-day boundaries and CSV
// time rendering independently of the server's own timezone.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on system environment variables")
	}

	tz := getEnv("DATA_TZ", "Asia/Jakarta")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return Config{}, fmt.Errorf("invalid DATA_TZ %q: %w", tz, err)
	}

	cfg := Config{
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisDB:        getEnvAsInt("REDIS_DB", 0),
		DataTZ:         loc,
		AlertURL:       getEnv("ALERT_URL", ""),
		AlertKey:       getEnv("ALERT_KEY", ""),
		AlertTimeout:   time.Duration(getEnvAsInt("ALERT_TIMEOUT_MS", 5000)) * time.Millisecond,
		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}

	if cfg.AlertURL == "" {
		log.Println("ALERT_URL not set, outbound alerts disabled")
	}
	return cfg, nil
}

// getEnv returns an environment variable or a default.
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt returns an environment variable as int.
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var value int
	if _, err := fmt.Sscanf(valueStr, "%d", &value); err != nil {
		return defaultValue
	}
	return value
}
