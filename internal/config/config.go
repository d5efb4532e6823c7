package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/vbonduro/dishcarbon/internal/api"
)

type Config struct {
	ListenAddr        string
	APIBaseURL        string
	DBPath            string
	PhotoPath         string
	LogLevel          string
	LogFile           string
	RequestsPerMinute int
	SessionTTL        time.Duration
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first; variables already set take precedence.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ListenAddr:        getEnv("LISTEN_ADDR", ":8080"),
		APIBaseURL:        resolveAPIBaseURL(os.Getenv("CARBON_API_URL"), os.Getenv("DISHCARBON_IN_CONTAINER") == "1"),
		DBPath:            getEnv("DB_PATH", "/data/dishcarbon.db"),
		PhotoPath:         getEnv("PHOTO_LOCAL_PATH", "/data/photos"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFile:           getEnv("LOG_FILE", ""),
		RequestsPerMinute: getEnvInt("API_REQUESTS_PER_MINUTE", 0),
		SessionTTL:        getEnvDuration("SESSION_TTL", 2*time.Hour),
	}
}

// resolveAPIBaseURL picks the backend address: an explicit override, the
// compose service name when running in a container, or localhost.
func resolveAPIBaseURL(override string, inContainer bool) string {
	switch {
	case override != "":
		return override
	case inContainer:
		return api.ContainerBaseURL
	default:
		return api.DefaultBaseURL
	}
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	val, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	val, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}
