package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// LoadEnv reads .env into the process environment. A missing file is not an
// error: in containers the variables come from the runtime.
func LoadEnv(filenames ...string) {
	if len(filenames) == 0 {
		filenames = []string{".env"}
	}
	if err := godotenv.Load(filenames...); err != nil {
		Logger.Warn("Could not load .env file, relying on process environment", zap.Error(err))
	}
}

func GetEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func GetEnvOrDefault(key, fallback string) string {
	if value := GetEnv(key); value != "" {
		return value
	}
	Logger.Warn("Environment variable not set, using default", zap.String("key", key), zap.String("default", fallback))
	return fallback
}

// GetEnvDuration parses values such as "15m" or "168h".
func GetEnvDuration(key string, fallback time.Duration) time.Duration {
	raw := GetEnv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		Logger.Warn("Invalid duration in environment, using default",
			zap.String("key", key),
			zap.String("value", raw),
			zap.Duration("default", fallback),
		)
		return fallback
	}
	return d
}
