package env

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

func GetEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}

func GetInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		slog.Warn("invalid int in env, using default", "key", key, "value", raw)
		return defaultValue
	}
	return value
}

// GetDuration accepts Go duration strings ("1500ms", "10s").
func GetDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		slog.Warn("invalid duration in env, using default", "key", key, "value", raw)
		return defaultValue
	}
	return value
}
