package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds the runtime settings read from the environment.
type Config struct {
	DBPath          string
	DBDebug         bool
	NATSPort        int
	ShutdownTimeout time.Duration
	Location        *time.Location
}

// loadConfig reads the configuration from environment variables.
// Malformed numeric values fall back to their defaults; an unknown TZ_NAME is an error.
func loadConfig() (Config, error) {
	cfg := Config{
		DBPath:          getEnv("DB_PATH", "taskscape.db"),
		DBDebug:         getEnvBool("DB_DEBUG", false),
		NATSPort:        getEnvInt("NATS_PORT", 4222),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		Location:        time.Local,
	}

	if name := os.Getenv("TZ_NAME"); name != "" {
		loc, err := time.LoadLocation(name)
		if err != nil {
			return Config{}, fmt.Errorf("invalid TZ_NAME %q: %w", name, err)
		}
		cfg.Location = loc
	}

	return cfg, nil
}

// getEnv returns environment variable value or default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns environment variable as int or default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
		log.Printf("Warning: invalid int value for %s: %s, using default: %d", key, value, defaultValue)
	}
	return defaultValue
}

// getEnvBool returns environment variable as bool or default.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
		log.Printf("Warning: invalid bool value for %s: %s, using default: %t", key, value, defaultValue)
	}
	return defaultValue
}

// getEnvDuration returns environment variable as time.Duration or default.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
		log.Printf("Warning: invalid duration value for %s: %s, using default: %s", key, value, defaultValue)
	}
	return defaultValue
}
