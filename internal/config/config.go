package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/playpong/backend/internal/game"
)

type Config struct {
	// Environment
	Environment string

	// Database (empty disables persistence)
	DatabaseURL      string
	MigrateOnStart   bool
	MigrationsDir    string
	PersistQueueSize int

	// Redis (empty disables lifecycle events and the dead-letter queue)
	RedisURL string

	// Server
	Port           string
	FrontendURL    string
	AllowedOrigins []string

	// Security (empty disables token checks on /ws)
	JWTSecret string

	// Tracing
	OTELServiceName string

	// Game rules, read from PONG_* variables
	Game game.Settings
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Environment: getEnv("APP_ENV", "development"),

		DatabaseURL:      getEnv("DATABASE_URL", ""),
		MigrateOnStart:   getEnvBool("MIGRATE_ON_START", true),
		MigrationsDir:    getEnv("MIGRATIONS_DIR", "migrations"),
		PersistQueueSize: getEnvInt("PERSIST_QUEUE_SIZE", 256),

		RedisURL: getEnv("REDIS_URL", ""),

		Port:        getEnv("APP_PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),

		JWTSecret: getEnv("JWT_SECRET", ""),

		OTELServiceName: getEnv("OTEL_SERVICE_NAME", "pong-server"),
	}
	cfg.AllowedOrigins = getEnvList("ALLOWED_ORIGINS", []string{cfg.FrontendURL})

	if err := env.Parse(&cfg.Game); err != nil {
		return nil, fmt.Errorf("parse game settings: %w", err)
	}
	if err := cfg.Game.Validate(); err != nil {
		return nil, fmt.Errorf("invalid game settings: %w", err)
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
