package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Storage drivers
const (
	DriverPebble   = "pebble"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds all configuration values
type Config struct {
	// HTTP
	Port        string
	CORSOrigins string
	JWTSecret   string

	// Storage
	StorageDriver string
	DataDir       string
	DatabaseURL   string
	SeedFile      string
	UploadDir     string
	SnapshotCron  string

	// Assistant
	GeminiAPIKey string
	GeminiModel  string
	AssistantRPS float64

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// Load reads the optional .env file and then configuration from environment variables
func Load() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found")
	}

	return Config{
		Port:        getEnv("PORT", "8080"),
		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:3000"),
		JWTSecret:   getEnv("JWT_SECRET", ""),

		StorageDriver: strings.ToLower(getEnv("STORAGE_DRIVER", DriverPebble)),
		DataDir:       getEnv("DATA_DIR", "./data"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		SeedFile:      getEnv("SEED_FILE", ""),
		UploadDir:     getEnv("UPLOAD_DIR", "./uploads"),
		SnapshotCron:  getEnv("SNAPSHOT_CRON", "*/5 * * * *"),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", os.Getenv("API_KEY")),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		AssistantRPS: getEnvFloat("ASSISTANT_RPS", 2),

		LogFile:  getEnv("LOG_FILE", ""),
		LogLevel: parseLogLevel(getEnv("LOG_LEVEL", "INFO")),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil || f <= 0 {
		return defaultVal
	}
	return f
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
