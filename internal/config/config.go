package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/robfig/cron/v3"
)

// Config holds the application configuration.
type Config struct {
	ServerPort   int
	StaticRoot   string // Directory served for GET requests
	BackupDir    string // Where POST /backup payloads are written
	DatabasePath string
	LogLevel     string

	AllowedOrigins    []string
	MaxBackupBytes    int64
	UniqueBackupNames bool // Append a random suffix so same-second backups don't collide

	DiskCheckSchedule  string // Cron spec, empty disables the storage monitor
	DiskUsageThreshold float64
}

// Load loads configuration from environment variables or sets defaults.
func Load() (*Config, error) {
	port, err := strconv.Atoi(getEnv("PORT", "8000"))
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}
	if port < 0 || port > 65535 {
		return nil, fmt.Errorf("invalid PORT: %d out of range", port)
	}

	maxBytes, err := strconv.ParseInt(getEnv("MAX_BACKUP_BYTES", "33554432"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_BACKUP_BYTES: %w", err)
	}

	unique, err := strconv.ParseBool(getEnv("BACKUP_UNIQUE_NAMES", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid BACKUP_UNIQUE_NAMES: %w", err)
	}

	threshold, err := strconv.ParseFloat(getEnv("DISK_USAGE_THRESHOLD", "90"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid DISK_USAGE_THRESHOLD: %w", err)
	}

	schedule := getEnv("DISK_CHECK_SCHEDULE", "*/15 * * * *")
	if schedule != "" {
		if _, err := cron.ParseStandard(schedule); err != nil {
			return nil, fmt.Errorf("invalid DISK_CHECK_SCHEDULE: %w", err)
		}
	}

	return &Config{
		ServerPort:         port,
		StaticRoot:         getEnv("STATIC_ROOT", "."),
		BackupDir:          getEnv("BACKUP_DIR", "backup"),
		DatabasePath:       getEnv("DATABASE_PATH", "./devserver.db"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		AllowedOrigins:     splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		MaxBackupBytes:     maxBytes,
		UniqueBackupNames:  unique,
		DiskCheckSchedule:  schedule,
		DiskUsageThreshold: threshold,
	}, nil
}

// Addr returns the listen address on all interfaces.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.ServerPort)
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
