package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Ledger drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	LedgerDriver          string
	DatabaseURL           string
	SQLitePath            string
	Network               string
	Currencies            string
	HTTPPort              string
	AdminAPIKey           string
	MaxRequestBytes       int
	StatementInterval     time.Duration
	StatementPath         string
	SheetsSpreadsheetID   string
	GoogleCredentialsJSON string
	LogLevel              slog.Level
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	cfg := Config{
		LedgerDriver:          envOrDefaultDriver("LEDGER_DRIVER", DriverMemory),
		DatabaseURL:           envOrDefault("DATABASE_URL", ""),
		SQLitePath:            envOrDefault("SQLITE_PATH", "xcurrency.db"),
		Network:               envOrDefault("NETWORK", "any"),
		Currencies:            envOrDefault("CURRENCIES", "EURMTL:7"),
		HTTPPort:              envOrDefault("HTTP_PORT", "8080"),
		AdminAPIKey:           envOrDefault("ADMIN_API_KEY", ""),
		MaxRequestBytes:       envOrDefaultInt("MAX_REQUEST_BYTES", 1<<20),
		StatementInterval:     envOrDefaultDuration("STATEMENT_INTERVAL", 1*time.Hour),
		StatementPath:         envOrDefault("STATEMENT_PATH", ""),
		SheetsSpreadsheetID:   envOrDefault("SHEETS_SPREADSHEET_ID", ""),
		GoogleCredentialsJSON: envOrDefault("GOOGLE_CREDENTIALS_JSON", ""),
		LogLevel:              envOrDefaultLevel("LOG_LEVEL", slog.LevelInfo),
	}
	if cfg.LedgerDriver == DriverPostgres {
		cfg.DatabaseURL = envOrDefaultWarn("DATABASE_URL", "")
	}
	return cfg
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envOrDefaultWarn(key, defaultVal string) string {
	v := envOrDefault(key, defaultVal)
	if v == "" {
		slog.Warn("required env var not set", "key", key)
	}
	return v
}

func envOrDefaultInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			slog.Warn("invalid integer env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return n
	}
	return defaultVal
}

func envOrDefaultDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			slog.Warn("invalid duration env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		if d <= 0 {
			slog.Warn("non-positive duration env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return d
	}
	return defaultVal
}

// ParseDriver normalizes a ledger driver name.
func ParseDriver(s string) (string, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case DriverMemory, DriverPostgres, DriverSQLite:
		return v, nil
	}
	return "", fmt.Errorf("unknown ledger driver %q (want %s, %s or %s)", s, DriverMemory, DriverPostgres, DriverSQLite)
}

func envOrDefaultDriver(key, defaultVal string) string {
	v := envOrDefault(key, defaultVal)
	d, err := ParseDriver(v)
	if err != nil {
		slog.Warn("unknown ledger driver, using default", "key", key, "value", v, "default", defaultVal)
		return defaultVal
	}
	return d
}

func envOrDefaultLevel(key string, defaultVal slog.Level) slog.Level {
	if v := os.Getenv(key); v != "" {
		var l slog.Level
		if err := l.UnmarshalText([]byte(v)); err != nil {
			slog.Warn("invalid log level env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return l
	}
	return defaultVal
}
