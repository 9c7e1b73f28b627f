package config

import (
	"log/slog"
	"os"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	// Clear any env vars that might affect defaults
	for _, key := range []string{"LEDGER_DRIVER", "DATABASE_URL", "SQLITE_PATH", "NETWORK", "CURRENCIES",
		"HTTP_PORT", "ADMIN_API_KEY", "MAX_REQUEST_BYTES", "STATEMENT_INTERVAL", "LOG_LEVEL"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg := Load()

	if cfg.LedgerDriver != DriverMemory {
		t.Errorf("LedgerDriver = %q, want memory", cfg.LedgerDriver)
	}
	if cfg.DatabaseURL != "" {
		t.Errorf("DatabaseURL = %q, want empty", cfg.DatabaseURL)
	}
	if cfg.SQLitePath != "xcurrency.db" {
		t.Errorf("SQLitePath = %q, want default", cfg.SQLitePath)
	}
	if cfg.Network != "any" {
		t.Errorf("Network = %q, want any", cfg.Network)
	}
	if cfg.Currencies != "EURMTL:7" {
		t.Errorf("Currencies = %q, want default", cfg.Currencies)
	}
	if cfg.HTTPPort != "8080" {
		t.Errorf("HTTPPort = %q, want 8080", cfg.HTTPPort)
	}
	if cfg.MaxRequestBytes != 1<<20 {
		t.Errorf("MaxRequestBytes = %d, want 1MiB", cfg.MaxRequestBytes)
	}
	if cfg.StatementInterval != time.Hour {
		t.Errorf("StatementInterval = %v, want 1h", cfg.StatementInterval)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, want INFO", cfg.LogLevel)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("LEDGER_DRIVER", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/testdb")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("CURRENCIES", "AAA:12,BBB:2")
	t.Setenv("MAX_REQUEST_BYTES", "4096")
	t.Setenv("STATEMENT_INTERVAL", "5m")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := Load()

	if cfg.LedgerDriver != DriverPostgres {
		t.Errorf("LedgerDriver = %q, want postgres", cfg.LedgerDriver)
	}
	if cfg.DatabaseURL != "postgres://localhost/testdb" {
		t.Errorf("DatabaseURL = %q, want override", cfg.DatabaseURL)
	}
	if cfg.HTTPPort != "9090" {
		t.Errorf("HTTPPort = %q, want 9090", cfg.HTTPPort)
	}
	if cfg.Currencies != "AAA:12,BBB:2" {
		t.Errorf("Currencies = %q, want override", cfg.Currencies)
	}
	if cfg.MaxRequestBytes != 4096 {
		t.Errorf("MaxRequestBytes = %d, want 4096", cfg.MaxRequestBytes)
	}
	if cfg.StatementInterval != 5*time.Minute {
		t.Errorf("StatementInterval = %v, want 5m", cfg.StatementInterval)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, want DEBUG", cfg.LogLevel)
	}
}

func TestLoadNonPositiveIntervalFallsBackToDefault(t *testing.T) {
	for _, v := range []string{"0s", "-5m"} {
		t.Setenv("STATEMENT_INTERVAL", v)

		cfg := Load()

		if cfg.StatementInterval != time.Hour {
			t.Errorf("StatementInterval for %q = %v, want default 1h", v, cfg.StatementInterval)
		}
	}
}

func TestParseDriver(t *testing.T) {
	for in, want := range map[string]string{"memory": DriverMemory, "SQLite": DriverSQLite, " postgres ": DriverPostgres} {
		got, err := ParseDriver(in)
		if err != nil {
			t.Errorf("ParseDriver(%q) error: %v", in, err)
		}
		if got != want {
			t.Errorf("ParseDriver(%q) = %q, want %q", in, got, want)
		}
	}
	for _, in := range []string{"postgrse", "", "mongo"} {
		if _, err := ParseDriver(in); err == nil {
			t.Errorf("ParseDriver(%q) expected error", in)
		}
	}
}

func TestLoadInvalidEnvFallsBackToDefault(t *testing.T) {
	t.Setenv("LEDGER_DRIVER", "mongo")
	t.Setenv("MAX_REQUEST_BYTES", "not-a-number")
	t.Setenv("STATEMENT_INTERVAL", "invalid-duration")
	t.Setenv("LOG_LEVEL", "loud")

	cfg := Load()

	if cfg.LedgerDriver != DriverMemory {
		t.Errorf("LedgerDriver = %q, want default memory on invalid input", cfg.LedgerDriver)
	}
	if cfg.MaxRequestBytes != 1<<20 {
		t.Errorf("MaxRequestBytes = %d, want default on invalid input", cfg.MaxRequestBytes)
	}
	if cfg.StatementInterval != time.Hour {
		t.Errorf("StatementInterval = %v, want default 1h on invalid input", cfg.StatementInterval)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, want default INFO on invalid input", cfg.LogLevel)
	}
}
