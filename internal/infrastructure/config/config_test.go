package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/bookd/internal/domain"
	"github.com/iho/bookd/internal/infrastructure/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected default HTTP port 8080, got %s", cfg.HTTPPort)
	}

	if cfg.JWTSecret != "" {
		t.Fatalf("expected JWT secret default to be empty, got %q", cfg.JWTSecret)
	}

	if !cfg.LedgerAutoVivify || cfg.LedgerRequireCommodities {
		t.Fatalf("expected permissive ledger defaults, got %+v", cfg)
	}

	if cfg.IdempotencyTTL != 24*time.Hour {
		t.Fatalf("expected 24h idempotency TTL, got %s", cfg.IdempotencyTTL)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("HTTP_READ_TIMEOUT", "45s")
	t.Setenv("JWT_SECRET", "top-secret")
	t.Setenv("AUTH_USERS", "books@example.com:pw:bookkeeper")
	t.Setenv("LEDGER_DEFAULT_BOOKING", "STRICT")
	t.Setenv("LEDGER_MAX_ERRORS", "25")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.HTTPPort != "9090" {
		t.Fatalf("expected HTTP port override, got %s", cfg.HTTPPort)
	}

	if cfg.HTTPReadTimeout != 45*time.Second {
		t.Fatalf("expected read timeout override, got %s", cfg.HTTPReadTimeout)
	}

	if cfg.JWTSecret != "top-secret" || cfg.AuthUsers == "" {
		t.Fatalf("expected auth settings to be set, got %+v", cfg)
	}

	if cfg.LedgerDefaultBooking != "STRICT" || cfg.LedgerMaxErrors != 25 {
		t.Fatalf("expected ledger overrides, got %+v", cfg)
	}
}

func TestLoadInvalidDuration(t *testing.T) {
	original := os.Getenv("HTTP_READ_TIMEOUT")
	t.Setenv("HTTP_READ_TIMEOUT", "not-a-duration")
	t.Cleanup(func() {
		t.Setenv("HTTP_READ_TIMEOUT", original)
	})

	if _, err := config.Load(); err == nil {
		t.Fatalf("expected error for invalid duration")
	}
}

func TestEngineOptionsFromEnv(t *testing.T) {
	t.Setenv("LEDGER_AUTO_VIVIFY", "false")
	t.Setenv("LEDGER_STRICT_PRICES", "true")
	t.Setenv("LEDGER_DEFAULT_BOOKING", "LIFO")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	opts, err := cfg.EngineOptions()
	if err != nil {
		t.Fatalf("unexpected error resolving options: %v", err)
	}

	if opts.AutoVivify || !opts.StrictPrices {
		t.Fatalf("expected env knobs to apply, got %+v", opts)
	}
	if opts.DefaultBooking != domain.BookingLIFO {
		t.Fatalf("expected LIFO booking, got %s", opts.DefaultBooking)
	}
}

func TestEngineOptionsFileOverridesEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ledger.toml")
	content := `
require_commodities = true
default_booking = "STRICT"
max_errors = 10

[tolerance]
default = "0.005"

[tolerance.commodity]
JPY = "0.5"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write options file: %v", err)
	}

	t.Setenv("LEDGER_DEFAULT_BOOKING", "FIFO")
	t.Setenv("LEDGER_OPTIONS_FILE", path)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	opts, err := cfg.EngineOptions()
	if err != nil {
		t.Fatalf("unexpected error resolving options: %v", err)
	}

	if !opts.RequireCommodities || opts.DefaultBooking != domain.BookingStrict || opts.MaxErrors != 10 {
		t.Fatalf("expected file to override env, got %+v", opts)
	}

	if !opts.Tolerance.Default.Equal(decimal.RequireFromString("0.005")) {
		t.Fatalf("expected default tolerance 0.005, got %s", opts.Tolerance.Default)
	}
	if !opts.Tolerance.For("JPY").Equal(decimal.RequireFromString("0.5")) {
		t.Fatalf("expected JPY tolerance 0.5, got %s", opts.Tolerance.For("JPY"))
	}
	// AutoVivify untouched by the file keeps its env default.
	if !opts.AutoVivify {
		t.Fatalf("expected auto-vivify default to survive, got %+v", opts)
	}
}

func TestEngineOptionsBadBooking(t *testing.T) {
	t.Setenv("LEDGER_DEFAULT_BOOKING", "NEWEST")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if _, err := cfg.EngineOptions(); err == nil {
		t.Fatal("expected error for unknown booking method")
	}
}

func TestEngineOptionsMissingFile(t *testing.T) {
	t.Setenv("LEDGER_OPTIONS_FILE", filepath.Join(t.TempDir(), "absent.toml"))

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if _, err := cfg.EngineOptions(); err == nil {
		t.Fatal("expected error for missing options file")
	}
}
