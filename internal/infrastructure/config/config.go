package config

import (
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all application configuration.
type Config struct {
	// HTTP Server
	HTTPPort            string        `env:"HTTP_PORT"             envDefault:"8080"`
	HTTPReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT"     envDefault:"30s"`
	HTTPWriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT"    envDefault:"30s"`
	HTTPIdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT"     envDefault:"60s"`
	HTTPShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Idempotency
	IdempotencyTTL time.Duration `env:"IDEMPOTENCY_TTL" envDefault:"24h"`

	// Rate limiting (0 disables)
	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS"   envDefault:"0"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"20"`

	// Authentication (optional - leave empty to disable). AuthUsers is a
	// comma-separated list of email:password:role triples.
	JWTSecret     string        `env:"JWT_SECRET"     envDefault:""`
	JWTExpiration time.Duration `env:"JWT_EXPIRATION" envDefault:"24h"`
	AuthUsers     string        `env:"AUTH_USERS"     envDefault:""`

	// Ledger engine knobs. LedgerOptionsFile points at an optional TOML
	// file that overrides the env values and carries the tolerance table.
	LedgerAutoVivify         bool   `env:"LEDGER_AUTO_VIVIFY"         envDefault:"true"`
	LedgerRequireCommodities bool   `env:"LEDGER_REQUIRE_COMMODITIES" envDefault:"false"`
	LedgerStrictPrices       bool   `env:"LEDGER_STRICT_PRICES"       envDefault:"false"`
	LedgerDefaultBooking     string `env:"LEDGER_DEFAULT_BOOKING"     envDefault:"FIFO"`
	LedgerMaxErrors          int    `env:"LEDGER_MAX_ERRORS"          envDefault:"0"`
	LedgerOptionsFile        string `env:"LEDGER_OPTIONS_FILE"        envDefault:""`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	err := env.Parse(cfg)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}
