package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml"
	"github.com/shopspring/decimal"

	"github.com/iho/bookd/internal/domain"
)

// fileOptions is the TOML shape of LEDGER_OPTIONS_FILE. Absent keys keep
// their env-derived values.
type fileOptions struct {
	AutoVivify         *bool         `toml:"auto_vivify"`
	RequireCommodities *bool         `toml:"require_commodities"`
	StrictPrices       *bool         `toml:"strict_prices"`
	DefaultBooking     string        `toml:"default_booking"`
	MaxErrors          *int          `toml:"max_errors"`
	Tolerance          fileTolerance `toml:"tolerance"`
}

// fileTolerance holds balancing tolerances as decimal strings, e.g.
//
//	[tolerance]
//	default = "0.005"
//	[tolerance.commodity]
//	JPY = "0.5"
type fileTolerance struct {
	Default   string            `toml:"default"`
	Commodity map[string]string `toml:"commodity"`
}

// EngineOptions resolves the ledger engine options: env values first, the
// optional TOML file on top.
func (c *Config) EngineOptions() (domain.Options, error) {
	booking, err := domain.ParseBookingMethod(c.LedgerDefaultBooking)
	if err != nil {
		return domain.Options{}, err
	}

	opts := domain.Options{
		AutoVivify:         c.LedgerAutoVivify,
		RequireCommodities: c.LedgerRequireCommodities,
		StrictPrices:       c.LedgerStrictPrices,
		DefaultBooking:     booking,
		Tolerance:          domain.NewTolerance(),
		MaxErrors:          c.LedgerMaxErrors,
	}

	if c.LedgerOptionsFile == "" {
		return opts, nil
	}

	data, err := os.ReadFile(c.LedgerOptionsFile)
	if err != nil {
		return domain.Options{}, fmt.Errorf("read ledger options: %w", err)
	}

	var file fileOptions
	if err := toml.Unmarshal(data, &file); err != nil {
		return domain.Options{}, fmt.Errorf("parse ledger options: %w", err)
	}

	if file.AutoVivify != nil {
		opts.AutoVivify = *file.AutoVivify
	}
	if file.RequireCommodities != nil {
		opts.RequireCommodities = *file.RequireCommodities
	}
	if file.StrictPrices != nil {
		opts.StrictPrices = *file.StrictPrices
	}
	if file.MaxErrors != nil {
		opts.MaxErrors = *file.MaxErrors
	}
	if file.DefaultBooking != "" {
		booking, err := domain.ParseBookingMethod(file.DefaultBooking)
		if err != nil {
			return domain.Options{}, fmt.Errorf("ledger options: %w", err)
		}
		opts.DefaultBooking = booking
	}

	if file.Tolerance.Default != "" {
		eps, err := decimal.NewFromString(file.Tolerance.Default)
		if err != nil {
			return domain.Options{}, fmt.Errorf("ledger options: default tolerance: %w", err)
		}
		opts.Tolerance.Default = eps
	}
	for commodity, s := range file.Tolerance.Commodity {
		eps, err := decimal.NewFromString(s)
		if err != nil {
			return domain.Options{}, fmt.Errorf("ledger options: tolerance for %s: %w", commodity, err)
		}
		opts.Tolerance = opts.Tolerance.With(commodity, eps)
	}

	return opts, nil
}
