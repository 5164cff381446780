package report

import (
	"fmt"

	"salesledger/internal/filter"
	"salesledger/internal/models"
)

// Config holds options for the report assembler
type Config struct {
	// Per-branch work runs on at most MaxConcurrency goroutines
	MaxConcurrency int

	// DateRange restricts the ledger before any selection is applied
	DateRange filter.DateRange

	// DateField picks the record date used for monthly bucketing
	DateField models.DateField

	// RollingWindow, when positive, adds a trailing mean of each branch series
	RollingWindow int
}

// DefaultConfig returns a default configuration for the assembler
func DefaultConfig() *Config {
	return &Config{
		MaxConcurrency: 4,
		DateField:      models.DateFieldDocument,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.MaxConcurrency <= 0 {
		return fmt.Errorf("max concurrency must be positive, got %d", c.MaxConcurrency)
	}
	if c.RollingWindow < 0 {
		return fmt.Errorf("rolling window cannot be negative, got %d", c.RollingWindow)
	}
	if !c.DateRange.From.IsZero() && !c.DateRange.To.IsZero() && c.DateRange.From.After(c.DateRange.To) {
		return fmt.Errorf("start date must be before end date")
	}
	return nil
}
