// Package numerator provides domain contracts for invoice auto-numbering.
package numerator

import (
	"fmt"
	"strconv"
	"strings"
)

// Config holds numbering configuration.
type Config struct {
	// Prefix added to all numbers (e.g., "INV")
	Prefix string

	// PadWidth is the minimum width of the sequence part
	PadWidth int
}

// DefaultConfig returns the invoice numbering scheme: INV-2026-000001.
func DefaultConfig() Config {
	return Config{
		Prefix:   "INV",
		PadWidth: 6,
	}
}

// Format renders a number for the given year and sequence.
func (c Config) Format(year int, seq int64) string {
	padWidth := c.PadWidth
	if padWidth == 0 {
		padWidth = 6
	}
	return fmt.Sprintf("%s-%04d-%0*d", c.Prefix, year, padWidth, seq)
}

// Parse extracts year and sequence from a formatted number.
func (c Config) Parse(number string) (year int, seq int64, err error) {
	parts := strings.Split(number, "-")
	if len(parts) != 3 || parts[0] != c.Prefix {
		return 0, 0, fmt.Errorf("malformed number %q", number)
	}
	year, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("malformed year in %q: %w", number, err)
	}
	seq, err = strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed sequence in %q: %w", number, err)
	}
	return year, seq, nil
}
