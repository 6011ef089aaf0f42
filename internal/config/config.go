package config

import (
	"fmt"
	"strings"
)

// Config carries the explicit runtime configuration for the numeric
// core tooling. There is no process-global state: the seed and logging
// choices travel with the Config to whoever needs them.
type Config struct {
	LogLevel  string
	LogFormat string

	// Seed drives every pseudo-random sequence in the diagnostic
	// tooling; equal seeds reproduce equal runs.
	Seed int64

	// DefaultCapacity is the initial element capacity used when a
	// caller does not specify one.
	DefaultCapacity uint32

	// RowLength and RowStride shape the probe rows used by the codec
	// diagnostics.
	RowLength int
	RowStride int

	// Iterations is the number of probe rows sampled per codec.
	Iterations int
}

// Default returns the configuration used when no flags override it.
func Default() *Config {
	return &Config{
		LogLevel:        "info",
		LogFormat:       "console",
		Seed:            1337,
		DefaultCapacity: 16,
		RowLength:       256,
		RowStride:       1,
		Iterations:      100,
	}
}

func (c *Config) Validate() error {
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level: %q (must be debug, info, warn or error)", c.LogLevel)
	}
	switch strings.ToLower(c.LogFormat) {
	case "console", "json":
	default:
		return fmt.Errorf("invalid log_format: %q (must be console or json)", c.LogFormat)
	}
	if c.DefaultCapacity == 0 {
		return fmt.Errorf("invalid default_capacity: %d (must be positive)", c.DefaultCapacity)
	}
	if c.RowLength <= 0 {
		return fmt.Errorf("invalid row_length: %d (must be positive)", c.RowLength)
	}
	if c.RowStride <= 0 {
		return fmt.Errorf("invalid row_stride: %d (must be positive)", c.RowStride)
	}
	if c.RowLength%c.RowStride != 0 {
		return fmt.Errorf("row_length (%d) must be a multiple of row_stride (%d)", c.RowLength, c.RowStride)
	}
	if (c.RowLength/c.RowStride)%2 != 0 {
		return fmt.Errorf("row_length/row_stride (%d) must be even for the q4 pair codec", c.RowLength/c.RowStride)
	}
	if c.Iterations <= 0 {
		return fmt.Errorf("invalid iterations: %d (must be positive)", c.Iterations)
	}
	return nil
}
