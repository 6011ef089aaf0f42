package config

import (
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Seed != 1337 {
		t.Errorf("expected Seed 1337, got %d", cfg.Seed)
	}
	if cfg.DefaultCapacity != 16 {
		t.Errorf("expected DefaultCapacity 16, got %d", cfg.DefaultCapacity)
	}
	if cfg.RowLength != 256 {
		t.Errorf("expected RowLength 256, got %d", cfg.RowLength)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected LogLevel info, got %q", cfg.LogLevel)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config must validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config { return *Default() }

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid config", func(c *Config) {}, false},
		{"uppercase level", func(c *Config) { c.LogLevel = "DEBUG" }, false},
		{"json format", func(c *Config) { c.LogFormat = "json" }, false},
		{"invalid level", func(c *Config) { c.LogLevel = "verbose" }, true},
		{"invalid format", func(c *Config) { c.LogFormat = "xml" }, true},
		{"zero capacity", func(c *Config) { c.DefaultCapacity = 0 }, true},
		{"zero row length", func(c *Config) { c.RowLength = 0 }, true},
		{"negative row length", func(c *Config) { c.RowLength = -8 }, true},
		{"zero stride", func(c *Config) { c.RowStride = 0 }, true},
		{"length not multiple of stride", func(c *Config) { c.RowLength = 10; c.RowStride = 4 }, true},
		{"odd walked count", func(c *Config) { c.RowLength = 6; c.RowStride = 2 }, true},
		{"even strided count", func(c *Config) { c.RowLength = 8; c.RowStride = 2 }, false},
		{"zero iterations", func(c *Config) { c.Iterations = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
