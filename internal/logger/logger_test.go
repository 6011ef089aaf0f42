package logger

import (
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name   string
		level  string
		format string
	}{
		{"debug level", "debug", "console"},
		{"info level", "info", "console"},
		{"warn level", "warn", "console"},
		{"error level", "error", "console"},
		{"json format", "info", "json"},
		{"lowercase level", "debug", "console"},
		{"uppercase level", "DEBUG", "console"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// New should not panic
			log := New(tt.level, tt.format)
			if log == nil {
				t.Error("expected logger to be initialized")
			}
		})
	}
}

func TestLoggerMethodsExist(t *testing.T) {
	log := New("info", "console")

	// These should not panic
	log.Info("test info message", "key", "value")
	log.Debug("test debug message", "key", "value")
	log.Warn("test warn message", "key", "value")
	log.Error("test error message", "key", "value")
}

func TestLoggerWithMultipleFields(t *testing.T) {
	log := New("debug", "console")

	// Test with multiple key-value pairs
	log.Info(
		"multi-field test",
		"string_field", "value",
		"int_field", 42,
		"float_field", 3.14,
		"bool_field", true,
	)
}

func TestLoggerWithNoFields(t *testing.T) {
	log := New("info", "console")

	// Test with no additional fields
	log.Info("no fields message")
	log.Debug("debug no fields")
	log.Warn("warn no fields")
	log.Error("error no fields")
}

func TestLoggerWithOddArgs(t *testing.T) {
	log := New("info", "console")

	// Test with odd number of args (last key without value)
	log.Info("odd args", "key1", "value1", "orphan_key")
}

func TestLoggerLevelFiltering(t *testing.T) {
	// Build with error level - debug and info should be filtered
	log := New("error", "console")

	// These should not panic even though they may be filtered
	log.Error("error message should appear")
	log.Debug("debug message should be filtered")
	log.Info("info message should be filtered")
	log.Warn("warn message should be filtered")
}

func TestNop(t *testing.T) {
	log := Nop()
	if log == nil {
		t.Fatal("expected nop logger to be initialized")
	}

	// Everything is discarded; nothing should panic
	log.Info("discarded")
	log.Warn("discarded", "key", "value")
	log.Error("discarded")
}

func TestLoggerCaseInsensitiveLevel(t *testing.T) {
	levels := []string{"DEBUG", "Debug", "debug", "Info", "INFO", "info"}

	for _, level := range levels {
		log := New(level, "console")
		// Just verify no panic
		log.Info("test")
	}
}

func TestAddFieldsWithNonStringKey(t *testing.T) {
	log := New("info", "console")

	// Test with non-string key (should be converted to string)
	log.Info("test non-string key", 123, "value")
}

func TestAddFieldsWithNilValue(t *testing.T) {
	log := New("info", "console")

	// Test with nil value
	log.Info("test nil value", "key", nil)
}
