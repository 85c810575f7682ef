package logger

import (
	"go.uber.org/zap/zapcore"
)

// Config selects the log encoding and threshold.
type Config struct {
	Format string        `toml:"format" mapstructure:"format"` // "console", "json" or "auto"
	Level  zapcore.Level `toml:"level" mapstructure:"level"`
}

// NewConfig returns a new instance of Config with defaults.
func NewConfig() Config {
	return Config{
		Format: "auto",
		Level:  zapcore.InfoLevel,
	}
}
