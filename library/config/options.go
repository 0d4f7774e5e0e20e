package config

import (
	"time"

	"go.uber.org/zap/zapcore"
)

type Option func(*Config)

// WithLogLevel sets the level used when LOG_LEVEL is not set.
func WithLogLevel(level zapcore.Level) Option {
	return func(c *Config) {
		c.Log.LogLevel = level
	}
}

func WithWriteTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.Server.WriteTimeout = timeout
	}
}
