package logging

import (
	"os"

	"github.com/rs/zerolog"

	"github.com/edvin/haas/internal/config"
)

// NewLogger creates a structured zerolog.Logger tagged with the service name.
// The level comes from LOG_LEVEL and falls back to info.
func NewLogger(cfg *config.Config) zerolog.Logger {
	ctx := zerolog.New(os.Stdout).With().Timestamp()

	if cfg.ServiceName != "" {
		ctx = ctx.Str("service", cfg.ServiceName)
	}
	if host, err := os.Hostname(); err == nil {
		ctx = ctx.Str("host", host)
	}

	logger := ctx.Logger()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}

	return logger.Level(level)
}
