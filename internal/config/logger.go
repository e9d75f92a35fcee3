package config

import (
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/health-analytics-server/internal/domain"
)

// NewLogger builds the process logger. Unknown levels fall back to info and any
// format other than "text" logs JSON.
func NewLogger(cfg domain.LoggingConfig) *logrus.Logger {
	return newLogger(cfg, os.Stdout)
}

func newLogger(cfg domain.LoggingConfig, out io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: time.RFC3339,
			FullTimestamp:   true,
		})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	}

	return logger
}

// LiteLogger builds a logger from a LiteConfig. MCP stdio servers must keep
// stdout clean for the protocol, so lite loggers write to stderr.
func LiteLogger(cfg *LiteConfig) *logrus.Logger {
	return newLogger(domain.LoggingConfig{Level: cfg.LogLevel, Format: cfg.LogFormat}, os.Stderr)
}
