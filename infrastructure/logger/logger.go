// Package logger provides the logrus-based structured logger used by the
// cmd/nodestatus orchestrator; the ingesters log through zap and the
// publisher through zerolog.
package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger wraps logrus.Logger with the component field convention used
// across the pipeline.
type Logger struct {
	*logrus.Logger
}

// Config controls level, format and destination of a Logger.
type Config struct {
	Level      string `envconfig:"LOG_LEVEL"`
	Format     string `envconfig:"LOG_FORMAT"`
	Output     string `envconfig:"LOG_OUTPUT"`
	FilePrefix string `envconfig:"LOG_FILE_PREFIX"`
}

// New builds a Logger from cfg, falling back to info/text/stdout for any
// field left unset or unparsable.
func New(cfg Config) *Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	switch strings.ToLower(cfg.Format) {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	switch strings.ToLower(cfg.Output) {
	case "file":
		prefix := cfg.FilePrefix
		if prefix == "" {
			prefix = "nodestatus"
		}
		if err := os.MkdirAll("logs", 0o755); err != nil {
			logger.Errorf("create log directory: %v", err)
			break
		}
		path := filepath.Join("logs", prefix+".log")
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			logger.Errorf("open log file: %v", err)
			break
		}
		logger.SetOutput(io.MultiWriter(os.Stdout, file))
	default:
		logger.SetOutput(os.Stdout)
	}

	return &Logger{Logger: logger}
}

// Component returns a *logrus.Entry from a Logger with level=info and text
// output to stdout, with a "component" field preset.
func Component(name string) *logrus.Entry {
	l := New(Config{})
	return l.WithField("component", name)
}
