// Package logger provides structured logging for blitzscan
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Fields represents structured log fields
type Fields map[string]interface{}

// Logger wraps logrus.Logger with additional functionality
type Logger struct {
	*logrus.Logger
}

// Options controls formatter and output of a logger built with NewLoggerWithOptions.
type Options struct {
	Level      logrus.Level
	Format     string // "text" or "json"
	File       string // optional rotating log file, written in addition to stderr
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// NewLogger creates a new structured logger
func NewLogger(level logrus.Level) *Logger {
	return NewLoggerWithOptions(Options{Level: level})
}

// NewLoggerWithOptions creates a logger honouring format and file rotation settings.
func NewLoggerWithOptions(opts Options) *Logger {
	logger := logrus.New()
	logger.SetLevel(opts.Level)

	// Use JSON formatter for structured logging in production
	if os.Getenv("ENV") == "production" || strings.EqualFold(opts.Format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		})
	}

	if opts.File != "" {
		rotating := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    orDefault(opts.MaxSizeMB, 10),
			MaxBackups: orDefault(opts.MaxBackups, 3),
			MaxAge:     orDefault(opts.MaxAgeDays, 28),
			Compress:   true,
		}
		logger.SetOutput(io.MultiWriter(os.Stderr, rotating))
	}

	return &Logger{Logger: logger}
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// WithScan adds scan-specific fields to the logger
func (l *Logger) WithScan(scanID, kind string) *logrus.Entry {
	return l.Logger.WithFields(logrus.Fields{
		"scan_id":   scanID,
		"scan_kind": kind,
	})
}

// WithError adds error context to the logger
func (l *Logger) WithError(err error) *logrus.Entry {
	return l.Logger.WithError(err)
}

// WithFields adds multiple fields to the logger
func (l *Logger) WithFields(fields Fields) *logrus.Entry {
	return l.Logger.WithFields(logrus.Fields(fields))
}

// Timed logs the start and end of fn, including its duration
func (l *Logger) Timed(action string, fields Fields, fn func() error) error {
	start := time.Now()

	entry := l.WithFields(fields).WithField("action", action)
	entry.Debug("started")

	err := fn()
	entry = entry.WithField("duration", time.Since(start).String())

	if err != nil {
		entry.WithError(err).Error("failed")
	} else {
		entry.Info("completed")
	}

	return err
}

// Default logger instance
var defaultLogger = NewLogger(logrus.InfoLevel)

// Default returns the process-wide logger.
func Default() *Logger {
	return defaultLogger
}

// SetDefault replaces the process-wide logger.
func SetDefault(l *Logger) {
	if l != nil {
		defaultLogger = l
	}
}
