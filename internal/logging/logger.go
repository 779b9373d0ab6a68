package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel represents different log levels
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the string representation of the log level
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a --log-level value to a LogLevel.
func ParseLevel(level string) (LogLevel, error) {
	switch strings.ToLower(level) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q (expected debug, info, warn, or error)", level)
	}
}

func (l LogLevel) zapLevel() zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Logger interface for structured logging
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...interface{})
	Info(ctx context.Context, msg string, fields ...interface{})
	Warn(ctx context.Context, err error, msg string, fields ...interface{})
	Error(ctx context.Context, err error, msg string, fields ...interface{})

	With(fields ...interface{}) Logger
	WithComponent(component string) Logger
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level  LogLevel
	Format string // "json" or "text"
	Output io.Writer
}

// DefaultConfig returns default logger configuration
func DefaultConfig() *LoggerConfig {
	return &LoggerConfig{
		Level:  LevelInfo,
		Format: "text",
		Output: os.Stderr,
	}
}

// PagesLogger implements Logger on top of zap.
type PagesLogger struct {
	logger *zap.SugaredLogger
}

// NewLogger creates a new structured logger
func NewLogger(config *LoggerConfig) *PagesLogger {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Output == nil {
		config.Output = os.Stderr
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	var encoder zapcore.Encoder
	if config.Format == "json" {
		encCfg = zap.NewProductionEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(encCfg)
	} else {
		encoder = zapcore.NewConsoleEncoder(encCfg)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(config.Output), zap.NewAtomicLevelAt(config.Level.zapLevel()))
	return &PagesLogger{logger: zap.New(core).Sugar()}
}

// NewNop returns a logger that discards everything.
func NewNop() *PagesLogger {
	return &PagesLogger{logger: zap.NewNop().Sugar()}
}

// Debug logs a debug message
func (l *PagesLogger) Debug(_ context.Context, msg string, fields ...interface{}) {
	l.logger.Debugw(msg, fields...)
}

// Info logs an info message
func (l *PagesLogger) Info(_ context.Context, msg string, fields ...interface{}) {
	l.logger.Infow(msg, fields...)
}

// Warn logs a warning message
func (l *PagesLogger) Warn(_ context.Context, err error, msg string, fields ...interface{}) {
	l.logger.Warnw(msg, withError(err, fields)...)
}

// Error logs an error message
func (l *PagesLogger) Error(_ context.Context, err error, msg string, fields ...interface{}) {
	l.logger.Errorw(msg, withError(err, fields)...)
}

// With creates a new logger with additional fields
func (l *PagesLogger) With(fields ...interface{}) Logger {
	return &PagesLogger{logger: l.logger.With(fields...)}
}

// WithComponent creates a new logger with component context
func (l *PagesLogger) WithComponent(component string) Logger {
	return &PagesLogger{logger: l.logger.Named(component)}
}

// Sync flushes buffered log entries.
func (l *PagesLogger) Sync() error {
	return l.logger.Sync()
}

func withError(err error, fields []interface{}) []interface{} {
	if err == nil {
		return fields
	}
	return append([]interface{}{zap.Error(err)}, fields...)
}
