package logger

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/brizzai/social-connect/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	formatConsole = "console"
	formatJSON    = "json"

	// redactKeep is how many leading characters of a secret survive in log output
	redactKeep = 6
)

var globalLogger = zap.NewNop()

// encoderFor picks the zap encoding and its encoder config for cfg.Format
func encoderFor(cfg *config.LoggingConfig) (string, zapcore.EncoderConfig, error) {
	switch cfg.Format {
	case formatJSON:
		ec := zap.NewProductionEncoderConfig()
		ec.EncodeTime = zapcore.ISO8601TimeEncoder
		ec.EncodeLevel = zapcore.CapitalLevelEncoder
		return formatJSON, ec, nil
	case formatConsole, "":
		ec := zap.NewDevelopmentEncoderConfig()
		ec.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")
		ec.EncodeCaller = zapcore.ShortCallerEncoder
		ec.EncodeDuration = zapcore.StringDurationEncoder
		ec.EncodeLevel = zapcore.CapitalLevelEncoder
		if cfg.Color {
			ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
		return formatConsole, ec, nil
	default:
		return "", zapcore.EncoderConfig{}, fmt.Errorf("invalid log format: %q", cfg.Format)
	}
}

// sinks resolves where regular and internal error output go. Stdout and stderr
// are the fallback when the console is disabled and no file is configured.
func sinks(cfg *config.LoggingConfig) (out []string, errOut []string, err error) {
	if !cfg.DisableConsole {
		out, errOut = []string{"stdout"}, []string{"stderr"}
	}

	if path := cfg.OutputPath; path != "" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
			}
		}
		if !cfg.AppendToFile {
			_ = os.Remove(path)
		}
		out = append(out, path)
		errOut = append(errOut, path)
	}

	if len(out) == 0 {
		out, errOut = []string{"stdout"}, []string{"stderr"}
	}
	return out, errOut, nil
}

// InitLogger initializes the global logger with the given configuration
func InitLogger(cfg *config.LoggingConfig) error {
	l, err := NewLogger(cfg)
	if err != nil {
		return err
	}
	globalLogger = l
	return nil
}

// NewLogger creates a new zap logger with the given configuration
func NewLogger(cfg *config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	encoding, encoderConfig, err := encoderFor(cfg)
	if err != nil {
		return nil, err
	}
	out, errOut, err := sinks(cfg)
	if err != nil {
		return nil, err
	}

	opts := []zap.Option{zap.AddCallerSkip(1)}
	if !cfg.DisableStacktrace {
		opts = append(opts, zap.AddStacktrace(zapcore.ErrorLevel))
	}

	l, err := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      encoding == formatConsole,
		Encoding:         encoding,
		OutputPaths:      out,
		ErrorOutputPaths: errOut,
		EncoderConfig:    encoderConfig,
	}.Build(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return l, nil
}

// SetLogger replaces the global logger, returning a function restoring the previous one
func SetLogger(l *zap.Logger) func() {
	prev := globalLogger
	globalLogger = l
	return func() { globalLogger = prev }
}

// GetLogger returns the global logger instance
func GetLogger() *zap.Logger {
	return globalLogger
}

// Redact keeps a short prefix of a secret for correlation in logs
func Redact(secret string) string {
	if len(secret) <= redactKeep {
		return "***"
	}
	return secret[:redactKeep] + "..."
}

// Secret is a string field holding only the redacted form of value
func Secret(key, value string) zap.Field {
	return zap.String(key, Redact(value))
}

func Debug(msg string, fields ...zap.Field) {
	globalLogger.Debug(msg, fields...)
}

func Info(msg string, fields ...zap.Field) {
	globalLogger.Info(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	globalLogger.Warn(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	globalLogger.Error(msg, fields...)
}

// Fatal logs and exits the process
func Fatal(msg string, fields ...zap.Field) {
	globalLogger.Fatal(msg, fields...)
}

// With creates a child logger with additional fields
func With(fields ...zap.Field) *zap.Logger {
	return globalLogger.With(fields...)
}

// Sync flushes any buffered log entries
func Sync() error {
	return globalLogger.Sync()
}
