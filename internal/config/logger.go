package config

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
)

// LogOptions selects where and how verbosely the process logs.
type LogOptions struct {
	Foreground bool // console output on stderr instead of log files
	Debug      bool
}

// NewLogger builds the process logger.
// Foreground runs log to stderr in console format; background runs write JSON
// to ~/.screensaver-icon/logs/.
func NewLogger(opts LogOptions) (*zap.Logger, error) {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if opts.Debug {
		level.SetLevel(zapcore.DebugLevel)
	}

	if opts.Foreground {
		cfg := zap.NewDevelopmentConfig()
		cfg.Level = level
		cfg.DisableStacktrace = true
		cfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		if term.IsTerminal(int(os.Stderr.Fd())) {
			cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
		return cfg.Build()
	}

	if err := EnsureGlobalLogsDir(); err != nil {
		return nil, fmt.Errorf("failed to create logs dir: %w", err)
	}
	logsDir, err := GlobalLogsDir()
	if err != nil {
		return nil, err
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = level
	cfg.OutputPaths = []string{filepath.Join(logsDir, LogFileName)}
	cfg.ErrorOutputPaths = []string{filepath.Join(logsDir, ErrorLogFileName)}
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		// Fall back to stderr if file logging fails
		fallback, _ := zap.NewProduction()
		fallback.Warn("file logging unavailable", zap.Error(err))
		return fallback, nil
	}
	return logger, nil
}
