// Package logging provides the process-wide zap logger.
package logging

import (
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logger *zap.SugaredLogger
	once   sync.Once
)

func build() {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(os.Getenv("LOG_LEVEL"))); err != nil {
		level = zapcore.InfoLevel
	}

	var cfg zap.Config
	if os.Getenv("ENVIRONMENT") == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	l, err := cfg.Build()
	if err != nil {
		panic(fmt.Sprintf("logging: build logger: %v", err))
	}
	logger = l.Sugar()
}

// Get returns the shared logger, building it on first use from LOG_LEVEL and
// ENVIRONMENT.
func Get() *zap.SugaredLogger {
	once.Do(build)
	return logger
}

// Replace swaps the shared logger and returns a func that restores the
// previous one.
func Replace(l *zap.SugaredLogger) func() {
	prev := Get()
	logger = l
	return func() { logger = prev }
}

// Sync flushes buffered entries. Errors from syncing a terminal are ignored.
func Sync() {
	if logger != nil {
		_ = logger.Sync()
	}
}
