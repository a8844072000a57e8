package main

import (
	"os"
	"strconv"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
)

// newLogger builds a zap.Logger whose level comes from PHLOW_LOG
// (debug/info/warn/error, default info), matching the structured
// key/value logging convention of model-collapse-quidditch's
// cmd/master/main.go rather than fmt.Print-based logging. When stdout is a
// terminal the console (human-readable) encoding is used instead of JSON,
// the same TTY-detection the teacher's TreeRenderer used to decide whether
// to draw its live tree or fall back to plain line output.
func newLogger() (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if v := os.Getenv("PHLOW_LOG"); v != "" {
		level.Set(v)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	if term.IsTerminal(int(os.Stdout.Fd())) {
		cfg.Encoding = "console"
		cfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}
	return cfg.Build()
}

// truncateSpanValue shortens a logged string to PHLOW_TRUNCATE_SPAN_VALUE
// bytes (0 or unset disables truncation), so high-volume span logging
// (PHLOW_SPAN=1) doesn't flood output with large payloads.
func truncateSpanValue(s string) string {
	n := 0
	if v := os.Getenv("PHLOW_TRUNCATE_SPAN_VALUE"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			n = parsed
		}
	}
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func spanLoggingEnabled() bool {
	return os.Getenv("PHLOW_SPAN") != ""
}

func otelEnabled() bool {
	return os.Getenv("PHLOW_OTEL") != ""
}
