package util

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/k0kubun/pp/v3"
)

// InitSlog configures the default slog logger from the LOG_LEVEL
// environment variable. Supported levels: debug, info, warn, error.
// Unset LOG_LEVEL leaves slog's own default in place.
func InitSlog() {
	logLevel, ok := os.LookupEnv("LOG_LEVEL")
	if !ok {
		return
	}

	var level slog.Level
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

var debugPrinter = pp.New()

// DebugDump pretty-prints v to stderr under label, but only when the
// default slog logger has debug enabled, so callers can scatter dumps
// of exported structures or run reports without gating each call site
// on LOG_LEVEL themselves.
func DebugDump(label string, v any) {
	if !slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	debugPrinter.SetOutput(os.Stderr)
	debugPrinter.Printf("%s:\n", label)
	debugPrinter.Println(v)
}
