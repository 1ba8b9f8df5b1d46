package logger

import (
	"log/slog"
	"os"
	"strings"
)

// Logger is the process-wide sink; tasklets write through it but their
// output is buffered by TaskletContextHandler until deregistration. It is
// slog.Default() until Init replaces it.
var Logger = slog.Default()

// GlobalRegistry is the tasklet-context registry drained by the main
// thread (spec §4.7).
var GlobalRegistry = NewRegistry(4096)

// Init sets up Logger per the LOGGER_FORMAT/UTIL_LOG_DEBUG environment
// variables named in spec §6 (these affect logger behavior only, not
// harvester semantics).
func Init() *slog.Logger {
	level := slog.LevelInfo
	if strings.EqualFold(os.Getenv("UTIL_LOG_DEBUG"), "true") || os.Getenv("UTIL_LOG_DEBUG") == "1" {
		level = slog.LevelDebug
	}

	var base slog.Handler
	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(os.Getenv("LOGGER_FORMAT")) {
	case "json":
		base = slog.NewJSONHandler(os.Stdout, opts)
	default:
		base = slog.NewTextHandler(os.Stdout, opts)
	}

	Logger = slog.New(NewTaskletContextHandler(base))
	slog.SetDefault(Logger)
	return Logger
}
