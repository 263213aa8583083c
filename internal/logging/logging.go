// Package logging provides the application's slog-based logger. Because
// the TUI owns the terminal, the default sink is a rotated file; stderr
// output is only used in headless mode.
package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Options controls logger initialization. Values can be overridden via
// environment variables:
//   - MERCHDECK_LOG_LEVEL=debug|info|warn|error
//   - MERCHDECK_LOG_FILE=<path>
type Options struct {
	Level   string
	File    string
	Console bool // log to stderr instead of a file (headless mode)
}

var (
	mu     sync.RWMutex
	logger *slog.Logger
)

// L returns the application logger, initializing from the environment
// on first use.
func L() *slog.Logger {
	mu.RLock()
	l := logger
	mu.RUnlock()
	if l != nil {
		return l
	}
	Init(FromEnv())
	mu.RLock()
	l = logger
	mu.RUnlock()
	return l
}

// Init configures the global logger and slog.Default.
func Init(opts Options) {
	lvl := parseLevel(opts.Level)

	var h slog.Handler
	if opts.Console {
		h = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	} else {
		file := opts.File
		if file == "" {
			file = defaultLogFile()
		}
		w := &lj.Logger{Filename: file, MaxSize: 10, MaxBackups: 3, MaxAge: 28, Compress: true}
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	}

	l := slog.New(h).With(slog.String("app", "merchdeck"))

	mu.Lock()
	logger = l
	mu.Unlock()
	slog.SetDefault(l)
}

// FromEnv builds Options from environment variables.
func FromEnv() Options {
	return Options{
		Level: getenv("MERCHDECK_LOG_LEVEL", "info"),
		File:  os.Getenv("MERCHDECK_LOG_FILE"),
	}
}

// WithComponent returns a logger tagged with the component name.
func WithComponent(name string) *slog.Logger {
	return L().With(slog.String("component", name))
}

func defaultLogFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "merchdeck.log"
	}
	return filepath.Join(home, ".merchdeck", "merchdeck.log")
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
