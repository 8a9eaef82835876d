package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"stremio2m3u/pkg/env"
	"stremio2m3u/pkg/paths"
)

var Log = slog.New(slog.NewTextHandler(io.Discard, nil))

const timeLayout = "2006-01-02T15:04:05.000-07:00"

var (
	logFile     *os.File
	logFileMu   sync.Mutex
	logLocation *time.Location
	locationMu  sync.RWMutex
	output      io.Writer = os.Stdout
)

// ParseLevel maps a LOG_LEVEL string to a slog level, defaulting to INFO.
func ParseLevel(levelStr string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(levelStr)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Init initializes the global logger
func Init(levelStr string) {
	level := ParseLevel(levelStr)

	// Load timezone from TZ environment variable
	loc := time.Local
	if tz := env.TZ(); tz != "" {
		if loaded, err := time.LoadLocation(tz); err == nil {
			loc = loaded
		}
	}
	locationMu.Lock()
	logLocation = loc
	locationMu.Unlock()

	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.String(slog.TimeKey, a.Value.Time().In(loc).Format(timeLayout))
			}
			return a
		},
	}

	Log = slog.New(&fileHandler{Handler: slog.NewTextHandler(output, opts)})
	slog.SetDefault(Log)
}

// EnableFile appends every record to a dated log file in the data directory:
// stremio2m3u-YYYY-MM-DD.log (one file per day).
func EnableFile() error {
	locationMu.RLock()
	loc := logLocation
	locationMu.RUnlock()
	if loc == nil {
		loc = time.Local
	}

	dataDir := paths.GetDataDir()
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}
	name := fmt.Sprintf("stremio2m3u-%s.log", time.Now().In(loc).Format("2006-01-02"))
	f, err := os.OpenFile(filepath.Join(dataDir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}

	logFileMu.Lock()
	if logFile != nil {
		logFile.Close()
	}
	logFile = f
	logFileMu.Unlock()
	return nil
}

// fileHandler mirrors records into the log file, if one is open.
// attrs holds what With added, already prefixed by any open groups.
type fileHandler struct {
	slog.Handler
	attrs  []slog.Attr
	prefix string
}

func (h *fileHandler) Handle(ctx context.Context, r slog.Record) error {
	err := h.Handler.Handle(ctx, r)

	logFileMu.Lock()
	defer logFileMu.Unlock()
	if logFile == nil {
		return err
	}

	locationMu.RLock()
	loc := logLocation
	locationMu.RUnlock()
	if loc == nil {
		loc = time.Local
	}

	var b strings.Builder
	fmt.Fprintf(&b, "time=%s level=%s msg=%q", r.Time.In(loc).Format(timeLayout), r.Level, r.Message)
	for _, a := range h.attrs {
		fmt.Fprintf(&b, " %s=%v", a.Key, a.Value)
	}
	r.Attrs(func(a slog.Attr) bool {
		fmt.Fprintf(&b, " %s%s=%v", h.prefix, a.Key, a.Value)
		return true
	})
	fmt.Fprintln(logFile, b.String())
	return err
}

func (h *fileHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	for _, a := range attrs {
		merged = append(merged, slog.Attr{Key: h.prefix + a.Key, Value: a.Value})
	}
	return &fileHandler{Handler: h.Handler.WithAttrs(attrs), attrs: merged, prefix: h.prefix}
}

func (h *fileHandler) WithGroup(name string) slog.Handler {
	prefix := h.prefix
	if name != "" {
		prefix += name + "."
	}
	return &fileHandler{Handler: h.Handler.WithGroup(name), attrs: h.attrs, prefix: prefix}
}

// Close closes the log file if one is open
func Close() {
	logFileMu.Lock()
	defer logFileMu.Unlock()
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}

// With returns a logger carrying the given attributes, e.g. a run id.
func With(args ...any) *slog.Logger {
	return Log.With(args...)
}

// Helper functions for easy access
func Debug(msg string, args ...any) {
	Log.Debug(msg, args...)
}

func Info(msg string, args ...any) {
	Log.Info(msg, args...)
}

func Warn(msg string, args ...any) {
	Log.Warn(msg, args...)
}

func Error(msg string, args ...any) {
	Log.Error(msg, args...)
}
