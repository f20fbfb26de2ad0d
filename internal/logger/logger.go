package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type ctxKey struct{}

var (
	log     = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	logFile *os.File
)

// InitLogging sends console output to stderr and, when filePath is set,
// JSON lines to that file as well.
func InitLogging(filePath string) error {
	var out io.Writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	if filePath != "" {
		f, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		if logFile != nil {
			_ = logFile.Close()
		}
		logFile = f
		out = zerolog.MultiLevelWriter(out, f)
	}
	log = zerolog.New(out).With().Timestamp().Logger()
	return nil
}

// SetOutput replaces the log destination. Tests use it to capture output.
func SetOutput(w io.Writer) {
	log = zerolog.New(w).With().Timestamp().Logger()
}

// Close releases the log file opened by InitLogging, if any.
func Close() error {
	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	return err
}

// SetLevel sets the global level from a name such as "debug" or "warn".
// Unknown names fall back to info.
func SetLevel(name string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil || name == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

// SetVerbosity maps a repeated -v count onto a level: 0 warn, 1 info,
// 2 debug, 3 and above trace.
func SetVerbosity(v int) {
	switch {
	case v <= 0:
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case v == 1:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case v == 2:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	}
}

// RaiseVerbosity applies SetVerbosity only when it makes logging more
// verbose than the current level. A count of zero changes nothing.
func RaiseVerbosity(v int) {
	if v <= 0 {
		return
	}
	prev := zerolog.GlobalLevel()
	SetVerbosity(v)
	if zerolog.GlobalLevel() > prev {
		zerolog.SetGlobalLevel(prev)
	}
}

// WithRunID tags every line logged with ctx with id.
func WithRunID(ctx context.Context, id string) context.Context {
	fields, _ := ctx.Value(ctxKey{}).(map[string]string)
	merged := make(map[string]string, len(fields)+1)
	for k, v := range fields {
		merged[k] = v
	}
	merged["run_id"] = id
	return context.WithValue(ctx, ctxKey{}, merged)
}

// RunID returns the id set by WithRunID.
func RunID(ctx context.Context) string {
	fields, _ := ctx.Value(ctxKey{}).(map[string]string)
	return fields["run_id"]
}

func event(ctx context.Context, e *zerolog.Event) *zerolog.Event {
	if ctx == nil {
		return e
	}
	if fields, ok := ctx.Value(ctxKey{}).(map[string]string); ok {
		for k, v := range fields {
			e = e.Str(k, v)
		}
	}
	return e
}

func TraceLog(ctx context.Context, format string, args ...interface{}) {
	event(ctx, log.Trace()).Msgf(format, args...)
}

func DebugLog(ctx context.Context, format string, args ...interface{}) {
	event(ctx, log.Debug()).Msgf(format, args...)
}

func InfoLog(ctx context.Context, format string, args ...interface{}) {
	event(ctx, log.Info()).Msgf(format, args...)
}

func WarnLog(ctx context.Context, format string, args ...interface{}) {
	event(ctx, log.Warn()).Msgf(format, args...)
}

func ErrorLog(ctx context.Context, format string, args ...interface{}) {
	event(ctx, log.Error()).Msgf(format, args...)
}
