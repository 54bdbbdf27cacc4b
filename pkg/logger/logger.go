package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// LogLevel is the textual level accepted from configuration.
type LogLevel string

const (
	LogLevelDebug   LogLevel = "DEBUG"
	LogLevelInfo    LogLevel = "INFO"
	LogLevelWarning LogLevel = "WARNING"
	LogLevelError   LogLevel = "ERROR"
)

// Levels outside slog's built-in four.
const (
	LevelTrace    = slog.LevelDebug - 4
	LevelCritical = slog.LevelError + 4
)

// ParseLogLevel maps a configured level name to a LogLevel. DEBUG, WARNING and ERROR are
// recognised (case-insensitively); anything else is INFO.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LogLevelDebug
	case "WARNING", "WARN":
		return LogLevelWarning
	case "ERROR":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

// SlogLevel returns the slog threshold for l.
func (l LogLevel) SlogLevel() slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarning:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Logger wraps slog with component scoping.
type Logger struct {
	*slog.Logger
}

// Options configures NewLogger.
type Options struct {
	Level LogLevel
	// Console receives plain one-line output. Defaults to stderr.
	Console io.Writer
	// FilePath, when set, additionally appends structured text records to that file.
	FilePath string
}

// NewLogger builds a logger writing to the console and, optionally, a log file.
func NewLogger(opts Options) *Logger {
	level := opts.Level.SlogLevel()

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}
	handlers := []slog.Handler{newPlainHandler(console, level)}

	if opts.FilePath != "" {
		handlers = append(handlers, newFileTextHandler(opts.FilePath, level))
	}

	var handler slog.Handler
	if len(handlers) == 1 {
		handler = handlers[0]
	} else {
		handler = newMultiHandler(handlers...)
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewDefaultLogger creates an INFO logger on stderr.
func NewDefaultLogger() *Logger {
	return NewLogger(Options{Level: LogLevelInfo})
}

// NewDiscardLogger returns a logger that drops everything; used by tests.
func NewDiscardLogger() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// WithComponent creates a logger with a component context for better tracing
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{Logger: l.With("component", component)}
}

// WithQueue scopes the logger to a queue name.
func (l *Logger) WithQueue(queue string) *Logger {
	return &Logger{Logger: l.With("queue", queue)}
}

// Critical logs above error.
func (l *Logger) Critical(msg string, args ...any) {
	l.Log(context.Background(), LevelCritical, msg, args...)
}

func levelName(level slog.Level) string {
	switch {
	case level < slog.LevelDebug:
		return "TRACE"
	case level > slog.LevelError:
		return "CRITICAL"
	default:
		return level.String()
	}
}

// newFileTextHandler opens path for append and returns a slog text handler
func newFileTextHandler(path string, level slog.Level) slog.Handler {
	_ = os.MkdirAll(filepath.Dir(path), 0o755)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		// Fallback to stderr if file cannot be opened
		return slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}

	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			switch a.Key {
			case slog.TimeKey:
				return slog.Attr{Key: "time", Value: slog.StringValue(a.Value.Time().Format("2006-01-02T15:04:05.000Z07:00"))}
			case slog.LevelKey:
				if lvl, ok := a.Value.Any().(slog.Level); ok {
					return slog.String(slog.LevelKey, levelName(lvl))
				}
			}
			return a
		},
	}
	return slog.NewTextHandler(f, opts)
}
