package logger

import (
	"context"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"
)

// Severity is the gateway's own log classification.
type Severity int

const (
	SeverityCritical Severity = iota
	SeverityError
	SeverityWarning
	SeverityInfo
	SeverityVerbose
	SeverityDebug
)

func (s Severity) String() string {
	switch s {
	case SeverityCritical:
		return "Critical"
	case SeverityError:
		return "Error"
	case SeverityWarning:
		return "Warning"
	case SeverityInfo:
		return "Info"
	case SeverityVerbose:
		return "Verbose"
	case SeverityDebug:
		return "Debug"
	default:
		return "Unknown"
	}
}

// severityLevels is the single severity to log level table. Verbose and anything missing map
// to LevelTrace.
var severityLevels = map[Severity]slog.Level{
	SeverityCritical: LevelCritical,
	SeverityError:    slog.LevelError,
	SeverityWarning:  slog.LevelWarn,
	SeverityInfo:     slog.LevelInfo,
	SeverityDebug:    slog.LevelDebug,
}

// LevelFor returns the log level a severity is recorded at.
func LevelFor(s Severity) slog.Level {
	if lvl, ok := severityLevels[s]; ok {
		return lvl
	}
	return LevelTrace
}

// SeverityFromGateway maps a discordgo log level onto a Severity.
func SeverityFromGateway(level int) Severity {
	switch level {
	case discordgo.LogError:
		return SeverityError
	case discordgo.LogWarning:
		return SeverityWarning
	case discordgo.LogInformational:
		return SeverityInfo
	case discordgo.LogDebug:
		return SeverityDebug
	default:
		return SeverityVerbose
	}
}

// Record is one formatted log line and the level it belongs at.
type Record struct {
	Level   slog.Level
	Message string
}

var now = time.Now

// Format builds a Record from its parts. err may be nil.
func Format(severity Severity, source, msg string, err error) Record {
	line := "Time: " + now().Format(time.DateTime) +
		" | Severity: " + severity.String() +
		" | Source: " + source +
		" | Message: " + msg
	if err != nil {
		line += " | Exception: " + err.Error()
	}
	return Record{Level: LevelFor(severity), Message: line}
}

// FormatGatewayEvent builds a Record from a discordgo log callback.
func FormatGatewayEvent(level int, source, msg string) Record {
	return Format(SeverityFromGateway(level), source, msg, nil)
}

// Emit writes a formatted record through the logger.
func (l *Logger) Emit(r Record) {
	l.Log(context.Background(), r.Level, r.Message)
}

// LogEvent formats and emits in one step.
func (l *Logger) LogEvent(severity Severity, source, msg string, err error) {
	l.Emit(Format(severity, source, msg, err))
}
