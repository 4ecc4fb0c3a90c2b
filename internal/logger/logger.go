// Package logger carries run progress lines the way the analysis backend has
// always written them (level, stage, message, detail) on top of zerolog.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Levels understood by Log. Unknown levels are written at info.
const (
	LevelInfo     = "INFO"
	LevelAnalysis = "ANALYSIS"
	LevelRisk     = "RISK"
	LevelError    = "ERROR"
)

type Options struct {
	Output  io.Writer
	Format  string // "console" or "json"
	Verbose bool
}

type Logger struct {
	zl zerolog.Logger
}

func New(opts Options) *Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	if !strings.EqualFold(opts.Format, "json") {
		out = zerolog.ConsoleWriter{Out: out, NoColor: true, TimeFormat: "15:04:05.000"}
	}

	level := zerolog.InfoLevel
	if opts.Verbose {
		level = zerolog.DebugLevel
	}
	zl := zerolog.New(out).Level(level).With().Timestamp().Logger()
	return &Logger{zl: zl}
}

// Nop discards everything.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// Log writes one progress line. ANALYSIS lines are debug output and only show
// in verbose mode.
func (l *Logger) Log(level, stage, message, detail string) {
	if l == nil {
		return
	}
	var ev *zerolog.Event
	switch strings.ToUpper(level) {
	case LevelAnalysis:
		ev = l.zl.Debug()
	case LevelRisk:
		ev = l.zl.Warn()
	case LevelError:
		ev = l.zl.Error()
	default:
		ev = l.zl.Info()
	}
	ev = ev.Str("stage", stage)
	if detail != "" {
		ev = ev.Str("detail", detail)
	}
	ev.Msg(message)
}

// Since logs how long a stage took at debug level.
func (l *Logger) Since(stage string, start time.Time) {
	if l == nil {
		return
	}
	l.zl.Debug().Str("stage", stage).Dur("elapsed", time.Since(start)).Msg("stage finished")
}

// Zerolog exposes the underlying logger for callers that need fields.
func (l *Logger) Zerolog() zerolog.Logger {
	if l == nil {
		return zerolog.Nop()
	}
	return l.zl
}
