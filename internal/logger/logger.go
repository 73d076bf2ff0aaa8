// Package logger wraps slog with printf-style helpers and a process-wide
// level switch. The trace writer for raw model exchanges lives in trace.go.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"

	"log/slog"
)

var (
	levelVar slog.LevelVar
	base     atomic.Pointer[slog.Logger]
)

func init() {
	levelVar.Set(slog.LevelInfo)
	base.Store(newLogger(os.Stdout))
}

func newLogger(w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: &levelVar}))
}

// SetOutput replaces the destination for all subsequent log lines.
func SetOutput(w io.Writer) {
	base.Store(newLogger(w))
}

// SetLevel accepts debug/info/warn/error; anything else falls back to info.
func SetLevel(level string) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		levelVar.Set(slog.LevelDebug)
	case "warn", "warning":
		levelVar.Set(slog.LevelWarn)
	case "error":
		levelVar.Set(slog.LevelError)
	default:
		levelVar.Set(slog.LevelInfo)
	}
}

func Debugf(format string, v ...any) {
	base.Load().Debug(fmt.Sprintf(format, v...))
}

func Infof(format string, v ...any) {
	base.Load().Info(fmt.Sprintf(format, v...))
}

func Warnf(format string, v ...any) {
	base.Load().Warn(fmt.Sprintf(format, v...))
}

func Errorf(format string, v ...any) {
	base.Load().Error(fmt.Sprintf(format, v...))
}

// InfoBlock logs a multi-line block one info line at a time, skipping
// blank lines so batch summaries stay compact.
func InfoBlock(block string) {
	for _, line := range strings.Split(block, "\n") {
		if line = strings.TrimRight(line, " \t"); line != "" {
			Infof("%s", line)
		}
	}
}
