// Package logging builds the structured JSON logger shared by the service,
// its middleware and the background jobs.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// TimeKey replaces slog's "time" so every line carries "ts" like the request
// and migration logs.
const TimeKey = "ts"

// New returns a JSON logger writing one object per line to w with the
// timestamp rendered in loc. A nil w means stdout, a nil loc means UTC.
func New(w io.Writer, loc *time.Location) *slog.Logger {
	return NewWithLevel(w, loc, slog.LevelInfo)
}

// NewWithLevel is New with an explicit minimum level.
func NewWithLevel(w io.Writer, loc *time.Location, level slog.Leveler) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	if loc == nil {
		loc = time.UTC
	}
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) > 0 {
				return a
			}
			switch a.Key {
			case slog.TimeKey:
				return slog.String(TimeKey, a.Value.Time().In(loc).Format(time.RFC3339Nano))
			case slog.LevelKey:
				return slog.String(slog.LevelKey, strings.ToLower(a.Value.String()))
			}
			return a
		},
	})
	return slog.New(h)
}

// ParseLevel maps "debug", "info", "warn" and "error" to a slog level,
// defaulting to info.
func ParseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return l
}
