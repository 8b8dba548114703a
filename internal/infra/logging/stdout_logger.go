package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sort"
	"sync"
)

// StdoutLogger writes one JSON object per entry. The zero value logs to
// os.Stdout.
type StdoutLogger struct {
	once sync.Once
	out  io.Writer
	sl   *slog.Logger
}

func NewStdoutLogger(out io.Writer) *StdoutLogger {
	return &StdoutLogger{out: out}
}

func (l *StdoutLogger) logger() *slog.Logger {
	l.once.Do(func() {
		out := l.out
		if out == nil {
			out = os.Stdout
		}
		l.sl = slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: slog.LevelInfo}))
	})
	return l.sl
}

func (l *StdoutLogger) log(level slog.Level, msg string, fields map[string]any) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	attrs := make([]slog.Attr, 0, len(keys))
	for _, k := range keys {
		v := fields[k]
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		attrs = append(attrs, slog.Any(k, v))
	}

	l.logger().LogAttrs(context.Background(), level, msg, attrs...)
}

func (l *StdoutLogger) Info(msg string, fields map[string]any) {
	l.log(slog.LevelInfo, msg, fields)
}

func (l *StdoutLogger) Warn(msg string, fields map[string]any) {
	l.log(slog.LevelWarn, msg, fields)
}

func (l *StdoutLogger) Error(msg string, fields map[string]any) {
	l.log(slog.LevelError, msg, fields)
}
