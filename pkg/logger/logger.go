package logger

import (
	"context"
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// New returns a JSON structured logger writing to stdout and, when logFile is
// set, to a size-rotated file. The returned closer releases the file.
func New(appEnv, logFile string) (*slog.Logger, io.Closer) {
	level := slog.LevelInfo
	if appEnv == "local" || appEnv == "dev" {
		level = slog.LevelDebug
	}

	var out io.Writer = os.Stdout
	var closer io.Closer = nopCloser{}
	if logFile != "" {
		rotated := &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    100, // MB
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}
		out = io.MultiWriter(os.Stdout, rotated)
		closer = rotated
	}

	h := slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level})
	return slog.New(h), closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

type ctxKey struct{}

// With stores a logger in context.
func With(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// From gets a logger from context, falling back to slog.Default().
func From(ctx context.Context) *slog.Logger {
	if v := ctx.Value(ctxKey{}); v != nil {
		if l, ok := v.(*slog.Logger); ok && l != nil {
			return l
		}
	}
	return slog.Default()
}
