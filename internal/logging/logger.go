// Package logging provides structured logging configuration using log/slog.
//
// Loggers obtained through FromContext carry the chi request id, so every line
// written while serving one upload can be correlated.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	slogseq "github.com/sokkalf/slog-seq"
)

// Options selects the level, format and sinks of the global logger.
type Options struct {
	// Level values: "debug", "info", "warn", "error" (default: "info")
	Level string

	// Format values: "text", "json" (default: "text")
	Format string

	// SeqURL enables a Seq sink next to Output when set.
	SeqURL string

	// Output defaults to os.Stdout.
	Output io.Writer
}

// Setup configures the global slog logger and returns a function that flushes
// any buffered sinks. The returned function is safe to call when no sink needs it.
func Setup(opts Options) func() {
	handlerOpts := &slog.HandlerOptions{
		Level: ParseLevel(opts.Level),
	}

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	var handler slog.Handler
	if strings.ToLower(opts.Format) == "json" {
		handler = slog.NewJSONHandler(out, handlerOpts)
	} else {
		handler = slog.NewTextHandler(out, handlerOpts)
	}

	closeFn := func() {}

	if opts.SeqURL != "" {
		_, seqHandler := slogseq.NewLogger(
			opts.SeqURL,
			slogseq.WithBatchSize(50),
			slogseq.WithFlushInterval(2*time.Second),
			slogseq.WithHandlerOptions(handlerOpts),
		)
		if seqHandler != nil {
			handler = &multiHandler{handlers: []slog.Handler{handler, seqHandler}}
			closeFn = func() { seqHandler.Close() }
		}
	}

	slog.SetDefault(slog.New(handler))

	return closeFn
}

// ParseLevel converts a string log level to slog.Level.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// FromContext returns the default logger enriched with the request id, if any.
//
//	logger := logging.FromContext(r.Context())
//	logger.Info("converting", "file", name)
func FromContext(ctx context.Context) *slog.Logger {
	logger := slog.Default()

	if reqID := middleware.GetReqID(ctx); reqID != "" {
		logger = logger.With("request_id", reqID)
	}

	return logger
}

// WithFields returns a request-scoped logger with additional structured fields.
func WithFields(ctx context.Context, args ...any) *slog.Logger {
	return FromContext(ctx).With(args...)
}
