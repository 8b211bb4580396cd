package logger

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"
)

type ctxKey struct{}

// New builds a logrus logger. format is "json" or "text".
func New(level, format string) *logrus.Logger {
	return NewWithOutput(os.Stdout, level, format)
}

func NewWithOutput(out io.Writer, level, format string) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)

	lvl, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)

	if strings.EqualFold(format, "json") {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return l
}

// WithRequestID stores the request id so FromContext can attach it to entries.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, requestID)
}

func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(ctxKey{}).(string); ok {
		return id
	}
	return ""
}

// FromContext returns an entry carrying the request id and the active span's trace ids.
func FromContext(ctx context.Context, base logrus.FieldLogger) *logrus.Entry {
	entry := base.WithFields(logrus.Fields{})

	if id := RequestID(ctx); id != "" {
		entry = entry.WithField("request_id", id)
	}

	sc := trace.SpanContextFromContext(ctx)
	if sc.HasTraceID() {
		entry = entry.WithField("trace_id", sc.TraceID().String())
	}
	if sc.HasSpanID() {
		entry = entry.WithField("span_id", sc.SpanID().String())
	}
	return entry
}
