package observe

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// tracerName is the instrumentation scope for the daemon's spans; it matches
// the meter scope so both show up under one name.
const tracerName = "github.com/heardiary/heardiary"

// StartSpan opens a span on the globally registered tracer. The caller must
// end the returned span. Request handling opens one span per API call via the
// middleware; subsystem code only adds spans around work that is worth seeing
// in isolation, like the finalize pipeline.
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, name, opts...)
}

// Logger returns the default slog logger bound to the span in ctx, so a log
// line written while handling a request carries that request's trace_id and
// span_id. With no span in ctx it is just [slog.Default].
func Logger(ctx context.Context) *slog.Logger {
	l := slog.Default()
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		l = l.With(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	return l
}
