package logger

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

// TaskletContextHandler wraps an slog.Handler. When the record's context
// carries a taskletBuffer (because the calling goroutine registered via
// Registry.Register), the record is appended to that buffer instead of
// being written immediately; otherwise it is forwarded straight to the
// inner handler, same as utils/logger's TraceContextHandler.
type TaskletContextHandler struct {
	inner slog.Handler
	attrs []slog.Attr
}

func NewTaskletContextHandler(inner slog.Handler) *TaskletContextHandler {
	return &TaskletContextHandler{inner: inner}
}

func (h *TaskletContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *TaskletContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		sc := span.SpanContext()
		r.AddAttrs(slog.String("trace_id", sc.TraceID().String()), slog.String("span_id", sc.SpanID().String()))
	}

	if buf, ok := ctx.Value(bufferCtxKey).(*taskletBuffer); ok {
		attrs := make([]slog.Attr, 0, r.NumAttrs()+len(h.attrs))
		attrs = append(attrs, h.attrs...)
		r.Attrs(func(a slog.Attr) bool {
			attrs = append(attrs, a)
			return true
		})
		buf.append(bufferedRecord{Time: r.Time, Level: r.Level, Msg: r.Message, Attrs: attrs})
		return nil
	}

	return h.inner.Handle(ctx, r)
}

func (h *TaskletContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &TaskletContextHandler{inner: h.inner.WithAttrs(attrs), attrs: merged}
}

func (h *TaskletContextHandler) WithGroup(name string) slog.Handler {
	return &TaskletContextHandler{inner: h.inner.WithGroup(name), attrs: h.attrs}
}
