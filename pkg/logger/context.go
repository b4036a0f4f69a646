package logger

import (
	"context"
	"log/slog"
)

type ctxKey string

const attrsKey ctxKey = "logger_attrs"

// With returns a context carrying extra fields. Loggers built by this package
// add them to every record logged with that context.
func With(ctx context.Context, fields ...any) context.Context {
	attrs := append(attrsFrom(ctx), argsToAttrs(fields)...)
	return context.WithValue(ctx, attrsKey, attrs)
}

// From returns the process logger enriched with the context's fields.
func From(ctx context.Context) *slog.Logger {
	attrs := attrsFrom(ctx)
	if len(attrs) == 0 {
		return LoggerWrapper()
	}
	args := make([]any, len(attrs))
	for i, a := range attrs {
		args[i] = a
	}
	return LoggerWrapper().With(args...)
}

func attrsFrom(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	attrs, _ := ctx.Value(attrsKey).([]slog.Attr)
	// copy so that sibling contexts never share a backing array
	return append([]slog.Attr(nil), attrs...)
}

func argsToAttrs(args []any) []slog.Attr {
	r := slog.Record{}
	r.Add(args...)
	out := make([]slog.Attr, 0, r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool {
		out = append(out, a)
		return true
	})
	return out
}

// contextHandler adds fields stored with With to records logged through the
// *Context logging methods.
type contextHandler struct {
	slog.Handler
}

func (h contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if attrs := attrsFrom(ctx); len(attrs) > 0 {
		r = r.Clone()
		r.AddAttrs(attrs...)
	}
	return h.Handler.Handle(ctx, r)
}

func (h contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return contextHandler{h.Handler.WithAttrs(attrs)}
}

func (h contextHandler) WithGroup(name string) slog.Handler {
	return contextHandler{h.Handler.WithGroup(name)}
}
