package slogx

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

func WithContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext returns the request logger, or the default logger when none
// was attached.
func FromContext(ctx context.Context) *slog.Logger {
	l, ok := ctx.Value(ctxKey{}).(*slog.Logger)
	if !ok {
		return slog.Default()
	}
	return l
}

func WithRequestID(ctx context.Context, reqID string) context.Context {
	return with(ctx, "req_id", reqID)
}

// WithSubject tags every later log line with the authenticated user.
func WithSubject(ctx context.Context, subject string) context.Context {
	return with(ctx, "sub", subject)
}

// WithAPIKey tags every later log line with the calling API key id.
func WithAPIKey(ctx context.Context, keyID string) context.Context {
	return with(ctx, "api_key_id", keyID)
}

func with(ctx context.Context, args ...any) context.Context {
	return WithContext(ctx, FromContext(ctx).With(args...))
}
