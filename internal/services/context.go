package services

import "context"

type contextKey string

const (
	targetKey    contextKey = "target"
	requestIDKey contextKey = "request_id"
)

// WithTarget annotates context with the file path an operation applies to.
func WithTarget(ctx context.Context, path string) context.Context {
	if path == "" {
		return ctx
	}
	return context.WithValue(ctx, targetKey, path)
}

// TargetFromContext returns the target file path if present.
func TargetFromContext(ctx context.Context) (string, bool) {
	if str, ok := ctx.Value(targetKey).(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithRequestID annotates context with a correlation identifier for one
// protocol round trip.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if str, ok := ctx.Value(requestIDKey).(string); ok && str != "" {
		return str, true
	}
	return "", false
}
