package services

import "context"

type contextKey string

const (
	userIDKey    contextKey = "user_id"
	packKey      contextKey = "pack"
	requestIDKey contextKey = "request_id"
)

// WithUserID annotates context with the requesting user identifier.
func WithUserID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// UserIDFromContext extracts the requesting user identifier if present.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	v := ctx.Value(userIDKey)
	if v == nil {
		return 0, false
	}
	switch val := v.(type) {
	case int64:
		return val, true
	case int:
		return int64(val), true
	default:
		return 0, false
	}
}

// WithPack annotates context with the sticker pack name.
func WithPack(ctx context.Context, pack string) context.Context {
	if pack == "" {
		return ctx
	}
	return context.WithValue(ctx, packKey, pack)
}

// PackFromContext returns the sticker pack name if present.
func PackFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(packKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
