package httpx

import "context"

type ctxKey string

const (
	// CtxKeyUserID holds the authenticated principal for rate limiting and logging.
	CtxKeyUserID ctxKey = "user_id"
)

// WithUserID returns a copy of ctx carrying the authenticated principal.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, CtxKeyUserID, userID)
}

// UserIDFromContext returns the principal set by WithUserID, if any.
func UserIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(CtxKeyUserID).(string)
	return v, ok && v != ""
}
