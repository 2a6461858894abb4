package common

import "context"

// userIDKey is unexported so only this package can write the value.
type userIDKey struct{}

// WithUserID stores the authenticated user identifier on the context.
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey{}, id)
}

// UserID reports the authenticated user identifier, if any. An empty
// identifier counts as absent so handlers can rely on a single check.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey{}).(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}
