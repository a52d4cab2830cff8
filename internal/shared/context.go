package shared

import "context"

type sessionContextKey struct{}

// ContextWithSession stores the session in context.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext extracts the session from context. Returns nil when the
// request carried no valid session cookie.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*Session)
	return sess
}

// UserFromContext returns the authenticated user ID from the request session,
// empty when unauthenticated.
func UserFromContext(ctx context.Context) string {
	return SessionFromContext(ctx).User()
}
