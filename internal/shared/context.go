package shared

import "context"

// sessionContextKey is unexported so only this package can place a
// session in a context.
type sessionContextKey struct{}

// ContextWithSession returns a child context carrying sess. The auth
// middleware is the only writer.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext returns the session placed by the auth middleware,
// or nil on an unauthenticated context.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*Session)
	return sess
}
