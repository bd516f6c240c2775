package auth

import (
	"context"
)

type sessionContextKey struct{}

// SetSessionToContext stores the authenticated session for the middleware chain.
func SetSessionToContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, s)
}

// GetSessionFromContext retrieves the authenticated session.
// Returns nil if none was stored.
func GetSessionFromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionContextKey{}).(*Session)
	return s
}

// SubjectFromContext returns the Cognito subject of the current user, or "".
func SubjectFromContext(ctx context.Context) string {
	if s := GetSessionFromContext(ctx); s != nil {
		return s.Subject
	}
	return ""
}
