package auth

import (
	"context"

	"tutora/backend/internal/domain"
)

type sessionKey struct{}

func WithSession(ctx context.Context, sess *domain.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, sess)
}

// SessionFrom returns the session stored by WithSession, or nil.
func SessionFrom(ctx context.Context) *domain.Session {
	sess, _ := ctx.Value(sessionKey{}).(*domain.Session)
	return sess
}
