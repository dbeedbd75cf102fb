package session

import (
	"context"

	"storefront/model"
)

// Session is the explicit shopping context of one browser: its cart key and,
// once logged in, the bound user.
type Session struct {
	ID   string
	User *model.User
}

// CurrentUser returns the bound user or nil for a guest session.
func (s *Session) CurrentUser() *model.User {
	if s == nil {
		return nil
	}
	return s.User
}

type ctxKey struct{}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session attached by Attach, or nil.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(ctxKey{}).(*Session)
	return s
}
