package shared

import "context"

type sessionContextKey struct{}
type userContextKey struct{}

// CurrentUser describes the authenticated caller attached to a request.
type CurrentUser struct {
	ID    string
	Name  string
	Email string
	Role  string
}

// ContextWithSession stores the session in context.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext extracts the session from context.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*Session)
	return sess
}

// ContextWithUser stores the resolved caller identity in context.
func ContextWithUser(ctx context.Context, user *CurrentUser) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext extracts the caller identity from context, nil when anonymous.
func UserFromContext(ctx context.Context) *CurrentUser {
	user, _ := ctx.Value(userContextKey{}).(*CurrentUser)
	return user
}
