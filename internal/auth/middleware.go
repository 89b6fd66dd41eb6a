package auth

import (
	"log/slog"
	"net/http"

	"github.com/authboard/authboard/internal/platform/httpx"
	"github.com/authboard/authboard/internal/shared"
)

// Middleware resolves the session user and gates routes by role.
type Middleware struct {
	Service *Service
	Logger  *slog.Logger
}

// WithUser resolves the signed-in user, if any, into the request context.
// Anonymous requests pass through untouched.
func (m Middleware) WithUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		if sess == nil || sess.User() == "" {
			next.ServeHTTP(w, r)
			return
		}
		user, err := m.Service.CurrentUser(r.Context(), sess.User())
		if err != nil {
			// A stale session pointing at a deleted user is anonymous.
			if m.Logger != nil {
				m.Logger.Warn("resolve session user", slog.String("user_id", sess.User()), slog.Any("error", err))
			}
			next.ServeHTTP(w, r)
			return
		}
		ctx := shared.ContextWithUser(r.Context(), &shared.CurrentUser{
			ID:    user.ID,
			Name:  user.Name,
			Email: user.Email,
			Role:  user.Role,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireUser rejects anonymous requests.
func (m Middleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if shared.UserFromContext(r.Context()) == nil {
			httpx.RespondError(w, shared.ErrUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole rejects callers lacking the given role.
func (m Middleware) RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := shared.UserFromContext(r.Context())
			if user == nil {
				httpx.RespondError(w, shared.ErrUnauthorized)
				return
			}
			if user.Role != role {
				httpx.RespondError(w, shared.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
