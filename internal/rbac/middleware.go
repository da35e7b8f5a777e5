package rbac

import (
	"log/slog"
	"net/http"

	"github.com/sentra-vms/sentra/internal/platform/httpx"
	"github.com/sentra-vms/sentra/internal/shared"
)

// Middleware wires role authorization helpers for HTTP handlers.
type Middleware struct {
	Logger *slog.Logger
}

// RequireView admits only sessions whose role may enter the given view.
// Denied requests receive the redirect target the client should navigate to,
// so a wrong-role user lands on their own dashboard rather than a blank page.
func (m Middleware) RequireView(view View) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := shared.SessionFromContext(r.Context())
			if sess == nil {
				httpx.JSON(w, http.StatusUnauthorized, map[string]string{
					"message":  "Unauthorized",
					"redirect": "/login",
				})
				return
			}
			if !CanAccess(view, sess.Role) {
				if m.Logger != nil {
					m.Logger.Warn("view access denied",
						slog.String("view", string(view)),
						slog.String("role", sess.Role.String()),
						slog.String("user", sess.Username))
				}
				httpx.JSON(w, http.StatusForbidden, map[string]string{
					"message":  "Unauthorized",
					"redirect": RedirectTarget(view, sess.Role),
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAny admits sessions holding at least one of the listed roles.
func (m Middleware) RequireAny(roles ...shared.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := shared.SessionFromContext(r.Context())
			if sess == nil {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			for _, role := range roles {
				if sess.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			if m.Logger != nil {
				m.Logger.Warn("role access denied",
					slog.String("role", sess.Role.String()),
					slog.String("path", r.URL.Path))
			}
			httpx.RespondError(w, httpx.ErrForbidden)
		})
	}
}

// RequireSession admits any authenticated session regardless of role.
func (m Middleware) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if shared.SessionFromContext(r.Context()) == nil {
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
