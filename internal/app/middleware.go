package app

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/unrolled/secure"

	"github.com/sentra-vms/sentra/internal/observability"
	"github.com/sentra-vms/sentra/internal/platform/httpx"
	"github.com/sentra-vms/sentra/internal/shared"
)

// MiddlewareConfig aggregates dependencies shared by the middleware stack.
type MiddlewareConfig struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	Metrics        *observability.Metrics
}

// BearerToken extracts the access token from a request. The Authorization
// header is the normal path; the query parameter serves WebSocket and MJPEG
// clients that cannot set headers, mirroring the socket feed contract.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return r.URL.Query().Get("token")
}

// MiddlewareStack installs the middleware chain.
func MiddlewareStack(cfg MiddlewareConfig) []func(http.Handler) http.Handler {
	secureMiddleware := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		SSLRedirect:        cfg.Config != nil && cfg.Config.IsProduction(),
		SSLProxyHeaders:    map[string]string{"X-Forwarded-Proto": "https"},
	})

	// Resolves the bearer token exactly once per request. A request without a
	// token passes through unauthenticated and is stopped later by whichever
	// guard protects the route; a request with a dead token is refused here so
	// the client clears its session after a single 401.
	sessionMiddleware := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			sess, err := cfg.SessionManager.Resolve(r.Context(), token)
			if err != nil {
				if errors.Is(err, shared.ErrTokenInvalid) {
					httpx.RespondError(w, shared.ErrTokenInvalid)
					return
				}
				cfg.Logger.Error("resolve session", slog.Any("error", err))
				httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
				return
			}
			next.ServeHTTP(w, r.WithContext(shared.ContextWithSession(r.Context(), sess)))
		})
	}

	timeout := 30 * time.Second
	if cfg.Config != nil && cfg.Config.AppRequestTimeout > 0 {
		timeout = cfg.Config.AppRequestTimeout
	}

	middlewares := []func(http.Handler) http.Handler{
		middleware.RealIP,
		middleware.RequestID,
		sessionMiddleware,
		middleware.Recoverer,
		func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				// Long-lived stream endpoints must not be cut by the request
				// timeout or mangled by compression.
				if isStreamPath(r.URL.Path) {
					next.ServeHTTP(w, r)
					return
				}
				middleware.Timeout(timeout)(middleware.Compress(5)(next)).ServeHTTP(w, r)
			})
		},
		func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if err := secureMiddleware.Process(w, r); err != nil {
					cfg.Logger.Warn("secure headers blocked request", slog.Any("error", err))
					httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
					return
				}
				next.ServeHTTP(w, r)
			})
		},
		func(next http.Handler) http.Handler {
			limited := httprate.Limit(120, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP))(next)
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				// Frame and alert ingest run far above interactive request
				// rates; overload there is absorbed by the hub's drop policy,
				// not answered with 429.
				if isStreamPath(r.URL.Path) || isIngestPath(r.URL.Path) {
					next.ServeHTTP(w, r)
					return
				}
				limited.ServeHTTP(w, r)
			})
		},
	}
	if cfg.Metrics != nil {
		middlewares = append(middlewares, func(next http.Handler) http.Handler {
			instrumented := cfg.Metrics.Middleware(next)
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				// The status recorder does not implement http.Hijacker, so the
				// socket upgrade and the MJPEG feed skip instrumentation.
				if isStreamPath(r.URL.Path) {
					next.ServeHTTP(w, r)
					return
				}
				instrumented.ServeHTTP(w, r)
			})
		})
	}
	return middlewares
}

func isStreamPath(path string) bool {
	return path == "/ws" || strings.HasPrefix(path, "/video_feed/")
}

func isIngestPath(path string) bool {
	return strings.HasPrefix(path, "/ingest/")
}
