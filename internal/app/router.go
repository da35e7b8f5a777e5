package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/sentra-vms/sentra/internal/alerts"
	"github.com/sentra-vms/sentra/internal/audit"
	"github.com/sentra-vms/sentra/internal/auth"
	"github.com/sentra-vms/sentra/internal/cameras"
	"github.com/sentra-vms/sentra/internal/observability"
	"github.com/sentra-vms/sentra/internal/platform/httpx"
	"github.com/sentra-vms/sentra/internal/rbac"
	"github.com/sentra-vms/sentra/internal/recordings"
	"github.com/sentra-vms/sentra/internal/shared"
	"github.com/sentra-vms/sentra/internal/stream"
	"github.com/sentra-vms/sentra/internal/users"
	"github.com/sentra-vms/sentra/jobs"
	"github.com/sentra-vms/sentra/report"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	SessionManager    *shared.SessionManager
	AuthHandler       *auth.Handler
	UsersHandler      *users.Handler
	CamerasHandler    *cameras.Handler
	StreamHandler     *stream.Handler
	RecordingsHandler *recordings.Handler
	AuditHandler      *audit.Handler
	AlertsHandler     *alerts.Handler
	ReportHandler     *report.Handler
	JobHandler        *jobs.Handler
	RBACMiddleware    rbac.Middleware
	Metrics           *observability.Metrics
}

// NewRouter constructs the chi.Router with Sentra defaults. Route paths keep
// the shapes camera agents and the console already speak, so most endpoints
// hang off the root rather than a versioned prefix.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Login, logout and the token probe never sit behind a view guard.
	params.AuthHandler.MountRoutes(r)

	guard := params.RBACMiddleware

	r.Group(func(r chi.Router) {
		r.Use(guard.RequireView(rbac.ViewAdminDashboard))
		r.Get("/admin-dashboard", dashboardHandler("admin"))
	})
	r.Group(func(r chi.Router) {
		r.Use(guard.RequireView(rbac.ViewSecurityDashboard))
		r.Get("/security-dashboard", dashboardHandler("security"))
	})

	r.Group(func(r chi.Router) {
		r.Use(guard.RequireView(rbac.ViewUserManagement))
		params.UsersHandler.MountRoutes(r)
	})
	r.Group(func(r chi.Router) {
		r.Use(guard.RequireView(rbac.ViewProfile))
		params.UsersHandler.MountProfileRoutes(r)
	})

	r.Group(func(r chi.Router) {
		r.Use(guard.RequireView(rbac.ViewCameraStream))
		params.CamerasHandler.MountRoutes(r)
		params.StreamHandler.MountRoutes(r)
		if params.AlertsHandler != nil {
			params.AlertsHandler.MountRoutes(r)
		}
	})

	r.Group(func(r chi.Router) {
		r.Use(guard.RequireView(rbac.ViewRecordedVideo))
		params.RecordingsHandler.MountRoutes(r)
	})
	r.Group(func(r chi.Router) {
		r.Use(guard.RequireView(rbac.ViewAuditTrail))
		params.AuditHandler.MountRoutes(r)
		if params.ReportHandler != nil {
			r.Route("/report", params.ReportHandler.MountRoutes)
		}
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}

// dashboardHandler answers the navigation probe the console fires before it
// renders a dashboard. Reaching it at all means the guard let the role in.
func dashboardHandler(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		httpx.JSON(w, http.StatusOK, map[string]any{
			"dashboard": name,
			"username":  sess.Username,
			"role":      sess.Role.String(),
		})
	}
}
