package report

import (
	"context"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sentra-vms/sentra/internal/audit"
)

// TrailSource provides the audit rows rendered into the export.
type TrailSource interface {
	Trail(ctx context.Context, filters audit.Filters) (audit.Result, error)
}

// Handler manages report endpoints.
type Handler struct {
	client *Client
	trail  TrailSource
	logger *slog.Logger
}

// NewHandler creates a report handler.
func NewHandler(client *Client, trail TrailSource, logger *slog.Logger) *Handler {
	return &Handler{client: client, trail: trail, logger: logger}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/ping", h.ping)
	r.Get("/audit_trail.pdf", h.auditTrailPDF)
}

func (h *Handler) ping(w http.ResponseWriter, r *http.Request) {
	if err := h.client.Ping(r.Context()); err != nil {
		h.logger.Warn("gotenberg ping failed", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

var trailTemplate = template.Must(template.New("trail").Parse(`<html>
<head><title>Video Audit Trail</title></head>
<body>
<h1>Video Audit Trail</h1>
<p>Generated at {{.GeneratedAt}}</p>
<table border="1" cellspacing="0" cellpadding="4">
<tr><th>Video</th><th>Deleted By</th><th>Deleted At</th></tr>
{{range .Rows}}<tr><td>{{.VideoURL}}</td><td>{{.DeletedBy}}</td><td>{{.DeletedAt}}</td></tr>
{{end}}</table>
</body></html>`))

// auditTrailPDF renders the most recent deletions as a PDF document. The
// export covers the first page of the trail with the largest allowed window.
func (h *Handler) auditTrailPDF(w http.ResponseWriter, r *http.Request) {
	result, err := h.trail.Trail(r.Context(), audit.Filters{PageSize: 50})
	if err != nil {
		h.logger.Error("load audit trail", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	type rowView struct {
		VideoURL  string
		DeletedBy string
		DeletedAt string
	}
	data := struct {
		GeneratedAt string
		Rows        []rowView
	}{GeneratedAt: time.Now().Format(time.RFC1123)}
	for _, row := range result.Rows {
		data.Rows = append(data.Rows, rowView{
			VideoURL:  row.VideoURL,
			DeletedBy: row.DeletedBy,
			DeletedAt: row.DeletedAt.Format(time.RFC3339),
		})
	}

	var html strings.Builder
	if err := trailTemplate.Execute(&html, data); err != nil {
		h.logger.Error("render trail template", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	pdf, err := h.client.RenderHTML(r.Context(), html.String())
	if err != nil {
		h.logger.Error("render trail pdf", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "inline; filename=audit_trail.pdf")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}
