package app

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/sentra-vms/sentra/internal/shared"
)

func testRouter(t *testing.T) chi.Router {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	r := chi.NewRouter()
	r.Use(MiddlewareStack(MiddlewareConfig{
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		SessionManager: shared.NewSessionManager(client, "test-secret", time.Hour),
	})...)
	ok := func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }
	r.Get("/cameras", ok)
	r.Post("/ingest/frame", ok)
	r.Post("/ingest/alert", ok)
	return r
}

func TestRateLimitSparesFrameIngest(t *testing.T) {
	router := testRouter(t)

	// A camera agent posting a high-rate burst from one address must never
	// be answered with 429; overload is the hub's problem, not HTTP's.
	for i := 0; i < 300; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/ingest/frame", nil)
		req.RemoteAddr = "203.0.113.9:4567"
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, "frame %d", i)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/ingest/alert", nil)
	req.RemoteAddr = "203.0.113.9:4567"
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimitStillCapsInteractiveRoutes(t *testing.T) {
	router := testRouter(t)

	limited := 0
	for i := 0; i < 200; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/cameras", nil)
		req.RemoteAddr = "203.0.113.9:4567"
		router.ServeHTTP(rec, req)
		if rec.Code == http.StatusTooManyRequests {
			limited++
		}
	}
	require.Positive(t, limited, "interactive routes keep the per-IP cap")
}
