package metrics_test

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ErlanBelekov/storefront/internal/health"
	"github.com/ErlanBelekov/storefront/internal/metrics"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func serve(t *testing.T, checker *health.Checker, path string) *httptest.ResponseRecorder {
	t.Helper()
	srv := metrics.NewServer(":0", checker)
	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestServer_Readyz(t *testing.T) {
	up := health.NewChecker(slog.Default(), prometheus.NewRegistry(),
		health.Dependency{Name: "postgres", Pinger: pingFunc(func(context.Context) error { return nil })})
	if w := serve(t, up, "/readyz"); w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	down := health.NewChecker(slog.Default(), prometheus.NewRegistry(),
		health.Dependency{Name: "postgres", Pinger: pingFunc(func(context.Context) error { return errors.New("refused") })})
	if w := serve(t, down, "/readyz"); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
}

func TestServer_Livez(t *testing.T) {
	down := health.NewChecker(slog.Default(), prometheus.NewRegistry(),
		health.Dependency{Name: "postgres", Pinger: pingFunc(func(context.Context) error { return errors.New("refused") })})
	if w := serve(t, down, "/livez"); w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}
