package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fd1az/options-arb/internal/logger"
)

func TestServer_Endpoints(t *testing.T) {
	tests := []struct {
		name       string
		checks     map[string]CheckFunc
		path       string
		wantStatus int
	}{
		{name: "live", path: "/live", wantStatus: http.StatusOK},
		{name: "ready without checks", path: "/ready", wantStatus: http.StatusOK},
		{
			name:       "ready with failing check",
			checks:     map[string]CheckFunc{"postgres": func(context.Context) error { return errors.New("down") }},
			path:       "/ready",
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "health all ok",
			checks:     map[string]CheckFunc{"redis": func(context.Context) error { return nil }},
			path:       "/health",
			wantStatus: http.StatusOK,
		},
		{
			name: "health degraded",
			checks: map[string]CheckFunc{
				"redis":    func(context.Context) error { return nil },
				"postgres": func(context.Context) error { return errors.New("down") },
			},
			path:       "/health",
			wantStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewServer(0, "test", logger.NewNop())
			for name, c := range tt.checks {
				s.RegisterCheck(name, c)
			}

			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestServer_HealthBody(t *testing.T) {
	s := NewServer(0, "v1.2.3", logger.NewNop())
	s.RegisterCheck("postgres", func(context.Context) error { return errors.New("connection refused") })

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var status Status
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatal(err)
	}
	if status.Status != "degraded" || status.Version != "v1.2.3" {
		t.Errorf("status = %+v", status)
	}
	pg := status.Checks["postgres"]
	if pg.Healthy || pg.Message != "connection refused" {
		t.Errorf("postgres check = %+v", pg)
	}
}
