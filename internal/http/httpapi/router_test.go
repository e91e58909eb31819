package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"soraprobe/internal/domain"
	"soraprobe/internal/http/handlers"
	"soraprobe/internal/providers/sora"
)

type stubVideos struct{}

func (stubVideos) HasCredentials() bool { return false }

func (stubVideos) Submit(ctx context.Context, body json.RawMessage) (domain.JobStatus, *sora.Response, error) {
	return nil, nil, domain.ErrMissingAPIKey
}

func (stubVideos) GetGeneration(ctx context.Context, id string) (domain.JobStatus, *sora.Response, error) {
	return nil, nil, domain.ErrMissingAPIKey
}

func (stubVideos) OpenContent(ctx context.Context, id string) (*http.Response, error) {
	return nil, domain.ErrMissingAPIKey
}

func newTestRouter() http.Handler {
	return NewRouter(handlers.NewApp(stubVideos{}, nil), Options{
		AllowedOrigins:     []string{"*"},
		RateLimitPerMinute: 1,
		Logger:             zerolog.Nop(),
	})
}

func TestRoutes(t *testing.T) {
	h := newTestRouter()
	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/api/video/status/video_1", http.StatusServiceUnavailable},
		{http.MethodGet, "/nope", http.StatusNotFound},
		{http.MethodOptions, "/api/video/generate", http.StatusNoContent},
	}
	for _, tc := range tests {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		req.Header.Set("Origin", "https://ui.test")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != tc.want {
			t.Fatalf("%s %s = %d, want %d", tc.method, tc.path, rr.Code, tc.want)
		}
		if rr.Header().Get("X-Request-ID") == "" {
			t.Fatalf("%s %s missing request id", tc.method, tc.path)
		}
	}
}

func TestHealthIsNotRateLimited(t *testing.T) {
	h := newTestRouter()
	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("attempt %d: status = %d", i, rr.Code)
		}
	}

	var last int
	for i := 0; i < 2; i++ {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/video/generate", strings.NewReader(`{}`)))
		last = rr.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("second api call status = %d, want 429", last)
	}
}
