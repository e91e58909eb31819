package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"soraprobe/internal/http/handlers"
	"soraprobe/internal/infra"
	"soraprobe/internal/middleware"
)

// Options configure the proxy middleware stack.
type Options struct {
	AllowedOrigins     []string
	RateLimitPerMinute int
	// Limiter replaces the in-memory per-process limiter when set.
	Limiter            middleware.Limiter
	Country            middleware.CountryLookup
	Logger             infra.Logger
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		middleware.Country(opts.Country),
		middleware.Logger(opts.Logger),
		chimw.Recoverer,
		middleware.CORS(opts.AllowedOrigins),
	)

	r.Get("/health", app.Health)

	r.Route("/api/video", func(r chi.Router) {
		if opts.Limiter != nil {
			r.Use(middleware.RateLimitWith(opts.Limiter))
		} else {
			r.Use(middleware.RateLimit(opts.RateLimitPerMinute, time.Minute))
		}
		r.Post("/generate", app.VideosGenerate)
		r.Get("/status/{id}", app.VideoStatus)
		r.Get("/download/{id}", app.VideoDownload)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"not found"}`))
	})

	return r
}
