package httpserver

import (
	"net/http"
	"os"
	"path/filepath"

	"riskcalc/internal/calculator"
	"riskcalc/internal/health"
	"riskcalc/internal/ratelimit"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type RouterDeps struct {
	CalculatorHandler *calculator.Handler
	CalculateWS       http.Handler
	HealthHandler     *health.Handler
	Limiter           ratelimit.Limiter
	CORSOrigins       []string
	UIDist            string
	// TrustProxy takes the client address from X-Forwarded-For/X-Real-IP.
	// Enable only behind a proxy that overwrites those headers.
	TrustProxy bool
}

func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()

	if d.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(RequestID)
	r.Use(AccessLog)
	r.Use(CORS(d.CORSOrigins))
	r.Use(SecurityHeaders)

	r.Get("/health", d.HealthHandler.Live)
	r.Get("/health/ready", d.HealthHandler.Ready)
	r.Get("/health/full", d.HealthHandler.Full)
	r.Get("/metrics", d.HealthHandler.Metrics)

	r.Group(func(r chi.Router) {
		if d.Limiter != nil {
			r.Use(RateLimit(d.Limiter))
		}
		r.Post("/calculate", d.CalculatorHandler.Calculate)
		r.Get("/calculate/ws", d.CalculateWS.ServeHTTP)
	})

	if d.UIDist != "" {
		r.NotFound(spaHandler(d.UIDist).ServeHTTP)
	} else {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			_, _ = w.Write([]byte("Hello, World!"))
		})
	}
	return r
}

func spaHandler(dir string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if path == "/" {
			path = "/index.html"
		}
		clean := filepath.Clean("/" + path)
		full := filepath.Join(dir, clean)
		if info, err := os.Stat(full); err == nil && !info.IsDir() {
			http.ServeFile(w, r, full)
			return
		}
		index := filepath.Join(dir, "index.html")
		if _, err := os.Stat(index); err != nil {
			http.NotFound(w, r)
			return
		}
		http.ServeFile(w, r, index)
	})
}
