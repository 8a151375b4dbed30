package admin

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Check reports whether one dependency is reachable.
type Check func(ctx context.Context) error

type Config struct {
	// Checks are run on every /healthz request. Any failure turns the
	// response into a 503.
	Checks   map[string]Check
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
	// CheckTimeout bounds every check. Zero means 2s.
	CheckTimeout time.Duration
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// NewRouter serves the operator endpoints next to the gRPC listener:
// /healthz for liveness and dependency checks, /metrics for Prometheus.
func NewRouter(cfg Config) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("component", "admin.http"))
	if cfg.CheckTimeout <= 0 {
		cfg.CheckTimeout = 2 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		resp := healthResponse{Status: "ok"}
		code := http.StatusOK
		if len(cfg.Checks) > 0 {
			resp.Checks = make(map[string]string, len(cfg.Checks))
		}
		for name, check := range cfg.Checks {
			ctx, cancel := context.WithTimeout(req.Context(), cfg.CheckTimeout)
			err := check(ctx)
			cancel()
			if err != nil {
				log.Warn("health check failed", slog.String("check", name), slog.Any("err", err))
				resp.Checks[name] = err.Error()
				resp.Status = "degraded"
				code = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(resp)
	})

	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}
	return r
}
