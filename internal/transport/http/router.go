package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"grace/pkg/platform/middleware/request"
	"grace/pkg/platform/middleware/requesttime"
)

const (
	defaultRequestTimeout = 30 * time.Second
	maxBodyBytes          = 1 << 20
)

// Registrar mounts a module's routes on a router.
type Registrar interface {
	Register(r chi.Router)
}

// Config collects what the router needs. Health and API are required.
type Config struct {
	Logger   *slog.Logger
	Health   Registrar
	API      Registrar
	Gatherer prometheus.Gatherer
	Metrics  *request.Metrics
	Timeout  time.Duration
}

// NewRouter wires the global middleware stack, health probes, the metrics
// endpoint and the API under /api.
func NewRouter(cfg Config) http.Handler {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	r := chi.NewRouter()

	r.Use(request.Recovery(cfg.Logger))
	r.Use(request.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(request.Logger(cfg.Logger))
	r.Use(request.Timeout(timeout))
	if cfg.Metrics != nil {
		r.Use(request.Latency(cfg.Metrics))
	}

	cfg.Health.Register(r)
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(request.ContentTypeJSON)
		r.Use(request.BodyLimit(maxBodyBytes))
		cfg.API.Register(r)
	})

	return r
}
