package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"clientele/internal/platform/metrics"
	"clientele/internal/platform/middleware"
	id "clientele/pkg/domain"
	"clientele/pkg/platform/httputil"
	authmw "clientele/pkg/platform/middleware/auth"
	"clientele/pkg/platform/middleware/metadata"
	"clientele/pkg/platform/middleware/requesttime"
	"clientele/pkg/platform/middleware/version"
)

const healthTimeout = 2 * time.Second

// APIRoutes is implemented by every bounded context mounted under the
// versioned API prefix.
type APIRoutes interface {
	Register(r chi.Router)
}

// HealthChecker reports the state of an optional backing service.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Config carries everything the router needs. Nil optional fields are
// skipped.
type Config struct {
	Logger       *slog.Logger
	Metrics      *metrics.Metrics
	Gatherer     prometheus.Gatherer
	Version      id.APIVersion
	Environment  string
	CORSOrigins  []string
	TrustedProxy bool
	JWTValidator authmw.JWTValidator
	RateLimit    func(http.Handler) http.Handler
	Health       map[string]HealthChecker
	Routes       []APIRoutes
}

// NewRouter wires the public endpoints. API routes live under the version
// base path; /health and /metrics stay unversioned.
func NewRouter(cfg Config) http.Handler {
	if cfg.Version == "" {
		cfg.Version = id.DefaultVersion()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(metadata.ClientMetadata(cfg.TrustedProxy))
	r.Use(requesttime.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "X-Total-Count", "X-Page-Count", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After", version.HeaderAPIVersion},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(chimw.Compress(5))
	if cfg.Metrics != nil {
		r.Use(middleware.LatencyMiddleware(cfg.Metrics))
	}

	r.NotFound(middleware.NotFound)
	r.MethodNotAllowed(middleware.MethodNotAllowed)

	r.Get("/health", healthHandler(cfg))
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route(cfg.Version.BasePath(), func(api chi.Router) {
		api.Use(version.ExtractVersion(cfg.Version))
		api.Use(middleware.ContentTypeJSON)
		if cfg.JWTValidator != nil {
			api.Use(authmw.OptionalActor(cfg.JWTValidator, cfg.Logger))
		}
		if cfg.RateLimit != nil {
			api.Use(cfg.RateLimit)
		}
		for _, routes := range cfg.Routes {
			routes.Register(api)
		}
	})

	return r
}

func healthHandler(cfg Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		status, label := http.StatusOK, "healthy"
		deps := make(map[string]string, len(cfg.Health))
		for name, checker := range cfg.Health {
			if err := checker.Health(ctx); err != nil {
				cfg.Logger.WarnContext(ctx, "health check failed", "dependency", name, "error", err)
				deps[name] = "down"
				status, label = http.StatusServiceUnavailable, "degraded"
				continue
			}
			deps[name] = "up"
		}

		httputil.WriteJSON(w, status, map[string]any{
			"status":       label,
			"timestamp":    time.Now().UTC(),
			"version":      cfg.Version.String(),
			"environment":  cfg.Environment,
			"dependencies": deps,
		})
	}
}
