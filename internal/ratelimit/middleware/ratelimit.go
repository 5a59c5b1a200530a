package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"clientele/internal/ratelimit/metrics"
	"clientele/internal/ratelimit/models"
	dErrors "clientele/pkg/domain-errors"
	audit "clientele/pkg/platform/audit"
	"clientele/pkg/platform/circuit"
	"clientele/pkg/platform/httputil"
	"clientele/pkg/requestcontext"
)

// BucketStore is the sliding window backend: in-memory or Redis.
type BucketStore interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error)
}

// AuditPublisher records rejected requests as security events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Middleware limits requests per client IP over a sliding window.
type Middleware struct {
	store    BucketStore
	fallback BucketStore
	breaker  *circuit.Breaker
	limit    int
	window   time.Duration
	group    string
	logger   *slog.Logger
	metrics  *metrics.Metrics
	audit    AuditPublisher
	disabled bool
}

type Option func(*Middleware)

// WithDisabled disables rate limiting entirely (for testing/demo mode).
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) {
		m.disabled = disabled
	}
}

// WithFallback sets the store used while the primary store is failing.
// Without one, store errors fail open.
func WithFallback(store BucketStore) Option {
	return func(m *Middleware) {
		m.fallback = store
	}
}

func WithMetrics(metrics *metrics.Metrics) Option {
	return func(m *Middleware) {
		m.metrics = metrics
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(m *Middleware) {
		m.audit = publisher
	}
}

// WithCircuitBreaker replaces the breaker guarding the primary store.
func WithCircuitBreaker(breaker *circuit.Breaker) Option {
	return func(m *Middleware) {
		if breaker != nil {
			m.breaker = breaker
		}
	}
}

// WithGroup names the route group so separate groups keep separate buckets.
func WithGroup(group string) Option {
	return func(m *Middleware) {
		m.group = group
	}
}

func New(store BucketStore, limit int, window time.Duration, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{
		store:   store,
		breaker: circuit.New("ratelimit", circuit.WithFailureThreshold(5), circuit.WithSuccessThreshold(3)),
		limit:   limit,
		window:  window,
		group:   "api",
		logger:  logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.disabled {
		logger.Info("rate limiting disabled")
	}
	return m
}

// RateLimit enforces the per-IP limit and sets X-RateLimit-* headers.
func (m *Middleware) RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.disabled {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		ip := requestcontext.ClientIP(ctx)
		key := models.NewIPRateLimitKey(ip, m.group)

		result, degraded := m.check(ctx, key)
		if result == nil {
			next.ServeHTTP(w, r)
			return
		}

		addRateLimitHeaders(w, result)
		if degraded {
			w.Header().Set("X-RateLimit-Status", "degraded")
		}
		if !result.Allowed {
			if m.metrics != nil {
				m.metrics.IncrementRejected()
			}
			m.logger.WarnContext(ctx, "rate limit exceeded",
				"client_ip", ip,
				"path", r.URL.Path,
				"request_id", requestcontext.RequestID(ctx),
			)
			m.emitRejected(ctx, ip)
			writeRateLimitExceeded(w, result)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// check asks the primary store, switching to the fallback while the breaker
// is open. A nil result means no store could answer and the request passes.
func (m *Middleware) check(ctx context.Context, key string) (*models.RateLimitResult, bool) {
	result, err := m.store.Allow(ctx, key, m.limit, m.window)
	if err != nil {
		if m.metrics != nil {
			m.metrics.IncrementStoreErrors()
		}
		open, change := m.breaker.RecordFailure()
		m.logger.ErrorContext(ctx, "failed to check rate limit",
			"error", err,
			"circuit_open", open,
			"request_id", requestcontext.RequestID(ctx),
		)
		if change.Opened {
			m.logger.WarnContext(ctx, "rate limit circuit opened, using fallback store", "breaker", m.breaker.Name())
		}
		m.setDegraded(open)
		if !open {
			return nil, false
		}
		return m.checkFallback(ctx, key)
	}

	closed, change := m.breaker.RecordSuccess()
	if change.Closed {
		m.logger.InfoContext(ctx, "rate limit circuit closed, primary store recovered", "breaker", m.breaker.Name())
	}
	m.setDegraded(!closed)
	if !closed {
		return m.checkFallback(ctx, key)
	}
	return result, false
}

func (m *Middleware) checkFallback(ctx context.Context, key string) (*models.RateLimitResult, bool) {
	if m.fallback == nil {
		return nil, true
	}
	result, err := m.fallback.Allow(ctx, key, m.limit, m.window)
	if err != nil {
		m.logger.ErrorContext(ctx, "fallback rate limit check failed", "error", err)
		return nil, true
	}
	return result, true
}

func (m *Middleware) emitRejected(ctx context.Context, ip string) {
	if m.audit == nil {
		return
	}
	err := m.audit.Emit(ctx, audit.Event{
		Subject:   ip,
		Action:    string(audit.EventRateLimitExceeded),
		ActorID:   requestcontext.Actor(ctx),
		RequestID: requestcontext.RequestID(ctx),
		ClientIP:  ip,
		Device:    requestcontext.Device(ctx),
		Reason:    m.group,
	})
	if err != nil {
		m.logger.WarnContext(ctx, "failed to publish rate limit audit event", "error", err)
	}
}

func (m *Middleware) setDegraded(degraded bool) {
	if m.metrics != nil {
		m.metrics.SetDegraded(degraded)
	}
}

func addRateLimitHeaders(w http.ResponseWriter, result *models.RateLimitResult) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

func writeRateLimitExceeded(w http.ResponseWriter, result *models.RateLimitResult) {
	w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
	httputil.WriteError(w, dErrors.New(dErrors.CodeRateLimited,
		"Too many requests from this IP address. Please try again later."))
}
