package httpapi

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clientele/internal/clients"
	"clientele/internal/clients/models"
	jwttoken "clientele/internal/jwt_token"
	"clientele/internal/platform/metrics"
	ratelimitmw "clientele/internal/ratelimit/middleware"
	"clientele/internal/ratelimit/store/bucket"
	id "clientele/pkg/domain"
	"clientele/pkg/testutil"
)

const clientBody = `{"full_name":"Maria Silva","primary_phone":"(11) 98888-7777","document":"529.982.247-25"}`

type stubHealth struct{ err error }

func (s stubHealth) Health(context.Context) error { return s.err }

func newTestRouter(t *testing.T, mutate func(*Config)) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	svc := clients.NewService(nil)
	cfg := Config{
		Logger:       logger,
		Metrics:      metrics.New(reg),
		Gatherer:     reg,
		Version:      id.APIVersionV1,
		Environment:  "test",
		CORSOrigins:  []string{"http://localhost:3000"},
		JWTValidator: jwttoken.NewJWTServiceAdapter(jwttoken.NewJWTService("test-key", "clientele")),
		Routes:       []APIRoutes{clients.NewHandler(svc, logger)},
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return NewRouter(cfg)
}

func TestVersionedClientRoutes(t *testing.T) {
	r := newTestRouter(t, nil)

	rr := testutil.DoRequest(r, testutil.NewRequestWithBody(t, http.MethodPost, "/api/v1/internal/client", clientBody))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, "v1", rr.Header().Get("X-API-Version"))
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))

	created := testutil.UnmarshalData[models.Client](t, rr)
	assert.Equal(t, id.SystemActor, created.RegisteredBy)

	rr = testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/api/v1/internal/client/"+created.ID.String()))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/api/v1/internal/client?page=1&page_size=10"))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "1", rr.Header().Get("X-Total-Count"))
}

func TestUnversionedClientRouteNotFound(t *testing.T) {
	r := newTestRouter(t, nil)

	rr := testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/internal/client"))
	testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "Route not found")
}

func TestBearerTokenSetsActor(t *testing.T) {
	r := newTestRouter(t, nil)
	token, err := jwttoken.NewJWTService("test-key", "clientele").GenerateToken("operator-7", "Ana", time.Hour)
	require.NoError(t, err)

	req := testutil.NewRequestWithBody(t, http.MethodPost, "/api/v1/internal/client", clientBody)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := testutil.DoRequest(r, req)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	created := testutil.UnmarshalData[models.Client](t, rr)
	assert.Equal(t, "operator-7", created.RegisteredBy)
	assert.Equal(t, "operator-7", created.LastUpdatedBy)
}

func TestInvalidBearerTokenRejected(t *testing.T) {
	r := newTestRouter(t, nil)

	req := testutil.NewRequest(t, http.MethodGet, "/api/v1/internal/client")
	req.Header.Set("Authorization", "Bearer not-a-token")
	rr := testutil.DoRequest(r, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRateLimitAppliesToAPIRoutes(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	limiter := ratelimitmw.New(bucket.New(), 1, time.Minute, logger)
	r := newTestRouter(t, func(cfg *Config) { cfg.RateLimit = limiter.RateLimit })

	first := testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/api/v1/internal/client"))
	assert.Equal(t, http.StatusOK, first.Code)
	second := testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/api/v1/internal/client"))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)

	health := testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/health"))
	assert.Equal(t, http.StatusOK, health.Code)
}

func TestHealth(t *testing.T) {
	t.Run("all dependencies up", func(t *testing.T) {
		r := newTestRouter(t, func(cfg *Config) {
			cfg.Health = map[string]HealthChecker{"redis": stubHealth{}}
		})
		rr := testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/health"))
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"status":"healthy"`)
		assert.Contains(t, rr.Body.String(), `"redis":"up"`)
		assert.Contains(t, rr.Body.String(), `"environment":"test"`)
	})

	t.Run("dependency down", func(t *testing.T) {
		r := newTestRouter(t, func(cfg *Config) {
			cfg.Health = map[string]HealthChecker{"redis": stubHealth{err: errors.New("connection refused")}}
		})
		rr := testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/health"))
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
		assert.Contains(t, rr.Body.String(), `"status":"degraded"`)
		assert.Contains(t, rr.Body.String(), `"redis":"down"`)
	})
}

func TestMetricsEndpoint(t *testing.T) {
	r := newTestRouter(t, nil)
	testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/api/v1/internal/client"))

	rr := testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/metrics"))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, strings.Contains(rr.Body.String(), "clientele_http_requests_total"))
}

func TestCORSPreflight(t *testing.T) {
	r := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/internal/client", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := testutil.DoRequest(r, req)

	assert.Equal(t, "http://localhost:3000", rr.Header().Get("Access-Control-Allow-Origin"))
}
