package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"clientele/internal/ratelimit/metrics"
	"clientele/internal/ratelimit/middleware/mocks"
	"clientele/internal/ratelimit/models"
	"clientele/internal/ratelimit/store/bucket"
	audit "clientele/pkg/platform/audit"
	"clientele/pkg/platform/audit/publisher"
	"clientele/pkg/platform/audit/store/memory"
	"clientele/pkg/platform/circuit"
	"clientele/pkg/requestcontext"
)

//go:generate mockgen -source=ratelimit.go -destination=mocks/mocks.go -package=mocks BucketStore,AuditPublisher
type RateLimitMiddlewareSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	store   *mocks.MockBucketStore
	metrics *metrics.Metrics
	logger  *slog.Logger
	calls   int
}

func TestRateLimitMiddlewareSuite(t *testing.T) {
	suite.Run(t, new(RateLimitMiddlewareSuite))
}

func (s *RateLimitMiddlewareSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.store = mocks.NewMockBucketStore(s.ctrl)
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	s.calls = 0
}

func (s *RateLimitMiddlewareSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *RateLimitMiddlewareSuite) handler(m *Middleware) http.Handler {
	return m.RateLimit(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		s.calls++
		w.WriteHeader(http.StatusOK)
	}))
}

func (s *RateLimitMiddlewareSuite) do(h http.Handler) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodGet, "/api/v1/internal/client", nil)
	r = r.WithContext(requestcontext.WithClientMetadata(r.Context(), "10.0.0.1", "", ""))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func (s *RateLimitMiddlewareSuite) TestAllowed() {
	reset := time.Now().Add(time.Minute)
	s.store.EXPECT().
		Allow(gomock.Any(), models.NewIPRateLimitKey("10.0.0.1", "api"), 5, time.Minute).
		Return(&models.RateLimitResult{Allowed: true, Limit: 5, Remaining: 4, ResetAt: reset}, nil)

	w := s.do(s.handler(New(s.store, 5, time.Minute, s.logger, WithMetrics(s.metrics))))

	s.Equal(http.StatusOK, w.Code)
	s.Equal(1, s.calls)
	s.Equal("5", w.Header().Get("X-RateLimit-Limit"))
	s.Equal("4", w.Header().Get("X-RateLimit-Remaining"))
	s.NotEmpty(w.Header().Get("X-RateLimit-Reset"))
}

func (s *RateLimitMiddlewareSuite) TestRejected() {
	now := time.Now()
	s.store.EXPECT().Allow(gomock.Any(), gomock.Any(), 5, time.Minute).
		Return(models.Deny(5, now.Add(30*time.Second), now), nil)

	w := s.do(s.handler(New(s.store, 5, time.Minute, s.logger, WithMetrics(s.metrics))))

	s.Equal(http.StatusTooManyRequests, w.Code)
	s.Equal(0, s.calls)
	s.Equal("30", w.Header().Get("Retry-After"))
	s.Contains(w.Body.String(), `"success":false`)
	s.Equal(1.0, promtest.ToFloat64(s.metrics.RateLimitRejected))
}

func (s *RateLimitMiddlewareSuite) TestRejectedIsAudited() {
	now := time.Now()
	s.store.EXPECT().Allow(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(models.Deny(5, now.Add(time.Second), now), nil)
	events := memory.NewInMemoryStore()

	w := s.do(s.handler(New(s.store, 5, time.Minute, s.logger, WithAuditPublisher(publisher.NewPublisher(events)))))

	s.Equal(http.StatusTooManyRequests, w.Code)
	recorded, err := events.ListBySubject(context.Background(), "10.0.0.1")
	s.Require().NoError(err)
	s.Require().Len(recorded, 1)
	s.Equal(string(audit.EventRateLimitExceeded), recorded[0].Action)
	s.Equal(audit.CategorySecurity, recorded[0].Category)
}

func (s *RateLimitMiddlewareSuite) TestStoreErrorFailsOpen() {
	s.store.EXPECT().Allow(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("redis down"))

	w := s.do(s.handler(New(s.store, 5, time.Minute, s.logger, WithMetrics(s.metrics))))

	s.Equal(http.StatusOK, w.Code)
	s.Equal(1, s.calls)
	s.Empty(w.Header().Get("X-RateLimit-Limit"))
	s.Equal(1.0, promtest.ToFloat64(s.metrics.RateLimitStoreErrors))
}

func (s *RateLimitMiddlewareSuite) TestFallbackAfterRepeatedFailures() {
	s.store.EXPECT().Allow(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("redis down")).Times(6)

	m := New(s.store, 2, time.Minute, s.logger, WithFallback(bucket.New()), WithMetrics(s.metrics))
	h := s.handler(m)

	for range 4 {
		s.Equal(http.StatusOK, s.do(h).Code)
	}
	// Fifth failure opens the circuit; the fallback now counts requests.
	w := s.do(h)
	s.Equal(http.StatusOK, w.Code)
	s.Equal("degraded", w.Header().Get("X-RateLimit-Status"))
	s.Equal(1.0, promtest.ToFloat64(s.metrics.RateLimitDegraded))

	s.Equal(http.StatusOK, s.do(h).Code)
	s.Equal(6, s.calls)
}

func (s *RateLimitMiddlewareSuite) TestFallbackRejectsWhenExhausted() {
	s.store.EXPECT().Allow(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("redis down")).AnyTimes()

	m := New(s.store, 1, time.Minute, s.logger,
		WithFallback(bucket.New()),
		WithCircuitBreaker(circuit.New("test", circuit.WithFailureThreshold(1))),
	)
	h := s.handler(m)

	s.Equal(http.StatusOK, s.do(h).Code)
	s.Equal(http.StatusTooManyRequests, s.do(h).Code)
}

func (s *RateLimitMiddlewareSuite) TestDisabled() {
	w := s.do(s.handler(New(s.store, 5, time.Minute, s.logger, WithDisabled(true))))
	s.Equal(http.StatusOK, w.Code)
	s.Equal(1, s.calls)
}
