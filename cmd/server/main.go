package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"clientele/internal/clients"
	clientmetrics "clientele/internal/clients/metrics"
	clientservice "clientele/internal/clients/service"
	httpapi "clientele/internal/http"
	jwttoken "clientele/internal/jwt_token"
	"clientele/internal/platform/config"
	"clientele/internal/platform/httpserver"
	"clientele/internal/platform/logger"
	"clientele/internal/platform/metrics"
	"clientele/internal/platform/redis"
	ratelimitmetrics "clientele/internal/ratelimit/metrics"
	ratelimitmw "clientele/internal/ratelimit/middleware"
	"clientele/internal/ratelimit/store/bucket"
	id "clientele/pkg/domain"
	"clientele/pkg/platform/audit"
	auditkafka "clientele/pkg/platform/audit/kafka"
	"clientele/pkg/platform/audit/publisher"
	auditmemory "clientele/pkg/platform/audit/store/memory"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	if err := config.LoadDotEnv(); err != nil {
		slog.Error("failed to load .env", "error", err)
		os.Exit(1)
	}
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	apiVersion, err := id.ParseAPIVersion(cfg.APIVersion)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		log.Warn("redis unavailable, using in-memory stores", "error", err)
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	auditStore, closeAudit, err := buildAuditStore(cfg, log, reg)
	if err != nil {
		return err
	}
	defer closeAudit()

	auditPublisher := publisher.NewPublisher(auditStore,
		publisher.WithAsyncBuffer(cfg.AuditAsyncBuffer),
		publisher.WithLogger(log),
	)
	defer auditPublisher.Close()

	clientService := clients.NewService([]clientservice.Option{
		clientservice.WithLogger(log),
		clientservice.WithAuditPublisher(auditPublisher),
		clientservice.WithMetrics(clientmetrics.New(reg)),
	})

	var bucketStore ratelimitmw.BucketStore = bucket.New()
	health := map[string]httpapi.HealthChecker{}
	if redisClient != nil {
		bucketStore = bucket.NewRedisStore(redisClient.Client)
		health["redis"] = redisClient
	}
	limiter := ratelimitmw.New(bucketStore, cfg.RateLimit.PerMinute, cfg.RateLimit.Window, log,
		ratelimitmw.WithDisabled(cfg.RateLimit.Disabled),
		ratelimitmw.WithFallback(bucket.New()),
		ratelimitmw.WithMetrics(ratelimitmetrics.New(reg)),
		ratelimitmw.WithAuditPublisher(auditPublisher),
	)

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer)

	router := httpapi.NewRouter(httpapi.Config{
		Logger:       log,
		Metrics:      metrics.New(reg),
		Gatherer:     reg,
		Version:      apiVersion,
		Environment:  cfg.Environment,
		CORSOrigins:  cfg.CORSOrigins,
		TrustedProxy: cfg.RateLimit.TrustedProxy,
		JWTValidator: jwttoken.NewJWTServiceAdapter(jwtService),
		RateLimit:    limiter.RateLimit,
		Health:       health,
		Routes:       []httpapi.APIRoutes{clients.NewHandler(clientService, log)},
	})

	srv := httpserver.New(cfg.Addr, router)
	log.Info("starting clientele",
		"addr", cfg.Addr,
		"environment", cfg.Environment,
		"base_path", apiVersion.BasePath(),
		"redis", redisClient != nil,
		"kafka", len(cfg.Kafka.Brokers) > 0,
	)

	g, gctx := errgroup.WithContext(ctx)
	// The audit worker outlives shutdown so events from draining requests
	// persist; Close after the server stops ends it.
	g.Go(func() error {
		return auditPublisher.Run(context.WithoutCancel(gctx))
	})
	g.Go(func() error {
		defer auditPublisher.Close()
		return httpserver.Run(gctx, srv)
	})
	if err := g.Wait(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// buildAuditStore picks the Kafka sink when brokers are configured and the
// in-memory store otherwise.
func buildAuditStore(cfg config.Server, log *slog.Logger, reg prometheus.Registerer) (audit.Store, func(), error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return auditmemory.NewInMemoryStore(), func() {}, nil
	}
	sink, err := auditkafka.NewSink(cfg.Kafka.Brokers, cfg.Kafka.AuditTopic, cfg.Kafka.ClientID,
		auditkafka.WithLogger(log),
		auditkafka.WithMetrics(auditkafka.NewMetrics(reg)),
	)
	if err != nil {
		return nil, nil, err
	}
	return sink, sink.Close, nil
}
