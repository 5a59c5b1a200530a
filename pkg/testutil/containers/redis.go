//go:build integration

package containers

import (
	"context"
	"testing"
	"time"

	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"clientele/internal/platform/config"
	platformredis "clientele/internal/platform/redis"
)

// Redis is a throwaway Redis server reached through the same client
// constructor the server uses at startup.
type Redis struct {
	URL    string
	Client *platformredis.Client
}

// StartRedis runs redis:7-alpine, connects with cfg applied on top of the
// container URL, and stops both when the test finishes.
func StartRedis(t *testing.T, cfg config.RedisConfig) *Redis {
	t.Helper()
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		t.Fatalf("start redis container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	url, err := container.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("redis connection string: %v", err)
	}

	cfg.URL = url
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = 5 * time.Second
	}
	client, err := platformredis.New(ctx, cfg)
	if err != nil {
		t.Fatalf("connect to redis: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	return &Redis{URL: url, Client: client}
}

// DeleteKeys removes every key matching pattern, so suites sharing one server
// start each test from empty rate-limit buckets.
func (r *Redis) DeleteKeys(ctx context.Context, pattern string) error {
	iter := r.Client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := r.Client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}
