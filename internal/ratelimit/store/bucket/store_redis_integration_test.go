//go:build integration

package bucket

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"clientele/internal/platform/config"
	"clientele/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.Redis
	store *RedisStore
	ctx   context.Context
}

func TestRedisStoreSuite(t *testing.T) {
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.StartRedis(s.T(), config.RedisConfig{PoolSize: 4})
	s.store = NewRedisStore(s.redis.Client)
	s.ctx = context.Background()
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.DeleteKeys(s.ctx, "it:*"))
}

func (s *RedisStoreSuite) TestHealthThroughPlatformClient() {
	s.Require().NoError(s.redis.Client.Health(s.ctx))
}

func (s *RedisStoreSuite) TestAllowUpToLimit() {
	key := "it:allow"
	for i := range 3 {
		res, err := s.store.Allow(s.ctx, key, 3, time.Minute)
		s.Require().NoError(err)
		s.True(res.Allowed)
		s.Equal(3-(i+1), res.Remaining)
	}

	res, err := s.store.Allow(s.ctx, key, 3, time.Minute)
	s.Require().NoError(err)
	s.False(res.Allowed)
	s.Positive(res.RetryAfter)

	count, err := s.store.GetCurrentCount(s.ctx, key)
	s.Require().NoError(err)
	s.Equal(3, count)
}

func (s *RedisStoreSuite) TestWindowExpires() {
	key := "it:expire"
	_, err := s.store.AllowN(s.ctx, key, 2, 2, 200*time.Millisecond)
	s.Require().NoError(err)

	res, err := s.store.Allow(s.ctx, key, 2, 200*time.Millisecond)
	s.Require().NoError(err)
	s.False(res.Allowed)

	time.Sleep(300 * time.Millisecond)
	res, err = s.store.Allow(s.ctx, key, 2, 200*time.Millisecond)
	s.Require().NoError(err)
	s.True(res.Allowed)
}

func (s *RedisStoreSuite) TestReset() {
	key := "it:reset"
	_, err := s.store.AllowN(s.ctx, key, 5, 5, time.Minute)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Reset(s.ctx, key))

	res, err := s.store.Allow(s.ctx, key, 5, time.Minute)
	s.Require().NoError(err)
	s.True(res.Allowed)
	s.Equal(4, res.Remaining)
}
