package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewIPRateLimitKey(t *testing.T) {
	assert.Equal(t, "clientele:ratelimit:ip:api:10.0.0.1", NewIPRateLimitKey("10.0.0.1", "api"))
	assert.Equal(t, "clientele:ratelimit:ip:api:__1", NewIPRateLimitKey("::1", "api"))
}

func TestDeny(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	res := Deny(10, now.Add(1500*time.Millisecond), now)
	assert.False(t, res.Allowed)
	assert.Equal(t, 2, res.RetryAfter)
	assert.Equal(t, 10, res.Limit)

	assert.Equal(t, 1, Deny(10, now.Add(-time.Second), now).RetryAfter)
}
