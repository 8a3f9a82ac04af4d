package api

import (
	"testing"

	"visits/internal/config"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter(t *testing.T) {
	l := newRateLimiter(config.APIRateLimitConfig{RPS: 0.001, Burst: 2})

	assert.True(t, l.allow("a"))
	assert.True(t, l.allow("a"))
	assert.False(t, l.allow("a"))
	assert.True(t, l.allow("b"), "keys have separate buckets")
	assert.Same(t, l.getLimiter("a"), l.getLimiter("a"))
}

func TestRateLimiter_Disabled(t *testing.T) {
	l := newRateLimiter(config.APIRateLimitConfig{})
	for i := 0; i < 100; i++ {
		assert.True(t, l.allow("a"))
	}
}

func TestRateLimiter_DefaultBurst(t *testing.T) {
	l := newRateLimiter(config.APIRateLimitConfig{RPS: 1})
	assert.Equal(t, 5, l.getLimiter("x").Burst())
}
