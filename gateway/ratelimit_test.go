package gateway

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_DisabledNeverBlocks(t *testing.T) {
	limiter := NewRateLimiter(0)
	start := time.Now()
	for i := 0; i < 100; i++ {
		limiter.Wait("model-a")
	}
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestRateLimiter_NilReceiverNeverBlocks(t *testing.T) {
	var limiter *RateLimiter
	assert.NotPanics(t, func() { limiter.Wait("model-a") })
}

func TestRateLimiter_AllowsUpToLimitWithoutBlocking(t *testing.T) {
	limiter := NewRateLimiter(5)
	start := time.Now()
	for i := 0; i < 5; i++ {
		limiter.Wait("model-a")
	}
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestRateLimiter_TracksModelsIndependently(t *testing.T) {
	limiter := NewRateLimiter(1)
	limiter.Wait("model-a")
	limiter.Wait("model-b") // different model, same window: must not block

	window := limiter.windowFor("model-a")
	assert.Equal(t, 1, window.count(time.Now()))
}

func TestSlidingWindow_CountsWithinWindowAndEvictsOld(t *testing.T) {
	w := newSlidingWindow(60)
	now := time.Now()
	w.record(now)
	w.record(now)
	assert.Equal(t, 2, w.count(now))

	future := now.Add(90 * time.Second)
	assert.Equal(t, 0, w.count(future))
}
