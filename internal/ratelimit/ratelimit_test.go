package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitSpacesRequests(t *testing.T) {
	limiter := New("test", 50)

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, limiter.Wait(context.Background()))
	}
	elapsed := time.Since(start)

	// Burst of 1 at 50 req/s means the second and third waits each take ~20ms.
	assert.GreaterOrEqual(t, elapsed, 30*time.Millisecond)
}

func TestWaitCancelledContext(t *testing.T) {
	limiter := New("test", 1)
	require.NoError(t, limiter.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := limiter.Wait(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit wait for test")
}

func TestName(t *testing.T) {
	assert.Equal(t, "OpenLibrary", New("OpenLibrary", 1).Name())
}
