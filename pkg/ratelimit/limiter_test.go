package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// waitBriefly waits for a slot but gives up after a few milliseconds
func waitBriefly(p *Pacer) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	return p.Wait(ctx)
}

func TestPacerUnlimited(t *testing.T) {
	p := NewPacer(0)

	for i := 0; i < 100; i++ {
		require.NoError(t, waitBriefly(p), "request %d should not wait", i)
	}
}

func TestPacerSpacesRequests(t *testing.T) {
	p := NewPacer(60)

	assert.NoError(t, waitBriefly(p), "first request uses the burst slot")
	assert.Error(t, waitBriefly(p), "second request must wait about a second")
}

func TestPacerWaitHonorsCancellation(t *testing.T) {
	p := NewPacer(1)
	require.NoError(t, waitBriefly(p))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, p.Wait(ctx))
}
