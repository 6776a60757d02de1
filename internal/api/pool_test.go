package api

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolFastLaneRejectsWhenFull(t *testing.T) {
	p := NewPool(2, 1)

	r1, ok := p.AcquireFast()
	require.True(t, ok)
	r2, ok := p.AcquireFast()
	require.True(t, ok)

	_, ok = p.AcquireFast()
	assert.False(t, ok)

	stats := p.Stats()
	assert.Equal(t, int64(2), stats.FastActive)
	assert.Equal(t, uint64(1), stats.Rejected)

	r1()
	r2()
	assert.Equal(t, int64(0), p.Stats().FastActive)

	_, ok = p.AcquireFast()
	assert.True(t, ok)
}

func TestPoolSlowLaneWaitsForContext(t *testing.T) {
	p := NewPool(1, 1)

	release, err := p.AcquireSlow(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = p.AcquireSlow(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	release()
	release2, err := p.AcquireSlow(context.Background())
	require.NoError(t, err)
	release2()
}

func TestPoolStatsSnapshot(t *testing.T) {
	p := NewPool(3, 2)
	stats := p.Stats()
	assert.Equal(t, int64(3), stats.FastCapacity)
	assert.Equal(t, int64(2), stats.SlowCapacity)
	assert.Zero(t, stats.FastActive)
	assert.Zero(t, stats.Rejected)
}
