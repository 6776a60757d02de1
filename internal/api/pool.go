package api

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Pool bounds request concurrency with two lanes: a fast lane for cheap
// evaluations and a slow lane for rollouts, so a burst of rollouts cannot
// starve interactive requests. Acquisition never blocks; a full lane
// rejects immediately and the caller answers 503.
type Pool struct {
	fast *semaphore.Weighted
	slow *semaphore.Weighted

	fastCap int64
	slowCap int64

	fastActive atomic.Int64
	slowActive atomic.Int64
	rejected   atomic.Uint64
}

// PoolStats is a point-in-time occupancy snapshot.
type PoolStats struct {
	FastActive   int64  `json:"fast_active"`
	FastCapacity int64  `json:"fast_capacity"`
	SlowActive   int64  `json:"slow_active"`
	SlowCapacity int64  `json:"slow_capacity"`
	Rejected     uint64 `json:"rejected"`
}

// NewPool builds a pool with the given lane capacities.
func NewPool(fast, slow int64) *Pool {
	return &Pool{
		fast:    semaphore.NewWeighted(fast),
		slow:    semaphore.NewWeighted(slow),
		fastCap: fast,
		slowCap: slow,
	}
}

// AcquireFast reserves a fast-lane slot. The returned release function
// must be called exactly once; ok=false means the lane is full.
func (p *Pool) AcquireFast() (release func(), ok bool) {
	if !p.fast.TryAcquire(1) {
		p.rejected.Add(1)
		return nil, false
	}
	p.fastActive.Add(1)
	return func() {
		p.fastActive.Add(-1)
		p.fast.Release(1)
	}, true
}

// AcquireSlow reserves a slow-lane slot, waiting until ctx expires if the
// lane is busy. Rollouts queue rather than reject, up to the request
// timeout.
func (p *Pool) AcquireSlow(ctx context.Context) (release func(), err error) {
	if err := p.slow.Acquire(ctx, 1); err != nil {
		p.rejected.Add(1)
		return nil, err
	}
	p.slowActive.Add(1)
	return func() {
		p.slowActive.Add(-1)
		p.slow.Release(1)
	}, nil
}

// Stats snapshots current occupancy.
func (p *Pool) Stats() PoolStats {
	return PoolStats{
		FastActive:   p.fastActive.Load(),
		FastCapacity: p.fastCap,
		SlowActive:   p.slowActive.Load(),
		SlowCapacity: p.slowCap,
		Rejected:     p.rejected.Load(),
	}
}
