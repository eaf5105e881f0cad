package tools

import (
	"sync"
	"time"
)

// gate is a token bucket capping tool calls per refill window.
type gate struct {
	mu         sync.Mutex
	capacity   int
	available  int
	window     time.Duration
	lastRefill time.Time
	nowFunc    func() time.Time // for testing
}

func newGate(capacity int, window time.Duration) *gate {
	return &gate{
		capacity:   capacity,
		available:  capacity, // start full
		window:     window,
		lastRefill: time.Now(),
		nowFunc:    time.Now,
	}
}

// refill adds tokens based on elapsed time since last refill.
func (g *gate) refill(now time.Time) {
	if g.window == 0 || g.capacity == 0 {
		return
	}
	elapsed := now.Sub(g.lastRefill)
	if elapsed <= 0 {
		return
	}
	tokensToAdd := int(float64(g.capacity) * float64(elapsed) / float64(g.window))
	if tokensToAdd > 0 {
		g.available += tokensToAdd
		if g.available > g.capacity {
			g.available = g.capacity
		}
		g.lastRefill = now
	}
}

// tryAcquire attempts to take a token without blocking.
func (g *gate) tryAcquire() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.refill(g.nowFunc())
	if g.available > 0 {
		g.available--
		return true
	}
	return false
}
