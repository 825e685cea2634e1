package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limits describes the throttle applied to one source.
type Limits struct {
	// Concurrency caps the number of in-flight requests. Zero or negative
	// means unlimited.
	Concurrency int
	// RequestsPerMinute spaces out request starts. Zero or negative means
	// unpaced.
	RequestsPerMinute int
}

// Gate enforces Limits for a single source. Acquire blocks until a slot and a
// pacing token are both available; waiters are served roughly in arrival
// order.
type Gate struct {
	slots   chan struct{}
	limiter *rate.Limiter
}

// NewGate builds a Gate for the given limits.
func NewGate(limits Limits) *Gate {
	g := &Gate{}
	if limits.Concurrency > 0 {
		g.slots = make(chan struct{}, limits.Concurrency)
	}
	if limits.RequestsPerMinute > 0 {
		interval := time.Minute / time.Duration(limits.RequestsPerMinute)
		g.limiter = rate.NewLimiter(rate.Every(interval), 1)
	}
	return g
}

// Acquire blocks until the caller may start a request, then returns a release
// function that must be called when the request finishes. The concurrency slot
// is taken before the pacing wait so a cancelled waiter never burns a token.
func (g *Gate) Acquire(ctx context.Context) (func(), error) {
	release := func() {}
	if g.slots != nil {
		select {
		case g.slots <- struct{}{}:
			release = func() { <-g.slots }
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			release()
			return nil, err
		}
	}
	return release, nil
}

// Registry hands out one Gate per source, creating each on first use.
type Registry struct {
	limitsFor func(sourceName string) Limits

	mu    sync.Mutex
	gates map[string]*Gate
}

// NewRegistry builds a Registry. limitsFor supplies the per-source limits and
// is consulted once per source, on first acquisition.
func NewRegistry(limitsFor func(sourceName string) Limits) *Registry {
	return &Registry{
		limitsFor: limitsFor,
		gates:     make(map[string]*Gate),
	}
}

// Gate returns the Gate for a source, creating it if needed.
func (r *Registry) Gate(sourceName string) *Gate {
	r.mu.Lock()
	defer r.mu.Unlock()
	if gate, ok := r.gates[sourceName]; ok {
		return gate
	}
	gate := NewGate(r.limitsFor(sourceName))
	r.gates[sourceName] = gate
	return gate
}
