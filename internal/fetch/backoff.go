package fetch

import (
	"math/rand"
	"time"
)

// Policy controls retry behavior for transient failures.
type Policy struct {
	// Base is the backoff before the first retry.
	Base time.Duration
	// Cap bounds the backoff regardless of attempt count.
	Cap time.Duration
	// MaxAttempts is the total number of tries per item, first attempt
	// included.
	MaxAttempts int
}

// DefaultPolicy matches the shipped configuration defaults.
func DefaultPolicy() Policy {
	return Policy{Base: time.Second, Cap: 30 * time.Second, MaxAttempts: 3}
}

// Exhausted reports whether a task that just finished the given attempt
// (1-based) has no retries left.
func (p Policy) Exhausted(attempt int) bool {
	return attempt >= p.MaxAttempts
}

// Delay returns the wait before retrying after the given attempt (1-based).
// The delay grows exponentially up to Cap, with full jitter so simultaneous
// failures against one provider spread out instead of retrying in lockstep.
func (p Policy) Delay(attempt int) time.Duration {
	base := p.Base
	if base <= 0 {
		base = time.Second
	}
	capped := p.Cap
	if capped <= 0 {
		capped = 30 * time.Second
	}
	if attempt < 1 {
		attempt = 1
	}

	ceiling := base
	for i := 1; i < attempt; i++ {
		ceiling *= 2
		if ceiling >= capped {
			ceiling = capped
			break
		}
	}
	if ceiling > capped {
		ceiling = capped
	}
	return time.Duration(rand.Int63n(int64(ceiling) + 1))
}
