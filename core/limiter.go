package core

import (
	"errors"
	"fmt"
	"sync/atomic"
)

// ErrModelCallLimit is returned once a run exceeds its model call budget.
var ErrModelCallLimit = errors.New("exceeded max model calls")

// ModelLimiter is the model call budget of one run. Nested agent-tool runs
// share their parent's limiter, so the budget covers every agent of the run.
// A refused call does not consume budget.
type ModelLimiter struct {
	max   int64
	count atomic.Int64
}

// NewModelLimiter creates a budget of max calls. Zero means unlimited.
func NewModelLimiter(max int) *ModelLimiter {
	return &ModelLimiter{max: int64(max)}
}

// Increment reserves one model call or fails with ErrModelCallLimit.
func (ml *ModelLimiter) Increment() error {
	for {
		n := ml.count.Load()
		if ml.max > 0 && n >= ml.max {
			return fmt.Errorf("%w: %d", ErrModelCallLimit, ml.max)
		}
		if ml.count.CompareAndSwap(n, n+1) {
			return nil
		}
	}
}

// Count returns the number of granted calls.
func (ml *ModelLimiter) Count() int { return int(ml.count.Load()) }

// Max returns the budget, zero when unlimited.
func (ml *ModelLimiter) Max() int { return int(ml.max) }

// Remaining returns the calls left, or -1 when unlimited.
func (ml *ModelLimiter) Remaining() int {
	if ml.max == 0 {
		return -1
	}
	return int(ml.max - ml.count.Load())
}
