package functions

import (
	"context"
	"time"
)

const defaultStaleAfter = 10 * time.Minute

// RecoverySweep re-queues jobs that have not moved for a while: pending jobs
// whose submission was dropped by a full queue, and running jobs whose worker
// went away before recording the outcome.
type RecoverySweep struct {
	svc        *FunctionService
	staleAfter time.Duration
}

// NewRecoverySweep creates a new RecoverySweep. staleAfter should exceed the
// job timeout so attempts still in progress are left alone.
func NewRecoverySweep(svc *FunctionService, staleAfter time.Duration) *RecoverySweep {
	if staleAfter <= 0 {
		staleAfter = defaultStaleAfter
	}
	return &RecoverySweep{svc: svc, staleAfter: staleAfter}
}

// Sweep resumes unfinished jobs last updated before now minus staleAfter
func (r *RecoverySweep) Sweep(ctx context.Context, now time.Time) (int, error) {
	return r.svc.resume(ctx, now.Add(-r.staleAfter))
}
