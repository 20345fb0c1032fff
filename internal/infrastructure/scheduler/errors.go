package scheduler

import "errors"

var (
	// ErrPoolStopped is returned by Submit and Resume before Start or after Stop
	ErrPoolStopped = errors.New("worker pool is not running")

	// ErrQueueFull means the job was not queued; it stays pending in the
	// job table and is picked up again by the next recovery pass
	ErrQueueFull = errors.New("job queue is full")
)
