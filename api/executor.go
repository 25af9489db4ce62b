// Package api
// Author: lennyferrell
//
// Executor contract for dispatching connection-establishment work off the
// pool lock.

package api

// Executor abstracts a pool of worker goroutines.
type Executor interface {
	// Submit schedules task for execution.
	Submit(task func()) error

	// NumWorkers returns the number of worker goroutines.
	NumWorkers() int

	// Close stops accepting tasks, drains what is already queued, and
	// waits for the workers to exit.
	Close()
}
