// File: internal/concurrency/executor.go
// Author: lennyferrell
// License: Apache-2.0
//
// Executor dispatches tasks across worker goroutines. Submit never blocks:
// tasks land in an unbounded FIFO mailbox drained by the workers, so a slow
// connection handshake on one worker never stalls a caller posting work.

package concurrency

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/eapache/queue"

	"github.com/lennyferrell/http4s/api"
)

// Executor manages a fixed pool of worker goroutines fed from one queue.
type Executor struct {
	mu     sync.Mutex
	cond   *sync.Cond
	tasks  *queue.Queue // FIFO mailbox, guarded by mu
	closed bool

	numWorkers int
	wg         sync.WaitGroup

	// statistics
	submitted atomic.Int64
	completed atomic.Int64
}

// NewExecutor creates a new Executor with the given number of workers.
// If numWorkers <= 0, defaults to runtime.NumCPU().
func NewExecutor(numWorkers int) *Executor {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	e := &Executor{
		tasks:      queue.New(),
		numWorkers: numWorkers,
	}
	e.cond = sync.NewCond(&e.mu)
	e.wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go e.run()
	}
	return e
}

// Submit enqueues a task for execution, returning ErrExecutorClosed if the
// executor is closed.
func (e *Executor) Submit(task func()) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return api.ErrExecutorClosed
	}
	e.tasks.Add(task)
	e.mu.Unlock()
	e.submitted.Add(1)
	e.cond.Signal()
	return nil
}

// NumWorkers returns the number of worker goroutines.
func (e *Executor) NumWorkers() int {
	return e.numWorkers
}

// Close stops accepting new tasks, runs everything already queued, and waits
// for the workers to exit. Tasks submitted before Close are never dropped;
// the pool relies on that to keep its allocation counter consistent.
func (e *Executor) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.mu.Unlock()
	e.cond.Broadcast()
	e.wg.Wait()
}

// Stats returns basic executor metrics.
func (e *Executor) Stats() map[string]int64 {
	submitted := e.submitted.Load()
	completed := e.completed.Load()
	return map[string]int64{
		"submitted_tasks": submitted,
		"completed_tasks": completed,
		"pending_tasks":   submitted - completed,
		"num_workers":     int64(e.numWorkers),
	}
}

// run is the main loop for a worker.
func (e *Executor) run() {
	defer e.wg.Done()
	for {
		e.mu.Lock()
		for e.tasks.Length() == 0 && !e.closed {
			e.cond.Wait()
		}
		if e.tasks.Length() == 0 {
			// closed and drained
			e.mu.Unlock()
			return
		}
		task := e.tasks.Remove().(func())
		e.mu.Unlock()
		e.safeExecute(task)
	}
}

// safeExecute runs the task, recovering from panics to keep the worker alive.
func (e *Executor) safeExecute(task func()) {
	defer func() {
		recover()
		e.completed.Add(1)
	}()
	task()
}
