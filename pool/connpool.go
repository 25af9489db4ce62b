// File: pool/connpool.go
// Author: lennyferrell
// License: Apache-2.0
//
// ConnPool is the pool manager: a single mutex guards the allocation
// counter, the idle queue and the waiter queue, and every decision tree runs
// atomically under it. Only connection establishment itself happens off the
// lock, on the executor; its completion re-enters the lock to settle the
// allocation counter or deliver the failure.
//
// Both queues are plain slices scanned front to back. Key matching removes
// the first matching entry without disturbing the relative order of the
// rest, which makes the scans O(n); queue depths are expected to stay small.

package pool

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/lennyferrell/http4s/api"
	"github.com/lennyferrell/http4s/internal/concurrency"
)

// DefaultMaxTotal is the connection budget used when no option overrides it.
const DefaultMaxTotal = 10

// idleConn pairs a parked connection with the time it went idle, so the
// reaper can expire connections that sat unused past the configured window.
type idleConn struct {
	conn  api.Conn
	since time.Time
}

// ConnPool implements api.Pool.
type ConnPool struct {
	builder api.Builder
	exec    api.Executor
	ownExec bool
	log     *zap.Logger
	clk     clock.Clock

	maxTotal      int
	maxIdleTime   time.Duration
	sweepInterval time.Duration

	mu        sync.Mutex
	allocated int        // idle + checked out + in-flight establishment
	idle      []idleConn // FIFO, oldest first
	waiters   []*pending // FIFO, oldest first
	closed    bool

	// counters, guarded by mu
	borrows   uint64
	reuses    uint64
	evictions uint64
	failures  uint64

	sweepStop chan struct{}
	sweepDone chan struct{}
}

var _ api.Pool = (*ConnPool)(nil)

// New constructs a ConnPool around the given connection builder.
func New(builder api.Builder, opts ...Option) (*ConnPool, error) {
	if builder == nil {
		return nil, api.NewError(api.ErrCodeInvalidArgument, "pool: builder must be provided")
	}
	p := &ConnPool{
		builder:       builder,
		log:           zap.NewNop(),
		clk:           clock.New(),
		maxTotal:      DefaultMaxTotal,
		sweepInterval: DefaultSweepInterval,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.maxTotal <= 0 {
		return nil, api.NewError(api.ErrCodeInvalidArgument, "pool: maxTotal must be positive").
			WithContext("maxTotal", p.maxTotal)
	}
	if p.exec == nil {
		p.exec = concurrency.NewExecutor(0)
		p.ownExec = true
	}
	if p.maxIdleTime > 0 {
		p.sweepStop = make(chan struct{})
		p.sweepDone = make(chan struct{})
		go p.sweep()
	}
	return p, nil
}

// MaxTotal returns the immutable connection budget.
func (p *ConnPool) MaxTotal() int { return p.maxTotal }

// Borrow returns a connection usable for key without ever exceeding the
// pool's budget. An idle match is returned immediately; otherwise a fresh
// connection is established asynchronously, evicting the oldest unrelated
// idle connection if that is what it takes to free a slot. Only when the
// pool is saturated with checked-out connections does the call queue behind
// earlier waiters.
func (p *ConnPool) Borrow(ctx context.Context, key api.Key) (api.NextConn, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return api.NextConn{}, api.ErrPoolClosed
	}
	p.borrows++

	conn, toClose, ok := p.takeIdleLocked(key)
	if ok {
		p.reuses++
		p.mu.Unlock()
		p.disposeAll(toClose)
		p.log.Debug("pool: reusing idle connection", zap.Stringer("key", key))
		return api.NextConn{Conn: conn, Reused: true}, nil
	}
	// No live match; any dead matches found by the scan have already freed
	// their slots and are disposed below, off the lock.

	pend := newPending(key)
	switch {
	case p.allocated < p.maxTotal:
		p.allocated++
		p.startEstablishLocked(pend)
	case len(p.idle) > 0:
		// At capacity with idle capacity available for other keys: trade
		// the oldest idle connection's slot for a fresh one rather than
		// making this caller wait.
		toClose = append(toClose, p.idle[0].conn)
		p.idle = p.idle[1:]
		p.evictions++
		p.startEstablishLocked(pend)
	default:
		p.waiters = append(p.waiters, pend)
		p.log.Debug("pool: queued waiter", zap.Stringer("key", key),
			zap.Int("waiting", len(p.waiters)))
	}
	p.mu.Unlock()

	p.disposeAll(toClose)

	select {
	case out := <-pend.ch:
		return out.next, out.err
	case <-ctx.Done():
		if pend.cancel() {
			return api.NextConn{}, ctx.Err()
		}
		// Lost the race: an outcome is already committed for us.
		out := <-pend.ch
		return out.next, out.err
	}
}

// Release returns ownership of a checked-out connection to the pool. Never
// blocks on connection establishment or waiter delivery.
func (p *ConnPool) Release(conn api.Conn) {
	if conn == nil {
		return
	}
	p.mu.Lock()
	toClose := p.releaseLocked(conn)
	p.mu.Unlock()
	p.disposeAll(toClose)
}

// Invalidate forcibly discards a connection regardless of recyclability.
// The waiter queue is deliberately not consulted: this path exists for
// callers that detected breakage outside the normal release flow.
func (p *ConnPool) Invalidate(conn api.Conn) {
	if conn == nil {
		return
	}
	p.mu.Lock()
	p.allocated--
	p.mu.Unlock()
	p.log.Debug("pool: connection invalidated", zap.Stringer("key", conn.Key()))
	if !conn.IsClosed() {
		p.dispose(conn)
	}
}

// Shutdown closes the pool. Idle connections are disposed, queued waiters
// fail with ErrPoolClosed, and the allocation counter drops to the number of
// connections still checked out; those are disposed individually as their
// borrowers return them. Idempotent.
func (p *ConnPool) Shutdown() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	idle := p.idle
	p.idle = nil
	p.allocated -= len(idle)
	waiters := p.waiters
	p.waiters = nil
	p.mu.Unlock()

	if p.sweepStop != nil {
		close(p.sweepStop)
		<-p.sweepDone
	}
	for _, w := range waiters {
		w.fail(api.ErrPoolClosed)
	}
	var err error
	for _, e := range idle {
		err = multierr.Append(err, e.conn.Shutdown())
	}
	if p.ownExec {
		p.exec.Close()
	}
	p.log.Debug("pool: shut down",
		zap.Int("disposed_idle", len(idle)), zap.Int("failed_waiters", len(waiters)))
	return err
}

// takeIdleLocked removes and returns the first live idle connection matching
// key. Dead matches discovered along the way are unlinked, their slots freed,
// and handed back for off-lock disposal. Non-matching entries keep their
// relative order.
func (p *ConnPool) takeIdleLocked(key api.Key) (api.Conn, []api.Conn, bool) {
	var stale []api.Conn
	for i := 0; i < len(p.idle); {
		if p.idle[i].conn.Key() != key {
			i++
			continue
		}
		conn := p.idle[i].conn
		p.idle = append(p.idle[:i], p.idle[i+1:]...)
		if conn.IsClosed() {
			// dead on discovery
			p.allocated--
			stale = append(stale, conn)
			continue
		}
		return conn, stale, true
	}
	return nil, stale, false
}

// releaseLocked implements the return-path decision tree. Connections that
// must be terminated are returned for disposal off the lock.
func (p *ConnPool) releaseLocked(conn api.Conn) (toClose []api.Conn) {
	if p.closed {
		p.allocated--
		if !conn.IsClosed() {
			toClose = append(toClose, conn)
		}
		return toClose
	}

	if conn.IsRecyclable() && !conn.IsClosed() {
		// Hand off to the first waiter for the same key, skipping entries
		// whose borrowers already gave up.
		for i := 0; i < len(p.waiters); {
			w := p.waiters[i]
			if w.consumed() {
				p.waiters = append(p.waiters[:i], p.waiters[i+1:]...)
				continue
			}
			if w.key != conn.Key() {
				i++
				continue
			}
			p.waiters = append(p.waiters[:i], p.waiters[i+1:]...)
			if w.fulfill(conn, true) {
				// direct handoff: allocated unchanged
				p.log.Debug("pool: handed connection to waiter", zap.Stringer("key", conn.Key()))
				return toClose
			}
		}
		if len(p.waiters) == 0 {
			p.idle = append(p.idle, idleConn{conn: conn, since: p.clk.Now()})
			return toClose
		}
		// Waiters exist but none wants this key: free the slot and spend it
		// on the longest-waiting caller.
		p.allocated--
		p.evictions++
		toClose = append(toClose, conn)
		p.serveOldestLocked()
		return toClose
	}

	// Not recyclable: the pool shrinks unless someone is waiting for a slot.
	p.allocated--
	if !conn.IsClosed() {
		toClose = append(toClose, conn)
	}
	p.serveOldestLocked()
	return toClose
}

// serveOldestLocked pops the oldest live waiter, regardless of key, and
// starts establishing a connection for it.
func (p *ConnPool) serveOldestLocked() {
	for len(p.waiters) > 0 {
		w := p.waiters[0]
		p.waiters = p.waiters[1:]
		if w.consumed() {
			continue
		}
		p.allocated++
		p.startEstablishLocked(w)
		return
	}
}

// startEstablishLocked schedules asynchronous establishment for pend. The
// caller has already charged the slot to the allocation counter; on any
// failure to even begin, the slot is returned before the failure surfaces.
func (p *ConnPool) startEstablishLocked(pend *pending) {
	if p.allocated > p.maxTotal {
		// Unreachable given the guards in Borrow/serveOldestLocked; if it
		// fires, the pool itself is defective. Surfaced to the caller as an
		// ordinary failure rather than corrupting shared state further.
		p.allocated--
		p.failures++
		p.log.Error("pool: establishment attempted beyond budget",
			zap.Stringer("key", pend.key),
			zap.Int("allocated", p.allocated+1), zap.Int("max_total", p.maxTotal))
		pend.fail(api.ErrInvariantViolation)
		return
	}
	key := pend.key
	if err := p.exec.Submit(func() { p.establish(key, pend) }); err != nil {
		p.allocated--
		p.failures++
		pend.fail(&api.EstablishError{Key: key, Err: err})
	}
}

// establish runs on the executor, outside the pool lock. Its completion
// re-enters the lock only to settle the allocation counter or to re-home a
// connection whose borrower vanished while the handshake was in flight.
func (p *ConnPool) establish(key api.Key, pend *pending) {
	conn, err := p.builder.Establish(context.Background(), key)
	if err != nil {
		p.mu.Lock()
		p.allocated--
		p.failures++
		p.mu.Unlock()
		p.log.Debug("pool: establishment failed", zap.Stringer("key", key), zap.Error(err))
		pend.fail(&api.EstablishError{Key: key, Err: err})
		return
	}
	if pend.fulfill(conn, false) {
		return
	}
	// The borrower cancelled while we were dialing. The slot is still
	// charged and the connection is healthy, so give it a home through the
	// normal return path.
	p.mu.Lock()
	toClose := p.releaseLocked(conn)
	p.mu.Unlock()
	p.disposeAll(toClose)
}

// dispose terminates a connection, best-effort. Disposal failures never fail
// the surrounding pool operation.
func (p *ConnPool) dispose(conn api.Conn) {
	if err := conn.Shutdown(); err != nil {
		p.log.Debug("pool: connection shutdown failed", zap.Stringer("key", conn.Key()), zap.Error(err))
	}
}

func (p *ConnPool) disposeAll(conns []api.Conn) {
	for _, c := range conns {
		p.dispose(c)
	}
}
