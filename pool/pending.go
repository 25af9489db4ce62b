// File: pool/pending.go
// Author: lennyferrell
// License: Apache-2.0
//
// One-shot continuation for a borrow that could not be satisfied
// immediately. Exactly one of fulfill, fail or cancel consumes the shot;
// the losers of the race observe false and leave the outcome alone.

package pool

import (
	"sync/atomic"

	"github.com/lennyferrell/http4s/api"
)

type outcome struct {
	next api.NextConn
	err  error
}

// pending is a queued borrow awaiting fulfillment. The channel is buffered
// so the resolving side never blocks on a borrower that already left.
type pending struct {
	key  api.Key
	ch   chan outcome
	done atomic.Bool
}

func newPending(key api.Key) *pending {
	return &pending{key: key, ch: make(chan outcome, 1)}
}

// fulfill delivers a connection to the borrower. Reports whether this call
// won the shot; when false the connection still belongs to the caller.
func (p *pending) fulfill(conn api.Conn, reused bool) bool {
	if !p.done.CompareAndSwap(false, true) {
		return false
	}
	p.ch <- outcome{next: api.NextConn{Conn: conn, Reused: reused}}
	return true
}

// fail delivers a failure to the borrower.
func (p *pending) fail(err error) bool {
	if !p.done.CompareAndSwap(false, true) {
		return false
	}
	p.ch <- outcome{err: err}
	return true
}

// cancel consumes the shot on behalf of a borrower that gave up waiting.
// Reports whether the borrower won; when false an outcome is already on the
// channel (or about to land) and must be consumed instead.
func (p *pending) cancel() bool {
	return p.done.CompareAndSwap(false, true)
}

// consumed reports whether the shot has been spent. Queue scans use it to
// drop stale entries left behind by cancelled borrows.
func (p *pending) consumed() bool {
	return p.done.Load()
}
