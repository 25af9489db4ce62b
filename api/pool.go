// File: api/pool.go
// Author: lennyferrell
// License: Apache-2.0
//
// Pool surface: the borrow/release/invalidate/shutdown protocol.

package api

import "context"

// Pool hands out reusable connections keyed by destination while never
// exceeding a fixed connection budget. Excess demand is queued in FIFO
// order and served as capacity frees up.
type Pool interface {
	// Borrow returns a connection usable for key, establishing one if
	// needed. It blocks the calling goroutine (never the pool) until a
	// connection is available, establishment fails, or ctx is done.
	Borrow(ctx context.Context, key Key) (NextConn, error)

	// Release returns ownership of a borrowed connection to the pool.
	// The connection may be handed to a waiter, parked idle, or disposed.
	Release(conn Conn)

	// Invalidate forcibly discards a borrowed connection regardless of
	// recyclability, for callers that detected it is unusable.
	Invalidate(conn Conn)

	// Shutdown closes the pool: idle connections are disposed and queued
	// waiters fail with ErrPoolClosed. Idempotent. Connections still
	// checked out are disposed as they are individually returned.
	Shutdown() error
}
