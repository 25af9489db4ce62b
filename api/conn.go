// File: api/conn.go
// Author: lennyferrell
// License: Apache-2.0
//
// Connection and builder capabilities. The pool never looks inside a
// connection; it only consults the key, liveness and recyclability, and
// terminates connections it no longer wants.

package api

import "context"

// Key identifies the destination a connection was established to.
// Two connections are interchangeable only if their keys are equal.
type Key struct {
	Scheme    string // e.g. "http", "https", "ws", "wss"
	Authority string // host or host:port
}

func (k Key) String() string {
	return k.Scheme + "://" + k.Authority
}

// Conn is a pooled connection handle. While idle it is owned exclusively by
// the pool; ownership transfers to the borrower on checkout and back on
// release. Implementations must be safe for the pool to inspect concurrently
// with the owner using the connection.
type Conn interface {
	// Key returns the destination this connection serves.
	Key() Key

	// IsClosed reports whether the connection has reached its terminal
	// state, whether closed locally or observed dead.
	IsClosed() bool

	// IsRecyclable reports whether the connection may be handed to another
	// borrower of the same key. Typically false once a protocol error has
	// been observed or the peer disabled keep-alive.
	IsRecyclable() bool

	// Shutdown terminates the underlying resource. Idempotent; best-effort.
	Shutdown() error
}

// Builder establishes new connections on demand. Establish is invoked on the
// pool's executor, never under the pool lock, so it may block on DNS and
// handshakes without stalling other pool operations.
type Builder interface {
	Establish(ctx context.Context, key Key) (Conn, error)
}

// BuilderFunc adapts a plain function to the Builder interface.
type BuilderFunc func(ctx context.Context, key Key) (Conn, error)

func (f BuilderFunc) Establish(ctx context.Context, key Key) (Conn, error) {
	return f(ctx, key)
}

// NextConn is the result of a successful borrow. Reused is false for a
// freshly established connection, which the caller must treat as unverified
// first-use; true when the connection came from the idle set.
type NextConn struct {
	Conn   Conn
	Reused bool
}
