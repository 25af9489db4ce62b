// File: transport/conn.go
// Author: lennyferrell
// License: Apache-2.0
//
// Pool-facing wrapper around net.Conn. The wrapper watches the I/O error
// stream to decide recyclability: after a non-timeout error the connection
// is never handed to another borrower, and once the peer is gone it reports
// closed so the pool discards it on discovery.

package transport

import (
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/lennyferrell/http4s/api"
)

// Conn is a pooled TCP or TLS connection.
type Conn struct {
	id  string
	key api.Key
	raw net.Conn

	closed   atomic.Bool
	unusable atomic.Bool

	closeOnce sync.Once
	closeErr  error
}

var _ api.Conn = (*Conn)(nil)

func newConn(key api.Key, raw net.Conn) *Conn {
	return &Conn{
		id:  uuid.NewString(),
		key: key,
		raw: raw,
	}
}

// ID returns the connection's identifier, for log correlation.
func (c *Conn) ID() string { return c.id }

// Key returns the destination this connection serves.
func (c *Conn) Key() api.Key { return c.key }

// NetConn exposes the underlying net.Conn for protocol layers.
func (c *Conn) NetConn() net.Conn { return c.raw }

// IsClosed reports whether the connection reached its terminal state.
func (c *Conn) IsClosed() bool { return c.closed.Load() }

// IsRecyclable reports whether the connection may serve another borrower.
func (c *Conn) IsRecyclable() bool {
	return !c.unusable.Load() && !c.closed.Load()
}

// MarkUnusable flags protocol-level damage observed by the caller, so the
// pool disposes of the connection on release instead of recycling it.
func (c *Conn) MarkUnusable() { c.unusable.Store(true) }

// Read reads from the connection, tracking errors for recyclability.
func (c *Conn) Read(p []byte) (int, error) {
	n, err := c.raw.Read(p)
	c.observe(err)
	return n, err
}

// Write writes to the connection, tracking errors for recyclability.
func (c *Conn) Write(p []byte) (int, error) {
	n, err := c.raw.Write(p)
	c.observe(err)
	return n, err
}

// SetDeadline applies a read/write deadline to the underlying connection.
func (c *Conn) SetDeadline(t time.Time) error { return c.raw.SetDeadline(t) }

// Shutdown terminates the underlying socket. Idempotent; later calls return
// the first result.
func (c *Conn) Shutdown() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		c.closeErr = c.raw.Close()
	})
	return c.closeErr
}

// observe classifies an I/O error. Timeouts leave the connection usable;
// anything else rules out recycling, and a vanished peer marks it closed.
func (c *Conn) observe(err error) {
	if err == nil {
		return
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return
	}
	c.unusable.Store(true)
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		c.closed.Store(true)
	}
}
