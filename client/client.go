// File: client/client.go
// Package client provides a use-and-return facade over the connection pool.
// Author: lennyferrell
// License: Apache-2.0
//
// Callers that do not want to manage borrow/release pairing by hand wrap the
// pool in a Pooled client: Do borrows, runs the callback, and returns the
// connection on the right path: Release on success, Invalidate on error,
// since a callback error usually means the connection's state is suspect.

package client

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lennyferrell/http4s/api"
	"github.com/lennyferrell/http4s/pool"
)

// Pooled wraps a ConnPool with callback-scoped connection ownership.
type Pooled struct {
	pool *pool.ConnPool
	log  *zap.Logger
}

// PooledOption customizes a Pooled client.
type PooledOption func(*Pooled)

// WithLogger attaches a structured logger. Defaults to a nop logger.
func WithLogger(log *zap.Logger) PooledOption {
	return func(c *Pooled) {
		if log != nil {
			c.log = log
		}
	}
}

// New wraps p. The caller keeps ownership of the pool's lifecycle.
func New(p *pool.ConnPool, opts ...PooledOption) *Pooled {
	c := &Pooled{pool: p, log: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do borrows a connection for key, invokes fn with it, and returns it to the
// pool. A callback error invalidates the connection instead of recycling it.
func (c *Pooled) Do(ctx context.Context, key api.Key, fn func(api.NextConn) error) error {
	next, err := c.pool.Borrow(ctx, key)
	if err != nil {
		return err
	}
	if err := fn(next); err != nil {
		c.log.Debug("client: invalidating connection after callback error",
			zap.Stringer("key", key), zap.Error(err))
		c.pool.Invalidate(next.Conn)
		return err
	}
	c.pool.Release(next.Conn)
	return nil
}

// Warm pre-establishes up to n connections for key, then parks them idle.
// n is capped at the pool's budget so warming can never deadlock on itself.
func (c *Pooled) Warm(ctx context.Context, key api.Key, n int) error {
	if max := c.pool.MaxTotal(); n > max {
		n = max
	}
	conns := make(chan api.Conn, n)
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			next, err := c.pool.Borrow(ctx, key)
			if err != nil {
				return err
			}
			conns <- next.Conn
			return nil
		})
	}
	err := g.Wait()
	close(conns)
	for conn := range conns {
		c.pool.Release(conn)
	}
	return err
}

// Stats exposes the underlying pool's statistics.
func (c *Pooled) Stats() pool.Stats {
	return c.pool.Stats()
}
