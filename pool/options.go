// File: pool/options.go
// Package pool defines functional options for ConnPool construction.
// Author: lennyferrell
// License: Apache-2.0

package pool

import (
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/lennyferrell/http4s/api"
)

// Option customizes pool initialization.
type Option func(*ConnPool)

// WithMaxTotal sets the connection budget: the maximum number of connections
// counted as idle, checked out, or in-flight at once.
func WithMaxTotal(n int) Option {
	return func(p *ConnPool) {
		p.maxTotal = n
	}
}

// WithExecutor supplies the execution context for connection establishment.
// The caller keeps ownership: the pool will not close it on Shutdown.
func WithExecutor(exec api.Executor) Option {
	return func(p *ConnPool) {
		p.exec = exec
		p.ownExec = false
	}
}

// WithLogger attaches a structured logger. Defaults to a nop logger.
func WithLogger(log *zap.Logger) Option {
	return func(p *ConnPool) {
		if log != nil {
			p.log = log
		}
	}
}

// WithMaxIdleTime enables the idle reaper: connections idle longer than d
// are evicted by a background sweep. Zero disables time-based eviction.
func WithMaxIdleTime(d time.Duration) Option {
	return func(p *ConnPool) {
		p.maxIdleTime = d
	}
}

// WithSweepInterval overrides how often the reaper scans the idle queue.
func WithSweepInterval(d time.Duration) Option {
	return func(p *ConnPool) {
		if d > 0 {
			p.sweepInterval = d
		}
	}
}

// WithClock substitutes the time source used for idle bookkeeping and the
// reaper, so tests can drive sweeps deterministically.
func WithClock(clk clock.Clock) Option {
	return func(p *ConnPool) {
		if clk != nil {
			p.clk = clk
		}
	}
}
