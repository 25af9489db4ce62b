// File: pool/reaper.go
// Author: lennyferrell
// License: Apache-2.0
//
// Time-based idle eviction. Pressure-based eviction lives in the borrow
// path; this sweep handles connections that nobody came back for, so the
// pool shrinks toward zero on an idle workload instead of pinning sockets
// open until the peer times them out.

package pool

import (
	"time"

	"go.uber.org/zap"

	"github.com/lennyferrell/http4s/api"
)

// DefaultSweepInterval is how often the reaper scans the idle queue when
// WithMaxIdleTime is set and no interval override is given.
const DefaultSweepInterval = 30 * time.Second

// sweep runs until Shutdown, evicting idle connections older than the
// configured window on every tick.
func (p *ConnPool) sweep() {
	defer close(p.sweepDone)
	ticker := p.clk.Ticker(p.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.evictExpired()
		case <-p.sweepStop:
			return
		}
	}
}

// evictExpired removes every idle connection past the idle window, freeing
// its slot, and disposes of the bodies off the lock.
func (p *ConnPool) evictExpired() {
	now := p.clk.Now()
	var expired []api.Conn

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	kept := p.idle[:0]
	for _, e := range p.idle {
		if now.Sub(e.since) >= p.maxIdleTime {
			p.allocated--
			p.evictions++
			expired = append(expired, e.conn)
		} else {
			kept = append(kept, e)
		}
	}
	p.idle = kept
	p.mu.Unlock()

	if len(expired) > 0 {
		p.log.Debug("pool: reaped idle connections", zap.Int("count", len(expired)))
		p.disposeAll(expired)
	}
}
