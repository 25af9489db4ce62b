// File: pool/stats.go
// Author: lennyferrell
//
// Point-in-time pool statistics, taken under the pool lock.

package pool

// Stats is a consistent snapshot of pool state and lifetime counters.
type Stats struct {
	MaxTotal  int
	Allocated int // idle + checked out + in-flight establishment
	Idle      int
	Waiting   int
	Closed    bool

	Borrows   uint64
	Reuses    uint64
	Evictions uint64
	Failures  uint64
}

// Stats returns a snapshot of the pool's current state.
func (p *ConnPool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	waiting := 0
	for _, w := range p.waiters {
		if !w.consumed() {
			waiting++
		}
	}
	return Stats{
		MaxTotal:  p.maxTotal,
		Allocated: p.allocated,
		Idle:      len(p.idle),
		Waiting:   waiting,
		Closed:    p.closed,
		Borrows:   p.borrows,
		Reuses:    p.reuses,
		Evictions: p.evictions,
		Failures:  p.failures,
	}
}
