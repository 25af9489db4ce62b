package pool_test

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/lennyferrell/http4s/api"
)

// fakeConn is a test double for api.Conn with observable shutdown counts.
type fakeConn struct {
	key        api.Key
	closed     atomic.Bool
	recyclable atomic.Bool
	shutdowns  atomic.Int32
}

func newFakeConn(key api.Key) *fakeConn {
	c := &fakeConn{key: key}
	c.recyclable.Store(true)
	return c
}

func (c *fakeConn) Key() api.Key       { return c.key }
func (c *fakeConn) IsClosed() bool     { return c.closed.Load() }
func (c *fakeConn) IsRecyclable() bool { return c.recyclable.Load() }

func (c *fakeConn) Shutdown() error {
	c.closed.Store(true)
	c.shutdowns.Add(1)
	return nil
}

// fakeBuilder hands out fakeConns and can be told to fail per key or to
// block establishment behind a gate.
type fakeBuilder struct {
	mu     sync.Mutex
	conns  []*fakeConn
	errFor map[api.Key]error

	gate    chan struct{} // when set, Establish blocks until it is closed
	entered chan struct{} // when set, receives one send per Establish call
}

func newFakeBuilder() *fakeBuilder {
	return &fakeBuilder{errFor: make(map[api.Key]error)}
}

func (b *fakeBuilder) Establish(_ context.Context, key api.Key) (api.Conn, error) {
	b.mu.Lock()
	entered := b.entered
	gate := b.gate
	b.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		<-gate
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.errFor[key]; err != nil {
		return nil, err
	}
	c := newFakeConn(key)
	b.conns = append(b.conns, c)
	return c, nil
}

func (b *fakeBuilder) setErr(key api.Key, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		delete(b.errFor, key)
	} else {
		b.errFor[key] = err
	}
}

// established returns how many connections the builder has produced.
func (b *fakeBuilder) established() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.conns)
}

// live returns how many produced connections have not been shut down.
func (b *fakeBuilder) live() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, c := range b.conns {
		if !c.IsClosed() {
			n++
		}
	}
	return n
}
