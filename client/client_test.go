package client_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lennyferrell/http4s/api"
	"github.com/lennyferrell/http4s/client"
	"github.com/lennyferrell/http4s/pool"
)

var keyA = api.Key{Scheme: "http", Authority: "a.example:80"}

type stubConn struct {
	key    api.Key
	closed atomic.Bool
}

func (c *stubConn) Key() api.Key       { return c.key }
func (c *stubConn) IsClosed() bool     { return c.closed.Load() }
func (c *stubConn) IsRecyclable() bool { return !c.closed.Load() }
func (c *stubConn) Shutdown() error    { c.closed.Store(true); return nil }

type stubBuilder struct {
	mu    sync.Mutex
	count int
}

func (b *stubBuilder) Establish(_ context.Context, key api.Key) (api.Conn, error) {
	b.mu.Lock()
	b.count++
	b.mu.Unlock()
	return &stubConn{key: key}, nil
}

func (b *stubBuilder) established() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

func newClient(t *testing.T, maxTotal int) (*client.Pooled, *stubBuilder) {
	t.Helper()
	b := &stubBuilder{}
	p, err := pool.New(b, pool.WithMaxTotal(maxTotal))
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Shutdown() })
	return client.New(p), b
}

func TestDoReleasesOnSuccess(t *testing.T) {
	c, _ := newClient(t, 2)

	var seen api.Conn
	err := c.Do(context.Background(), keyA, func(next api.NextConn) error {
		seen = next.Conn
		assert.False(t, next.Reused)
		return nil
	})
	require.NoError(t, err)

	st := c.Stats()
	assert.Equal(t, 1, st.Idle, "successful Do must recycle the connection")
	assert.False(t, seen.IsClosed())

	// The next Do for the same key reuses it.
	err = c.Do(context.Background(), keyA, func(next api.NextConn) error {
		assert.True(t, next.Reused)
		assert.Same(t, seen, next.Conn)
		return nil
	})
	require.NoError(t, err)
}

func TestDoInvalidatesOnCallbackError(t *testing.T) {
	c, b := newClient(t, 2)

	boom := errors.New("protocol violation")
	var seen api.Conn
	err := c.Do(context.Background(), keyA, func(next api.NextConn) error {
		seen = next.Conn
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.True(t, seen.IsClosed(), "failed Do must discard the connection")

	st := c.Stats()
	assert.Equal(t, 0, st.Allocated)
	assert.Equal(t, 0, st.Idle)

	require.NoError(t, c.Do(context.Background(), keyA, func(api.NextConn) error { return nil }))
	assert.Equal(t, 2, b.established())
}

func TestDoPropagatesBorrowFailure(t *testing.T) {
	b := &stubBuilder{}
	p, err := pool.New(b, pool.WithMaxTotal(1))
	require.NoError(t, err)
	require.NoError(t, p.Shutdown())

	c := client.New(p)
	err = c.Do(context.Background(), keyA, func(api.NextConn) error {
		t.Fatal("callback must not run without a connection")
		return nil
	})
	assert.ErrorIs(t, err, api.ErrPoolClosed)
}

func TestWarmFillsIdleSet(t *testing.T) {
	c, b := newClient(t, 4)

	require.NoError(t, c.Warm(context.Background(), keyA, 3))
	st := c.Stats()
	assert.Equal(t, 3, st.Idle)
	assert.Equal(t, 3, st.Allocated)
	assert.Equal(t, 3, b.established())
}

func TestWarmCapsAtBudget(t *testing.T) {
	c, b := newClient(t, 2)

	require.NoError(t, c.Warm(context.Background(), keyA, 10))
	st := c.Stats()
	assert.Equal(t, 2, st.Idle)
	assert.Equal(t, 2, b.established())
}
