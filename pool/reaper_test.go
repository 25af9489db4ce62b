package pool_test

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lennyferrell/http4s/pool"
)

func TestReaperEvictsExpiredIdle(t *testing.T) {
	b := newFakeBuilder()
	mock := clock.NewMock()
	p, err := pool.New(b,
		pool.WithMaxTotal(4),
		pool.WithMaxIdleTime(time.Minute),
		pool.WithSweepInterval(time.Second),
		pool.WithClock(mock))
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Shutdown() })

	next, err := p.Borrow(context.Background(), keyA)
	require.NoError(t, err)
	p.Release(next.Conn)
	require.Equal(t, 1, p.Stats().Idle)

	// Within the idle window nothing is evicted.
	mock.Add(30 * time.Second)
	assert.Equal(t, 1, p.Stats().Idle)

	// Past the window the sweep reclaims the connection and its slot.
	require.Eventually(t, func() bool {
		mock.Add(10 * time.Second)
		st := p.Stats()
		return st.Idle == 0 && st.Allocated == 0
	}, 2*time.Second, 5*time.Millisecond)
	assert.True(t, next.Conn.IsClosed())
}

func TestReaperKeepsRecentlyParked(t *testing.T) {
	b := newFakeBuilder()
	mock := clock.NewMock()
	p, err := pool.New(b,
		pool.WithMaxTotal(4),
		pool.WithMaxIdleTime(time.Minute),
		pool.WithSweepInterval(time.Second),
		pool.WithClock(mock))
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Shutdown() })

	old, err := p.Borrow(context.Background(), keyA)
	require.NoError(t, err)
	p.Release(old.Conn)

	mock.Add(45 * time.Second)

	young, err := p.Borrow(context.Background(), keyB)
	require.NoError(t, err)
	p.Release(young.Conn)

	// Only the connection past the window goes.
	require.Eventually(t, func() bool {
		mock.Add(5 * time.Second)
		return p.Stats().Idle == 1
	}, 2*time.Second, 5*time.Millisecond)
	assert.True(t, old.Conn.IsClosed())
	assert.False(t, young.Conn.IsClosed())
}

func TestNoReaperWithoutMaxIdleTime(t *testing.T) {
	b := newFakeBuilder()
	mock := clock.NewMock()
	p, err := pool.New(b, pool.WithMaxTotal(2), pool.WithClock(mock))
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Shutdown() })

	next, err := p.Borrow(context.Background(), keyA)
	require.NoError(t, err)
	p.Release(next.Conn)

	mock.Add(24 * time.Hour)
	assert.Equal(t, 1, p.Stats().Idle, "idle connections live forever without a window")
}
