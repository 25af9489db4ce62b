// Package pool
// Author: lennyferrell
//
// Bounded keyed connection pool for outbound network clients. ConnPool hands
// out reusable connections keyed by destination, caps total concurrent
// connections, queues excess demand in FIFO order, and reclaims or evicts
// connections as load shifts. Connection establishment runs asynchronously on
// an executor so a slow handshake never blocks other pool operations.
// See connpool.go for the borrow/release decision trees and reaper.go for
// time-based idle eviction.
package pool
