// Package transport
// Author: lennyferrell
//
// Concrete connection builders for the pool: a TCP/TLS dialer and a
// WebSocket dialer. Both produce api.Conn handles that track liveness and
// recyclability, so the pool can reuse or discard them without knowing the
// protocol underneath.
package transport
