//go:build !linux

// File: transport/sockopt_stub.go
// Author: lennyferrell
// License: Apache-2.0

package transport

import (
	"net"
	"time"
)

// tuneKeepAlive falls back to the portable net.TCPConn knobs on platforms
// without raw socket option support in this package.
func tuneKeepAlive(conn net.Conn, period time.Duration) {
	if period <= 0 {
		return
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		_ = tc.SetKeepAlive(true)
		_ = tc.SetKeepAlivePeriod(period)
	}
}
