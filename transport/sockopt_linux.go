//go:build linux

// File: transport/sockopt_linux.go
// Author: lennyferrell
// License: Apache-2.0

package transport

import (
	"net"
	"time"

	"golang.org/x/sys/unix"
)

// tuneKeepAlive enables TCP keepalive probing with the given period so dead
// peers are noticed while a connection sits idle in the pool. Best-effort;
// a connection that cannot be tuned is still usable.
func tuneKeepAlive(conn net.Conn, period time.Duration) {
	if period <= 0 {
		return
	}
	tc, ok := conn.(*net.TCPConn)
	if !ok {
		return
	}
	raw, err := tc.SyscallConn()
	if err != nil {
		return
	}
	secs := int(period / time.Second)
	if secs < 1 {
		secs = 1
	}
	_ = raw.Control(func(fd uintptr) {
		_ = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_KEEPALIVE, 1)
		_ = unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_KEEPIDLE, secs)
		_ = unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_KEEPINTVL, secs)
	})
}
