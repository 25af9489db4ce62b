// File: transport/ws.go
// Author: lennyferrell
// License: Apache-2.0
//
// WebSocket connection builder over gorilla/websocket. Framing and the
// upgrade handshake are gorilla's business; this file only adapts the
// result to the pool's Conn capability.

package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/lennyferrell/http4s/api"
)

const wsCloseGrace = time.Second

// WSDialer establishes WebSocket connections for ws/wss keys.
type WSDialer struct {
	dialer *websocket.Dialer
	header http.Header
	log    *zap.Logger
}

var _ api.Builder = (*WSDialer)(nil)

// WSDialerOption customizes a WSDialer.
type WSDialerOption func(*WSDialer)

// WithWSHeader sets extra headers sent with the upgrade request, e.g.
// authorization.
func WithWSHeader(h http.Header) WSDialerOption {
	return func(d *WSDialer) { d.header = h }
}

// WithWSTLSConfig sets the TLS client configuration for wss keys.
func WithWSTLSConfig(cfg *tls.Config) WSDialerOption {
	return func(d *WSDialer) { d.dialer.TLSClientConfig = cfg }
}

// WithWSLogger attaches a structured logger.
func WithWSLogger(log *zap.Logger) WSDialerOption {
	return func(d *WSDialer) {
		if log != nil {
			d.log = log
		}
	}
}

// NewWSDialer constructs a WSDialer.
func NewWSDialer(opts ...WSDialerOption) *WSDialer {
	d := &WSDialer{
		dialer: &websocket.Dialer{HandshakeTimeout: defaultDialTimeout},
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Establish implements api.Builder.
func (d *WSDialer) Establish(ctx context.Context, key api.Key) (api.Conn, error) {
	u := key.String() // ws://host:port or wss://host:port
	ws, resp, err := d.dialer.DialContext(ctx, u, d.header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("ws handshake %s: status %d: %w", key, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("ws dial %s: %w", key, err)
	}
	conn := &WSConn{id: uuid.NewString(), key: key, ws: ws}
	ws.SetCloseHandler(func(code int, text string) error {
		conn.closed.Store(true)
		return nil
	})
	d.log.Debug("transport: established websocket",
		zap.Stringer("key", key), zap.String("conn_id", conn.id))
	return conn, nil
}

// WSConn is a pooled WebSocket connection.
type WSConn struct {
	id  string
	key api.Key
	ws  *websocket.Conn

	closed   atomic.Bool
	unusable atomic.Bool

	closeOnce sync.Once
	closeErr  error
}

var _ api.Conn = (*WSConn)(nil)

// ID returns the connection's identifier, for log correlation.
func (c *WSConn) ID() string { return c.id }

// Key returns the destination this connection serves.
func (c *WSConn) Key() api.Key { return c.key }

// WS exposes the underlying websocket connection for message exchange.
func (c *WSConn) WS() *websocket.Conn { return c.ws }

// IsClosed reports whether the connection reached its terminal state.
func (c *WSConn) IsClosed() bool { return c.closed.Load() }

// IsRecyclable reports whether the connection may serve another borrower.
func (c *WSConn) IsRecyclable() bool {
	return !c.unusable.Load() && !c.closed.Load()
}

// MarkUnusable flags damage observed by the caller, ruling out recycling.
func (c *WSConn) MarkUnusable() { c.unusable.Store(true) }

// Shutdown sends a best-effort close frame and tears down the socket.
// Idempotent; later calls return the first result.
func (c *WSConn) Shutdown() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(wsCloseGrace))
		c.closeErr = c.ws.Close()
	})
	return c.closeErr
}
