// File: transport/dialer.go
// Author: lennyferrell
// License: Apache-2.0
//
// TCP/TLS connection builder. Name resolution is memoized in an expiring
// LRU so a busy pool dialing the same destinations does not hammer DNS;
// entries age out on their own, which is as much staleness handling as a
// client-side cache needs.

package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"github.com/lennyferrell/http4s/api"
)

const (
	defaultDialTimeout   = 5 * time.Second
	defaultResolveTTL    = time.Minute
	defaultResolveCached = 256
)

// Dialer establishes TCP connections, upgrading to TLS for https/tls keys.
type Dialer struct {
	dialer    net.Dialer
	tlsConfig *tls.Config
	keepAlive time.Duration
	log       *zap.Logger
	addrs     *expirable.LRU[string, string] // host -> resolved IP
}

var _ api.Builder = (*Dialer)(nil)

// DialerOption customizes a Dialer.
type DialerOption func(*Dialer)

// WithDialTimeout bounds a single connection attempt.
func WithDialTimeout(d time.Duration) DialerOption {
	return func(dl *Dialer) { dl.dialer.Timeout = d }
}

// WithTLSConfig sets the TLS client configuration used for https/tls keys.
// ServerName is filled in per key.
func WithTLSConfig(cfg *tls.Config) DialerOption {
	return func(dl *Dialer) { dl.tlsConfig = cfg }
}

// WithKeepAlivePeriod tunes TCP keepalive probing on established sockets.
func WithKeepAlivePeriod(d time.Duration) DialerOption {
	return func(dl *Dialer) { dl.keepAlive = d }
}

// WithDialerLogger attaches a structured logger. Defaults to a nop logger.
func WithDialerLogger(log *zap.Logger) DialerOption {
	return func(dl *Dialer) {
		if log != nil {
			dl.log = log
		}
	}
}

// NewDialer constructs a Dialer.
func NewDialer(opts ...DialerOption) *Dialer {
	d := &Dialer{
		dialer: net.Dialer{Timeout: defaultDialTimeout},
		log:    zap.NewNop(),
		addrs:  expirable.NewLRU[string, string](defaultResolveCached, nil, defaultResolveTTL),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Establish implements api.Builder.
func (d *Dialer) Establish(ctx context.Context, key api.Key) (api.Conn, error) {
	addr, host, err := d.resolve(ctx, key)
	if err != nil {
		return nil, err
	}
	raw, err := d.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", key, err)
	}
	tuneKeepAlive(raw, d.keepAlive)

	if schemeUsesTLS(key.Scheme) {
		cfg := d.tlsConfig.Clone()
		if cfg == nil {
			cfg = &tls.Config{}
		}
		if cfg.ServerName == "" {
			cfg.ServerName = host
		}
		tc := tls.Client(raw, cfg)
		if err := tc.HandshakeContext(ctx); err != nil {
			_ = raw.Close()
			return nil, fmt.Errorf("tls handshake %s: %w", key, err)
		}
		raw = tc
	}

	conn := newConn(key, raw)
	d.log.Debug("transport: established connection",
		zap.Stringer("key", key), zap.String("conn_id", conn.ID()))
	return conn, nil
}

// resolve turns a key's authority into a dialable ip:port, consulting the
// expiring cache before DNS.
func (d *Dialer) resolve(ctx context.Context, key api.Key) (addr, host string, err error) {
	host, port, splitErr := net.SplitHostPort(key.Authority)
	if splitErr != nil {
		host = key.Authority
		port = defaultPort(key.Scheme)
	}
	if ip := net.ParseIP(host); ip != nil {
		return net.JoinHostPort(host, port), host, nil
	}
	if cached, ok := d.addrs.Get(host); ok {
		return net.JoinHostPort(cached, port), host, nil
	}
	ips, err := net.DefaultResolver.LookupHost(ctx, host)
	if err != nil {
		return "", "", fmt.Errorf("resolve %s: %w", key, err)
	}
	d.addrs.Add(host, ips[0])
	return net.JoinHostPort(ips[0], port), host, nil
}

func schemeUsesTLS(scheme string) bool {
	switch scheme {
	case "https", "tls", "wss":
		return true
	}
	return false
}

func defaultPort(scheme string) string {
	if schemeUsesTLS(scheme) {
		return "443"
	}
	return "80"
}
