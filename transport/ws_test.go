package transport_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lennyferrell/http4s/api"
	"github.com/lennyferrell/http4s/transport"
)

func startWSEcho(t *testing.T) string {
	t.Helper()
	up := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()
		for {
			mt, msg, err := ws.ReadMessage()
			if err != nil {
				return
			}
			if err := ws.WriteMessage(mt, msg); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return strings.TrimPrefix(srv.URL, "http://")
}

func TestWSDialerEstablishAndEcho(t *testing.T) {
	authority := startWSEcho(t)
	d := transport.NewWSDialer()
	key := api.Key{Scheme: "ws", Authority: authority}

	conn, err := d.Establish(context.Background(), key)
	require.NoError(t, err)
	wc := conn.(*transport.WSConn)
	t.Cleanup(func() { _ = wc.Shutdown() })

	assert.Equal(t, key, wc.Key())
	assert.NotEmpty(t, wc.ID())
	assert.True(t, wc.IsRecyclable())

	require.NoError(t, wc.WS().WriteMessage(websocket.TextMessage, []byte("ping")))
	_, msg, err := wc.WS().ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "ping", string(msg))
}

func TestWSDialerHandshakeFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	t.Cleanup(srv.Close)

	d := transport.NewWSDialer()
	key := api.Key{Scheme: "ws", Authority: strings.TrimPrefix(srv.URL, "http://")}
	_, err := d.Establish(context.Background(), key)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestWSConnShutdownIdempotent(t *testing.T) {
	authority := startWSEcho(t)
	d := transport.NewWSDialer()
	conn, err := d.Establish(context.Background(), api.Key{Scheme: "ws", Authority: authority})
	require.NoError(t, err)

	first := conn.Shutdown()
	assert.True(t, conn.IsClosed())
	assert.False(t, conn.IsRecyclable())
	assert.Equal(t, first, conn.Shutdown())
}
