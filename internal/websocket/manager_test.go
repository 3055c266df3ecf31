package websocket

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoHandler struct{}

func (echoHandler) HandleWebSocketMessage(client *Client, msg *Message) error {
	if msg.Type != TypePing {
		return nil
	}
	pong, err := NewMessage(TypePong, nil)
	if err != nil {
		return err
	}
	return client.Manager.SendToClient(client, pong)
}

func startManager(t *testing.T, maxConn int) (*Manager, *httptest.Server) {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	m := NewManager(maxConn, time.Second, 5*time.Second, 4*time.Second, logger)
	m.SetMessageHandler(echoHandler{})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go m.Run(ctx)

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := NewClient(r.URL.Query().Get("id"), r.URL.Query().Get("sid"), conn, m)
		m.Register <- client
		go client.WritePump()
		go client.ReadPump(4096)
	}))
	t.Cleanup(srv.Close)
	return m, srv
}

func dial(t *testing.T, srv *httptest.Server, id, sid string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?id=" + id + "&sid=" + sid
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, 2*time.Second, 10*time.Millisecond)
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestManager_BroadcastToSession(t *testing.T) {
	m, srv := startManager(t, 5)

	a1 := dial(t, srv, "a1", "session-a")
	a2 := dial(t, srv, "a2", "session-a")
	b1 := dial(t, srv, "b1", "session-b")
	waitFor(t, func() bool { return m.SessionConnections("session-a") == 2 && m.SessionConnections("session-b") == 1 })

	msg, err := NewMessage(TypeReload, ReloadPayload{Reason: "logout", Location: "/"})
	require.NoError(t, err)
	require.NoError(t, m.BroadcastToSession("session-a", msg))

	for _, conn := range []*websocket.Conn{a1, a2} {
		got := readMessage(t, conn)
		assert.Equal(t, TypeReload, got.Type)
		var payload ReloadPayload
		require.NoError(t, got.UnmarshalPayload(&payload))
		assert.Equal(t, "logout", payload.Reason)
	}

	b1.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	_, _, err = b1.ReadMessage()
	assert.Error(t, err, "other sessions receive nothing")
}

func TestManager_PingPong(t *testing.T) {
	m, srv := startManager(t, 5)
	conn := dial(t, srv, "c1", "s1")
	waitFor(t, func() bool { return m.SessionConnections("s1") == 1 })

	ping, err := NewMessage(TypePing, nil)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(ping))

	assert.Equal(t, TypePong, readMessage(t, conn).Type)
}

func TestManager_MaxConnectionsPerSession(t *testing.T) {
	m, srv := startManager(t, 1)

	dial(t, srv, "c1", "s1")
	waitFor(t, func() bool { return m.SessionConnections("s1") == 1 })

	extra := dial(t, srv, "c2", "s1")
	extra.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := extra.ReadMessage()
	assert.Error(t, err, "connection over the limit is closed")
	assert.Equal(t, 1, m.SessionConnections("s1"))
}

func TestManager_UnregisterOnClose(t *testing.T) {
	m, srv := startManager(t, 5)
	conn := dial(t, srv, "c1", "s1")
	waitFor(t, func() bool { return m.SessionConnections("s1") == 1 })

	conn.Close()
	waitFor(t, func() bool { return m.SessionConnections("s1") == 0 })
}
