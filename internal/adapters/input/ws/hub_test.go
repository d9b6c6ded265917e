package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"led-json-bridge/internal/adapters/output/persistence"
	"led-json-bridge/internal/domain/buffer"
	"led-json-bridge/internal/domain/codec/codectest"
	"led-json-bridge/internal/domain/model"
	"led-json-bridge/internal/domain/service"
	"led-json-bridge/internal/logging"
	"led-json-bridge/internal/ports"
)

var testConfig = model.WebSocketConfig{
	MaxMessageSize: 8192,
	PingInterval:   30,
	PongTimeout:    10,
	LiveIntervalMS: 50,
}

type fixture struct {
	hub     *Hub
	arbiter *buffer.Arbiter
	server  *httptest.Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	arb := buffer.NewArbiter(buffer.DefaultSize, 0, logging.Discard())
	repo := persistence.NewJSONPresetRepository(filepath.Join(t.TempDir(), "presets.json"))
	state := service.NewStateService(arb, codectest.New(4, 30), repo, logging.Discard())
	hub := NewHub(testConfig, state, logging.Discard())
	state.Subscribe(hub)

	srv := httptest.NewServer(hub)
	t.Cleanup(srv.Close)
	return &fixture{hub: hub, arbiter: arb, server: srv}
}

func (f *fixture) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func read(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out), string(data))
	return out
}

func stateOf(t *testing.T, msg map[string]any) map[string]any {
	t.Helper()
	st, ok := msg["state"].(map[string]any)
	require.True(t, ok, "message carries a state: %v", msg)
	return st
}

func TestHub_PushesStateOnConnect(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t)

	st := stateOf(t, read(t, conn))

	assert.Contains(t, st, "bri")
	assert.Contains(t, st, "seg")
	assert.Eventually(t, func() bool { return f.hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)
}

func TestHub_AppliesPatchAndBroadcasts(t *testing.T) {
	f := newFixture(t)
	sender := f.dial(t)
	watcher := f.dial(t)
	read(t, sender)
	read(t, watcher)

	require.NoError(t, sender.WriteMessage(websocket.TextMessage, []byte(`{"on":true,"bri":55}`)))

	for _, conn := range []*websocket.Conn{sender, watcher} {
		st := stateOf(t, read(t, conn))
		assert.EqualValues(t, 55, st["bri"])
	}
}

func TestHub_RejectsInvalidJSON(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t)
	read(t, conn)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"on":`)))

	assert.Equal(t, map[string]any{"error": float64(9)}, read(t, conn))
}

func TestHub_ReportsBusyBuffer(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t)
	read(t, conn)

	lease, err := f.arbiter.TryAcquire("test")
	require.NoError(t, err)
	defer lease.Release()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"bri":10}`)))

	assert.Equal(t, map[string]any{"error": float64(3)}, read(t, conn))
}

func TestHub_LiveStreaming(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.hub.Run(ctx) }()

	conn := f.dial(t)
	read(t, conn)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"lv":true}`)))

	msg := read(t, conn)
	leds, ok := msg["leds"].([]any)
	require.True(t, ok, "expected a live frame: %v", msg)
	assert.Len(t, leds, 30)

	cancel()
	assert.NoError(t, <-done)
	assert.Equal(t, 0, f.hub.ClientCount())
}

func TestHub_StateChangedSkipsEmptyDocuments(t *testing.T) {
	hub := NewHub(testConfig, nil, logging.Discard())
	c := &Client{hub: hub, send: make(chan []byte, 1)}
	hub.clients[c] = struct{}{}

	hub.StateChanged(ports.StateEvent{})
	assert.Empty(t, c.send)

	hub.StateChanged(ports.StateEvent{Document: []byte("{\"on\":true}\n")})
	assert.Equal(t, `{"state":{"on":true}}`, string(<-c.send))
}

func TestClient_TrySendAfterClose(t *testing.T) {
	c := &Client{send: make(chan []byte, 1)}
	close(c.send)

	assert.NotPanics(t, func() { c.trySend([]byte("x")) })
}
