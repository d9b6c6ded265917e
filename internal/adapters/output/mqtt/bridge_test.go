package mqtt

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"led-json-bridge/internal/domain/model"
	"led-json-bridge/internal/domain/patch"
	"led-json-bridge/internal/logging"
	"led-json-bridge/internal/ports"
)

type MockStatePort struct {
	mock.Mock
}

func (m *MockStatePort) WriteState(ctx context.Context, w io.Writer) error {
	return m.Called(ctx, w).Error(0)
}

func (m *MockStatePort) WriteFull(ctx context.Context, w io.Writer) error {
	return m.Called(ctx, w).Error(0)
}

func (m *MockStatePort) WriteEffects(ctx context.Context, w io.Writer) error {
	return m.Called(ctx, w).Error(0)
}

func (m *MockStatePort) WritePalettePage(ctx context.Context, w io.Writer, page int) error {
	return m.Called(ctx, w, page).Error(0)
}

func (m *MockStatePort) WriteLive(ctx context.Context, w io.Writer) error {
	return m.Called(ctx, w).Error(0)
}

func (m *MockStatePort) WritePresets(ctx context.Context, w io.Writer) error {
	return m.Called(ctx, w).Error(0)
}

func (m *MockStatePort) Apply(ctx context.Context, body []byte, mode model.CallMode, w io.Writer) error {
	return m.Called(ctx, string(body), mode, w).Error(0)
}

func (m *MockStatePort) ApplyObject(ctx context.Context, doc patch.Object, mode model.CallMode) error {
	return m.Called(ctx, doc, mode).Error(0)
}

func (m *MockStatePort) ApplyLegacy(ctx context.Context, cmd string, w io.Writer) error {
	return m.Called(ctx, cmd, w).Error(0)
}

func (m *MockStatePort) ApplySync(ctx context.Context, doc patch.Object) error {
	return m.Called(ctx, doc).Error(0)
}

func (m *MockStatePort) EffectsRaw() string  { return m.Called().String(0) }
func (m *MockStatePort) PalettesRaw() string { return m.Called().String(0) }

type mockPublish struct {
	Topic    string
	Retained bool
	Payload  string
}

// MockTransport records publishes and keeps subscription handlers.
type MockTransport struct {
	mu        sync.Mutex
	published []mockPublish
	handlers  map[string]MessageHandler
}

func NewMockTransport() *MockTransport {
	return &MockTransport{handlers: make(map[string]MessageHandler)}
}

func (m *MockTransport) Publish(topic string, retained bool, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, mockPublish{Topic: topic, Retained: retained, Payload: string(payload)})
	return nil
}

func (m *MockTransport) Subscribe(topic string, handler MessageHandler) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[topic] = handler
	return nil
}

func (m *MockTransport) Published() []mockPublish {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mockPublish(nil), m.published...)
}

func (m *MockTransport) Subscribed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.handlers)
}

// SimulateMessage delivers a message through the handler registered for
// pattern.
func (m *MockTransport) SimulateMessage(pattern, topic string, payload []byte) error {
	m.mu.Lock()
	handler, ok := m.handlers[pattern]
	m.mu.Unlock()
	if !ok {
		return ErrInvalidTopic
	}
	return handler(topic, payload)
}

var testConfig = model.MQTTConfig{
	ClientID:    "kitchen",
	DeviceTopic: "wled/kitchen",
	GroupTopic:  "wled/all",
}

func newBridge(cfg model.MQTTConfig) (*Bridge, *MockStatePort) {
	state := new(MockStatePort)
	return NewBridge(cfg, state, logging.Discard()), state
}

func TestBridge_Topics(t *testing.T) {
	b, _ := newBridge(testConfig)
	assert.Equal(t, []string{
		"wled/kitchen", "wled/kitchen/col", "wled/kitchen/api",
		"wled/all", "wled/all/col", "wled/all/api", "wled/all/sync/+",
	}, b.Topics())

	noGroup := testConfig
	noGroup.GroupTopic = ""
	b, _ = newBridge(noGroup)
	assert.Len(t, b.Topics(), 3)
}

func TestBridge_HandlePower(t *testing.T) {
	ctx := context.Background()
	b, state := newBridge(testConfig)
	state.On("ApplyObject", ctx, patch.Object{"on": true}, model.CallModeDirectChange).Return(nil).Once()
	state.On("ApplyObject", ctx, patch.Object{"bri": 128}, model.CallModeDirectChange).Return(nil).Once()

	require.NoError(t, b.Handle(ctx, "wled/kitchen", []byte("ON")))
	require.NoError(t, b.Handle(ctx, "wled/all", []byte("128")))
	require.NoError(t, b.Handle(ctx, "wled/kitchen", []byte("dance")), "unknown payloads are ignored")

	state.AssertExpectations(t)
}

func TestBridge_HandleColor(t *testing.T) {
	ctx := context.Background()
	b, state := newBridge(testConfig)
	want := patch.Object{"seg": map[string]any{"col": []any{[]any{255, 0, 0, 0}}}}
	state.On("ApplyObject", ctx, want, model.CallModeDirectChange).Return(nil).Once()

	require.NoError(t, b.Handle(ctx, "wled/kitchen/col", []byte("#FF0000")))

	state.AssertExpectations(t)
}

func TestBridge_HandleAPI(t *testing.T) {
	ctx := context.Background()
	b, state := newBridge(testConfig)
	state.On("Apply", ctx, `{"on":false}`, model.CallModeDirectChange, io.Discard).Return(nil).Once()
	state.On("ApplyLegacy", ctx, "T=2&A=40", io.Discard).Return(nil).Once()

	require.NoError(t, b.Handle(ctx, "wled/kitchen/api", []byte(` {"on":false}`)))
	require.NoError(t, b.Handle(ctx, "wled/all/api", []byte("T=2&A=40\n")))

	state.AssertExpectations(t)
}

func TestBridge_HandleSync(t *testing.T) {
	ctx := context.Background()
	b, state := newBridge(testConfig)
	state.On("ApplySync", ctx, mock.MatchedBy(func(doc patch.Object) bool {
		return doc.Has("on") && doc.Has("bri") && !doc.Has("ps") && !doc.Has("mainseg") && !doc.Has("nl")
	})).Return(nil).Once()

	peer := []byte(`{"on":true,"bri":80,"ps":3,"mainseg":1,"nl":{"on":true}}`)
	require.NoError(t, b.Handle(ctx, "wled/all/sync/porch", peer))
	require.NoError(t, b.Handle(ctx, "wled/all/sync/kitchen", peer), "own documents are skipped")
	assert.Error(t, b.Handle(ctx, "wled/all/sync/porch", []byte("not json")))

	state.AssertExpectations(t)
}

func TestBridge_HandleUnknownTopic(t *testing.T) {
	b, _ := newBridge(testConfig)
	err := b.Handle(context.Background(), "wled/other", []byte("ON"))
	assert.ErrorIs(t, err, ErrInvalidTopic)
}

func TestBridge_Messages(t *testing.T) {
	b, _ := newBridge(testConfig)
	ev := ports.StateEvent{
		CallMode: model.CallModeDirectChange,
		On:       true,
		Bri:      200,
		Primary:  model.RGB(255, 160, 0),
		SyncSend: true,
		Document: []byte(`{"on":true}`),
	}

	msgs := b.messages(ev)

	require.Len(t, msgs, 3)
	assert.Equal(t, message{topic: "wled/kitchen/g", retained: true, payload: []byte("200")}, msgs[0])
	assert.Equal(t, message{topic: "wled/kitchen/c", retained: true, payload: []byte("#FFA000")}, msgs[1])
	assert.Equal(t, "wled/all/sync/kitchen", msgs[2].topic)
	assert.False(t, msgs[2].retained)
}

func TestBridge_MessagesWithoutSync(t *testing.T) {
	b, _ := newBridge(testConfig)

	tests := []struct {
		name string
		ev   ports.StateEvent
	}{
		{"sync send off", ports.StateEvent{CallMode: model.CallModeDirectChange, Document: []byte(`{}`)}},
		{"from a peer", ports.StateEvent{CallMode: model.CallModeNotification, SyncSend: true, Document: []byte(`{}`)}},
		{"no notify", ports.StateEvent{CallMode: model.CallModeNoNotify, SyncSend: true, Document: []byte(`{}`)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msgs := b.messages(tt.ev)
			require.Len(t, msgs, 2)
			assert.Equal(t, []byte("0"), msgs[0].payload, "brightness reads 0 while off")
		})
	}
}

func TestBridge_Run(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b, state := newBridge(testConfig)
	state.On("ApplyObject", mock.Anything, patch.Object{"on": false}, model.CallModeDirectChange).Return(nil)
	transport := NewMockTransport()

	done := make(chan error, 1)
	go func() { done <- b.Run(ctx, transport) }()

	require.Eventually(t, func() bool { return transport.Subscribed() == 7 }, time.Second, 5*time.Millisecond)
	require.NoError(t, transport.SimulateMessage("wled/kitchen", "wled/kitchen", []byte("OFF")))

	b.StateChanged(ports.StateEvent{CallMode: model.CallModeDirectChange, Primary: model.RGB(1, 2, 3)})
	require.Eventually(t, func() bool { return len(transport.Published()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "#010203", transport.Published()[1].Payload)

	cancel()
	assert.NoError(t, <-done)
	state.AssertExpectations(t)
}

func TestBridge_StateChangedNeverBlocks(t *testing.T) {
	b, _ := newBridge(testConfig)
	for range eventQueue + 5 {
		b.StateChanged(ports.StateEvent{})
	}
	assert.Len(t, b.events, eventQueue)
}

func TestBuildClientOptions(t *testing.T) {
	cfg := testConfig
	cfg.Host = "10.0.0.2"
	cfg.Port = 1884
	cfg.Username = "led"
	cfg.Password = "secret"
	cfg.QoS = 7

	opts := buildClientOptions(cfg)

	require.Len(t, opts.Servers, 1)
	assert.Equal(t, "tcp://10.0.0.2:1884", opts.Servers[0].String())
	assert.Equal(t, "kitchen", opts.ClientID)
	assert.Equal(t, "led", opts.Username)
	assert.True(t, opts.WillEnabled)
	assert.Equal(t, "wled/kitchen/status", opts.WillTopic)
	assert.Equal(t, []byte("offline"), opts.WillPayload)
	assert.True(t, opts.WillRetained)
	assert.EqualValues(t, 2, opts.WillQos, "qos is clamped")
}
