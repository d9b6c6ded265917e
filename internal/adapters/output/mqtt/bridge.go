package mqtt

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"led-json-bridge/internal/domain/model"
	"led-json-bridge/internal/domain/patch"
	"led-json-bridge/internal/domain/translator"
	"led-json-bridge/internal/logging"
	"led-json-bridge/internal/ports"
)

// Transport is the broker session the bridge runs on. *Client implements it.
type Transport interface {
	Publish(topic string, retained bool, payload []byte) error
	Subscribe(topic string, handler MessageHandler) error
}

var (
	_ Transport      = (*Client)(nil)
	_ ports.Notifier = (*Bridge)(nil)
)

const eventQueue = 16

// peerKeys describe the sending peer and are dropped from sync documents.
var peerKeys = []string{"ps", "pl", "nl", "lor", "mainseg"}

type message struct {
	topic    string
	retained bool
	payload  []byte
}

// Bridge maps the device and group topics onto the state port and publishes
// committed state changes.
//
// Inbound, for both <device> and <group>:
//
//	<t>      ON, OFF, T or a brightness
//	<t>/col  a color string
//	<t>/api  a JSON patch or an HTTP API command string
//
// Outbound: <device>/g (brightness), <device>/c (#RRGGBB) and, when sync
// sending is on, the state document on <group>/sync/<client id>. Peers'
// documents on <group>/sync/+ are applied as sync patches.
type Bridge struct {
	cfg    model.MQTTConfig
	state  ports.StatePort
	logger *logging.Logger
	events chan ports.StateEvent
}

func NewBridge(cfg model.MQTTConfig, state ports.StatePort, logger *logging.Logger) *Bridge {
	return &Bridge{
		cfg:    cfg,
		state:  state,
		logger: logger.With("component", "mqtt-bridge"),
		events: make(chan ports.StateEvent, eventQueue),
	}
}

// StateChanged queues ev for publishing. It never blocks; when the queue is
// full the event is dropped.
func (b *Bridge) StateChanged(ev ports.StateEvent) {
	select {
	case b.events <- ev:
	default:
		b.logger.Debug("publish queue full, state dropped")
	}
}

// Run subscribes to the bridge topics and publishes queued state changes
// until ctx is done.
func (b *Bridge) Run(ctx context.Context, t Transport) error {
	for _, topic := range b.Topics() {
		err := t.Subscribe(topic, func(topic string, payload []byte) error {
			return b.Handle(ctx, topic, payload)
		})
		if err != nil {
			return err
		}
	}
	b.logger.Info("bridge running", "device", b.cfg.DeviceTopic, "group", b.cfg.GroupTopic)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-b.events:
			for _, m := range b.messages(ev) {
				if err := t.Publish(m.topic, m.retained, m.payload); err != nil {
					b.logger.Warn("publish failed", "topic", m.topic, "error", err)
				}
			}
		}
	}
}

// Topics lists the subscriptions.
func (b *Bridge) Topics() []string {
	d := b.cfg.DeviceTopic
	topics := []string{d, d + "/col", d + "/api"}
	if g := b.cfg.GroupTopic; g != "" {
		topics = append(topics, g, g+"/col", g+"/api", b.syncTopic("+"))
	}
	return topics
}

func (b *Bridge) syncTopic(peer string) string {
	return b.cfg.GroupTopic + "/sync/" + peer
}

// Handle applies one inbound message.
func (b *Bridge) Handle(ctx context.Context, topic string, payload []byte) error {
	if b.cfg.GroupTopic != "" {
		if peer, ok := strings.CutPrefix(topic, b.syncTopic("")); ok {
			if peer == b.cfg.ClientID {
				return nil
			}
			return b.applySync(ctx, payload)
		}
	}

	for _, base := range []string{b.cfg.DeviceTopic, b.cfg.GroupTopic} {
		if base == "" {
			continue
		}
		switch topic {
		case base:
			return b.applyCommand(ctx, translator.PowerCommand, payload)
		case base + "/col":
			return b.applyCommand(ctx, translator.ColorCommand, payload)
		case base + "/api":
			return b.applyAPI(ctx, payload)
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalidTopic, topic)
}

func (b *Bridge) applyCommand(ctx context.Context, parse func(string) (patch.Object, bool), payload []byte) error {
	doc, ok := parse(string(payload))
	if !ok {
		b.logger.Debug("ignoring payload", "payload", string(payload))
		return nil
	}
	return b.state.ApplyObject(ctx, doc, model.CallModeDirectChange)
}

func (b *Bridge) applyAPI(ctx context.Context, payload []byte) error {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return b.state.Apply(ctx, trimmed, model.CallModeDirectChange, io.Discard)
	}
	return b.state.ApplyLegacy(ctx, string(trimmed), io.Discard)
}

func (b *Bridge) applySync(ctx context.Context, payload []byte) error {
	doc, err := patch.Parse(payload)
	if err != nil {
		return fmt.Errorf("sync document: %w", err)
	}
	return b.state.ApplySync(ctx, doc.Without(peerKeys...))
}

func (b *Bridge) messages(ev ports.StateEvent) []message {
	bri := 0
	if ev.On {
		bri = int(ev.Bri)
	}
	d := b.cfg.DeviceTopic
	msgs := []message{
		{topic: d + "/g", retained: true, payload: []byte(strconv.Itoa(bri))},
		{topic: d + "/c", retained: true, payload: []byte("#" + ev.Primary.Hex())},
	}
	if b.cfg.GroupTopic != "" && ev.SyncSend && ev.CallMode.Notifies() && len(ev.Document) > 0 {
		msgs = append(msgs, message{topic: b.syncTopic(b.cfg.ClientID), payload: ev.Document})
	}
	return msgs
}
