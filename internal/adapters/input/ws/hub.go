// Package ws serves the websocket channel: state pushes, patch intake and
// live LED streaming.
package ws

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"led-json-bridge/internal/domain/buffer"
	"led-json-bridge/internal/domain/model"
	"led-json-bridge/internal/logging"
	"led-json-bridge/internal/ports"
)

const (
	sendBufferSize  = 32
	minLiveInterval = 50 * time.Millisecond
)

var _ ports.Notifier = (*Hub)(nil)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(*http.Request) bool {
		return true
	},
}

// Hub tracks the connected clients. It implements ports.Notifier and
// http.Handler.
type Hub struct {
	cfg    model.WebSocketConfig
	state  ports.StatePort
	logger *logging.Logger

	mu      sync.RWMutex
	clients map[*Client]struct{}
}

func NewHub(cfg model.WebSocketConfig, state ports.StatePort, logger *logging.Logger) *Hub {
	return &Hub{
		cfg:     cfg,
		state:   state,
		logger:  logger.With("component", "ws"),
		clients: make(map[*Client]struct{}),
	}
}

// ServeHTTP upgrades the connection and pushes the current state.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	client := &Client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		ctx:    ctx,
		cancel: cancel,
	}
	h.register(client)
	client.pushState()

	go client.writePump()
	go client.readPump()
}

// StateChanged broadcasts the committed state to every client.
func (h *Hub) StateChanged(ev ports.StateEvent) {
	if len(ev.Document) == 0 {
		return
	}
	msg := wrapState(ev.Document)
	for _, c := range h.snapshot(false) {
		c.trySend(msg)
	}
}

// Run streams live LED snapshots to the clients that asked for them until
// ctx is done, then closes every connection.
func (h *Hub) Run(ctx context.Context) error {
	interval := max(time.Duration(h.cfg.LiveIntervalMS)*time.Millisecond, minLiveInterval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return nil
		case <-ticker.C:
			h.pushLive(ctx)
		}
	}
}

func (h *Hub) pushLive(ctx context.Context) {
	clients := h.snapshot(true)
	if len(clients) == 0 {
		return
	}
	var buf bytes.Buffer
	if err := h.state.WriteLive(ctx, &buf); err != nil {
		if !errors.Is(err, buffer.ErrLockUnavailable) {
			h.logger.Warn("live snapshot failed", "error", err)
		}
		return
	}
	msg := buf.Bytes()
	for _, c := range clients {
		c.trySend(msg)
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.logger.Debug("websocket client connected", "clients", h.ClientCount())
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	_, existed := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()

	if existed {
		close(c.send)
	}
	h.logger.Debug("websocket client disconnected", "clients", h.ClientCount())
}

// snapshot copies the client set, optionally only live subscribers.
func (h *Hub) snapshot(liveOnly bool) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		if !liveOnly || c.live.Load() {
			out = append(out, c)
		}
	}
	return out
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		close(c.send)
		c.conn.Close()
		delete(h.clients, c)
	}
}

func wrapState(doc []byte) []byte {
	out := make([]byte, 0, len(doc)+10)
	out = append(out, `{"state":`...)
	out = append(out, bytes.TrimRight(doc, "\n")...)
	return append(out, '}')
}
