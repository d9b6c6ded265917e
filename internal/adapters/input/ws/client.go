package ws

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"led-json-bridge/internal/domain/buffer"
	"led-json-bridge/internal/domain/model"
	"led-json-bridge/internal/domain/patch"
)

var (
	errBusy    = []byte(`{"error":3}`)
	errBadJSON = []byte(`{"error":9}`)
)

// Client is one websocket connection.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	live   atomic.Bool
	ctx    context.Context
	cancel context.CancelFunc
}

func (c *Client) readPump() {
	defer func() {
		c.cancel()
		c.hub.unregister(c)
		c.conn.Close()
	}()

	cfg := c.hub.cfg
	if cfg.MaxMessageSize > 0 {
		c.conn.SetReadLimit(int64(cfg.MaxMessageSize))
	}
	deadline := time.Duration(max(cfg.PingInterval, 1)+max(cfg.PongTimeout, 1)) * time.Second
	c.conn.SetReadDeadline(time.Now().Add(deadline))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(deadline))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("websocket read error", "error", err)
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(deadline))
		c.handleMessage(message)
	}
}

func (c *Client) writePump() {
	cfg := c.hub.cfg
	ticker := time.NewTicker(time.Duration(max(cfg.PingInterval, 1)) * time.Second)
	writeWait := time.Duration(max(cfg.PongTimeout, 1)) * time.Second
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage applies a text frame as a patch. "lv" toggles live LED
// streaming for this client and is not part of the patch; "v" asks for the
// state in reply.
func (c *Client) handleMessage(data []byte) {
	doc, err := patch.Parse(data)
	if err != nil {
		c.trySend(errBadJSON)
		return
	}
	if lv := doc.Get("lv"); !lv.IsAbsent() {
		c.live.Store(lv.Truthy())
		doc = doc.Without("lv")
	}
	if len(doc) == 0 {
		return
	}

	if err := c.hub.state.ApplyObject(c.ctx, doc, model.CallModeWSSend); err != nil {
		c.fail(err)
		return
	}
	if doc.Get("v").Truthy() {
		c.pushState()
	}
}

func (c *Client) pushState() {
	var buf bytes.Buffer
	if err := c.hub.state.WriteState(c.ctx, &buf); err != nil {
		c.fail(err)
		return
	}
	c.trySend(wrapState(buf.Bytes()))
}

func (c *Client) fail(err error) {
	if errors.Is(err, buffer.ErrLockUnavailable) {
		c.trySend(errBusy)
		return
	}
	c.hub.logger.Warn("websocket request failed", "error", err)
}

// trySend drops the message when the client is slow or already gone.
func (c *Client) trySend(data []byte) {
	defer func() {
		recover() //nolint:errcheck // send on a channel closed by unregister
	}()

	select {
	case c.send <- data:
	default:
	}
}
