// Package ws pushes session events to browsers over websockets.
package ws

import (
	"context"
	"sync"
	"time"

	"UMKMForecast/internal/domain/models"
	"UMKMForecast/pkg/logger"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	sendBuffer = 16
)

// Hub fans session events out to websocket subscribers. It implements
// repository.EventPublisher so the workflow publishes to it like any sink.
type Hub struct {
	mu           sync.RWMutex
	subs         map[string]map[*client]struct{}
	pingInterval time.Duration
	logger       *logger.Logger
	closed       bool
}

type client struct {
	conn      *websocket.Conn
	sessionID string
	send      chan models.SessionEvent
	done      chan struct{}
	closeOnce sync.Once
}

func (c *client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// NewHub creates a hub. pingInterval must be shorter than the client read deadline.
func NewHub(l *logger.Logger, pingInterval time.Duration) *Hub {
	if l == nil {
		l = logger.Nop()
	}
	if pingInterval <= 0 || pingInterval >= pongWait {
		pingInterval = pongWait * 9 / 10
	}
	return &Hub{
		subs:         make(map[string]map[*client]struct{}),
		pingInterval: pingInterval,
		logger:       l.With(logger.String("component", "ws_hub")),
	}
}

// Publish delivers e to every subscriber of its session. Slow subscribers
// lose events instead of blocking the publisher.
func (h *Hub) Publish(_ context.Context, e models.SessionEvent) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.subs[e.SessionID] {
		select {
		case c.send <- e:
		default:
			h.logger.Warn("ws subscriber lagging, event dropped",
				logger.String("session_id", e.SessionID),
				logger.String("event", string(e.Type)))
		}
	}
	return nil
}

// Subscribers reports how many connections follow sessionID.
func (h *Hub) Subscribers(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[sessionID])
}

// Serve registers conn for sessionID, optionally sends an initial event, and
// blocks until the peer disconnects or the hub closes.
func (h *Hub) Serve(conn *websocket.Conn, sessionID string, initial *models.SessionEvent) {
	c := &client{
		conn:      conn,
		sessionID: sessionID,
		send:      make(chan models.SessionEvent, sendBuffer),
		done:      make(chan struct{}),
	}
	if initial != nil {
		c.send <- *initial
	}

	if !h.add(c) {
		_ = conn.Close()
		return
	}
	defer h.remove(c)

	go h.readPump(c)
	h.writePump(c)
}

func (h *Hub) add(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	set, ok := h.subs[c.sessionID]
	if !ok {
		set = make(map[*client]struct{})
		h.subs[c.sessionID] = set
	}
	set[c] = struct{}{}
	return true
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.subs[c.sessionID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.subs, c.sessionID)
		}
	}
}

// readPump discards client frames; it exists to process pongs and notice closes.
func (h *Hub) readPump(c *client) {
	defer c.close()
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(h.pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		case e := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(e); err != nil {
				h.logger.Debug("ws write failed", logger.String("session_id", c.sessionID), logger.Error(err))
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

// Close disconnects every subscriber and rejects new ones.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for _, set := range h.subs {
		for c := range set {
			c.close()
		}
	}
	return nil
}
