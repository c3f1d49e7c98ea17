package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/spaceapi-core/internal/infrastructure/config"
	"github.com/nerrad567/spaceapi-core/internal/infrastructure/logging"
	"github.com/nerrad567/spaceapi-core/internal/notify"
)

// WebSocket message types.
const (
	WSTypeSubscribe   = "subscribe"
	WSTypeUnsubscribe = "unsubscribe"
	WSTypePing        = "ping"
	WSTypePong        = "pong"
	WSTypeEvent       = "event"
	WSTypeResponse    = "response"
	WSTypeError       = "error"
)

// outboxSize is the number of frames buffered per connection. Frames
// beyond it are dropped for that connection only.
const outboxSize = 64

// WSMessage is the envelope of every frame in both directions.
type WSMessage struct {
	Type      string `json:"type"`
	ID        string `json:"id,omitempty"`
	EventType string `json:"event_type,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Payload   any    `json:"payload,omitempty"`
}

// WSSubscribePayload is the payload of subscribe and unsubscribe frames.
type WSSubscribePayload struct {
	Channels []string `json:"channels"`
}

// inbound is WSMessage as read from a client, with the payload left raw.
type inbound struct {
	Type    string          `json:"type"`
	ID      string          `json:"id"`
	Payload json.RawMessage `json:"payload"`
}

// Hub fans status events out to WebSocket clients. A new client is
// subscribed to notify.ChannelStatusUpdated until it unsubscribes.
type Hub struct {
	cfg      config.WebSocketConfig
	logger   *logging.Logger
	upgrader websocket.Upgrader

	mu    sync.RWMutex
	conns map[*wsConn]struct{}
}

// NewHub creates a hub using the keepalive and size limits in cfg.
func NewHub(cfg config.WebSocketConfig, logger *logging.Logger) *Hub {
	return &Hub{
		cfg:    cfg,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The stream carries the same public data as /status.json.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		conns: make(map[*wsConn]struct{}),
	}
}

// Run blocks until ctx is cancelled, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()

	h.mu.Lock()
	conns := h.conns
	h.conns = make(map[*wsConn]struct{})
	h.mu.Unlock()

	for c := range conns {
		c.shutdown()
	}
}

// Broadcast sends an event frame to every client subscribed to channel.
// It implements notify.Broadcaster.
func (h *Hub) Broadcast(channel string, payload any) {
	frame, err := json.Marshal(WSMessage{
		Type:      WSTypeEvent,
		EventType: channel,
		Timestamp: now(),
		Payload:   payload,
	})
	if err != nil {
		h.logger.Error("encoding websocket event", "channel", channel, "error", err)
		return
	}

	delivered := 0
	for _, c := range h.snapshot() {
		if c.wants(channel) && c.enqueue(frame) {
			delivered++
		}
	}
	if delivered > 0 {
		h.logger.Debug("websocket event delivered", "channel", channel, "clients", delivered)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

func (h *Hub) snapshot() []*wsConn {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*wsConn, 0, len(h.conns))
	for c := range h.conns {
		out = append(out, c)
	}
	return out
}

func (h *Hub) add(c *wsConn) {
	h.mu.Lock()
	h.conns[c] = struct{}{}
	n := len(h.conns)
	h.mu.Unlock()
	h.logger.Debug("websocket client connected", "clients", n)
}

func (h *Hub) remove(c *wsConn) {
	h.mu.Lock()
	delete(h.conns, c)
	n := len(h.conns)
	h.mu.Unlock()
	c.shutdown()
	h.logger.Debug("websocket client disconnected", "clients", n)
}

// serve upgrades r and runs the connection until either side closes it.
func (h *Hub) serve(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &wsConn{
		ws:     ws,
		outbox: make(chan []byte, outboxSize),
		done:   make(chan struct{}),
		topics: map[string]bool{notify.ChannelStatusUpdated: true},
	}
	h.add(c)

	go c.writeLoop(h.keepalive())
	go func() {
		defer h.remove(c)
		h.readLoop(c)
	}()
}

type keepalive struct {
	ping      time.Duration
	writeWait time.Duration
	readWait  time.Duration
	maxFrame  int64
}

func (h *Hub) keepalive() keepalive {
	return keepalive{
		ping:      time.Duration(h.cfg.PingInterval) * time.Second,
		writeWait: time.Duration(h.cfg.PongTimeout) * time.Second,
		readWait:  time.Duration(h.cfg.PingInterval+h.cfg.PongTimeout) * time.Second,
		maxFrame:  int64(h.cfg.MaxMessageSize),
	}
}

func (h *Hub) readLoop(c *wsConn) {
	ka := h.keepalive()
	if ka.maxFrame > 0 {
		c.ws.SetReadLimit(ka.maxFrame)
	}
	extend := func(string) error { return c.ws.SetReadDeadline(time.Now().Add(ka.readWait)) }
	extend("") //nolint:errcheck // a failed deadline surfaces on the next read
	c.ws.SetPongHandler(extend)

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("websocket read failed", "error", err)
			}
			return
		}
		extend("") //nolint:errcheck // as above
		c.handle(data)
	}
}

// wsConn is one client connection. Frames reach the socket only through
// outbox, drained by writeLoop.
type wsConn struct {
	ws     *websocket.Conn
	outbox chan []byte
	done   chan struct{}
	once   sync.Once

	mu     sync.RWMutex
	topics map[string]bool
}

func (c *wsConn) shutdown() {
	c.once.Do(func() {
		close(c.done)
		c.ws.Close() //nolint:errcheck // connection is being discarded
	})
}

// enqueue reports whether frame was queued. It never blocks.
func (c *wsConn) enqueue(frame []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.outbox <- frame:
		return true
	default:
		return false
	}
}

func (c *wsConn) writeLoop(ka keepalive) {
	ticker := time.NewTicker(ka.ping)
	defer ticker.Stop()

	write := func(kind int, data []byte) error {
		if err := c.ws.SetWriteDeadline(time.Now().Add(ka.writeWait)); err != nil {
			return err
		}
		return c.ws.WriteMessage(kind, data)
	}

	for {
		select {
		case <-c.done:
			return
		case frame := <-c.outbox:
			if err := write(websocket.TextMessage, frame); err != nil {
				c.shutdown()
				return
			}
		case <-ticker.C:
			if err := write(websocket.PingMessage, nil); err != nil {
				c.shutdown()
				return
			}
		}
	}
}

func (c *wsConn) wants(channel string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.topics[channel]
}

func (c *wsConn) handle(data []byte) {
	var msg inbound
	if err := json.Unmarshal(data, &msg); err != nil {
		c.reply("", WSTypeError, errorPayload("invalid JSON message"))
		return
	}

	switch msg.Type {
	case WSTypePing:
		c.reply(msg.ID, WSTypePong, nil)
	case WSTypeSubscribe, WSTypeUnsubscribe:
		var sub WSSubscribePayload
		if len(msg.Payload) == 0 || json.Unmarshal(msg.Payload, &sub) != nil {
			c.reply(msg.ID, WSTypeError, errorPayload("invalid "+msg.Type+" payload"))
			return
		}
		on := msg.Type == WSTypeSubscribe
		c.mu.Lock()
		for _, ch := range sub.Channels {
			if on {
				c.topics[ch] = true
			} else {
				delete(c.topics, ch)
			}
		}
		c.mu.Unlock()
		c.reply(msg.ID, WSTypeResponse, map[string]any{msg.Type + "d": sub.Channels})
	default:
		c.reply(msg.ID, WSTypeError, errorPayload("unknown message type: "+msg.Type))
	}
}

func (c *wsConn) reply(id, kind string, payload any) {
	frame, err := json.Marshal(WSMessage{Type: kind, ID: id, Timestamp: now(), Payload: payload})
	if err != nil {
		return
	}
	c.enqueue(frame)
}

func errorPayload(message string) map[string]string {
	return map[string]string{"message": message}
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// handleWebSocket streams status events to the client.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	s.hub.serve(w, r)
}
