package publish

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/AndrewSteel/isin-quotes/internal/model"
)

// HubConfig holds WebSocket hub configuration.
type HubConfig struct {
	WriteTimeout time.Duration // Per-message write deadline (default: 5s)
	SendBuffer   int           // Per-subscriber send queue (default: 64)
}

// DefaultHubConfig returns sensible defaults.
func DefaultHubConfig() HubConfig {
	return HubConfig{
		WriteTimeout: 5 * time.Second,
		SendBuffer:   64,
	}
}

// Hub streams publish events to WebSocket subscribers. It implements
// quote.Sink and http.Handler: mount it on the daemon's HTTP mux and each
// connecting client receives every subsequent event as a JSON message.
// A subscriber that cannot keep up is disconnected rather than allowed to
// stall the dispatcher.
type Hub struct {
	cfg      HubConfig
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*hubClient]struct{}
	closed  bool
}

type hubClient struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates a hub with no subscribers.
func NewHub(cfg HubConfig, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = DefaultHubConfig().WriteTimeout
	}
	if cfg.SendBuffer == 0 {
		cfg.SendBuffer = DefaultHubConfig().SendBuffer
	}
	return &Hub{
		cfg:    cfg,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		clients: make(map[*hubClient]struct{}),
	}
}

// ServeHTTP upgrades the request and registers the subscriber.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	c := &hubClient{
		conn: conn,
		send: make(chan []byte, h.cfg.SendBuffer),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("subscriber connected", "remote", r.RemoteAddr, "subscribers", count)

	go h.writeLoop(c)
	go h.readLoop(c)
}

// Publish implements quote.Sink: broadcast the event to all subscribers.
func (h *Hub) Publish(ev model.PublishEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("marshal publish event", "key", ev.Key.String(), "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			// Slow subscriber: close its queue; writeLoop tears it down.
			h.logger.Warn("dropping slow subscriber")
			go h.remove(c)
		}
	}
}

// Close disconnects all subscribers.
func (h *Hub) Close() error {
	h.mu.Lock()
	h.closed = true
	clients := make([]*hubClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[*hubClient]struct{})
	h.mu.Unlock()

	for _, c := range clients {
		close(c.send)
	}
	return nil
}

// SubscriberCount reports the number of connected subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) writeLoop(c *hubClient) {
	defer c.conn.Close()

	for payload := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.remove(c)
			return
		}
	}

	// Queue closed: say goodbye.
	c.conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(h.cfg.WriteTimeout))
}

// readLoop drains the connection so close frames are processed.
func (h *Hub) readLoop(c *hubClient) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			h.remove(c)
			return
		}
	}
}

// remove unregisters a subscriber; idempotent.
func (h *Hub) remove(c *hubClient) {
	h.mu.Lock()
	_, present := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()

	if present {
		close(c.send)
	}
}
