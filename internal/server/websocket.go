package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/conneroisu/pages/internal/logging"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Send pings to peer with this period.
	pingPeriod = 30 * time.Second

	// Messages queued per client before it is dropped.
	sendBuffer = 16
)

// MessageType is the kind of a live reload message.
type MessageType string

const (
	MessageReload MessageType = "reload"
	MessageCSS    MessageType = "css"
	MessageError  MessageType = "error"
	MessageClear  MessageType = "clear"
)

// Message is sent to browsers over the live reload socket.
type Message struct {
	Type  MessageType `json:"type"`
	Error string      `json:"error,omitempty"`
	File  string      `json:"file,omitempty"`
}

// Client is one connected browser.
type Client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans live reload messages out to every connected browser.
type Hub struct {
	clients   map[*Client]bool
	mu        sync.RWMutex
	lastError string
	origins   []string
	log       logging.Logger
}

// NewHub creates a hub. origins are extra host patterns accepted on the
// socket besides the serving host.
func NewHub(log logging.Logger, origins ...string) *Hub {
	if log == nil {
		log = logging.NewNop()
	}
	return &Hub{
		clients: make(map[*Client]bool),
		origins: origins,
		log:     log.WithComponent("reload"),
	}
}

// Reload asks every browser to reload the page.
func (h *Hub) Reload() {
	h.broadcast(Message{Type: MessageReload})
}

// ReloadCSS asks every browser to refresh its stylesheets only.
func (h *Hub) ReloadCSS(file string) {
	h.broadcast(Message{Type: MessageCSS, File: file})
}

// NotifyError shows msg in an overlay. Browsers connecting later receive it
// too, until ClearError.
func (h *Hub) NotifyError(msg string) {
	h.mu.Lock()
	h.lastError = msg
	h.mu.Unlock()
	h.broadcast(Message{Type: MessageError, Error: msg})
}

// ClearError removes the error overlay.
func (h *Hub) ClearError() {
	h.mu.Lock()
	h.lastError = ""
	h.mu.Unlock()
	h.broadcast(Message{Type: MessageClear})
}

// ClientCount returns the number of connected browsers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every browser.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

// ServeHTTP upgrades the request and streams messages until the browser
// goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.origins,
	})
	if err != nil {
		h.log.Warn(r.Context(), err, "websocket upgrade failed")
		return
	}

	c := &Client{conn: conn, send: make(chan []byte, sendBuffer)}
	h.register(c)
	defer h.unregister(c)

	// browsers never send; CloseRead handles control frames and reports
	// the disconnect through ctx
	ctx := conn.CloseRead(context.Background())
	c.writePump(ctx, h.log)
	conn.Close(websocket.StatusNormalClosure, "")
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	// queued before the client is visible to broadcast and Close, which
	// may close c.send
	if h.lastError != "" {
		if data, err := json.Marshal(Message{Type: MessageError, Error: h.lastError}); err == nil {
			c.send <- data
		}
	}
	h.clients[c] = true
	count := len(h.clients)
	h.mu.Unlock()

	h.log.Debug(context.Background(), "client connected", "clients", count)
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c] {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			// too slow, drop it and let the browser reconnect
			delete(h.clients, c)
			close(c.send)
		}
	}
}

// writePump pumps messages to the websocket connection
func (c *Client) writePump(ctx context.Context, log logging.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case message, ok := <-c.send:
			if !ok {
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Write(writeCtx, websocket.MessageText, message)
			cancel()
			if err != nil {
				log.Debug(ctx, "websocket write failed", "error", err.Error())
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}
		}
	}
}
